package script

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	role Role
	name string
	text string
}

// memo is a bounded cache of conversion results. SoapUI projects repeat the
// same setup snippets across many test cases; the cache avoids re-running
// the catalog for them. Results are copied in and out so callers never
// share slices.
type memo struct {
	c *lru.Cache[cacheKey, Result]
}

func newMemo(size int) *memo {
	if size <= 0 {
		return nil
	}
	c, err := lru.New[cacheKey, Result](size)
	if err != nil {
		return nil
	}
	return &memo{c: c}
}

func (m *memo) get(f Fragment) (Result, bool) {
	if m == nil {
		return Result{}, false
	}
	r, ok := m.c.Get(cacheKey{f.Role, f.Name, f.Text})
	if !ok {
		return Result{}, false
	}
	return r.Clone(), true
}

func (m *memo) add(f Fragment, r Result) {
	if m == nil {
		return
	}
	m.c.Add(cacheKey{f.Role, f.Name, f.Text}, r.Clone())
}

func (m *memo) len() int {
	if m == nil {
		return 0
	}
	return m.c.Len()
}
