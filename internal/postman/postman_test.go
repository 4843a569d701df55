package postman

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollection(t *testing.T) {
	c := NewCollection("Petstore")
	assert.Equal(t, "Petstore", c.Info.Name)
	assert.Equal(t, SchemaURL, c.Info.Schema)
	_, err := uuid.Parse(c.Info.PostmanID)
	assert.NoError(t, err)
	assert.NotEqual(t, c.Info.PostmanID, NewCollection("Petstore").Info.PostmanID)
	assert.NotNil(t, c.Item)
}

func TestAddEvent_Merges(t *testing.T) {
	it := &Item{Name: "Login", Request: &Request{Method: "GET"}}
	it.AddEvent(ListenTest, []string{"a;"})
	it.AddEvent(ListenPreRequest, []string{"p;"})
	it.AddEvent(ListenTest, []string{"b;"})
	it.AddEvent(ListenTest, nil)

	require.Len(t, it.Event, 2)
	assert.Equal(t, []string{"a;", "b;"}, it.EventLines(ListenTest))
	assert.Equal(t, []string{"p;"}, it.EventLines(ListenPreRequest))
	assert.Equal(t, "text/javascript", it.Event[0].Script.Type)
	assert.Nil(t, (&Item{}).EventLines(ListenTest))
}

func TestAddEvent_CopiesLines(t *testing.T) {
	lines := []string{"x;"}
	c := NewCollection("c")
	c.AddEvent(ListenPreRequest, lines)
	lines[0] = "changed"
	assert.Equal(t, []string{"x;"}, c.EventLines(ListenPreRequest))
}

func TestSetVariable(t *testing.T) {
	c := NewCollection("c")
	c.SetVariable("a", "1")
	c.SetVariable("b", "2")
	c.SetVariable("a", "3")

	assert.Equal(t, []Variable{{Key: "a", Value: "3", Type: "string"}, {Key: "b", Value: "2", Type: "string"}}, c.Variable)
	v, ok := c.VariableValue("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	_, ok = c.VariableValue("z")
	assert.False(t, ok)
}

func TestWalkAndRequestCount(t *testing.T) {
	c := NewCollection("c")
	folder := NewFolder("Suite")
	sub := NewFolder("Case")
	sub.Item = append(sub.Item, &Item{Name: "A", Request: &Request{}}, &Item{Name: "B", Request: &Request{}})
	folder.Item = append(folder.Item, sub)
	c.Item = append(c.Item, folder, &Item{Name: "C", Request: &Request{}})

	var names []string
	var depths []int
	c.Walk(func(it *Item, depth int) {
		names = append(names, it.Name)
		depths = append(depths, depth)
	})
	assert.Equal(t, []string{"Suite", "Case", "A", "B", "C"}, names)
	assert.Equal(t, []int{0, 1, 2, 2, 0}, depths)
	assert.Equal(t, 3, c.RequestCount())
}

func TestNewRawBody(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
	}{
		{"application/json", "json"},
		{"text/xml", "xml"},
		{"application/soap+xml", "xml"},
		{"", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.mediaType, func(t *testing.T) {
			b := NewRawBody("payload", tt.mediaType)
			require.NotNil(t, b)
			assert.Equal(t, "raw", b.Mode)
			assert.Equal(t, tt.want, b.Options.Raw.Language)
		})
	}
	assert.Nil(t, NewRawBody("  ", "application/json"))
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw  string
		want URL
	}{
		{
			raw: "https://api.example.com/v1/pets?limit=10&kind={{kind}}",
			want: URL{
				Raw:      "https://api.example.com/v1/pets?limit=10&kind={{kind}}",
				Protocol: "https",
				Host:     []string{"api", "example", "com"},
				Path:     []string{"v1", "pets"},
				Query:    []QueryParam{{Key: "limit", Value: "10"}, {Key: "kind", Value: "{{kind}}"}},
			},
		},
		{
			raw: "{{baseUrl}}/login",
			want: URL{
				Raw:  "{{baseUrl}}/login",
				Host: []string{"{{baseUrl}}"},
				Path: []string{"login"},
			},
		},
		{
			raw:  "",
			want: URL{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseURL(tt.raw))
		})
	}
}

func TestEnvironment(t *testing.T) {
	e := NewEnvironment("Petstore")
	e.Set("host", "a")
	e.Set("host", "b")
	e.Set("user", "alice")

	assert.Equal(t, "environment", e.Scope)
	assert.Equal(t, []EnvValue{
		{Key: "host", Value: "b", Type: "default", Enabled: true},
		{Key: "user", Value: "alice", Type: "default", Enabled: true},
	}, e.Values)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	c := NewCollection("Petstore")
	it := &Item{Name: "Login", Request: &Request{
		Method: "POST",
		Header: []Header{{Key: "Accept", Value: "application/json"}},
		Body:   NewRawBody(`{"a":1}`, "application/json"),
		URL:    ParseURL("{{baseUrl}}/login"),
	}}
	it.AddEvent(ListenTest, []string{`pm.test("ok", function () {});`})
	c.Item = append(c.Item, it)
	c.SetVariable("token", "")

	path := filepath.Join(dir, "collection.json")
	require.NoError(t, Save(path, c))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"info\": {")
	assert.Equal(t, byte('\n'), data[len(data)-1])

	loaded, err := LoadCollection(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)

	env := NewEnvironment("Petstore")
	env.Set("host", "h")
	envPath := filepath.Join(dir, "env.json")
	require.NoError(t, Save(envPath, env))
	loadedEnv, err := LoadEnvironment(envPath)
	require.NoError(t, err)
	assert.Equal(t, env, loadedEnv)
}

func TestLoadCollection_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCollection(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "reading")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = LoadCollection(bad)
	assert.ErrorContains(t, err, "parsing")

	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(other, []byte(`{"info":{"schema":"v1"},"item":[]}`), 0o644))
	_, err = LoadCollection(other)
	assert.ErrorContains(t, err, "unsupported collection schema")
}
