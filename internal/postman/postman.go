// Package postman models Postman v2.1 collections and environments and
// reads and writes them as indented JSON.
package postman

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// SchemaURL identifies the collection format.
const SchemaURL = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"

// Event listen values.
const (
	ListenPreRequest = "prerequest"
	ListenTest       = "test"
)

// Collection is a Postman v2.1 collection.
type Collection struct {
	Info     Info       `json:"info"`
	Item     []*Item    `json:"item"`
	Event    []Event    `json:"event,omitempty"`
	Variable []Variable `json:"variable,omitempty"`
}

// Info is the collection header.
type Info struct {
	PostmanID   string `json:"_postman_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Schema      string `json:"schema"`
}

// Item is a request or, when Item is non-empty, a folder.
type Item struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Item        []*Item  `json:"item,omitempty"`
	Request     *Request `json:"request,omitempty"`
	Event       []Event  `json:"event,omitempty"`
}

// Request is an HTTP request.
type Request struct {
	Method      string   `json:"method"`
	Header      []Header `json:"header"`
	Body        *Body    `json:"body,omitempty"`
	URL         URL      `json:"url"`
	Description string   `json:"description,omitempty"`
}

// Header is a request header.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Body is a raw request body.
type Body struct {
	Mode    string       `json:"mode"`
	Raw     string       `json:"raw"`
	Options *BodyOptions `json:"options,omitempty"`
}

// BodyOptions carries the raw body language used for highlighting.
type BodyOptions struct {
	Raw struct {
		Language string `json:"language"`
	} `json:"raw"`
}

// URL is a request URL. Raw is authoritative; the split fields are derived
// from it by ParseURL.
type URL struct {
	Raw      string       `json:"raw"`
	Protocol string       `json:"protocol,omitempty"`
	Host     []string     `json:"host,omitempty"`
	Path     []string     `json:"path,omitempty"`
	Query    []QueryParam `json:"query,omitempty"`
}

// QueryParam is one query string pair.
type QueryParam struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event attaches a script to an item or the collection.
type Event struct {
	Listen string `json:"listen"`
	Script Script `json:"script"`
}

// Script is JavaScript source stored one line per element.
type Script struct {
	Type string   `json:"type"`
	Exec []string `json:"exec"`
}

// Variable is a collection variable.
type Variable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// NewCollection returns an empty collection with a fresh id.
func NewCollection(name string) *Collection {
	return &Collection{
		Info: Info{
			PostmanID: uuid.NewString(),
			Name:      name,
			Schema:    SchemaURL,
		},
		Item: []*Item{},
	}
}

// NewFolder returns an item that groups other items.
func NewFolder(name string) *Item {
	return &Item{Name: name, Item: []*Item{}}
}

// IsFolder reports whether the item groups other items.
func (i *Item) IsFolder() bool {
	return i.Request == nil
}

// AddEvent appends script lines to the item's event for listen, creating it
// when needed. Empty line sets are ignored.
func (i *Item) AddEvent(listen string, lines []string) {
	i.Event = addEvent(i.Event, listen, lines)
}

// EventLines returns the script lines of the item's event for listen.
func (i *Item) EventLines(listen string) []string {
	return eventLines(i.Event, listen)
}

// AddEvent appends script lines to the collection-level event for listen.
func (c *Collection) AddEvent(listen string, lines []string) {
	c.Event = addEvent(c.Event, listen, lines)
}

// EventLines returns the collection-level script lines for listen.
func (c *Collection) EventLines(listen string) []string {
	return eventLines(c.Event, listen)
}

func addEvent(events []Event, listen string, lines []string) []Event {
	if len(lines) == 0 {
		return events
	}
	for i := range events {
		if events[i].Listen == listen {
			events[i].Script.Exec = append(events[i].Script.Exec, lines...)
			return events
		}
	}
	return append(events, Event{
		Listen: listen,
		Script: Script{Type: "text/javascript", Exec: append([]string(nil), lines...)},
	})
}

func eventLines(events []Event, listen string) []string {
	for _, e := range events {
		if e.Listen == listen {
			return e.Script.Exec
		}
	}
	return nil
}

// SetVariable adds a collection variable or overwrites an existing one.
func (c *Collection) SetVariable(key, value string) {
	for i := range c.Variable {
		if c.Variable[i].Key == key {
			c.Variable[i].Value = value
			return
		}
	}
	c.Variable = append(c.Variable, Variable{Key: key, Value: value, Type: "string"})
}

// VariableValue returns the value of a collection variable.
func (c *Collection) VariableValue(key string) (string, bool) {
	for _, v := range c.Variable {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Walk calls fn for every item in depth-first order.
func (c *Collection) Walk(fn func(it *Item, depth int)) {
	var walk func(items []*Item, depth int)
	walk = func(items []*Item, depth int) {
		for _, it := range items {
			fn(it, depth)
			walk(it.Item, depth+1)
		}
	}
	walk(c.Item, 0)
}

// RequestCount is the number of request items in the collection.
func (c *Collection) RequestCount() int {
	n := 0
	c.Walk(func(it *Item, _ int) {
		if !it.IsFolder() {
			n++
		}
	})
	return n
}

// NewRawBody returns a raw body tagged with the language matching
// mediaType. An empty payload returns nil.
func NewRawBody(payload, mediaType string) *Body {
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	b := &Body{Mode: "raw", Raw: payload, Options: &BodyOptions{}}
	mt := strings.ToLower(mediaType)
	switch {
	case strings.Contains(mt, "json"):
		b.Options.Raw.Language = "json"
	case strings.Contains(mt, "xml"):
		b.Options.Raw.Language = "xml"
	default:
		b.Options.Raw.Language = "text"
	}
	return b
}

// ParseURL splits raw into the structured form Postman displays. Template
// variables such as {{host}} are kept intact.
func ParseURL(raw string) URL {
	u := URL{Raw: raw}
	rest := raw
	if i := strings.Index(rest, "://"); i > 0 {
		u.Protocol, rest = rest[:i], rest[i+3:]
	}
	var query string
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}
	host, path, _ := strings.Cut(rest, "/")
	if host != "" {
		if strings.HasPrefix(host, "{{") {
			u.Host = []string{host}
		} else {
			u.Host = strings.Split(host, ".")
		}
	}
	if path != "" {
		u.Path = strings.Split(path, "/")
	}
	if query != "" {
		for _, pair := range strings.Split(query, "&") {
			k, v, _ := strings.Cut(pair, "=")
			u.Query = append(u.Query, QueryParam{Key: k, Value: v})
		}
	}
	return u
}

// Environment is a Postman environment file.
type Environment struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Values []EnvValue `json:"values"`
	Scope  string     `json:"_postman_variable_scope"`
}

// EnvValue is one environment variable.
type EnvValue struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// NewEnvironment returns an empty environment with a fresh id.
func NewEnvironment(name string) *Environment {
	return &Environment{
		ID:     uuid.NewString(),
		Name:   name,
		Values: []EnvValue{},
		Scope:  "environment",
	}
}

// Set adds a variable or overwrites an existing one.
func (e *Environment) Set(key, value string) {
	for i := range e.Values {
		if e.Values[i].Key == key {
			e.Values[i].Value = value
			return
		}
	}
	e.Values = append(e.Values, EnvValue{Key: key, Value: value, Type: "default", Enabled: true})
}

// Save writes v (a collection, environment or anything JSON-encodable) to
// path as indented JSON.
func Save(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadCollection reads a collection file.
func LoadCollection(path string) (*Collection, error) {
	var c Collection
	if err := load(path, &c); err != nil {
		return nil, err
	}
	if c.Info.Schema != SchemaURL {
		return nil, fmt.Errorf("%s: unsupported collection schema %q", path, c.Info.Schema)
	}
	return &c, nil
}

// LoadEnvironment reads an environment file.
func LoadEnvironment(path string) (*Environment, error) {
	var e Environment
	if err := load(path, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
