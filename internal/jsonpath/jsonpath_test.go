package jsonpath

import (
	"errors"
	"testing"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"$", ""},
		{"$.token", ".token"},
		{"$.items[0].id", ".items[0].id"},
		{"$.data.user.name", ".data.user.name"},
		{"$.matrix[1][2]", ".matrix[1][2]"},
		{"$[0].id", "[0].id"},
		{"$.content-type", `["content-type"]`},
		{"$.2fa", `["2fa"]`},
		{"$['odd name'].x", "['odd name'].x"},
		{"$.a['b.c']", ".a['b.c']"},
		{"token", ".token"},
		{"$.$meta", ".$meta"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := Translate(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslate_Unsupported(t *testing.T) {
	paths := []string{
		"",
		"$..id",
		"$.items[*].id",
		"$.items[?(@.active)].id",
		"$.items[last]",
		"$.a..b",
		"$.a.",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			_, err := Translate(p)
			if !errors.Is(err, ErrUnsupported) {
				t.Errorf("expected ErrUnsupported, got %v", err)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	body := []byte(`{
		"token": "abc",
		"items": [{"id": 7, "tags": ["x", "y"]}, {"id": 8}],
		"odd name": {"v": true},
		"nothing": null
	}`)

	tests := []struct {
		path      string
		want      string
		wantFound bool
	}{
		{"$.token", "abc", true},
		{"$.items[0].id", "7", true},
		{"$.items[1].id", "8", true},
		{"$.items[0].tags[1]", "y", true},
		{"$['odd name'].v", "true", true},
		{"$.nothing", "null", true},
		{"$.items[5]", "", false},
		{"$.items[-1]", "", false},
		{"$.missing.deeper", "", false},
		{"$.token.length", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			v, found, err := EvaluateJSON(body, tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && Describe(v) != tt.want {
				t.Errorf("got %q, want %q", Describe(v), tt.want)
			}
		})
	}
}

func TestEvaluateJSON_InvalidBody(t *testing.T) {
	if _, _, err := EvaluateJSON([]byte("not json"), "$.a"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestSplitPathSegments(t *testing.T) {
	got := splitPathSegments("a.b[0].c['d.e']")
	want := []string{"a", "b[0]", "c['d.e']"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
