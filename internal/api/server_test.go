package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthiktools/convert2postman/internal/convert"
	"github.com/karthiktools/convert2postman/internal/diag"
)

func newServer() *Server {
	return New(convert.New(nil, convert.Options{LibrarySuites: []string{"*library*"}}), nil)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := do(t, newServer(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Content-Type"))
}

func TestConvertScript(t *testing.T) {
	w := do(t, newServer(), http.MethodPost, "/v1/convert/script",
		`{"name":"Check","text":"def x = testRunner.testCase.testSteps[\"Login\"].getPropertyValue(\"token\")","role":"prerequest"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "(function () {", resp.Lines[0])
	assert.Contains(t, resp.Text, `let x = pm.collectionVariables.get("Login_token")`)
}

func TestConvertAssertion(t *testing.T) {
	w := do(t, newServer(), http.MethodPost, "/v1/convert/assertion",
		`{"kind":"contains","name":"Check OK","token":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{
		`pm.test("Check OK", function () {`,
		`    pm.expect(pm.response.text()).to.include("ok");`,
		`});`,
	}, resp.Lines)
}

func TestConvertTransfer(t *testing.T) {
	w := do(t, newServer(), http.MethodPost, "/v1/convert/transfer",
		`{"source_name":"Login","source_path":"//id","language":"XPATH","target_name":"id"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, diag.UnsupportedConstruct, resp.Warnings[0].Kind)
	assert.Contains(t, resp.Text, "requires manual completion")
}

func TestConvertBadRequests(t *testing.T) {
	s := newServer()
	tests := []struct {
		path string
		body string
	}{
		{"/v1/convert/script", `{"text":`},
		{"/v1/convert/script", `{"text":"x","role":"bogus"}`},
		{"/v1/convert/assertion", `{"kind":"contains","unknown":1}`},
		{"/v1/convert/project", `<not-soapui/>`},
	}
	for _, tt := range tests {
		t.Run(tt.path+" "+tt.body, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestConvertProject(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "soapui", "testdata", "petstore-soapui-project.xml"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/convert/project", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/xml")
	w := httptest.NewRecorder()
	newServer().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ProjectResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Petstore", resp.Collection.Info.Name)
	assert.Equal(t, 4, resp.Collection.RequestCount())
	assert.Equal(t, "request", resp.Report.Source)
	assert.NotEmpty(t, resp.Report.Entries)
	assert.Len(t, resp.Environment.Values, 2)
}

func TestRules(t *testing.T) {
	w := do(t, newServer(), http.MethodGet, "/v1/rules", "")
	require.Equal(t, http.StatusOK, w.Code)

	var rules []RuleInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rules))
	require.NotEmpty(t, rules)
	assert.Equal(t, "syntax", rules[0].Stage)
	assert.Equal(t, "method-mapping", rules[len(rules)-1].Stage)
	for _, r := range rules {
		assert.Empty(t, r.Error, r.Name)
	}
}

func TestNotFound(t *testing.T) {
	w := do(t, newServer(), http.MethodGet, "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, newServer(), http.MethodGet, "/v1/convert/script", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
