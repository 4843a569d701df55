package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthiktools/convert2postman/internal/diag"
)

// ---------------------------------------------------------------------------
// Template
// ---------------------------------------------------------------------------

func TestCompileTemplate(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
		max     int
	}{
		{raw: "plain text", max: 0},
		{raw: "$1 and ${2}", max: 2},
		{raw: "${3:-fallback}", max: 3},
		{raw: "cost: $$5", max: 0},
		{raw: "$", wantErr: true},
		{raw: "$x", wantErr: true},
		{raw: "${x}", wantErr: true},
		{raw: "${}", wantErr: true},
		{raw: "${1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			tmpl, err := CompileTemplate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.max, tmpl.MaxGroup())
			assert.Equal(t, tt.raw, tmpl.String())
		})
	}
}

// ---------------------------------------------------------------------------
// Rule
// ---------------------------------------------------------------------------

func TestRuleApply(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		template string
		input    string
		want     string
	}{
		{
			name:     "group values are inserted literally",
			pattern:  `v=(\S+)`,
			template: "[$1]",
			input:    "v=$1 v=${2:-x}",
			want:     "[$1] [${2:-x}]",
		},
		{
			name:     "non-participating group is empty",
			pattern:  `a(b)?c`,
			template: "<$1>",
			input:    "ac abc",
			want:     "<> <b>",
		},
		{
			name:     "conditional default",
			pattern:  `f\((\w+)?\)`,
			template: `g(${1:-"none"})`,
			input:    "f() f(x)",
			want:     `g("none") g(x)`,
		},
		{
			name:     "literal dollar",
			pattern:  `price`,
			template: "$$9",
			input:    "price",
			want:     "$9",
		},
		{
			name:     "no match leaves text alone",
			pattern:  `zzz`,
			template: "y",
			input:    "abc",
			want:     "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("test", tt.pattern, tt.template)
			require.NoError(t, r.Err())
			got, warn := r.Apply(tt.input)
			assert.Nil(t, warn)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRuleApply_MalformedRulesAreNoOps(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		template string
	}{
		{name: "bad pattern", pattern: `(`, template: "x"},
		{name: "bad template", pattern: `a`, template: "$x"},
		{name: "group out of range", pattern: `(a)`, template: "$2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New("broken", tt.pattern, tt.template)
			assert.Error(t, r.Err())

			got, warn := r.Apply("a a a")
			assert.Equal(t, "a a a", got)
			require.NotNil(t, warn)
			assert.Equal(t, diag.RuleApplicationFailure, warn.Kind)
			assert.Equal(t, "broken", warn.Source)
		})
	}
}

func TestRuleApply_ZeroValueCompilesLazily(t *testing.T) {
	r := &Rule{Name: "lazy", Pattern: `a`, Template: "b"}
	got, warn := r.Apply("aa")
	assert.Nil(t, warn)
	assert.Equal(t, "bb", got)
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func TestDefaultCatalogCompiles(t *testing.T) {
	c := Default()
	assert.Empty(t, c.Validate())
	assert.Greater(t, c.Len(), 50)
}

func TestCatalogRulesReturnsCopy(t *testing.T) {
	c := Default()
	rs := c.Rules(StageSyntax)
	rs[0] = New("replaced", `x`, "y")
	assert.NotEqual(t, "replaced", c.Rules(StageSyntax)[0].Name)
}

func TestCatalogContinuesPastBrokenRule(t *testing.T) {
	c := NewCatalog(
		[]*Rule{New("broken", `(`, "x"), New("upper", `a`, "A")},
		nil,
		[]*Rule{New("bang", `A`, "A!")},
	)

	got, warnings := c.Apply("abc")
	assert.Equal(t, "A!bc", got)
	require.Len(t, warnings, 1)
	assert.Equal(t, "broken", warnings[0].Source)
	assert.Len(t, c.Validate(), 1)
}

var conversions = []struct {
	name  string
	input string
	want  string
}{
	{
		name:  "step property read",
		input: `def x = testRunner.testCase.testSteps["Login"].getPropertyValue("token")`,
		want:  `let x = pm.collectionVariables.get("Login_token")`,
	},
	{
		name:  "step property write by name",
		input: `testRunner.testCase.getTestStepByName("Login").setPropertyValue("token", value)`,
		want:  `pm.collectionVariables.set("Login_token", value)`,
	},
	{
		name:  "step response content",
		input: `def body = context.testCase.testSteps["Search"].testRequest.response.contentAsString`,
		want:  `let body = pm.collectionVariables.get("Search_response")`,
	},
	{
		name:  "api mapping runs before method mapping",
		input: `testRunner.testCase.testSteps["A"].getPropertyValue("p").size()`,
		want:  `pm.collectionVariables.get("A_p").length`,
	},
	{
		name:  "test case property",
		input: `testRunner.testCase.setPropertyValue("id", id)`,
		want:  `pm.collectionVariables.set("id", id)`,
	},
	{
		name:  "project property",
		input: `def u = testRunner.testCase.testSuite.project.getPropertyValue("baseUrl")`,
		want:  `let u = pm.collectionVariables.get("baseUrl")`,
	},
	{
		name:  "expand project property",
		input: `def u = context.expand('${#Project#baseUrl}')`,
		want:  `let u = pm.collectionVariables.get("baseUrl")`,
	},
	{
		name:  "expand global property",
		input: `def g = context.expand('${#Global#tenant}')`,
		want:  `let g = pm.globals.get("tenant")`,
	},
	{
		name:  "expand environment property",
		input: `def e = context.expand('${#Env#host}')`,
		want:  `let e = pm.environment.get("host")`,
	},
	{
		name:  "expand step response",
		input: `def r = context.expand('${Login#Response}')`,
		want:  `let r = pm.collectionVariables.get("Login_response")`,
	},
	{
		name:  "expand step property in double quotes",
		input: `def t = context.expand("${Login#token}")`,
		want:  `let t = pm.collectionVariables.get("Login_token")`,
	},
	{
		name:  "context property",
		input: `context.setProperty("n", 1)`,
		want:  `pm.variables.set("n", 1)`,
	},
	{
		name:  "response status",
		input: `def code = messageExchange.responseStatusCode`,
		want:  `let code = pm.response.code`,
	},
	{
		name:  "log call",
		input: `log.info("hello")`,
		want:  `console.log("hello")`,
	},
	{
		name:  "log statement without parens",
		input: `log.info "hello"`,
		want:  `console.log("hello");`,
	},
	{
		name:  "assert with message",
		input: `assert x == 1 : "x must be 1"`,
		want:  `pm.expect(x === 1, "x must be 1").to.be.ok;`,
	},
	{
		name:  "assert without message",
		input: `assert ok`,
		want:  `pm.expect(ok, "assertion failed").to.be.ok;`,
	},
	{
		name:  "assert on a ternary",
		input: `assert x ? "a" : "b"`,
		want:  `pm.expect(x ? "a" : "b", "assertion failed").to.be.ok;`,
	},
	{
		name:  "assert on a ternary with message",
		input: `assert x ? a : b : "m"`,
		want:  `pm.expect(x ? a : b, "m").to.be.ok;`,
	},
	{
		name:  "assert with elvis and message",
		input: `assert name ?: fallback : 'no name'`,
		want:  `pm.expect(name ?? fallback, 'no name').to.be.ok;`,
	},
	{
		name:  "println and inequality",
		input: `if (a != b) println "diff"`,
		want:  `if (a !== b) console.log("diff");`,
	},
	{
		name:  "elvis",
		input: `def name = user?.name ?: "anon"`,
		want:  `let name = user?.name ?? "anon"`,
	},
	{
		name:  "integer cast",
		input: `def n = count as Integer`,
		want:  `let n = parseInt(count, 10)`,
	},
	{
		name:  "empty map",
		input: `def m = [:]`,
		want:  `let m = {}`,
	},
	{
		name:  "map literal",
		input: `def m = [a: 1, b: "x"]`,
		want:  `let m = {a: 1, b: "x"}`,
	},
	{
		name:  "nested map literal",
		input: `def m = [a: 1, b: [c: 2]]`,
		want:  `let m = {a: 1, b: {c: 2}}`,
	},
	{
		name:  "map with list value",
		input: `def m = [ids: [1, 2], url: "x:y"]`,
		want:  `let m = {ids: [1, 2], url: "x:y"}`,
	},
	{
		name:  "returned map",
		input: `return [ok: true]`,
		want:  `return {ok: true}`,
	},
	{
		name:  "map argument",
		input: `send([id: 1])`,
		want:  `send({id: 1})`,
	},
	{
		name:  "new list",
		input: `List<String> names = new ArrayList<String>()`,
		want:  `let names = []`,
	},
	{
		name:  "interpolated string",
		input: `def greeting = "Hello ${name}"`,
		want:  "let greeting = `Hello ${name}`",
	},
	{
		name:  "thread sleep",
		input: `Thread.sleep(1000)`,
		want:  `await new Promise((resolve) => setTimeout(resolve, 1000))`,
	},
	{
		name:  "uuid",
		input: `def id = UUID.randomUUID().toString()`,
		want:  `let id = pm.variables.replaceIn("{{$guid}}")`,
	},
	{
		name:  "json slurper",
		input: "def slurper = new JsonSlurper()\ndef json = slurper.parseText(text)",
		want:  "let slurper = JSON\nlet json = slurper.parse(text)",
	},
	{
		name:  "runner fail",
		input: `testRunner.fail("bad")`,
		want:  `pm.expect.fail("bad")`,
	},
	{
		name:  "runner cancel without reason",
		input: `testRunner.cancel()`,
		want:  `console.log("Run cancelled:", "no reason given"); postman.setNextRequest(null)`,
	},
	{
		name:  "contains",
		input: `if (name.contains("a")) {`,
		want:  `if (name.includes("a")) {`,
	},
	{
		name:  "equals ignore case",
		input: `s.equalsIgnoreCase("OK")`,
		want:  `s.toLowerCase() === String("OK").toLowerCase()`,
	},
	{
		name:  "to integer",
		input: `def n = s.toInteger()`,
		want:  `let n = parseInt(s, 10)`,
	},
	{
		name:  "matches",
		input: `s.matches("[0-9]+")`,
		want:  `new RegExp("^(?:" + "[0-9]+" + ")$").test(s)`,
	},
	{
		name:  "regex match operator",
		input: `if (code ==~ /[0-9]+/) {`,
		want:  `if (/^(?:[0-9]+)$/.test(code)) {`,
	},
	{
		name:  "each loop",
		input: "list.each { item ->\n    console.log(item)\n}",
		want:  "for (const item of list) {\n    console.log(item)\n}",
	},
	{
		name:  "each with index",
		input: "list.eachWithIndex { item, i ->",
		want:  "for (const [i, item] of list.entries()) {",
	},
	{
		name:  "implicit each",
		input: "items.each {\n    console.log(it)\n}",
		want:  "for (const it of items) {\n    console.log(it)\n}",
	},
	{
		name:  "findAll with implicit it",
		input: `def big = list.findAll { it > 1 }`,
		want:  `let big = list.filter((it) => it > 1)`,
	},
	{
		name:  "collect with parameter",
		input: `def names = users.collect { u -> u.name }`,
		want:  `let names = users.map((u) => u.name)`,
	},
	{
		name:  "function declaration",
		input: "def add(int a, String b) {",
		want:  "function add(a, b) {",
	},
	{
		name:  "catch clause",
		input: "} catch (Exception e) {",
		want:  "} catch (e) {",
	},
}

func TestDefaultCatalogConversions(t *testing.T) {
	c := Default()
	for _, tt := range conversions {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := c.Apply(tt.input)
			assert.Empty(t, warnings)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultCatalogIsIdempotent(t *testing.T) {
	c := Default()
	for _, tt := range conversions {
		t.Run(tt.name, func(t *testing.T) {
			once, _ := c.Apply(tt.input)
			twice, _ := c.Apply(once)
			assert.Equal(t, once, twice)
		})
	}
}

func TestStageOrder(t *testing.T) {
	assert.Equal(t, []Stage{StageSyntax, StageAPIMapping, StageMethodMapping}, Stages)
	names := make([]string, 0, len(Stages))
	for _, s := range Stages {
		names = append(names, s.String())
	}
	assert.Equal(t, "syntax,api-mapping,method-mapping", strings.Join(names, ","))
}
