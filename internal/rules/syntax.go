package rules

// Building blocks shared by the rule patterns.
const (
	// typeList holds the Groovy declaration keywords and common Java types
	// that become untyped JavaScript bindings.
	typeList  = `def|String|int|Integer|long|Long|short|Short|boolean|Boolean|double|Double|float|Float|BigDecimal|Object|Map|List|Date`
	typeNames = `(?:` + typeList + `)`
	generics  = `(?:<[^>\n]*>)?(?:\[\])?`
	ident     = `[A-Za-z_]\w*`
	// receiver is a simple dotted expression, optionally ending in a
	// no-argument call: a.b.c or a.b.c().
	receiver = `([A-Za-z_$][\w$.]*(?:\(\))?)`
	// quote matches any string delimiter, including the backtick an
	// interpolated string has already been turned into.
	quote = "[\"'`]"
	// mapKey is a Groovy map key: a bare name or a quoted string.
	mapKey = `(?:` + ident + `|"[^"\n]*"|'[^'\n]*')`
	// listBody is the inside of a list literal: no brackets, and colons
	// only within strings.
	listBody = `(?:[^\[\]\n:"']|"[^"\n]*"|'[^'\n]*')*`
	// assertExpr is an assert condition before a message. A ternary is
	// taken whole so its else branch is not read as the message.
	assertExpr = `(?:[^?\n]|\?[:.])+?(?:\?[^:\n]+:(?:[^?\n]|\?[:.])+?)?`
)

// SyntaxRules returns the language-level rules: declarations, strings,
// operators, casts and literals.
func SyntaxRules() []*Rule {
	return []*Rule{
		New("triple-double-quoted-string", `(?s)"""(.*?)"""`, "`${1}`"),
		New("triple-single-quoted-string", `(?s)'''(.*?)'''`, "`${1}`"),
		New("interpolated-string", `"([^"\n]*\$\{[^#"\n][^"\n]*)"`, "`${1}`"),

		New("function-declaration",
			`(?m)^([ \t]*)(?:(?:public|private|protected|static)[ \t]+)*(?:void|`+typeList+`)`+generics+`[ \t]+(`+ident+`)[ \t]*\(`,
			"${1}function ${2}("),
		New("for-declaration", `\bfor[ \t]*\([ \t]*`+typeNames+`[ \t]+(`+ident+`)`, "for (let ${1}"),
		New("for-in-loop", `\bfor[ \t]*\([ \t]*(?:let[ \t]+)?(`+ident+`)[ \t]+in[ \t]+`, "for (const ${1} of "),
		New("catch-clause", `\bcatch[ \t]*\([ \t]*[\w.]+[ \t]+(`+ident+`)[ \t]*\)`, "catch (${1})"),
		New("typed-parameter", `([(,][ \t]*)(?:final[ \t]+)?`+typeNames+generics+`[ \t]+(`+ident+`)`, "${1}${2}"),
		New("typed-declaration",
			`(?m)^([ \t]*)(?:final[ \t]+)?`+typeNames+generics+`[ \t]+(`+ident+`)[ \t]*=`,
			"${1}let ${2} ="),
		New("bare-declaration",
			`(?m)^([ \t]*)(?:final[ \t]+)?`+typeNames+generics+`[ \t]+(`+ident+`)[ \t]*;?[ \t]*$`,
			"${1}let ${2};"),
		New("inline-def", `\bdef[ \t]+(`+ident+`)`, "let ${1}"),

		New("println-call", `\bprintln[ \t]*\(`, "console.log("),
		New("println-statement", `(?m)\bprintln[ \t]+([^\n;]+?)[ \t]*;?[ \t]*$`, "console.log(${1});"),

		New("assert-statement",
			`(?m)^([ \t]*)assert[ \t]+(?:(`+assertExpr+`)[ \t]*:[ \t]*("[^"\n]*"|'[^'\n]*'|`+"`[^`\\n]*`"+`)|(.+?))[ \t]*;?[ \t]*$`,
			`${1}pm.expect(${2}${4}, ${3:-"assertion failed"}).to.be.ok;`),

		New("regex-match-operator", receiver+`[ \t]*==~[ \t]*/([^/\n]+)/`, "/^(?:${2})$$/.test(${1})"),
		New("regex-find-operator", receiver+`[ \t]*=~[ \t]*/([^/\n]+)/`, "/${2}/.test(${1})"),

		New("empty-map", `\[[ \t]*:[ \t]*\]`, "{}"),
		New("inner-map-literal",
			`((?:[=:,(?]|\breturn)[ \t]*)\[([ \t]*`+mapKey+`[ \t]*:[^\[\]\n]*)\]`,
			"${1}{${2}}"),
		New("map-literal",
			`=[ \t]*\[([ \t]*`+mapKey+`[ \t]*:(?:[^\[\]\n]|\[`+listBody+`\])*)\]`,
			"= {${1}}"),
		New("new-list", `\bnew[ \t]+(?:java\.util\.)?(?:ArrayList|LinkedList)(?:<[^>\n]*>)?\(\)`, "[]"),
		New("new-map", `\bnew[ \t]+(?:java\.util\.)?(?:HashMap|LinkedHashMap|TreeMap)(?:<[^>\n]*>)?\(\)`, "{}"),

		New("strict-equality", `([^=!<>])==([^=])`, "${1}===${2}"),
		New("strict-inequality", `!=([^=])`, "!==${1}"),
		New("elvis-operator", `([^(])\?:`, "${1}??"),

		New("cast-integer", receiver+`[ \t]+as[ \t]+(?:Integer|int|Long|long|Short|short)\b`, "parseInt(${1}, 10)"),
		New("cast-decimal", receiver+`[ \t]+as[ \t]+(?:Double|double|Float|float|BigDecimal)\b`, "parseFloat(${1})"),
		New("cast-string", receiver+`[ \t]+as[ \t]+String\b`, "String(${1})"),
		New("cast-boolean", receiver+`[ \t]+as[ \t]+(?:Boolean|boolean)\b`, "Boolean(${1})"),
	}
}
