package rules

// closureBody matches the body of a single-line closure: no nested braces
// and no parameter arrow.
const closureBody = `((?:[^{}\n-]|-[^>])*?)`

// closureRule maps a single-line Groovy collection closure such as
// list.findAll { it > 1 } or list.collect { x -> x * 2 } onto the JavaScript
// array method with an arrow callback. Implicit "it" is made explicit.
func closureRule(groovy, js string) *Rule {
	return New("closure-"+groovy,
		`\.`+groovy+`[ \t]*\{[ \t]*(?:(`+ident+`)[ \t]*->)?[ \t]*`+closureBody+`[ \t]*\}`,
		"."+js+"((${1:-it}) => ${2})")
}

// MethodRules returns the rules for Groovy/Java method names that have a
// different JavaScript spelling. They assume object paths were already
// rewritten by the api-mapping stage.
func MethodRules() []*Rule {
	return []*Rule{
		New("size-call", `\.size\(\)`, ".length"),
		New("length-call", `\.length\(\)`, ".length"),
		New("is-empty-call", `\.isEmpty\(\)`, ".length === 0"),
		New("contains-call", `\.contains\(`, ".includes("),
		New("equals-ignore-case", `\.equalsIgnoreCase\(([^()\n]*)\)`, ".toLowerCase() === String(${1}).toLowerCase()"),
		New("equals-call", `\.equals\(`, " === ("),
		New("to-integer", receiver+`\.(?:toInteger|toLong)\(\)`, "parseInt(${1}, 10)"),
		New("to-decimal", receiver+`\.(?:toDouble|toFloat|toBigDecimal)\(\)`, "parseFloat(${1})"),
		New("matches-call", receiver+`\.matches\(([^()\n]+)\)`, `new RegExp("^(?:" + ${2} + ")$$").test(${1})`),
		New("replace-all-call", `\.replaceAll\([ \t]*([^,\n]+?)[ \t]*,`, `.replace(new RegExp(${1}, "g"),`),
		New("key-set-call", receiver+`\.keySet\(\)`, "Object.keys(${1})"),
		New("parse-text-call", `\.parseText\(`, ".parse("),

		New("each-with-index-loop",
			`(?m)^([ \t]*)([^\n]+?)\.eachWithIndex[ \t]*\{[ \t]*(`+ident+`)[ \t]*,[ \t]*(`+ident+`)[ \t]*->`,
			"${1}for (const [${4}, ${3}] of ${2}.entries()) {"),
		New("each-loop",
			`(?m)^([ \t]*)([^\n]+?)\.each[ \t]*\{[ \t]*(`+ident+`)[ \t]*->`,
			"${1}for (const ${3} of ${2}) {"),
		New("each-implicit-loop",
			`(?m)^([ \t]*)([^\n]+?)\.each[ \t]*\{[ \t]*$`,
			"${1}for (const it of ${2}) {"),
		New("each-inline", `\.each[ \t]*\{`+closureBody+`\}`, ".forEach((it) => {${1}})"),

		closureRule("findAll", "filter"),
		closureRule("find", "find"),
		closureRule("collect", "map"),
		closureRule("any", "some"),
		closureRule("every", "every"),

		New("sum-call", `\.sum\(\)`, ".reduce((acc, n) => acc + n, 0)"),
		New("first-call", `\.first\(\)`, "[0]"),
		New("last-call", `\.last\(\)`, ".slice(-1)[0]"),
	}
}
