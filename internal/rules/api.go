package rules

const (
	// stepRef captures a test step reached through the current test case,
	// by index syntax (group 1) or by getTestStepByName (group 2). Exactly
	// one of the two participates, so templates emit "${1}${2}".
	stepRef = `(?:testRunner|context)\.(?:testCase|getTestCase\(\))\.(?:testSteps\[[ \t]*["']([^"'\n]+)["'][ \t]*\]|getTestStepByName\([ \t]*["']([^"'\n]+)["'][ \t]*\))`

	responseContent = `\.(?:testRequest|getTestRequest\(\))\.(?:response|getResponse\(\))\.(?:contentAsString|getContentAsString\(\)|responseContent|getResponseContent\(\))`

	// expandOpen and expandClose bracket the quoted argument of
	// context.expand(...).
	expandOpen  = `context\.expand\([ \t]*` + quote + `\$\{`
	expandClose = `\}` + quote + `[ \t]*\)`
)

// APIRules returns the rules that map SoapUI runtime objects (testRunner,
// context, messageExchange, log) and Groovy/Java library calls onto the
// Postman sandbox. Step response rules precede step property rules.
func APIRules() []*Rule {
	return []*Rule{
		New("step-response-content", stepRef+responseContent, `pm.collectionVariables.get("${1}${2}_response")`),
		New("step-response-property", stepRef+`\.getPropertyValue\([ \t]*["']Response["'][ \t]*\)`, `pm.collectionVariables.get("${1}${2}_response")`),
		New("step-property-get", stepRef+`\.getPropertyValue\([ \t]*["']([^"'\n]+)["'][ \t]*\)`, `pm.collectionVariables.get("${1}${2}_${3}")`),
		New("step-property-set", stepRef+`\.setPropertyValue\([ \t]*["']([^"'\n]+)["'][ \t]*,[ \t]*`, `pm.collectionVariables.set("${1}${2}_${3}", `),
		New("scoped-property", `\b(?:testRunner|context)\.(?:testCase|getTestCase\(\))(?:\.testSuite(?:\.project)?)?\.(get|set)PropertyValue\(`, "pm.collectionVariables.${1}("),
		New("global-property", `\b(?:com\.eviware\.soapui\.)?SoapUI\.globalProperties\.(get|set)PropertyValue\(`, "pm.globals.${1}("),

		New("expand-collection-property", expandOpen+`#(?:Project|TestSuite|TestCase)#([^}"'\n]+)`+expandClose, `pm.collectionVariables.get("${1}")`),
		New("expand-global-property", expandOpen+`#Global#([^}"'\n]+)`+expandClose, `pm.globals.get("${1}")`),
		New("expand-environment-property", expandOpen+`#Env#([^}"'\n]+)`+expandClose, `pm.environment.get("${1}")`),
		New("expand-step-response", expandOpen+`([^#}"'\n]+)#Response`+expandClose, `pm.collectionVariables.get("${1}_response")`),
		New("expand-step-property", expandOpen+`([^#}"'\n]+)#([^#}"'\n]+)`+expandClose, `pm.collectionVariables.get("${1}_${2}")`),
		New("context-property", `\bcontext\.(get|set)Property\(`, "pm.variables.${1}("),

		New("exchange-response-text", `\bmessageExchange\.(?:response\.(?:responseContent|contentAsString)|responseContent|getResponseContent\(\)|getResponse\(\)\.getContentAsString\(\))`, "pm.response.text()"),
		New("exchange-status-code", `\bmessageExchange\.(?:response\.)?(?:responseStatusCode|statusCode|getResponseStatusCode\(\))`, "pm.response.code"),
		New("exchange-response-header", `\bmessageExchange\.(?:response\.)?responseHeaders\[[ \t]*["']([^"'\n]+)["'][ \t]*\]`, `pm.response.headers.get("${1}")`),
		New("exchange-time-taken", `\bmessageExchange\.(?:timeTaken|getTimeTaken\(\))`, "pm.response.responseTime"),

		New("log-info-call", `\blog\.(?:info|debug|trace)\(`, "console.log("),
		New("log-warn-call", `\blog\.warn\(`, "console.warn("),
		New("log-error-call", `\blog\.error\(`, "console.error("),
		New("log-statement", `(?m)\blog\.(?:info|debug|trace)[ \t]+([^\n(][^\n]*?)[ \t]*;?[ \t]*$`, "console.log(${1});"),

		New("thread-sleep", `\bThread\.sleep\(([^()\n]+)\)`, "await new Promise((resolve) => setTimeout(resolve, ${1}))"),
		New("bare-sleep", `(^|[^.\w])sleep\(([^()\n]+)\)`, "${1}await new Promise((resolve) => setTimeout(resolve, ${2}))"),

		New("json-slurper-parse", `\bnew[ \t]+(?:groovy\.json\.)?JsonSlurper\(\)\.parse(?:Text)?\(`, "JSON.parse("),
		New("json-slurper", `\bnew[ \t]+(?:groovy\.json\.)?JsonSlurper\(\)`, "JSON"),
		New("json-pretty-print", `\b(?:groovy\.json\.)?JsonOutput\.prettyPrint\(([^()\n]*(?:\([^()\n]*\))?[^()\n]*)\)`, "JSON.stringify(JSON.parse(${1}), null, 2)"),
		New("json-to-json", `\b(?:groovy\.json\.)?JsonOutput\.toJson\(`, "JSON.stringify("),

		New("runner-fail", `\btestRunner\.fail\(`, "pm.expect.fail("),
		New("runner-goto-step", `\btestRunner\.gotoStepByName\(`, "postman.setNextRequest("),
		New("runner-cancel", `\btestRunner\.cancel\([ \t]*([^()\n]+?)?[ \t]*\)`, `console.log("Run cancelled:", ${1:-"no reason given"}); postman.setNextRequest(null)`),

		New("current-time-millis", `\bSystem\.currentTimeMillis\(\)`, "Date.now()"),
		New("random-uuid", `\b(?:java\.util\.)?UUID\.randomUUID\(\)(?:\.toString\(\))?`, `pm.variables.replaceIn("{{$$guid}}")`),
		New("random-int", `\bnew[ \t]+(?:java\.util\.)?Random\(\)\.nextInt\(([^()\n]+)\)`, "Math.floor(Math.random() * (${1}))"),
	}
}
