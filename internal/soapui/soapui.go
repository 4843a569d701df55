// Package soapui reads SoapUI project files.
//
// Only the parts of the project the converter uses are modelled: properties,
// test suites, test cases, their setup and teardown scripts, and test steps
// with their requests, assertions, scripts and property transfers. Element
// names are matched without their "con:" namespace prefix.
package soapui

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// Project is the root <con:soapui-project> element.
type Project struct {
	XMLName    xml.Name    `xml:"soapui-project"`
	Name       string      `xml:"name,attr"`
	Properties []Property  `xml:"properties>property"`
	Interfaces []Interface `xml:"interface"`
	TestSuites []TestSuite `xml:"testSuite"`
}

// Property is a name/value pair at any scope.
type Property struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
}

// Interface is a REST service or SOAP binding. Operations carry the SOAP
// action used for SOAP request steps.
type Interface struct {
	Name       string      `xml:"name,attr"`
	Endpoints  []string    `xml:"endpoints>endpoint"`
	Operations []Operation `xml:"operation"`
}

// Operation is a SOAP operation.
type Operation struct {
	Name   string `xml:"name,attr"`
	Action string `xml:"action,attr"`
}

// TestSuite groups test cases.
type TestSuite struct {
	Name           string     `xml:"name,attr"`
	Disabled       string     `xml:"disabled,attr"`
	Properties     []Property `xml:"properties>property"`
	TestCases      []TestCase `xml:"testCase"`
	SetupScript    string     `xml:"setupScript"`
	TearDownScript string     `xml:"tearDownScript"`
}

// TestCase is an ordered list of test steps.
type TestCase struct {
	Name           string     `xml:"name,attr"`
	Disabled       string     `xml:"disabled,attr"`
	Properties     []Property `xml:"properties>property"`
	TestSteps      []TestStep `xml:"testStep"`
	SetupScript    string     `xml:"setupScript"`
	TearDownScript string     `xml:"tearDownScript"`
}

// TestStep is one step. Its Config holds the fields of every step type;
// only those of Type are populated.
type TestStep struct {
	Type     string     `xml:"type,attr"`
	Name     string     `xml:"name,attr"`
	Disabled string     `xml:"disabled,attr"`
	Config   StepConfig `xml:"config"`
}

// StepConfig is the <con:config> element of a test step.
type StepConfig struct {
	// restrequest
	Service      string   `xml:"service,attr"`
	ResourcePath string   `xml:"resourcePath,attr"`
	MethodName   string   `xml:"methodName,attr"`
	RestRequest  *Request `xml:"restRequest"`

	// httprequest keeps its request fields directly under config; a SOAP
	// request step nests them in <con:request>.
	Method     string            `xml:"method,attr"`
	MediaType  string            `xml:"mediaType,attr"`
	Endpoint   string            `xml:"endpoint"`
	Request    *Request          `xml:"request"`
	Assertions []AssertionConfig `xml:"assertion"`
	Settings   []Setting         `xml:"settings>setting"`
	Parameters []Entry           `xml:"parameters>entry"`

	// request (SOAP)
	Interface string `xml:"interface"`
	Operation string `xml:"operation"`

	// groovy
	Script string `xml:"script"`

	// transfer
	Transfers []TransferConfig `xml:"transfers"`

	// properties
	Properties []Property `xml:"properties>property"`

	// delay
	Delay string `xml:"delay"`
}

// Request is a <con:restRequest> or SOAP <con:request> element. For an
// httprequest step the body is the element's character data.
type Request struct {
	Name        string            `xml:"name,attr"`
	MediaType   string            `xml:"mediaType,attr"`
	Endpoint    string            `xml:"endpoint"`
	Body        string            `xml:"request"`
	OriginalURI string            `xml:"originalUri"`
	Assertions  []AssertionConfig `xml:"assertion"`
	Settings    []Setting         `xml:"settings>setting"`
	Parameters  []Entry           `xml:"parameters>entry"`
	Text        string            `xml:",chardata"`
}

// Setting is a <con:setting id="..."> entry.
type Setting struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

// Entry is a key/value attribute pair, used for parameters and headers.
type Entry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// AssertionConfig is a <con:assertion> element.
type AssertionConfig struct {
	Type     string            `xml:"type,attr"`
	Name     string            `xml:"name,attr"`
	Disabled string            `xml:"disabled,attr"`
	Config   AssertionSettings `xml:"configuration"`
}

// AssertionSettings holds the configuration fields of every assertion type.
type AssertionSettings struct {
	Codes      string `xml:"codes"`
	Token      string `xml:"token"`
	IgnoreCase string `xml:"ignoreCase"`
	UseRegEx   string `xml:"useRegEx"`
	Path       string `xml:"path"`
	Content    string `xml:"content"`
	ScriptText string `xml:"scriptText"`
	SLA        string `xml:"SLA"`
}

// TransferConfig is a <con:transfers> element.
type TransferConfig struct {
	Disabled     string `xml:"disabled,attr"`
	Name         string `xml:"name"`
	SourceType   string `xml:"sourceType"`
	SourceStep   string `xml:"sourceStep"`
	SourcePath   string `xml:"sourcePath"`
	TargetType   string `xml:"targetType"`
	TargetStep   string `xml:"targetStep"`
	TargetPath   string `xml:"targetPath"`
	Type         string `xml:"type"`
	PathLanguage string `xml:"sourcePathLanguage"`
}

// Load reads and parses a project file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a project document.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing SoapUI XML: %w", err)
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "SoapUI Project"
	}
	return &p, nil
}

// Interface returns the interface with the given name.
func (p *Project) Interface(name string) (Interface, bool) {
	for _, iface := range p.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return Interface{}, false
}

// SOAPAction returns the action of operation op on interface iface.
func (p *Project) SOAPAction(iface, op string) string {
	i, ok := p.Interface(iface)
	if !ok {
		return ""
	}
	for _, o := range i.Operations {
		if o.Name == op {
			return o.Action
		}
	}
	return ""
}

func isTrue(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// IsDisabled reports whether the suite is switched off in SoapUI.
func (s TestSuite) IsDisabled() bool { return isTrue(s.Disabled) }

// IsDisabled reports whether the case is switched off in SoapUI.
func (c TestCase) IsDisabled() bool { return isTrue(c.Disabled) }

// IsDisabled reports whether the step is switched off in SoapUI.
func (s TestStep) IsDisabled() bool { return isTrue(s.Disabled) }
