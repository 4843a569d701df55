package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/karthiktools/convert2postman/internal/assertion"
	"github.com/karthiktools/convert2postman/internal/convert"
	"github.com/karthiktools/convert2postman/internal/jsonpath"
	"github.com/karthiktools/convert2postman/internal/naming"
	"github.com/karthiktools/convert2postman/internal/postman"
	"github.com/karthiktools/convert2postman/internal/report"
	"github.com/karthiktools/convert2postman/internal/script"
	"github.com/karthiktools/convert2postman/internal/soapui"
	"github.com/karthiktools/convert2postman/internal/transfer"
)

// Tool describes an MCP tool definition.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"inputSchema"`
}

// ToolResult is returned from tool invocations.
type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// ToolContent holds a single piece of tool output.
type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textResult(text string) ToolResult {
	return ToolResult{Content: []ToolContent{{Type: "text", Text: text}}}
}

func errorResult(format string, args ...any) ToolResult {
	r := textResult("Error: " + fmt.Sprintf(format, args...))
	r.IsError = true
	return r
}

type toolHandler func(ctx context.Context, conv *convert.Converter, params json.RawMessage) ToolResult

type toolEntry struct {
	Tool    Tool
	Handler toolHandler
}

func allTools() []toolEntry {
	return []toolEntry{
		{
			Tool: Tool{
				Name:        "convert_script",
				Description: "Convert a SoapUI Groovy script into Postman sandbox JavaScript. The role decides the wrapper: test (pm.test block), prerequest (immediately invoked function), library (object with init) or assertion (bare body).",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {"text": {"type": "string", "description": "Groovy source"}, "name": {"type": "string", "description": "Test or library name"}, "role": {"type": "string", "enum": ["test", "prerequest", "library", "assertion"], "description": "Defaults to test"}}, "required": ["text"]}`),
			},
			Handler: handleScript,
		},
		{
			Tool: Tool{
				Name:        "convert_assertion",
				Description: "Convert one SoapUI assertion into a Postman test block.",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {"kind": {"type": "string", "enum": ["status-codes", "invalid-status-codes", "path-match", "path-exists", "contains", "not-contains", "inline-script", "response-sla", "unsupported"]}, "name": {"type": "string"}, "codes": {"type": "array", "items": {"type": "integer"}}, "path": {"type": "string"}, "expected": {"type": "string"}, "token": {"type": "string"}, "ignore_case": {"type": "boolean"}, "script": {"type": "string"}, "sla": {"type": "integer"}, "raw_type": {"type": "string"}}, "required": ["kind"]}`),
			},
			Handler: handleAssertion,
		},
		{
			Tool: Tool{
				Name:        "convert_transfer",
				Description: "Convert one SoapUI property transfer into a Postman pre-request block that reads the stored source response and sets a collection variable.",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {"name": {"type": "string"}, "source_name": {"type": "string", "description": "Source test step"}, "source_property": {"type": "string"}, "source_path": {"type": "string"}, "language": {"type": "string", "description": "JSONPATH, XPATH or XQUERY"}, "target_name": {"type": "string"}, "target_path": {"type": "string"}}, "required": ["source_name", "target_name"]}`),
			},
			Handler: handleTransfer,
		},
		{
			Tool: Tool{
				Name:        "convert_project",
				Description: "Convert a whole SoapUI project, given as a file path or inline XML, into a Postman collection and environment. Returns the review report; with output_dir the collection, environment and report are written there.",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {"path": {"type": "string", "description": "Path to a SoapUI project XML file"}, "xml": {"type": "string", "description": "Inline SoapUI project XML"}, "output_dir": {"type": "string", "description": "Directory to write the converted files to (optional)"}}, "required": []}`),
			},
			Handler: handleProject,
		},
		{
			Tool: Tool{
				Name:        "translate_jsonpath",
				Description: "Translate a simple JSONPath into the JavaScript accessor the converter emits, optionally previewing its value against a sample JSON body.",
				InputSchema: json.RawMessage(`{"type": "object", "properties": {"path": {"type": "string"}, "sample": {"type": "string", "description": "JSON document to evaluate the path against (optional)"}}, "required": ["path"]}`),
			},
			Handler: handleJSONPath,
		},
	}
}

func resultText(res script.Result) string {
	var out strings.Builder
	out.WriteString(res.Text())
	if len(res.Warnings) > 0 {
		out.WriteString("\n\nWarnings:\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&out, "- %s\n", w)
		}
	}
	return out.String()
}

type scriptParams struct {
	Text string      `json:"text"`
	Name string      `json:"name"`
	Role script.Role `json:"role"`
}

func handleScript(_ context.Context, conv *convert.Converter, params json.RawMessage) ToolResult {
	var p scriptParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return errorResult("%v", err)
		}
	}
	if strings.TrimSpace(p.Text) == "" {
		return errorResult("'text' argument is required")
	}
	return textResult(resultText(conv.Rewriter().Convert(script.Fragment{Name: p.Name, Text: p.Text, Role: p.Role})))
}

func handleAssertion(_ context.Context, conv *convert.Converter, params json.RawMessage) ToolResult {
	var rec assertion.Record
	if err := json.Unmarshal(params, &rec); err != nil {
		return errorResult("invalid assertion: %v", err)
	}
	return textResult(resultText(conv.Assertions().Convert(rec)))
}

func handleTransfer(_ context.Context, conv *convert.Converter, params json.RawMessage) ToolResult {
	var rec transfer.Record
	if err := json.Unmarshal(params, &rec); err != nil {
		return errorResult("invalid transfer: %v", err)
	}
	if rec.SourceName == "" || rec.TargetName == "" {
		return errorResult("'source_name' and 'target_name' arguments are required")
	}
	return textResult(resultText(conv.Transfers().Convert(rec)))
}

type projectParams struct {
	Path      string `json:"path"`
	XML       string `json:"xml"`
	OutputDir string `json:"output_dir"`
}

func handleProject(ctx context.Context, conv *convert.Converter, params json.RawMessage) ToolResult {
	var p projectParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return errorResult("%v", err)
		}
	}

	var (
		out *convert.Output
		err error
	)
	switch {
	case p.Path != "" && p.XML != "":
		return errorResult("pass either 'path' or 'xml', not both")
	case p.Path != "":
		out, err = conv.ConvertFile(ctx, p.Path)
	case p.XML != "":
		var proj *soapui.Project
		if proj, err = soapui.Parse([]byte(p.XML)); err == nil {
			out, err = conv.ConvertProject(ctx, proj)
		}
	default:
		return errorResult("one of 'path' or 'xml' is required")
	}
	if err != nil {
		return errorResult("%v", err)
	}

	var text strings.Builder
	if p.OutputDir != "" {
		files, err := writeOutput(p.OutputDir, out)
		if err != nil {
			return errorResult("%v", err)
		}
		text.WriteString("Wrote:\n")
		for _, f := range files {
			fmt.Fprintf(&text, "  %s\n", f)
		}
		text.WriteString("\n")
	}
	text.WriteString(out.Report.Markdown())
	return textResult(text.String())
}

func writeOutput(dir string, out *convert.Output) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	base := filepath.Join(dir, naming.FileName(out.Collection.Info.Name))
	files := []string{
		base + ".postman_collection.json",
		base + ".postman_environment.json",
		base + ".report.json",
	}
	err := errors.Join(
		postman.Save(files[0], out.Collection),
		postman.Save(files[1], out.Environment),
		report.Save(files[2], out.Report),
	)
	if err != nil {
		return nil, err
	}
	return files, nil
}

type jsonPathParams struct {
	Path   string `json:"path"`
	Sample string `json:"sample"`
}

func handleJSONPath(_ context.Context, _ *convert.Converter, params json.RawMessage) ToolResult {
	var p jsonPathParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return errorResult("%v", err)
		}
	}
	if p.Path == "" {
		return errorResult("'path' argument is required")
	}

	accessor, err := jsonpath.Translate(p.Path)
	if err != nil {
		return errorResult("%v", err)
	}
	text := "pm.response.json()" + accessor
	if p.Sample != "" {
		v, found, err := jsonpath.EvaluateJSON([]byte(p.Sample), p.Path)
		switch {
		case err != nil:
			return errorResult("evaluating sample: %v", err)
		case !found:
			text += "\n\nNot found in sample."
		default:
			text += "\n\nValue: " + jsonpath.Describe(v)
		}
	}
	return textResult(text)
}
