package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Every tool call returns the same envelope shape regardless of outcome or
// transport: a single text content item, plus IsError on failure. Callers
// branch on IsError only, never on structure.

func textResult(v any) *mcp.CallToolResult {
	switch val := v.(type) {
	case string:
		return mcp.NewToolResultText(val)
	case json.RawMessage:
		return mcp.NewToolResultText(prettyJSON(val))
	case []byte:
		return mcp.NewToolResultText(prettyJSON(val))
	default:
		data, err := json.MarshalIndent(val, "", "  ")
		if err != nil {
			return mcp.NewToolResultText(fmt.Sprintf("%v", val))
		}
		return mcp.NewToolResultText(string(data))
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + err.Error())
}

func errorResultf(format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError("Error: " + fmt.Sprintf(format, args...))
}

// prettyJSON re-indents valid JSON and passes anything else through verbatim,
// so raw upstream text is never mangled.
func prettyJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// firstTextContent extracts the first text-bearing content item of an
// upstream call result.
func firstTextContent(result *mcp.CallToolResult) (string, bool) {
	if result == nil {
		return "", false
	}
	for _, item := range result.Content {
		if tc, ok := item.(mcp.TextContent); ok && tc.Text != "" {
			return tc.Text, true
		}
	}
	return "", false
}

// flattenChannelResult rewraps a secondary-channel result into the gateway
// envelope: the first text item when present, else the whole result
// serialized. The caller cannot tell which transport served the tool.
func flattenChannelResult(result *mcp.CallToolResult) *mcp.CallToolResult {
	text, ok := firstTextContent(result)
	if !ok {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errorResultf("unrepresentable upstream result: %v", err)
		}
		text = string(data)
	}
	if result != nil && result.IsError {
		return mcp.NewToolResultError("Error: " + text)
	}
	return mcp.NewToolResultText(text)
}
