package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestTextResultPrettyPrintsJSON(t *testing.T) {
	result := textResult(json.RawMessage(`{"a":1,"b":[2,3]}`))
	if result.IsError {
		t.Fatalf("expected success envelope")
	}
	text, ok := firstTextContent(result)
	if !ok {
		t.Fatalf("expected text content")
	}
	if !strings.Contains(text, "\n  \"a\": 1") {
		t.Fatalf("text = %q, want indented JSON", text)
	}
}

func TestTextResultPassesRawTextThrough(t *testing.T) {
	result := textResult("not json at all")
	text, _ := firstTextContent(result)
	if text != "not json at all" {
		t.Fatalf("text = %q, want verbatim string", text)
	}
}

func TestErrorResultPrefix(t *testing.T) {
	result := errorResult(errors.New("something broke"))
	if !result.IsError {
		t.Fatalf("expected IsError set")
	}
	text, _ := firstTextContent(result)
	if text != "Error: something broke" {
		t.Fatalf("text = %q, want Error: prefix", text)
	}
}

func TestFirstTextContentSkipsNonText(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{Type: "image", Data: "xxxx", MIMEType: "image/png"},
			mcp.TextContent{Type: "text", Text: "found me"},
		},
	}
	text, ok := firstTextContent(result)
	if !ok || text != "found me" {
		t.Fatalf("firstTextContent = %q/%v, want first text item", text, ok)
	}
}

func TestFlattenChannelResultExtractsFirstText(t *testing.T) {
	upstream := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "primary"},
			mcp.TextContent{Type: "text", Text: "secondary"},
		},
	}
	flat := flattenChannelResult(upstream)
	text, _ := firstTextContent(flat)
	if text != "primary" {
		t.Fatalf("text = %q, want first text item", text)
	}
	if flat.IsError {
		t.Fatalf("expected success envelope")
	}
}

func TestFlattenChannelResultSerializesWhenNoText(t *testing.T) {
	upstream := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{Type: "image", Data: "xxxx", MIMEType: "image/png"},
		},
	}
	flat := flattenChannelResult(upstream)
	text, ok := firstTextContent(flat)
	if !ok || text == "" {
		t.Fatalf("expected serialized fallback text")
	}
	if !strings.Contains(text, "image") {
		t.Fatalf("fallback text = %q, want whole result serialized", text)
	}
}

func TestFlattenChannelResultPreservesUpstreamError(t *testing.T) {
	upstream := &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "member orders.bogus not found"},
		},
	}
	flat := flattenChannelResult(upstream)
	if !flat.IsError {
		t.Fatalf("expected error envelope to stay an error")
	}
	text, _ := firstTextContent(flat)
	if !strings.HasPrefix(text, "Error: ") || !strings.Contains(text, "orders.bogus") {
		t.Fatalf("text = %q, want prefixed upstream message", text)
	}
}
