package types

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPToolDefinition is an alias to the SDK Tool type
type MCPToolDefinition = mcp.Tool

// MCPToolCallResult represents the result of a tool call. Structured
// carries the machine-readable payload alongside the text rendering.
type MCPToolCallResult struct {
	Content    []MCPContent `json:"content"`
	Structured any          `json:"structuredContent,omitempty"`
	IsError    bool         `json:"isError,omitempty"`
}

// MCPContent is a single content item in a tool call result
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Standard JSON-RPC error codes
const (
	MCPErrorParseError     = -32700
	MCPErrorInvalidRequest = -32600
	MCPErrorMethodNotFound = -32601
	MCPErrorInvalidParams  = -32602
	MCPErrorInternalError  = -32603
)
