// Package tools builds Chat Completions tool definitions, including a
// bridge from MCP tool discovery to the function-calling wire format.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chatwire-dev/chatwire/pkg/chat"
)

// NewFunction creates a function tool definition. parameters is a JSON
// Schema object describing the function arguments; nil means the function
// takes no arguments.
func NewFunction(name, description string, parameters json.RawMessage) chat.Tool {
	return chat.Tool{
		Type: "function",
		Function: chat.FunctionDef{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// FromMCP converts discovered MCP tools into Chat Completions tool
// definitions, preserving each tool's input schema as the function
// parameter schema.
func FromMCP(mcpTools []*mcp.Tool) ([]chat.Tool, error) {
	out := make([]chat.Tool, 0, len(mcpTools))
	for _, t := range mcpTools {
		tool, err := convertTool(t)
		if err != nil {
			return nil, err
		}
		out = append(out, tool)
	}
	return out, nil
}

// convertTool converts one MCP Tool to a chat.Tool.
func convertTool(t *mcp.Tool) (chat.Tool, error) {
	var params json.RawMessage
	if t.InputSchema != nil {
		data, err := json.Marshal(t.InputSchema)
		if err != nil {
			return chat.Tool{}, fmt.Errorf("marshaling input schema for %q: %w", t.Name, err)
		}
		params = data
	}

	return NewFunction(t.Name, t.Description, params), nil
}
