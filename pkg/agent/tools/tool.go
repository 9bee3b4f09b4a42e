package tools

import (
	"context"
	"encoding/xml"
)

// Tool is a capability exposed to an agent. Tools are invoked through
// XML-formatted tool calls:
//
//	<tool>
//	<server_name>local</server_name>
//	<tool_name>host_api_call</tool_name>
//	<arguments>
//	  <path>tabs.get</path>
//	  <args>[5]</args>
//	</arguments>
//	</tool>
type Tool interface {
	// Name returns the unique identifier for this tool (e.g., "host_api_call")
	Name() string

	// Description returns a human-readable description of what this tool does
	Description() string

	// Schema returns the JSON schema for this tool's input parameters
	Schema() map[string]interface{}

	// Execute runs the tool with the given XML arguments.
	// Returns: (result string, metadata map, error). Metadata may be nil.
	Execute(ctx context.Context, argumentsXML []byte) (string, map[string]interface{}, error)
}

// ToolCall represents a parsed tool invocation
type ToolCall struct {
	XMLName    xml.Name       `xml:"tool"`
	ServerName string         `xml:"server_name"`
	ToolName   string         `xml:"tool_name"`
	Arguments  ArgumentsBlock `xml:"arguments"`
}

// ArgumentsBlock holds the raw XML of the arguments element
type ArgumentsBlock struct {
	InnerXML []byte `xml:",innerxml"`
}

// GetArgumentsXML returns the arguments wrapped in <arguments> tags for unmarshaling.
func (tc *ToolCall) GetArgumentsXML() []byte {
	const prefix = "<arguments>"
	const suffix = "</arguments>"

	result := make([]byte, 0, len(prefix)+len(tc.Arguments.InnerXML)+len(suffix))
	result = append(result, prefix...)
	result = append(result, tc.Arguments.InnerXML...)
	result = append(result, suffix...)
	return result
}

// Previewable is implemented by tools that can describe a call before it
// runs, so the caller can ask for approval.
type Previewable interface {
	GeneratePreview(ctx context.Context, argumentsXML []byte) (*ToolPreview, error)
}

// ToolPreview describes what a tool call will do.
type ToolPreview struct {
	Type        PreviewType
	Title       string
	Description string

	// Content is the rendered call, e.g. the operation path and arguments
	Content string

	Metadata map[string]interface{}
}

// PreviewType indicates the kind of preview being shown
type PreviewType string

const (
	// PreviewTypeCommand previews an operation about to be invoked
	PreviewTypeCommand PreviewType = "command"
)

// BaseToolSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
