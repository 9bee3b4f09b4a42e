// Package hostcall exposes the host API to agents as tools. Every call goes
// through the interception root, so registered overrides apply to agent
// calls the same way they apply to any other consumer.
package hostcall

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/hostproxy/pkg/agent/tools"
	"github.com/entrhq/hostproxy/pkg/hostapi"
)

// RootFunc returns the namespace calls are made against. It is called on
// every execution, so the tool follows whatever root is current.
type RootFunc func() hostapi.Namespace

// DefaultTimeout bounds a single host call.
const DefaultTimeout = 60 * time.Second

// CallTool invokes a host API operation by dotted path.
type CallTool struct {
	root RootFunc
}

// NewCallTool creates a host_api_call tool. A nil root uses the
// process-wide interception root.
func NewCallTool(root RootFunc) *CallTool {
	if root == nil {
		root = hostapi.CurrentRoot
	}
	return &CallTool{root: root}
}

func (t *CallTool) Name() string {
	return "host_api_call"
}

func (t *CallTool) Description() string {
	return "Call a host API operation such as tabs.query or windows.create. Arguments are a YAML list (or a single YAML value) passed positionally. Value properties such as runtime.id are returned without calling. The result is rendered as YAML."
}

func (t *CallTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Dotted path of the operation, e.g. tabs.get",
			},
			"args": map[string]interface{}{
				"type":        "string",
				"description": "YAML list of positional arguments, e.g. [5] or [{url: 'https://*.example.com/*'}]",
			},
			"timeout": map[string]interface{}{
				"type":        "number",
				"description": "Call timeout in seconds (default: 60)",
			},
		},
		[]string{"path"},
	)
}

type callInput struct {
	XMLName xml.Name `xml:"arguments"`
	Path    string   `xml:"path"`
	Args    string   `xml:"args"`
	Timeout float64  `xml:"timeout"`
}

func parseCallInput(argsXML []byte) (*callInput, []any, error) {
	var input callInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return nil, nil, fmt.Errorf("invalid arguments: %w", err)
	}
	input.Path = strings.TrimSpace(input.Path)
	if input.Path == "" {
		return nil, nil, fmt.Errorf("path is required and must be a non-empty string")
	}
	args, err := DecodeArgs(input.Args)
	if err != nil {
		return nil, nil, err
	}
	return &input, args, nil
}

func (t *CallTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	input, args, err := parseCallInput(argsXML)
	if err != nil {
		return "", nil, err
	}

	timeout := DefaultTimeout
	if input.Timeout > 0 {
		timeout = time.Duration(input.Timeout * float64(time.Second))
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := Call(callCtx, t.root(), input.Path, args...)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return "", nil, fmt.Errorf("%s timed out after %v", input.Path, timeout)
		}
		return "", nil, err
	}

	out, err := Render(result)
	if err != nil {
		return "", nil, err
	}
	return out, map[string]interface{}{
		"path":       input.Path,
		"arg_count":  len(args),
		"has_result": result != nil,
	}, nil
}

// GeneratePreview shows the call about to be made.
func (t *CallTool) GeneratePreview(ctx context.Context, argsXML []byte) (*tools.ToolPreview, error) {
	input, args, err := parseCallInput(argsXML)
	if err != nil {
		return nil, err
	}
	rendered := ""
	if len(args) > 0 {
		out, err := yaml.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to render arguments: %w", err)
		}
		rendered = strings.TrimSpace(string(out))
	}
	return &tools.ToolPreview{
		Type:        tools.PreviewTypeCommand,
		Title:       "Call " + input.Path,
		Description: fmt.Sprintf("%d argument(s)", len(args)),
		Content:     strings.TrimSpace(input.Path + "\n" + rendered),
		Metadata:    map[string]interface{}{"path": input.Path},
	}, nil
}

// XMLExample provides a concrete XML usage example for this tool.
func (t *CallTool) XMLExample() string {
	return `<tool>
<server_name>local</server_name>
<tool_name>host_api_call</tool_name>
<arguments>
  <path>tabs.query</path>
  <args>[{url: "https://*.example.com/*"}]</args>
</arguments>
</tool>`
}

// Call resolves dotted under root. Operations are called with args;
// value properties are returned as they are and must not be given args.
func Call(ctx context.Context, root hostapi.Namespace, dotted string, args ...any) (any, error) {
	path := hostapi.ParsePath(dotted)
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", hostapi.ErrNotFound)
	}
	value, err := hostapi.Resolve(root, path)
	if err != nil {
		return nil, err
	}
	if fn, ok := value.(hostapi.Callable); ok {
		return fn.Call(ctx, args...)
	}
	if _, ok := value.(hostapi.Namespace); ok {
		return nil, fmt.Errorf("%w: %s is a namespace", hostapi.ErrNotCallable, path)
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("%w: %s is a value", hostapi.ErrNotCallable, path)
	}
	return value, nil
}

// DecodeArgs parses YAML arguments. A sequence is spread into positional
// arguments; any other value is a single argument.
func DecodeArgs(raw string) ([]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var decoded any
	if err := yaml.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid args YAML: %w", err)
	}
	if list, ok := decoded.([]any); ok {
		return list, nil
	}
	return []any{decoded}, nil
}

// Render formats a call result as YAML.
func Render(result any) (string, error) {
	if result == nil {
		return "null", nil
	}
	out, err := yaml.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to render result: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}
