package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrRejected is returned by Dispatch when the approver declines a call.
var ErrRejected = errors.New("tool call rejected")

// Approver decides whether a previewed call may run.
type Approver func(ctx context.Context, call *ToolCall, preview *ToolPreview) (bool, error)

// Toolbox holds tools by name and dispatches parsed calls to them.
type Toolbox struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	approver Approver
}

// NewToolbox creates a toolbox holding tools. A nil approver runs every
// call without asking.
func NewToolbox(approver Approver, tools ...Tool) *Toolbox {
	tb := &Toolbox{tools: make(map[string]Tool), approver: approver}
	for _, tool := range tools {
		tb.Register(tool)
	}
	return tb
}

// Register adds tool, replacing any tool with the same name.
func (tb *Toolbox) Register(tool Tool) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.tools[tool.Name()] = tool
}

// Get retrieves a tool by name.
func (tb *Toolbox) Get(name string) (Tool, bool) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	tool, ok := tb.tools[name]
	return tool, ok
}

// List returns the tools sorted by name.
func (tb *Toolbox) List() []Tool {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	list := make([]Tool, 0, len(tb.tools))
	for _, tool := range tb.tools {
		list = append(list, tool)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Dispatch parses the tool call in text and executes it. Tools that
// implement Previewable are shown to the approver first.
func (tb *Toolbox) Dispatch(ctx context.Context, text string) (string, map[string]interface{}, error) {
	call, _, err := ParseToolCall(text)
	if err != nil {
		return "", nil, err
	}
	return tb.Execute(ctx, call)
}

// Execute runs an already parsed call.
func (tb *Toolbox) Execute(ctx context.Context, call *ToolCall) (string, map[string]interface{}, error) {
	tool, ok := tb.Get(call.ToolName)
	if !ok {
		return "", nil, fmt.Errorf("unknown tool: %s", call.ToolName)
	}

	if previewable, ok := tool.(Previewable); ok && tb.approver != nil {
		preview, err := previewable.GeneratePreview(ctx, call.GetArgumentsXML())
		if err != nil {
			return "", nil, fmt.Errorf("failed to generate preview for %s: %w", call.ToolName, err)
		}
		approved, err := tb.approver(ctx, call, preview)
		if err != nil {
			return "", nil, err
		}
		if !approved {
			return "", nil, fmt.Errorf("%w: %s", ErrRejected, call.ToolName)
		}
	}

	result, metadata, err := tool.Execute(ctx, call.GetArgumentsXML())
	if err != nil {
		return "", nil, fmt.Errorf("tool %s failed: %w", call.ToolName, err)
	}
	return result, metadata, nil
}
