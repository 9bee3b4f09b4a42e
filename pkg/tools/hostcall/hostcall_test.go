package hostcall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/hostproxy/pkg/agent/tools"
	"github.com/entrhq/hostproxy/pkg/hostapi"
)

type fakeHost struct {
	calls [][]any
	root  *hostapi.Object
}

func newFakeHost() *fakeHost {
	h := &fakeHost{}
	h.root = hostapi.NewObject(map[string]any{
		"tabs": map[string]any{
			"get": hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
				h.calls = append(h.calls, args)
				return map[string]any{"id": args[0], "url": "https://example.com/"}, nil
			}),
			"remove": hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
				h.calls = append(h.calls, args)
				return nil, nil
			}),
			"query": hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
				h.calls = append(h.calls, args)
				return []any{}, nil
			}),
		},
		"scripting": map[string]any{
			"executeScript": hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}),
		},
		"runtime": map[string]any{"id": "host-123"},
	})
	return h
}

func TestCallTool_Execute(t *testing.T) {
	host := newFakeHost()
	tool := NewCallTool(func() hostapi.Namespace { return host.root })

	out, metadata, err := tool.Execute(context.Background(), []byte(`<arguments><path>tabs.get</path><args>[5]</args></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "id: 5\nurl: https://example.com/", out)
	assert.Equal(t, "tabs.get", metadata["path"])
	assert.Equal(t, 1, metadata["arg_count"])
	assert.Equal(t, [][]any{{5}}, host.calls)
}

func TestCallTool_ArgumentShapes(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		wantArgs []any
	}{
		{name: "none", args: "", wantArgs: nil},
		{name: "list", args: "[1, 2]", wantArgs: []any{1, 2}},
		{name: "single mapping", args: "{url: 'https://*.example.com/*'}", wantArgs: []any{map[string]any{"url": "https://*.example.com/*"}}},
		{name: "block list", args: "\n- 3\n- {active: true}\n", wantArgs: []any{3, map[string]any{"active": true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := DecodeArgs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, args)
		})
	}

	_, err := DecodeArgs("[unclosed")
	assert.Error(t, err)
}

func TestCallTool_Errors(t *testing.T) {
	host := newFakeHost()
	tool := NewCallTool(func() hostapi.Namespace { return host.root })

	tests := []struct {
		name    string
		xml     string
		wantErr error
		wantMsg string
	}{
		{name: "missing path", xml: `<arguments></arguments>`, wantMsg: "path is required"},
		{name: "unknown path", xml: `<arguments><path>bookmarks.create</path></arguments>`, wantErr: hostapi.ErrNotFound},
		{name: "namespace", xml: `<arguments><path>tabs</path></arguments>`, wantErr: hostapi.ErrNotCallable},
		{name: "value with args", xml: `<arguments><path>runtime.id</path><args>[1]</args></arguments>`, wantErr: hostapi.ErrNotCallable},
		{name: "bad yaml", xml: `<arguments><path>tabs.get</path><args>[1</args></arguments>`, wantMsg: "invalid args YAML"},
		{name: "timeout", xml: `<arguments><path>scripting.executeScript</path><timeout>0.01</timeout></arguments>`, wantMsg: "timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tool.Execute(context.Background(), []byte(tt.xml))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestCallTool_ValueLeaf(t *testing.T) {
	host := newFakeHost()
	tool := NewCallTool(func() hostapi.Namespace { return host.root })

	out, metadata, err := tool.Execute(context.Background(), []byte(`<arguments><path>runtime.id</path></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "host-123", out)
	assert.Equal(t, true, metadata["has_result"])

	out, _, err = tool.Execute(context.Background(), []byte(`<arguments><path>tabs.remove</path><args>[1]</args></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "null", out)
}

func TestCallTool_FollowsOverrides(t *testing.T) {
	host := newFakeHost()
	ic := hostapi.New(host.root)
	tool := NewCallTool(ic.Root)

	out, _, err := tool.Execute(context.Background(), []byte(`<arguments><path>tabs.query</path></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	// Registered after the tool was created; the next call sees it.
	ic.Register(hostapi.Overrides{"tabs_query": hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
		return nil, errors.New("denied")
	})})
	_, _, err = tool.Execute(context.Background(), []byte(`<arguments><path>tabs.query</path></arguments>`))
	assert.EqualError(t, err, "denied")
	assert.Len(t, host.calls, 1)
}

func TestCallTool_Preview(t *testing.T) {
	tool := NewCallTool(nil)
	var _ tools.Previewable = tool

	preview, err := tool.GeneratePreview(context.Background(), []byte(`<arguments><path>windows.create</path><args>[{url: 'https://example.com'}]</args></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, tools.PreviewTypeCommand, preview.Type)
	assert.Equal(t, "Call windows.create", preview.Title)
	assert.Equal(t, "windows.create\n- url: https://example.com", preview.Content)
}

func TestCallTool_ThroughToolbox(t *testing.T) {
	host := newFakeHost()
	root := func() hostapi.Namespace { return host.root }
	tb := tools.NewToolbox(nil, NewCallTool(root), NewKeysTool(root, nil))

	out, _, err := tb.Dispatch(context.Background(), `<tool>
<tool_name>host_api_call</tool_name>
<arguments>
  <path>tabs.get</path>
  <args>[7]</args>
</arguments>
</tool>`)
	require.NoError(t, err)
	assert.Contains(t, out, "id: 7")
}

func TestKeysTool(t *testing.T) {
	host := newFakeHost()
	registry := hostapi.NewRegistry()
	registry.Register(hostapi.Overrides{"tabs_get": hostapi.Func(func(ctx context.Context, args ...any) (any, error) { return nil, nil })})
	tool := NewKeysTool(func() hostapi.Namespace { return host.root }, registry)

	out, metadata, err := tool.Execute(context.Background(), []byte(`<arguments><match>tabs_*</match></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, 3, metadata["count"])
	var listed []LeafEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &listed))
	assert.Equal(t, []LeafEntry{
		{Key: "tabs_get", Path: "tabs.get", Overridden: true},
		{Key: "tabs_query", Path: "tabs.query"},
		{Key: "tabs_remove", Path: "tabs.remove"},
	}, listed)

	_, metadata, err = tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 5, metadata["count"])

	out, _, err = tool.Execute(context.Background(), []byte(`<arguments><match>bookmarks_*</match></arguments>`))
	require.NoError(t, err)
	assert.Equal(t, "no matching host operations", out)

	_, _, err = tool.Execute(context.Background(), []byte(`<arguments><match>[</match></arguments>`))
	assert.Error(t, err)
}

func TestListLeaves_Ambiguous(t *testing.T) {
	root := hostapi.NewObject(map[string]any{
		"a_b": map[string]any{"c": 1},
		"a":   map[string]any{"b_c": 2},
		"d":   3,
	})

	entries, err := ListLeaves(root, nil, "")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, LeafEntry{Key: "a_b_c", Path: "a.b_c", Ambiguous: true}, entries[0])
	assert.Equal(t, LeafEntry{Key: "a_b_c", Path: "a_b.c", Ambiguous: true}, entries[1])
	assert.Equal(t, LeafEntry{Key: "d", Path: "d"}, entries[2])
}

func TestDefaultTimeout(t *testing.T) {
	assert.Equal(t, time.Minute, DefaultTimeout)
}
