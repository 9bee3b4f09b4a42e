package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/hostproxy/pkg/config"
	"github.com/entrhq/hostproxy/pkg/hostapi"
)

func newTestHost(t *testing.T, opts Options) (*Host, *fakeDriver) {
	t.Helper()
	driver := newFakeDriver()
	driver.pages["https://example.com/"] = `<html><head><title>Example</title></head><body><p>Hello</p></body></html>`
	driver.pages["https://docs.example.com/guide"] = `<html><head><title>Guide</title></head><body><h1>Guide</h1></body></html>`
	host := NewHost(driver, opts)
	t.Cleanup(func() { _ = host.Close() })
	return host, driver
}

func call(t *testing.T, h *Host, dotted string, args ...any) any {
	t.Helper()
	result, err := hostapi.Invoke(context.Background(), h.Root(), dotted, args...)
	require.NoError(t, err, dotted)
	return result
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "expected map, got %T", v)
	return m
}

func TestHost_Root(t *testing.T) {
	h, _ := newTestHost(t, Options{})

	keys := hostapi.LeafKeys(h.Root())
	for _, want := range []string{
		"windows_create", "windows_get", "windows_getAll", "windows_remove",
		"windows_onCreated_addListener", "windows_onRemoved_hasListener",
		"tabs_create", "tabs_get", "tabs_query", "tabs_update", "tabs_reload",
		"tabs_remove", "tabs_getContent", "tabs_onUpdated_removeListener",
		"scripting_executeScript", "runtime_id",
	} {
		assert.Contains(t, keys, want)
	}

	id, err := hostapi.Resolve(h.Root(), hostapi.ParsePath("runtime.id"))
	require.NoError(t, err)
	assert.Equal(t, h.ID(), id)
	assert.NotEmpty(t, h.ID())
}

func TestWindows_Create(t *testing.T) {
	h, driver := newTestHost(t, Options{Headless: true, ViewportWidth: 800, ViewportHeight: 600})

	win := asMap(t, call(t, h, "windows.create", map[string]any{"url": "https://example.com/", "incognito": true}))
	assert.Equal(t, 1, win["id"])
	assert.Equal(t, true, win["focused"])
	assert.Equal(t, true, win["incognito"])

	tabs := win["tabs"].([]any)
	require.Len(t, tabs, 1)
	tab := asMap(t, tabs[0])
	assert.Equal(t, 1, tab["id"])
	assert.Equal(t, 1, tab["windowId"])
	assert.Equal(t, "https://example.com/", tab["url"])
	assert.Equal(t, "Example", tab["title"])
	assert.Equal(t, true, tab["active"])

	require.Len(t, driver.opened, 1)
	assert.Equal(t, WindowOptions{Headless: true, Width: 800, Height: 600, Incognito: true}, driver.opened[0])
}

func TestWindows_CreateWithoutArgs(t *testing.T) {
	h, _ := newTestHost(t, Options{})

	win := asMap(t, call(t, h, "windows.create"))
	tab := asMap(t, win["tabs"].([]any)[0])
	assert.Equal(t, "about:blank", tab["url"])
}

func TestWindows_CreateNavigationFailure(t *testing.T) {
	h, driver := newTestHost(t, Options{})

	_, err := hostapi.Invoke(context.Background(), h.Root(), "windows.create", map[string]any{"url": "bad://host"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "windows.create")
	assert.Zero(t, driver.openWindows())

	all := call(t, h, "windows.getAll").([]any)
	assert.Empty(t, all)
}

func TestWindows_MaxWindows(t *testing.T) {
	h, _ := newTestHost(t, Options{MaxWindows: 2})

	call(t, h, "windows.create")
	call(t, h, "windows.create")
	_, err := hostapi.Invoke(context.Background(), h.Root(), "windows.create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window limit reached (2)")

	call(t, h, "windows.remove", 1)
	call(t, h, "windows.create")
}

func TestWindows_GetAndGetAll(t *testing.T) {
	h, _ := newTestHost(t, Options{})

	call(t, h, "windows.create")
	call(t, h, "windows.create")

	win := asMap(t, call(t, h, "windows.get", 1))
	assert.Equal(t, 1, win["id"])
	assert.Equal(t, false, win["focused"])

	all := call(t, h, "windows.getAll").([]any)
	require.Len(t, all, 2)
	assert.Equal(t, 1, asMap(t, all[0])["id"])
	assert.Equal(t, 2, asMap(t, all[1])["id"])
	assert.Equal(t, true, asMap(t, all[1])["focused"])

	_, err := hostapi.Invoke(context.Background(), h.Root(), "windows.get", 9)
	assert.ErrorIs(t, err, ErrNoWindow)
}

func TestWindows_Remove(t *testing.T) {
	h, driver := newTestHost(t, Options{})

	call(t, h, "windows.create")
	call(t, h, "tabs.create", map[string]any{"url": "https://example.com/"})

	var removedTabs []any
	var removedWindows []any
	call(t, h, "tabs.onRemoved.addListener", hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
		removedTabs = append(removedTabs, args[0])
		assert.Equal(t, true, asMap(t, args[1])["isWindowClosing"])
		return nil, nil
	}))
	call(t, h, "windows.onRemoved.addListener", hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
		removedWindows = append(removedWindows, args[0])
		return nil, nil
	}))

	call(t, h, "windows.remove", 1)
	assert.Equal(t, []any{1, 2}, removedTabs)
	assert.Equal(t, []any{1}, removedWindows)
	assert.Zero(t, driver.openWindows())

	_, err := hostapi.Invoke(context.Background(), h.Root(), "tabs.get", 1)
	assert.ErrorIs(t, err, ErrNoTab)

	_, err = hostapi.Invoke(context.Background(), h.Root(), "windows.remove", 1)
	assert.ErrorIs(t, err, ErrNoWindow)
}

func TestWindows_CreateUnfocused(t *testing.T) {
	h, _ := newTestHost(t, Options{})

	// the first window takes focus even when asked not to
	first := asMap(t, call(t, h, "windows.create", map[string]any{"focused": false}))
	assert.Equal(t, true, first["focused"])

	second := asMap(t, call(t, h, "windows.create", map[string]any{"focused": false}))
	assert.Equal(t, false, second["focused"])
	assert.Equal(t, true, asMap(t, call(t, h, "windows.get", 1))["focused"])

	tab := asMap(t, call(t, h, "tabs.create", map[string]any{}))
	assert.Equal(t, 1, tab["windowId"])

	third := asMap(t, call(t, h, "windows.create", map[string]any{"focused": true}))
	assert.Equal(t, true, third["focused"])

	_, err := hostapi.Invoke(context.Background(), h.Root(), "windows.create", map[string]any{"focused": "yes"})
	assert.ErrorContains(t, err, "focused: expected boolean")
}

func TestTabs_Create(t *testing.T) {
	h, _ := newTestHost(t, Options{})

	_, err := hostapi.Invoke(context.Background(), h.Root(), "tabs.create", map[string]any{})
	require.ErrorIs(t, err, ErrNoWindow, "no focused window yet")

	call(t, h, "windows.create")
	call(t, h, "windows.create")

	tab := asMap(t, call(t, h, "tabs.create", map[string]any{"url": "https://example.com/"}))
	assert.Equal(t, 3, tab["id"])
	assert.Equal(t, 2, tab["windowId"], "focused window")
	assert.Equal(t, 1, tab["index"])

	// windowId as decoded from YAML or JSON
	tab = asMap(t, call(t, h, "tabs.create", map[string]any{"windowId": float64(1)}))
	assert.Equal(t, 1, tab["windowId"])

	first := asMap(t, call(t, h, "tabs.get", 1))
	assert.Equal(t, false, first["active"], "new tab takes focus")
}

func TestTabs_Query(t *testing.T) {
	h, _ := newTestHost(t, Options{})

	call(t, h, "windows.create", map[string]any{"url": "https://example.com/"})
	call(t, h, "tabs.create", map[string]any{"url": "https://docs.example.com/guide"})
	call(t, h, "windows.create")

	tests := []struct {
		name  string
		query map[string]any
		want  []int
	}{
		{name: "all", query: map[string]any{}, want: []int{1, 2, 3}},
		{name: "by window", query: map[string]any{"windowId": 1}, want: []int{1, 2}},
		{name: "url glob", query: map[string]any{"url": "https://*.example.com/*"}, want: []int{2}},
		{name: "url list", query: map[string]any{"url": []any{"https://example.com/*", "about:*"}}, want: []int{1, 3}},
		{name: "active", query: map[string]any{"active": true}, want: []int{2, 3}},
		{name: "title", query: map[string]any{"title": "Ex*"}, want: []int{1}},
		{name: "no match", query: map[string]any{"url": "ftp://*"}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := call(t, h, "tabs.query", tt.query).([]any)
			ids := make([]int, 0, len(result))
			for _, item := range result {
				ids = append(ids, asMap(t, item)["id"].(int))
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	_, err := hostapi.Invoke(context.Background(), h.Root(), "tabs.query", map[string]any{"url": 5})
	assert.Error(t, err)
}

func TestTabs_Update(t *testing.T) {
	h, _ := newTestHost(t, Options{})

	call(t, h, "windows.create")
	call(t, h, "tabs.create", map[string]any{})

	var changes []map[string]any
	call(t, h, "tabs.onUpdated.addListener", hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
		assert.Equal(t, 1, args[0])
		changes = append(changes, asMap(t, args[1]))
		return nil, nil
	}))

	tab := asMap(t, call(t, h, "tabs.update", 1, map[string]any{"url": "https://example.com/", "active": true}))
	assert.Equal(t, "https://example.com/", tab["url"])
	assert.Equal(t, "Example", tab["title"])
	assert.Equal(t, true, tab["active"])

	other := asMap(t, call(t, h, "tabs.get", 2))
	assert.Equal(t, false, other["active"])

	require.Len(t, changes, 1)
	assert.Equal(t, "https://example.com/", changes[0]["url"])
	assert.Equal(t, "complete", changes[0]["status"])

	_, err := hostapi.Invoke(context.Background(), h.Root(), "tabs.update", 1, map[string]any{"url": "bad://x"})
	assert.Error(t, err)
}

func TestTabs_Reload(t *testing.T) {
	h, driver := newTestHost(t, Options{})
	call(t, h, "windows.create")

	updated := 0
	call(t, h, "tabs.onUpdated.addListener", hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
		updated++
		return nil, nil
	}))

	call(t, h, "tabs.reload", 1)
	assert.Equal(t, 1, driver.windows[0].pages[0].reloads)
	assert.Equal(t, 1, updated)
}

func TestTabs_Remove(t *testing.T) {
	h, driver := newTestHost(t, Options{})

	call(t, h, "windows.create")
	call(t, h, "tabs.create", map[string]any{})
	call(t, h, "tabs.create", map[string]any{})

	call(t, h, "tabs.remove", 3)
	assert.True(t, driver.windows[0].pages[2].closed)
	assert.Equal(t, true, asMap(t, call(t, h, "tabs.get", 2))["active"], "previous tab regains focus")

	windowRemoved := false
	call(t, h, "windows.onRemoved.addListener", hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
		windowRemoved = true
		return nil, nil
	}))

	call(t, h, "tabs.remove", []any{1, 2})
	assert.True(t, windowRemoved, "closing the last tab closes the window")
	assert.Empty(t, call(t, h, "windows.getAll").([]any))

	_, err := hostapi.Invoke(context.Background(), h.Root(), "tabs.remove", 1)
	assert.ErrorIs(t, err, ErrNoTab)
}

func TestTabs_RemoveTypedList(t *testing.T) {
	h, driver := newTestHost(t, Options{})

	call(t, h, "windows.create")
	call(t, h, "tabs.create", map[string]any{})
	call(t, h, "tabs.create", map[string]any{})

	call(t, h, "tabs.remove", []int{2, 3})
	assert.True(t, driver.windows[0].pages[1].closed)
	assert.True(t, driver.windows[0].pages[2].closed)
	assert.Len(t, call(t, h, "tabs.query", map[string]any{}).([]any), 1)

	_, err := hostapi.Invoke(context.Background(), h.Root(), "tabs.remove", []string{"1"})
	assert.ErrorContains(t, err, "expected integer, got string")
	_, err = hostapi.Invoke(context.Background(), h.Root(), "tabs.remove", "1")
	assert.ErrorContains(t, err, "expected integer, got string")
}

func TestTabs_GetContent(t *testing.T) {
	h, _ := newTestHost(t, Options{})
	call(t, h, "windows.create", map[string]any{"url": "https://example.com/"})

	content := asMap(t, call(t, h, "tabs.getContent", 1))
	assert.Equal(t, "Example", content["title"])
	assert.Equal(t, "Hello", content["text"])
	assert.Equal(t, false, content["truncated"])

	content = asMap(t, call(t, h, "tabs.getContent", 1, map[string]any{"maxLength": 3}))
	assert.Equal(t, "Hel", content["text"])
	assert.Equal(t, true, content["truncated"])
}

func TestScripting_ExecuteScript(t *testing.T) {
	h, driver := newTestHost(t, Options{})
	call(t, h, "windows.create", map[string]any{"url": "https://example.com/"})

	result := call(t, h, "scripting.executeScript", map[string]any{"tabId": 1, "code": "document.title"}).([]any)
	require.Len(t, result, 1)
	assert.Equal(t, map[string]any{"frameId": 0, "result": "Example"}, result[0])

	call(t, h, "scripting.executeScript", map[string]any{
		"target": map[string]any{"tabId": 1},
		"code":   "1 + 1",
	})
	assert.Equal(t, []string{"document.title", "1 + 1"}, driver.windows[0].pages[0].scripts)

	tests := []struct {
		name string
		arg  map[string]any
	}{
		{name: "missing tab", arg: map[string]any{"code": "1"}},
		{name: "missing code", arg: map[string]any{"tabId": 1}},
		{name: "unknown tab", arg: map[string]any{"tabId": 7, "code": "1"}},
		{name: "script error", arg: map[string]any{"tabId": 1, "code": "throw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hostapi.Invoke(context.Background(), h.Root(), "scripting.executeScript", tt.arg)
			assert.Error(t, err)
		})
	}
}

func TestHost_ListenerMayCallHost(t *testing.T) {
	h, _ := newTestHost(t, Options{})

	var seen []any
	call(t, h, "windows.onCreated.addListener", hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
		id := asMap(t, args[0])["id"]
		win, err := hostapi.Invoke(ctx, h.Root(), "windows.get", id)
		seen = append(seen, win)
		return nil, err
	}))

	call(t, h, "windows.create")
	require.Len(t, seen, 1)
	assert.Equal(t, 1, asMap(t, seen[0])["id"])
}

func TestHost_Close(t *testing.T) {
	h, driver := newTestHost(t, Options{})
	call(t, h, "windows.create")

	require.NoError(t, h.Close())
	assert.True(t, driver.closed)
	assert.Zero(t, driver.openWindows())
	require.NoError(t, h.Close(), "second close is a no-op")

	_, err := hostapi.Invoke(context.Background(), h.Root(), "windows.getAll")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHost_Intercepted(t *testing.T) {
	h, driver := newTestHost(t, Options{})
	ic := hostapi.New(h.Root())

	denied := hostapi.Func(func(ctx context.Context, args ...any) (any, error) {
		return map[string]any{"id": -1}, nil
	})
	ic.Register(hostapi.Overrides{"windows_create": denied})

	win, err := hostapi.Invoke(context.Background(), ic.Root(), "windows.create")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": -1}, win)
	assert.Empty(t, driver.opened)

	// Unlisted leaves still reach the browser.
	all, err := hostapi.Invoke(context.Background(), ic.Root(), "windows.getAll")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOptionsFromConfig(t *testing.T) {
	section := config.NewHostSection()
	section.SetBrowserHeadless(false)

	opts := OptionsFromConfig(section)
	assert.False(t, opts.Headless)
	assert.Equal(t, 1280, opts.ViewportWidth)
	assert.Equal(t, 720, opts.ViewportHeight)
	assert.Equal(t, 5, opts.MaxWindows)

	assert.True(t, OptionsFromConfig(nil).Headless)
}
