package browser

import (
	"context"
	"fmt"
	"sort"
)

// createWindow implements windows.create({url?, incognito?, focused?}).
// focused defaults to true; an unfocused window still takes focus when no
// other window has it.
func (h *Host) createWindow(ctx context.Context, args ...any) (any, error) {
	opts, err := mapArg(args, 0, "createData")
	if err != nil {
		return nil, fmt.Errorf("windows.create: %w", err)
	}
	url, err := optionalString(opts, "url")
	if err != nil {
		return nil, fmt.Errorf("windows.create: %w", err)
	}
	incognito, err := optionalBool(opts, "incognito")
	if err != nil {
		return nil, fmt.Errorf("windows.create: %w", err)
	}
	focused := true
	if opts["focused"] != nil {
		if focused, err = optionalBool(opts, "focused"); err != nil {
			return nil, fmt.Errorf("windows.create: %w", err)
		}
	}

	if err := h.lock(); err != nil {
		return nil, err
	}
	info, events, err := h.createWindowLocked(ctx, url, incognito, focused)
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("windows.create: %w", err)
	}

	dispatch(ctx, events)
	return info, nil
}

func (h *Host) createWindowLocked(ctx context.Context, url string, incognito, focused bool) (map[string]any, []pendingEvent, error) {
	if h.opts.MaxWindows > 0 && len(h.windows) >= h.opts.MaxWindows {
		return nil, nil, fmt.Errorf("window limit reached (%d)", h.opts.MaxWindows)
	}

	handle, err := h.driver.OpenWindow(ctx, WindowOptions{
		Headless:  h.opts.Headless,
		Width:     h.opts.ViewportWidth,
		Height:    h.opts.ViewportHeight,
		Incognito: incognito,
	})
	if err != nil {
		return nil, nil, err
	}

	w := &window{id: h.nextWindowID, handle: handle, incognito: incognito}
	t, err := h.openTabLocked(ctx, w, url)
	if err != nil {
		_ = handle.Close()
		return nil, nil, err
	}
	h.nextWindowID++
	h.windows[w.id] = w
	if focused || h.focused == 0 {
		h.focused = w.id
	}
	h.logger.Debugf("browser: opened window %d", w.id)

	info := h.windowInfoLocked(w)
	events := []pendingEvent{
		{event: h.onWindowCreated, args: []any{h.windowInfoLocked(w)}},
		{event: h.onTabCreated, args: []any{h.tabInfoLocked(t)}},
	}
	return info, events, nil
}

// getWindow implements windows.get(windowId).
func (h *Host) getWindow(ctx context.Context, args ...any) (any, error) {
	id, err := intArg(args, 0, "windowId")
	if err != nil {
		return nil, fmt.Errorf("windows.get: %w", err)
	}
	if err := h.lock(); err != nil {
		return nil, err
	}
	defer h.mu.Unlock()

	w, err := h.windowLocked(id)
	if err != nil {
		return nil, fmt.Errorf("windows.get: %w", err)
	}
	return h.windowInfoLocked(w), nil
}

// getAllWindows implements windows.getAll(), ordered by id.
func (h *Host) getAllWindows(ctx context.Context, args ...any) (any, error) {
	if err := h.lock(); err != nil {
		return nil, err
	}
	defer h.mu.Unlock()

	ids := make([]int, 0, len(h.windows))
	for id := range h.windows {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	windows := make([]any, 0, len(ids))
	for _, id := range ids {
		windows = append(windows, h.windowInfoLocked(h.windows[id]))
	}
	return windows, nil
}

// removeWindow implements windows.remove(windowId).
func (h *Host) removeWindow(ctx context.Context, args ...any) (any, error) {
	id, err := intArg(args, 0, "windowId")
	if err != nil {
		return nil, fmt.Errorf("windows.remove: %w", err)
	}
	if err := h.lock(); err != nil {
		return nil, err
	}
	w, err := h.windowLocked(id)
	if err != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("windows.remove: %w", err)
	}
	events, err := h.removeWindowLocked(w)
	h.mu.Unlock()

	dispatch(ctx, events)
	if err != nil {
		return nil, fmt.Errorf("windows.remove: %w", err)
	}
	return nil, nil
}

// removeWindowLocked closes w and every tab in it. The window is forgotten
// even if the driver fails to close it.
func (h *Host) removeWindowLocked(w *window) ([]pendingEvent, error) {
	var events []pendingEvent
	for _, tabID := range w.tabs {
		events = append(events, pendingEvent{
			event: h.onTabRemoved,
			args:  []any{tabID, map[string]any{"windowId": w.id, "isWindowClosing": true}},
		})
		delete(h.tabs, tabID)
	}
	w.tabs = nil
	delete(h.windows, w.id)
	if h.focused == w.id {
		h.focused = h.lastWindowLocked()
	}
	events = append(events, pendingEvent{event: h.onWindowRemoved, args: []any{w.id}})
	h.logger.Debugf("browser: closed window %d", w.id)

	return events, w.handle.Close()
}

// lastWindowLocked returns the highest open window id, or zero.
func (h *Host) lastWindowLocked() int {
	last := 0
	for id := range h.windows {
		if id > last {
			last = id
		}
	}
	return last
}
