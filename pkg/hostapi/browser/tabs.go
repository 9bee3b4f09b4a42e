package browser

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gobwas/glob"
)

// createTab implements tabs.create({windowId?, url?}). Without a windowId
// the tab opens in the focused window.
func (h *Host) createTab(ctx context.Context, args ...any) (any, error) {
	props, err := mapArg(args, 0, "createProperties")
	if err != nil {
		return nil, fmt.Errorf("tabs.create: %w", err)
	}
	windowID, hasWindow, err := optionalInt(props, "windowId")
	if err != nil {
		return nil, fmt.Errorf("tabs.create: %w", err)
	}
	url, err := optionalString(props, "url")
	if err != nil {
		return nil, fmt.Errorf("tabs.create: %w", err)
	}

	if err := h.lock(); err != nil {
		return nil, err
	}
	if !hasWindow {
		windowID = h.focused
	}
	w, err := h.windowLocked(windowID)
	if err != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("tabs.create: %w", err)
	}
	t, err := h.openTabLocked(ctx, w, url)
	if err != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("tabs.create: %w", err)
	}
	info := h.tabInfoLocked(t)
	h.mu.Unlock()

	dispatch(ctx, []pendingEvent{{event: h.onTabCreated, args: []any{info}}})
	return info, nil
}

// getTab implements tabs.get(tabId).
func (h *Host) getTab(ctx context.Context, args ...any) (any, error) {
	id, err := intArg(args, 0, "tabId")
	if err != nil {
		return nil, fmt.Errorf("tabs.get: %w", err)
	}
	if err := h.lock(); err != nil {
		return nil, err
	}
	defer h.mu.Unlock()

	t, err := h.tabLocked(id)
	if err != nil {
		return nil, fmt.Errorf("tabs.get: %w", err)
	}
	return h.tabInfoLocked(t), nil
}

// tabQuery holds the parsed filters of tabs.query.
type tabQuery struct {
	windowID  int
	hasWindow bool
	active    *bool
	urls      []glob.Glob
	title     glob.Glob
}

func parseTabQuery(m map[string]any) (*tabQuery, error) {
	q := &tabQuery{}
	var err error
	if q.windowID, q.hasWindow, err = optionalInt(m, "windowId"); err != nil {
		return nil, err
	}
	if raw, ok := m["active"]; ok && raw != nil {
		active, isBool := raw.(bool)
		if !isBool {
			return nil, fmt.Errorf("active: expected boolean, got %T", raw)
		}
		q.active = &active
	}

	var patterns []string
	switch raw := m["url"].(type) {
	case nil:
	case string:
		patterns = []string{raw}
	case []string:
		patterns = raw
	case []any:
		for _, item := range raw {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("url: expected string pattern, got %T", item)
			}
			patterns = append(patterns, s)
		}
	default:
		return nil, fmt.Errorf("url: expected string or list of strings, got %T", raw)
	}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("url: invalid pattern %q: %w", pattern, err)
		}
		q.urls = append(q.urls, g)
	}

	title, err := optionalString(m, "title")
	if err != nil {
		return nil, err
	}
	if title != "" {
		if q.title, err = glob.Compile(title); err != nil {
			return nil, fmt.Errorf("title: invalid pattern %q: %w", title, err)
		}
	}
	return q, nil
}

func (q *tabQuery) matches(t *tab) bool {
	if q.hasWindow && t.windowID != q.windowID {
		return false
	}
	if q.active != nil && t.active != *q.active {
		return false
	}
	if q.title != nil && !q.title.Match(t.title) {
		return false
	}
	if len(q.urls) == 0 {
		return true
	}
	url := t.page.URL()
	for _, g := range q.urls {
		if g.Match(url) {
			return true
		}
	}
	return false
}

// queryTabs implements tabs.query({windowId?, url?, active?, title?}).
// url and title are glob patterns; url may also be a list of patterns.
func (h *Host) queryTabs(ctx context.Context, args ...any) (any, error) {
	m, err := mapArg(args, 0, "queryInfo")
	if err != nil {
		return nil, fmt.Errorf("tabs.query: %w", err)
	}
	q, err := parseTabQuery(m)
	if err != nil {
		return nil, fmt.Errorf("tabs.query: %w", err)
	}

	if err := h.lock(); err != nil {
		return nil, err
	}
	defer h.mu.Unlock()

	ids := make([]int, 0, len(h.tabs))
	for id := range h.tabs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := make([]any, 0, len(ids))
	for _, id := range ids {
		if t := h.tabs[id]; q.matches(t) {
			result = append(result, h.tabInfoLocked(t))
		}
	}
	return result, nil
}

// updateTab implements tabs.update(tabId, {url?, active?}).
func (h *Host) updateTab(ctx context.Context, args ...any) (any, error) {
	id, err := intArg(args, 0, "tabId")
	if err != nil {
		return nil, fmt.Errorf("tabs.update: %w", err)
	}
	props, err := mapArg(args, 1, "updateProperties")
	if err != nil {
		return nil, fmt.Errorf("tabs.update: %w", err)
	}
	url, err := optionalString(props, "url")
	if err != nil {
		return nil, fmt.Errorf("tabs.update: %w", err)
	}

	if err := h.lock(); err != nil {
		return nil, err
	}
	t, err := h.tabLocked(id)
	if err != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("tabs.update: %w", err)
	}

	changes := map[string]any{}
	if url != "" {
		if err := t.page.Navigate(ctx, url); err != nil {
			h.mu.Unlock()
			return nil, fmt.Errorf("tabs.update: %w", err)
		}
		t.title, _ = t.page.Title()
		changes["url"] = t.page.URL()
		changes["title"] = t.title
		changes["status"] = "complete"
	}
	if active, ok := props["active"].(bool); ok && active && !t.active {
		for _, other := range h.windows[t.windowID].tabs {
			h.tabs[other].active = other == t.id
		}
		changes["active"] = true
	}
	info := h.tabInfoLocked(t)
	h.mu.Unlock()

	if len(changes) > 0 {
		dispatch(ctx, []pendingEvent{{event: h.onTabUpdated, args: []any{id, changes, info}}})
	}
	return info, nil
}

// reloadTab implements tabs.reload(tabId).
func (h *Host) reloadTab(ctx context.Context, args ...any) (any, error) {
	id, err := intArg(args, 0, "tabId")
	if err != nil {
		return nil, fmt.Errorf("tabs.reload: %w", err)
	}
	if err := h.lock(); err != nil {
		return nil, err
	}
	t, err := h.tabLocked(id)
	if err != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("tabs.reload: %w", err)
	}
	if err := t.page.Reload(ctx); err != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("tabs.reload: %w", err)
	}
	t.title, _ = t.page.Title()
	info := h.tabInfoLocked(t)
	h.mu.Unlock()

	dispatch(ctx, []pendingEvent{{
		event: h.onTabUpdated,
		args:  []any{id, map[string]any{"status": "complete"}, info},
	}})
	return nil, nil
}

// removeTab implements tabs.remove(tabIds) for a single id or a list.
// Closing the last tab of a window closes the window too.
func (h *Host) removeTab(ctx context.Context, args ...any) (any, error) {
	ids, err := intsArg(args, 0, "tabIds")
	if err != nil {
		return nil, fmt.Errorf("tabs.remove: %w", err)
	}

	if err := h.lock(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, err := h.tabLocked(id); err != nil {
			h.mu.Unlock()
			return nil, fmt.Errorf("tabs.remove: %w", err)
		}
	}

	var events []pendingEvent
	var errs []error
	for _, id := range ids {
		t, ok := h.tabs[id]
		if !ok {
			continue // listed twice
		}
		w := h.windows[t.windowID]
		if w != nil && len(w.tabs) == 1 {
			windowEvents, err := h.removeWindowLocked(w)
			events = append(events, windowEvents...)
			if err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err := h.closeTabLocked(t); err != nil {
			errs = append(errs, err)
		}
		events = append(events, pendingEvent{
			event: h.onTabRemoved,
			args:  []any{id, map[string]any{"windowId": t.windowID, "isWindowClosing": false}},
		})
	}
	h.mu.Unlock()

	dispatch(ctx, events)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("tabs.remove: %w", err)
	}
	return nil, nil
}

// getContent implements tabs.getContent(tabId, {maxLength?}), returning
// the page title, meta description and visible text.
func (h *Host) getContent(ctx context.Context, args ...any) (any, error) {
	id, err := intArg(args, 0, "tabId")
	if err != nil {
		return nil, fmt.Errorf("tabs.getContent: %w", err)
	}
	opts, err := mapArg(args, 1, "options")
	if err != nil {
		return nil, fmt.Errorf("tabs.getContent: %w", err)
	}
	maxLength, _, err := optionalInt(opts, "maxLength")
	if err != nil {
		return nil, fmt.Errorf("tabs.getContent: %w", err)
	}

	if err := h.lock(); err != nil {
		return nil, err
	}
	t, err := h.tabLocked(id)
	if err != nil {
		h.mu.Unlock()
		return nil, fmt.Errorf("tabs.getContent: %w", err)
	}
	raw, err := t.page.Content()
	url := t.page.URL()
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("tabs.getContent: %w", err)
	}

	content, err := ExtractContent(raw, maxLength)
	if err != nil {
		return nil, fmt.Errorf("tabs.getContent: %w", err)
	}
	return map[string]any{
		"tabId":       id,
		"url":         url,
		"title":       content.Title,
		"description": content.Description,
		"text":        content.Text,
		"truncated":   content.Truncated,
	}, nil
}
