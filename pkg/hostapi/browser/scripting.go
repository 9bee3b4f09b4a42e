package browser

import (
	"context"
	"errors"
	"fmt"
)

// executeScript implements scripting.executeScript({tabId, code}). The
// target may also be given as {target: {tabId}}. The result is a one-entry
// list of injection results for the top frame.
func (h *Host) executeScript(ctx context.Context, args ...any) (any, error) {
	injection, err := mapArg(args, 0, "injection")
	if err != nil {
		return nil, fmt.Errorf("scripting.executeScript: %w", err)
	}

	target := injection
	if nested, ok := injection["target"].(map[string]any); ok {
		target = nested
	}
	tabID, ok, err := optionalInt(target, "tabId")
	if err != nil {
		return nil, fmt.Errorf("scripting.executeScript: %w", err)
	}
	if !ok {
		return nil, errors.New("scripting.executeScript: missing tabId")
	}
	code, err := optionalString(injection, "code")
	if err != nil {
		return nil, fmt.Errorf("scripting.executeScript: %w", err)
	}
	if code == "" {
		return nil, errors.New("scripting.executeScript: missing code")
	}

	if err := h.lock(); err != nil {
		return nil, err
	}
	defer h.mu.Unlock()

	t, err := h.tabLocked(tabID)
	if err != nil {
		return nil, fmt.Errorf("scripting.executeScript: %w", err)
	}
	result, err := t.page.Evaluate(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("scripting.executeScript: %w", err)
	}
	return []any{map[string]any{"frameId": 0, "result": result}}, nil
}
