package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/entrhq/hostproxy/pkg/config"
	"github.com/entrhq/hostproxy/pkg/hostapi"
	"github.com/entrhq/hostproxy/pkg/logging"
)

var (
	// ErrClosed is returned by operations on a host that has been closed.
	ErrClosed = errors.New("browser host is closed")

	ErrNoWindow = errors.New("no window with id")
	ErrNoTab    = errors.New("no tab with id")
)

// Options configures a Host.
type Options struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int

	// MaxWindows caps concurrently open windows. Zero means no limit.
	MaxWindows int

	Logger hostapi.Logger
}

// OptionsFromConfig builds Options from the host config section.
func OptionsFromConfig(section *config.HostSection) Options {
	if section == nil {
		section = config.NewHostSection()
	}
	width, height := section.GetViewport()
	return Options{
		Headless:       section.IsBrowserHeadless(),
		ViewportWidth:  width,
		ViewportHeight: height,
		MaxWindows:     section.GetMaxWindows(),
	}
}

type window struct {
	id        int
	handle    Window
	incognito bool
	tabs      []int
}

type tab struct {
	id       int
	windowID int
	page     Page
	active   bool
	title    string
}

// Host is the real host API. Operations are serialized by a single lock
// held across driver calls; event listeners run after it is released.
type Host struct {
	driver Driver
	opts   Options
	logger hostapi.Logger
	id     string

	mu           sync.Mutex
	closed       bool
	windows      map[int]*window
	tabs         map[int]*tab
	nextWindowID int
	nextTabID    int
	focused      int

	onWindowCreated *Event
	onWindowRemoved *Event
	onTabCreated    *Event
	onTabUpdated    *Event
	onTabRemoved    *Event

	root *hostapi.Object
}

// NewHost creates a host over driver. No browser is opened until the first
// window is created.
func NewHost(driver Driver, opts Options) *Host {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = 1280
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = 720
	}

	h := &Host{
		driver:       driver,
		opts:         opts,
		logger:       opts.Logger,
		id:           uuid.New().String(),
		windows:      make(map[int]*window),
		tabs:         make(map[int]*tab),
		nextWindowID: 1,
		nextTabID:    1,
	}
	h.onWindowCreated = newEvent("windows.onCreated", h.logger)
	h.onWindowRemoved = newEvent("windows.onRemoved", h.logger)
	h.onTabCreated = newEvent("tabs.onCreated", h.logger)
	h.onTabUpdated = newEvent("tabs.onUpdated", h.logger)
	h.onTabRemoved = newEvent("tabs.onRemoved", h.logger)

	h.root = hostapi.NewObject(map[string]any{
		"windows": map[string]any{
			"create":    hostapi.Func(h.createWindow),
			"get":       hostapi.Func(h.getWindow),
			"getAll":    hostapi.Func(h.getAllWindows),
			"remove":    hostapi.Func(h.removeWindow),
			"onCreated": h.onWindowCreated,
			"onRemoved": h.onWindowRemoved,
		},
		"tabs": map[string]any{
			"create":     hostapi.Func(h.createTab),
			"get":        hostapi.Func(h.getTab),
			"query":      hostapi.Func(h.queryTabs),
			"update":     hostapi.Func(h.updateTab),
			"reload":     hostapi.Func(h.reloadTab),
			"remove":     hostapi.Func(h.removeTab),
			"getContent": hostapi.Func(h.getContent),
			"onCreated":  h.onTabCreated,
			"onUpdated":  h.onTabUpdated,
			"onRemoved":  h.onTabRemoved,
		},
		"scripting": map[string]any{
			"executeScript": hostapi.Func(h.executeScript),
		},
		"runtime": map[string]any{
			"id": h.id,
		},
	})
	return h
}

// Root returns the host API root namespace.
func (h *Host) Root() hostapi.Namespace {
	return h.root
}

// ID returns the value exposed as runtime.id.
func (h *Host) ID() string {
	return h.id
}

// Close closes every window and the driver. Listeners are not notified.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	var errs []error
	for id, w := range h.windows {
		if err := w.handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close window %d: %w", id, err))
		}
	}
	h.windows = make(map[int]*window)
	h.tabs = make(map[int]*tab)
	if err := h.driver.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// lock acquires the host lock, failing once the host is closed.
func (h *Host) lock() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func (h *Host) windowLocked(id int) (*window, error) {
	w, ok := h.windows[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoWindow, id)
	}
	return w, nil
}

func (h *Host) tabLocked(id int) (*tab, error) {
	t, ok := h.tabs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoTab, id)
	}
	return t, nil
}

// openTabLocked opens a page in w, navigating to url when set. The new tab
// becomes the window's active tab.
func (h *Host) openTabLocked(ctx context.Context, w *window, url string) (*tab, error) {
	page, err := w.handle.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	if url != "" {
		if err := page.Navigate(ctx, url); err != nil {
			_ = page.Close()
			return nil, err
		}
	}

	t := &tab{
		id:       h.nextTabID,
		windowID: w.id,
		page:     page,
		active:   true,
	}
	t.title, _ = page.Title()
	h.nextTabID++

	for _, other := range w.tabs {
		h.tabs[other].active = false
	}
	w.tabs = append(w.tabs, t.id)
	h.tabs[t.id] = t
	h.logger.Debugf("browser: opened tab %d in window %d", t.id, w.id)
	return t, nil
}

// closeTabLocked closes t's page and detaches it from its window. The
// window is left open even when it has no tabs left.
func (h *Host) closeTabLocked(t *tab) error {
	w := h.windows[t.windowID]
	delete(h.tabs, t.id)
	if w != nil {
		for i, id := range w.tabs {
			if id == t.id {
				w.tabs = append(w.tabs[:i], w.tabs[i+1:]...)
				break
			}
		}
		if t.active && len(w.tabs) > 0 {
			h.tabs[w.tabs[len(w.tabs)-1]].active = true
		}
	}
	return t.page.Close()
}

func (h *Host) tabInfoLocked(t *tab) map[string]any {
	index := 0
	if w := h.windows[t.windowID]; w != nil {
		for i, id := range w.tabs {
			if id == t.id {
				index = i
				break
			}
		}
	}
	return map[string]any{
		"id":       t.id,
		"windowId": t.windowID,
		"index":    index,
		"url":      t.page.URL(),
		"title":    t.title,
		"active":   t.active,
	}
}

func (h *Host) windowInfoLocked(w *window) map[string]any {
	tabs := make([]any, 0, len(w.tabs))
	for _, id := range w.tabs {
		tabs = append(tabs, h.tabInfoLocked(h.tabs[id]))
	}
	return map[string]any{
		"id":        w.id,
		"focused":   w.id == h.focused,
		"incognito": w.incognito,
		"tabs":      tabs,
	}
}
