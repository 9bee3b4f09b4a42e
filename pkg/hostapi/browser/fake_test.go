package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// fakeDriver is an in-memory Driver. Pages serve html from the pages map,
// keyed by URL.
type fakeDriver struct {
	mu       sync.Mutex
	pages    map[string]string
	opened   []WindowOptions
	windows  []*fakeWindow
	failOpen error
	closed   bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{pages: map[string]string{}}
}

func (d *fakeDriver) OpenWindow(ctx context.Context, opts WindowOptions) (Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failOpen != nil {
		return nil, d.failOpen
	}
	d.opened = append(d.opened, opts)
	w := &fakeWindow{driver: d}
	d.windows = append(d.windows, w)
	return w, nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDriver) openWindows() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, w := range d.windows {
		if !w.closed {
			n++
		}
	}
	return n
}

type fakeWindow struct {
	driver *fakeDriver
	pages  []*fakePage
	closed bool
}

func (w *fakeWindow) NewPage(ctx context.Context) (Page, error) {
	p := &fakePage{driver: w.driver, url: "about:blank"}
	w.pages = append(w.pages, p)
	return p, nil
}

func (w *fakeWindow) Close() error {
	w.driver.mu.Lock()
	defer w.driver.mu.Unlock()
	w.closed = true
	return nil
}

type fakePage struct {
	driver  *fakeDriver
	url     string
	reloads int
	scripts []string
	closed  bool
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if strings.HasPrefix(url, "bad://") {
		return errors.New("navigation failed: net::ERR_NAME_NOT_RESOLVED")
	}
	p.url = url
	return nil
}

func (p *fakePage) Reload(ctx context.Context) error {
	p.reloads++
	return nil
}

func (p *fakePage) URL() string {
	return p.url
}

func (p *fakePage) Title() (string, error) {
	content, _ := p.Content()
	c, err := ExtractContent(content, 0)
	if err != nil {
		return "", err
	}
	return c.Title, nil
}

func (p *fakePage) Content() (string, error) {
	p.driver.mu.Lock()
	defer p.driver.mu.Unlock()
	if html, ok := p.driver.pages[p.url]; ok {
		return html, nil
	}
	return "<html><head></head><body></body></html>", nil
}

func (p *fakePage) Evaluate(ctx context.Context, code string) (any, error) {
	p.scripts = append(p.scripts, code)
	switch code {
	case "document.title":
		return p.Title()
	case "throw":
		return nil, fmt.Errorf("JavaScript execution failed: boom")
	}
	return len(code), nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}
