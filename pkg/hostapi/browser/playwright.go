package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// DefaultNavigationTimeout bounds page loads when none is configured.
const DefaultNavigationTimeout = 30 * time.Second

// PlaywrightOptions configures the Playwright driver.
type PlaywrightOptions struct {
	// SkipInstall skips downloading browsers and the driver on start.
	SkipInstall bool

	// NavigationTimeout is the default timeout for page operations.
	NavigationTimeout time.Duration

	// WaitUntil selects when navigation is complete: "load" (default),
	// "domcontentloaded" or "networkidle".
	WaitUntil string
}

// PlaywrightDriver is the production Driver. Playwright is started on the
// first OpenWindow and one Chromium instance is launched per headless mode.
type PlaywrightDriver struct {
	mu       sync.Mutex
	opts     PlaywrightOptions
	pw       *playwright.Playwright
	browsers map[bool]playwright.Browser
}

// NewPlaywrightDriver creates a driver. Nothing is started until a window
// is opened.
func NewPlaywrightDriver(opts PlaywrightOptions) *PlaywrightDriver {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = DefaultNavigationTimeout
	}
	if opts.WaitUntil == "" {
		opts.WaitUntil = "load"
	}
	return &PlaywrightDriver{
		opts:     opts,
		browsers: make(map[bool]playwright.Browser),
	}
}

// startLocked installs and runs Playwright once.
func (d *PlaywrightDriver) startLocked() error {
	if d.pw != nil {
		return nil
	}

	// Discard driver output so it does not interleave with CLI output
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if !d.opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	d.pw = pw
	return nil
}

func (d *PlaywrightDriver) browserLocked(headless bool) (playwright.Browser, error) {
	if b, ok := d.browsers[headless]; ok {
		return b, nil
	}
	b, err := d.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	d.browsers[headless] = b
	return b, nil
}

// OpenWindow opens a new browser context.
func (d *PlaywrightDriver) OpenWindow(ctx context.Context, opts WindowOptions) (Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.startLocked(); err != nil {
		return nil, err
	}
	b, err := d.browserLocked(opts.Headless)
	if err != nil {
		return nil, err
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Width,
			Height: opts.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	return &playwrightWindow{context: bctx, opts: d.opts}, nil
}

// Close closes every browser and stops Playwright.
func (d *PlaywrightDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for headless, b := range d.browsers {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(d.browsers, headless)
	}
	if d.pw != nil {
		if err := d.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
		d.pw = nil
	}
	return errors.Join(errs...)
}

type playwrightWindow struct {
	context playwright.BrowserContext
	opts    PlaywrightOptions
}

func (w *playwrightWindow) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := w.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(w.opts.NavigationTimeout.Milliseconds()))
	return &playwrightPage{page: page, waitUntil: w.opts.WaitUntil}, nil
}

func (w *playwrightWindow) Close() error {
	return w.context.Close()
}

type playwrightPage struct {
	page      playwright.Page
	waitUntil string
}

func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	waitUntil := playwright.WaitUntilState(p.waitUntil)
	if _, err := p.page.Goto(url, playwright.PageGotoOptions{WaitUntil: &waitUntil}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Reload(); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Evaluate(ctx context.Context, code string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := p.page.Evaluate(code)
	if err != nil {
		return nil, fmt.Errorf("JavaScript execution failed: %w", err)
	}
	return result, nil
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

var (
	_ Driver = (*PlaywrightDriver)(nil)
	_ Window = (*playwrightWindow)(nil)
	_ Page   = (*playwrightPage)(nil)
)
