package browser

import (
	"context"
)

// WindowOptions configures a new browser window.
type WindowOptions struct {
	// Headless runs the window without a visible browser
	Headless bool

	// Width and Height set the viewport size in pixels
	Width  int
	Height int

	// Incognito is reported back to callers. Every window is an isolated
	// context, so it does not change how the window is opened.
	Incognito bool
}

// Driver opens browser windows.
type Driver interface {
	// OpenWindow opens an isolated browser context
	OpenWindow(ctx context.Context, opts WindowOptions) (Window, error)

	// Close releases every window and the browser itself
	Close() error
}

// Window is an isolated browser context holding pages.
type Window interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	URL() string
	Title() (string, error)
	Content() (string, error)
	Evaluate(ctx context.Context, code string) (any, error)
	Close() error
}
