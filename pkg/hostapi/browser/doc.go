// Package browser provides the real host API: a browser-control surface
// organised into namespaces, driven by Playwright.
//
// The surface follows the browser extension API layout that the override
// naming convention is written against:
//
//	windows.create / get / getAll / remove
//	windows.onCreated / onRemoved            (addListener, removeListener, hasListener)
//	tabs.create / get / query / update / reload / remove / getContent
//	tabs.onCreated / onUpdated / onRemoved
//	scripting.executeScript
//	runtime.id
//
// Each window is an isolated browser context; each tab is a page inside
// it. Window and tab ids are small integers assigned in creation order.
//
// # Drivers
//
// Host talks to the browser through the Driver interface. NewPlaywrightDriver
// returns the production implementation, which installs and starts
// Playwright on first use and launches Chromium lazily. Tests supply an
// in-memory driver instead.
//
// # Example Usage
//
//	host := browser.NewHost(browser.NewPlaywrightDriver(browser.PlaywrightOptions{}), browser.Options{})
//	defer host.Close()
//
//	ic := hostapi.New(host.Root())
//	win, err := hostapi.Invoke(ctx, ic.Root(), "windows.create", map[string]any{"url": "https://example.com"})
package browser
