package browser

import (
	"context"
	"time"
)

// Launcher starts a browser process.
type Launcher interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// LaunchOptions are the process-level settings passed to a Launcher.
type LaunchOptions struct {
	Headless       bool
	Args           []string
	ExecutablePath string
}

// Browser is a running browser process.
type Browser interface {
	NewContext(opts ContextOptions) (BrowserContext, error)
	// Close terminates the process and any driver it started.
	Close() error
}

// ContextOptions configure an isolated browsing profile.
type ContextOptions struct {
	Viewport       Viewport
	DefaultTimeout time.Duration
}

// BrowserContext is an isolated profile (cookies, storage) inside a Browser.
type BrowserContext interface {
	NewPage() (Page, error)
	Close() error
}

// Scope is anything selectors can be resolved against: a Page or a Frame.
type Scope interface {
	// Locator returns a lazy reference; nothing is queried until it is used.
	Locator(selector string) Locator
	WaitForLoadState(state LoadState, timeout time.Duration) error
	Evaluate(expression string) (any, error)
	Content() (string, error)
	URL() string
	Name() string
}

// Page is a top-level document.
type Page interface {
	Scope
	// Goto returns once the navigation reached waitUntil.
	Goto(url string, waitUntil LoadState, timeout time.Duration) error
	// Frames lists embedded frames, excluding the main frame.
	Frames() []Frame
	// Wheel dispatches a mouse wheel event with the given deltas.
	Wheel(dx, dy float64) error
	SetViewport(v Viewport) error
	Close() error
}

// Frame is an embedded document discovered from a Page.
type Frame interface {
	Scope
}

// Locator is a deferred reference to zero or more elements.
type Locator interface {
	First() Locator
	Count() (int, error)
	WaitFor(state ElementState, timeout time.Duration) error
	Click(timeout time.Duration) error
	Fill(value string, timeout time.Duration) error
	IsVisible() (bool, error)
}

// Locate resolves sel against scope. It is called fresh for every
// interaction so a re-rendered DOM never leaves a stale reference behind.
func Locate(scope Scope, sel Selector) Locator {
	return scope.Locator(sel.String()).First()
}
