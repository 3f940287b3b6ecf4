package browser

import (
	"fmt"
	"strconv"
	"time"

	"github.com/entrhq/uiflow/pkg/config"
)

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// String formats the viewport as WxH.
func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// Common device viewports used by responsive flows.
var (
	ViewportDesktop = Viewport{Width: 1280, Height: 720}
	ViewportTablet  = Viewport{Width: 768, Height: 1024}
	ViewportMobile  = Viewport{Width: 375, Height: 812}
)

// LoadState is a navigation milestone.
type LoadState string

const (
	// LoadCommit is reached when the response starts being processed
	LoadCommit LoadState = "commit"
	// LoadDOMContentLoaded is reached when the DOM is parsed
	LoadDOMContentLoaded LoadState = "domcontentloaded"
	// LoadLoad is reached when the load event fired
	LoadLoad LoadState = "load"
	// LoadNetworkIdle is reached when no requests ran for 500ms
	LoadNetworkIdle LoadState = "networkidle"
)

// ElementState is what a locator wait is waiting for.
type ElementState string

const (
	StateAttached ElementState = "attached"
	StateDetached ElementState = "detached"
	StateVisible  ElementState = "visible"
	StateHidden   ElementState = "hidden"
)

// SelectorKind is the addressing scheme of a Selector.
type SelectorKind int

const (
	// SelectorText matches visible text, case-insensitive substring
	SelectorText SelectorKind = iota
	// SelectorExactText matches visible text exactly
	SelectorExactText
	// SelectorCSS is a CSS selector
	SelectorCSS
	// SelectorXPath is a structural path; position dependent and fragile
	SelectorXPath
)

// Selector addresses elements. Visible-text selectors are the stable
// contract; CSS and XPath exist for ids and recorded paths.
type Selector struct {
	Kind  SelectorKind
	Value string
}

// Text matches elements containing s.
func Text(s string) Selector { return Selector{Kind: SelectorText, Value: s} }

// ExactText matches elements whose full text is s.
func ExactText(s string) Selector { return Selector{Kind: SelectorExactText, Value: s} }

// CSS matches a CSS selector.
func CSS(s string) Selector { return Selector{Kind: SelectorCSS, Value: s} }

// XPath matches a structural path.
func XPath(s string) Selector { return Selector{Kind: SelectorXPath, Value: s} }

// String renders the selector in the engine's prefixed syntax.
func (s Selector) String() string {
	switch s.Kind {
	case SelectorText:
		return "text=" + s.Value
	case SelectorExactText:
		return "text=" + strconv.Quote(s.Value)
	case SelectorCSS:
		return "css=" + s.Value
	case SelectorXPath:
		return "xpath=" + s.Value
	default:
		return s.Value
	}
}

// Describe is a short human form used in logs and errors.
func (s Selector) Describe() string {
	switch s.Kind {
	case SelectorText, SelectorExactText:
		return fmt.Sprintf("text %q", s.Value)
	case SelectorCSS:
		return fmt.Sprintf("css %q", s.Value)
	case SelectorXPath:
		return fmt.Sprintf("xpath %q", s.Value)
	default:
		return strconv.Quote(s.Value)
	}
}

// IsZero reports whether no selector was set.
func (s Selector) IsZero() bool {
	return s.Value == ""
}

// SessionConfig configures one browser process and the contexts it opens.
type SessionConfig struct {
	Headless       bool
	Viewport       Viewport
	LaunchArgs     []string
	ExecutablePath string
	DefaultTimeout time.Duration
}

// SessionConfigFrom builds a SessionConfig from config settings.
func SessionConfigFrom(b config.BrowserSettings, t config.TimeoutSettings) SessionConfig {
	return SessionConfig{
		Headless:       b.Headless,
		Viewport:       Viewport{Width: b.ViewportWidth, Height: b.ViewportHeight},
		LaunchArgs:     append([]string(nil), b.LaunchArgs...),
		ExecutablePath: b.ExecutablePath,
		DefaultTimeout: t.Default,
	}
}

// launchOptions adds the window size flag so headed runs match the viewport.
func (c SessionConfig) launchOptions() LaunchOptions {
	args := append([]string(nil), c.LaunchArgs...)
	if c.Viewport.Width > 0 && c.Viewport.Height > 0 {
		args = append(args, fmt.Sprintf("--window-size=%d,%d", c.Viewport.Width, c.Viewport.Height))
	}
	return LaunchOptions{
		Headless:       c.Headless,
		Args:           args,
		ExecutablePath: c.ExecutablePath,
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Viewport.Width == 0 || c.Viewport.Height == 0 {
		c.Viewport = ViewportDesktop
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = config.DefaultTimeouts().Default
	}
	return c
}
