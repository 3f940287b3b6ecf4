package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/uiflow/pkg/logging"
)

// PlaywrightLauncher starts Chromium through a Playwright driver. Each
// launched browser owns its own driver, stopped when the browser closes.
type PlaywrightLauncher struct {
	install bool
	logger  *logging.Logger
}

// NewPlaywrightLauncher creates a launcher. With install set, the driver
// and Chromium are downloaded first when missing.
func NewPlaywrightLauncher(install bool, logger *logging.Logger) *PlaywrightLauncher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PlaywrightLauncher{install: install, logger: logger.Named("playwright")}
}

// Launch starts the driver and a Chromium process.
func (l *PlaywrightLauncher) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   l.logger.Writer(),
		Stderr:   l.logger.Writer(),
	}

	if l.install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			l.logger.Warnf("stopping driver after failed launch: %v", stopErr)
		}
		return nil, translate(err)
	}

	l.logger.Debugf("chromium %s started (headless=%v, args=%v)", b.Version(), opts.Headless, opts.Args)
	return &pwBrowser{pw: pw, browser: b}, nil
}

type pwBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	once    sync.Once
	err     error
}

func (b *pwBrowser) NewContext(opts ContextOptions) (BrowserContext, error) {
	ctxOpts := playwright.BrowserNewContextOptions{}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		ctxOpts.Viewport = &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		}
	}
	c, err := b.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, translate(err)
	}
	if opts.DefaultTimeout > 0 {
		c.SetDefaultTimeout(float64(opts.DefaultTimeout.Milliseconds()))
	}
	return &pwContext{ctx: c}, nil
}

func (b *pwBrowser) Close() error {
	b.once.Do(func() {
		var errs []error
		if err := b.browser.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
			errs = append(errs, fmt.Errorf("close chromium: %w", err))
		}
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop driver: %w", err))
		}
		b.err = errors.Join(errs...)
	})
	return b.err
}

type pwContext struct {
	ctx playwright.BrowserContext
}

func (c *pwContext) NewPage() (Page, error) {
	p, err := c.ctx.NewPage()
	if err != nil {
		return nil, translate(err)
	}
	return &pwPage{page: p}, nil
}

func (c *pwContext) Close() error {
	if err := c.ctx.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
		return err
	}
	return nil
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Locator(selector string) Locator {
	return &pwLocator{loc: p.page.Locator(selector)}
}

func (p *pwPage) WaitForLoadState(state LoadState, timeout time.Duration) error {
	return translate(p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: ms(timeout),
	}))
}

func (p *pwPage) Evaluate(expression string) (any, error) {
	v, err := p.page.Evaluate(expression)
	return v, translate(err)
}

func (p *pwPage) Content() (string, error) {
	c, err := p.page.Content()
	return c, translate(err)
}

func (p *pwPage) URL() string { return p.page.URL() }

func (p *pwPage) Name() string { return p.page.MainFrame().Name() }

func (p *pwPage) Goto(url string, waitUntil LoadState, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntilState(waitUntil),
		Timeout:   ms(timeout),
	})
	return translate(err)
}

func (p *pwPage) Frames() []Frame {
	main := p.page.MainFrame()
	var frames []Frame
	for _, f := range p.page.Frames() {
		if f == main {
			continue
		}
		frames = append(frames, &pwFrame{frame: f})
	}
	return frames
}

func (p *pwPage) Wheel(dx, dy float64) error {
	return translate(p.page.Mouse().Wheel(dx, dy))
}

func (p *pwPage) SetViewport(v Viewport) error {
	return translate(p.page.SetViewportSize(v.Width, v.Height))
}

func (p *pwPage) Close() error {
	if err := p.page.Close(); err != nil && !errors.Is(err, playwright.ErrTargetClosed) {
		return err
	}
	return nil
}

type pwFrame struct {
	frame playwright.Frame
}

func (f *pwFrame) Locator(selector string) Locator {
	return &pwLocator{loc: f.frame.Locator(selector)}
}

func (f *pwFrame) WaitForLoadState(state LoadState, timeout time.Duration) error {
	return translate(f.frame.WaitForLoadState(playwright.FrameWaitForLoadStateOptions{
		State:   loadState(state),
		Timeout: ms(timeout),
	}))
}

func (f *pwFrame) Evaluate(expression string) (any, error) {
	v, err := f.frame.Evaluate(expression)
	return v, translate(err)
}

func (f *pwFrame) Content() (string, error) {
	c, err := f.frame.Content()
	return c, translate(err)
}

func (f *pwFrame) URL() string { return f.frame.URL() }

func (f *pwFrame) Name() string { return f.frame.Name() }

type pwLocator struct {
	loc playwright.Locator
}

func (l *pwLocator) First() Locator {
	return &pwLocator{loc: l.loc.First()}
}

func (l *pwLocator) Count() (int, error) {
	n, err := l.loc.Count()
	return n, translate(err)
}

func (l *pwLocator) WaitFor(state ElementState, timeout time.Duration) error {
	return translate(l.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   selectorState(state),
		Timeout: ms(timeout),
	}))
}

func (l *pwLocator) Click(timeout time.Duration) error {
	return translate(l.loc.Click(playwright.LocatorClickOptions{Timeout: ms(timeout)}))
}

func (l *pwLocator) Fill(value string, timeout time.Duration) error {
	return translate(l.loc.Fill(value, playwright.LocatorFillOptions{Timeout: ms(timeout)}))
}

func (l *pwLocator) IsVisible() (bool, error) {
	v, err := l.loc.IsVisible()
	return v, translate(err)
}

// translate maps driver errors onto the package sentinels, keeping the
// driver message.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %v", ErrDriverTimeout, err)
	case errors.Is(err, playwright.ErrTargetClosed):
		return fmt.Errorf("%w: %v", ErrTargetClosed, err)
	default:
		return err
	}
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func loadState(s LoadState) *playwright.LoadState {
	switch s {
	case LoadLoad:
		return playwright.LoadStateLoad
	case LoadNetworkIdle:
		return playwright.LoadStateNetworkidle
	default:
		return playwright.LoadStateDomcontentloaded
	}
}

func waitUntilState(s LoadState) *playwright.WaitUntilState {
	switch s {
	case LoadCommit:
		return playwright.WaitUntilStateCommit
	case LoadLoad:
		return playwright.WaitUntilStateLoad
	case LoadNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	default:
		return playwright.WaitUntilStateDomcontentloaded
	}
}

func selectorState(s ElementState) *playwright.WaitForSelectorState {
	switch s {
	case StateAttached:
		return playwright.WaitForSelectorStateAttached
	case StateDetached:
		return playwright.WaitForSelectorStateDetached
	case StateHidden:
		return playwright.WaitForSelectorStateHidden
	default:
		return playwright.WaitForSelectorStateVisible
	}
}

var (
	_ Launcher       = (*PlaywrightLauncher)(nil)
	_ Browser        = (*pwBrowser)(nil)
	_ BrowserContext = (*pwContext)(nil)
	_ Page           = (*pwPage)(nil)
	_ Frame          = (*pwFrame)(nil)
	_ Locator        = (*pwLocator)(nil)
)
