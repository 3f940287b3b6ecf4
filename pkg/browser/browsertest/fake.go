// Package browsertest provides an in-memory browser driver for tests.
//
// Elements are registered on a Page under a browser.Selector and become
// attached after an optional delay. Waits poll the registry until their
// timeout and then fail with browser.ErrDriverTimeout, the way the real
// driver does. Hooks (OnGoto, OnEvaluate, Element.OnClick) let a test
// script how the fake application reacts.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/entrhq/uiflow/pkg/browser"
)

const tick = 5 * time.Millisecond

// Element is a fake DOM element.
type Element struct {
	// Text is rendered into the page content.
	Text string
	// Hidden elements are attached but not visible.
	Hidden bool
	// Delay postpones attachment after the element is added.
	Delay time.Duration
	// ClickErr is returned by Click.
	ClickErr error
	// OnClick runs after a successful click.
	OnClick func(p *Page)
	// Value is the current form value.
	Value string

	appearAt time.Time
}

func (e *Element) attached(now time.Time) bool {
	return !now.Before(e.appearAt)
}

func (e *Element) visible(now time.Time) bool {
	return e.attached(now) && !e.Hidden
}

// Launcher is a fake browser.Launcher.
type Launcher struct {
	mu sync.Mutex

	// LaunchErr fails every launch.
	LaunchErr error
	// LaunchDelay is slept before launching.
	LaunchDelay time.Duration
	// PartialBrowser is returned together with LaunchErr to model a
	// process that started and then failed.
	PartialBrowser bool
	// Setup runs on every new page.
	Setup func(p *Page)
	// CloseErr is returned by every launched browser's Close.
	CloseErr error
	// OnLaunch runs on every launched browser before it is returned.
	OnLaunch func(b *Browser)

	browsers []*Browser
	launches int
}

// NewLauncher returns a launcher whose pages are prepared by setup.
func NewLauncher(setup func(p *Page)) *Launcher {
	return &Launcher{Setup: setup}
}

// Launch implements browser.Launcher.
func (l *Launcher) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	l.mu.Lock()
	l.launches++
	delay, launchErr, partial, closeErr, onLaunch := l.LaunchDelay, l.LaunchErr, l.PartialBrowser, l.CloseErr, l.OnLaunch
	l.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if launchErr != nil && !partial {
		return nil, launchErr
	}

	b := &Browser{launcher: l, Options: opts, closeErr: closeErr}
	if onLaunch != nil {
		onLaunch(b)
	}
	l.mu.Lock()
	l.browsers = append(l.browsers, b)
	l.mu.Unlock()

	if launchErr != nil {
		return b, launchErr
	}
	return b, nil
}

// Launches returns how many times Launch was called.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

// Browsers returns every browser created so far.
func (l *Launcher) Browsers() []*Browser {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Browser(nil), l.browsers...)
}

// OpenBrowsers counts browsers not yet closed.
func (l *Launcher) OpenBrowsers() int {
	n := 0
	for _, b := range l.Browsers() {
		if b.CloseCalls() == 0 {
			n++
		}
	}
	return n
}

// Browser is a fake browser.Browser.
type Browser struct {
	Options browser.LaunchOptions

	launcher       *Launcher
	mu             sync.Mutex
	contexts       []*BrowserContext
	closeCalls     int
	closeErr       error
	closeHang      time.Duration
	newContextErr  error
	newContextHang time.Duration
}

// FailNewContext makes later NewContext calls fail with err.
func (b *Browser) FailNewContext(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.newContextErr = err
}

// HangNewContext makes later NewContext calls block for d first.
func (b *Browser) HangNewContext(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.newContextHang = d
}

// HangClose makes Close block for d first.
func (b *Browser) HangClose(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeHang = d
}

// NewContext implements browser.Browser.
func (b *Browser) NewContext(opts browser.ContextOptions) (browser.BrowserContext, error) {
	b.mu.Lock()
	hang := b.newContextHang
	b.mu.Unlock()
	if hang > 0 {
		time.Sleep(hang)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeCalls > 0 {
		return nil, fmt.Errorf("%w: browser closed", browser.ErrTargetClosed)
	}
	if b.newContextErr != nil {
		return nil, b.newContextErr
	}
	c := &BrowserContext{browser: b, Options: opts}
	b.contexts = append(b.contexts, c)
	return c, nil
}

// Close implements browser.Browser. Contexts still open go down with the
// browser; that does not count as a Close call on them.
func (b *Browser) Close() error {
	b.mu.Lock()
	b.closeCalls++
	contexts := append([]*BrowserContext(nil), b.contexts...)
	hang, err := b.closeHang, b.closeErr
	b.mu.Unlock()
	if hang > 0 {
		time.Sleep(hang)
	}
	for _, c := range contexts {
		c.shutdown()
	}
	return err
}

// CloseCalls counts Close calls.
func (b *Browser) CloseCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeCalls
}

// Contexts returns every context opened on the browser.
func (b *Browser) Contexts() []*BrowserContext {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*BrowserContext(nil), b.contexts...)
}

// BrowserContext is a fake browser.BrowserContext.
type BrowserContext struct {
	Options browser.ContextOptions

	browser    *Browser
	mu         sync.Mutex
	pages      []*Page
	closed     bool
	closeCalls int
	closeErr   error
	closeHang  time.Duration
}

// FailClose makes Close return err.
func (c *BrowserContext) FailClose(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErr = err
}

// HangClose makes Close block for d first.
func (c *BrowserContext) HangClose(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeHang = d
}

// NewPage implements browser.BrowserContext.
func (c *BrowserContext) NewPage() (browser.Page, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: context closed", browser.ErrTargetClosed)
	}
	p := NewPage()
	p.viewport = c.Options.Viewport
	c.pages = append(c.pages, p)
	c.mu.Unlock()

	if l := c.browser.launcher; l != nil {
		l.mu.Lock()
		setup := l.Setup
		l.mu.Unlock()
		if setup != nil {
			setup(p)
		}
	}
	return p, nil
}

// Close implements browser.BrowserContext.
func (c *BrowserContext) Close() error {
	c.mu.Lock()
	c.closeCalls++
	hang, err := c.closeHang, c.closeErr
	c.mu.Unlock()
	if hang > 0 {
		time.Sleep(hang)
	}
	c.shutdown()
	return err
}

func (c *BrowserContext) shutdown() {
	c.mu.Lock()
	c.closed = true
	pages := append([]*Page(nil), c.pages...)
	c.mu.Unlock()
	for _, p := range pages {
		_ = p.Close()
	}
}

// Closed reports whether the context was closed, directly or with its
// browser.
func (c *BrowserContext) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// CloseCalls counts Close calls.
func (c *BrowserContext) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

// Pages returns the pages opened in the context.
func (c *BrowserContext) Pages() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Page(nil), c.pages...)
}

// doc is the state shared by pages and frames.
type doc struct {
	mu        sync.Mutex
	name      string
	url       string
	elements  map[string]*Element
	loadDelay time.Duration
	loadErr   error
	stable    bool
	waitHang  time.Duration
	waitCalls int
	seenHang  time.Duration
	clicks    map[string]int
	evalFn    func(expr string) (any, error)
	closed    bool
}

func newDoc(name, url string) *doc {
	return &doc{
		name:     name,
		url:      url,
		elements: make(map[string]*Element),
		clicks:   make(map[string]int),
	}
}

func (d *doc) add(sel browser.Selector, el Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el.appearAt = time.Now().Add(el.Delay)
	d.elements[sel.String()] = &el
}

func (d *doc) remove(sel browser.Selector) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, sel.String())
}

func (d *doc) lookup(key string) (*Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elements[key]
	return el, ok
}

func (d *doc) checkOpen() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("%w: page closed", browser.ErrTargetClosed)
	}
	return nil
}

func (d *doc) waitForLoadState(timeout time.Duration) error {
	d.mu.Lock()
	d.waitCalls++
	hang, delay, loadErr, stable := d.waitHang, d.loadDelay, d.loadErr, d.stable
	d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return err
	}
	if hang > 0 {
		time.Sleep(hang)
	}
	if stable {
		return nil
	}
	if loadErr != nil {
		return loadErr
	}
	if delay > timeout {
		time.Sleep(timeout)
		return fmt.Errorf("%w: load state not reached in %v", browser.ErrDriverTimeout, timeout)
	}
	time.Sleep(delay)

	d.mu.Lock()
	d.stable = true
	d.mu.Unlock()
	return nil
}

func (d *doc) evaluate(expr string) (any, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	fn := d.evalFn
	d.mu.Unlock()
	if fn != nil {
		return fn(expr)
	}
	return nil, fmt.Errorf("fake: no evaluator for %q", expr)
}

func (d *doc) content() (string, error) {
	if err := d.checkOpen(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	keys := make([]string, 0, len(d.elements))
	for k := range d.elements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<html><head><title>")
	b.WriteString(html.EscapeString(d.name))
	b.WriteString("</title></head><body>")
	for _, k := range keys {
		el := d.elements[k]
		if el.Text == "" || !el.visible(now) {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(el.Text))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String(), nil
}

// Page is a fake browser.Page.
type Page struct {
	*doc

	gotoErr    error
	gotoDelay  time.Duration
	gotoCalls  int
	onGoto     func(p *Page, url string)
	frames     []*Frame
	scrollX    float64
	scrollY    float64
	maxScroll  float64
	wheelHang  time.Duration
	viewport   browser.Viewport
	viewports  []browser.Viewport
	wheelCalls int
}

// NewPage returns a blank page. Most tests get pages through a Launcher.
func NewPage() *Page {
	p := &Page{doc: newDoc("main", "about:blank"), maxScroll: 1e9}
	p.evalFn = p.builtinEval
	return p
}

// Add registers an element under sel.
func (p *Page) Add(sel browser.Selector, el Element) { p.add(sel, el) }

// AddText registers visible text under browser.Text(text).
func (p *Page) AddText(texts ...string) {
	for _, t := range texts {
		p.add(browser.Text(t), Element{Text: t})
	}
}

// Remove deletes the element registered under sel.
func (p *Page) Remove(sel browser.Selector) { p.remove(sel) }

// Value returns the filled value of the element under sel.
func (p *Page) Value(sel browser.Selector) string {
	el, ok := p.lookup(sel.String())
	if !ok {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return el.Value
}

// Clicks returns how many clicks reached the element under sel.
func (p *Page) Clicks(sel browser.Selector) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clicks[sel.String()]
}

// SetLoad configures the DOMContentLoaded wait: it takes delay, or fails
// with err when err is set. The page becomes unstable again.
func (p *Page) SetLoad(delay time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadDelay, p.loadErr, p.stable = delay, err, false
}

// HangWaits makes every load-state wait block for d, ignoring its timeout.
func (p *Page) HangWaits(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waitHang = d
}

// HangVisibility makes every IsVisible call block for d first.
func (p *Page) HangVisibility(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seenHang = d
}

// WaitCalls counts load-state waits on the page itself.
func (p *Page) WaitCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitCalls
}

// SetGoto configures navigation: it takes delay, or fails with err.
func (p *Page) SetGoto(delay time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotoDelay, p.gotoErr = delay, err
}

// OnGoto runs fn after every committed navigation.
func (p *Page) OnGoto(fn func(p *Page, url string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onGoto = fn
}

// OnEvaluate installs an evaluator. Returning handled=false falls back to
// the built-in expressions (window.scrollX, window.scrollY).
func (p *Page) OnEvaluate(fn func(expr string) (value any, handled bool, err error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evalFn = func(expr string) (any, error) {
		if v, ok, err := fn(expr); ok || err != nil {
			return v, err
		}
		return p.builtinEval(expr)
	}
}

func (p *Page) builtinEval(expr string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch strings.TrimSpace(expr) {
	case "window.scrollY":
		return p.scrollY, nil
	case "window.scrollX":
		return p.scrollX, nil
	case "window.innerWidth":
		return float64(p.viewport.Width), nil
	case "window.innerHeight":
		return float64(p.viewport.Height), nil
	}
	return nil, fmt.Errorf("fake: no evaluator for %q", expr)
}

// GotoCalls counts navigations.
func (p *Page) GotoCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gotoCalls
}

// AddFrame attaches an embedded frame.
func (p *Page) AddFrame(name, url string) *Frame {
	f := &Frame{doc: newDoc(name, url), page: p}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, f)
	return f
}

// SetScroll sets the scroll offset and the maximum for both axes.
func (p *Page) SetScroll(x, y, max float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollX, p.scrollY, p.maxScroll = x, y, max
}

// Scroll returns the current scroll offset.
func (p *Page) Scroll() (x, y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrollX, p.scrollY
}

// HangWheel makes wheel events block for d.
func (p *Page) HangWheel(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wheelHang = d
}

// WheelCalls counts wheel events.
func (p *Page) WheelCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wheelCalls
}

// Viewports lists every SetViewport call.
func (p *Page) Viewports() []browser.Viewport {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]browser.Viewport(nil), p.viewports...)
}

// Crash closes the page as if the renderer died.
func (p *Page) Crash() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Closed reports whether the page was closed.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Locator implements browser.Scope.
func (p *Page) Locator(selector string) browser.Locator {
	return &Locator{doc: p.doc, page: p, key: selector}
}

// WaitForLoadState implements browser.Scope.
func (p *Page) WaitForLoadState(_ browser.LoadState, timeout time.Duration) error {
	return p.waitForLoadState(timeout)
}

// Evaluate implements browser.Scope.
func (p *Page) Evaluate(expr string) (any, error) { return p.evaluate(expr) }

// Content implements browser.Scope.
func (p *Page) Content() (string, error) { return p.content() }

// URL implements browser.Scope.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Name implements browser.Scope.
func (p *Page) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// Goto implements browser.Page.
func (p *Page) Goto(url string, _ browser.LoadState, timeout time.Duration) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.mu.Lock()
	p.gotoCalls++
	delay, gotoErr := p.gotoDelay, p.gotoErr
	p.mu.Unlock()

	if delay > timeout {
		time.Sleep(timeout)
		return fmt.Errorf("%w: navigation to %s", browser.ErrDriverTimeout, url)
	}
	time.Sleep(delay)
	if gotoErr != nil {
		return gotoErr
	}

	p.mu.Lock()
	changed := p.url != url
	p.url = url
	if changed {
		p.stable = false
	}
	hook := p.onGoto
	p.mu.Unlock()

	if hook != nil {
		hook(p, url)
	}
	return nil
}

// Frames implements browser.Page.
func (p *Page) Frames() []browser.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]browser.Frame, len(p.frames))
	for i, f := range p.frames {
		out[i] = f
	}
	return out
}

// Wheel implements browser.Page. Offsets are clamped to [0, max].
func (p *Page) Wheel(dx, dy float64) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.mu.Lock()
	hang := p.wheelHang
	p.wheelCalls++
	p.mu.Unlock()
	if hang > 0 {
		time.Sleep(hang)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollX = clamp(p.scrollX+dx, 0, p.maxScroll)
	p.scrollY = clamp(p.scrollY+dy, 0, p.maxScroll)
	return nil
}

// SetViewport implements browser.Page.
func (p *Page) SetViewport(v browser.Viewport) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = v
	p.viewports = append(p.viewports, v)
	return nil
}

// Close implements browser.Page.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Frame is a fake browser.Frame.
type Frame struct {
	*doc
	page *Page
}

// Add registers an element inside the frame.
func (f *Frame) Add(sel browser.Selector, el Element) { f.add(sel, el) }

// SetLoad configures the frame's DOMContentLoaded wait.
func (f *Frame) SetLoad(delay time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadDelay, f.loadErr, f.stable = delay, err, false
}

// WaitCalls counts load-state waits on the frame.
func (f *Frame) WaitCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waitCalls
}

// Locator implements browser.Scope.
func (f *Frame) Locator(selector string) browser.Locator {
	return &Locator{doc: f.doc, page: f.page, key: selector}
}

// WaitForLoadState implements browser.Scope.
func (f *Frame) WaitForLoadState(_ browser.LoadState, timeout time.Duration) error {
	return f.waitForLoadState(timeout)
}

// Evaluate implements browser.Scope.
func (f *Frame) Evaluate(expr string) (any, error) { return f.evaluate(expr) }

// Content implements browser.Scope.
func (f *Frame) Content() (string, error) { return f.content() }

// URL implements browser.Scope.
func (f *Frame) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// Name implements browser.Scope.
func (f *Frame) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.name
}

// Locator is a fake browser.Locator. It looks its element up on every
// call, so elements added or removed later are seen.
type Locator struct {
	doc  *doc
	page *Page
	key  string
}

// First implements browser.Locator.
func (l *Locator) First() browser.Locator { return l }

// Count implements browser.Locator.
func (l *Locator) Count() (int, error) {
	if err := l.doc.checkOpen(); err != nil {
		return 0, err
	}
	if el, ok := l.doc.lookup(l.key); ok && el.attached(time.Now()) {
		return 1, nil
	}
	return 0, nil
}

// WaitFor implements browser.Locator.
func (l *Locator) WaitFor(state browser.ElementState, timeout time.Duration) error {
	return l.waitUntil(timeout, func(el *Element, ok bool, now time.Time) bool {
		switch state {
		case browser.StateAttached:
			return ok && el.attached(now)
		case browser.StateDetached:
			return !ok || !el.attached(now)
		case browser.StateHidden:
			return !ok || !el.visible(now)
		default:
			return ok && el.visible(now)
		}
	})
}

// Click implements browser.Locator.
func (l *Locator) Click(timeout time.Duration) error {
	if err := l.waitActionable(timeout); err != nil {
		return err
	}
	el, _ := l.doc.lookup(l.key)

	l.doc.mu.Lock()
	clickErr, onClick := el.ClickErr, el.OnClick
	if clickErr == nil {
		l.doc.clicks[l.key]++
	}
	l.doc.mu.Unlock()

	if clickErr != nil {
		return clickErr
	}
	if onClick != nil {
		onClick(l.page)
	}
	return nil
}

// Fill implements browser.Locator.
func (l *Locator) Fill(value string, timeout time.Duration) error {
	if err := l.waitActionable(timeout); err != nil {
		return err
	}
	el, _ := l.doc.lookup(l.key)
	l.doc.mu.Lock()
	el.Value = value
	l.doc.mu.Unlock()
	return nil
}

// IsVisible implements browser.Locator.
func (l *Locator) IsVisible() (bool, error) {
	l.doc.mu.Lock()
	hang := l.doc.seenHang
	l.doc.mu.Unlock()
	if hang > 0 {
		time.Sleep(hang)
	}
	if err := l.doc.checkOpen(); err != nil {
		return false, err
	}
	el, ok := l.doc.lookup(l.key)
	if !ok {
		return false, nil
	}
	l.doc.mu.Lock()
	defer l.doc.mu.Unlock()
	return el.visible(time.Now()), nil
}

func (l *Locator) waitActionable(timeout time.Duration) error {
	return l.waitUntil(timeout, func(el *Element, ok bool, now time.Time) bool {
		return ok && el.visible(now)
	})
}

func (l *Locator) waitUntil(timeout time.Duration, cond func(el *Element, ok bool, now time.Time) bool) error {
	l.doc.mu.Lock()
	hang := l.doc.waitHang
	l.doc.mu.Unlock()
	if hang > 0 {
		time.Sleep(hang)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := l.doc.checkOpen(); err != nil {
			return err
		}
		el, ok := l.doc.lookup(l.key)
		l.doc.mu.Lock()
		met := cond(el, ok, time.Now())
		l.doc.mu.Unlock()
		if met {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: waiting for %s", browser.ErrDriverTimeout, l.key)
		}
		time.Sleep(tick)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ErrLaunch is a ready-made launch failure.
var ErrLaunch = errors.New("fake: executable not found")

var (
	_ browser.Launcher       = (*Launcher)(nil)
	_ browser.Browser        = (*Browser)(nil)
	_ browser.BrowserContext = (*BrowserContext)(nil)
	_ browser.Page           = (*Page)(nil)
	_ browser.Frame          = (*Frame)(nil)
	_ browser.Locator        = (*Locator)(nil)
)
