package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/uiflow/pkg/logging"
)

// ErrSessionReleased is returned when opening a context on a released session.
var ErrSessionReleased = errors.New("session already released")

// DefaultCleanupTimeout bounds driver calls of a session without a default
// timeout.
const DefaultCleanupTimeout = 5 * time.Second

// Session is one running browser process and the contexts it owns.
type Session struct {
	ID        string
	Config    SessionConfig
	CreatedAt time.Time

	mu       sync.Mutex
	browser  Browser
	manager  *SessionManager
	logger   *logging.Logger
	contexts []*Context
	released bool

	releaseOnce sync.Once
	releaseErr  error
}

// NewContext opens an isolated browsing context with one page. Creating
// the context and its page share the session's default timeout.
func (s *Session) NewContext(ctx context.Context) (*Context, error) {
	if s.Released() {
		return nil, ErrSessionReleased
	}

	c, err := boundedValue(ctx, s.driverTimeout(), func() (*Context, error) {
		bctx, err := s.browser.NewContext(ContextOptions{
			Viewport:       s.Config.Viewport,
			DefaultTimeout: s.Config.DefaultTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create context: %w", err)
		}
		page, err := bctx.NewPage()
		if err != nil {
			if closeErr := bctx.Close(); closeErr != nil {
				s.logger.Warnf("session %s: closing half-open context: %v", s.ID, closeErr)
			}
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
		return &Context{session: s, bctx: bctx, pages: []Page{page}}, nil
	}, s.discard)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		s.discard(c)
		return nil, ErrSessionReleased
	}
	s.contexts = append(s.contexts, c)
	s.mu.Unlock()
	return c, nil
}

func (s *Session) discard(c *Context) {
	if err := c.Close(); err != nil {
		s.logger.Warnf("session %s: closing abandoned context: %v", s.ID, err)
	}
}

func (s *Session) driverTimeout() time.Duration {
	if s.Config.DefaultTimeout > 0 {
		return s.Config.DefaultTimeout
	}
	return DefaultCleanupTimeout
}

// Release closes every owned context, then the browser. Only the first
// call does work; later calls return the first result. Each close is
// bounded by the session's default timeout.
func (s *Session) Release() error {
	s.releaseOnce.Do(func() {
		s.mu.Lock()
		s.released = true
		contexts := s.contexts
		s.contexts = nil
		s.mu.Unlock()

		var errs []error
		for _, c := range contexts {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		err := bounded(context.Background(), s.driverTimeout(), s.browser.Close)
		if err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}

		if s.manager != nil {
			s.manager.forget(s.ID)
		}

		s.releaseErr = cleanupErr(errs)
		if s.releaseErr != nil {
			s.logger.Warnf("session %s released with errors: %v", s.ID, s.releaseErr)
		} else {
			s.logger.Infof("session %s released after %v", s.ID, time.Since(s.CreatedAt).Round(time.Millisecond))
		}
	})
	return s.releaseErr
}

// Released reports whether Release has run.
func (s *Session) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Context is an isolated profile owned by a Session.
type Context struct {
	mu      sync.Mutex
	session *Session
	bctx    BrowserContext
	pages   []Page
	closed  bool
}

// Page returns the most recently opened page.
func (c *Context) Page() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[len(c.pages)-1]
}

// Pages returns every page opened in this context.
func (c *Context) Pages() []Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Page(nil), c.pages...)
}

// NewPage opens another page and makes it current.
func (c *Context) NewPage(ctx context.Context) (Page, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("context closed")
	}

	page, err := boundedValue(ctx, c.session.driverTimeout(), c.bctx.NewPage, func(p Page) { _ = p.Close() })
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = page.Close()
		return nil, fmt.Errorf("context closed")
	}
	c.pages = append(c.pages, page)
	return page, nil
}

// Close closes the context and its pages, bounded by the session's default
// timeout. Safe to call more than once.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if err := bounded(context.Background(), c.session.driverTimeout(), c.bctx.Close); err != nil {
		return fmt.Errorf("close context: %w", err)
	}
	return nil
}
