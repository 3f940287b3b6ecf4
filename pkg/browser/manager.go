package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/uiflow/pkg/logging"
)

// DefaultLaunchTimeout bounds how long a browser may take to start.
const DefaultLaunchTimeout = 60 * time.Second

// SessionManager launches browser sessions and tracks the ones still open.
type SessionManager struct {
	mu            sync.Mutex
	launcher      Launcher
	logger        *logging.Logger
	sessions      map[string]*Session
	launchTimeout time.Duration
}

// NewSessionManager creates a session manager around launcher.
func NewSessionManager(launcher Launcher, logger *logging.Logger) *SessionManager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SessionManager{
		launcher:      launcher,
		logger:        logger.Named("session"),
		sessions:      make(map[string]*Session),
		launchTimeout: DefaultLaunchTimeout,
	}
}

// SetLaunchTimeout changes the launch budget.
func (m *SessionManager) SetLaunchTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launchTimeout = timeout
}

// Acquire launches a browser for cfg. Failure is a *LaunchError; the
// manager does not retry.
func (m *SessionManager) Acquire(ctx context.Context, cfg SessionConfig) (*Session, error) {
	cfg = cfg.withDefaults()

	m.mu.Lock()
	timeout := m.launchTimeout
	m.mu.Unlock()

	b, err := m.launch(ctx, cfg, timeout)
	if err != nil {
		m.logger.Errorf("launch failed (headless=%v, executable=%q): %v", cfg.Headless, cfg.ExecutablePath, err)
		return nil, &LaunchError{ExecutablePath: cfg.ExecutablePath, Err: err}
	}

	s := &Session{
		ID:        uuid.New().String(),
		Config:    cfg,
		CreatedAt: time.Now(),
		browser:   b,
		manager:   m,
		logger:    m.logger,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Infof("session %s launched (headless=%v, viewport=%s)", s.ID, cfg.Headless, cfg.Viewport)
	return s, nil
}

type launchResult struct {
	browser Browser
	err     error
}

// launch bounds the launcher call. A browser that finishes starting after
// the budget expired is closed as soon as it appears.
func (m *SessionManager) launch(ctx context.Context, cfg SessionConfig, timeout time.Duration) (Browser, error) {
	results := make(chan launchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- launchResult{err: fmt.Errorf("launcher panic: %v", r)}
			}
		}()
		b, err := m.launcher.Launch(ctx, cfg.launchOptions())
		results <- launchResult{browser: b, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	abandon := func(reason error) (Browser, error) {
		go func() {
			if r := <-results; r.browser != nil {
				if err := r.browser.Close(); err != nil {
					m.logger.Warnf("closing late browser: %v", err)
				}
			}
		}()
		return nil, reason
	}

	select {
	case r := <-results:
		if r.err != nil {
			if r.browser != nil {
				_ = r.browser.Close()
			}
			return nil, r.err
		}
		if r.browser == nil {
			return nil, fmt.Errorf("launcher returned no browser")
		}
		return r.browser, nil
	case <-timer.C:
		return abandon(fmt.Errorf("%w after %v", ErrDriverTimeout, timeout))
	case <-ctx.Done():
		return abandon(ctx.Err())
	}
}

// With acquires a session, runs fn and releases the session on every exit
// path, including a panic in fn (which is re-raised after release).
// Release failures are logged and never replace fn's error.
func (m *SessionManager) With(ctx context.Context, cfg SessionConfig, fn func(*Session) error) error {
	s, err := m.Acquire(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := s.Release(); relErr != nil {
			m.logger.Warnf("session %s: %v", s.ID, relErr)
		}
	}()
	return fn(s)
}

// Active returns the number of sessions not yet released.
func (m *SessionManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ReleaseAll releases every open session, e.g. on interrupt.
func (m *SessionManager) ReleaseAll() error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range open {
		if err := s.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return cleanupErr(errs)
}

func (m *SessionManager) forget(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
