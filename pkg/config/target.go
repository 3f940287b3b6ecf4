package config

import (
	"fmt"
	"net/url"
	"sync"
)

const (
	// SectionIDTarget is the identifier for the application-under-test section
	SectionIDTarget = "target"

	defaultBaseURL       = "http://localhost:3000"
	defaultLoginEmail    = "testsprite_user@creator.os"
	defaultLoginPassword = "TestPassword123!"
	defaultParallelism   = 1
)

// TargetSection describes the application under test.
type TargetSection struct {
	BaseURL       string `json:"base_url"`
	LoginEmail    string `json:"login_email"`
	LoginPassword string `json:"login_password"`
	Parallelism   int    `json:"parallelism"`
	mu            sync.RWMutex
}

// NewTargetSection creates a target section pointing at a local dev server.
func NewTargetSection() *TargetSection {
	s := &TargetSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *TargetSection) ID() string {
	return SectionIDTarget
}

// Title returns the section title.
func (s *TargetSection) Title() string {
	return "Target"
}

// Description returns the section description.
func (s *TargetSection) Description() string {
	return "Base URL and test account of the application under test, and how many scenarios may run at once."
}

// Data returns the current configuration data.
func (s *TargetSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"base_url":       s.BaseURL,
		"login_email":    s.LoginEmail,
		"login_password": s.LoginPassword,
		"parallelism":    s.Parallelism,
	}
}

// SetData updates the configuration from the provided data.
func (s *TargetSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "base_url", "login_email", "login_password":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
			}
			switch key {
			case "base_url":
				s.BaseURL = v
			case "login_email":
				s.LoginEmail = v
			default:
				s.LoginPassword = v
			}

		case "parallelism":
			n, err := toInt(key, value)
			if err != nil {
				return err
			}
			s.Parallelism = n

		default:
			continue
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *TargetSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https, got %q", s.BaseURL)
	}
	if s.Parallelism < 1 || s.Parallelism > 16 {
		return fmt.Errorf("parallelism must be between 1 and 16, got %d", s.Parallelism)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *TargetSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.BaseURL = defaultBaseURL
	s.LoginEmail = defaultLoginEmail
	s.LoginPassword = defaultLoginPassword
	s.Parallelism = defaultParallelism
}

// Snapshot returns a copy of the settings safe to use without locking.
func (s *TargetSection) Snapshot() TargetSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return TargetSettings{
		BaseURL:       s.BaseURL,
		LoginEmail:    s.LoginEmail,
		LoginPassword: s.LoginPassword,
		Parallelism:   s.Parallelism,
	}
}

// SetBaseURL points the run at another deployment.
func (s *TargetSection) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = baseURL
}

// SetParallelism sets how many scenarios may run concurrently.
func (s *TargetSection) SetParallelism(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Parallelism = n
}

// TargetSettings is a lock-free copy of TargetSection.
type TargetSettings struct {
	BaseURL       string
	LoginEmail    string
	LoginPassword string
	Parallelism   int
}
