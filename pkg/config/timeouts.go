package config

import (
	"fmt"
	"sync"
	"time"
)

const (
	// SectionIDTimeouts is the identifier for the wait budget section
	SectionIDTimeouts = "timeouts"

	defaultCommitTimeout         = 10 * time.Second
	defaultStabilityTimeout      = 3 * time.Second
	defaultFrameStabilityTimeout = 3 * time.Second
	defaultStepTimeout           = 5 * time.Second
	defaultAssertionTimeout      = 30 * time.Second
	defaultSettleDelay           = 3 * time.Second
	defaultContextTimeout        = 5 * time.Second
)

// TimeoutsSection holds every bounded wait used by a run.
type TimeoutsSection struct {
	// Commit bounds navigation until the request is committed
	Commit time.Duration `json:"commit"`

	// Stability bounds the DOMContentLoaded wait on the page
	Stability time.Duration `json:"stability"`

	// FrameStability bounds the same wait on each embedded frame
	FrameStability time.Duration `json:"frame_stability"`

	// Step bounds a single click/fill/wait action
	Step time.Duration `json:"step"`

	// Assertion bounds visibility polling of expected markers
	Assertion time.Duration `json:"assertion"`

	// Settle is the pause flows take before interacting after a transition
	Settle time.Duration `json:"settle"`

	// Default is the browser context default timeout
	Default time.Duration `json:"default"`

	mu sync.RWMutex
}

// NewTimeoutsSection creates a timeouts section with defaults.
func NewTimeoutsSection() *TimeoutsSection {
	s := &TimeoutsSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *TimeoutsSection) ID() string {
	return SectionIDTimeouts
}

// Title returns the section title.
func (s *TimeoutsSection) Title() string {
	return "Timeouts"
}

// Description returns the section description.
func (s *TimeoutsSection) Description() string {
	return "Wait budgets for navigation commit, page and frame stability, steps and assertions."
}

func (s *TimeoutsSection) fields() map[string]*time.Duration {
	return map[string]*time.Duration{
		"commit":          &s.Commit,
		"stability":       &s.Stability,
		"frame_stability": &s.FrameStability,
		"step":            &s.Step,
		"assertion":       &s.Assertion,
		"settle":          &s.Settle,
		"default":         &s.Default,
	}
}

// Data returns the current configuration data.
func (s *TimeoutsSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := make(map[string]interface{})
	for key, d := range s.fields() {
		data[key] = d.String()
	}
	return data
}

// SetData updates the configuration from the provided data.
// Durations are strings ("5s") or bare numbers of milliseconds. When any
// value is invalid nothing is changed.
func (s *TimeoutsSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields := s.fields()
	parsed := make(map[*time.Duration]time.Duration, len(data))
	for key, value := range data {
		target, ok := fields[key]
		if !ok {
			continue
		}
		d, err := toDuration(key, value)
		if err != nil {
			return err
		}
		parsed[target] = d
	}
	for target, d := range parsed {
		*target = d
	}
	return nil
}

// Validate validates the current configuration.
func (s *TimeoutsSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, d := range s.fields() {
		if key == "settle" {
			if *d < 0 {
				return fmt.Errorf("settle must not be negative, got %v", *d)
			}
			continue
		}
		if *d <= 0 || *d > 5*time.Minute {
			return fmt.Errorf("%s must be between 0 and 5m, got %v", key, *d)
		}
	}
	if s.Assertion < s.Step {
		return fmt.Errorf("assertion timeout (%v) must not be shorter than step timeout (%v)", s.Assertion, s.Step)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *TimeoutsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Commit = defaultCommitTimeout
	s.Stability = defaultStabilityTimeout
	s.FrameStability = defaultFrameStabilityTimeout
	s.Step = defaultStepTimeout
	s.Assertion = defaultAssertionTimeout
	s.Settle = defaultSettleDelay
	s.Default = defaultContextTimeout
}

// Snapshot returns a copy of the settings safe to use without locking.
func (s *TimeoutsSection) Snapshot() TimeoutSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return TimeoutSettings{
		Commit:         s.Commit,
		Stability:      s.Stability,
		FrameStability: s.FrameStability,
		Step:           s.Step,
		Assertion:      s.Assertion,
		Settle:         s.Settle,
		Default:        s.Default,
	}
}

// TimeoutSettings is a lock-free copy of TimeoutsSection.
type TimeoutSettings struct {
	Commit         time.Duration
	Stability      time.Duration
	FrameStability time.Duration
	Step           time.Duration
	Assertion      time.Duration
	Settle         time.Duration
	Default        time.Duration
}

// DefaultTimeouts returns the built-in budgets.
func DefaultTimeouts() TimeoutSettings {
	return NewTimeoutsSection().Snapshot()
}

func toDuration(key string, value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case float64:
		// JSON numbers come as float64
		return time.Duration(v * float64(time.Millisecond)), nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected string or milliseconds, got %T", key, value)
	}
}
