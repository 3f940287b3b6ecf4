package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDBrowser is the identifier for the browser launch section
	SectionIDBrowser = "browser"

	defaultHeadless       = true
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
	defaultInstallDriver  = false
)

// DefaultLaunchArgs are the Chromium flags needed to run inside containers
// that lack a large /dev/shm or a usable multi-process sandbox.
var DefaultLaunchArgs = []string{
	"--disable-dev-shm-usage",
	"--ipc=host",
	"--single-process",
}

// BrowserSection holds browser launch settings.
type BrowserSection struct {
	Headless       bool     `json:"headless"`
	ViewportWidth  int      `json:"viewport_width"`
	ViewportHeight int      `json:"viewport_height"`
	LaunchArgs     []string `json:"launch_args"`
	ExecutablePath string   `json:"executable_path"`
	InstallDriver  bool     `json:"install_driver"`
	mu             sync.RWMutex
}

// NewBrowserSection creates a browser section with container-friendly defaults.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Chromium launch options: headless mode, viewport, extra flags and executable path."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	args := make([]interface{}, len(s.LaunchArgs))
	for i, a := range s.LaunchArgs {
		args[i] = a
	}

	return map[string]interface{}{
		"headless":        s.Headless,
		"viewport_width":  s.ViewportWidth,
		"viewport_height": s.ViewportHeight,
		"launch_args":     args,
		"executable_path": s.ExecutablePath,
		"install_driver":  s.InstallDriver,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		switch key {
		case "headless":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for headless: expected bool, got %T", value)
			}
			s.Headless = v

		case "install_driver":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("invalid value type for install_driver: expected bool, got %T", value)
			}
			s.InstallDriver = v

		case "viewport_width":
			n, err := toInt(key, value)
			if err != nil {
				return err
			}
			s.ViewportWidth = n

		case "viewport_height":
			n, err := toInt(key, value)
			if err != nil {
				return err
			}
			s.ViewportHeight = n

		case "executable_path":
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("invalid value type for executable_path: expected string, got %T", value)
			}
			s.ExecutablePath = v

		case "launch_args":
			args, err := toStrings(key, value)
			if err != nil {
				return err
			}
			s.LaunchArgs = args

		default:
			// Unknown keys are ignored for forward compatibility
			continue
		}
	}

	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ViewportWidth < 200 || s.ViewportWidth > 7680 {
		return fmt.Errorf("viewport_width must be between 200 and 7680, got %d", s.ViewportWidth)
	}
	if s.ViewportHeight < 200 || s.ViewportHeight > 4320 {
		return fmt.Errorf("viewport_height must be between 200 and 4320, got %d", s.ViewportHeight)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Headless = defaultHeadless
	s.ViewportWidth = defaultViewportWidth
	s.ViewportHeight = defaultViewportHeight
	s.LaunchArgs = append([]string(nil), DefaultLaunchArgs...)
	s.ExecutablePath = ""
	s.InstallDriver = defaultInstallDriver
}

// Snapshot returns a copy of the settings safe to use without locking.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return BrowserSettings{
		Headless:       s.Headless,
		ViewportWidth:  s.ViewportWidth,
		ViewportHeight: s.ViewportHeight,
		LaunchArgs:     append([]string(nil), s.LaunchArgs...),
		ExecutablePath: s.ExecutablePath,
		InstallDriver:  s.InstallDriver,
	}
}

// SetHeadless sets whether the browser runs without a window.
func (s *BrowserSection) SetHeadless(headless bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = headless
}

// SetExecutablePath overrides the bundled Chromium binary.
func (s *BrowserSection) SetExecutablePath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExecutablePath = path
}

// BrowserSettings is a lock-free copy of BrowserSection.
type BrowserSettings struct {
	Headless       bool
	ViewportWidth  int
	ViewportHeight int
	LaunchArgs     []string
	ExecutablePath string
	InstallDriver  bool
}

func toInt(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}

func toStrings(key string, value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid element in %s: expected string, got %T", key, item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid value type for %s: expected list of strings, got %T", key, value)
	}
}
