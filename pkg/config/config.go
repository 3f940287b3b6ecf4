package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Load builds a manager over the file at configPath with every uiflow
// section registered and stored values applied and validated.
func Load(configPath string) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)
	for _, section := range []Section{
		NewBrowserSection(),
		NewTimeoutsSection(),
		NewTargetSection(),
	} {
		if err := manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	if err := manager.ValidateAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Initialize creates the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	manager, err := Load(configPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetBrowser returns the browser section, or defaults if config is not initialized.
func GetBrowser() *BrowserSection {
	if section, ok := lookup(SectionIDBrowser).(*BrowserSection); ok {
		return section
	}
	return NewBrowserSection()
}

// GetTimeouts returns the timeouts section, or defaults if config is not initialized.
func GetTimeouts() *TimeoutsSection {
	if section, ok := lookup(SectionIDTimeouts).(*TimeoutsSection); ok {
		return section
	}
	return NewTimeoutsSection()
}

// GetTarget returns the target section, or defaults if config is not initialized.
func GetTarget() *TargetSection {
	if section, ok := lookup(SectionIDTarget).(*TargetSection); ok {
		return section
	}
	return NewTargetSection()
}

func lookup(id string) Section {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(id)
	if !ok {
		return nil
	}
	return section
}
