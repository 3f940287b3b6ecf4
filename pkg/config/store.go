package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store persists section data between runs.
type Store interface {
	Load() error
	Save() error
	GetSection(sectionID string) (map[string]interface{}, error)
	SetSection(sectionID string, data map[string]interface{}) error
}

// EnvConfigPath overrides the default config location when set.
const EnvConfigPath = "UIFLOW_CONFIG"

// fileVersion is the only layout FileStore reads and writes.
const fileVersion = "1.0"

// configFile is the on-disk layout.
type configFile struct {
	Version  string                            `json:"version"`
	Sections map[string]map[string]interface{} `json:"sections"`
}

// DefaultPath returns $UIFLOW_CONFIG or ~/.uiflow/config.json.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".uiflow", "config.json"), nil
}

// FileStore keeps sections in one JSON file. The file holds login
// credentials, so it is only ever written with mode 0600.
type FileStore struct {
	path string

	mu       sync.RWMutex
	sections map[string]map[string]interface{}
}

// NewFileStore opens the config file at path, or DefaultPath when path is
// empty. A missing file reads as empty and is created on first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	s := &FileStore{path: path}
	if err := s.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return s, nil
}

// Path returns the config file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load replaces the in-memory sections with the file's content.
func (s *FileStore) Load() error {
	doc, err := readConfigFile(s.path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections = doc.Sections
	return nil
}

// Save writes every section to a temp file next to the config file and
// renames it into place.
func (s *FileStore) Save() error {
	s.mu.RLock()
	doc := configFile{Version: fileVersion, Sections: cloneSections(s.sections)}
	s.mu.RUnlock()

	return writeConfigFile(s.path, doc)
}

// GetSection returns a copy of the stored data for sectionID, empty when
// the section was never stored.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSection(s.sections[sectionID]), nil
}

// SetSection stores a copy of data for sectionID.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sectionID] = cloneSection(data)
	return nil
}

func readConfigFile(path string) (configFile, error) {
	doc := configFile{Version: fileVersion, Sections: map[string]map[string]interface{}{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode config file: %w", err)
	}
	switch doc.Version {
	case "":
		doc.Version = fileVersion
	case fileVersion:
	default:
		return doc, fmt.Errorf("unsupported config version %q (want %s)", doc.Version, fileVersion)
	}
	if doc.Sections == nil {
		doc.Sections = map[string]map[string]interface{}{}
	}
	return doc, nil
}

func writeConfigFile(path string, doc configFile) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// CreateTemp opens with 0600
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(raw, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

func cloneSection(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func cloneSections(sections map[string]map[string]interface{}) map[string]map[string]interface{} {
	out := make(map[string]map[string]interface{}, len(sections))
	for id, data := range sections {
		out[id] = cloneSection(data)
	}
	return out
}
