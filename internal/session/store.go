// ABOUTME: Persists the authenticated session between CLI invocations
// ABOUTME: Stores session.json in the XDG config directory with owner-only permissions

package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// ErrNoSession is returned by Store.Load when nothing has been saved
var ErrNoSession = errors.New("no saved session")

// Store reads and writes the persisted session
type Store struct {
	configDir string
}

type storedSession struct {
	Session Session `json:"session"`
}

// NewStore creates a Store rooted at the given config directory.
// An empty directory disables persistence.
func NewStore(configDir string) *Store {
	return &Store{configDir: configDir}
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bugtracker")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "bugtracker")
}

// Dir returns the directory the store writes to
func (st *Store) Dir() string {
	return st.configDir
}

func (st *Store) file() string {
	return filepath.Join(st.configDir, "session.json")
}

// Load reads the saved session.
// Unreadable or unauthenticated data is treated as no session.
func (st *Store) Load() (Session, error) {
	if st == nil || st.configDir == "" {
		return Session{}, ErrNoSession
	}

	data, err := os.ReadFile(st.file())
	if os.IsNotExist(err) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		// Corrupt file, start fresh
		return Session{}, ErrNoSession
	}
	if !stored.Session.Authenticated {
		return Session{}, ErrNoSession
	}

	return stored.Session, nil
}

// Save writes the session to disk
func (st *Store) Save(s Session) error {
	if st == nil || st.configDir == "" {
		return nil
	}

	if err := os.MkdirAll(st.configDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(storedSession{Session: s}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(st.file(), data, 0600)
}

// Clear removes the saved session
func (st *Store) Clear() error {
	if st == nil || st.configDir == "" {
		return nil
	}
	err := os.Remove(st.file())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadState restores a State from the store, falling back to a fresh
// unauthenticated State when nothing usable was saved.
func (st *Store) LoadState() *State {
	saved, err := st.Load()
	if err != nil {
		return New()
	}
	state := Restore(saved)
	if !state.IsAuthenticated() {
		state.Logout()
	}
	return state
}
