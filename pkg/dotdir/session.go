package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	sessionFile = "session.json"
)

// ActiveSession is the persisted pointer to the session the CLI is currently
// appending frames to.
type ActiveSession struct {
	// SessionID is the id of the active session.
	SessionID string `json:"session_id"`

	// OwnerID and OwnerName identify the session's owner.
	OwnerID   string `json:"owner_id"`
	OwnerName string `json:"owner_name"`

	// Tag is the session's user-supplied label, if any.
	Tag string `json:"tag,omitempty"`
}

// LoadActiveSession loads the active session pointer from a target
// .phasor/session.json. Returns nil, nil if no active session exists.
// If overrideDir is non-empty, it is used instead of the default ~/.phasor/
// location.
func (m *Manager) LoadActiveSession(overrideDir string) (*ActiveSession, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, sessionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active session: %w", err)
	}

	state := &ActiveSession{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing active session: %w", err)
	}

	return state, nil
}

// SaveActiveSession persists the active session pointer to a target
// .phasor/session.json.
func (m *Manager) SaveActiveSession(state *ActiveSession, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil active session")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling active session: %w", err)
	}

	path := filepath.Join(dir, sessionFile)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("writing active session: %w", err)
	}

	return nil
}

// ClearActiveSession removes the active session file, so the next command
// starts a fresh session. Returns nil if the file doesn't exist (already
// cleared).
func (m *Manager) ClearActiveSession(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, sessionFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing active session: %w", err)
	}

	return nil
}
