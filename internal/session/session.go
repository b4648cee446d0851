// Package session manages the persisted broker session record.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	apperrors "noren-desk/internal/errors"
)

// Validity is the fixed window a session key remains usable after
// creation.
const Validity = 23*time.Hour + 30*time.Minute

// Session is the persisted login record. It is created at login and
// passed explicitly to every external-call site.
type Session struct {
	UID           string    `json:"uid"`
	AccountID     string    `json:"actid"`
	APISessionKey string    `json:"api_session_key"`
	WSSessionKey  string    `json:"ws_session_key"`
	CreatedAt     time.Time `json:"created_at"`
}

// Valid reports whether the session is still inside its validity window.
func (s *Session) Valid() bool {
	return s.ValidAt(time.Now())
}

// ValidAt reports validity against an explicit clock, for tests.
func (s *Session) ValidAt(now time.Time) bool {
	if s == nil || s.APISessionKey == "" {
		return false
	}
	return now.Before(s.CreatedAt.Add(Validity))
}

// Load reads the session file. A missing file or an expired session
// returns ErrSessionExpired.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.Wrap(err, "parsing session file")
	}

	if !s.Valid() {
		return nil, apperrors.ErrSessionExpired
	}

	return &s, nil
}

// Save persists the session with restricted permissions.
func Save(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Clear removes the persisted session file.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
