package session

import (
	"path/filepath"
	"testing"
	"time"

	apperrors "noren-desk/internal/errors"
)

func TestValidAt(t *testing.T) {
	created := time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC)
	s := &Session{UID: "FA1234", APISessionKey: "token", CreatedAt: created}

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just created", created, true},
		{"well inside the window", created.Add(12 * time.Hour), true},
		{"one minute before expiry", created.Add(Validity - time.Minute), true},
		{"exactly at expiry", created.Add(Validity), false},
		{"past expiry", created.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.ValidAt(tt.now); got != tt.want {
				t.Errorf("ValidAt(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestValidAtGuards(t *testing.T) {
	var nilSession *Session
	if nilSession.ValidAt(time.Now()) {
		t.Error("nil session must not be valid")
	}

	empty := &Session{CreatedAt: time.Now()}
	if empty.ValidAt(time.Now()) {
		t.Error("session without a key must not be valid")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := &Session{
		UID:           "FA1234",
		AccountID:     "FA1234",
		APISessionKey: "token",
		CreatedAt:     time.Now(),
	}

	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.UID != s.UID || loaded.APISessionKey != s.APISessionKey {
		t.Errorf("loaded = %+v, want %+v", loaded, s)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	if _, err := Load(path); !apperrors.Is(err, apperrors.ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

func TestLoadExpiredSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := &Session{
		UID:           "FA1234",
		APISessionKey: "token",
		CreatedAt:     time.Now().Add(-24 * time.Hour),
	}
	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := Load(path); !apperrors.Is(err, apperrors.ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := &Session{UID: "FA1234", APISessionKey: "token", CreatedAt: time.Now()}
	if err := Save(path, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := Clear(path); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := Load(path); !apperrors.Is(err, apperrors.ErrSessionExpired) {
		t.Errorf("after Clear, err = %v, want ErrSessionExpired", err)
	}

	// Clearing an already-missing file is not an error.
	if err := Clear(path); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}
