package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"
)

// User is the identity cached alongside the token pair.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Session is the client-side authentication state. It is the sole source of
// "is a user logged in" truth; an empty session means Anonymous.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// SessionStore persists a session across process restarts.
// Load on a store that has never been written returns a zero session.
type SessionStore interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// FileStore keeps the session as a JSON file, readable by the owner only.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load() (Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (f *FileStore) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemStore is an in-process SessionStore for tests and short-lived tools.
type MemStore struct {
	s  Session
	ok bool
}

func NewMemStore() *MemStore { return &MemStore{} }

func (m *MemStore) Load() (Session, error) {
	if !m.ok {
		return Session{}, nil
	}
	return m.s, nil
}

func (m *MemStore) Save(s Session) error {
	m.s, m.ok = s, true
	return nil
}

func (m *MemStore) Clear() error {
	m.s, m.ok = Session{}, false
	return nil
}
