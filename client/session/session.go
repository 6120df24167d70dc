// Package session keeps the CLI's login in the system keyring.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/example/task-manager/domain/user"
)

const (
	serviceName = "taskctl"
	sessionKey  = "session"
)

// ErrNoSession is returned by Load when nobody is logged in.
var ErrNoSession = errors.New("not logged in")

// Session is what survives between CLI runs.
type Session struct {
	Server string         `json:"server"`
	Email  string         `json:"email"`
	Tokens user.TokenPair `json:"tokens"`
}

// Store reads and writes the session in a keyring.
type Store struct {
	ring keyring.Keyring
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open opens the OS keyring, falling back to an encrypted file under dir.
func Open(dir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("taskctl-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return New(ring), nil
}

// Save stores s, replacing any previous session.
func (st *Store) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := st.ring.Set(keyring.Item{
		Key:         sessionKey,
		Data:        data,
		Label:       "taskctl session",
		Description: "task manager access and refresh tokens",
	}); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load returns the stored session or ErrNoSession.
func (st *Store) Load() (Session, error) {
	item, err := st.ring.Get(sessionKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(item.Data, &s); err != nil {
		return Session{}, fmt.Errorf("decoding session: %w", err)
	}
	if s.Tokens.Token == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Clear forgets the session. Clearing an empty store is not an error.
func (st *Store) Clear() error {
	err := st.ring.Remove(sessionKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
