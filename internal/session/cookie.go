package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/celerix-dev/guardup-admin/internal/vault"
)

// CookieName is the name of the session cookie.
const CookieName = "guardup_session"

// Codec seals session IDs into cookie values.
type Codec struct {
	key []byte
}

// NewCodec creates a Codec with a 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != vault.KeySize {
		return nil, fmt.Errorf("session key must be %d bytes (got %d)", vault.KeySize, len(key))
	}
	return &Codec{key: key}, nil
}

// Encode seals a session ID.
func (c *Codec) Encode(id string) (string, error) {
	return vault.Seal(id, c.key)
}

// Decode opens a cookie value and checks it holds a session ID.
func (c *Codec) Decode(value string) (string, error) {
	id, err := vault.Open(value, c.key)
	if err != nil {
		return "", err
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("invalid session id: %w", err)
	}
	return id, nil
}
