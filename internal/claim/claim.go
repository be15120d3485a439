// Package claim issues one-shot codes that let a named user set their own
// password and create their account.
package claim

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/johndosdos/chatrooms/internal/model"
)

var (
	ErrInvalidCode   = errors.New("claim: invalid or used claim code")
	ErrEmptyUsername = errors.New("claim: username is required")
)

// Book holds outstanding claim codes. Codes live in memory only.
type Book struct {
	mu    sync.Mutex
	codes map[string]string
}

func NewBook() *Book {
	return &Book{codes: make(map[string]string)}
}

// Create issues a new code reserved for username.
func (b *Book) Create(username string) (model.ClaimCode, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.ClaimCode{}, ErrEmptyUsername
	}

	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return model.ClaimCode{}, fmt.Errorf("claim: generate code: %w", err)
	}
	code := hex.EncodeToString(buf)

	b.mu.Lock()
	b.codes[code] = username
	b.mu.Unlock()

	return model.ClaimCode{Code: code, Username: username}, nil
}

// Peek reports the username a code is reserved for without consuming it.
func (b *Book) Peek(code string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	username, ok := b.codes[strings.TrimSpace(code)]
	return username, ok
}

// Redeem consumes a code and returns the username it was reserved for.
func (b *Book) Redeem(code string) (string, error) {
	code = strings.TrimSpace(code)

	b.mu.Lock()
	defer b.mu.Unlock()

	username, ok := b.codes[code]
	if !ok {
		return "", ErrInvalidCode
	}
	delete(b.codes, code)
	return username, nil
}

// Restore puts a redeemed code back, for callers whose follow-up step failed.
func (b *Book) Restore(c model.ClaimCode) {
	b.mu.Lock()
	b.codes[c.Code] = c.Username
	b.mu.Unlock()
}
