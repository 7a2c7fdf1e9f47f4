package auth

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/vidtube/backend/internal/apperr"
)

// Purpose scopes an action token to a single flow.
type Purpose string

const (
	PurposeVerifyEmail   Purpose = "verify-email"
	PurposeResetPassword Purpose = "reset-password"
)

// ActionToken is a sealed payload plus the nonce needed to open it, both hex encoded
// so they can travel as URL path segments.
type ActionToken struct {
	IV    string `json:"iv"`
	Token string `json:"token"`
}

type actionPayload struct {
	ID       string    `json:"id"`
	Purpose  Purpose   `json:"purpose"`
	IssuedAt time.Time `json:"issuedAt"`
}

// clockSkew tolerates small differences between issuing and redeeming hosts.
const clockSkew = time.Minute

type actionSealer struct {
	aead cipher.AEAD
	ttl  time.Duration
	now  func() time.Time
}

func newActionSealer(key []byte, ttl time.Duration) (*actionSealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("auth: action token key must be %d bytes", chacha20poly1305.KeySize)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("auth: init action token cipher: %w", err)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &actionSealer{
		aead: aead,
		ttl:  ttl,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

func (a *actionSealer) seal(userID string, purpose Purpose) (ActionToken, error) {
	if userID == "" {
		return ActionToken{}, apperr.Internal("issue action token", fmt.Errorf("user id must be provided"))
	}

	plaintext, err := json.Marshal(actionPayload{ID: userID, Purpose: purpose, IssuedAt: a.now()})
	if err != nil {
		return ActionToken{}, apperr.Internal("encode action token", err)
	}

	nonce := make([]byte, a.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return ActionToken{}, apperr.Internal("generate action token nonce", err)
	}

	sealed := a.aead.Seal(nil, nonce, plaintext, nil)
	return ActionToken{
		IV:    hex.EncodeToString(nonce),
		Token: hex.EncodeToString(sealed),
	}, nil
}

func (a *actionSealer) open(tok ActionToken, purpose Purpose) (string, error) {
	nonce, err := hex.DecodeString(tok.IV)
	if err != nil || len(nonce) != a.aead.NonceSize() {
		return "", apperr.Invalid("invalid link")
	}
	sealed, err := hex.DecodeString(tok.Token)
	if err != nil {
		return "", apperr.Invalid("invalid link")
	}

	plaintext, err := a.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", apperr.Invalid("invalid link")
	}

	var payload actionPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil || payload.ID == "" || payload.IssuedAt.IsZero() {
		return "", apperr.Invalid("invalid link")
	}
	if payload.Purpose != purpose {
		return "", apperr.Invalid("invalid link")
	}

	age := a.now().Sub(payload.IssuedAt)
	if age < -clockSkew {
		return "", apperr.Invalid("invalid link")
	}
	if age > a.ttl {
		return "", apperr.Expired("link expired")
	}

	return payload.ID, nil
}
