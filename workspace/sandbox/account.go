package sandbox

import (
	"crypto/ed25519"
	"regexp"

	"github.com/mr-tron/base58"
)

const (
	minAccountIDLen = 2
	maxAccountIDLen = 64

	keyTypeED25519 = "ed25519"
)

// accountIDPattern accepts dot separated parts of lowercase alphanumerics,
// where '-' and '_' may only appear between alphanumerics.
var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// ValidAccountID reports whether id is a well formed account identifier.
func ValidAccountID(id string) bool {
	if len(id) < minAccountIDLen || len(id) > maxAccountIDLen {
		return false
	}
	return accountIDPattern.MatchString(id)
}

// Account is a named sandbox account owning an ed25519 key pair.
type Account struct {
	id         string
	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
	createdAt  uint64
	contract   string
}

// ID returns the account identifier.
func (a *Account) ID() string {
	return a.id
}

// PublicKey returns the key as "ed25519:<base58>".
func (a *Account) PublicKey() string {
	return keyTypeED25519 + ":" + base58.Encode(a.publicKey)
}

// SecretKey returns the key pair as "ed25519:<base58>".
func (a *Account) SecretKey() string {
	return keyTypeED25519 + ":" + base58.Encode(a.privateKey)
}

// CreatedAt returns the block height the account was created at.
func (a *Account) CreatedAt() uint64 {
	return a.createdAt
}

// Contract returns the name of the contract deployed to the account, if any.
func (a *Account) Contract() string {
	return a.contract
}

// Sign signs msg with the account key.
func (a *Account) Sign(msg []byte) []byte {
	return ed25519.Sign(a.privateKey, msg)
}

// Verify checks a signature made by Sign.
func (a *Account) Verify(msg, sig []byte) bool {
	return ed25519.Verify(a.publicKey, msg, sig)
}

// ParsePublicKey decodes an "ed25519:<base58>" public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	const prefix = keyTypeED25519 + ":"
	if len(s) <= len(prefix) || s[:len(prefix)] != prefix {
		return nil, errInvalidKey(s, nil)
	}
	raw, err := base58.Decode(s[len(prefix):])
	if err != nil {
		return nil, errInvalidKey(s, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errInvalidKey(s, nil)
	}
	return ed25519.PublicKey(raw), nil
}
