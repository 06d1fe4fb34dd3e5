package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

// KeyMode selects how the private channel sources its symmetric key. The mode
// is process-wide configuration, not a per-message choice.
type KeyMode string

const (
	// KeyModeEphemeral uses one random 256-bit key per process, created lazily
	// and held only in memory. Messages become unrecoverable after the process
	// exits; that limitation is accepted.
	KeyModeEphemeral KeyMode = "ephemeral"
	// KeyModePassphrase derives the key from a user-supplied passphrase on
	// every operation. Nothing is cached, so the passphrase must accompany
	// each encrypt/decrypt call, but messages survive restarts and devices.
	KeyModePassphrase KeyMode = "passphrase"
)

const (
	keySize  = 32
	ivSize   = 12
	saltSize = 16
	// DefaultKDFIterations matches the PBKDF2 cost the channel has always used;
	// changing it breaks decryption of existing messages.
	DefaultKDFIterations = 100000
)

// Envelope is the transmittable form of an encrypted payload. All fields are
// standard base64. Salt is set only in passphrase mode.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Salt       string `json:"salt,omitempty"`
}

// Seal encrypts plaintext under key with AES-256-GCM and a fresh 12-byte IV.
// The IV travels with the ciphertext and must never repeat under one key.
func Seal(key, plaintext []byte) (*Envelope, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, iv, plaintext, nil)
	return &Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
		IV:         base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Open decrypts an envelope. Any corruption of the key, IV, or ciphertext
// yields ErrDecryptFailed; GCM authentication makes a silently wrong plaintext
// impossible.
func Open(key []byte, env *Envelope) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	ct, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(iv) != ivSize {
		return nil, ErrDecryptFailed
	}
	pt, err := aead.Open(nil, iv, ct, nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return pt, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// DeriveKey runs PBKDF2-SHA256 over the passphrase with the user's id as salt.
// Deterministic, so any device holding the passphrase recreates the same key.
func DeriveKey(passphrase, userID string, iterations int) []byte {
	if iterations <= 0 {
		iterations = DefaultKDFIterations
	}
	return pbkdf2.Key([]byte(passphrase), []byte(userID), iterations, keySize, sha256.New)
}

// Keyring owns the channel's key material for the life of the process. It is
// an explicit dependency of the channel service rather than package state, so
// tests can run each mode in isolation.
type Keyring struct {
	mode       KeyMode
	iterations int

	mu        sync.Mutex
	ephemeral []byte
}

func NewKeyring(mode KeyMode, iterations int) *Keyring {
	if mode == "" {
		mode = KeyModeEphemeral
	}
	if iterations <= 0 {
		iterations = DefaultKDFIterations
	}
	return &Keyring{mode: mode, iterations: iterations}
}

func (k *Keyring) Mode() KeyMode { return k.mode }

// MessageKey returns the key for one encrypt/decrypt operation. In ephemeral
// mode the process key is created on first use and then reused for the whole
// process lifetime; regenerating it would orphan every prior ciphertext. In
// passphrase mode the key is derived fresh each call and never retained.
func (k *Keyring) MessageKey(userID, passphrase string) ([]byte, error) {
	switch k.mode {
	case KeyModePassphrase:
		if passphrase == "" {
			return nil, ErrPassphraseRequired
		}
		return DeriveKey(passphrase, userID, k.iterations), nil
	default:
		k.mu.Lock()
		defer k.mu.Unlock()
		if k.ephemeral == nil {
			key := make([]byte, keySize)
			if _, err := rand.Read(key); err != nil {
				return nil, err
			}
			k.ephemeral = key
		}
		return k.ephemeral, nil
	}
}

// newSalt records a random salt beside passphrase-mode envelopes. Derivation
// currently salts with the user id; the stored salt reserves room for a KDF
// migration without a schema change.
func newSalt() string {
	buf := make([]byte, saltSize)
	_, _ = rand.Read(buf)
	return base64.StdEncoding.EncodeToString(buf)
}
