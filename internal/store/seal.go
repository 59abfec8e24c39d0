package store

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const masterKeyLen = 32

// recordInfo labels the HKDF derivation so the record key cannot collide
// with any other key derived from the same master file.
var recordInfo = []byte("ident-cli/credential-record/v1")

// loadOrCreateMasterKey reads the sealing key file, generating it on first
// use. The key never leaves the local machine.
func loadOrCreateMasterKey(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		if len(b) != masterKeyLen {
			return nil, fmt.Errorf("key file %s: bad length %d", path, len(b))
		}
		return b, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	b = make([]byte, masterKeyLen)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return nil, err
	}
	return b, nil
}

// recordKey derives the AEAD key for the credential record via HKDF-SHA256.
func recordKey(master []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, master, nil, recordInfo)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := r.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// sealRecord encrypts the plaintext record as nonce||ciphertext with
// XChaCha20-Poly1305 and a random nonce.
func sealRecord(master, plaintext []byte) ([]byte, error) {
	key, err := recordKey(master)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, nil)...)
	return out, nil
}

// openRecord decrypts a sealed record. Tampered or truncated input fails.
func openRecord(master, blob []byte) ([]byte, error) {
	if len(blob) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("record too short")
	}
	key, err := recordKey(master)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, nil)
}
