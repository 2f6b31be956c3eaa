// Package qr renders encrypted check-in payloads as QR images.
package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// Generator encrypts check-in payloads before encoding them, so a scanned
// code is opaque without the gate scanner's key.
type Generator struct {
	gcm cipher.AEAD
}

func NewGenerator(secret string) (*Generator, error) {
	block, err := aes.NewCipher([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("qr cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("qr cipher: %w", err)
	}
	return &Generator{gcm: gcm}, nil
}

// Encrypt seals the payload and returns it base64-encoded, nonce first.
func (g *Generator) Encrypt(payload string) (string, error) {
	nonce := make([]byte, g.gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("qr nonce: %w", err)
	}
	sealed := g.gcm.Seal(nonce, nonce, []byte(payload), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. The gate scanner uses it to recover the
// check-in payload.
func (g *Generator) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("qr decode: %w", err)
	}
	ns := g.gcm.NonceSize()
	if len(sealed) < ns {
		return "", fmt.Errorf("qr decode: payload too short")
	}
	plain, err := g.gcm.Open(nil, sealed[:ns], sealed[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("qr decrypt: %w", err)
	}
	return string(plain), nil
}

// Generate returns a PNG QR image of the encrypted payload.
func (g *Generator) Generate(payload string) ([]byte, error) {
	encrypted, err := g.Encrypt(payload)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(encrypted, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return png, nil
}
