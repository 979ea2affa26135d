// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
)

const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Keyring derives admin keys, share slugs and IP hashes from the server salts.
// Derived values are deterministic, so none of them are stored.
type Keyring struct {
	adminSalt []byte
	slugSalt  []byte
}

func NewKeyring(adminSalt, slugSalt string) Keyring {
	return Keyring{adminSalt: []byte(adminSalt), slugSalt: []byte(slugSalt)}
}

// AdminKey returns the admin key for a poll (URL-safe base64, unpadded)
func (k Keyring) AdminKey(pollID string) string {
	return base64.RawURLEncoding.EncodeToString(sign(k.adminSalt, pollID))
}

// CheckAdminKey compares in constant time
func (k Keyring) CheckAdminKey(pollID, adminKey string) error {
	if !hmac.Equal([]byte(adminKey), []byte(k.AdminKey(pollID))) {
		return ErrInvalidAdminKey
	}
	return nil
}

// ShareSlug returns a short alphanumeric slug for a published poll.
// Only the first 8 bytes of the MAC are used.
func (k Keyring) ShareSlug(pollID string) string {
	sum := sign(k.slugSalt, pollID)
	n := new(big.Int).SetBytes(sum[:8])
	if n.Sign() == 0 {
		return "0"
	}

	base := big.NewInt(62)
	mod := new(big.Int)
	out := make([]byte, 0, 11)
	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		out = append(out, base62Chars[mod.Int64()])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// HashIP returns 16 hex chars, enough to spot repeat submitters without
// keeping the address.
func (k Keyring) HashIP(ip string) string {
	return hex.EncodeToString(sign(k.adminSalt, ip)[:8])
}

func sign(key []byte, msg string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return h.Sum(nil)
}

// NewID returns byteLen random bytes as hex
func NewID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewVoterToken returns a 192-bit random token, URL-safe base64 without padding
func NewVoterToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate voter token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
