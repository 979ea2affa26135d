// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
)

func isBase62(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune(base62Chars, c) {
			return false
		}
	}
	return true
}

func TestNewID(t *testing.T) {
	for _, byteLen := range []int{8, 12, 16} {
		id, err := NewID(byteLen)
		if err != nil {
			t.Fatalf("NewID(%d) error = %v", byteLen, err)
		}
		if len(id) != byteLen*2 {
			t.Errorf("NewID(%d) length = %d, want %d", byteLen, len(id), byteLen*2)
		}
		if strings.Trim(id, "0123456789abcdef") != "" {
			t.Errorf("NewID(%d) = %q is not lowercase hex", byteLen, id)
		}
	}

	id1, _ := NewID(16)
	id2, _ := NewID(16)
	if id1 == id2 {
		t.Error("NewID() produced duplicate IDs")
	}
}

func TestAdminKey(t *testing.T) {
	keys := NewKeyring("admin-salt", "slug-salt")

	key := keys.AdminKey("poll123")
	if key == "" {
		t.Fatal("AdminKey() returned empty string")
	}
	if key != keys.AdminKey("poll123") {
		t.Error("AdminKey() is not deterministic")
	}
	if key == keys.AdminKey("poll124") {
		t.Error("AdminKey() produced same key for different polls")
	}
	if strings.ContainsAny(key, "=+/") {
		t.Errorf("AdminKey() = %q is not URL-safe", key)
	}

	other := NewKeyring("other-salt", "slug-salt")
	if key == other.AdminKey("poll123") {
		t.Error("AdminKey() ignores the salt")
	}
}

func TestCheckAdminKey(t *testing.T) {
	keys := NewKeyring("test-salt", "slug")
	valid := keys.AdminKey("test-poll-123")

	tests := []struct {
		name     string
		keys     Keyring
		pollID   string
		adminKey string
		wantErr  bool
	}{
		{"valid key", keys, "test-poll-123", valid, false},
		{"wrong key", keys, "test-poll-123", "wrong-key", true},
		{"wrong poll id", keys, "different-poll", valid, true},
		{"wrong salt", NewKeyring("different-salt", "slug"), "test-poll-123", valid, true},
		{"empty key", keys, "test-poll-123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.keys.CheckAdminKey(tt.pollID, tt.adminKey)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckAdminKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidAdminKey) {
				t.Errorf("CheckAdminKey() error = %v, want %v", err, ErrInvalidAdminKey)
			}
		})
	}
}

func TestNewVoterToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := NewVoterToken()
		if err != nil {
			t.Fatalf("NewVoterToken() error on iteration %d: %v", i, err)
		}
		if len(token) != 32 {
			t.Errorf("NewVoterToken() length = %d, want 32", len(token))
		}
		if strings.Contains(token, "=") {
			t.Error("NewVoterToken() contains padding")
		}
		if seen[token] {
			t.Errorf("NewVoterToken() produced duplicate token: %s", token)
		}
		seen[token] = true
	}
}

func TestShareSlug(t *testing.T) {
	keys := NewKeyring("admin", "slug-salt")

	for _, pollID := range []string{"poll-abc-123", "poll-xyz-456", ""} {
		slug := keys.ShareSlug(pollID)
		if slug == "" {
			t.Errorf("ShareSlug(%q) returned empty string", pollID)
		}
		if slug != keys.ShareSlug(pollID) {
			t.Errorf("ShareSlug(%q) is not deterministic", pollID)
		}
		if len(slug) > 11 {
			t.Errorf("ShareSlug(%q) too long: %d chars", pollID, len(slug))
		}
		if !isBase62(slug) {
			t.Errorf("ShareSlug(%q) = %q is not alphanumeric", pollID, slug)
		}
	}

	if keys.ShareSlug("poll1") == keys.ShareSlug("poll2") {
		t.Error("ShareSlug() produced same slug for different polls")
	}
	if keys.ShareSlug("poll1") == NewKeyring("admin", "other").ShareSlug("poll1") {
		t.Error("ShareSlug() ignores the slug salt")
	}
}

func TestHashIP(t *testing.T) {
	keys := NewKeyring("salt", "slug")

	h := keys.HashIP("192.168.1.1")
	if len(h) != 16 {
		t.Errorf("HashIP() length = %d, want 16", len(h))
	}
	if h != keys.HashIP("192.168.1.1") {
		t.Error("HashIP() is not deterministic")
	}
	if h == keys.HashIP("192.168.1.2") {
		t.Error("HashIP() collided for different addresses")
	}
}
