// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package presets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sample = `{
	// comments and trailing commas are fine
	"presets": {
		"lunch": ["Tacos", "Ramen", "Salad bar",],
		"movies": ["Alien", "Heat"],
	},
}`

func TestParse(t *testing.T) {
	set, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := Set{
		"lunch":  {"Tacos", "Ramen", "Salad bar"},
		"movies": {"Alien", "Heat"},
	}
	if diff := cmp.Diff(want, set); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"lunch", "movies"}, set.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{presets: nope`},
		{"empty list", `{"presets": {"x": []}}`},
		{"empty label", `{"presets": {"x": ["a", " "]}}`},
		{"duplicate label", `{"presets": {"x": ["a", "a"]}}`},
		{"empty name", `{"presets": {"": ["a"]}}`},
		{"wrong shape", `{"presets": ["a"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, ErrInvalidPresets) {
				t.Errorf("Parse() error = %v, want ErrInvalidPresets", err)
			}
		})
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	set := Set{"lunch": {"Tacos", "Ramen"}}

	labels, ok := set.Lookup("lunch")
	if !ok {
		t.Fatal("Lookup(lunch) not found")
	}
	labels[0] = "changed"

	if set["lunch"][0] != "Tacos" {
		t.Error("Lookup must not expose the stored slice")
	}

	if _, ok := set.Lookup("dinner"); ok {
		t.Error("Lookup(dinner) should not be found")
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		set, err := Load("")
		if err != nil {
			t.Fatalf("Load(\"\") error = %v", err)
		}
		if len(set) != 0 {
			t.Errorf("expected no presets, got %v", set)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "presets.jsonc")
		if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
			t.Fatal(err)
		}

		set, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if _, ok := set.Lookup("movies"); !ok {
			t.Error("expected movies preset")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.jsonc"))
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Load() error = %v, want not-exist", err)
		}
	})
}
