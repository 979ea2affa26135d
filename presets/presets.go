// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/tailscale/hujson"
)

var (
	ErrInvalidPresets = errors.New("invalid presets file")
)

// Set maps preset names to option labels
type Set map[string][]string

type file struct {
	Presets map[string][]string `json:"presets"`
}

// Load reads and validates a presets file. An empty path is not an error.
func Load(path string) (Set, error) {
	if path == "" {
		return Set{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes JSONC preset data
func Parse(data []byte) (Set, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPresets, err)
	}

	var f file
	if err := json.Unmarshal(standardized, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPresets, err)
	}

	set := make(Set, len(f.Presets))
	for name, labels := range f.Presets {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: empty preset name", ErrInvalidPresets)
		}
		if len(labels) == 0 {
			return nil, fmt.Errorf("%w: preset %q has no options", ErrInvalidPresets, name)
		}

		seen := make(map[string]bool, len(labels))
		for _, label := range labels {
			if strings.TrimSpace(label) == "" {
				return nil, fmt.Errorf("%w: preset %q has an empty label", ErrInvalidPresets, name)
			}
			if seen[label] {
				return nil, fmt.Errorf("%w: preset %q repeats %q", ErrInvalidPresets, name, label)
			}
			seen[label] = true
		}
		set[name] = labels
	}

	return set, nil
}

// Lookup returns a copy of the labels for name
func (s Set) Lookup(name string) ([]string, bool) {
	labels, ok := s[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(labels), true
}

// Names returns the preset names in sorted order
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
