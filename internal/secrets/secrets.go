// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory holding one file per
// secret. The filename is the key and the trimmed contents are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BackendAPIKey is the file holding the bearer token for the backend.
const BackendAPIKey = "backend-api-key"

// Set is the result of Load.
type Set struct {
	values map[string]string

	// Unreadable lists files that exist but could not be read.
	Unreadable []string
}

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty Set. Empty files are ignored.
func Load(dir string) (Set, error) {
	set := Set{values: map[string]string{}}
	if dir == "" {
		return set, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return Set{}, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			set.Unreadable = append(set.Unreadable, name)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			set.values[name] = v
		}
	}
	return set, nil
}

// Get returns the value stored under name.
func (s Set) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Keys returns the loaded key names in sorted order. Values are never
// exposed through Keys so it is safe to log.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
