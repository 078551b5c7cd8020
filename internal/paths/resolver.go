// Package paths resolves the file paths written in configuration.
// Paths may start with ~ or with a named prefix such as "data:" that
// stands for a configured directory.
package paths

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Resolver maps named prefixes to directories. It is nil-safe: a nil
// *Resolver only expands ~.
type Resolver struct {
	prefixes map[string]string // "data:" -> "/var/lib/inbox"
	sorted   []string          // longest first
}

// New creates a Resolver from a prefix-to-directory map. Keys are
// prefix names without the trailing colon. Directories have ~
// expanded. Returns nil for an empty map.
func New(prefixes map[string]string) *Resolver {
	if len(prefixes) == 0 {
		return nil
	}
	r := &Resolver{prefixes: make(map[string]string, len(prefixes))}
	for name, dir := range prefixes {
		key := strings.TrimSuffix(name, ":") + ":"
		r.prefixes[key] = ExpandHome(dir)
		r.sorted = append(r.sorted, key)
	}
	sort.Slice(r.sorted, func(i, j int) bool {
		return len(r.sorted[i]) > len(r.sorted[j])
	})
	return r
}

// Resolve expands a leading ~ or registered prefix. Other paths,
// including the empty string, are returned unchanged.
func (r *Resolver) Resolve(path string) string {
	if r != nil {
		for _, prefix := range r.sorted {
			if rel, ok := strings.CutPrefix(path, prefix); ok {
				if rel == "" {
					return r.prefixes[prefix]
				}
				return filepath.Join(r.prefixes[prefix], rel)
			}
		}
	}
	return ExpandHome(path)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(home, path[2:])
	}
	return path
}
