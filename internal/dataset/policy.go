package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourcePolicy restricts the sources a server reads on behalf of callers.
// The zero value rejects everything.
type SourcePolicy struct {
	// Root is the directory local sources must resolve into; empty disables
	// local sources
	Root string

	// AllowURLs accepts http(s) sources
	AllowURLs bool
}

// Resolve returns the path or URL to load for source. Relative paths are
// taken from Root. Paths leaving Root, directly or through a symlink, are
// rejected with ErrSourceNotAllowed.
func (p SourcePolicy) Resolve(source string) (string, error) {
	if IsURL(source) {
		if !p.AllowURLs {
			return "", fmt.Errorf("%w: remote sources are disabled", ErrSourceNotAllowed)
		}
		return source, nil
	}
	if p.Root == "" {
		return "", fmt.Errorf("%w: local sources are disabled", ErrSourceNotAllowed)
	}

	root, err := filepath.Abs(p.Root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve dataset root: %w", err)
	}

	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)
	if !within(root, path) {
		return "", fmt.Errorf("%w: %s is outside the dataset root", ErrSourceNotAllowed, source)
	}

	// a missing file is left for the loader to report
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		realRoot, err := filepath.EvalSymlinks(root)
		if err != nil {
			realRoot = root
		}
		if !within(realRoot, resolved) {
			return "", fmt.Errorf("%w: %s is outside the dataset root", ErrSourceNotAllowed, source)
		}
	}
	return path, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
