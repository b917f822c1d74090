package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrNoInputs is returned when patterns match no decodable files.
var ErrNoInputs = errors.New("no input files")

// ResolveInputs expands file paths, directories and glob patterns to the
// absolute paths of input files. Directories are searched recursively for
// files the registry can decode; glob matches are filtered the same way.
// Files named explicitly are kept even without a decoder so decoding fails
// loudly for them.
//
// Examples:
//   - "reqs/engine.txt" → ["/abs/reqs/engine.txt"]
//   - "reqs" → every decodable file below reqs
//   - "reqs/**/*.md" → every markdown file below reqs
func ResolveInputs(patterns []string, registry *Registry) ([]string, error) {
	if registry == nil {
		registry = DefaultRegistry
	}

	var resolved []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		paths, err := resolveInput(pattern, registry)
		if err != nil {
			return nil, fmt.Errorf("resolve input %q: %w", pattern, err)
		}
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				resolved = append(resolved, p)
			}
		}
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputs, strings.Join(patterns, ", "))
	}
	return resolved, nil
}

func resolveInput(pattern string, registry *Registry) ([]string, error) {
	if !containsGlob(pattern) {
		absPath, err := filepath.Abs(pattern)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return []string{absPath}, nil
		}
		pattern = filepath.Join(absPath, "**", "*")
	} else if !filepath.IsAbs(pattern) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		pattern = filepath.Join(cwd, pattern)
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	var files []string
	for _, match := range matches {
		rel, err := filepath.Rel(filepath.FromSlash(base), match)
		if err != nil || hiddenPath(rel) {
			continue
		}
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		if registry.Supports(match) {
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files, nil
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// hiddenPath reports whether any element of a relative path starts with a dot.
func hiddenPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
