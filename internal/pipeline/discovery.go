package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// DefaultTensorPatterns match raw tensor dumps when a directory is given.
var DefaultTensorPatterns = []string{"*.bin", "*.raw", "*.f32"}

// DiscoverOptions controls how directory arguments are expanded.
type DiscoverOptions struct {
	Recursive bool
	Include   []string // base-name globs; empty means DefaultTensorPatterns
	Exclude   []string
}

// DiscoverTensorFiles expands args into tensor file paths. Files named
// explicitly are always kept; directories contribute files matching the
// include patterns in lexical order.
func DiscoverTensorFiles(args []string, opts DiscoverOptions) ([]string, error) {
	include := opts.Include
	if len(include) == 0 {
		include = DefaultTensorPatterns
	}
	for _, p := range append(slices.Clone(include), opts.Exclude...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			// Missing files are reported per file by ProcessFiles.
			files = append(files, arg)
			continue
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := discoverInDirectory(arg, opts.Recursive, include, opts.Exclude)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func discoverInDirectory(dir string, recursive bool, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesAnyPattern(path, exclude) && matchesAnyPattern(path, include) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return files, nil
}

func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
