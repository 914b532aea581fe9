// Package source loads Terraform configuration files into memory and
// discovers them on disk.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-zglob"

	"github.com/tomoya-namekawa/tf-style-check/pkg/types"
)

// Load reads one file into a SourceFile. Content is treated as UTF-8.
func Load(path string) (*types.SourceFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is validated before use
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	text := string(data)
	endsWithNewline := strings.HasSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	if endsWithNewline {
		lines = lines[:len(lines)-1]
	}

	return &types.SourceFile{
		Path:            path,
		Dir:             filepath.Dir(path),
		Lines:           lines,
		EndsWithNewline: endsWithNewline,
	}, nil
}

// LoadAll loads every path, aggregating read failures so one unreadable
// file does not hide the others.
func LoadAll(paths []string) ([]*types.SourceFile, error) {
	var files []*types.SourceFile
	var errs *multierror.Error
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		files = append(files, f)
	}
	return files, errs.ErrorOrNil()
}

// Discover lists the .tf and .tfvars files under root in a deterministic
// order. With recursive set it descends into subdirectories, skipping
// .terraform caches.
func Discover(root string, recursive bool) ([]string, error) {
	stat, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access input path: %w", err)
	}
	if !stat.IsDir() {
		if relevant(root) {
			return []string{root}, nil
		}
		return nil, fmt.Errorf("not a Terraform file: %s", root)
	}

	var paths []string
	if recursive {
		for _, pattern := range []string{"**/*.tf", "**/*.tfvars"} {
			matches, err := zglob.Glob(filepath.Join(root, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
			}
			paths = append(paths, matches...)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", root, err)
		}
		for _, e := range entries {
			if !e.IsDir() && relevant(e.Name()) {
				paths = append(paths, filepath.Join(root, e.Name()))
			}
		}
	}

	var out []string
	for _, p := range paths {
		if strings.Contains(p, string(filepath.Separator)+".terraform"+string(filepath.Separator)) {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func relevant(name string) bool {
	return strings.HasSuffix(name, ".tf") || strings.HasSuffix(name, ".tfvars")
}
