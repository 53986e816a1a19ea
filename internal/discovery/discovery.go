// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/invowk/modcat/pkg/modmeta"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// defaultIgnores are never searched for module directories.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/vendor/**",
}

// ErrInvalidPattern is returned for an ignore pattern doublestar cannot parse.
var ErrInvalidPattern = errors.New("invalid glob pattern")

type (
	// Candidate is a directory that describes a module.
	Candidate struct {
		// Dir is the module directory.
		Dir string
		// File is the metadata file that describes the module.
		File string
		// Format is the format of File.
		Format modmeta.Format
	}

	// Diagnostic is a non-fatal finding about a directory.
	Diagnostic struct {
		Dir     string
		Message string
	}

	// Result is the outcome of one discovery run, sorted by directory.
	Result struct {
		Root        string
		Candidates  []Candidate
		Diagnostics []Diagnostic
	}

	// Option configures Discover.
	Option func(*settings)

	settings struct {
		recursive bool
		ignores   []string
	}
)

// WithRecursive searches every depth below the root instead of its direct
// children only.
func WithRecursive(recursive bool) Option {
	return func(s *settings) { s.recursive = recursive }
}

// WithIgnore adds doublestar patterns, relative to the root, whose matches
// are skipped.
func WithIgnore(patterns ...string) Option {
	return func(s *settings) { s.ignores = append(s.ignores, patterns...) }
}

// MetadataPattern returns the glob that matches metadata files below a root.
func MetadataPattern(recursive bool) string {
	formats := []string{string(modmeta.FormatJSON), string(modmeta.FormatCUE), string(modmeta.FormatTOML)}
	file := modmeta.BaseName + ".{" + strings.Join(formats, ",") + "}"
	if recursive {
		return "**/" + file
	}
	return "*/" + file
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// Discover finds module directories below root on fsys. A missing root yields
// an empty result with a diagnostic.
func Discover(fsys afero.Fs, root string, opts ...Option) (*Result, error) {
	s := settings{ignores: DefaultIgnores()}
	for _, opt := range opts {
		opt(&s)
	}
	for _, pat := range s.ignores {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pat)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve modules directory %s: %w", root, err)
	}

	result := &Result{Root: absRoot}
	info, err := fsys.Stat(absRoot)
	switch {
	case os.IsNotExist(err):
		result.Diagnostics = append(result.Diagnostics, Diagnostic{Dir: absRoot, Message: "modules directory does not exist"})
		return result, nil
	case err != nil:
		return nil, fmt.Errorf("stat modules directory %s: %w", absRoot, err)
	case !info.IsDir():
		return nil, fmt.Errorf("modules path %s is not a directory", absRoot)
	}

	matches, err := doublestar.Glob(
		afero.NewIOFS(afero.NewBasePathFs(fsys, absRoot)),
		MetadataPattern(s.recursive),
		doublestar.WithFilesOnly(),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s for modules: %w", absRoot, err)
	}

	files := make(map[string][]string)
	for _, match := range matches {
		if isIgnored(s.ignores, match) {
			continue
		}
		rel := path.Dir(match)
		files[rel] = append(files[rel], path.Base(match))
	}

	for _, rel := range slices.Sorted(maps.Keys(files)) {
		dir := filepath.Join(absRoot, filepath.FromSlash(rel))
		file, format, err := modmeta.Locate(fsys, dir)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{Dir: dir, Message: err.Error()})
			continue
		}
		if names := files[rel]; len(names) > 1 {
			slices.Sort(names)
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Dir:     dir,
				Message: fmt.Sprintf("found %s; using %s", strings.Join(names, ", "), filepath.Base(file)),
			})
		}
		result.Candidates = append(result.Candidates, Candidate{Dir: dir, File: file, Format: format})
	}

	slices.SortFunc(result.Candidates, func(a, b Candidate) int { return cmp.Compare(a.Dir, b.Dir) })
	return result, nil
}

// Dirs returns the candidate directories.
func (r *Result) Dirs() []string {
	dirs := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		dirs[i] = c.Dir
	}
	return dirs
}

// isIgnored reports whether the slash-separated rel matches any pattern.
func isIgnored(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}
