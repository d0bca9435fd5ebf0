package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source reports the artifacts visible to one loader
type Source interface {
	Name() string
	Entries() ([]ArtifactEntry, error)
}

// Scanner walks every configured loader source. Scanning only reads the
// environment; a source that fails contributes what it found and is recorded
// in a ScanIncompleteError.
type Scanner struct {
	sources []Source
}

// NewScanner creates a scanner over the given sources, scanned in order
func NewScanner(sources ...Source) *Scanner {
	return &Scanner{sources: sources}
}

// ForContext creates the scanner for a process: the bootstrap loader first,
// then the application loader described by ctx.
func ForContext(ctx ExecutionContext) *Scanner {
	return NewScanner(
		NewProcessSource(),
		NewPathSource(ctx.LoaderIdentity, ctx.SearchPath),
	)
}

// Scan returns all entries in discovery order without duplicates. The error,
// when non-nil, is a *ScanIncompleteError and the entries are still usable.
func (s *Scanner) Scan() ([]ArtifactEntry, error) {
	seen := make(map[EntryKey]bool)
	var entries []ArtifactEntry
	incomplete := &ScanIncompleteError{}

	for _, src := range s.sources {
		found, err := src.Entries()
		if err != nil {
			incomplete.add(src.Name(), err)
		}
		for _, entry := range found {
			if seen[entry.Key()] {
				continue
			}
			seen[entry.Key()] = true
			entries = append(entries, entry)
		}
	}

	if len(incomplete.Failures) > 0 {
		return entries, incomplete
	}
	return entries, nil
}

// PathSource reports the elements of a search path for one loader.
// An element ending in "/*" stands for every archive directly inside the
// directory.
type PathSource struct {
	identity string
	paths    []string
}

// NewPathSource creates a source for the given loader identity and search path
func NewPathSource(identity string, paths []string) *PathSource {
	return &PathSource{identity: identity, paths: paths}
}

// SplitSearchPath splits a list-separator delimited search path
func SplitSearchPath(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range filepath.SplitList(s) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (p *PathSource) Name() string {
	return "path:" + p.identity
}

func (p *PathSource) Entries() ([]ArtifactEntry, error) {
	var entries []ArtifactEntry
	var errs []error

	for _, element := range p.paths {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}

		if element == "*" || strings.HasSuffix(element, string(filepath.Separator)+"*") || strings.HasSuffix(element, "/*") {
			found, err := p.expandWildcard(strings.TrimSuffix(element, "*"))
			if err != nil {
				errs = append(errs, err)
			}
			entries = append(entries, found...)
			continue
		}

		if _, err := os.Stat(element); err != nil {
			errs = append(errs, fmt.Errorf("failed to stat %s: %w", element, err))
			continue
		}

		entry, err := NewEntry(p.identity, element)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, errors.Join(errs...)
}

func (p *PathSource) expandWildcard(dir string) ([]ArtifactEntry, error) {
	if dir == "" {
		dir = "."
	}
	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var entries []ArtifactEntry
	for _, item := range listing {
		if item.IsDir() || !IsArchivePath(item.Name()) {
			continue
		}
		entry, err := NewEntry(p.identity, filepath.Join(dir, item.Name()))
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// StaticSource reports a fixed set of entries. Useful for embedding callers
// that already know their artifacts.
type StaticSource struct {
	name    string
	entries []ArtifactEntry
}

// NewStaticSource creates a source over fixed entries
func NewStaticSource(name string, entries ...ArtifactEntry) *StaticSource {
	return &StaticSource{name: name, entries: entries}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) Entries() ([]ArtifactEntry, error) {
	out := make([]ArtifactEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}
