package catalog

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// FileScheme is the URI scheme of locally addressable artifacts
const FileScheme = "file:"

// ArtifactEntry identifies one runtime artifact as seen by a loader.
// Two entries are the same artifact when Key() matches.
type ArtifactEntry struct {
	LoaderIdentity string
	Location       string
	IsArchive      bool

	// Origin is the location of the archive whose manifest named this entry.
	// Empty for entries reported directly by a scan.
	Origin string
}

// EntryKey is the identity of an ArtifactEntry
type EntryKey struct {
	LoaderIdentity string
	Location       string
}

// Key returns the (loader, location) identity of the entry
func (e ArtifactEntry) Key() EntryKey {
	return EntryKey{LoaderIdentity: e.LoaderIdentity, Location: e.Location}
}

// IsLocal reports whether the location uses the file scheme
func (e ArtifactEntry) IsLocal() bool {
	return strings.HasPrefix(e.Location, FileScheme)
}

// Derived reports whether the entry came from a manifest reference
func (e ArtifactEntry) Derived() bool {
	return e.Origin != ""
}

// LocalPath projects the entry's location to an absolute filesystem path
func (e ArtifactEntry) LocalPath() (string, error) {
	return PathFromURI(e.Location)
}

func (e ArtifactEntry) String() string {
	if e.Origin != "" {
		return fmt.Sprintf("%s [%s] (via %s)", e.Location, e.LoaderIdentity, e.Origin)
	}
	return fmt.Sprintf("%s [%s]", e.Location, e.LoaderIdentity)
}

// NewEntry creates an entry for a local filesystem path
func NewEntry(loader, path string) (ArtifactEntry, error) {
	location, err := FileURI(path)
	if err != nil {
		return ArtifactEntry{}, err
	}
	return ArtifactEntry{
		LoaderIdentity: loader,
		Location:       location,
		IsArchive:      IsArchivePath(path),
	}, nil
}

// IsArchivePath reports whether a path names a code archive
func IsArchivePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".zip":
		return true
	}
	return false
}

// FileURI converts a filesystem path to an absolute file: URI
func FileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to make %q absolute: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// PathFromURI converts a file: URI back to an absolute filesystem path
func PathFromURI(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", location, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("location %q is not a local file", location)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("location %q names remote host %q", location, u.Host)
	}
	if u.Opaque != "" {
		return "", fmt.Errorf("location %q is relative", location)
	}
	if u.Path == "" {
		return "", fmt.Errorf("location %q has no path", location)
	}
	path := filepath.FromSlash(u.Path)
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("location %q is relative", location)
	}
	return filepath.Clean(path), nil
}
