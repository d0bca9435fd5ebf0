package catalog

import (
	"path/filepath"
	"testing"
)

func TestFileURIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "with space", "app.jar")

	uri, err := FileURI(path)
	if err != nil {
		t.Fatalf("FileURI failed: %v", err)
	}
	if uri[:len(FileScheme)] != FileScheme {
		t.Errorf("expected file scheme, got %s", uri)
	}

	back, err := PathFromURI(uri)
	if err != nil {
		t.Fatalf("PathFromURI failed: %v", err)
	}
	if back != path {
		t.Errorf("expected %s, got %s", path, back)
	}
}

func TestPathFromURIRejectsNonLocal(t *testing.T) {
	tests := []struct {
		name     string
		location string
	}{
		{"http scheme", "http://repo.example.com/lib.jar"},
		{"remote host", "file://build-server/opt/lib.jar"},
		{"no scheme", "/opt/lib.jar"},
		{"empty path", "file://"},
		{"opaque relative path", "file:lib/x.jar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PathFromURI(tt.location); err == nil {
				t.Errorf("expected error for %q", tt.location)
			}
		})
	}
}

func TestPathFromURIAcceptsLocalhost(t *testing.T) {
	path, err := PathFromURI("file://localhost/opt/app/app.jar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.FromSlash("/opt/app/app.jar") {
		t.Errorf("unexpected path %s", path)
	}
}

func TestIsArchivePath(t *testing.T) {
	tests := map[string]bool{
		"app.jar":         true,
		"APP.JAR":         true,
		"bundle.zip":      true,
		"classes":         false,
		"lib.so":          false,
		"archive.jar.bak": false,
	}
	for path, want := range tests {
		if got := IsArchivePath(path); got != want {
			t.Errorf("IsArchivePath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestEntryKeyIgnoresOrigin(t *testing.T) {
	a := ArtifactEntry{LoaderIdentity: "app", Location: "file:///opt/a.jar"}
	b := a
	b.Origin = "file:///opt/b.jar"

	if a.Key() != b.Key() {
		t.Error("entries differing only in origin should share a key")
	}
	if a.Derived() || !b.Derived() {
		t.Error("only entries with an origin are derived")
	}

	c := a
	c.LoaderIdentity = "other"
	if a.Key() == c.Key() {
		t.Error("entries of different loaders must not share a key")
	}
}
