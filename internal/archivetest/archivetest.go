// Package archivetest builds code archives for tests.
package archivetest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteJar creates an archive at path whose manifest declares the given
// Class-Path references. With no references the manifest has no Class-Path.
func WriteJar(t testing.TB, path string, classPath ...string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\r\n")
	if len(classPath) > 0 {
		b.WriteString(wrap("Class-Path: " + strings.Join(classPath, " ")))
	}
	b.WriteString("\r\n")

	return WriteArchive(t, path, map[string]string{
		"META-INF/MANIFEST.MF": b.String(),
		"app/Main.class":       "\xca\xfe\xba\xbe",
	})
}

// WriteArchive creates a zip archive at path holding the given files
func WriteArchive(t testing.TB, path string, files map[string]string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to add %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish archive: %v", err)
	}
	return path
}

// wrap splits a header line at 72 bytes with single-space continuations
func wrap(line string) string {
	const width = 72
	var b strings.Builder
	for len(line) > width {
		b.WriteString(line[:width])
		b.WriteString("\r\n ")
		line = line[width:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
	return b.String()
}
