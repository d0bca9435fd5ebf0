package manifest

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psantana5/clusterlambda/internal/archivetest"
)

func TestParseMainSection(t *testing.T) {
	input := "Manifest-Version: 1.0\n" +
		"Created-By: test\n" +
		"class-path: a.jar b.jar\n" +
		"\n" +
		"Name: app/Main.class\n" +
		"Class-Path: ignored.jar\n"

	m, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	refs := m.References()
	if len(refs) != 2 || refs[0] != "a.jar" || refs[1] != "b.jar" {
		t.Errorf("unexpected references %v", refs)
	}
	if v, ok := m.Get("CREATED-BY"); !ok || v != "test" {
		t.Errorf("expected case-insensitive lookup, got %q %v", v, ok)
	}
	if names := m.Names(); len(names) != 3 {
		t.Errorf("expected 3 main attributes, got %v", names)
	}
}

func TestParseContinuationLines(t *testing.T) {
	input := "Manifest-Version: 1.0\r\n" +
		"Class-Path: libs/first.jar libs/sec\r\n" +
		" ond.jar\r\n" +
		"  libs/third.jar\r\n"

	m, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []string{"libs/first.jar", "libs/second.jar", "libs/third.jar"}
	got := m.References()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseLoneCarriageReturns(t *testing.T) {
	m, err := Parse(strings.NewReader("Manifest-Version: 1.0\rClass-Path: x.jar\r"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if refs := m.References(); len(refs) != 1 || refs[0] != "x.jar" {
		t.Errorf("unexpected references %v", refs)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"leading continuation": " orphan\n",
		"missing separator":    "Manifest-Version 1.0\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadArchive(t *testing.T) {
	dir := t.TempDir()
	long := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		long = append(long, "libs/dependency-with-a-long-name-"+string(rune('a'+i))+".jar")
	}
	path := archivetest.WriteJar(t, filepath.Join(dir, "app.jar"), long...)

	m, err := ReadArchive(path)
	if err != nil {
		t.Fatalf("ReadArchive failed: %v", err)
	}
	if got := m.References(); strings.Join(got, " ") != strings.Join(long, " ") {
		t.Errorf("wrapped Class-Path not reassembled: %v", got)
	}
}

func TestReadArchiveWithoutManifest(t *testing.T) {
	path := archivetest.WriteArchive(t, filepath.Join(t.TempDir(), "plain.zip"), map[string]string{
		"data.txt": "hello",
	})

	if _, err := ReadArchive(path); !errors.Is(err, ErrNoManifest) {
		t.Errorf("expected ErrNoManifest, got %v", err)
	}
}
