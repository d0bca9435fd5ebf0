package jobdesc

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"
)

func TestBuildAppendsContinuationLast(t *testing.T) {
	assembled := []string{"/opt/app/app.jar", "/opt/drivers/driver.jar"}
	job, err := Build("entry", assembled, "/tmp/cont-1.bin")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if job.EntryPoint != "entry" {
		t.Errorf("expected entry point 'entry', got %q", job.EntryPoint)
	}
	want := []string{"/opt/app/app.jar", "/opt/drivers/driver.jar", "/tmp/cont-1.bin"}
	if fmt.Sprint(job.ArtifactPaths) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, job.ArtifactPaths)
	}
	if job.ContinuationPath() != "/tmp/cont-1.bin" {
		t.Errorf("unexpected continuation path %q", job.ContinuationPath())
	}
}

func TestBuildDoesNotRetainInputs(t *testing.T) {
	assembled := []string{"/a.jar", "/b.jar"}
	job, err := Build("entry", assembled, "/c.bin")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	assembled[0] = "/changed.jar"
	if job.ArtifactPaths[0] != "/a.jar" {
		t.Error("description changed with its input slice")
	}
}

func TestBuildEmptyClasspath(t *testing.T) {
	job, err := Build("entry", nil, "/tmp/cont.bin")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(job.ArtifactPaths) != 1 {
		t.Errorf("expected only the continuation, got %v", job.ArtifactPaths)
	}
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		entryPoint string
		assembled  []string
		cont       string
		wantErr    error
	}{
		{"empty entry point", "", nil, "/c.bin", nil},
		{"empty continuation", "entry", nil, "", nil},
		{"relative continuation", "entry", nil, "c.bin", nil},
		{"collision", "entry", []string{"/a.jar", "/c.bin"}, "/c.bin", ErrPathCollision},
		{"duplicate", "entry", []string{"/a.jar", "/a.jar"}, "/c.bin", ErrDuplicatePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.entryPoint, tt.assembled, tt.cont)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuildProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}\.jar`), 0, 12, rapid.ID[string]).Draw(rt, "names")
		assembled := make([]string, len(names))
		for i, n := range names {
			assembled[i] = filepath.Join("/opt/lib", n)
		}
		cont := filepath.Join("/tmp", rapid.StringMatching(`cont-[0-9a-f]{8}\.bin`).Draw(rt, "cont"))

		job, err := Build("entry", assembled, cont)
		if err != nil {
			rt.Fatalf("Build failed: %v", err)
		}
		if len(job.ArtifactPaths) != len(assembled)+1 {
			rt.Fatalf("expected %d paths, got %d", len(assembled)+1, len(job.ArtifactPaths))
		}
		for i, p := range assembled {
			if job.ArtifactPaths[i] != p {
				rt.Fatalf("path %d reordered: %q != %q", i, job.ArtifactPaths[i], p)
			}
		}
		if job.ContinuationPath() != cont {
			rt.Fatalf("continuation not last")
		}
	})
}
