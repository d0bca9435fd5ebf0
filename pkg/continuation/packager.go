package continuation

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Packager writes continuation artifacts into a directory
type Packager struct {
	dir string
	now func() time.Time
}

// NewPackager creates a packager writing to dir, or to the system temp
// directory when dir is empty
func NewPackager(dir string) *Packager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Packager{dir: dir, now: time.Now}
}

// Dir returns the directory artifacts are written to
func (p *Packager) Dir() string {
	return p.dir
}

// ArtifactName returns the final file name used for an artifact id
func ArtifactName(id string) string {
	return "cont-" + id + ".bin"
}

// Package validates and serializes fn and returns the absolute path of the
// finished artifact. The artifact is written under a hidden temporary name
// and renamed only once complete; on any error nothing remains at a final
// name.
func (p *Packager) Package(fn Fn) (string, error) {
	if fn == nil {
		return "", &SerializationError{Op: "validate", Kind: "<nil>", Message: "continuation is nil"}
	}

	rt := reflect.TypeOf(fn)
	kind, exact := registeredExactly(rt)
	if kind == "" {
		return "", &SerializationError{Op: "validate", Kind: rt.String(), Message: "continuation type is not registered"}
	}
	if !exact {
		return "", &SerializationError{Op: "validate", Kind: kind, Message: fmt.Sprintf("registered in a different form than %s", rt)}
	}

	if err := validate(fn); err != nil {
		se := &SerializationError{Op: "validate", Kind: kind, Message: "captured state is not serializable", Err: err}
		var fe *fieldError
		if errors.As(err, &fe) {
			se.Field = fe.path
			se.Message = fe.message
			se.Err = nil
		}
		return "", se
	}

	// Encode fully in memory so encoder failures never touch the disk
	var buf bytes.Buffer
	header := Header{Kind: kind, CreatedAt: p.now().UTC(), GoVersion: runtime.Version()}
	if err := encodeArtifact(&buf, header, fn); err != nil {
		return "", &SerializationError{Op: "encode", Kind: kind, Message: "encoding failed", Err: err}
	}

	path, err := p.write(buf.Bytes())
	if err != nil {
		return "", &SerializationError{Op: "write", Kind: kind, Message: "failed to write artifact", Err: err}
	}
	return path, nil
}

func (p *Packager) write(data []byte) (string, error) {
	dir, err := filepath.Abs(p.dir)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".cont-*.partial")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	final := filepath.Join(dir, ArtifactName(uuid.New().String()))
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return final, nil
}
