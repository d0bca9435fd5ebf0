package continuation

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Magic opens every continuation artifact
var Magic = []byte("CLAMBDA\x01")

// ErrNotArtifact is returned when a file does not start with Magic
var ErrNotArtifact = errors.New("not a continuation artifact")

// Header describes an artifact without decoding the continuation itself,
// so it can be read by binaries that do not know the variant.
type Header struct {
	Kind      string
	CreatedAt time.Time
	GoVersion string
}

// payload wraps the continuation so gob records its concrete variant
type payload struct {
	Fn Fn
}

// Artifact is a decoded continuation artifact
type Artifact struct {
	Header
	Fn Fn
}

func encodeArtifact(w io.Writer, h Header, fn Fn) error {
	if _, err := w.Write(Magic); err != nil {
		return err
	}
	enc := gob.NewEncoder(w)
	if err := enc.Encode(h); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if err := enc.Encode(payload{Fn: fn}); err != nil {
		return fmt.Errorf("failed to encode continuation: %w", err)
	}
	return nil
}

func openDecoder(r io.Reader) (*gob.Decoder, Header, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, Header{}, ErrNotArtifact
		}
		return nil, Header{}, err
	}
	if !bytes.Equal(magic, Magic) {
		return nil, Header{}, ErrNotArtifact
	}

	dec := gob.NewDecoder(r)
	var h Header
	if err := dec.Decode(&h); err != nil {
		return nil, Header{}, fmt.Errorf("failed to decode header: %w", err)
	}
	return dec, h, nil
}

// Decode reads an artifact and reconstructs its continuation. The variant
// must be registered in this process.
func Decode(r io.Reader) (*Artifact, error) {
	dec, h, err := openDecoder(r)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode continuation %s: %w", h.Kind, err)
	}
	if p.Fn == nil {
		return nil, fmt.Errorf("artifact for %s holds no continuation", h.Kind)
	}
	return &Artifact{Header: h, Fn: p.Fn}, nil
}

// Load reads the artifact at path
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	a, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// ReadHeader reads only the header of the artifact at path
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	_, h, err := openDecoder(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &h, nil
}
