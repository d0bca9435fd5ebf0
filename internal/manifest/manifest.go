package manifest

import (
	"archive/zip"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Path is where archives keep their manifest
const Path = "META-INF/MANIFEST.MF"

// ClassPathAttribute lists the sibling archives an archive depends on
const ClassPathAttribute = "Class-Path"

// ErrNoManifest is returned when an archive carries no manifest
var ErrNoManifest = errors.New("archive has no manifest")

// Manifest holds the main section attributes of an archive manifest.
// Attribute names are matched case-insensitively.
type Manifest struct {
	attrs map[string]string
	order []string
}

// Get returns an attribute value
func (m *Manifest) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.attrs[strings.ToLower(name)]
	return v, ok
}

// Names returns attribute names in file order
func (m *Manifest) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// References returns the Class-Path entries in declaration order
func (m *Manifest) References() []string {
	v, ok := m.Get(ClassPathAttribute)
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// Parse reads the main section of a manifest. Lines longer than the format's
// wrap width continue on the next line with a single leading space.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{attrs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	scanner.Split(scanLines)

	var name string
	var value strings.Builder
	flush := func() {
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if _, exists := m.attrs[key]; !exists {
			m.order = append(m.order, name)
		}
		m.attrs[key] = value.String()
		name = ""
		value.Reset()
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			// End of the main section
			break
		}
		if strings.HasPrefix(line, " ") {
			if name == "" {
				return nil, fmt.Errorf("manifest line %d: continuation without attribute", lineNo)
			}
			value.WriteString(line[1:])
			continue
		}

		flush()
		idx := strings.Index(line, ":")
		if idx <= 0 {
			return nil, fmt.Errorf("manifest line %d: missing attribute separator", lineNo)
		}
		name = line[:idx]
		value.WriteString(strings.TrimPrefix(line[idx+1:], " "))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	flush()

	return m, nil
}

// ReadArchive opens a zip archive and parses its manifest
func ReadArchive(path string) (*Manifest, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !strings.EqualFold(f.Name, Path) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open manifest in %s: %w", path, err)
		}
		defer rc.Close()
		return Parse(rc)
	}
	return nil, ErrNoManifest
}

// scanLines splits on CRLF, LF or a lone CR
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// Need one more byte to tell CR from CRLF
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
