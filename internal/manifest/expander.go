package manifest

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/psantana5/clusterlambda/internal/catalog"
	"github.com/psantana5/clusterlambda/internal/logging"
)

// ArchiveReader loads the manifest of the archive at a local path
type ArchiveReader func(path string) (*Manifest, error)

// Expander turns one catalog entry into the entry plus the siblings its
// manifest declares. Only one level is expanded: references found inside
// the siblings' own manifests are not followed.
type Expander struct {
	read   ArchiveReader
	logger *logging.Logger
}

// NewExpander creates an expander reading manifests from zip archives
func NewExpander(logger *logging.Logger) *Expander {
	return NewExpanderWithReader(ReadArchive, logger)
}

// NewExpanderWithReader creates an expander with a custom manifest reader
func NewExpanderWithReader(read ArchiveReader, logger *logging.Logger) *Expander {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Expander{read: read, logger: logger}
}

// Expand returns nothing for directories and non-local entries, the entry
// alone when its manifest declares no references, and otherwise the entry
// followed by one derived entry per reference in declaration order.
func (x *Expander) Expand(entry catalog.ArtifactEntry) ([]catalog.ArtifactEntry, error) {
	if !entry.IsArchive || !entry.IsLocal() {
		return nil, nil
	}

	archivePath, err := entry.LocalPath()
	if err != nil {
		return nil, &ResolutionError{Archive: entry.Location, Message: "archive location is not a local path", Err: err}
	}

	refs := x.references(archivePath)
	if len(refs) == 0 {
		return []catalog.ArtifactEntry{entry}, nil
	}

	base := filepath.Dir(archivePath)
	out := make([]catalog.ArtifactEntry, 0, len(refs)+1)
	out = append(out, entry)
	for _, ref := range refs {
		location, err := resolve(base, ref)
		if err != nil {
			return nil, &ResolutionError{Archive: entry.Location, Reference: ref, Message: "malformed reference", Err: err}
		}
		out = append(out, catalog.ArtifactEntry{
			LoaderIdentity: entry.LoaderIdentity,
			Location:       location,
			IsArchive:      catalog.IsArchivePath(location),
			Origin:         entry.Location,
		})
	}
	return out, nil
}

func (x *Expander) references(archivePath string) []string {
	m, err := x.read(archivePath)
	if err != nil {
		if !errors.Is(err, ErrNoManifest) {
			x.logger.Warn("Could not read archive manifest", logging.Fields{"archive": archivePath, "error": err.Error()})
		}
		return nil
	}
	return m.References()
}

// resolve interprets a reference relative to the archive's directory.
// References with an explicit scheme are kept verbatim, except relative
// file: references, which are still relative to the archive.
func resolve(base, ref string) (string, error) {
	if strings.ContainsRune(ref, 0) {
		return "", errors.New("reference contains NUL byte")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.Scheme == "file" && u.Opaque != "" {
		ref = u.Opaque
	} else if len(u.Scheme) > 1 {
		// A one-letter scheme is a drive letter, not a URL
		return ref, nil
	}

	path, err := url.PathUnescape(ref)
	if err != nil {
		return "", err
	}
	path = filepath.FromSlash(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return catalog.FileURI(path)
}
