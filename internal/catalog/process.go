package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessSource reports what the operating system loaded for the running
// process: its executable and every file-backed memory mapping.
type ProcessSource struct {
	pid int32
}

// NewProcessSource creates a source for the current process
func NewProcessSource() *ProcessSource {
	return &ProcessSource{pid: int32(os.Getpid())}
}

func (s *ProcessSource) Name() string {
	return fmt.Sprintf("process:%d", s.pid)
}

func (s *ProcessSource) Entries() ([]ArtifactEntry, error) {
	proc, err := process.NewProcess(s.pid)
	if err != nil {
		return nil, fmt.Errorf("failed to open process %d: %w", s.pid, err)
	}

	var entries []ArtifactEntry
	seen := make(map[string]bool)
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		entry, err := NewEntry(BootstrapLoader, path)
		if err == nil {
			entries = append(entries, entry)
		}
	}

	exe, err := proc.Exe()
	if err != nil {
		return nil, fmt.Errorf("failed to read executable of %d: %w", s.pid, err)
	}
	add(exe)

	maps, err := proc.MemoryMaps(false)
	if err != nil {
		// Executable alone is still a usable result
		return entries, fmt.Errorf("failed to read memory maps of %d: %w", s.pid, err)
	}
	if maps == nil {
		return entries, nil
	}

	for _, m := range *maps {
		path := strings.TrimSpace(m.Path)
		// Skip anonymous and pseudo mappings such as [heap] or [vdso]
		if path == "" || !filepath.IsAbs(path) || strings.HasSuffix(path, "(deleted)") {
			continue
		}
		add(path)
	}

	return entries, nil
}
