package catalog

import (
	"os"
	"path/filepath"
	"runtime/debug"
)

// BootstrapLoader is the identity of artifacts loaded by the process itself:
// the executable and the shared objects mapped into it.
const BootstrapLoader = "bootstrap"

// ExecutionContext describes the caller's own code-loading context. Only
// artifacts whose loader identity equals LoaderIdentity are shipped.
type ExecutionContext struct {
	LoaderIdentity string
	SearchPath     []string
}

// CurrentContext derives the application loader identity from the running
// binary and attaches the given search path.
func CurrentContext(searchPath []string) ExecutionContext {
	return ExecutionContext{
		LoaderIdentity: applicationIdentity(),
		SearchPath:     searchPath,
	}
}

func applicationIdentity() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Path != "" {
			return info.Main.Path
		}
		if info.Path != "" {
			return info.Path
		}
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Base(exe)
	}
	return "application"
}
