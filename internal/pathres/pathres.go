// Package pathres resolves executables for install verification. The
// sequencer asks an injected Resolver instead of reading the ambient search
// path so tests can substitute a fake host.
package pathres

import (
	"fmt"
	"os"
	"os/exec"
)

// Resolver answers whether executables exist on the host.
type Resolver interface {
	// LookPath resolves a bare name against the search path.
	LookPath(name string) (string, error)

	// IsFile reports whether path exists as a regular file. Execute bits
	// are deliberately not required here: distro driver packages have
	// shipped the binary without them, and EnsureExecutable repairs the
	// mode after resolution.
	IsFile(path string) bool
}

// System resolves against the real host.
type System struct{}

// LookPath resolves a name on the process search path.
func (System) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// IsFile reports whether path is a regular file.
func (System) IsFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Locate tries each candidate name on the search path, then each fixed
// filesystem location, returning the first hit. Chromium installs scatter
// the browser and driver across distro- and snap-specific paths, so bare
// PATH lookup alone misses working installs.
func Locate(r Resolver, candidates []string, locations []string) (string, bool) {
	for _, name := range candidates {
		if path, err := r.LookPath(name); err == nil {
			return path, true
		}
	}
	for _, path := range locations {
		if r.IsFile(path) {
			return path, true
		}
	}
	return "", false
}

// EnsureExecutable sets the execute bits on path if any are missing. Calling
// it on an already-executable file changes nothing.
func EnsureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	perm := info.Mode().Perm()
	if perm&0111 == 0111 {
		return nil
	}

	if err := os.Chmod(path, perm|0111); err != nil {
		return fmt.Errorf("failed to set execute bit on %s: %w", path, err)
	}
	return nil
}
