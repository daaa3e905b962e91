package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DNF drives Fedora/RHEL hosts through dnf.
type DNF struct {
	runner Runner
}

// NewDNF creates a new DNF backend.
func NewDNF(runner Runner) *DNF {
	return &DNF{runner: runner}
}

// Name returns the backend name.
func (m *DNF) Name() string {
	return "dnf"
}

// Refresh rebuilds the DNF metadata cache.
func (m *DNF) Refresh(ctx context.Context) (*CmdResult, error) {
	return m.runner.Run(ctx, "dnf", "makecache")
}

// Install installs all packages in one dnf invocation.
func (m *DNF) Install(ctx context.Context, packages []string) (*CmdResult, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("no packages specified for installation")
	}

	args := append([]string{"install", "-y"}, packages...)
	return m.runner.Run(ctx, "dnf", args...)
}

// AddRepository writes a .repo definition. DNF imports the gpgkey URL itself
// on first install, so no key download happens here.
func (m *DNF) AddRepository(ctx context.Context, repo Repository) error {
	definition := fmt.Sprintf("[%s]\nname=%s\nbaseurl=%s\nenabled=1\ngpgcheck=1\ngpgkey=%s\n",
		repo.Name, repo.Name, repo.Entry, repo.KeyURL)

	if err := os.MkdirAll(filepath.Dir(repo.SourcesPath), 0755); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}
	if err := os.WriteFile(repo.SourcesPath, []byte(definition), 0644); err != nil {
		return fmt.Errorf("failed to write repo definition: %w", err)
	}

	return nil
}
