// Package pkgmgr wraps the host OS package manager behind a small
// capability interface so the bootstrap sequencer never shells out directly.
package pkgmgr

import (
	"context"
	"fmt"
	"os/exec"
)

// Repository describes an additional package source to register before a
// fallback install. Entry is backend-specific: the full "deb ..." line for
// apt, the baseurl for dnf. KeyURL points at the vendor's ASCII-armored
// signing key.
type Repository struct {
	Name        string `json:"name"`
	Entry       string `json:"entry"`
	KeyURL      string `json:"key_url"`
	SourcesPath string `json:"sources_path"`
	KeyringPath string `json:"keyring_path"`
}

// Manager is the package-manager capability consumed by the sequencer.
type Manager interface {
	// Refresh updates the package index. Callers treat a failure here as
	// a warning; package managers routinely exit non-zero on partial
	// mirror errors while still refreshing the lists that matter.
	Refresh(ctx context.Context) (*CmdResult, error)

	// Install installs all named packages in a single batch operation.
	Install(ctx context.Context, packages []string) (*CmdResult, error)

	// AddRepository fetches and trusts the repository signing key, then
	// writes the repository definition so the next Refresh picks it up.
	AddRepository(ctx context.Context, repo Repository) error

	// Name identifies the backend ("apt", "dnf").
	Name() string
}

// New creates the backend for the given name.
func New(backend string, runner Runner) (Manager, error) {
	switch backend {
	case "apt":
		return NewAPT(runner), nil
	case "dnf":
		return NewDNF(runner), nil
	default:
		return nil, fmt.Errorf("unsupported package manager backend: %s", backend)
	}
}

// Detect picks the first backend whose tool is present on the search path.
func Detect(runner Runner) (Manager, error) {
	if _, err := exec.LookPath("apt-get"); err == nil {
		return NewAPT(runner), nil
	}
	if _, err := exec.LookPath("dnf"); err == nil {
		return NewDNF(runner), nil
	}
	return nil, fmt.Errorf("no supported package manager found (tried apt-get, dnf)")
}
