package pkgmgr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// APT drives Debian/Ubuntu hosts through apt-get.
type APT struct {
	runner Runner
	http   *http.Client
}

// NewAPT creates a new APT backend.
func NewAPT(runner Runner) *APT {
	return &APT{
		runner: runner,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the backend name.
func (m *APT) Name() string {
	return "apt"
}

// Refresh updates the APT package index.
func (m *APT) Refresh(ctx context.Context) (*CmdResult, error) {
	return m.runner.Run(ctx, "apt-get", "update")
}

// Install installs all packages in one apt-get invocation.
func (m *APT) Install(ctx context.Context, packages []string) (*CmdResult, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("no packages specified for installation")
	}

	args := append([]string{"install", "-y"}, packages...)
	return m.runner.Run(ctx, "apt-get", args...)
}

// AddRepository trusts the vendor signing key and writes the sources entry.
// The key lands in trusted.gpg.d as an ASCII-armored file, which apt accepts
// without a gpg dearmor step.
func (m *APT) AddRepository(ctx context.Context, repo Repository) error {
	key, err := m.fetchKey(ctx, repo.KeyURL)
	if err != nil {
		return fmt.Errorf("failed to fetch signing key for %s: %w", repo.Name, err)
	}

	if err := os.MkdirAll(filepath.Dir(repo.KeyringPath), 0755); err != nil {
		return fmt.Errorf("failed to create keyring directory: %w", err)
	}
	if err := os.WriteFile(repo.KeyringPath, key, 0644); err != nil {
		return fmt.Errorf("failed to write signing key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(repo.SourcesPath), 0755); err != nil {
		return fmt.Errorf("failed to create sources directory: %w", err)
	}
	if err := os.WriteFile(repo.SourcesPath, []byte(repo.Entry+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write sources entry: %w", err)
	}

	return nil
}

// fetchKey downloads the ASCII-armored signing key.
func (m *APT) fetchKey(ctx context.Context, keyURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, keyURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key download failed: %s", resp.Status)
	}

	key, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("key download returned an empty body")
	}

	return key, nil
}
