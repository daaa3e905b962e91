// Package report persists the last bootstrap report so "browserboot status"
// works without re-running the sequence.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/browserboot/browserboot/internal/bootstrap"
)

// FileName is the report file inside the state directory.
const FileName = "last_run.json"

// Path returns the report location under stateDir.
func Path(stateDir string) string {
	return filepath.Join(stateDir, FileName)
}

// Load reads the last persisted report. A missing file returns (nil, nil).
func Load(stateDir string) (*bootstrap.Report, error) {
	data, err := os.ReadFile(Path(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var rep bootstrap.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &rep, nil
}

// Save writes the report, creating the state directory if needed. Saving is
// best-effort for callers: a read-only state dir should not fail a bootstrap
// that otherwise succeeded, so callers log the error instead of returning it.
func Save(stateDir string, rep *bootstrap.Report) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(Path(stateDir), data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
