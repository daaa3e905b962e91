package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/browserboot/browserboot/internal/bootstrap"
	"github.com/browserboot/browserboot/internal/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, err := execute(t, "plan")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, want := range []string{"chromium-browser", "libnss3", "google-chrome-stable"} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}
}

func TestPlanCommandWithPackagesFlag(t *testing.T) {
	out, err := execute(t, "plan", "--packages", "chromium,chromium-driver")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.Contains(out, "chromium-driver") {
		t.Errorf("package override not applied:\n%s", out)
	}
	if strings.Contains(out, "libnss3") {
		t.Errorf("default plan leaked through the override:\n%s", out)
	}
}

func TestStatusCommandBeforeAnyRun(t *testing.T) {
	out, err := execute(t, "status", "--state-dir", t.TempDir())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "No bootstrap has run") {
		t.Errorf("unexpected status output:\n%s", out)
	}
}

func TestStatusCommandShowsSavedReport(t *testing.T) {
	dir := t.TempDir()
	saved := &bootstrap.Report{
		RunID:     uuid.New(),
		Backend:   "apt",
		Outcome:   bootstrap.FallbackSucceeded,
		StartedAt: time.Now().UTC(),
		EndedAt:   time.Now().UTC(),
		ResolvedPaths: map[string]string{
			"google-chrome": "/usr/bin/google-chrome-stable",
		},
	}
	if err := report.Save(dir, saved); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "status", "--state-dir", dir, "--export", "json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	var rep bootstrap.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("status output is not json: %v\n%s", err, out)
	}
	if rep.RunID != saved.RunID {
		t.Errorf("run id = %s, want %s", rep.RunID, saved.RunID)
	}
	if rep.Outcome != bootstrap.FallbackSucceeded {
		t.Errorf("outcome = %s", rep.Outcome)
	}
}

func TestRootRejectsUnknownBackend(t *testing.T) {
	if _, err := execute(t, "plan", "--backend", "pacman"); err == nil {
		t.Fatal("unknown backend accepted")
	}
}
