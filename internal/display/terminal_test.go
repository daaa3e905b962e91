package display

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/browserboot/browserboot/internal/bootstrap"
	"github.com/browserboot/browserboot/internal/config"
)

func sampleReport(outcome bootstrap.Outcome) *bootstrap.Report {
	return &bootstrap.Report{
		RunID:     uuid.New(),
		Backend:   "apt",
		Outcome:   outcome,
		StartedAt: time.Now().UTC().Add(-30 * time.Second),
		EndedAt:   time.Now().UTC(),
		ResolvedPaths: map[string]string{
			"chromium-browser": "/usr/bin/chromium-browser",
			"chromedriver":     "/usr/bin/chromedriver",
		},
		Warnings: []string{"index refresh failed (exit 100): mirror unreachable"},
	}
}

func TestPrintReportSuccessBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, sampleReport(bootstrap.PrimarySucceeded))

	out := buf.String()
	if !strings.Contains(out, "BOOTSTRAP SUCCEEDED") {
		t.Errorf("missing success banner:\n%s", out)
	}
	if !strings.Contains(out, "/usr/bin/chromium-browser") {
		t.Errorf("missing resolved path:\n%s", out)
	}
	if !strings.Contains(out, "mirror unreachable") {
		t.Errorf("missing warning:\n%s", out)
	}
}

func TestPrintReportFailureGuidance(t *testing.T) {
	rep := sampleReport(bootstrap.Failed)
	rep.ResolvedPaths = map[string]string{}

	var buf bytes.Buffer
	PrintReport(&buf, rep)

	out := buf.String()
	if !strings.Contains(out, "BOOTSTRAP FAILED") {
		t.Errorf("missing failure banner:\n%s", out)
	}
	if !strings.Contains(out, "Install one manually") {
		t.Errorf("missing manual-install guidance:\n%s", out)
	}
}

func TestExportJSONRoundTrips(t *testing.T) {
	rep := sampleReport(bootstrap.FallbackSucceeded)

	var buf bytes.Buffer
	if err := Export(&buf, rep, "json"); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var decoded bootstrap.Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal exported report: %v", err)
	}
	if decoded.Outcome != bootstrap.FallbackSucceeded {
		t.Errorf("outcome = %s", decoded.Outcome)
	}
	if decoded.ResolvedPaths["chromedriver"] != "/usr/bin/chromedriver" {
		t.Errorf("resolved paths = %v", decoded.ResolvedPaths)
	}
}

func TestExportYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleReport(bootstrap.PrimarySucceeded), "yaml"); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "outcome: primary_succeeded") {
		t.Errorf("yaml export missing outcome:\n%s", out)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, sampleReport(bootstrap.PrimarySucceeded), "xml"); err == nil {
		t.Fatal("xml export accepted")
	}
}

func TestPrintPlan(t *testing.T) {
	var buf bytes.Buffer
	PrintPlan(&buf, config.Default(""))

	out := buf.String()
	for _, want := range []string{
		"chromium-browser",
		"libnss3",
		"dl.google.com/linux/chrome/deb",
		"google-chrome-stable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plan output missing %q:\n%s", want, out)
		}
	}
}
