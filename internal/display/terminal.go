// Package display renders bootstrap reports for humans and for machines.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"

	"github.com/browserboot/browserboot/internal/bootstrap"
	"github.com/browserboot/browserboot/internal/config"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

const rule = "=================================================================="

// PrintReport writes the human-readable result banner and summary.
func PrintReport(w io.Writer, rep *bootstrap.Report) {
	fmt.Fprintln(w, rule)
	switch rep.Outcome {
	case bootstrap.PrimarySucceeded:
		fmt.Fprintln(w, successStyle.Render("BOOTSTRAP SUCCEEDED (distribution packages)"))
	case bootstrap.FallbackSucceeded:
		fmt.Fprintln(w, successStyle.Render("BOOTSTRAP SUCCEEDED (vendor fallback repository)"))
	default:
		fmt.Fprintln(w, failureStyle.Render("BOOTSTRAP FAILED"))
	}
	fmt.Fprintln(w, rule)

	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Run:"), rep.RunID)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Backend:"), rep.Backend)
	if rep.DryRun {
		fmt.Fprintln(w, warningStyle.Render("Dry run: no packages were installed"))
	}
	if rep.Host != nil {
		host := rep.Host.Hostname
		if rep.Host.OSRelease != "" {
			host += " (" + rep.Host.OSRelease + ")"
		}
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Host:"), host)
	}

	if len(rep.ResolvedPaths) > 0 {
		fmt.Fprintf(w, "\n%s\n", headerStyle.Render("Resolved binaries:"))
		names := make([]string, 0, len(rep.ResolvedPaths))
		for name := range rep.ResolvedPaths {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-18s %s\n", name, rep.ResolvedPaths[name])
		}
	}
	if rep.BrowserVersion != "" {
		fmt.Fprintf(w, "\n%s browser %s, driver %s\n",
			headerStyle.Render("Versions:"), rep.BrowserVersion, rep.DriverVersion)
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", warningStyle.Render(fmt.Sprintf("Warnings (%d):", len(rep.Warnings))))
		for _, warning := range rep.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", dimStyle.Render(fmt.Sprintf("%d steps, %s",
		len(rep.Steps), rep.EndedAt.Sub(rep.StartedAt).Round(time.Second))))

	if rep.Outcome == bootstrap.Failed && !rep.DryRun {
		fmt.Fprintln(w)
		fmt.Fprintln(w, failureStyle.Render("No browser could be installed automatically."))
		fmt.Fprintln(w, "Install one manually, for example:")
		fmt.Fprintln(w, "  apt-get update && apt-get install -y chromium-browser chromium-chromedriver")
		fmt.Fprintln(w, "then re-run \"browserboot verify\".")
	}
}

// PrintPlan writes the resolved configuration without touching the host.
func PrintPlan(w io.Writer, cfg *config.Config) {
	backend := cfg.Backend
	if backend == "" {
		backend = "auto-detect"
	}
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Backend:"), backend)

	fmt.Fprintf(w, "\n%s\n", headerStyle.Render("Install plan:"))
	for _, pkg := range cfg.Packages {
		fmt.Fprintf(w, "  %s\n", pkg)
	}

	fmt.Fprintf(w, "\n%s\n", headerStyle.Render("Verification targets:"))
	for i, target := range cfg.Targets {
		role := "secondary"
		if i == 0 {
			role = "primary"
		}
		fmt.Fprintf(w, "  %-18s %s (%s)\n", target.Name, strings.Join(target.Candidates, ", "), role)
	}

	fmt.Fprintf(w, "\n%s\n", headerStyle.Render("Fallback:"))
	fmt.Fprintf(w, "  repo:     %s\n", cfg.Fallback.Entry)
	fmt.Fprintf(w, "  key:      %s\n", cfg.Fallback.KeyURL)
	fmt.Fprintf(w, "  packages: %s\n", strings.Join(cfg.Fallback.Packages, ", "))
	fmt.Fprintf(w, "  target:   %s\n", cfg.Fallback.Target.Name)
}

// Export writes the report in a machine format, "json" or "yaml".
func Export(w io.Writer, rep *bootstrap.Report, format string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	switch format {
	case "json":
	case "yaml":
		if data, err = yaml.JSONToYAML(data); err != nil {
			return fmt.Errorf("failed to convert report to yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	if format == "json" {
		_, err = io.WriteString(w, "\n")
	}
	return err
}
