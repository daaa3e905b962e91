package bootstrap

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/browserboot/browserboot/internal/pkgmgr"
	"github.com/browserboot/browserboot/internal/system"
)

// Outcome is the terminal state of a bootstrap run.
type Outcome string

const (
	// PrimarySucceeded means the distribution's own packages produced a
	// working browser.
	PrimarySucceeded Outcome = "primary_succeeded"
	// FallbackSucceeded means the vendor repository had to be registered
	// and its browser resolved instead.
	FallbackSucceeded Outcome = "fallback_succeeded"
	// Failed means neither install produced a resolvable binary.
	Failed Outcome = "failed"
)

// Role distinguishes the target that decides the run outcome from the
// targets that only produce warnings when missing.
type Role string

const (
	RolePrimary   Role = "primary"
	RoleSecondary Role = "secondary"
)

// InstallPlan is the ordered list of packages handed to the package manager
// in one batch. Order does not affect correctness but keeps logs reproducible.
type InstallPlan []string

// Validate rejects an empty plan.
func (p InstallPlan) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("install plan is empty")
	}
	return nil
}

// VerificationTarget is an executable whose presence on the host is the
// ground-truth signal that an install worked.
type VerificationTarget struct {
	Name             string   `json:"name"`
	Candidates       []string `json:"candidates"`
	Locations        []string `json:"locations,omitempty"`
	Role             Role     `json:"role"`
	EnsureExecutable bool     `json:"ensure_executable,omitempty"`
}

// FallbackPlan is the alternate package source tried when the primary
// target never resolves. It runs at most once per bootstrap.
type FallbackPlan struct {
	Repo   pkgmgr.Repository  `json:"repo"`
	Plan   InstallPlan        `json:"plan"`
	Target VerificationTarget `json:"target"`
}

// StepStatus classifies a recorded sequencer step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepWarning StepStatus = "warning"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult is one entry in the run's diagnostic trail.
type StepResult struct {
	Name            string     `json:"name"`
	Status          StepStatus `json:"status"`
	DurationSeconds int        `json:"duration_seconds"`
	Message         string     `json:"message,omitempty"`
}

// Report is the structured result of a bootstrap run.
type Report struct {
	RunID          uuid.UUID         `json:"run_id"`
	Backend        string            `json:"backend"`
	DryRun         bool              `json:"dry_run,omitempty"`
	Outcome        Outcome           `json:"outcome"`
	StartedAt      time.Time         `json:"started_at"`
	EndedAt        time.Time         `json:"ended_at"`
	Host           *system.Snapshot  `json:"host,omitempty"`
	Steps          []StepResult      `json:"steps"`
	ResolvedPaths  map[string]string `json:"resolved_paths"`
	Warnings       []string          `json:"warnings,omitempty"`
	BrowserVersion string            `json:"browser_version,omitempty"`
	DriverVersion  string            `json:"driver_version,omitempty"`
}

// NewReport seeds a report for a fresh run.
func NewReport(backend string, dryRun bool) *Report {
	return &Report{
		RunID:         uuid.New(),
		Backend:       backend,
		DryRun:        dryRun,
		Outcome:       Failed,
		StartedAt:     time.Now().UTC(),
		ResolvedPaths: make(map[string]string),
	}
}

// Succeeded reports whether either install path produced a browser.
func (r *Report) Succeeded() bool {
	return r.Outcome == PrimarySucceeded || r.Outcome == FallbackSucceeded
}

// addStep appends a step to the diagnostic trail.
func (r *Report) addStep(name string, status StepStatus, started time.Time, format string, v ...interface{}) {
	r.Steps = append(r.Steps, StepResult{
		Name:            name,
		Status:          status,
		DurationSeconds: int(time.Since(started).Seconds()),
		Message:         fmt.Sprintf(format, v...),
	})
}

// warnf records a non-fatal condition. Warnings never change the outcome.
func (r *Report) warnf(format string, v ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, v...))
}
