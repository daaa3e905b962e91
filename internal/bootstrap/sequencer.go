// Package bootstrap installs a browser and driver on a fresh Linux host and
// verifies the result. The sequence is an explicit state machine over three
// terminal outcomes with a warning side-channel: index refresh and install
// exit codes are recorded but never decide success, because resolving the
// target binary on the search path is the only authoritative signal.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/browserboot/browserboot/internal/logging"
	"github.com/browserboot/browserboot/internal/pathres"
	"github.com/browserboot/browserboot/internal/pkgmgr"
	"github.com/browserboot/browserboot/internal/system"
)

// ErrBootstrapFailed is the only fatal bootstrap error: neither the primary
// nor the fallback install produced a resolvable browser binary.
var ErrBootstrapFailed = errors.New("no usable browser after primary and fallback installs")

// Prober inspects resolved binaries after a successful verification. It is
// optional; a nil Prober skips the version check.
type Prober interface {
	Versions(ctx context.Context, browserPath, driverPath string) (browser, driver string, majorMismatch bool, err error)
}

// Sequencer runs the bootstrap sequence against injected capabilities.
type Sequencer struct {
	Manager  pkgmgr.Manager
	Resolver pathres.Resolver
	Prober   Prober
	Host     func() *system.Snapshot
	DryRun   bool
}

// Run executes the sequence. The returned report is always populated, even
// on failure; the error is non-nil only for the Failed outcome. Re-running
// on an already-provisioned host is a no-op that returns PrimarySucceeded.
// ctx bounds the whole sequence; expiry aborts with a timeout diagnostic and
// the only recovery is to re-run from the start.
func (s *Sequencer) Run(ctx context.Context, plan InstallPlan, targets []VerificationTarget, fallback FallbackPlan) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	primary, secondaries, err := splitTargets(targets)
	if err != nil {
		return nil, err
	}

	rep := NewReport(s.Manager.Name(), s.DryRun)
	defer func() { rep.EndedAt = time.Now().UTC() }()
	if s.Host != nil {
		rep.Host = s.Host()
	}

	// The source behavior deliberately ignores refresh and install exit
	// codes: package managers exit non-zero on partial mirror failures
	// that still leave the wanted packages installable.
	s.refresh(ctx, rep, "refresh-index")
	if err := s.aborted(ctx, rep); err != nil {
		return rep, err
	}

	s.install(ctx, rep, "install-primary", plan)
	if err := s.aborted(ctx, rep); err != nil {
		return rep, err
	}

	var fatal error
	start := time.Now()
	if path, ok := pathres.Locate(s.Resolver, primary.Candidates, primary.Locations); ok {
		rep.Outcome = PrimarySucceeded
		rep.ResolvedPaths[primary.Name] = path
		rep.addStep("verify-primary", StepOK, start, "%s resolved at %s", primary.Name, path)
		logging.Infof("%s resolved at %s", primary.Name, path)
	} else {
		rep.addStep("verify-primary", StepWarning, start, "%s not found on the search path", primary.Name)
		logging.Warnf("%s not found, falling back to %s", primary.Name, fallback.Repo.Name)
		fatal = s.runFallback(ctx, rep, fallback)
	}

	// Secondary targets never decide the outcome; a missing driver is a
	// warning on an otherwise successful run.
	for _, target := range secondaries {
		s.verifySecondary(rep, target)
	}

	if rep.Succeeded() {
		s.probeVersions(ctx, rep, primary, secondaries, fallback)
	}

	if err := s.aborted(ctx, rep); err != nil {
		return rep, err
	}

	if rep.Outcome == Failed {
		if s.DryRun {
			return rep, nil
		}
		if fatal != nil {
			return rep, fmt.Errorf("%w: %v", ErrBootstrapFailed, fatal)
		}
		return rep, fmt.Errorf("%w; install %s manually, then re-run \"browserboot verify\"", ErrBootstrapFailed, primary.Name)
	}
	return rep, nil
}

// runFallback registers the vendor repository and tries its plan. It runs at
// most once per bootstrap; a registration error is the one fatal condition
// ahead of the final verification.
func (s *Sequencer) runFallback(ctx context.Context, rep *Report, fallback FallbackPlan) error {
	start := time.Now()
	switch {
	case s.DryRun:
		rep.addStep("register-fallback-repo", StepSkipped, start,
			"dry-run: would register %s (%s)", fallback.Repo.Name, fallback.Repo.Entry)
	default:
		logging.Infof("registering fallback repository %s", fallback.Repo.Name)
		if err := s.Manager.AddRepository(ctx, fallback.Repo); err != nil {
			rep.addStep("register-fallback-repo", StepFailed, start, "%v", err)
			logging.Errorf("fallback repository registration failed: %v", err)
			return fmt.Errorf("fallback repository registration failed: %w", err)
		}
		rep.addStep("register-fallback-repo", StepOK, start, "registered %s", fallback.Repo.Name)
	}

	s.refresh(ctx, rep, "refresh-index-fallback")
	s.install(ctx, rep, "install-fallback", fallback.Plan)

	start = time.Now()
	if path, ok := pathres.Locate(s.Resolver, fallback.Target.Candidates, fallback.Target.Locations); ok {
		rep.Outcome = FallbackSucceeded
		rep.ResolvedPaths[fallback.Target.Name] = path
		rep.addStep("verify-fallback", StepOK, start, "%s resolved at %s", fallback.Target.Name, path)
		logging.Infof("%s resolved at %s", fallback.Target.Name, path)
	} else {
		rep.addStep("verify-fallback", StepFailed, start, "%s not found on the search path", fallback.Target.Name)
	}
	return nil
}

// refresh updates the package index and downgrades any failure to a warning.
func (s *Sequencer) refresh(ctx context.Context, rep *Report, step string) {
	start := time.Now()
	if s.DryRun {
		rep.addStep(step, StepSkipped, start, "dry-run: would refresh the %s index", s.Manager.Name())
		return
	}

	logging.Infof("refreshing %s package index", s.Manager.Name())
	if res, err := s.Manager.Refresh(ctx); err != nil {
		rep.addStep(step, StepWarning, start, "index refresh failed: %v", err)
		rep.warnf("index refresh failed (exit %d): %v", cmdExit(res), err)
		logging.Warnf("index refresh failed, continuing: %v", err)
	} else {
		rep.addStep(step, StepOK, start, "package index refreshed")
	}
}

// install batch-installs the plan and downgrades any failure to a warning;
// the following verification step is authoritative.
func (s *Sequencer) install(ctx context.Context, rep *Report, step string, plan InstallPlan) {
	start := time.Now()
	packages := strings.Join(plan, " ")
	if s.DryRun {
		rep.addStep(step, StepSkipped, start, "dry-run: would install %s", packages)
		logging.Infof("dry-run: would install %s", packages)
		return
	}

	logging.Infof("installing %d packages via %s: %s", len(plan), s.Manager.Name(), packages)
	if res, err := s.Manager.Install(ctx, plan); err != nil {
		rep.addStep(step, StepWarning, start, "install command failed: %v", err)
		rep.warnf("install of [%s] failed (exit %d), verification will decide: %v", packages, cmdExit(res), err)
		logging.Warnf("install command failed, verification will decide: %v", err)
	} else {
		rep.addStep(step, StepOK, start, "installed: %s", packages)
	}
}

// verifySecondary resolves a secondary target and repairs its execute bit.
func (s *Sequencer) verifySecondary(rep *Report, target VerificationTarget) {
	start := time.Now()
	path, ok := pathres.Locate(s.Resolver, target.Candidates, target.Locations)
	if !ok {
		rep.addStep("verify-"+target.Name, StepWarning, start, "%s not found; continuing without it", target.Name)
		rep.warnf("%s not found on the search path", target.Name)
		logging.Warnf("%s not found, continuing without it", target.Name)
		return
	}

	rep.ResolvedPaths[target.Name] = path
	if target.EnsureExecutable && !s.DryRun {
		// Distro chromedriver packages have shipped the binary without +x.
		if err := pathres.EnsureExecutable(path); err != nil {
			rep.warnf("could not set execute bit on %s: %v", path, err)
		}
	}
	rep.addStep("verify-"+target.Name, StepOK, start, "%s resolved at %s", target.Name, path)
	logging.Infof("%s resolved at %s", target.Name, path)
}

// probeVersions records browser and driver versions and warns on a major
// version mismatch, the usual cause of a driver that refuses to start.
func (s *Sequencer) probeVersions(ctx context.Context, rep *Report, primary VerificationTarget, secondaries []VerificationTarget, fallback FallbackPlan) {
	if s.Prober == nil {
		return
	}

	browserPath := rep.ResolvedPaths[primary.Name]
	if rep.Outcome == FallbackSucceeded {
		browserPath = rep.ResolvedPaths[fallback.Target.Name]
	}

	var driverPath string
	for _, target := range secondaries {
		if path, ok := rep.ResolvedPaths[target.Name]; ok {
			driverPath = path
			break
		}
	}
	if browserPath == "" || driverPath == "" {
		return
	}

	browser, driver, mismatch, err := s.Prober.Versions(ctx, browserPath, driverPath)
	if err != nil {
		rep.warnf("version probe failed: %v", err)
		return
	}
	rep.BrowserVersion = browser
	rep.DriverVersion = driver
	if mismatch {
		rep.warnf("browser %s and driver %s disagree on major version", browser, driver)
		logging.Warnf("browser %s and driver %s disagree on major version", browser, driver)
	}
}

// splitTargets picks the one target whose resolution decides the outcome.
// The remaining targets only warn when missing.
func splitTargets(targets []VerificationTarget) (VerificationTarget, []VerificationTarget, error) {
	var primary VerificationTarget
	found := false
	secondaries := make([]VerificationTarget, 0, len(targets))
	for _, target := range targets {
		if target.Role == RolePrimary && !found {
			primary = target
			found = true
			continue
		}
		secondaries = append(secondaries, target)
	}
	if !found {
		return VerificationTarget{}, nil, fmt.Errorf("no primary verification target configured")
	}
	return primary, secondaries, nil
}

// aborted turns an expired context into the Failed outcome. Once a run has
// verified a browser the outcome is settled; a late expiry only warns.
func (s *Sequencer) aborted(ctx context.Context, rep *Report) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if rep.Succeeded() {
		rep.warnf("deadline expired after verification: %v", err)
		return nil
	}
	rep.Outcome = Failed
	rep.addStep("abort", StepFailed, time.Now(), "sequence aborted: %v", err)
	return fmt.Errorf("%w: %v", ErrBootstrapFailed, err)
}

// cmdExit reads the exit code off a possibly-nil command result.
func cmdExit(res *pkgmgr.CmdResult) int {
	if res == nil {
		return -1
	}
	return res.ExitCode
}
