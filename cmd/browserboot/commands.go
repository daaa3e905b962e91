package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/browserboot/browserboot/internal/bootstrap"
	"github.com/browserboot/browserboot/internal/config"
	"github.com/browserboot/browserboot/internal/display"
	"github.com/browserboot/browserboot/internal/logging"
	"github.com/browserboot/browserboot/internal/pathres"
	"github.com/browserboot/browserboot/internal/pkgmgr"
	"github.com/browserboot/browserboot/internal/probe"
	"github.com/browserboot/browserboot/internal/report"
	"github.com/browserboot/browserboot/internal/system"
)

func newInstallCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Run the full bootstrap sequence (same as running browserboot bare)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, *cfgFile)
		},
	}
}

func newVerifyCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the configured binaries without installing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, *cfgFile)
		},
	}
}

func newPlanCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the resolved install plan, targets and fallback source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd, *cfgFile)
			if err != nil {
				return err
			}
			display.PrintPlan(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func newStatusCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the report of the last bootstrap run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd, *cfgFile)
			if err != nil {
				return err
			}
			rep, err := report.Load(cfg.StateDir)
			if err != nil {
				return err
			}
			if rep == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No bootstrap has run on this host yet.")
				return nil
			}
			if cfg.Export != "" {
				return display.Export(cmd.OutOrStdout(), rep, cfg.Export)
			}
			display.PrintReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}

// runInstall wires the capabilities together and executes the sequence.
func runInstall(cmd *cobra.Command, cfgFile string) error {
	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		return err
	}
	logging.SetDebug(cfg.Debug)

	runner := &pkgmgr.ExecRunner{Sudo: cfg.Sudo}
	var manager pkgmgr.Manager
	if cfg.Backend == "" {
		manager, err = pkgmgr.Detect(runner)
	} else {
		manager, err = pkgmgr.New(cfg.Backend, runner)
	}
	if err != nil {
		return err
	}

	seq := &bootstrap.Sequencer{
		Manager:  manager,
		Resolver: pathres.System{},
		// Version probes run as the invoking user; they never need sudo.
		Prober: &probe.Prober{Runner: &pkgmgr.ExecRunner{}},
		Host:   system.Collect,
		DryRun: cfg.DryRun,
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	rep, runErr := seq.Run(ctx, cfg.Plan(), cfg.VerificationTargets(), cfg.FallbackPlan())
	if rep != nil {
		if !cfg.DryRun {
			if err := report.Save(cfg.StateDir, rep); err != nil {
				logging.Warnf("could not persist report: %v", err)
			}
		}
		if cfg.Export != "" {
			if err := display.Export(cmd.OutOrStdout(), rep, cfg.Export); err != nil {
				return err
			}
		} else {
			display.PrintReport(cmd.OutOrStdout(), rep)
		}
	}
	return runErr
}

// runVerify resolves the configured targets without touching the package
// manager. The primary target also counts as present when the fallback
// browser from an earlier run resolves.
func runVerify(cmd *cobra.Command, cfgFile string) error {
	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		return err
	}

	resolver := pathres.System{}
	targets := cfg.VerificationTargets()
	fallback := cfg.FallbackPlan()

	primaryFound := false
	for _, target := range targets {
		primary := target.Role == bootstrap.RolePrimary
		path, ok := pathres.Locate(resolver, target.Candidates, target.Locations)
		if !ok && primary {
			path, ok = pathres.Locate(resolver, fallback.Target.Candidates, fallback.Target.Locations)
		}
		switch {
		case ok:
			fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", target.Name, path)
			if primary {
				primaryFound = true
			}
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "%-18s not found\n", target.Name)
		}
	}

	if !primaryFound {
		return fmt.Errorf("no browser found; run \"browserboot install\"")
	}
	return nil
}
