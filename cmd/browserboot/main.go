// browserboot provisions a Chromium or Google Chrome browser, a matching
// WebDriver binary and their shared-library dependencies on a freshly
// rented Linux compute instance, then verifies the install by resolving the
// binaries on the search path.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// The error is already printed by cobra on failure.
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Tests create fresh instances so runs
// stay isolated.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "browserboot",
		Short: "Install and verify a browser plus WebDriver on a fresh Linux host",
		Long: `browserboot prepares a rented GPU/CPU instance for headless browser work.

It installs the distribution's chromium packages together with the shared
libraries chromedriver needs, verifies the binaries actually resolve on the
search path, and falls back to Google's package repository when the
distribution packages do not produce a working browser.

Running without a subcommand performs the full bootstrap.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., the user config dir and /etc/browserboot)")
	cmd.PersistentFlags().String("backend", "", "package manager backend: apt or dnf (default auto-detect)")
	cmd.PersistentFlags().Bool("sudo", false, "prefix package manager commands with sudo")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().Bool("dry-run", false, "log what would run without installing anything")
	cmd.PersistentFlags().StringSlice("packages", nil, "override the primary install plan")
	cmd.PersistentFlags().Duration("timeout", 15*time.Minute, "overall bootstrap timeout")
	cmd.PersistentFlags().String("export", "", "write the report to stdout as json or yaml")
	cmd.PersistentFlags().String("state-dir", "/var/lib/browserboot", "directory for the last-run report")

	cmd.AddCommand(newInstallCmd(&cfgFile))
	cmd.AddCommand(newVerifyCmd(&cfgFile))
	cmd.AddCommand(newPlanCmd(&cfgFile))
	cmd.AddCommand(newStatusCmd(&cfgFile))

	return cmd
}
