// Package config resolves browserboot settings from flags, environment
// variables and an optional browserboot.yaml, in that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/browserboot/browserboot/internal/bootstrap"
	"github.com/browserboot/browserboot/internal/pkgmgr"
)

// Target mirrors bootstrap.VerificationTarget for file-based overrides.
type Target struct {
	Name             string   `mapstructure:"name"`
	Candidates       []string `mapstructure:"candidates"`
	Locations        []string `mapstructure:"locations"`
	EnsureExecutable bool     `mapstructure:"ensure-executable"`
}

// Fallback describes the alternate package source and plan.
type Fallback struct {
	RepoName    string   `mapstructure:"repo-name"`
	Entry       string   `mapstructure:"entry"`
	KeyURL      string   `mapstructure:"key-url"`
	SourcesPath string   `mapstructure:"sources-path"`
	KeyringPath string   `mapstructure:"keyring-path"`
	Packages    []string `mapstructure:"packages"`
	Target      Target   `mapstructure:"target"`
}

// Config holds the full browserboot configuration.
type Config struct {
	Backend  string        `mapstructure:"backend"`
	Sudo     bool          `mapstructure:"sudo"`
	DryRun   bool          `mapstructure:"dry-run"`
	Debug    bool          `mapstructure:"debug"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Export   string        `mapstructure:"export"`
	StateDir string        `mapstructure:"state-dir"`
	Packages []string      `mapstructure:"packages"`
	Targets  []Target      `mapstructure:"targets"`
	Fallback Fallback      `mapstructure:"fallback"`
}

// The chromium packages plus the shared-library closure chromedriver needs
// on minimal cloud images.
var defaultPackages = []string{
	"chromium-browser",
	"chromium-chromedriver",
	"libnss3",
	"libatk-bridge2.0-0",
	"libdrm2",
	"libxkbcommon0",
	"libxcomposite1",
	"libxdamage1",
	"libxfixes3",
	"libxrandr2",
	"libgbm1",
	"libasound2",
}

func defaultSettings() map[string]any {
	return map[string]any{
		"backend":   "",
		"sudo":      false,
		"dry-run":   false,
		"debug":     false,
		"timeout":   15 * time.Minute,
		"export":    "",
		"state-dir": "/var/lib/browserboot",
		"packages":  defaultPackages,
	}
}

// Default returns the stock configuration for a backend. The empty backend
// means auto-detect and uses the apt fallback paths.
func Default(backend string) *Config {
	cfg := &Config{
		Backend:  backend,
		Timeout:  15 * time.Minute,
		StateDir: "/var/lib/browserboot",
		Packages: append([]string(nil), defaultPackages...),
		Targets: []Target{
			{
				Name:       "chromium-browser",
				Candidates: []string{"chromium-browser", "chromium"},
				Locations:  []string{"/usr/bin/chromium-browser", "/usr/bin/chromium"},
			},
			{
				Name:       "chromedriver",
				Candidates: []string{"chromedriver"},
				Locations: []string{
					"/usr/bin/chromedriver",
					"/usr/lib/chromium-browser/chromedriver",
					"/snap/chromium/current/usr/lib/chromium-browser/chromedriver",
				},
				EnsureExecutable: true,
			},
		},
		Fallback: Fallback{
			RepoName:    "google-chrome",
			Entry:       "deb [arch=amd64] http://dl.google.com/linux/chrome/deb/ stable main",
			KeyURL:      "https://dl.google.com/linux/linux_signing_key.pub",
			SourcesPath: "/etc/apt/sources.list.d/google-chrome.list",
			KeyringPath: "/etc/apt/trusted.gpg.d/google-chrome.asc",
			Packages:    []string{"google-chrome-stable"},
			Target: Target{
				Name:       "google-chrome",
				Candidates: []string{"google-chrome-stable", "google-chrome"},
				Locations:  []string{"/usr/bin/google-chrome-stable", "/usr/bin/google-chrome"},
			},
		},
	}

	if backend == "dnf" {
		cfg.Fallback.Entry = "http://dl.google.com/linux/chrome/rpm/stable/x86_64"
		cfg.Fallback.SourcesPath = "/etc/yum.repos.d/google-chrome.repo"
		cfg.Fallback.KeyringPath = ""
	}

	return cfg
}

// Load resolves the configuration for a command invocation. cfgFile, when
// non-empty, pins the config file; otherwise browserboot.yaml is searched in
// the working directory, the user config dir and /etc/browserboot.
func Load(cmd *cobra.Command, cfgFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("browserboot")
	v.SetConfigType("yaml")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	v.AddConfigPath(".")
	if userDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(userDir, "browserboot"))
	}
	v.AddConfigPath("/etc/browserboot")

	// Scalar keys need registered defaults or environment overrides stay
	// invisible to Unmarshal.
	for key, value := range defaultSettings() {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("browserboot")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg := Default(v.GetString("backend"))
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Packages) == 0 {
		return fmt.Errorf("packages list is empty")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("no verification targets configured")
	}
	switch c.Export {
	case "", "json", "yaml":
	default:
		return fmt.Errorf("unsupported export format: %s (want json or yaml)", c.Export)
	}
	switch c.Backend {
	case "", "apt", "dnf":
	default:
		return fmt.Errorf("unsupported backend: %s (want apt or dnf)", c.Backend)
	}
	return nil
}

// Plan returns the primary install plan.
func (c *Config) Plan() bootstrap.InstallPlan {
	return bootstrap.InstallPlan(c.Packages)
}

// VerificationTargets converts the configured targets; the first entry is
// the primary, everything after it secondary.
func (c *Config) VerificationTargets() []bootstrap.VerificationTarget {
	targets := make([]bootstrap.VerificationTarget, 0, len(c.Targets))
	for i, t := range c.Targets {
		role := bootstrap.RoleSecondary
		if i == 0 {
			role = bootstrap.RolePrimary
		}
		targets = append(targets, bootstrap.VerificationTarget{
			Name:             t.Name,
			Candidates:       t.Candidates,
			Locations:        t.Locations,
			Role:             role,
			EnsureExecutable: t.EnsureExecutable,
		})
	}
	return targets
}

// FallbackPlan converts the configured fallback source.
func (c *Config) FallbackPlan() bootstrap.FallbackPlan {
	return bootstrap.FallbackPlan{
		Repo: pkgmgr.Repository{
			Name:        c.Fallback.RepoName,
			Entry:       c.Fallback.Entry,
			KeyURL:      c.Fallback.KeyURL,
			SourcesPath: c.Fallback.SourcesPath,
			KeyringPath: c.Fallback.KeyringPath,
		},
		Plan: bootstrap.InstallPlan(c.Fallback.Packages),
		Target: bootstrap.VerificationTarget{
			Name:       c.Fallback.Target.Name,
			Candidates: c.Fallback.Target.Candidates,
			Locations:  c.Fallback.Target.Locations,
			Role:       bootstrap.RolePrimary,
		},
	}
}
