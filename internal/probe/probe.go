// Package probe inspects installed browser and driver binaries. A driver
// whose major version disagrees with the browser refuses to start sessions,
// so the mismatch is surfaced right after install instead of at first use.
package probe

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/blang/semver"

	"github.com/browserboot/browserboot/internal/pkgmgr"
)

// Prober shells out to resolved binaries with --version.
type Prober struct {
	Runner pkgmgr.Runner
}

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(\.\d+)?`)

// Versions reports both binary versions and whether their majors disagree.
func (p *Prober) Versions(ctx context.Context, browserPath, driverPath string) (string, string, bool, error) {
	browser, err := p.binaryVersion(ctx, browserPath)
	if err != nil {
		return "", "", false, err
	}
	driver, err := p.binaryVersion(ctx, driverPath)
	if err != nil {
		return browser.String(), "", false, err
	}
	return browser.String(), driver.String(), browser.Major != driver.Major, nil
}

func (p *Prober) binaryVersion(ctx context.Context, path string) (semver.Version, error) {
	res, err := p.Runner.Run(ctx, path, "--version")
	if err != nil {
		return semver.Version{}, fmt.Errorf("%s --version failed: %w", path, err)
	}
	return Parse(res.Output)
}

// Parse extracts the first dotted version from --version output. Chrome and
// chromedriver print four components; the build component is dropped.
func Parse(output string) (semver.Version, error) {
	match := versionPattern.FindString(output)
	if match == "" {
		return semver.Version{}, fmt.Errorf("no version found in %q", strings.TrimSpace(output))
	}

	parts := strings.Split(match, ".")
	if len(parts) > 3 {
		match = strings.Join(parts[:3], ".")
	}
	return semver.Parse(match)
}
