// Package system collects a small host snapshot for the bootstrap report.
// Rented compute instances are disposable, so the report is often the only
// record of what kind of host a provisioning run actually saw.
package system

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Snapshot contains the host details recorded into a bootstrap report.
type Snapshot struct {
	Hostname       string `json:"hostname"`
	OSType         string `json:"os_type"`
	OSArchitecture string `json:"os_architecture"`
	OSRelease      string `json:"os_release,omitempty"`
	Kernel         string `json:"kernel,omitempty"`
	CPUCount       int    `json:"cpu_count"`
	GPU            string `json:"gpu,omitempty"`
}

// Collect gathers the snapshot. Every probe is best-effort; a missing tool
// just leaves its field empty.
func Collect() *Snapshot {
	info := &Snapshot{
		OSType:         runtime.GOOS,
		OSArchitecture: runtime.GOARCH,
		CPUCount:       runtime.NumCPU(),
	}

	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	if release, err := os.ReadFile("/etc/os-release"); err == nil {
		info.OSRelease = parseOSRelease(string(release))
	}

	if out, err := exec.Command("uname", "-r").Output(); err == nil {
		info.Kernel = strings.TrimSpace(string(out))
	}

	// GPU instances from compute marketplaces ship nvidia-smi preinstalled.
	if out, err := exec.Command("nvidia-smi", "--query-gpu=name", "--format=csv,noheader").Output(); err == nil {
		info.GPU = strings.TrimSpace(string(out))
	}

	return info
}

// parseOSRelease extracts PRETTY_NAME from /etc/os-release contents.
func parseOSRelease(contents string) string {
	for _, line := range strings.Split(contents, "\n") {
		if value, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(value, `"`)
		}
	}
	return ""
}
