//go:build linux

package hostenv

import "os"

// IsNoExecMount reports whether destPath sits on a filesystem mounted
// noexec, where an installed binary could never run. Best effort only: if
// anything looks odd, return false and let the install proceed.
func IsNoExecMount(destPath string) bool {
	if destPath == "" {
		return false
	}

	// mountinfo first; it is more detailed and covers overlay setups.
	if data, err := os.ReadFile("/proc/self/mountinfo"); err == nil { // #nosec G304 -- fixed procfs path
		if mounts := parseMountinfo(string(data)); len(mounts) > 0 {
			return noExecCovering(destPath, mounts)
		}
	}

	data, err := os.ReadFile("/proc/mounts") // #nosec G304 -- fixed procfs path
	if err != nil {
		return false
	}
	mounts := parseProcMounts(string(data))
	if len(mounts) == 0 {
		return false
	}
	return noExecCovering(destPath, mounts)
}
