//go:build !linux

package hostenv

// IsNoExecMount is a no-op outside Linux; macOS has no per-user noexec
// mounts worth probing.
func IsNoExecMount(destPath string) bool { return false }
