package hostenv

import (
	"path/filepath"
	"strings"
)

type mount struct {
	point string
	opts  map[string]struct{}
}

// parseMountinfo reads /proc/self/mountinfo content. Format per kernel docs:
// id parent major:minor root mountpoint options ... "-" fstype source superopts
func parseMountinfo(content string) []mount {
	var out []mount
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		sep := -1
		for i, f := range fields {
			if f == "-" {
				sep = i
				break
			}
		}
		if sep < 0 || len(fields) < 6 {
			continue
		}

		m := mount{
			point: unescapeMountPath(fields[4]),
			opts:  splitMountOptions(fields[5]),
		}
		// noexec can appear in the super options after the "-" separator on
		// overlay setups, so merge those in as well.
		if sep+3 < len(fields) {
			for k := range splitMountOptions(fields[sep+3]) {
				m.opts[k] = struct{}{}
			}
		}
		out = append(out, m)
	}
	return out
}

// parseProcMounts reads /proc/mounts content: source mountpoint fstype options ...
func parseProcMounts(content string) []mount {
	var out []mount
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		out = append(out, mount{
			point: unescapeMountPath(fields[1]),
			opts:  splitMountOptions(fields[3]),
		})
	}
	return out
}

func splitMountOptions(opt string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, part := range strings.Split(opt, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		m[part] = struct{}{}
	}
	return m
}

// unescapeMountPath undoes the octal escapes procfs uses for spaces and a
// few special characters in mount paths.
func unescapeMountPath(value string) string {
	repl := strings.NewReplacer(
		"\\040", " ",
		"\\011", "\t",
		"\\012", "\n",
		"\\134", "\\",
	)
	return repl.Replace(value)
}

// noExecCovering reports whether the longest mount covering destPath carries
// the noexec option.
func noExecCovering(destPath string, mounts []mount) bool {
	dest := filepath.ToSlash(filepath.Clean(destPath))
	if dest == "." || dest == "" {
		return false
	}

	bestLen := -1
	bestNoExec := false
	for _, m := range mounts {
		point := filepath.ToSlash(filepath.Clean(m.point))
		if point == "." || point == "" {
			continue
		}
		if !pathHasPrefix(dest, point) {
			continue
		}
		if len(point) > bestLen {
			bestLen = len(point)
			_, bestNoExec = m.opts["noexec"]
		}
	}
	return bestNoExec
}

func pathHasPrefix(path, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
