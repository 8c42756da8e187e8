// Package ident validates user-supplied session names before they are used
// to build tmux command lines.
//
// The validator is an allow-list gate, not a sanitizer: a name is either
// accepted exactly as given or rejected. Rewriting unsafe input would only
// hide the problem from the user and invite round-trip bugs.
package ident

import (
	"errors"
	"fmt"
)

// MaxLen is the longest accepted session name.
const MaxLen = 64

// ErrInvalidName is returned by Check for any rejected session name.
var ErrInvalidName = errors.New("invalid session name")

// Valid reports whether name is a safe session identifier: 1 to 64
// characters, each one of A-Z, a-z, 0-9, underscore or hyphen.
//
// The check is byte-wise over the raw string, so multi-byte UTF-8 sequences
// (including Latin look-alikes such as Cyrillic а) fail the character class
// and are rejected. Leading - or _ is allowed; the charset makes no
// positional exception.
func Valid(name string) bool {
	if len(name) == 0 || len(name) > MaxLen {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	return true
}

// Check wraps Valid for callers that propagate errors. The rejected name is
// quoted in the message so the user can see what was refused; it is never
// echoed into a shell.
func Check(name string) error {
	if !Valid(name) {
		return fmt.Errorf("%w %q: must be 1-%d characters of [A-Za-z0-9_-]", ErrInvalidName, name, MaxLen)
	}
	return nil
}
