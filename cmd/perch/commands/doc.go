// Package commands wires the perch CLI: install, session management,
// doctor, and version.
package commands
