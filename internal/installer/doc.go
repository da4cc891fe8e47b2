// Package installer runs the external dependency-install command (npm install
// by default) in a manifest directory, and checks installed tool versions for
// the doctor command.
package installer
