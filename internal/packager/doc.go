// Package packager implements the host's "function package" action: it zips
// a function's root directory, including any installed node_modules, into
// <dist>/<function>.zip. The autoinstall plugin hooks in before this action
// so dependencies are present when the archive is written.
package packager
