// Package project loads the project file (autoinstall.yaml) that declares a
// project's components and functions. It validates the file against an
// embedded JSON schema, resolves every root path to an absolute path inside
// the project, and exposes ordered, name-keyed lookups of components and
// functions.
package project
