// Package cli defines the Cobra command tree for the autoinstall CLI. Each
// file registers one top-level command (function, component, list, doctor,
// config, version) with the root command. Commands build a session that
// loads the project and wires the lifecycle host, then only handle flag
// parsing and output formatting.
package cli
