// Package config manages autoinstall settings. Values come from built-in
// defaults, the user file ~/.autoinstall/config.yaml, an optional
// .autoinstall.yaml in the project root, and AUTOINSTALL_* environment
// variables, later sources winning.
package config
