// Package locator finds the dependency manifest that governs a deployable
// unit. The search walks upward from the unit's root towards the project root
// and returns the nearest directory that directly contains the manifest file.
// The project root itself and anything above it are never searched.
package locator
