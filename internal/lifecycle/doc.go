// Package lifecycle is the host side of the plugin model: named actions,
// pre and post hooks around them, and plugins that register both. Every step
// receives the event returned by the previous step and must hand one back.
package lifecycle
