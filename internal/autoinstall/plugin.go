package autoinstall

import (
	"fmt"

	"github.com/agentx-labs/autoinstall/internal/lifecycle"
	"github.com/agentx-labs/autoinstall/internal/project"
)

// Actions registered by the plugin.
const (
	ActionFunctionAutoinstall  = "function autoinstall"
	ActionComponentAutoinstall = "component autoinstall"
)

// PluginName is the name the plugin registers under.
const PluginName = "autoinstall"

// HookMode selects what the pre-package hook installs for a function.
type HookMode string

// Hook modes.
const (
	// HookFunction searches upward from the function root for a manifest.
	HookFunction HookMode = "function"
	// HookComponent installs the root of the function's component.
	HookComponent HookMode = "component"
)

// Plugin exposes an Orchestrator to a lifecycle host: two bulk actions and a
// pre hook on function packaging. All of them share the Orchestrator's
// installed set.
type Plugin struct {
	Orchestrator *Orchestrator
	Project      *project.Project
	// HookMode defaults to HookFunction.
	HookMode HookMode
}

// NewPlugin returns a Plugin for p backed by o.
func NewPlugin(o *Orchestrator, p *project.Project) *Plugin {
	return &Plugin{Orchestrator: o, Project: p}
}

// Name implements lifecycle.Plugin.
func (p *Plugin) Name() string { return PluginName }

// RegisterActions implements lifecycle.Plugin.
func (p *Plugin) RegisterActions(h *lifecycle.Host) error {
	if err := h.AddAction(lifecycle.Action{
		Name:        ActionFunctionAutoinstall,
		Handler:     p.Orchestrator.BulkHandler(Functions(p.Project)),
		Description: "Install dependencies of each function that has a package.json in its folder or a parent folder",
		Options: []lifecycle.Option{
			{Name: "all", Shortcut: "a", Description: "Autoinstall all functions"},
		},
		Parameters: "function...",
	}); err != nil {
		return err
	}

	return h.AddAction(lifecycle.Action{
		Name:        ActionComponentAutoinstall,
		Handler:     p.Orchestrator.BulkHandler(Components(p.Project)),
		Description: "Install dependencies in each component folder",
		Options: []lifecycle.Option{
			{Name: "all", Shortcut: "a", Description: "Autoinstall all components"},
		},
		Parameters: "component...",
	})
}

// RegisterHooks implements lifecycle.Plugin.
func (p *Plugin) RegisterHooks(h *lifecycle.Host) error {
	var src Source
	switch p.HookMode {
	case "", HookFunction:
		src = Functions(p.Project)
	case HookComponent:
		src = OwningComponents(p.Project)
	default:
		return fmt.Errorf("unknown hook mode %q", p.HookMode)
	}
	return h.AddHook(lifecycle.ActionPackageFunction, lifecycle.Pre, p.Orchestrator.PrePackageHook(src))
}
