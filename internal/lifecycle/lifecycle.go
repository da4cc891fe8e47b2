package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"
)

// ErrUnknownAction is returned by Run for an action that was never registered.
var ErrUnknownAction = errors.New("unknown action")

// Event carries action-specific data through hooks and the action handler.
type Event struct {
	Action string

	// Target names the single unit an action operates on (e.g. the function
	// being packaged).
	Target string

	// Names and All select units for bulk actions.
	Names []string
	All   bool

	// Data holds values added by earlier steps, e.g. the package artifact path.
	Data map[string]string
}

// Set records a value in evt.Data.
func (e *Event) Set(key, value string) {
	if e.Data == nil {
		e.Data = make(map[string]string)
	}
	e.Data[key] = value
}

// Handler runs an action or hook. It must return the event it was given, or
// a replacement, for the next step.
type Handler func(ctx context.Context, evt *Event) (*Event, error)

// When selects whether a hook runs before or after its action.
type When string

// Hook positions.
const (
	Pre  When = "pre"
	Post When = "post"
)

// Option documents a flag accepted by an action.
type Option struct {
	Name        string
	Shortcut    string
	Description string
}

// Action is a named operation the host can run.
type Action struct {
	Name        string
	Handler     Handler
	Description string
	Options     []Option
	// Parameters documents positional arguments, e.g. "function...".
	Parameters string
}

// Plugin registers actions and hooks with a Host.
type Plugin interface {
	Name() string
	RegisterActions(h *Host) error
	RegisterHooks(h *Host) error
}

type hook struct {
	plugin  string
	handler Handler
}

// Host owns registered actions and hooks. It is not safe for concurrent
// registration; Run may be called concurrently once setup is done.
type Host struct {
	actions map[string]*Action
	hooks   map[string]map[When][]hook
	plugins []string
	current string
}

// NewHost returns an empty Host.
func NewHost() *Host {
	return &Host{
		actions: make(map[string]*Action),
		hooks:   make(map[string]map[When][]hook),
	}
}

// AddAction registers a. Names must be unique.
func (h *Host) AddAction(a Action) error {
	if a.Name == "" {
		return fmt.Errorf("action name is required")
	}
	if a.Handler == nil {
		return fmt.Errorf("action %s has no handler", a.Name)
	}
	if _, dup := h.actions[a.Name]; dup {
		return fmt.Errorf("action %s is already registered", a.Name)
	}
	h.actions[a.Name] = &a
	return nil
}

// AddHook registers fn to run before or after action. The action does not
// need to exist yet.
func (h *Host) AddHook(action string, when When, fn Handler) error {
	if when != Pre && when != Post {
		return fmt.Errorf("invalid hook position %q for %s", when, action)
	}
	if fn == nil {
		return fmt.Errorf("%s hook for %s has no handler", when, action)
	}
	if h.hooks[action] == nil {
		h.hooks[action] = make(map[When][]hook)
	}
	h.hooks[action][when] = append(h.hooks[action][when], hook{plugin: h.current, handler: fn})
	return nil
}

// Use registers a plugin's actions, then its hooks.
func (h *Host) Use(p Plugin) error {
	h.current = p.Name()
	defer func() { h.current = "" }()

	if err := p.RegisterActions(h); err != nil {
		return fmt.Errorf("registering actions of plugin %s: %w", p.Name(), err)
	}
	if err := p.RegisterHooks(h); err != nil {
		return fmt.Errorf("registering hooks of plugin %s: %w", p.Name(), err)
	}
	h.plugins = append(h.plugins, p.Name())
	return nil
}

// Plugins returns the names of registered plugins in registration order.
func (h *Host) Plugins() []string {
	return append([]string(nil), h.plugins...)
}

// Action returns the registered action with the given name.
func (h *Host) Action(name string) (Action, bool) {
	a, ok := h.actions[name]
	if !ok {
		return Action{}, false
	}
	return *a, true
}

// Actions returns registered action names, sorted.
func (h *Host) Actions() []string {
	names := make([]string, 0, len(h.actions))
	for name := range h.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the pre hooks, the action handler, and the post hooks of name
// in that order, threading the event through each. The first error stops the
// chain; steps that already ran are not undone.
func (h *Host) Run(ctx context.Context, name string, evt *Event) (*Event, error) {
	a, ok := h.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	if evt == nil {
		evt = &Event{}
	}
	evt.Action = name

	log := logr.FromContextOrDiscard(ctx).WithValues("action", name)

	var err error
	for _, hk := range h.hooks[name][Pre] {
		log.V(1).Info("running pre hook", "plugin", hk.plugin)
		if evt, err = step(ctx, hk.handler, evt, "pre hook", hk.plugin, name); err != nil {
			return nil, err
		}
	}

	log.V(1).Info("running action")
	if evt, err = step(ctx, a.Handler, evt, "action", "", name); err != nil {
		return nil, err
	}

	for _, hk := range h.hooks[name][Post] {
		log.V(1).Info("running post hook", "plugin", hk.plugin)
		if evt, err = step(ctx, hk.handler, evt, "post hook", hk.plugin, name); err != nil {
			return nil, err
		}
	}

	return evt, nil
}

func step(ctx context.Context, fn Handler, evt *Event, kind, plugin, action string) (*Event, error) {
	label := kind + " " + action
	if plugin != "" {
		label = plugin + " " + label
	}

	out, err := fn(ctx, evt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%s returned nil event", label)
	}
	return out, nil
}

// Host actions that plugins commonly hook into.
const (
	ActionPackageFunction = "function package"
)
