package autoinstall

import (
	"github.com/agentx-labs/autoinstall/internal/project"
)

// Target is anything that can have its dependencies installed.
type Target interface {
	TargetName() string
	// InstallRoot is the unit's root directory.
	InstallRoot() string
	// SearchBoundary is the directory the manifest search must stay inside.
	// An empty boundary means InstallRoot is itself the manifest location.
	SearchBoundary() string
	// Runtime is the unit's runtime tag.
	Runtime() string
	// Filtered reports whether Runtime must match an installer family. An
	// unfiltered target (a grouping) always uses the fallback installer; a
	// filtered target with an empty tag is unsupported.
	Filtered() bool
}

// Source enumerates and resolves targets of one kind.
type Source interface {
	// Kind names the targets, e.g. "function", for messages.
	Kind() string
	// Targets returns every target in declaration order.
	Targets() []Target
	Lookup(name string) (Target, bool)
}

type functionTarget struct {
	fn       *project.Function
	boundary string
}

// FunctionTarget adapts a project function. Its manifest is searched upward
// from the function root, inside the project root.
func FunctionTarget(p *project.Project, fn *project.Function) Target {
	return functionTarget{fn: fn, boundary: p.RootPath}
}

func (t functionTarget) TargetName() string     { return t.fn.Name }
func (t functionTarget) InstallRoot() string    { return t.fn.RootPath }
func (t functionTarget) SearchBoundary() string { return t.boundary }
func (t functionTarget) Runtime() string        { return t.fn.Runtime }
func (t functionTarget) Filtered() bool         { return true }

type componentTarget struct {
	c    *project.Component
	name string
}

// ComponentTarget adapts a project component. The component root is used as
// the manifest location without searching.
func ComponentTarget(c *project.Component) Target {
	return componentTarget{c: c, name: c.Name}
}

func (t componentTarget) TargetName() string     { return t.name }
func (t componentTarget) InstallRoot() string    { return t.c.RootPath }
func (t componentTarget) SearchBoundary() string { return "" }
func (t componentTarget) Runtime() string        { return "" }
func (t componentTarget) Filtered() bool         { return false }

type functionSource struct {
	p *project.Project
}

// Functions returns a Source over the project's functions.
func Functions(p *project.Project) Source {
	return functionSource{p: p}
}

func (s functionSource) Kind() string { return "function" }

func (s functionSource) Targets() []Target {
	out := make([]Target, 0, len(s.p.Functions))
	for _, fn := range s.p.Functions {
		out = append(out, FunctionTarget(s.p, fn))
	}
	return out
}

func (s functionSource) Lookup(name string) (Target, bool) {
	fn, ok := s.p.Function(name)
	if !ok {
		return nil, false
	}
	return FunctionTarget(s.p, fn), true
}

type componentSource struct {
	p *project.Project
}

// Components returns a Source over the project's components.
func Components(p *project.Project) Source {
	return componentSource{p: p}
}

func (s componentSource) Kind() string { return "component" }

func (s componentSource) Targets() []Target {
	out := make([]Target, 0, len(s.p.Components))
	for _, c := range s.p.Components {
		out = append(out, ComponentTarget(c))
	}
	return out
}

func (s componentSource) Lookup(name string) (Target, bool) {
	c, ok := s.p.Component(name)
	if !ok {
		return nil, false
	}
	return ComponentTarget(c), true
}

type owningComponentSource struct {
	p *project.Project
}

// OwningComponents returns a Source over the project's functions that
// installs each function's component root instead of searching for a
// manifest. Targets keep the function's name. A function outside any
// component falls back to FunctionTarget.
func OwningComponents(p *project.Project) Source {
	return owningComponentSource{p: p}
}

func (s owningComponentSource) Kind() string { return "function" }

func (s owningComponentSource) target(fn *project.Function) Target {
	if fn.Component == nil {
		return FunctionTarget(s.p, fn)
	}
	return componentTarget{c: fn.Component, name: fn.Name}
}

func (s owningComponentSource) Targets() []Target {
	out := make([]Target, 0, len(s.p.Functions))
	for _, fn := range s.p.Functions {
		out = append(out, s.target(fn))
	}
	return out
}

func (s owningComponentSource) Lookup(name string) (Target, bool) {
	fn, ok := s.p.Function(name)
	if !ok {
		return nil, false
	}
	return s.target(fn), true
}
