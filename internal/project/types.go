package project

// File is the on-disk shape of autoinstall.yaml.
type File struct {
	Name       string          `yaml:"name" json:"name"`
	Components []ComponentSpec `yaml:"components,omitempty" json:"components,omitempty"`
	Functions  []FunctionSpec  `yaml:"functions,omitempty" json:"functions,omitempty"`
}

// ComponentSpec declares a component. Path defaults to the component name.
type ComponentSpec struct {
	Name      string         `yaml:"name" json:"name"`
	Path      string         `yaml:"path,omitempty" json:"path,omitempty"`
	Functions []FunctionSpec `yaml:"functions,omitempty" json:"functions,omitempty"`
}

// FunctionSpec declares a function. Path is relative to the project root and
// defaults to <component path>/<name>, or <name> for functions declared
// outside any component.
type FunctionSpec struct {
	Name    string `yaml:"name" json:"name"`
	Runtime string `yaml:"runtime" json:"runtime"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Project is a loaded project with absolute paths.
type Project struct {
	Name     string
	RootPath string

	// Components and Functions are in declaration order. Functions of
	// components come first, followed by top-level functions.
	Components []*Component
	Functions  []*Function

	components map[string]*Component
	functions  map[string]*Function
}

// Component is a grouping of functions with its own root directory.
type Component struct {
	Name      string
	RootPath  string
	Functions []*Function
}

// Function is a deployable unit.
type Function struct {
	Name     string
	Runtime  string
	RootPath string

	// Component is nil for functions declared outside any component.
	Component *Component
}

// Function returns the function with the given name.
func (p *Project) Function(name string) (*Function, bool) {
	fn, ok := p.functions[name]
	return fn, ok
}

// Component returns the component with the given name.
func (p *Project) Component(name string) (*Component, bool) {
	c, ok := p.components[name]
	return c, ok
}
