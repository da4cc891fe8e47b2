package project

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/autoinstall/internal/branding"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"
)

// ErrNoProject is returned by FindRoot when no project file is found.
var ErrNoProject = errors.New("no project file found")

// FilePath returns the path of the project file inside root.
func FilePath(root string) string {
	return filepath.Join(root, branding.ProjectFile())
}

// Load reads, validates, and resolves the project file in root.
func Load(fsys afero.Fs, root string) (*Project, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	path := FilePath(root)
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	result, err := Validate(data)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", path, err)
	}
	if !result.Valid {
		return nil, &InvalidError{Path: path, Issues: result.Issues}
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing project file %s: %w", path, err)
	}

	return Build(root, &file)
}

// Build resolves a parsed project file against root.
func Build(root string, file *File) (*Project, error) {
	p := &Project{
		Name:       file.Name,
		RootPath:   root,
		components: make(map[string]*Component),
		functions:  make(map[string]*Function),
	}

	for _, cs := range file.Components {
		if _, dup := p.components[cs.Name]; dup {
			return nil, fmt.Errorf("duplicate component %q", cs.Name)
		}
		rel := cs.Path
		if rel == "" {
			rel = cs.Name
		}
		dir, err := p.resolve(rel)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", cs.Name, err)
		}

		c := &Component{Name: cs.Name, RootPath: dir}
		p.components[c.Name] = c
		p.Components = append(p.Components, c)

		for _, fnSpec := range cs.Functions {
			fn, err := p.addFunction(fnSpec, rel, c)
			if err != nil {
				return nil, err
			}
			c.Functions = append(c.Functions, fn)
		}
	}

	for _, fnSpec := range file.Functions {
		if _, err := p.addFunction(fnSpec, "", nil); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Project) addFunction(spec FunctionSpec, parentRel string, c *Component) (*Function, error) {
	if _, dup := p.functions[spec.Name]; dup {
		return nil, fmt.Errorf("duplicate function %q", spec.Name)
	}
	rel := spec.Path
	if rel == "" {
		rel = filepath.Join(parentRel, spec.Name)
	}
	dir, err := p.resolve(rel)
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", spec.Name, err)
	}

	fn := &Function{
		Name:      spec.Name,
		Runtime:   spec.Runtime,
		RootPath:  dir,
		Component: c,
	}
	p.functions[fn.Name] = fn
	p.Functions = append(p.Functions, fn)
	return fn, nil
}

// resolve turns a project-relative path into an absolute one and rejects
// paths that escape the project root.
func (p *Project) resolve(rel string) (string, error) {
	dir := rel
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.RootPath, filepath.FromSlash(rel))
	}
	dir = filepath.Clean(dir)

	r, err := filepath.Rel(p.RootPath, dir)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the project root", rel)
	}
	return dir, nil
}

// FindRoot walks upward from start and returns the first directory that
// contains the project file.
func FindRoot(fsys afero.Fs, start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for {
		info, err := fsys.Stat(FilePath(dir))
		if err == nil && !info.IsDir() {
			return dir, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("checking %s: %w", dir, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%w in %s or any parent directory", ErrNoProject, start)
}
