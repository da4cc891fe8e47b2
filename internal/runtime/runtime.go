package runtime

import (
	"strings"

	"github.com/agentx-labs/autoinstall/internal/installer"
)

// Supported runtime families.
const (
	RuntimeNode = "nodejs"
)

// Supported reports whether tag belongs to the runtime family prefix.
func Supported(prefix, tag string) bool {
	return prefix != "" && strings.HasPrefix(tag, prefix)
}

type family struct {
	prefix    string
	installer installer.Installer
}

// Dispatcher selects an installer for a runtime tag.
type Dispatcher struct {
	families []family
	fallback installer.Installer
}

// NewDispatcher returns a Dispatcher whose fallback installer serves targets
// that carry no runtime tag (groupings). fallback may be nil.
func NewDispatcher(fallback installer.Installer) *Dispatcher {
	return &Dispatcher{fallback: fallback}
}

// NodeDispatcher returns a Dispatcher that routes the nodejs family, and
// untagged targets, to inst.
func NodeDispatcher(prefix string, inst installer.Installer) *Dispatcher {
	if prefix == "" {
		prefix = RuntimeNode
	}
	d := NewDispatcher(inst)
	d.Register(prefix, inst)
	return d
}

// Register routes runtime tags starting with prefix to inst. Families are
// matched in registration order.
func (d *Dispatcher) Register(prefix string, inst installer.Installer) {
	d.families = append(d.families, family{prefix: prefix, installer: inst})
}

// DispatchInstaller returns the installer for tag. An empty tag selects the
// fallback. ok is false when no installer applies and the target should be
// skipped.
func (d *Dispatcher) DispatchInstaller(tag string) (inst installer.Installer, ok bool) {
	if tag == "" {
		return d.fallback, d.fallback != nil
	}
	for _, f := range d.families {
		if Supported(f.prefix, tag) {
			return f.installer, true
		}
	}
	return nil, false
}

// Prefixes returns the registered family prefixes in match order.
func (d *Dispatcher) Prefixes() []string {
	out := make([]string, 0, len(d.families))
	for _, f := range d.families {
		out = append(out, f.prefix)
	}
	return out
}
