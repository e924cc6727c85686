// Package catalog holds the static description of what sp-openstack patches:
// components, the releases each one is known in, how to recognise each
// release, and the directives placing vendor code inside every target file.
//
// A Catalog is built once at startup and never mutated afterwards.
package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/storpool/sp-openstack/internal/messages"
)

// Releases lists the known OpenStack releases, newest first.
var Releases = []string{
	"train",
	"stein",
	"rocky",
	"queens",
	"pike",
	"ocata",
	"newton",
	"mitaka",
	"liberty",
}

// ReleaseIndex returns the position of name in Releases (0 is newest), or -1.
func ReleaseIndex(name string) int {
	for i, r := range Releases {
		if r == name {
			return i
		}
	}
	return -1
}

// Kind identifies how a directive locates its region.
type Kind string

const (
	// KindNewFile installs a whole file owned by the vendor.
	KindNewFile Kind = "new"
	// KindChunk replaces an opaque range between two marker lines.
	KindChunk Kind = "chunk"
	// KindClassBlock replaces or adds a named top-level class declaration.
	KindClassBlock Kind = "class"
)

// Directive describes one patchable region of a target file.
type Directive struct {
	Kind Kind
	// Begin opens the region. For class blocks it is derived from Name.
	Begin *regexp.Regexp
	// End closes a chunk; the matching line is not part of the region.
	End *regexp.Regexp
	// Name is the declared class name of a class block.
	Name string
	// Releases restricts the directive to these releases; empty means all.
	Releases []string
}

// AppliesTo reports whether d is relevant for release.
func (d Directive) AppliesTo(release string) bool {
	if len(d.Releases) == 0 {
		return true
	}
	for _, r := range d.Releases {
		if r == release {
			return true
		}
	}
	return false
}

// String renders a short human-readable identifier for d.
func (d Directive) String() string {
	switch d.Kind {
	case KindNewFile:
		return string(KindNewFile)
	case KindClassBlock:
		return fmt.Sprintf("%s %s", d.Kind, d.Name)
	default:
		if d.Begin == nil {
			return string(d.Kind)
		}
		return fmt.Sprintf("%s /%s/", d.Kind, d.Begin.String())
	}
}

// ClassPattern returns the declaration pattern for a class named name:
// a line beginning a block introduction for that name.
func ClassPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`^class\s+` + regexp.QuoteMeta(name) + `\s*[(:]`)
}

// Probe asserts the presence of one release: a line of File matching Pattern.
type Probe struct {
	File    string
	Pattern *regexp.Regexp
}

// ComponentRelease is a release a component is known in.
type ComponentRelease struct {
	Name  string
	Probe Probe
	// Files lists the relevant target files, relative to the module directory.
	Files []string
}

// Component is one patched OpenStack project.
type Component struct {
	Name string
	// Module is the directory searched for under every search path.
	Module string
	// Releases is ordered newest first.
	Releases []ComponentRelease
	files    map[string][]Directive
}

// Release returns the named release entry of c.
func (c *Component) Release(name string) (ComponentRelease, bool) {
	for _, r := range c.Releases {
		if r.Name == name {
			return r, true
		}
	}
	return ComponentRelease{}, false
}

// Catalog is the immutable set of components.
type Catalog struct {
	components map[string]*Component
	order      []string
}

// ComponentNames returns the component names in catalog order.
func (c *Catalog) ComponentNames() []string {
	return append([]string(nil), c.order...)
}

// Component returns the named component.
func (c *Catalog) Component(name string) (*Component, error) {
	comp, ok := c.components[name]
	if !ok {
		names := append([]string(nil), c.order...)
		sort.Strings(names)
		return nil, fmt.Errorf(messages.CatalogUnknownComponentFmt, name, names)
	}
	return comp, nil
}

// Files returns the relevant files of component at release, in catalog order.
func (c *Catalog) Files(component string, release string) ([]string, error) {
	comp, err := c.Component(component)
	if err != nil {
		return nil, err
	}
	rel, ok := comp.Release(release)
	if !ok {
		return nil, fmt.Errorf(messages.CatalogUnknownReleaseFmt, component, release)
	}
	return append([]string(nil), rel.Files...), nil
}

// Directives returns the directives of file that apply to release, in catalog order.
func (c *Catalog) Directives(component string, release string, file string) ([]Directive, error) {
	comp, err := c.Component(component)
	if err != nil {
		return nil, err
	}
	all, ok := comp.files[file]
	if !ok {
		return nil, fmt.Errorf(messages.CatalogUnknownFileFmt, component, file)
	}
	out := make([]Directive, 0, len(all))
	for _, d := range all {
		if d.AppliesTo(release) {
			out = append(out, d)
		}
	}
	return out, nil
}

// ReferencePath returns the canonical reference copy of file for
// component at release under the drivers directory.
func ReferencePath(drivers string, component string, release string, file string) string {
	return filepath.Join(drivers, component, "openstack", release, filepath.FromSlash(file))
}
