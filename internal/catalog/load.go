package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/storpool/sp-openstack/internal/messages"
)

// ErrCatalogInvalid wraps every structural problem found while loading a catalog.
var ErrCatalogInvalid = errors.New("invalid catalog")

//go:embed catalog.toml
var defaultCatalog []byte

type fileSpec struct {
	Components []componentSpec `toml:"component"`
}

type componentSpec struct {
	Name     string        `toml:"name"`
	Module   string        `toml:"module"`
	Releases []releaseSpec `toml:"release"`
	Files    []targetSpec  `toml:"file"`
}

type releaseSpec struct {
	Name      string   `toml:"name"`
	ProbeFile string   `toml:"probe_file"`
	Probe     string   `toml:"probe"`
	Files     []string `toml:"files"`
}

type targetSpec struct {
	Path       string          `toml:"path"`
	Directives []directiveSpec `toml:"directive"`
}

type directiveSpec struct {
	Kind     string   `toml:"kind"`
	Begin    string   `toml:"begin"`
	End      string   `toml:"end"`
	Name     string   `toml:"name"`
	Releases []string `toml:"releases"`
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog, "embedded catalog.toml")
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.CatalogReadFmt, path, err)
	}
	return Parse(data, path)
}

// Parse decodes catalog TOML, rejecting unknown keys, and validates it.
// source is used in error messages.
func Parse(data []byte, source string) (*Catalog, error) {
	var doc fileSpec
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: "+messages.CatalogDecodeFmt, ErrCatalogInvalid, source, err)
	}
	cat, err := build(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogInvalid, source, err)
	}
	return cat, nil
}

func build(doc fileSpec) (*Catalog, error) {
	if len(doc.Components) == 0 {
		return nil, errors.New(messages.CatalogNoComponents)
	}
	cat := &Catalog{components: make(map[string]*Component, len(doc.Components))}
	for _, cs := range doc.Components {
		comp, err := buildComponent(cs)
		if err != nil {
			return nil, err
		}
		if _, dup := cat.components[comp.Name]; dup {
			return nil, fmt.Errorf(messages.CatalogDuplicateComponentFmt, comp.Name)
		}
		cat.components[comp.Name] = comp
		cat.order = append(cat.order, comp.Name)
	}
	return cat, nil
}

func buildComponent(cs componentSpec) (*Component, error) {
	name := strings.TrimSpace(cs.Name)
	if name == "" {
		return nil, errors.New(messages.CatalogComponentNameRequired)
	}
	comp := &Component{
		Name:   name,
		Module: strings.TrimSpace(cs.Module),
		files:  make(map[string][]Directive, len(cs.Files)),
	}
	if comp.Module == "" {
		comp.Module = name
	}

	for _, ts := range cs.Files {
		if ts.Path == "" {
			return nil, fmt.Errorf(messages.CatalogFilePathRequiredFmt, name)
		}
		if _, dup := comp.files[ts.Path]; dup {
			return nil, fmt.Errorf(messages.CatalogDuplicateFileFmt, name, ts.Path)
		}
		directives, err := buildDirectives(ts)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", name, ts.Path, err)
		}
		comp.files[ts.Path] = directives
	}

	if len(cs.Releases) == 0 {
		return nil, fmt.Errorf(messages.CatalogNoReleasesFmt, name)
	}
	last := -1
	for _, rs := range cs.Releases {
		idx := ReleaseIndex(rs.Name)
		if idx < 0 {
			return nil, fmt.Errorf(messages.CatalogUnknownReleaseNameFmt, name, rs.Name)
		}
		if idx <= last {
			return nil, fmt.Errorf(messages.CatalogReleaseOrderFmt, name, rs.Name)
		}
		last = idx
		if rs.ProbeFile == "" || rs.Probe == "" {
			return nil, fmt.Errorf(messages.CatalogProbeRequiredFmt, name, rs.Name)
		}
		probe, err := regexp.Compile(rs.Probe)
		if err != nil {
			return nil, fmt.Errorf(messages.CatalogBadPatternFmt, name, rs.Name, err)
		}
		for _, f := range rs.Files {
			directives, ok := comp.files[f]
			if !ok {
				return nil, fmt.Errorf(messages.CatalogReleaseFileFmt, name, rs.Name, f)
			}
			if !anyApplies(directives, rs.Name) {
				return nil, fmt.Errorf(messages.CatalogReleaseNoDirectivesFmt, name, rs.Name, f)
			}
		}
		comp.Releases = append(comp.Releases, ComponentRelease{
			Name:  rs.Name,
			Probe: Probe{File: rs.ProbeFile, Pattern: probe},
			Files: append([]string(nil), rs.Files...),
		})
	}
	return comp, nil
}

func buildDirectives(ts targetSpec) ([]Directive, error) {
	if len(ts.Directives) == 0 {
		return nil, errors.New(messages.CatalogNoDirectives)
	}
	out := make([]Directive, 0, len(ts.Directives))
	for i, ds := range ts.Directives {
		d, err := buildDirective(ds)
		if err != nil {
			return nil, fmt.Errorf(messages.CatalogDirectiveFmt, i, err)
		}
		for _, r := range d.Releases {
			if ReleaseIndex(r) < 0 {
				return nil, fmt.Errorf(messages.CatalogDirectiveReleaseFmt, i, r)
			}
		}
		out = append(out, d)
	}
	for _, d := range out {
		if d.Kind == KindNewFile && len(out) > 1 {
			return nil, errors.New(messages.CatalogNewFileAlone)
		}
	}
	return out, nil
}

func buildDirective(ds directiveSpec) (Directive, error) {
	d := Directive{Kind: Kind(ds.Kind), Releases: append([]string(nil), ds.Releases...)}
	switch d.Kind {
	case KindNewFile:
		if ds.Begin != "" || ds.End != "" || ds.Name != "" {
			return Directive{}, errors.New(messages.CatalogNewFileFields)
		}
	case KindChunk:
		if ds.Begin == "" || ds.End == "" {
			return Directive{}, errors.New(messages.CatalogChunkFields)
		}
		if ds.Name != "" {
			return Directive{}, errors.New(messages.CatalogChunkName)
		}
		var err error
		if d.Begin, err = regexp.Compile(ds.Begin); err != nil {
			return Directive{}, err
		}
		if d.End, err = regexp.Compile(ds.End); err != nil {
			return Directive{}, err
		}
	case KindClassBlock:
		if ds.Name == "" || ds.Begin != "" || ds.End != "" {
			return Directive{}, errors.New(messages.CatalogClassFields)
		}
		d.Name = ds.Name
		d.Begin = ClassPattern(ds.Name)
	default:
		return Directive{}, fmt.Errorf(messages.CatalogUnknownKindFmt, ds.Kind)
	}
	return d, nil
}

func anyApplies(directives []Directive, release string) bool {
	for _, d := range directives {
		if d.AppliesTo(release) {
			return true
		}
	}
	return false
}
