// Package detect finds which historical OpenStack release of each component
// is installed under a list of search directories.
package detect

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/storpool/sp-openstack/internal/catalog"
	"github.com/storpool/sp-openstack/internal/messages"
)

var (
	// ErrComponentNotDetected reports a component found in no search path.
	ErrComponentNotDetected = errors.New("component not detected")
	// ErrAmbiguousRelease reports components disagreeing on the host release.
	ErrAmbiguousRelease = errors.New("ambiguous release")
)

// Match is where a component was found and which release it is.
type Match struct {
	Release string
	// Path is the module directory, <search path>/<module>.
	Path string
}

// Detection is the outcome of a detection run.
type Detection struct {
	Found   map[string]Match
	Missing []string
	order   []string
}

// Components returns the requested component names in request order.
func (d Detection) Components() []string {
	return append([]string(nil), d.order...)
}

// Common returns the single release shared by every requested component.
func (d Detection) Common() (string, error) {
	if len(d.Missing) > 0 {
		return "", fmt.Errorf(messages.DetectMissingFmt, ErrComponentNotDetected, strings.Join(d.Missing, ", "))
	}
	release := ""
	for _, name := range d.order {
		m := d.Found[name]
		if release == "" {
			release = m.Release
			continue
		}
		if m.Release != release {
			return "", fmt.Errorf(messages.DetectMixedFmt, ErrAmbiguousRelease, d.describe())
		}
	}
	return release, nil
}

func (d Detection) describe() string {
	parts := make([]string, 0, len(d.Found))
	for _, name := range d.order {
		if m, ok := d.Found[name]; ok {
			parts = append(parts, name+"="+m.Release)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// Detect locates every requested component. For each component the search
// paths are tried in priority order and, within one path, the releases newest
// first; the first probe that matches wins. It returns the detection along
// with the error of Detection.Common, so callers can report what was found
// before aborting.
func Detect(sys System, cat *catalog.Catalog, components []string, searchPaths []string) (Detection, error) {
	det := Detection{Found: make(map[string]Match, len(components))}
	for _, name := range components {
		comp, err := cat.Component(name)
		if err != nil {
			return Detection{}, err
		}
		det.order = append(det.order, name)
		match, ok, err := detectComponent(sys, comp, searchPaths)
		if err != nil {
			return Detection{}, err
		}
		if !ok {
			det.Missing = append(det.Missing, name)
			continue
		}
		det.Found[name] = match
	}
	_, err := det.Common()
	return det, err
}

func detectComponent(sys System, comp *catalog.Component, searchPaths []string) (Match, bool, error) {
	for _, search := range searchPaths {
		dir := filepath.Join(search, comp.Module)
		for _, rel := range comp.Releases {
			probe := filepath.Join(dir, filepath.FromSlash(rel.Probe.File))
			hit, err := probeMatches(sys, probe, rel.Probe.Pattern)
			if err != nil {
				return Match{}, false, err
			}
			if hit {
				return Match{Release: rel.Name, Path: dir}, true, nil
			}
		}
	}
	return Match{}, false, nil
}

// probeMatches scans path line by line for pattern. A probe file that does not
// exist does not match; any other open failure is an error.
func probeMatches(sys System, path string, pattern *regexp.Regexp) (bool, error) {
	file, err := sys.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf(messages.DetectReadProbeFmt, path, err)
	}
	defer func() {
		_ = file.Close()
	}()
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if pattern.MatchString(scanner.Text()) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf(messages.DetectReadProbeFmt, path, err)
	}
	return false, nil
}
