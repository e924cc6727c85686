// Package patch verifies and installs vendor code into the files of detected
// OpenStack components, one file at a time.
package patch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/storpool/sp-openstack/internal/catalog"
	"github.com/storpool/sp-openstack/internal/detect"
	"github.com/storpool/sp-openstack/internal/messages"
	"github.com/storpool/sp-openstack/internal/region"
	"github.com/storpool/sp-openstack/internal/txn"
)

// NewFileMode is the permission given to vendor files installed whole.
const NewFileMode os.FileMode = 0o644

// Applier checks or installs the catalog's directives for detected components.
type Applier struct {
	Catalog *catalog.Catalog
	// DriversDir holds the reference tree, <component>/openstack/<release>/<file>.
	DriversDir string
	System     System
	// Installer, when set, publishes files instead of a direct rename.
	Installer txn.Installer
	// Out receives install narration and warnings; nil discards them.
	Out io.Writer
	// Verbose adds notes about reference class blocks that run to end of file.
	Verbose      bool
	DiffMaxLines int
	// LockPath, when set, is held under an exclusive lock for the whole install.
	LockPath string
}

// Result is the check outcome for one component. Err is nil on success.
type Result struct {
	Component string
	Release   string
	Path      string
	Err       error
	// Diff is a unified diff of the first mismatching region, if any.
	Diff string
}

// OK reports whether the component passed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Message returns the one-line failure description, or "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return strings.Join(strings.Fields(r.Err.Error()), " ")
}

func (a *Applier) validate() error {
	if a.Catalog == nil {
		return errors.New(messages.PatchCatalogRequired)
	}
	if a.System == nil {
		return errors.New(messages.PatchSystemRequired)
	}
	if strings.TrimSpace(a.DriversDir) == "" {
		return errors.New(messages.PatchDriversDirRequired)
	}
	return nil
}

func (a *Applier) out() io.Writer {
	if a.Out == nil {
		return io.Discard
	}
	return a.Out
}

// fileJob is one relevant file of one detected component.
type fileJob struct {
	component  string
	release    string
	file       string
	reference  string
	target     string
	directives []catalog.Directive
}

func (a *Applier) jobs(component string, match detect.Match) ([]fileJob, error) {
	files, err := a.Catalog.Files(component, match.Release)
	if err != nil {
		return nil, err
	}
	jobs := make([]fileJob, 0, len(files))
	for _, file := range files {
		directives, err := a.Catalog.Directives(component, match.Release, file)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, fileJob{
			component:  component,
			release:    match.Release,
			file:       file,
			reference:  catalog.ReferencePath(a.DriversDir, component, match.Release, file),
			target:     filepath.Join(match.Path, filepath.FromSlash(file)),
			directives: directives,
		})
	}
	return jobs, nil
}

func (j fileJob) isNewFile() bool {
	return len(j.directives) == 1 && j.directives[0].Kind == catalog.KindNewFile
}

func lookupMatch(matches map[string]detect.Match, component string) (detect.Match, error) {
	match, ok := matches[component]
	if !ok {
		return detect.Match{}, fmt.Errorf(messages.PatchNoMatchFmt, detect.ErrComponentNotDetected, component)
	}
	return match, nil
}

// extract resolves directives in the file at path. A missing file yields
// missing; region errors pass through; anything else is ErrIO.
func (a *Applier) extract(path string, directives []catalog.Directive, missing error) ([]region.Region, error) {
	file, err := a.System.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf(messages.PatchFileMissingFmt, missing, path)
		}
		return nil, fmt.Errorf(messages.PatchIOFmt, ErrIO, path, err)
	}
	defer func() {
		_ = file.Close()
	}()
	regions, err := region.Extract(file, directives)
	if err != nil {
		if isRegionError(err) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf(messages.PatchIOFmt, ErrIO, path, err)
	}
	return regions, nil
}

// canonical extracts the reference text of every directive of job.
func (a *Applier) canonical(job fileJob) ([]string, error) {
	regions, err := a.extract(job.reference, job.directives, ErrCatalogInternal)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(regions))
	for i, r := range regions {
		if !r.Matched {
			return nil, fmt.Errorf(messages.PatchReferenceUnresolvedFmt, ErrCatalogInternal, job.directives[i], job.reference)
		}
		if r.AtEOF && a.Verbose {
			_, _ = fmt.Fprintf(a.out(), messages.PatchReferenceAtEOFFmt, job.directives[i], job.reference)
		}
		texts[i] = r.Text
	}
	return texts, nil
}

// sameContent compares two files byte by byte, stopping at the first difference.
func (a *Applier) sameContent(reference string, target string) error {
	ref, err := a.System.Open(reference)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf(messages.PatchFileMissingFmt, ErrCatalogInternal, reference)
		}
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, reference, err)
	}
	defer func() {
		_ = ref.Close()
	}()
	live, err := a.System.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf(messages.PatchFileMissingFmt, ErrTargetMissingOrStale, target)
		}
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, target, err)
	}
	defer func() {
		_ = live.Close()
	}()

	want := bufio.NewReader(ref)
	got := bufio.NewReader(live)
	for offset := int64(0); ; offset++ {
		wb, werr := want.ReadByte()
		gb, gerr := got.ReadByte()
		if werr != nil && !errors.Is(werr, io.EOF) {
			return fmt.Errorf(messages.PatchIOFmt, ErrIO, reference, werr)
		}
		if gerr != nil && !errors.Is(gerr, io.EOF) {
			return fmt.Errorf(messages.PatchIOFmt, ErrIO, target, gerr)
		}
		wEOF, gEOF := werr != nil, gerr != nil
		if wEOF && gEOF {
			return nil
		}
		if wEOF != gEOF {
			return fmt.Errorf(messages.PatchLengthDiffersFmt, ErrVerificationMismatch, target, offset)
		}
		if wb != gb {
			return fmt.Errorf(messages.PatchByteDiffersFmt, ErrVerificationMismatch, target, offset)
		}
	}
}
