package patch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/storpool/sp-openstack/internal/catalog"
	"github.com/storpool/sp-openstack/internal/detect"
	"github.com/storpool/sp-openstack/internal/fsutil"
	"github.com/storpool/sp-openstack/internal/messages"
	"github.com/storpool/sp-openstack/internal/region"
)

// Install writes the reference content into every relevant file of each
// component. The first error aborts the run; files already rewritten stay
// rewritten.
func (a *Applier) Install(matches map[string]detect.Match, components []string) error {
	if err := a.validate(); err != nil {
		return err
	}
	return fsutil.WithFileLock(a.LockPath, func() error {
		for _, component := range components {
			match, err := lookupMatch(matches, component)
			if err != nil {
				return err
			}
			jobs, err := a.jobs(component, match)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out(), messages.PatchComponentHeaderFmt, component, match.Release, match.Path)
			for _, job := range jobs {
				if job.isNewFile() {
					err = a.installNew(job)
				} else {
					err = a.installRegions(job)
				}
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (a *Applier) installNew(job fileJob) error {
	if _, err := a.System.Stat(job.reference); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf(messages.PatchFileMissingFmt, ErrCatalogInternal, job.reference)
		}
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, job.reference, err)
	}
	dir := filepath.Dir(job.target)
	if err := a.System.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, dir, err)
	}

	if a.Installer != nil {
		if err := a.Installer.InstallNew(NewFileMode, job.reference, job.target); err != nil {
			return fmt.Errorf(messages.PatchIOFmt, ErrIO, job.target, err)
		}
	} else {
		if err := a.copyFile(job.reference, job.target); err != nil {
			return err
		}
	}
	_, _ = fmt.Fprintf(a.out(), messages.PatchInstalledFileFmt, job.target)
	return nil
}

// copyFile copies src to dst through a temp file in dst's directory.
func (a *Applier) copyFile(src string, dst string) error {
	in, err := a.System.Open(src)
	if err != nil {
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, src, err)
	}
	defer func() {
		_ = in.Close()
	}()
	return a.publish(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}, func(tmp string) error {
		if err := a.System.Chmod(tmp, NewFileMode); err != nil {
			return err
		}
		return a.System.Rename(tmp, dst)
	})
}

func (a *Applier) installRegions(job fileJob) error {
	canonical, err := a.canonical(job)
	if err != nil {
		return err
	}
	current, err := a.System.ReadFile(job.target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf(messages.PatchFileMissingFmt, ErrTargetMissingOrStale, job.target)
		}
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, job.target, err)
	}
	res, err := region.Splice(bytes.NewReader(current), job.directives, canonical)
	if err != nil {
		if isRegionError(err) {
			return fmt.Errorf("%s: %w", job.target, err)
		}
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, job.target, err)
	}
	for _, idx := range res.Appended {
		if job.directives[idx].Kind == catalog.KindChunk {
			return fmt.Errorf(messages.PatchChunkMissingFmt, ErrTargetMissingOrStale, job.directives[idx], job.target)
		}
	}
	if bytes.Equal(res.Data, current) {
		_, _ = fmt.Fprintf(a.out(), messages.PatchUnchangedFmt, job.target)
		return nil
	}

	meta, err := a.System.ReadMeta(job.target)
	if err != nil {
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, job.target, err)
	}
	err = a.publish(job.target, func(w io.Writer) error {
		_, err := w.Write(res.Data)
		return err
	}, func(tmp string) error {
		if a.Installer != nil {
			if err := a.Installer.Swap(tmp, job.target); err != nil {
				return err
			}
			if err := a.System.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		}
		return a.System.Rename(tmp, job.target)
	})
	if err != nil {
		return err
	}
	if err := a.System.ApplyMeta(job.target, meta); err != nil {
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, job.target, err)
	}
	_, _ = fmt.Fprintf(a.out(), messages.PatchRewroteFileFmt, job.target, len(job.directives)-len(res.Appended), len(res.Appended))
	return nil
}

// publish writes a temp file next to dst with fill and hands it to swap.
// The temp file is removed if anything fails before swap completes.
func (a *Applier) publish(dst string, fill func(io.Writer) error, swap func(tmp string) error) error {
	dir := filepath.Dir(dst)
	tmp, err := a.System.CreateTemp(dir, "."+filepath.Base(dst)+".sp-openstack-*")
	if err != nil {
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, dir, err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		_ = a.System.Remove(tmpName)
		return fmt.Errorf(messages.PatchIOFmt, ErrIO, dst, err)
	}
	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := swap(tmpName); err != nil {
		return fail(err)
	}
	return nil
}
