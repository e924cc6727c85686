package patch

import (
	"fmt"

	"github.com/storpool/sp-openstack/internal/detect"
	"github.com/storpool/sp-openstack/internal/messages"
)

// Check verifies that every relevant file of each component already holds the
// reference content. Per-component failures are collected in the results;
// fatal errors (see IsFatal) abort the run. Check never modifies anything.
func (a *Applier) Check(matches map[string]detect.Match, components []string) ([]Result, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(components))
	for _, component := range components {
		match, err := lookupMatch(matches, component)
		if err != nil {
			return results, err
		}
		res := Result{Component: component, Release: match.Release, Path: match.Path}
		jobs, err := a.jobs(component, match)
		if err != nil {
			return results, err
		}
		for _, job := range jobs {
			diff, err := a.checkFile(job)
			if err == nil {
				continue
			}
			if IsFatal(err) {
				return results, err
			}
			res.Err = err
			res.Diff = diff
			break
		}
		results = append(results, res)
	}
	return results, nil
}

func (a *Applier) checkFile(job fileJob) (string, error) {
	if job.isNewFile() {
		return "", a.sameContent(job.reference, job.target)
	}

	want, err := a.canonical(job)
	if err != nil {
		return "", err
	}
	got, err := a.extract(job.target, job.directives, ErrTargetMissingOrStale)
	if err != nil {
		return "", err
	}
	for i, d := range job.directives {
		if !got[i].Matched {
			return "", fmt.Errorf(messages.PatchTargetUnresolvedFmt, ErrTargetMissingOrStale, d, job.target)
		}
		if got[i].Text != want[i] {
			diff := regionDiff(d, job.target, job.reference, got[i].Text, want[i], a.DiffMaxLines)
			return diff, fmt.Errorf(messages.PatchRegionDiffersFmt, ErrVerificationMismatch, d, job.target)
		}
	}
	return "", nil
}
