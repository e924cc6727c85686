package patch

import (
	"errors"

	"github.com/storpool/sp-openstack/internal/region"
)

var (
	// ErrCatalogInternal reports a reference file that does not resolve every
	// directive: a packaging bug, not a problem with the target.
	ErrCatalogInternal = errors.New("catalog internal error")
	// ErrTargetMissingOrStale reports a live target that is absent or lacks a
	// region it is expected to contain.
	ErrTargetMissingOrStale = errors.New("target missing or stale")
	// ErrVerificationMismatch reports live content differing from the reference.
	ErrVerificationMismatch = errors.New("verification mismatch")
	// ErrIO reports an unexpected filesystem failure.
	ErrIO = errors.New("i/o failure")
)

// IsFatal reports whether err must abort the whole run rather than be
// recorded against a single component.
func IsFatal(err error) bool {
	for _, target := range []error{
		ErrCatalogInternal,
		ErrIO,
		region.ErrDuplicateMatch,
		region.ErrUnterminatedRegion,
		region.ErrAmbiguousMatch,
		region.ErrUnsupportedDirective,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isRegionError(err error) bool {
	return errors.Is(err, region.ErrDuplicateMatch) ||
		errors.Is(err, region.ErrUnterminatedRegion) ||
		errors.Is(err, region.ErrAmbiguousMatch) ||
		errors.Is(err, region.ErrUnsupportedDirective)
}
