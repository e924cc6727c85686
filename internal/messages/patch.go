package messages

// Region and patch messages for extracting, verifying and installing vendor code.
const (
	RegionOpenedAtFmt       = "%w: %s opened at line %d"
	RegionDuplicateFmt      = "%w: %s matched again at line %d"
	RegionAmbiguousFmt      = "%w: %s and %s both begin at line %d"
	RegionOverlapFmt        = "%w: %s begins inside %s at line %d"
	RegionCanonicalCountFmt = "got %d canonical texts for %d directives"

	PatchCatalogRequired    = "catalog is required"
	PatchSystemRequired     = "filesystem is required"
	PatchDriversDirRequired = "drivers directory is required"

	PatchNoMatchFmt             = "%w: %s"
	PatchFileMissingFmt         = "%w: %s does not exist"
	PatchIOFmt                  = "%w: %s: %w"
	PatchReferenceUnresolvedFmt = "%w: %s not found in reference %s"
	PatchTargetUnresolvedFmt    = "%w: %s not found in %s"
	PatchChunkMissingFmt        = "%w: %s not found in %s; refusing to append a chunk"
	PatchRegionDiffersFmt       = "%w: %s differs in %s"
	PatchLengthDiffersFmt       = "%w: %s differs in length at byte %d"
	PatchByteDiffersFmt         = "%w: %s differs at byte %d"
	PatchDiffTruncatedFmt       = "... %d more lines of the %s diff not shown"
	PatchDiffInstalledFmt       = "%s (installed)"
	PatchDiffReferenceFmt       = "%s (reference)"

	// PatchReferenceAtEOFFmt notes a reference class block closed by the end of file.
	PatchReferenceAtEOFFmt  = "note: %s in %s runs to end of file\n"
	PatchComponentHeaderFmt = "%s (%s) at %s\n"
	PatchInstalledFileFmt   = "  installed %s\n"
	PatchUnchangedFmt       = "  %s is up to date\n"
	PatchRewroteFileFmt     = "  rewrote %s (%d replaced, %d appended)\n"
)
