package messages

// System messages for filesystem helpers, detection and external commands.
const (
	FsutilWriteTempFmt   = "failed to write temp file %s: %w"
	FsutilSyncTempFmt    = "failed to sync temp file %s: %w"
	FsutilChmodTempFmt   = "failed to chmod temp file %s: %w"
	FsutilCloseTempFmt   = "failed to close temp file %s: %w"
	FsutilRenameFmt      = "failed to rename %s to %s: %w"
	FsutilLockDirFmt     = "failed to create directory for lock file %s: %w"
	FsutilOpenLockFmt    = "failed to open lock file %s: %w"
	FsutilLockFmt        = "failed to lock %s: %w"
	FsutilLockTimeoutFmt = "timed out after %s waiting for the install lock; another sp-openstack run may be in progress"
	FsutilChmodFmt       = "failed to chmod %s: %w"
	FsutilChownFmt       = "failed to chown %s: %w"

	DetectMissingFmt   = "%w: %s"
	DetectMixedFmt     = "%w: %s"
	DetectReadProbeFmt = "failed to read probe file %s: %w"

	TxnCommandRequired = "transactional install command is required"
	TxnRunFmt          = "%s: %w"
	TxnRunDetailFmt    = "%s: %w: %s"

	ModpathPythonRequired = "python interpreter is required"
	ModpathRunFmt         = "failed to query module search path with %s: %w"
	ModpathNone           = "no module search path directories found; pass --search-path"

	ProvisionGroupRequired     = "provision group is required"
	ProvisionSpoolRequired     = "provision spool directory is required"
	ProvisionLookupGroupFmt    = "failed to look up group %s: %w"
	ProvisionAddGroupFmt       = "failed to create group %s: %w"
	ProvisionLookupUserFmt     = "failed to look up user %s: %w"
	ProvisionAddMemberFmt      = "failed to add %s to group %s: %w"
	ProvisionMkdirFmt          = "failed to create %s: %w"
	ProvisionWriteFmt          = "failed to write %s: %w"
	ProvisionOwnFmt            = "failed to set ownership of %s: %w"
	ProvisionCommandFmt        = "%s: %w: %s"
	ProvisionCreatedGroupFmt   = "created group %s"
	ProvisionAddedMemberFmt    = "added %s to group %s"
	ProvisionSkippedUserFmt    = "skipped %s: no such user"
	ProvisionCreatedFmt        = "created %s"
	ProvisionFixedOwnershipFmt = "set %s to %s root:%s"
)
