package messages

// Config messages for loading and validating configuration.
const (
	ConfigReadFmt          = "failed to read config %s: %w"
	ConfigInvalidFmt       = "%w: %s: %w"
	ConfigEnvFileFmt       = "failed to read env file %s: %w"
	ConfigEnvBoolFmt       = "%w: %s=%q is not a boolean"
	ConfigEnvIntFmt        = "%w: %s=%q is not an integer"
	ConfigExpandPathFmt    = "%w: %s: %w"
	ConfigDriversRequired  = "drivers_dir is required"
	ConfigDiffLinesFmt     = "output.diff_max_lines must not be negative, got %d"
	ConfigTxnCommandNeeded = "txn.command is required when txn.enabled is true"
	ConfigGroupRequired    = "provision.group is required"
	ConfigStateFileFmt     = "provision.state_file must be a plain file name, got %q"
)
