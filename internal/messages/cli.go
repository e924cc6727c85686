package messages

// CLI messages for user-facing commands.
const (
	// RootUse is the CLI command name.
	RootUse   = "sp-openstack"
	RootShort = "Install StorPool drivers into OpenStack components"
	RootLong  = `sp-openstack detects which OpenStack release is installed and checks or
installs the StorPool driver code into cinder, nova and os-brick.`
	RootVersionFlag = "Print version and exit"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	FlagConfig     = "Path to the TOML configuration file"
	FlagEnvFile    = "Path to an env file with SP_OPENSTACK_* overrides"
	FlagDriversDir = "Directory holding the reference driver files"
	FlagCatalog    = "Path to a catalog TOML file replacing the built-in one"
	FlagSearchPath = "Directory to search for component modules (repeatable)"
	FlagComponent  = "Component to process (repeatable; default all)"
	FlagQuiet      = "Suppress narration"
	FlagNoColor    = "Disable colored output"
	FlagVerbose    = "Print notes about reference files"
	FlagGroups     = "Provision the service group and spool directory after installing"

	DetectUse    = "detect"
	DetectShort  = "Show the detected OpenStack release of each component"
	CheckUse     = "check"
	CheckShort   = "Verify that the StorPool driver code is installed"
	InstallUse   = "install"
	InstallShort = "Install the StorPool driver code"
	GroupsUse    = "groups"
	GroupsShort  = "Ensure the service group, memberships and spool directory exist"
	CatalogUse   = "catalog"
	CatalogShort = "List the catalog: components, releases and patched files"

	DetectRowFmt        = "%-10s %-8s %s\n"
	DetectHeaderRelease = "release"
	DetectHeaderPath    = "path"
	DetectHeaderName    = "component"
	DetectNotFound      = "not found"

	CheckLabelOK    = "OK"
	CheckLabelFail  = "FAIL"
	CheckRowFmt     = "%s %s (%s)\n"
	CheckDetailFmt  = "    %s\n"
	CheckSummaryFmt = "%d of %d components need attention\n"
	CheckPassed     = "all components are up to date\n"

	InstallDoneFmt    = "installed StorPool drivers for %s release %s\n"
	GroupsActionFmt   = "  %s\n"
	GroupsNothingToDo = "groups and spool directory already in place\n"

	CatalogComponentFmt = "%s (module %s)\n"
	CatalogReleaseFmt   = "  %s: %s\n"
	CatalogLocationFmt  = "drivers: %s\n"
)
