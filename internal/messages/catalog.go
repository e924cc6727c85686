package messages

// Catalog messages for loading and querying the directive catalog.
const (
	CatalogReadFmt                = "failed to read catalog %s: %w"
	CatalogDecodeFmt              = "%s: %w"
	CatalogNoComponents           = "no components defined"
	CatalogComponentNameRequired  = "component name is required"
	CatalogDuplicateComponentFmt  = "duplicate component %q"
	CatalogFilePathRequiredFmt    = "component %s: file path is required"
	CatalogDuplicateFileFmt       = "component %s: duplicate file %q"
	CatalogNoReleasesFmt          = "component %s: no releases defined"
	CatalogUnknownReleaseNameFmt  = "component %s: unknown release %q"
	CatalogReleaseOrderFmt        = "component %s: release %s is out of order (releases must be listed newest first, without repeats)"
	CatalogProbeRequiredFmt       = "component %s release %s: probe_file and probe are required"
	CatalogBadPatternFmt          = "component %s release %s: bad probe pattern: %w"
	CatalogReleaseFileFmt         = "component %s release %s: file %q has no [[component.file]] entry"
	CatalogReleaseNoDirectivesFmt = "component %s release %s: no directive of %q applies to this release"

	CatalogNoDirectives        = "no directives defined"
	CatalogDirectiveFmt        = "directive %d: %w"
	CatalogDirectiveReleaseFmt = "directive %d: unknown release %q"
	CatalogNewFileAlone        = "a new-file directive must be the only directive of its file"
	CatalogNewFileFields       = "new-file directives take no begin, end or name"
	CatalogChunkFields         = "chunk directives require begin and end"
	CatalogChunkName           = "chunk directives take no name"
	CatalogClassFields         = "class directives require name and take no begin or end"
	CatalogUnknownKindFmt      = "unknown directive kind %q (expected new, chunk or class)"

	// CatalogUnknownComponentFmt formats a lookup of a component the catalog does not define.
	CatalogUnknownComponentFmt = "unknown component %q (known: %v)"
	CatalogUnknownReleaseFmt   = "component %s is not known in release %s"
	CatalogUnknownFileFmt      = "component %s has no file %q"
)
