package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/storpool/sp-openstack/internal/catalog"
	"github.com/storpool/sp-openstack/internal/config"
	"github.com/storpool/sp-openstack/internal/detect"
	"github.com/storpool/sp-openstack/internal/messages"
	"github.com/storpool/sp-openstack/internal/modpath"
	"github.com/storpool/sp-openstack/internal/terminal"
)

var (
	environFn       = os.Environ
	discoverFn      = modpath.Discover
	modpathRunner   = modpath.Runner(modpath.ExecRunner)
	detectSystem    = func() detect.System { return detect.RealSystem{} }
	isTerminal      = terminal.IsTerminal
	defaultConfigFn = func() string { return config.DefaultPath }
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	envFile     string
	driversDir  string
	catalogPath string
	searchPaths []string
	components  []string
	quiet       bool
	noColor     bool
	verbose     bool
	exit        func(int)
}

func newRootCmd(exit func(int)) *cobra.Command {
	opts := &rootOptions{exit: exit}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().Bool("version", false, messages.RootVersionFlag)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", messages.FlagConfig)
	flags.StringVar(&opts.envFile, "env-file", "", messages.FlagEnvFile)
	flags.StringVar(&opts.driversDir, "drivers-dir", "", messages.FlagDriversDir)
	flags.StringVar(&opts.catalogPath, "catalog", "", messages.FlagCatalog)
	flags.StringArrayVar(&opts.searchPaths, "search-path", nil, messages.FlagSearchPath)
	flags.StringArrayVar(&opts.components, "component", nil, messages.FlagComponent)
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, messages.FlagQuiet)
	flags.BoolVar(&opts.noColor, "no-color", false, messages.FlagNoColor)
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, messages.FlagVerbose)

	cmd.AddCommand(
		newDetectCmd(opts),
		newCheckCmd(opts),
		newInstallCmd(opts),
		newGroupsCmd(opts),
		newCatalogCmd(opts),
	)
	return cmd
}

// session is the resolved configuration of one invocation.
type session struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	components []string
	out        io.Writer
}

// load resolves configuration and the catalog. Flags override the config
// file, the env file and the environment.
func (o *rootOptions) load(cmd *cobra.Command) (*session, error) {
	color.NoColor = o.noColor || !isTerminal(cmd.OutOrStdout())

	path, required := o.configPath, true
	if path == "" {
		path, required = defaultConfigFn(), false
	}
	cfg, err := config.Load(config.Options{
		Path:     path,
		Required: required,
		EnvFile:  o.envFile,
		Environ:  environFn(),
	})
	if err != nil {
		return nil, err
	}
	if o.driversDir != "" {
		cfg.DriversDir = o.driversDir
	}
	if o.catalogPath != "" {
		cfg.Catalog = o.catalogPath
	}
	if len(o.searchPaths) > 0 {
		cfg.SearchPaths = append([]string(nil), o.searchPaths...)
	}
	if len(o.components) > 0 {
		cfg.Components = append([]string(nil), o.components...)
	}
	if o.verbose {
		cfg.Output.Verbose = true
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	var cat *catalog.Catalog
	if cfg.Catalog != "" {
		cat, err = catalog.Load(cfg.Catalog)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, err
	}

	components := cfg.Components
	if len(components) == 0 {
		components = cat.ComponentNames()
	}
	for _, name := range components {
		if _, err := cat.Component(name); err != nil {
			return nil, err
		}
	}

	out := cmd.OutOrStdout()
	if o.quiet {
		out = io.Discard
	}
	return &session{cfg: cfg, catalog: cat, components: components, out: out}, nil
}

// searchPaths returns the configured search paths or asks the interpreter.
func (s *session) searchPaths() ([]string, error) {
	if len(s.cfg.SearchPaths) > 0 {
		return s.cfg.SearchPaths, nil
	}
	return discoverFn(modpathRunner, s.cfg.Python)
}

// detect runs release detection over the session's components.
func (s *session) detect() (detect.Detection, string, error) {
	paths, err := s.searchPaths()
	if err != nil {
		return detect.Detection{}, "", err
	}
	det, err := detect.Detect(detectSystem(), s.catalog, s.components, paths)
	if err != nil {
		return det, "", err
	}
	release, err := det.Common()
	return det, release, err
}
