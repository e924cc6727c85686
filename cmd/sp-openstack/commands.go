package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/storpool/sp-openstack/internal/detect"
	"github.com/storpool/sp-openstack/internal/fsutil"
	"github.com/storpool/sp-openstack/internal/messages"
	"github.com/storpool/sp-openstack/internal/patch"
	"github.com/storpool/sp-openstack/internal/provision"
	"github.com/storpool/sp-openstack/internal/txn"
)

var (
	patchSystem     = func(t *fsutil.Tracker) patch.System { return patch.RealSystem{Tracker: t} }
	provisionSystem = func(t *fsutil.Tracker) provision.System { return provision.RealSystem{Tracker: t} }
	cleanupOnSignal = fsutil.CleanupOnSignal
)

func newDetectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.DetectUse,
		Short: messages.DetectShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			det, _, err := s.detect()
			printDetection(cmd.OutOrStdout(), det)
			return err
		},
	}
}

func printDetection(out io.Writer, det detect.Detection) {
	names := det.Components()
	if len(names) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, messages.DetectRowFmt, messages.DetectHeaderName, messages.DetectHeaderRelease, messages.DetectHeaderPath)
	for _, name := range names {
		m, ok := det.Found[name]
		if !ok {
			_, _ = fmt.Fprintf(out, messages.DetectRowFmt, name, "-", color.RedString(messages.DetectNotFound))
			continue
		}
		_, _ = fmt.Fprintf(out, messages.DetectRowFmt, name, m.Release, m.Path)
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.CheckUse,
		Short: messages.CheckShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			det, _, err := s.detect()
			if err != nil {
				return err
			}
			results, err := s.applier(patchSystem(nil)).Check(det.Found, det.Components())
			failed := printResults(cmd.OutOrStdout(), results, !opts.quiet)
			if err != nil {
				return err
			}
			if failed > 0 {
				_, _ = fmt.Fprintf(s.out, messages.CheckSummaryFmt, failed, len(results))
				return &SilentExitError{Code: 1}
			}
			_, _ = fmt.Fprint(s.out, messages.CheckPassed)
			return nil
		},
	}
}

// printResults writes one OK/FAIL line per component and returns the number
// of failures. Diffs are included when withDiff is set.
func printResults(out io.Writer, results []patch.Result, withDiff bool) int {
	failed := 0
	for _, r := range results {
		if r.OK() {
			_, _ = fmt.Fprintf(out, messages.CheckRowFmt, color.GreenString(messages.CheckLabelOK), r.Component, r.Release)
			continue
		}
		failed++
		_, _ = fmt.Fprintf(out, messages.CheckRowFmt, color.RedString(messages.CheckLabelFail), r.Component, r.Release)
		_, _ = fmt.Fprintf(out, messages.CheckDetailFmt, r.Message())
		if withDiff && r.Diff != "" {
			_, _ = fmt.Fprint(out, r.Diff)
		}
	}
	return failed
}

func newInstallCmd(opts *rootOptions) *cobra.Command {
	var withGroups bool
	cmd := &cobra.Command{
		Use:   messages.InstallUse,
		Short: messages.InstallShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			det, release, err := s.detect()
			if err != nil {
				return err
			}

			tracker, stop := opts.trackTemps()
			defer stop()

			a := s.applier(patchSystem(tracker))
			a.LockPath = s.cfg.LockFile
			if s.cfg.Txn.Enabled {
				a.Installer = txn.Exec{Command: s.cfg.Txn.Command, Module: s.cfg.Txn.Module}
			}
			if err := a.Install(det.Found, det.Components()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(s.out, messages.InstallDoneFmt, strings.Join(det.Components(), ", "), release)
			if withGroups {
				return s.provision(tracker)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withGroups, "groups", false, messages.FlagGroups)
	return cmd
}

func newGroupsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.GroupsUse,
		Short: messages.GroupsShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			tracker, stop := opts.trackTemps()
			defer stop()
			return s.provision(tracker)
		},
	}
}

// trackTemps returns a temp file tracker that is emptied if the process is
// interrupted, and the function that stops watching for signals.
func (opts *rootOptions) trackTemps() (*fsutil.Tracker, func()) {
	exit := opts.exit
	if exit == nil {
		exit = os.Exit
	}
	tracker := fsutil.NewTracker()
	return tracker, cleanupOnSignal(tracker, exit)
}

// provision ensures the service group and spool directory, narrating changes.
func (s *session) provision(tracker *fsutil.Tracker) error {
	p := s.cfg.Provision
	actions, err := provision.Ensure(provisionSystem(tracker), provision.Options{
		Group:     p.Group,
		Users:     p.Users,
		SpoolDir:  p.SpoolDir,
		StateFile: p.StateFile,
	})
	for _, action := range actions {
		_, _ = fmt.Fprintf(s.out, messages.GroupsActionFmt, action)
	}
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		_, _ = fmt.Fprint(s.out, messages.GroupsNothingToDo)
	}
	return nil
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.CatalogUse,
		Short: messages.CatalogShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, messages.CatalogLocationFmt, s.cfg.DriversDir)
			for _, name := range s.components {
				comp, err := s.catalog.Component(name)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, messages.CatalogComponentFmt, comp.Name, comp.Module)
				for _, rel := range comp.Releases {
					_, _ = fmt.Fprintf(out, messages.CatalogReleaseFmt, rel.Name, strings.Join(rel.Files, ", "))
				}
			}
			return nil
		},
	}
}

// applier builds a patch applier over sys from the session configuration.
func (s *session) applier(sys patch.System) *patch.Applier {
	return &patch.Applier{
		Catalog:      s.catalog,
		DriversDir:   s.cfg.DriversDir,
		System:       sys,
		Out:          s.out,
		Verbose:      s.cfg.Output.Verbose,
		DiffMaxLines: s.cfg.Output.DiffMaxLines,
	}
}
