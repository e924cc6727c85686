package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/storpool/sp-openstack/internal/messages"
)

// Finalize expands "~" in every path, makes paths absolute and validates c.
func (c *Config) Finalize() error {
	paths := []*string{&c.DriversDir, &c.Catalog, &c.LockFile, &c.Provision.SpoolDir}
	for i := range c.SearchPaths {
		paths = append(paths, &c.SearchPaths[i])
	}
	for _, p := range paths {
		if err := expandPath(p); err != nil {
			return err
		}
	}
	return c.Validate()
}

func expandPath(p *string) error {
	if strings.TrimSpace(*p) == "" {
		return nil
	}
	expanded, err := homedir.Expand(*p)
	if err != nil {
		return fmt.Errorf(messages.ConfigExpandPathFmt, ErrConfigValidation, *p, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return fmt.Errorf(messages.ConfigExpandPathFmt, ErrConfigValidation, *p, err)
	}
	*p = abs
	return nil
}

// Validate reports the first invalid setting wrapped in ErrConfigValidation.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DriversDir) == "" {
		return errors.New(messages.ConfigDriversRequired)
	}
	if c.Output.DiffMaxLines < 0 {
		return fmt.Errorf(messages.ConfigDiffLinesFmt, c.Output.DiffMaxLines)
	}
	if c.Txn.Enabled && len(c.Txn.Command) == 0 {
		return errors.New(messages.ConfigTxnCommandNeeded)
	}
	if strings.TrimSpace(c.Provision.Group) == "" {
		return errors.New(messages.ConfigGroupRequired)
	}
	if c.Provision.StateFile != "" && (strings.ContainsRune(c.Provision.StateFile, '/') || c.Provision.StateFile == "." || c.Provision.StateFile == "..") {
		return fmt.Errorf(messages.ConfigStateFileFmt, c.Provision.StateFile)
	}
	return nil
}
