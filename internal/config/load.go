package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/storpool/sp-openstack/internal/messages"
)

// ErrConfigValidation is a sentinel that wraps config validation failures
// (as opposed to TOML syntax, filesystem, or other loading errors).
var ErrConfigValidation = errors.New("config validation failed")

// Options selects the configuration sources.
type Options struct {
	// Path is the TOML file. When Required is false a missing file is skipped.
	Path     string
	Required bool
	// EnvFile is an optional env file of SP_OPENSTACK_* assignments.
	EnvFile string
	// Environ is the process environment, as returned by os.Environ.
	Environ []string
}

// Load builds a Config from defaults, the TOML file, the env file and the
// process environment, each overriding the previous one. The result is not
// finalized; callers apply flags and then call Finalize.
func Load(opts Options) (*Config, error) {
	cfg := Default()
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		switch {
		case err == nil:
			if err := parseInto(cfg, data, opts.Path); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist) && !opts.Required:
		default:
			return nil, fmt.Errorf(messages.ConfigReadFmt, opts.Path, err)
		}
	}
	if opts.EnvFile != "" {
		env, err := LoadEnv(opts.EnvFile)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyEnv(env); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(EnvFromEnviron(opts.Environ)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig parses config TOML data over the defaults.
// data is the TOML content; source is used in error messages.
func ParseConfig(data []byte, source string) (*Config, error) {
	cfg := Default()
	if err := parseInto(cfg, data, source); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseInto(cfg *Config, data []byte, source string) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf(messages.ConfigReadFmt, source, err)
	}
	if err := decodeStrict(data); err != nil {
		return fmt.Errorf(messages.ConfigInvalidFmt, ErrConfigValidation, source, err)
	}
	return nil
}

// decodeStrict re-decodes the TOML data with strict unknown-field rejection.
func decodeStrict(data []byte) error {
	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(&cfg)
}
