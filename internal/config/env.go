package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/storpool/sp-openstack/internal/messages"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "SP_OPENSTACK_"

// Environment overrides.
const (
	EnvDriversDir   = EnvPrefix + "DRIVERS_DIR"
	EnvSearchPath   = EnvPrefix + "SEARCH_PATH"
	EnvPython       = EnvPrefix + "PYTHON"
	EnvCatalog      = EnvPrefix + "CATALOG"
	EnvComponents   = EnvPrefix + "COMPONENTS"
	EnvLockFile     = EnvPrefix + "LOCK_FILE"
	EnvTxn          = EnvPrefix + "TXN"
	EnvTxnCommand   = EnvPrefix + "TXN_COMMAND"
	EnvTxnModule    = EnvPrefix + "TXN_MODULE"
	EnvGroup        = EnvPrefix + "GROUP"
	EnvSpoolDir     = EnvPrefix + "SPOOL_DIR"
	EnvDiffMaxLines = EnvPrefix + "DIFF_MAX_LINES"
)

// LoadEnv reads an env file into a key-value map restricted to SP_OPENSTACK_ keys.
func LoadEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigEnvFileFmt, path, err)
	}
	return filterEnv(env), nil
}

// EnvFromEnviron converts KEY=VALUE pairs into a map restricted to SP_OPENSTACK_ keys.
func EnvFromEnviron(environ []string) map[string]string {
	env := make(map[string]string)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if ok {
			env[key] = value
		}
	}
	return filterEnv(env)
}

func filterEnv(env map[string]string) map[string]string {
	filtered := make(map[string]string, len(env))
	for key, value := range env {
		if strings.HasPrefix(key, EnvPrefix) {
			filtered[key] = value
		}
	}
	return filtered
}

// ApplyEnv overrides c with the recognised keys of env. Empty values are ignored.
func (c *Config) ApplyEnv(env map[string]string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(env[key]); v != "" {
			*dst = v
		}
	}
	str(EnvDriversDir, &c.DriversDir)
	str(EnvPython, &c.Python)
	str(EnvCatalog, &c.Catalog)
	str(EnvLockFile, &c.LockFile)
	str(EnvTxnModule, &c.Txn.Module)
	str(EnvGroup, &c.Provision.Group)
	str(EnvSpoolDir, &c.Provision.SpoolDir)

	if v := strings.TrimSpace(env[EnvSearchPath]); v != "" {
		c.SearchPaths = filepath.SplitList(v)
	}
	if v := strings.TrimSpace(env[EnvComponents]); v != "" {
		c.Components = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	}
	if v := strings.TrimSpace(env[EnvTxnCommand]); v != "" {
		c.Txn.Command = strings.Fields(v)
	}
	if v := strings.TrimSpace(env[EnvTxn]); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf(messages.ConfigEnvBoolFmt, ErrConfigValidation, EnvTxn, v)
		}
		c.Txn.Enabled = enabled
	}
	if v := strings.TrimSpace(env[EnvDiffMaxLines]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf(messages.ConfigEnvIntFmt, ErrConfigValidation, EnvDiffMaxLines, v)
		}
		c.Output.DiffMaxLines = n
	}
	return nil
}
