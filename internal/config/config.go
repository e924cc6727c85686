// Package config loads sp-openstack settings from a TOML file, an optional
// env file and the process environment.
package config

// DefaultPath is read when no --config flag is given. It may be absent.
const DefaultPath = "/etc/sp-openstack/config.toml"

// Config is the full sp-openstack configuration.
type Config struct {
	// DriversDir holds the reference copies, <component>/openstack/<release>/<file>.
	DriversDir string `toml:"drivers_dir"`
	// SearchPaths replaces module path discovery when non-empty.
	SearchPaths []string `toml:"search_paths"`
	// Python is the interpreter queried for sys.path.
	Python string `toml:"python"`
	// Catalog replaces the built-in catalog when set.
	Catalog string `toml:"catalog"`
	// Components restricts processing to these components; empty means all.
	Components []string `toml:"components"`
	// LockFile serializes concurrent installs when set.
	LockFile  string          `toml:"lock_file"`
	Txn       TxnConfig       `toml:"txn"`
	Provision ProvisionConfig `toml:"provision"`
	Output    OutputConfig    `toml:"output"`
}

// TxnConfig configures the external transactional install helper.
type TxnConfig struct {
	Enabled bool     `toml:"enabled"`
	Command []string `toml:"command"`
	Module  string   `toml:"module"`
}

// ProvisionConfig configures the groups command.
type ProvisionConfig struct {
	Group     string   `toml:"group"`
	Users     []string `toml:"users"`
	SpoolDir  string   `toml:"spool_dir"`
	StateFile string   `toml:"state_file"`
}

// OutputConfig controls narration and diffs.
type OutputConfig struct {
	DiffMaxLines int  `toml:"diff_max_lines"`
	Verbose      bool `toml:"verbose"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DriversDir: "/usr/share/sp-openstack/drivers",
		Python:     "python3",
		LockFile:   "/run/lock/sp-openstack.lock",
		Txn: TxnConfig{
			Command: []string{"/usr/sbin/txn", "install"},
			Module:  "sp-openstack",
		},
		Provision: ProvisionConfig{
			Group:     "spopenstack",
			Users:     []string{"cinder", "nova"},
			SpoolDir:  "/var/spool/openstack-storpool",
			StateFile: "openstack-attach.json",
		},
		Output: OutputConfig{DiffMaxLines: 40},
	}
}
