// Package provision prepares the host for the StorPool attach helpers: a
// service group, its member accounts, and a shared spool directory holding a
// JSON state file.
package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/storpool/sp-openstack/internal/fsutil"
	"github.com/storpool/sp-openstack/internal/messages"
)

const (
	// DirMode is the spool directory mode.
	DirMode os.FileMode = 0o770
	// StateMode is the state file mode.
	StateMode os.FileMode = 0o660
	rootUID               = 0
)

// InitialState is written to a state file that does not exist yet.
var InitialState = []byte("{}\n")

// Options names what Ensure provisions.
type Options struct {
	Group string
	// Users are added to Group; accounts missing on this host are skipped.
	Users    []string
	SpoolDir string
	// StateFile is a file name inside SpoolDir; empty skips it.
	StateFile string
}

// Ensure makes the host match opts and returns one line per change made.
// Running it again on a provisioned host changes nothing.
func Ensure(sys System, opts Options) ([]string, error) {
	group := strings.TrimSpace(opts.Group)
	if group == "" {
		return nil, errors.New(messages.ProvisionGroupRequired)
	}
	if strings.TrimSpace(opts.SpoolDir) == "" {
		return nil, errors.New(messages.ProvisionSpoolRequired)
	}

	var actions []string
	gid, found, err := sys.LookupGroup(group)
	if err != nil {
		return actions, fmt.Errorf(messages.ProvisionLookupGroupFmt, group, err)
	}
	if !found {
		if err := sys.AddGroup(group); err != nil {
			return actions, fmt.Errorf(messages.ProvisionAddGroupFmt, group, err)
		}
		actions = append(actions, fmt.Sprintf(messages.ProvisionCreatedGroupFmt, group))
		if gid, _, err = sys.LookupGroup(group); err != nil {
			return actions, fmt.Errorf(messages.ProvisionLookupGroupFmt, group, err)
		}
	}

	for _, name := range opts.Users {
		exists, member, err := sys.Membership(name, gid)
		if err != nil {
			return actions, fmt.Errorf(messages.ProvisionLookupUserFmt, name, err)
		}
		switch {
		case !exists:
			actions = append(actions, fmt.Sprintf(messages.ProvisionSkippedUserFmt, name))
		case !member:
			if err := sys.AddMember(name, group); err != nil {
				return actions, fmt.Errorf(messages.ProvisionAddMemberFmt, name, group, err)
			}
			actions = append(actions, fmt.Sprintf(messages.ProvisionAddedMemberFmt, name, group))
		}
	}

	want := fsutil.Meta{Mode: DirMode, UID: rootUID, GID: gid}
	done, err := ensureEntry(sys, opts.SpoolDir, want, group, messages.ProvisionMkdirFmt, func() error {
		return sys.MkdirAll(opts.SpoolDir, DirMode)
	})
	actions = append(actions, done...)
	if err != nil || opts.StateFile == "" {
		return actions, err
	}

	state := filepath.Join(opts.SpoolDir, opts.StateFile)
	want.Mode = StateMode
	done, err = ensureEntry(sys, state, want, group, messages.ProvisionWriteFmt, func() error {
		return sys.WriteFile(state, InitialState, StateMode)
	})
	return append(actions, done...), err
}

// ensureEntry creates path with create when it is missing, then forces its
// mode and ownership to want. Fixing a freshly created path is not reported
// separately.
func ensureEntry(sys System, path string, want fsutil.Meta, group string, createFmt string, create func() error) ([]string, error) {
	var actions []string
	created := false
	if _, err := sys.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf(createFmt, path, err)
		}
		if err := create(); err != nil {
			return nil, fmt.Errorf(createFmt, path, err)
		}
		created = true
		actions = append(actions, fmt.Sprintf(messages.ProvisionCreatedFmt, path))
	}

	got, err := sys.ReadMeta(path)
	if err != nil {
		return actions, fmt.Errorf(messages.ProvisionOwnFmt, path, err)
	}
	if got == want {
		return actions, nil
	}
	if err := sys.ApplyMeta(path, want); err != nil {
		return actions, fmt.Errorf(messages.ProvisionOwnFmt, path, err)
	}
	if !created {
		actions = append(actions, fmt.Sprintf(messages.ProvisionFixedOwnershipFmt, path, want.Mode, group))
	}
	return actions, nil
}
