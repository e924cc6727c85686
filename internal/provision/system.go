package provision

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"strings"

	"github.com/storpool/sp-openstack/internal/fsutil"
	"github.com/storpool/sp-openstack/internal/messages"
)

// System abstracts the account database and filesystem operations used by Ensure.
type System interface {
	// LookupGroup returns the gid of group; found is false when it does not exist.
	LookupGroup(name string) (gid int, found bool, err error)
	AddGroup(name string) error
	// Membership reports whether user exists and whether it belongs to gid.
	Membership(name string, gid int) (exists bool, member bool, err error)
	AddMember(name string, group string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
	ReadMeta(name string) (fsutil.Meta, error)
	ApplyMeta(name string, meta fsutil.Meta) error
}

// RealSystem implements System with os/user, groupadd and usermod.
type RealSystem struct {
	// Run executes an account management command; nil uses os/exec.
	Run func(name string, args ...string) error
	// Tracker registers temp files so an interrupted run removes them.
	Tracker *fsutil.Tracker
}

func (s RealSystem) run(name string, args ...string) error {
	if s.Run != nil {
		return s.Run(name, args...)
	}
	cmd := exec.Command(name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(messages.ProvisionCommandFmt, name, err, strings.TrimSpace(out.String()))
	}
	return nil
}

// LookupGroup resolves name through the system group database.
func (RealSystem) LookupGroup(name string) (int, bool, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return 0, false, nil
		}
		return 0, false, err
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, false, err
	}
	return gid, true, nil
}

// AddGroup creates a system group.
func (s RealSystem) AddGroup(name string) error {
	return s.run("groupadd", "--system", name)
}

// Membership reports whether user name exists and lists gid among its groups.
func (RealSystem) Membership(name string, gid int) (bool, bool, error) {
	u, err := user.Lookup(name)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return false, false, nil
		}
		return false, false, err
	}
	ids, err := u.GroupIds()
	if err != nil {
		return true, false, err
	}
	want := strconv.Itoa(gid)
	for _, id := range ids {
		if id == want {
			return true, true, nil
		}
	}
	return true, false, nil
}

// AddMember appends group to the supplementary groups of user name.
func (s RealSystem) AddMember(name string, group string) error {
	return s.run("usermod", "-a", "-G", group, name)
}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteFile writes data atomically through the tracker.
func (s RealSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return s.Tracker.WriteFileAtomic(name, data, perm)
}

// ReadMeta returns the permission bits and ownership of the named file.
func (RealSystem) ReadMeta(name string) (fsutil.Meta, error) {
	return fsutil.ReadMeta(name)
}

// ApplyMeta forces the permission bits and ownership of the named file.
func (RealSystem) ApplyMeta(name string, meta fsutil.Meta) error {
	return fsutil.ApplyMeta(name, meta)
}
