package fsutil

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/storpool/sp-openstack/internal/messages"
)

// Meta is the access-control metadata of a file: mode bits and ownership.
type Meta struct {
	Mode os.FileMode
	UID  int
	GID  int
}

var statFn = unix.Stat

// ReadMeta returns the permission bits and owner/group of path.
func ReadMeta(path string) (Meta, error) {
	var st unix.Stat_t
	if err := statFn(path, &st); err != nil {
		return Meta{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return Meta{
		Mode: os.FileMode(st.Mode) & os.ModePerm,
		UID:  int(st.Uid),
		GID:  int(st.Gid),
	}, nil
}

// ApplyMeta forces path's mode bits and ownership to match meta.
func ApplyMeta(path string, meta Meta) error {
	if err := os.Chmod(path, meta.Mode); err != nil {
		return fmt.Errorf(messages.FsutilChmodFmt, path, err)
	}
	if err := os.Chown(path, meta.UID, meta.GID); err != nil {
		return fmt.Errorf(messages.FsutilChownFmt, path, err)
	}
	return nil
}
