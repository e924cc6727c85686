package patch

import (
	"io"
	"os"

	"github.com/storpool/sp-openstack/internal/fsutil"
)

// System abstracts filesystem operations needed by the applier.
type System interface {
	Open(name string) (io.ReadCloser, error)
	ReadFile(name string) ([]byte, error)
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	CreateTemp(dir string, pattern string) (*os.File, error)
	Remove(name string) error
	Rename(oldpath string, newpath string) error
	Chmod(name string, mode os.FileMode) error
	ReadMeta(name string) (fsutil.Meta, error)
	ApplyMeta(name string, meta fsutil.Meta) error
}

// RealSystem implements System using the OS filesystem. Temp files are
// registered with Tracker until they are renamed or removed.
type RealSystem struct {
	Tracker *fsutil.Tracker
}

// Open opens the named file for reading.
func (RealSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// ReadFile reads the named file and returns the contents.
func (RealSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// CreateTemp creates a tracked temp file in dir.
func (s RealSystem) CreateTemp(dir string, pattern string) (*os.File, error) {
	return s.Tracker.CreateTemp(dir, pattern)
}

// Remove removes the named file and stops tracking it.
func (s RealSystem) Remove(name string) error {
	err := os.Remove(name)
	if err == nil || os.IsNotExist(err) {
		s.Tracker.Forget(name)
	}
	return err
}

// Rename renames (moves) oldpath to newpath and stops tracking oldpath.
func (s RealSystem) Rename(oldpath string, newpath string) error {
	if err := os.Rename(oldpath, newpath); err != nil {
		return err
	}
	s.Tracker.Forget(oldpath)
	return nil
}

// Chmod changes the mode of the named file.
func (RealSystem) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

// ReadMeta returns the permission bits and ownership of the named file.
func (RealSystem) ReadMeta(name string) (fsutil.Meta, error) {
	return fsutil.ReadMeta(name)
}

// ApplyMeta forces the permission bits and ownership of the named file.
func (RealSystem) ApplyMeta(name string, meta fsutil.Meta) error {
	return fsutil.ApplyMeta(name, meta)
}
