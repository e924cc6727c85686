// Package fsutil holds the filesystem primitives shared by the patcher:
// same-directory temp files, atomic publishing, temp cleanup on signals,
// and advisory locking.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/storpool/sp-openstack/internal/messages"
)

// WriteFileAtomic writes data to a temp file next to filename and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return writeFileAtomic(nil, filename, data, perm)
}

// WriteFileAtomic is like the package-level WriteFileAtomic but registers the
// temp file with t while it exists.
func (t *Tracker) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return writeFileAtomic(t, filename, data, perm)
}

func writeFileAtomic(t *Tracker, filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	tmp, err := t.CreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpName)
		t.Forget(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf(messages.FsutilWriteTempFmt, tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf(messages.FsutilSyncTempFmt, tmpName, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf(messages.FsutilChmodTempFmt, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf(messages.FsutilCloseTempFmt, tmpName, err)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		cleanup()
		return fmt.Errorf(messages.FsutilRenameFmt, tmpName, filename, err)
	}
	t.Forget(tmpName)
	return nil
}
