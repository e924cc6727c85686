package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/storpool/sp-openstack/internal/messages"
)

// installLock is an exclusive advisory lock serializing sp-openstack runs.
type installLock struct {
	file *os.File
}

var (
	lockFileFn   = lockFile
	unlockFileFn = unlockFile
	flockFn      = unix.Flock
	lockSleep    = time.Sleep
)

var (
	lockWaitTimeout = 30 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// WithFileLock holds an exclusive lock on path while fn runs. The lock file
// and its directory are created when missing. An empty path runs fn without
// locking.
func WithFileLock(path string, fn func() error) error {
	if path == "" {
		return fn()
	}
	lock, err := acquireInstallLock(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.release()
	}()
	return fn()
}

func acquireInstallLock(path string) (*installLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf(messages.FsutilLockDirFmt, path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.FsutilOpenLockFmt, path, err)
	}
	if err := lockFileFn(file); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf(messages.FsutilLockFmt, path, err)
	}
	return &installLock{file: file}, nil
}

func (l *installLock) release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := unlockFileFn(l.file); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}

// lockFile polls for the lock until lockWaitTimeout passes.
func lockFile(file *os.File) error {
	deadline := time.Now().Add(lockWaitTimeout)
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf(messages.FsutilLockTimeoutFmt, lockWaitTimeout)
		}
		lockSleep(lockPollEvery)
	}
}

func unlockFile(file *os.File) error {
	return flockFn(int(file.Fd()), unix.LOCK_UN)
}
