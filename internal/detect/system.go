package detect

import (
	"io"
	"os"
)

// System abstracts the filesystem reads the detector performs.
type System interface {
	Open(name string) (io.ReadCloser, error)
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Open opens the named file for reading.
func (RealSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}
