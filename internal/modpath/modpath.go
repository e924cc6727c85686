// Package modpath discovers the directories a Python interpreter imports
// modules from.
package modpath

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/storpool/sp-openstack/internal/messages"
)

// Script prints one sys.path entry per line under Python 2 and 3 alike.
const Script = "import sys; print('\\n'.join(sys.path))"

// Runner runs name with args and returns its standard output.
type Runner func(name string, args ...string) ([]byte, error)

// ExecRunner runs the command as a child process.
func ExecRunner(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}
	return out, nil
}

var statFn = os.Stat

// Discover returns the existing absolute directories on python's sys.path,
// de-duplicated, in interpreter order.
func Discover(run Runner, python string) ([]string, error) {
	if strings.TrimSpace(python) == "" {
		return nil, errors.New(messages.ModpathPythonRequired)
	}
	out, err := run(python, "-c", Script)
	if err != nil {
		return nil, fmt.Errorf(messages.ModpathRunFmt, python, err)
	}

	var dirs []string
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		dir := strings.TrimSpace(scanner.Text())
		if dir == "" || !filepath.IsAbs(dir) {
			continue
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		info, err := statFn(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf(messages.ModpathRunFmt, python, err)
	}
	if len(dirs) == 0 {
		return nil, errors.New(messages.ModpathNone)
	}
	return dirs, nil
}
