// Package txn hands finished files to an external transactional installer
// that records what it installs, instead of renaming them into place directly.
package txn

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/storpool/sp-openstack/internal/messages"
)

// EnvModule names the logical module the installed files are recorded under.
const EnvModule = "TXN_INSTALL_MODULE"

// Installer publishes files on behalf of the patcher.
type Installer interface {
	// InstallNew installs src as a fresh file at dst with the given mode.
	InstallNew(mode os.FileMode, src string, dst string) error
	// Swap replaces dst with the already-written src.
	Swap(src string, dst string) error
}

// Exec runs an external command for every installed file.
type Exec struct {
	// Command is the program and leading arguments, e.g. ["txn", "install-exact"].
	Command []string
	// Module is exported as TXN_INSTALL_MODULE.
	Module string
	// Env is the base environment; nil means os.Environ().
	Env []string
}

// InstallNew runs Command <mode> <src> <dst>.
func (e Exec) InstallNew(mode os.FileMode, src string, dst string) error {
	return e.run(fmt.Sprintf("%o", mode.Perm()), src, dst)
}

// Swap runs Command <src> <dst>.
func (e Exec) Swap(src string, dst string) error {
	return e.run(src, dst)
}

func (e Exec) run(args ...string) error {
	if len(e.Command) == 0 || strings.TrimSpace(e.Command[0]) == "" {
		return errors.New(messages.TxnCommandRequired)
	}
	argv := append(append([]string(nil), e.Command[1:]...), args...)
	cmd := exec.Command(e.Command[0], argv...)
	env := e.Env
	if env == nil {
		env = os.Environ()
	}
	cmd.Env = append(append([]string(nil), env...), EnvModule+"="+e.Module)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return fmt.Errorf(messages.TxnRunFmt, strings.Join(cmd.Args, " "), err)
		}
		return fmt.Errorf(messages.TxnRunDetailFmt, strings.Join(cmd.Args, " "), err, detail)
	}
	return nil
}
