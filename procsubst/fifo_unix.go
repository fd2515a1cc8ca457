// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package procsubst

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

const fifoNamePrefix = "procsubst-"

// NewFIFO creates a uniquely-named FIFO under dir and returns its path
// along with a cleanup that removes it, grounded on mvdan-sh's retry
// loop for picking an unused temporary path (interp/runner.go's
// ProcSubst closure) since a FIFO path can't be created atomically the
// way [os.CreateTemp] creates a regular file.
func NewFIFO(dir string) (path string, cleanup func() error, err error) {
	try := 0
	for {
		path = filepath.Join(dir, fifoNamePrefix+strconv.FormatUint(rand.Uint64(), 16))
		err = unix.Mkfifo(path, 0o600)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", nil, fmt.Errorf("procsubst: cannot create fifo: %w", err)
		}
		if try++; try > 100 {
			return "", nil, fmt.Errorf("procsubst: giving up creating fifo: %w", err)
		}
	}
	return path, func() error { return os.Remove(path) }, nil
}

// DevFDPath returns the /dev/fd path bash prefers for process
// substitution when the platform supports it, so a host can avoid the
// FIFO round-trip through the filesystem when fd is already an open
// pipe descriptor inherited by the child.
func DevFDPath(fd int) string {
	return "/dev/fd/" + strconv.Itoa(fd)
}
