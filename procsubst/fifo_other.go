// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build !unix

package procsubst

import "fmt"

// NewFIFO has no portable equivalent outside unix-like platforms; hosts
// targeting Windows must wire their own Config.ProcSubst (e.g. backed by
// a regular temp file, as bash itself does not support process
// substitution there either).
func NewFIFO(dir string) (path string, cleanup func() error, err error) {
	return "", nil, fmt.Errorf("procsubst: FIFO-backed process substitution is not supported on this platform")
}
