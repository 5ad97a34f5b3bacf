// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package measure

import (
	"os"
	"syscall"
)

// peakRSS returns the exited child's peak resident set in bytes.
func peakRSS(ps *os.ProcessState) int64 {
	if ps == nil {
		return -1
	}
	usage, ok := ps.SysUsage().(*syscall.Rusage)
	if !ok || usage == nil {
		return -1
	}
	return int64(usage.Maxrss) * rssMultiplier
}
