// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build aix || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package measure

// ru_maxrss is reported in kilobytes.
const rssMultiplier = 1 << 10
