// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/regionbench/regionbench/cli/subcommands"
)

func main() {
	subcommands.Register(&runCmd{})
	subcommands.Register(&summarizeCmd{})
	subcommands.Register(&toolsCmd{})
	subcommands.Register(&putCmd{})
	os.Exit(subcommands.Run())
}
