// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package subcommands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"unicode/utf8"

	"github.com/regionbench/regionbench/common"
)

const (
	usageHeader = `regionbench %s: genome viewer region benchmarks

`
	usageTop = `regionbench measures how long genome visualization tools take, and how much
memory they use, to render an image of a region of an indexed alignment file.
Regions of several sizes are sampled from the reference, avoiding assembly gaps
and empty regions, and each tool is timed on every sampled region.

Per-tool result tables are written as CSV and can be summarized against a
reference tool with the summarize subcommand.

Usage: %s <subcommand> [subcommand flags] [subcommand args]

Subcommands:
`
)

var (
	base string
	cmds []*command
	out  io.Writer
)

func init() {
	base = filepath.Base(os.Args[0])
	out = os.Stderr
}

type command struct {
	Command
	flags *flag.FlagSet
}

func (c *command) usage() {
	fmt.Fprintf(out, usageHeader, common.Version)
	c.PrintUsage(out, base)
	c.flags.PrintDefaults()
}

type Command interface {
	Name() string
	Synopsis() string
	PrintUsage(w io.Writer, base string)
	SetFlags(f *flag.FlagSet)
	Run(ctx context.Context, args []string) error
}

func Register(cmd Command) {
	f := flag.NewFlagSet(cmd.Name(), flag.ExitOnError)
	cmd.SetFlags(f)
	c := &command{
		Command: cmd,
		flags:   f,
	}
	f.Usage = func() {
		c.usage()
	}
	cmds = append(cmds, c)
}

func usage() {
	fmt.Fprintf(out, usageHeader, common.Version)
	fmt.Fprintf(out, usageTop, base)
	maxnamelen := 10
	for _, c := range cmds {
		l := utf8.RuneCountInString(c.Name())
		if l > maxnamelen {
			maxnamelen = l
		}
	}
	for _, c := range cmds {
		fmt.Fprintf(out, fmt.Sprintf("  %%%ds: %%s\n", maxnamelen), c.Name(), c.Synopsis())
	}
}

// Run dispatches os.Args to the registered subcommand. An interrupt or
// termination signal cancels the subcommand's context.
func Run() int {
	if len(os.Args) < 2 {
		usage()
		return 1
	}
	subcmd := os.Args[1]
	if subcmd == "help" {
		if len(os.Args) >= 3 {
			subhelp := os.Args[2]
			for _, cmd := range cmds {
				if cmd.Name() == subhelp {
					cmd.usage()
					return 0
				}
			}
		}
		usage()
		return 0
	}
	var chosen *command
	for _, cmd := range cmds {
		if cmd.Name() == subcmd {
			chosen = cmd
			break
		}
	}
	if chosen == nil {
		fmt.Fprintf(out, "unknown subcommand: %q\n", subcmd)
		fmt.Fprintln(out)
		usage()
		return 1
	}
	chosen.flags.Parse(os.Args[2:])
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := chosen.Run(ctx, chosen.flags.Args()); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return 1
	}
	return 0
}
