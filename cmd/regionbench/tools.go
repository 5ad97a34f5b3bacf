// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/regionbench/regionbench/common"
	"github.com/regionbench/regionbench/harnesses"
)

const toolsUsage = `Lists the tool table: the built-in tools merged with any [[tool]] entries
from the configuration file.

Templates are Go text/template strings. Available fields:
  {{.Tool}} {{.Path}} {{.ToolDir}} {{.Ref}} {{.BAM}} {{.Chrom}} {{.Start}}
  {{.End}} {{.Region}} {{.Output}} {{.Batch}} {{.Threads}} {{.ExtraArgs}}
  {{.WorkDir}}
Path-like fields are shell-quoted; {{.ExtraArgs}} is inserted as is.

Usage: %s tools [flags]
`

type toolsCmd struct {
	configFile string
	out        io.Writer
}

func (*toolsCmd) Name() string     { return "tools" }
func (*toolsCmd) Synopsis() string { return "Lists the tools that can be benchmarked." }
func (*toolsCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, toolsUsage, base)
}

func (c *toolsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "config", "", "TOML configuration file with extra [[tool]] entries")
}

func (c *toolsCmd) Run(_ context.Context, _ []string) error {
	var extra []*common.ToolSpec
	if c.configFile != "" {
		cfg, err := common.LoadConfig(c.configFile)
		if err != nil {
			return err
		}
		extra = cfg.Tools
	}
	table, err := harnesses.NewTable(extra)
	if err != nil {
		return err
	}
	w := c.out
	if w == nil {
		w = os.Stdout
	}
	for _, t := range table.Tools() {
		s := t.Spec()
		fmt.Fprintf(w, "%s: %s\n", s.Name, s.Description)
		fmt.Fprintf(w, "  path:     %s\n", t.Path())
		fmt.Fprintf(w, "  command:  %s\n", s.Command)
		if s.Output != "" {
			fmt.Fprintf(w, "  output:   %s\n", s.Output)
		}
		if len(s.Env.Vars) != 0 {
			fmt.Fprintf(w, "  env:      %q\n", s.Env.Vars)
		}
		if s.Batch != "" {
			fmt.Fprintf(w, "  batch:    %s\n", t.BatchPath("{{.WorkDir}}"))
		}
		if st := s.Settings; st != nil {
			fmt.Fprintf(w, "  settings: %s: %q -> %q\n", st.File, st.Match, st.Line)
		}
		fmt.Fprintf(w, "  threaded: %v\n", s.Threaded)
	}
	return nil
}
