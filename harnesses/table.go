// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harnesses

import (
	"fmt"
	"sort"

	"github.com/regionbench/regionbench/common"
)

const igvBatch = `new
genome {{.Ref}}
load {{.BAM}}
snapshotDirectory {{.WorkDir}}/images
goto {{.Region}}
snapshot igv.png
exit
`

// Builtin returns the built-in tool table.
func Builtin() []*common.ToolSpec {
	return []*common.ToolSpec{
		{
			Name:        "gw",
			Description: "GW genome browser, rendering a PNG without a window",
			Command:     "{{.Path}} {{.Ref}} {{.ExtraArgs}} -t {{.Threads}} -b {{.BAM}} -r {{.Region}} --file {{.Output}} --no-show -d 1500x1500",
			Output:      "{{.WorkDir}}/images/gw.png",
			Threaded:    true,
		},
		{
			Name:        "igv",
			Description: "IGV desktop in batch mode; thread count pinned through igv.args",
			Command:     "{{.Path}} --batch {{.Batch}}",
			Output:      "{{.WorkDir}}/images/igv.png",
			Batch:       igvBatch,
			Settings: &common.SettingsSpec{
				File:  "{{.ToolDir}}/igv.args",
				Match: "ActiveProcessorCount",
				Line:  "-XX:ActiveProcessorCount={{.Threads}}",
			},
			Threaded: true,
		},
		{
			Name:        "jbrowse2",
			Path:        "jb2export",
			Description: "JBrowse 2 static export (jb2export) to SVG",
			Command:     "{{.Path}} --fasta {{.Ref}} --bam {{.BAM}} force:true --loc {{.Region}} --out {{.Output}}",
			Output:      "{{.WorkDir}}/images/jb2_image.svg",
			Env:         common.ConfigEnv{Vars: []string{"NODE_OPTIONS+=--max_old_space_size=320000"}},
		},
		{
			Name:        "samplot",
			Description: "samplot plot of a single alignment track",
			Command:     "{{.Path}} plot -r {{.Ref}} -b {{.BAM}} -c {{.Chrom}} -s {{.Start}} -e {{.End}} -o {{.Output}} -W 5 -H 5",
			Output:      "{{.WorkDir}}/images/samplot_image.png",
		},
	}
}

// Table is a set of tools keyed by name.
type Table struct {
	byName map[string]*Tool
}

// NewTable builds a table from the built-in entries overridden, in
// order, by each set of extra entries. An extra entry whose name matches
// an existing one replaces its non-empty fields; Env edits are appended
// after the existing ones.
func NewTable(extra ...[]*common.ToolSpec) (*Table, error) {
	specs := make(map[string]*common.ToolSpec)
	for _, s := range Builtin() {
		specs[s.Name] = s
	}
	for _, set := range extra {
		for _, s := range set {
			if base, ok := specs[s.Name]; ok {
				specs[s.Name] = merge(base, s)
			} else {
				specs[s.Name] = s.Copy()
			}
		}
	}
	tb := &Table{byName: make(map[string]*Tool, len(specs))}
	for name, s := range specs {
		t, err := NewTool(s)
		if err != nil {
			return nil, err
		}
		tb.byName[name] = t
	}
	return tb, nil
}

func merge(base, over *common.ToolSpec) *common.ToolSpec {
	m := base.Copy()
	for _, f := range []struct{ dst, src *string }{
		{&m.Path, &over.Path},
		{&m.Description, &over.Description},
		{&m.Command, &over.Command},
		{&m.Output, &over.Output},
		{&m.Batch, &over.Batch},
	} {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
	m.Env.Vars = append(m.Env.Vars, over.Env.Vars...)
	if over.Settings != nil {
		s := *over.Settings
		m.Settings = &s
	}
	m.Threaded = m.Threaded || over.Threaded
	return m
}

// Lookup returns the named tool.
func (tb *Table) Lookup(name string) (*Tool, error) {
	t, ok := tb.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownTool, name, tb.Names())
	}
	return t, nil
}

// Names returns the tool names in sorted order.
func (tb *Table) Names() []string {
	names := make([]string, 0, len(tb.byName))
	for n := range tb.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tools returns the tools sorted by name.
func (tb *Table) Tools() []*Tool {
	tools := make([]*Tool, 0, len(tb.byName))
	for _, n := range tb.Names() {
		tools = append(tools, tb.byName[n])
	}
	return tools
}
