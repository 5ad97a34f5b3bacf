// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/regionbench/regionbench/aggregate"
	"github.com/regionbench/regionbench/common"
	"github.com/regionbench/regionbench/common/fileutil"
	"github.com/regionbench/regionbench/common/log"
	"github.com/regionbench/regionbench/results"
)

const (
	summarizeUsage = `Summarizes result tables against a reference tool.

Every tool is compared with the reference tool's single-threaded runs at
the same region size. A tool's startup time and memory are estimated from
its fastest run at the smallest region size, which is then left out of
the comparison when larger sizes were measured.

Writes benchmark.<tag>.md, benchmark.<tag>.csv and benchmark.<tag>.html
to the output directory and prints the markdown table.

Usage: %s summarize [flags] [results.csv | glob ...]
`
	defaultResultsGlob = "*.benchmark.csv"
)

type summarizeCmd struct {
	configFile string
	tag        string
	reference  string
	outDir     string
	quiet      bool
}

func (*summarizeCmd) Name() string     { return "summarize" }
func (*summarizeCmd) Synopsis() string { return "Aggregates result tables into a comparison table." }
func (*summarizeCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, summarizeUsage, base)
}

func (c *summarizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "config", "", "TOML configuration file for the [summary] section")
	f.StringVar(&c.tag, "tag", "summary", "name embedded in the output file names")
	f.StringVar(&c.reference, "reference", "", "reference tool (default: from the configuration, else gw)")
	f.StringVar(&c.outDir, "out", ".", "directory to write the summaries to")
	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr")
}

func (c *summarizeCmd) Run(ctx context.Context, args []string) error {
	log.SetActivityLog(!c.quiet)

	cfg := common.DefaultConfig()
	if c.configFile != "" {
		var err error
		if cfg, err = common.LoadConfig(c.configFile); err != nil {
			return err
		}
	}
	if c.reference != "" {
		cfg.Summary.Reference = c.reference
	}

	if len(args) == 0 {
		args = []string{defaultResultsGlob}
	}
	paths, err := fileutil.Glob(args...)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no result tables match %v", args)
	}
	recs, err := results.LoadAll(ctx, paths)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d records from %d tables", len(recs), len(paths))

	s := aggregate.Aggregate(recs, aggregate.Options{
		Reference: cfg.Summary.Reference,
		Order:     cfg.Summary.Order,
	})
	if len(s.Rows) == 0 {
		log.Warnf("no measured trials in %v", paths)
	}
	for tool, b := range s.Baselines {
		if b.Missing {
			log.Warnf("%s has no measured run at the smallest size; its start time is missing", tool)
		}
	}
	return writeSummaries(c.outDir, c.tag, s, os.Stdout)
}

// writeSummaries writes the markdown, CSV and HTML summaries to dir and
// copies the markdown table to w.
func writeSummaries(dir, tag string, s *aggregate.Summary, w io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Join(dir, "benchmark."+tag)
	write := func(ext string, fn func(io.Writer) error) error {
		f, err := os.Create(base + ext)
		if err != nil {
			return err
		}
		err = fn(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("writing %s%s: %w", base, ext, err)
		}
		log.Printf("Wrote %s%s", base, ext)
		return nil
	}
	return errors.Join(
		write(".md", func(f io.Writer) error {
			return aggregate.WriteReport(io.MultiWriter(f, w), "benchmark "+tag, s)
		}),
		write(".csv", func(f io.Writer) error {
			return aggregate.WriteCSV(f, s.Rows)
		}),
		write(".html", func(f io.Writer) error {
			return aggregate.WriteHTML(f, "benchmark "+tag, s)
		}),
	)
}
