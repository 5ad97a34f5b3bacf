// Copyright 2021 The Go Authors. All rights reserved.
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
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/regionbench/regionbench/common"
	"github.com/regionbench/regionbench/common/log"
	"github.com/regionbench/regionbench/genome"
	"github.com/regionbench/regionbench/harnesses"
	"github.com/regionbench/regionbench/measure"
	"github.com/regionbench/regionbench/probe"
	"github.com/regionbench/regionbench/results"
	"github.com/regionbench/regionbench/sampler"
	"github.com/regionbench/regionbench/trial"
)

type intsFlag []int

func (c *intsFlag) String() string {
	s := make([]string, len(*c))
	for i, v := range *c {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

func (c *intsFlag) Set(input string) error {
	var out []int
	for _, f := range strings.Split(input, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return fmt.Errorf("invalid size %q", f)
		}
		out = append(out, v)
	}
	*c = out
	return nil
}

const (
	runLongDesc = `Sweep region sizes for one tool, timing it on sampled regions of a BAM file,
and write one results table.`
	runUsage = `Usage: %s run [flags] -ref <reference.fa> -bam <reads.bam> -tool <name>
`
)

type runCmd struct {
	flags *flag.FlagSet

	configFile string
	ref        string
	bam        string
	fai        string
	bai        string
	gaps       string
	tool       string
	toolPath   string
	threads    int
	extraArgs  string
	workDir    string
	resultsDir string

	seed    int64
	samples int
	sizes   intsFlag
	mode    string
	probe   string
	timeout time.Duration
	noPrime bool
	wait    bool

	quiet       bool
	printCmd    bool
	printConfig bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Benchmarks one tool over a region-size sweep." }
func (*runCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintln(w, runLongDesc)

	fmt.Fprintln(w, "\nBuilt-in tools:")
	builtin := harnesses.Builtin()
	maxNameLen := 0
	for _, t := range builtin {
		if l := utf8.RuneCountInString(t.Name); l > maxNameLen {
			maxNameLen = l
		}
	}
	for _, t := range builtin {
		fmt.Fprintf(w, fmt.Sprintf("  %%%ds: %%s\n", maxNameLen), t.Name, t.Description)
	}

	fmt.Fprint(w, common.ConfigHelp)
	fmt.Fprintln(w)

	fmt.Fprintf(w, runUsage, base)
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.flags = f
	f.StringVar(&c.configFile, "config", "", "TOML configuration file")
	f.StringVar(&c.ref, "ref", "", "reference FASTA passed to the tools")
	f.StringVar(&c.bam, "bam", "", "indexed BAM file to render")
	f.StringVar(&c.fai, "fai", "", "chromosome length index (default: <ref>.fai)")
	f.StringVar(&c.bai, "bai", "", "BAM index for the native probe (default: <bam>.bai)")
	f.StringVar(&c.gaps, "gaps", "none", "assembly gap file, or \"none\"")
	f.StringVar(&c.tool, "tool", "", "tool to benchmark")
	f.StringVar(&c.toolPath, "tool-path", "", "executable for the tool (default: from the tool table)")
	f.IntVar(&c.threads, "threads", 1, "thread count passed to the tool and the probe")
	f.StringVar(&c.extraArgs, "extra-args", "", "extra arguments for the tool, recorded in the results file name")
	f.StringVar(&c.workDir, "work-dir", "", "directory for images and wrapper output (default: temporary directory)")
	f.StringVar(&c.resultsDir, "results", ".", "directory to write the results table to")

	f.Int64Var(&c.seed, "seed", 1, "random seed for region sampling")
	f.IntVar(&c.samples, "samples", 20, "regions sampled per size")
	f.Var(&c.sizes, "sizes", "comma-separated region sizes in bases")
	f.StringVar(&c.mode, "mode", "direct", "measurement mode: direct, export or rusage")
	f.StringVar(&c.probe, "probe", "samtools", "read-count probe: samtools, native or none")
	f.DurationVar(&c.timeout, "timeout", 0, "per-invocation timeout (0 means none)")
	f.BoolVar(&c.noPrime, "no-prime", false, "do not run the read-count probe before each measurement")
	f.BoolVar(&c.wait, "wait", false, "wait for the machine to become idle before the sweep")

	f.BoolVar(&c.quiet, "quiet", false, "whether to suppress activity output on stderr (no effect on -shell)")
	f.BoolVar(&c.printCmd, "shell", false, "whether to print the commands being executed to stdout")
	f.BoolVar(&c.printConfig, "print-config", false, "print the effective configuration and exit")
}

// config loads the configuration file, if any, and applies the flags the
// user set on top of it.
func (c *runCmd) config() (*common.Config, error) {
	cfg := common.DefaultConfig()
	if c.configFile != "" {
		var err error
		if cfg, err = common.LoadConfig(c.configFile); err != nil {
			return nil, err
		}
	}
	if c.flags != nil {
		c.flags.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "seed":
				cfg.Sweep.Seed = c.seed
			case "samples":
				cfg.Sweep.Samples = c.samples
			case "sizes":
				cfg.Sweep.RegionSizes = append([]int(nil), c.sizes...)
			case "mode":
				cfg.Measure.Mode = c.mode
			case "probe":
				cfg.Probe.Kind = c.probe
			case "bai":
				cfg.Probe.Index = c.bai
			case "timeout":
				cfg.Sweep.Timeout.Duration = c.timeout
			case "no-prime":
				cfg.Sweep.Prime = !c.noPrime
			case "wait":
				cfg.Sweep.WaitIdle = c.wait
			}
		})
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *runCmd) Run(ctx context.Context, _ []string) error {
	log.SetCommandTrace(c.printCmd)
	log.SetActivityLog(!c.quiet)

	cfg, err := c.config()
	if err != nil {
		return err
	}
	if c.printConfig {
		b, err := common.ConfigMarshalTOML(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(b)
		return err
	}

	switch {
	case c.ref == "":
		return errors.New("-ref is required")
	case c.bam == "":
		return errors.New("-bam is required")
	case c.tool == "":
		return errors.New("-tool is required")
	case c.threads < 1:
		return fmt.Errorf("-threads must be positive, got %d", c.threads)
	}

	table, err := harnesses.NewTable(cfg.Tools)
	if err != nil {
		return err
	}
	tool, err := table.Lookup(c.tool)
	if err != nil {
		return err
	}
	if c.toolPath != "" {
		tool = tool.WithPath(c.toolPath)
	}
	if c.threads != 1 && !tool.Threaded() {
		log.Warnf("%s does not take a thread count; recording -threads %d anyway", tool.Name(), c.threads)
	}

	// Tools may change their working directory, so hand them absolute
	// paths only.
	if c.workDir == "" {
		c.workDir, err = os.MkdirTemp("", "regionbench")
		if err != nil {
			return fmt.Errorf("creating work directory: %v", err)
		}
		defer os.RemoveAll(c.workDir)
	}
	for _, p := range []*string{&c.ref, &c.bam, &c.workDir, &c.resultsDir} {
		if *p, err = filepath.Abs(*p); err != nil {
			return err
		}
	}
	if c.fai == "" {
		c.fai = c.ref + ".fai"
	}
	log.Printf("Work directory: %s", c.workDir)

	index, err := genome.LoadIndex(c.fai, cfg.Sweep.MinChromLength)
	if err != nil {
		return err
	}
	if index.Len() == 0 {
		return fmt.Errorf("%s: no chromosomes longer than %d", c.fai, cfg.Sweep.MinChromLength)
	}
	gaps, err := genome.LoadGaps(c.gaps)
	if err != nil {
		return err
	}
	log.Printf("Reference: %d chromosomes, %d gaps", index.Len(), gaps.Len())

	if cfg.Sweep.WaitIdle {
		if err := waitForIdle(ctx); err != nil {
			return err
		}
	}

	mode, err := measure.ParseMode(cfg.Measure.Mode)
	if err != nil {
		return err
	}
	timer := &measure.Timer{
		Mode:          mode,
		TimePath:      cfg.Measure.TimePath,
		HyperfinePath: cfg.Measure.HyperfinePath,
		WorkDir:       c.workDir,
		Timeout:       cfg.Sweep.Timeout.Duration,
	}

	p, closeProbe, err := newProbe(cfg, timer, c.bam, c.threads)
	if err != nil {
		return err
	}
	defer closeProbe()
	var counter sampler.ReadCounter
	if cfg.Sweep.VerifyReads && cfg.Probe.Kind != string(probe.KindNone) {
		counter = probe.Counter{Probe: p}
	}
	s := sampler.New(index, gaps, counter, sampler.Config{
		Seed:       cfg.Sweep.Seed,
		Retries:    cfg.Sweep.Retries,
		PoolRepeat: cfg.Sweep.PoolRepeat,
	})

	var toolOutput io.Writer
	if !c.quiet {
		toolOutput = os.Stderr
	}
	runner := trial.NewRunner(trial.Config{
		Tool:      tool,
		Ref:       c.ref,
		BAM:       c.bam,
		Threads:   c.threads,
		ExtraArgs: c.extraArgs,
		WorkDir:   c.workDir,
		Sizes:     cfg.Sweep.RegionSizes,
		Samples:   cfg.Sweep.Samples,
		Prime:     cfg.Sweep.Prime,
		Output:    toolOutput,
	}, timer, p)

	log.Printf("Benchmarking %s: sizes %v, %d samples each, %s measurement", tool.Name(), cfg.Sweep.RegionSizes, cfg.Sweep.Samples, mode)
	var tb results.Table
	runErr := runner.Run(ctx, s, &tb)

	// Whatever was measured before a failure is still written.
	if err := os.MkdirAll(c.resultsDir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(c.resultsDir, results.FileName(tool.Name(), c.extraArgs, c.threads))
	if tb.Len() > 0 || runErr == nil {
		if err := tb.WriteFile(out); err != nil {
			return err
		}
		log.Printf("Wrote %d records to %s", tb.Len(), out)
	}
	return runErr
}

// newProbe builds the configured read-count probe and a function that
// releases it. The samtools probe is timed in-process when tools are
// timed by hyperfine, since its count is read from standard output.
func newProbe(cfg *common.Config, timer *measure.Timer, bam string, threads int) (probe.Probe, func(), error) {
	kind, err := probe.ParseKind(cfg.Probe.Kind)
	if err != nil {
		return nil, nil, err
	}
	switch kind {
	case probe.KindNative:
		n, err := probe.OpenNative(bam, cfg.Probe.Index, threads)
		if err != nil {
			return nil, nil, err
		}
		return n, func() { n.Close() }, nil
	case probe.KindNone:
		return probe.None{}, func() {}, nil
	}
	pt := *timer
	if pt.Mode == measure.Export {
		pt.Mode = measure.Rusage
	}
	return &probe.Samtools{
		Path:    cfg.Probe.SamtoolsPath,
		BAM:     bam,
		Threads: threads,
		Timer:   &pt,
	}, func() {}, nil
}
