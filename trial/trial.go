// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trial runs the measurement protocol for one tool: for every
// region size, sample regions and, for each region, prime the read-count
// probe, time the tool, check its image, and count the region's reads.
package trial

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/regionbench/regionbench/common"
	"github.com/regionbench/regionbench/common/fileutil"
	"github.com/regionbench/regionbench/common/log"
	"github.com/regionbench/regionbench/genome"
	"github.com/regionbench/regionbench/harnesses"
	"github.com/regionbench/regionbench/measure"
	"github.com/regionbench/regionbench/probe"
	"github.com/regionbench/regionbench/results"
	"github.com/regionbench/regionbench/sampler"
)

// Config describes one tool's sweep.
type Config struct {
	Tool      *harnesses.Tool
	Ref       string
	BAM       string
	Threads   int
	ExtraArgs string

	// WorkDir holds images, batch scripts and wrapper output.
	WorkDir string

	Sizes   []int
	Samples int

	// Prime runs the probe once, unrecorded, before each measurement.
	Prime bool

	// Env is the environment the tool's variables are layered on. Nil
	// means the process environment.
	Env *common.Env

	// Output receives the tool's own output. Nil discards it.
	Output io.Writer
}

// Runner runs trials sequentially.
type Runner struct {
	cfg   Config
	timer *measure.Timer
	probe probe.Probe
}

// NewRunner returns a Runner. A nil probe disables read counting.
func NewRunner(cfg Config, timer *measure.Timer, p probe.Probe) *Runner {
	if p == nil {
		p = probe.None{}
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.Env == nil {
		cfg.Env = common.NewEnvFromEnviron()
	}
	return &Runner{cfg: cfg, timer: timer, probe: p}
}

func (r *Runner) params(region genome.Region) harnesses.Params {
	return r.cfg.Tool.Bind(harnesses.Params{
		Ref:       r.cfg.Ref,
		BAM:       r.cfg.BAM,
		Chrom:     region.Chrom,
		Start:     region.Start,
		End:       region.End,
		Region:    region.String(),
		Threads:   r.cfg.Threads,
		ExtraArgs: r.cfg.ExtraArgs,
		WorkDir:   r.cfg.WorkDir,
	})
}

// RunTrial measures the tool on one region.
//
// A tool that fails, times out, or leaves no non-empty image yields a
// record with -1 time and memory and no error. Probe failures and
// template errors are returned.
func (r *Runner) RunTrial(ctx context.Context, region genome.Region) (results.TrialRecord, error) {
	tool := r.cfg.Tool
	rec := results.TrialRecord{
		Tool:      tool.Name(),
		Region:    region,
		Reads:     -1,
		ProbeTime: -1,
		Elapsed:   -1,
		PeakRSS:   -1,
		Threads:   r.cfg.Threads,
	}
	if r.cfg.Prime {
		if _, err := r.probe.Count(ctx, region); err != nil {
			return rec, fmt.Errorf("priming probe: %w", err)
		}
	}

	inv, err := tool.Prepare(r.params(region), r.cfg.Env)
	if err != nil {
		return rec, err
	}
	if inv.Output != "" {
		if err := fileutil.RemoveFiles(inv.Output); err != nil {
			return rec, err
		}
		if err := os.MkdirAll(filepath.Dir(inv.Output), 0o755); err != nil {
			return rec, err
		}
	}
	o, err := r.timer.Run(ctx, measure.Command{
		Name:   tool.Name(),
		Args:   inv.Args,
		Env:    inv.Env,
		Output: r.cfg.Output,
	})
	switch {
	case ctx.Err() != nil:
		return rec, ctx.Err()
	case err != nil:
		log.Warnf("%s on %s: %v", tool.Name(), region, err)
	case inv.Output != "":
		ok, err := fileutil.NonEmptyFile(inv.Output)
		if err != nil {
			return rec, err
		}
		if !ok {
			log.Warnf("%s on %s: no image written to %s", tool.Name(), region, inv.Output)
			break
		}
		fallthrough
	default:
		rec.Elapsed = o.Elapsed
		rec.PeakRSS = o.PeakRSS
	}

	res, err := r.probe.Count(ctx, region)
	if err != nil {
		return rec, fmt.Errorf("read-count probe: %w", err)
	}
	rec.Reads = res.Reads
	rec.ProbeTime = res.Elapsed
	return rec, nil
}

// TempFiles lists the files a sweep leaves in the work directory.
func (r *Runner) TempFiles() []string {
	var files []string
	for _, name := range []string{r.cfg.Tool.Name(), "samtools"} {
		if p := r.timer.OutputPath(name); p != "" {
			files = append(files, p)
		}
	}
	if p := r.cfg.Tool.BatchPath(r.cfg.WorkDir); p != "" {
		files = append(files, p)
	}
	return files
}

// Run sweeps every size, appending one record per sampled region to tb.
// The tool's settings file is restored and temporary files are removed
// on return, whether or not the sweep succeeded.
func (r *Runner) Run(ctx context.Context, s *sampler.Sampler, tb *results.Table) (err error) {
	tool := r.cfg.Tool
	if err := os.MkdirAll(filepath.Join(r.cfg.WorkDir, "images"), 0o755); err != nil {
		return err
	}
	restore, err := tool.ApplySettings(r.params(genome.Region{}))
	if err != nil {
		return err
	}
	defer func() {
		if rerr := restore(); rerr != nil && err == nil {
			err = rerr
		}
		log.CommandPrintf("rm -f %s", shellquote.Join(r.TempFiles()...))
		if rerr := fileutil.RemoveFiles(r.TempFiles()...); rerr != nil && err == nil {
			err = rerr
		}
	}()

	for _, size := range r.cfg.Sizes {
		w, err := s.Sweep(size)
		if err != nil {
			return fmt.Errorf("%s: %w", tool.Name(), err)
		}
		for i := 0; i < r.cfg.Samples; i++ {
			region, err := w.Next(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", tool.Name(), err)
			}
			rec, err := r.RunTrial(ctx, region)
			if err != nil {
				return fmt.Errorf("%s on %s: %w", tool.Name(), region, err)
			}
			log.Printf("%s %s size=%d sample=%d/%d reads=%d time=%.3fs rss=%d",
				tool.Name(), region, size, i+1, r.cfg.Samples, rec.Reads, rec.Elapsed, rec.PeakRSS)
			tb.Append(rec)
		}
		log.Printf("%s: %d regions of %d bp measured", tool.Name(), w.Accepted(), size)
	}
	return nil
}
