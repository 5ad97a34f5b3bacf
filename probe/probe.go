// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package probe counts the reads aligned within a region of an indexed
// alignment file. The count decides whether a sampled region is usable
// and is recorded alongside every trial.
package probe

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/regionbench/regionbench/genome"
	"github.com/regionbench/regionbench/measure"
)

// Result is the outcome of one probe. Reads and Elapsed are -1 when the
// probe is disabled.
type Result struct {
	Reads   int
	Elapsed float64 // seconds
}

// Probe counts reads in a region.
type Probe interface {
	Count(ctx context.Context, r genome.Region) (Result, error)
}

// Kind names a probe implementation.
type Kind string

const (
	KindSamtools Kind = "samtools"
	KindNative   Kind = "native"
	KindNone     Kind = "none"
)

// ParseKind validates a probe kind. The empty string selects samtools.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindSamtools, nil
	case KindSamtools, KindNative, KindNone:
		return k, nil
	}
	return "", fmt.Errorf("unknown probe kind %q", s)
}

// Samtools probes by running "samtools view -c" under a Timer, so the
// probe's own run time is measured the same way the tools are.
type Samtools struct {
	Path    string
	BAM     string
	Threads int
	Timer   *measure.Timer
}

func (s *Samtools) Args(r genome.Region) []string {
	path := s.Path
	if path == "" {
		path = "samtools"
	}
	threads := s.Threads
	if threads < 1 {
		threads = 1
	}
	return []string{path, "view", fmt.Sprintf("-@%d", threads), "-c", s.BAM, r.String()}
}

func (s *Samtools) Count(ctx context.Context, r genome.Region) (Result, error) {
	o, err := s.Timer.Run(ctx, measure.Command{
		Name:          "samtools",
		Args:          s.Args(r),
		CaptureStdout: true,
	})
	if err != nil {
		return Result{Reads: -1, Elapsed: -1}, fmt.Errorf("samtools view -c %s: %w", r, err)
	}
	n, err := strconv.Atoi(string(bytes.TrimSpace(o.Stdout)))
	if err != nil {
		return Result{Reads: -1, Elapsed: -1}, fmt.Errorf("samtools view -c %s: unexpected output %q", r, o.Stdout)
	}
	return Result{Reads: n, Elapsed: o.Elapsed}, nil
}

// None is the disabled probe.
type None struct{}

func (None) Count(context.Context, genome.Region) (Result, error) {
	return Result{Reads: -1, Elapsed: -1}, nil
}

// Counter adapts a Probe to the sampler's read-count check.
type Counter struct {
	Probe Probe
}

func (c Counter) CountReads(ctx context.Context, r genome.Region) (int, error) {
	res, err := c.Probe.Count(ctx, r)
	if err != nil {
		return 0, err
	}
	return res.Reads, nil
}
