// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sampler draws reproducible, gap-avoiding genomic regions of a
// fixed size for a benchmark sweep.
//
// Each region size is sampled by a Sweep. A Sweep walks a chromosome pool
// shuffled once at its start. Every call to Next takes the next chromosome
// from the pool and draws up to Retries random candidates on it; the
// first candidate that avoids every gap (and, when a ReadCounter is
// configured, contains at least one read) is accepted. A chromosome whose
// candidates all fail is skipped. Running off the end of the pool is
// fatal, which bounds the total work of a sweep by len(pool)*Retries draws.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/regionbench/regionbench/genome"
)

var (
	// ErrExhaustedChromosomePool means the chromosome pool ran out before
	// the requested number of regions was accepted.
	ErrExhaustedChromosomePool = errors.New("exhausted chromosome pool")

	// ErrNoReadsInRegion means candidates avoided every gap but none of
	// them contained an aligned read.
	ErrNoReadsInRegion = errors.New("no reads in any candidate region")
)

// DefaultRetries is the number of candidates drawn per chromosome.
const DefaultRetries = 10

// ReadCounter reports how many reads are aligned within a region.
type ReadCounter interface {
	CountReads(ctx context.Context, r genome.Region) (int, error)
}

// Config controls a Sampler.
type Config struct {
	// Seed seeds the random source shared by every sweep of a Sampler.
	Seed int64

	// Retries is the number of candidates drawn per chromosome. Zero
	// means DefaultRetries.
	Retries int

	// PoolRepeat repeats the chromosome pool this many times before it
	// is shuffled, letting small references host many samples. Zero
	// means one copy.
	PoolRepeat int
}

// Sampler produces Sweeps over a fixed index and gap set. A Sampler is
// not safe for concurrent use; sweeps share its random source so that a
// whole run is reproducible from one seed.
type Sampler struct {
	index   *genome.ChromosomeIndex
	gaps    *genome.GapSet
	counter ReadCounter
	rng     *rand.Rand
	retries int
	repeat  int
}

// New returns a Sampler. gaps and counter may be nil.
func New(index *genome.ChromosomeIndex, gaps *genome.GapSet, counter ReadCounter, cfg Config) *Sampler {
	s := &Sampler{
		index:   index,
		gaps:    gaps,
		counter: counter,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		retries: cfg.Retries,
		repeat:  cfg.PoolRepeat,
	}
	if s.retries <= 0 {
		s.retries = DefaultRetries
	}
	if s.repeat <= 0 {
		s.repeat = 1
	}
	return s
}

// Sweep starts sampling regions of the given size, shuffling the
// chromosome pool once.
func (s *Sampler) Sweep(size int) (*Sweep, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid region size %d", size)
	}
	names := s.index.Names()
	pool := make([]string, 0, len(names)*s.repeat)
	for i := 0; i < s.repeat; i++ {
		pool = append(pool, names...)
	}
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return &Sweep{
		s:    s,
		size: size,
		half: size / 2,
		pool: pool,
	}, nil
}

// Sample is a convenience that draws n regions of one size.
func (s *Sampler) Sample(ctx context.Context, size, n int) ([]genome.Region, error) {
	w, err := s.Sweep(size)
	if err != nil {
		return nil, err
	}
	regions := make([]genome.Region, 0, n)
	for len(regions) < n {
		r, err := w.Next(ctx)
		if err != nil {
			return regions, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// State is the state of a Sweep.
type State int

const (
	// Sampling means the sweep is drawing candidates.
	Sampling State = iota
	// Accepted means the last step produced a region.
	Accepted
	// Exhausted means the pool ran out; the sweep cannot continue.
	Exhausted
)

func (st State) String() string {
	switch st {
	case Sampling:
		return "sampling"
	case Accepted:
		return "accepted"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("State(%d)", int(st))
}

// Sweep samples regions of one size. Obtain one from Sampler.Sweep.
type Sweep struct {
	s      *Sampler
	size   int
	half   int
	pool   []string
	cursor int
	state  State
	region genome.Region

	accepted int
	probed   int // candidates passed to the read counter
	empty    int // probed candidates with no reads
	last     string
}

// Size returns the region size of the sweep.
func (w *Sweep) Size() int { return w.size }

// State returns the current state.
func (w *Sweep) State() State { return w.state }

// Accepted returns the number of regions produced so far.
func (w *Sweep) Accepted() int { return w.accepted }

// Next returns the next accepted region. Once it returns an error the
// sweep is Exhausted and every later call returns an error too.
func (w *Sweep) Next(ctx context.Context) (genome.Region, error) {
	if w.state == Exhausted {
		return genome.Region{}, w.exhaustedErr()
	}
	w.state = Sampling
	for w.state == Sampling {
		if err := w.step(ctx); err != nil {
			w.state = Exhausted
			return genome.Region{}, &Error{Size: w.size, Chrom: w.last, Tried: w.cursor, Err: err}
		}
	}
	if w.state == Exhausted {
		return genome.Region{}, w.exhaustedErr()
	}
	w.accepted++
	return w.region, nil
}

// step consumes one chromosome from the pool and moves the sweep to
// Accepted, leaves it Sampling, or moves it to Exhausted. Errors come only
// from the read counter.
func (w *Sweep) step(ctx context.Context) error {
	if w.cursor >= len(w.pool) {
		w.state = Exhausted
		return nil
	}
	chrom := w.pool[w.cursor]
	w.cursor++
	w.last = chrom

	length, _ := w.s.index.Length(chrom)
	// Centers are drawn so that [center-half, center-half+size) lies
	// within the chromosome, making every region exactly size bases.
	lo, hi := w.half, length-(w.size-w.half)
	if hi < lo {
		return nil
	}
	for i := 0; i < w.s.retries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		center := lo + w.s.rng.Intn(hi-lo+1)
		r := genome.Region{Chrom: chrom, Start: center - w.half}
		r.End = r.Start + w.size
		if w.s.gaps.Overlaps(r.Chrom, r.Start, r.End) {
			continue
		}
		if w.s.counter != nil {
			w.probed++
			n, err := w.s.counter.CountReads(ctx, r)
			if err != nil {
				return fmt.Errorf("counting reads in %s: %w", r, err)
			}
			if n <= 0 {
				w.empty++
				continue
			}
		}
		w.region = r
		w.state = Accepted
		return nil
	}
	return nil
}

func (w *Sweep) exhaustedErr() error {
	err := ErrExhaustedChromosomePool
	if w.probed > 0 && w.empty == w.probed {
		err = ErrNoReadsInRegion
	}
	return &Error{Size: w.size, Chrom: w.last, Tried: w.cursor, Accepted: w.accepted, Err: err}
}

// Error describes a failed sweep with enough context to reproduce it.
type Error struct {
	Size     int    // region size being sampled
	Chrom    string // last chromosome attempted
	Tried    int    // chromosomes consumed from the pool
	Accepted int    // regions accepted before the failure
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sampling %d bp regions (accepted %d, tried %d chromosomes, last %q): %v",
		e.Size, e.Accepted, e.Tried, e.Chrom, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
