// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/regionbench/regionbench/genome"
)

type countFunc func(genome.Region) (int, error)

func (f countFunc) CountReads(_ context.Context, r genome.Region) (int, error) {
	return f(r)
}

func testIndex() *genome.ChromosomeIndex {
	return genome.NewIndex([]genome.Chromosome{
		{Name: "chr1", Length: 30_000_000},
		{Name: "chr2", Length: 25_000_000},
	}, 0)
}

func TestScenarioSingleSample(t *testing.T) {
	t.Parallel()
	sample := func() []genome.Region {
		s := New(testIndex(), &genome.GapSet{}, nil, Config{Seed: 0, Retries: 10})
		regions, err := s.Sample(context.Background(), 2000, 1)
		if err != nil {
			t.Fatal(err)
		}
		return regions
	}
	a, b := sample(), sample()
	if len(a) != 1 {
		t.Fatalf("got %d regions, want 1", len(a))
	}
	r := a[0]
	if r.Chrom != "chr1" && r.Chrom != "chr2" {
		t.Errorf("region on unexpected chromosome %q", r.Chrom)
	}
	if r.Len() != 2000 {
		t.Errorf("region %v has length %d, want 2000", r, r.Len())
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced %v and %v", a, b)
	}
}

func TestDeterminismAcrossSizes(t *testing.T) {
	t.Parallel()
	var chroms []genome.Chromosome
	for i, n := range []int{50e6, 60e6, 70e6, 80e6, 90e6, 100e6} {
		chroms = append(chroms, genome.Chromosome{Name: string(rune('a' + i)), Length: n})
	}
	run := func(seed int64) [][]genome.Region {
		s := New(genome.NewIndex(chroms, 0), nil, nil, Config{Seed: seed, PoolRepeat: 2})
		var out [][]genome.Region
		for _, size := range []int{2_000_000, 20_000, 2} {
			regions, err := s.Sample(context.Background(), size, 10)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, regions)
		}
		return out
	}
	if a, b := run(1), run(1); !reflect.DeepEqual(a, b) {
		t.Errorf("seed 1 is not reproducible:\n%v\n%v", a, b)
	}
	if a, b := run(1), run(2); reflect.DeepEqual(a, b) {
		t.Errorf("seeds 1 and 2 produced identical sweeps")
	}
}

func TestGapExclusionAndSize(t *testing.T) {
	t.Parallel()
	gaps := &genome.GapSet{}
	// Leave only a few windows of chr1 free.
	for start := 0; start < 30_000_000; start += 1_000_000 {
		if err := gaps.Add("chr1", start, start+900_000); err != nil {
			t.Fatal(err)
		}
	}
	idx := genome.NewIndex([]genome.Chromosome{{Name: "chr1", Length: 30_000_000}}, 0)
	for _, size := range []int{2, 2001, 20_000} {
		s := New(idx, gaps, nil, Config{Seed: 7, Retries: 1000, PoolRepeat: 50})
		regions, err := s.Sample(context.Background(), size, 25)
		if err != nil {
			t.Fatalf("size %d: %v", size, err)
		}
		for _, r := range regions {
			if r.Len() != size {
				t.Errorf("region %v has length %d, want %d", r, r.Len(), size)
			}
			if r.Start < 0 || r.End > 30_000_000 {
				t.Errorf("region %v out of chromosome bounds", r)
			}
			if gaps.Overlaps(r.Chrom, r.Start, r.End) {
				t.Errorf("region %v overlaps a gap", r)
			}
		}
	}
}

func TestExhaustion(t *testing.T) {
	t.Parallel()
	idx := genome.NewIndex([]genome.Chromosome{
		{Name: "chr1", Length: 1000},
		{Name: "chr2", Length: 1999},
	}, 0)
	s := New(idx, nil, nil, Config{PoolRepeat: 3})

	done := make(chan error, 1)
	go func() {
		_, err := s.Sample(context.Background(), 2000, 1)
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, ErrExhaustedChromosomePool) {
			t.Fatalf("got %v, want ErrExhaustedChromosomePool", err)
		}
		var serr *Error
		if !errors.As(err, &serr) || serr.Size != 2000 || serr.Tried != 6 {
			t.Errorf("unexpected error detail: %#v", serr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("sampling did not terminate")
	}
}

func TestPoolConsumedPerSample(t *testing.T) {
	t.Parallel()
	s := New(testIndex(), nil, nil, Config{Seed: 3})
	w, err := s.Sweep(2000)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		r, err := w.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		seen[r.Chrom] = true
	}
	if len(seen) != 2 {
		t.Errorf("two samples used chromosomes %v, want both", seen)
	}
	if w.Accepted() != 2 || w.State() != Accepted {
		t.Errorf("after two samples: accepted %d, state %v", w.Accepted(), w.State())
	}
	if _, err := w.Next(context.Background()); !errors.Is(err, ErrExhaustedChromosomePool) {
		t.Fatalf("third sample: got %v, want ErrExhaustedChromosomePool", err)
	}
	if w.State() != Exhausted {
		t.Errorf("state = %v, want exhausted", w.State())
	}
	if _, err := w.Next(context.Background()); err == nil {
		t.Error("exhausted sweep produced a region")
	}
}

func TestReadCounter(t *testing.T) {
	t.Parallel()
	t.Run("NoReads", func(t *testing.T) {
		calls := 0
		counter := countFunc(func(genome.Region) (int, error) {
			calls++
			return 0, nil
		})
		s := New(testIndex(), nil, counter, Config{Retries: 4})
		_, err := s.Sample(context.Background(), 2000, 1)
		if !errors.Is(err, ErrNoReadsInRegion) {
			t.Fatalf("got %v, want ErrNoReadsInRegion", err)
		}
		if calls != 8 {
			t.Errorf("counter called %d times, want 8 (2 chromosomes x 4 retries)", calls)
		}
	})
	t.Run("SkipsEmptyChromosome", func(t *testing.T) {
		counter := countFunc(func(r genome.Region) (int, error) {
			if r.Chrom == "chr1" {
				return 0, nil
			}
			return 12, nil
		})
		s := New(testIndex(), nil, counter, Config{})
		regions, err := s.Sample(context.Background(), 200, 1)
		if err != nil {
			t.Fatal(err)
		}
		if regions[0].Chrom != "chr2" {
			t.Errorf("accepted %v, want a region on chr2", regions[0])
		}
	})
	t.Run("ProbeFailureIsFatal", func(t *testing.T) {
		broken := errors.New("samtools: not found")
		counter := countFunc(func(genome.Region) (int, error) { return 0, broken })
		s := New(testIndex(), nil, counter, Config{})
		_, err := s.Sample(context.Background(), 200, 1)
		if !errors.Is(err, broken) {
			t.Fatalf("got %v, want probe error", err)
		}
	})
}

func TestInvalidSize(t *testing.T) {
	t.Parallel()
	s := New(testIndex(), nil, nil, Config{})
	if _, err := s.Sweep(0); err == nil {
		t.Error("Sweep(0) succeeded")
	}
}
