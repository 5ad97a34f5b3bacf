// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/regionbench/regionbench/genome"
)

// Native counts reads in-process from a BAM file and its .bai index.
// It is not safe for concurrent use.
type Native struct {
	f    *os.File
	br   *bam.Reader
	idx  *bam.Index
	refs map[string]*sam.Reference
}

// OpenNative opens bamPath and its index. An empty indexPath means
// bamPath + ".bai".
func OpenNative(bamPath, indexPath string, threads int) (*Native, error) {
	if indexPath == "" {
		indexPath = bamPath + ".bai"
	}
	if threads < 1 {
		threads = 1
	}
	ixf, err := os.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("open BAM index: %w", err)
	}
	defer ixf.Close()
	idx, err := bam.ReadIndex(ixf)
	if err != nil {
		return nil, fmt.Errorf("read BAM index %s: %w", indexPath, err)
	}
	f, err := os.Open(bamPath)
	if err != nil {
		return nil, err
	}
	br, err := bam.NewReader(f, threads)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read BAM %s: %w", bamPath, err)
	}
	n := &Native{f: f, br: br, idx: idx, refs: make(map[string]*sam.Reference)}
	for _, ref := range br.Header().Refs() {
		n.refs[ref.Name()] = ref
	}
	return n, nil
}

func (n *Native) Count(ctx context.Context, r genome.Region) (Result, error) {
	start := time.Now()
	ref, ok := n.refs[r.Chrom]
	if !ok {
		return Result{Reads: -1, Elapsed: -1}, fmt.Errorf("%s: reference %q not in BAM header", r, r.Chrom)
	}
	// An index built from the reads stops at the last reference that has
	// any, so later header references are not in it.
	if ref.ID() >= n.idx.NumRefs() {
		return Result{Reads: 0, Elapsed: time.Since(start).Seconds()}, nil
	}
	if _, ok := n.idx.ReferenceStats(ref.ID()); !ok {
		return Result{Reads: 0, Elapsed: time.Since(start).Seconds()}, nil
	}
	chunks, err := n.idx.Chunks(ref, r.Start, r.End)
	if err != nil {
		// The index holds no bins for this interval.
		return Result{Reads: 0, Elapsed: time.Since(start).Seconds()}, nil
	}
	it, err := bam.NewIterator(n.br, chunks)
	if err != nil {
		return Result{Reads: -1, Elapsed: -1}, err
	}
	count := 0
	for i := 0; it.Next(); i++ {
		if i%4096 == 0 && ctx.Err() != nil {
			it.Close()
			return Result{Reads: -1, Elapsed: -1}, ctx.Err()
		}
		rec := it.Record()
		if rec.Ref == nil || rec.Ref.ID() != ref.ID() {
			continue
		}
		end := rec.End()
		if end <= rec.Pos {
			end = rec.Pos + 1
		}
		if rec.Pos < r.End && end > r.Start {
			count++
		}
	}
	if err := it.Error(); err != nil {
		it.Close()
		return Result{Reads: -1, Elapsed: -1}, err
	}
	if err := it.Close(); err != nil {
		return Result{Reads: -1, Elapsed: -1}, err
	}
	return Result{Reads: count, Elapsed: time.Since(start).Seconds()}, nil
}

func (n *Native) Close() error {
	err := n.br.Close()
	if cerr := n.f.Close(); err == nil {
		err = cerr
	}
	return err
}
