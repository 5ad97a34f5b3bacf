// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/store/interval"
)

// ErrMalformedGapRecord is returned when a gap file line matches neither
// the 3-column nor the 4-column layout.
var ErrMalformedGapRecord = errors.New("malformed gap record")

// NoGaps are the path values meaning "no gap file".
var NoGaps = []string{"", "NA", "none"}

type gap struct {
	start, end int
	id         uintptr
}

func (g gap) Overlap(b interval.IntRange) bool {
	return Overlap(g.start, g.end, b.Start, b.End)
}
func (g gap) ID() uintptr { return g.id }
func (g gap) Range() interval.IntRange {
	// The tree rejects empty ranges; a zero-length gap still excludes
	// its position.
	return interval.IntRange{Start: g.start, End: max(g.end, g.start+1)}
}

// span is a query against a gap tree.
type span struct{ start, end int }

func (s span) Overlap(b interval.IntRange) bool {
	return Overlap(s.start, s.end, b.Start, b.End)
}

// GapSet maps chromosome names to excluded intervals. The zero value is
// an empty set. A GapSet is not modified after loading.
type GapSet struct {
	trees map[string]*interval.IntTree
	n     int
}

// Add registers the excluded interval [start, end) on chrom.
func (gs *GapSet) Add(chrom string, start, end int) error {
	if gs.trees == nil {
		gs.trees = make(map[string]*interval.IntTree)
	}
	t, ok := gs.trees[chrom]
	if !ok {
		t = &interval.IntTree{}
		gs.trees[chrom] = t
	}
	gs.n++
	return t.Insert(gap{start: start, end: end, id: uintptr(gs.n)}, false)
}

// Overlaps reports whether [start, end) touches any gap on chrom.
func (gs *GapSet) Overlaps(chrom string, start, end int) bool {
	if gs == nil {
		return false
	}
	t, ok := gs.trees[chrom]
	if !ok {
		return false
	}
	for _, e := range t.Get(span{start, end}) {
		g := e.(gap)
		if Overlap(g.start, g.end, start, end) {
			return true
		}
	}
	return false
}

// Len returns the total number of gaps.
func (gs *GapSet) Len() int {
	if gs == nil {
		return 0
	}
	return gs.n
}

// Chromosomes returns the sorted names of chromosomes with gaps.
func (gs *GapSet) Chromosomes() []string {
	if gs == nil {
		return nil
	}
	names := make([]string, 0, len(gs.trees))
	for name := range gs.trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadGaps reads the gap file at path. Any of the NoGaps values yields an
// empty set.
func LoadGaps(path string) (*GapSet, error) {
	for _, none := range NoGaps {
		if path == none {
			return &GapSet{}, nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	gs, err := ReadGaps(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gs, nil
}

// ReadGaps parses tab-separated gap records. Lines starting with '#' are
// comments. Each record is either "chrom start end ..." or, as in UCSC
// gap tables, "bin chrom start end ..."; the second layout is tried only
// when the first fails to convert.
func ReadGaps(r io.Reader) (*GapSet, error) {
	gs := &GapSet{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || text[0] == '#' {
			continue
		}
		f := strings.Fields(text)
		chrom, start, end, ok := parseGap(f, 0)
		if !ok {
			chrom, start, end, ok = parseGap(f, 1)
		}
		if !ok {
			return nil, fmt.Errorf("line %d: %w: %q", line, ErrMalformedGapRecord, text)
		}
		if err := gs.Add(chrom, start, end); err != nil {
			return nil, fmt.Errorf("line %d: %v", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return gs, nil
}

func parseGap(f []string, off int) (chrom string, start, end int, ok bool) {
	if len(f) < off+3 {
		return "", 0, 0, false
	}
	start, err := strconv.Atoi(f[off+1])
	if err != nil {
		return "", 0, 0, false
	}
	end, err = strconv.Atoi(f[off+2])
	if err != nil || start < 0 || end < start {
		return "", 0, 0, false
	}
	return f[off], start, end, true
}
