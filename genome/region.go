// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package genome holds the static genomic lookup state a sweep samples
// from: the chromosome length index and the set of excluded gap intervals.
package genome

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is a half-open interval [Start, End) on a named chromosome.
type Region struct {
	Chrom      string
	Start, End int
}

// Len returns the number of bases covered by the region.
func (r Region) Len() int {
	return r.End - r.Start
}

// String formats the region as chrom:start-end, the form accepted by
// samtools and the visualization tools alike.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// ParseRegion parses the chrom:start-end form produced by Region.String.
func ParseRegion(s string) (Region, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return Region{}, fmt.Errorf("region %q: missing chromosome", s)
	}
	span := s[i+1:]
	j := strings.IndexByte(span, '-')
	if j < 0 {
		return Region{}, fmt.Errorf("region %q: missing end", s)
	}
	start, err := strconv.Atoi(span[:j])
	if err != nil {
		return Region{}, fmt.Errorf("region %q: parsing start: %v", s, err)
	}
	end, err := strconv.Atoi(span[j+1:])
	if err != nil {
		return Region{}, fmt.Errorf("region %q: parsing end: %v", s, err)
	}
	if start < 0 || end <= start {
		return Region{}, fmt.Errorf("region %q: invalid span", s)
	}
	return Region{Chrom: s[:i], Start: start, End: end}, nil
}

// Overlap reports whether [start1, end1] and [start2, end2] intersect.
// Both ends are inclusive, so intervals that merely touch overlap.
func Overlap(start1, end1, start2, end2 int) bool {
	return end1 >= start2 && end2 >= start1
}
