// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReadGapsLayouts(t *testing.T) {
	t.Parallel()
	in := "#bin\tchrom\tchromStart\tchromEnd\tix\tn\tsize\ttype\tbridge\n" +
		"585\tchr1\t0\t10000\t1\tN\t10000\ttelomere\tno\n" +
		"chr2\t500\t600\n" +
		"\n" +
		"1\tchr1\t121535434\t124535434\t2\tN\t3000000\tcentromere\tno\n"
	gs, err := ReadGaps(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if gs.Len() != 3 {
		t.Errorf("Len() = %d, want 3", gs.Len())
	}
	if got, want := gs.Chromosomes(), []string{"chr1", "chr2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Chromosomes() = %v, want %v", got, want)
	}
	for _, tc := range []struct {
		chrom      string
		start, end int
		want       bool
	}{
		{"chr1", 5000, 7000, true},
		{"chr1", 10000, 12000, true}, // touches the telomere
		{"chr1", 10001, 12000, false},
		{"chr1", 124000000, 125000000, true},
		{"chr1", 100000000, 121535433, false},
		{"chr2", 0, 499, false},
		{"chr2", 550, 551, true},
		{"chr3", 0, 1 << 30, false},
	} {
		if got := gs.Overlaps(tc.chrom, tc.start, tc.end); got != tc.want {
			t.Errorf("Overlaps(%s, %d, %d) = %v, want %v", tc.chrom, tc.start, tc.end, got, tc.want)
		}
	}
}

func TestReadGapsMalformed(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"chr1\tten\ttwenty\n",
		"chr1\t100\n",
		"chr1\t200\t100\n",
	} {
		_, err := ReadGaps(strings.NewReader(in))
		if !errors.Is(err, ErrMalformedGapRecord) {
			t.Errorf("ReadGaps(%q): got %v, want ErrMalformedGapRecord", in, err)
		}
	}
}

func TestZeroLengthGap(t *testing.T) {
	t.Parallel()
	var gs GapSet
	if err := gs.Add("chr1", 100, 100); err != nil {
		t.Fatal(err)
	}
	if !gs.Overlaps("chr1", 50, 100) {
		t.Error("region ending at a zero-length gap should overlap it")
	}
	if gs.Overlaps("chr1", 101, 200) {
		t.Error("region after a zero-length gap should not overlap it")
	}
}

func TestLoadGapsNone(t *testing.T) {
	t.Parallel()
	for _, p := range NoGaps {
		gs, err := LoadGaps(p)
		if err != nil {
			t.Fatalf("LoadGaps(%q): %v", p, err)
		}
		if gs.Len() != 0 || gs.Overlaps("chr1", 0, 100) {
			t.Errorf("LoadGaps(%q) is not empty", p)
		}
	}
	var nilSet *GapSet
	if nilSet.Overlaps("chr1", 0, 1) {
		t.Error("nil GapSet overlaps")
	}
}
