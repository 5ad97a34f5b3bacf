// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package probe

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/regionbench/regionbench/genome"
	"github.com/regionbench/regionbench/measure"
	"github.com/regionbench/regionbench/sampler"
)

var _ sampler.ReadCounter = Counter{}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": KindSamtools, "samtools": KindSamtools, "native": KindNative, "none": KindNone} {
		if got, err := ParseKind(in); err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("bedtools"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSamtoolsArgs(t *testing.T) {
	s := &Samtools{BAM: "x.bam", Threads: 4}
	got := s.Args(genome.Region{Chrom: "chr1", Start: 100, End: 2100})
	want := []string{"samtools", "view", "-@4", "-c", "x.bam", "chr1:100-2100"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSamtoolsCount(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
	dir := t.TempDir()
	fake := filepath.Join(dir, "samtools")
	// Report the region argument ($5 after "view -@N -c <bam>") length as
	// the count.
	script := "#!/bin/sh\nprintf '%s\\n' \"${#5}\"\n"
	if err := os.WriteFile(fake, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	s := &Samtools{Path: fake, BAM: "x.bam", Timer: &measure.Timer{Mode: measure.Rusage}}
	r := genome.Region{Chrom: "chr1", Start: 100, End: 2100}
	res, err := s.Count(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	if res.Reads != len(r.String()) {
		t.Fatalf("got %d reads, want %d", res.Reads, len(r.String()))
	}
	if res.Elapsed < 0 {
		t.Fatalf("expected an elapsed time, got %v", res.Elapsed)
	}

	n, err := Counter{Probe: s}.CountReads(context.Background(), r)
	if err != nil || n != res.Reads {
		t.Fatalf("Counter: got %d, %v", n, err)
	}

	bad := filepath.Join(dir, "broken")
	if err := os.WriteFile(bad, []byte("#!/bin/sh\necho '[E::hts_open] fail'\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	s.Path = bad
	if _, err := s.Count(context.Background(), r); err == nil {
		t.Fatal("expected error for non-numeric output")
	}
}

func TestNone(t *testing.T) {
	res, err := None{}.Count(context.Background(), genome.Region{Chrom: "chr1", Start: 0, End: 2})
	if err != nil || res.Reads != -1 || res.Elapsed != -1 {
		t.Fatalf("got %+v, %v", res, err)
	}
}

// writeBAM writes a coordinate-sorted BAM and its index. Reads are 100bp
// and start at the given positions on chr1.
func writeBAM(t *testing.T, dir string, starts []int) string {
	t.Helper()
	chr1, err := sam.NewReference("chr1", "", "", 1000000, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	chr2, err := sam.NewReference("chr2", "", "", 500000, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	h, err := sam.NewHeader(nil, []*sam.Reference{chr1, chr2})
	if err != nil {
		t.Fatal(err)
	}
	h.SortOrder = sam.Coordinate

	var buf bytes.Buffer
	w, err := bam.NewWriter(&buf, h, 1)
	if err != nil {
		t.Fatal(err)
	}
	seq := bytes.Repeat([]byte("A"), 100)
	qual := bytes.Repeat([]byte{30}, 100)
	cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 100)}
	for i, p := range starts {
		rec, err := sam.NewRecord("read"+string(rune('a'+i%26)), chr1, nil, p, -1, 0, 60, cigar, seq, qual, nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Write(rec); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "reads.bam")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	br, err := bam.NewReader(bytes.NewReader(buf.Bytes()), 1)
	if err != nil {
		t.Fatal(err)
	}
	var idx bam.Index
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if err := idx.Add(rec, br.LastChunk()); err != nil {
			t.Fatal(err)
		}
	}
	br.Close()
	ixf, err := os.Create(path + ".bai")
	if err != nil {
		t.Fatal(err)
	}
	if err := bam.WriteIndex(ixf, &idx); err != nil {
		t.Fatal(err)
	}
	if err := ixf.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNative(t *testing.T) {
	path := writeBAM(t, t.TempDir(), []int{1000, 1050, 5000, 200000, 200050, 200099})
	n, err := OpenNative(path, "", 1)
	if err != nil {
		t.Fatal(err)
	}
	defer n.Close()

	for _, test := range []struct {
		region string
		want   int
	}{
		{"chr1:0-999", 0},
		{"chr1:1000-1001", 1},
		{"chr1:1099-1100", 2},
		{"chr1:0-10000", 3},
		{"chr1:200100-200150", 2},
		{"chr1:300000-302000", 0},
		{"chr2:0-2000", 0},
	} {
		r, err := genome.ParseRegion(test.region)
		if err != nil {
			t.Fatal(err)
		}
		res, err := n.Count(context.Background(), r)
		if err != nil {
			t.Fatalf("%s: %v", test.region, err)
		}
		if res.Reads != test.want {
			t.Errorf("%s: got %d reads, want %d", test.region, res.Reads, test.want)
		}
	}
	if _, err := n.Count(context.Background(), genome.Region{Chrom: "chrUn", Start: 0, End: 10}); err == nil {
		t.Fatal("expected error for unknown reference")
	}
}
