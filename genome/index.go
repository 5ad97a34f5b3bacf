// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/biogo/biogo/io/seqio/fai"
)

// ErrMissingIndexFile is returned when the reference length index does not
// exist.
var ErrMissingIndexFile = errors.New("missing reference index file")

// Chromosome is one entry of a ChromosomeIndex.
type Chromosome struct {
	Name   string
	Length int
}

// ChromosomeIndex is an ordered, immutable list of chromosomes long
// enough to host every region size of a sweep.
type ChromosomeIndex struct {
	chroms []Chromosome
	byName map[string]int
}

// NewIndex builds an index from chroms, keeping, in order, only the first
// entry for each name whose length exceeds minLength.
func NewIndex(chroms []Chromosome, minLength int) *ChromosomeIndex {
	idx := &ChromosomeIndex{byName: make(map[string]int)}
	for _, c := range chroms {
		if c.Length <= minLength {
			continue
		}
		if _, dup := idx.byName[c.Name]; dup {
			continue
		}
		idx.byName[c.Name] = len(idx.chroms)
		idx.chroms = append(idx.chroms, c)
	}
	return idx
}

// LoadIndex reads the length index at path. See ReadIndex.
func LoadIndex(path string, minLength int) (*ChromosomeIndex, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrMissingIndexFile, path)
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %v", path, err)
	}
	return ReadIndex(bytes.NewReader(b), minLength)
}

// ReadIndex parses a chromosome length index. A samtools faidx index is
// parsed strictly and ordered by file offset; anything else is read as a
// whitespace-separated "name length ..." sizes file, skipping lines whose
// first two fields do not parse.
func ReadIndex(r io.Reader, minLength int) (*ChromosomeIndex, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if chroms, err := readFai(b); err == nil && len(chroms) != 0 {
		return NewIndex(chroms, minLength), nil
	}
	chroms, err := readSizes(b)
	if err != nil {
		return nil, err
	}
	return NewIndex(chroms, minLength), nil
}

func readFai(b []byte) ([]Chromosome, error) {
	idx, err := fai.ReadFrom(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	recs := make([]fai.Record, 0, len(idx))
	for _, rec := range idx {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })
	chroms := make([]Chromosome, len(recs))
	for i, rec := range recs {
		chroms[i] = Chromosome{Name: rec.Name, Length: rec.Length}
	}
	return chroms, nil
}

func readSizes(b []byte) ([]Chromosome, error) {
	var chroms []Chromosome
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 2 || strings.HasPrefix(f[0], "#") {
			continue
		}
		n, err := strconv.Atoi(f[1])
		if err != nil || n < 0 {
			continue
		}
		chroms = append(chroms, Chromosome{Name: f[0], Length: n})
	}
	return chroms, sc.Err()
}

// Len returns the number of retained chromosomes.
func (idx *ChromosomeIndex) Len() int {
	return len(idx.chroms)
}

// Names returns the chromosome names in index order. The slice is a copy.
func (idx *ChromosomeIndex) Names() []string {
	names := make([]string, len(idx.chroms))
	for i, c := range idx.chroms {
		names[i] = c.Name
	}
	return names
}

// Length returns the length of the named chromosome.
func (idx *ChromosomeIndex) Length(name string) (int, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return 0, false
	}
	return idx.chroms[i].Length, true
}
