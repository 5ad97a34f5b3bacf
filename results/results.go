// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package results holds trial records and reads and writes them as CSV
// tables, one table per tool, thread count and argument set.
package results

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/regionbench/regionbench/genome"
)

// TrialRecord is one measured tool invocation. Elapsed, PeakRSS, Reads
// and ProbeTime are -1 when they could not be measured.
type TrialRecord struct {
	Tool      string
	Region    genome.Region
	Reads     int
	ProbeTime float64 // seconds
	Elapsed   float64 // seconds
	PeakRSS   int64   // bytes
	Threads   int
}

// Size is the region size in bases.
func (r TrialRecord) Size() int { return r.Region.Len() }

// Measured reports whether the tool run produced a time.
func (r TrialRecord) Measured() bool { return r.Elapsed >= 0 }

// Columns is the header of a results table.
var Columns = []string{"name", "region", "reads", "region size (bp)", "samtools_count (s)", "time (s)", "RSS", "threads"}

// Table accumulates records in insertion order. It is not safe for
// concurrent use.
type Table struct {
	records []TrialRecord
}

func (t *Table) Append(r TrialRecord) { t.records = append(t.records, r) }

func (t *Table) Len() int { return len(t.records) }

// Records returns a copy of the accumulated records.
func (t *Table) Records() []TrialRecord {
	return append([]TrialRecord(nil), t.records...)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Write writes the header and every record as CSV.
func (t *Table) Write(w io.Writer) error {
	return WriteRecords(w, t.records)
}

// WriteRecords writes a header and recs as CSV.
func WriteRecords(w io.Writer, recs []TrialRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.Tool,
			r.Region.String(),
			strconv.Itoa(r.Reads),
			strconv.Itoa(r.Size()),
			formatFloat(r.ProbeTime),
			formatFloat(r.Elapsed),
			strconv.FormatInt(r.PeakRSS, 10),
			strconv.Itoa(r.Threads),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, replacing any existing file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileName is the conventional table name for a tool run: the tool name
// with any extra arguments appended (spaces replaced by underscores),
// then the thread count.
func FileName(tool, extraArgs string, threads int) string {
	return fmt.Sprintf("%s%s.%d.benchmark.csv", tool, strings.ReplaceAll(extraArgs, " ", "_"), threads)
}

// Read parses a results table. Columns are located by header name, so
// tables without the optional reads and samtools_count columns are
// accepted; those fields read as -1.
func Read(r io.Reader) ([]TrialRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"name", "region", "time (s)", "RSS"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("results header lacks column %q", required)
		}
	}
	var recs []TrialRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		rec, err := parseRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func parseRow(row []string, col map[string]int) (TrialRecord, error) {
	get := func(name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}
	num := func(name string) (float64, error) {
		s, ok := get(name)
		if !ok || s == "" {
			return -1, nil
		}
		return strconv.ParseFloat(s, 64)
	}

	rec := TrialRecord{Threads: 1}
	rec.Tool, _ = get("name")
	region, _ := get("region")
	var err error
	if rec.Region, err = genome.ParseRegion(region); err != nil {
		return rec, err
	}
	reads, err := num("reads")
	if err != nil {
		return rec, fmt.Errorf("reads: %w", err)
	}
	rec.Reads = int(reads)
	if rec.ProbeTime, err = num("samtools_count (s)"); err != nil {
		return rec, fmt.Errorf("samtools_count: %w", err)
	}
	if rec.Elapsed, err = num("time (s)"); err != nil {
		return rec, fmt.Errorf("time: %w", err)
	}
	rss, err := num("RSS")
	if err != nil {
		return rec, fmt.Errorf("RSS: %w", err)
	}
	rec.PeakRSS = int64(rss)
	if s, ok := get("threads"); ok && s != "" {
		if rec.Threads, err = strconv.Atoi(s); err != nil {
			return rec, fmt.Errorf("threads: %w", err)
		}
	}
	return rec, nil
}

// ReadFile reads the results table at path.
func ReadFile(path string) ([]TrialRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// LoadAll reads several tables concurrently and concatenates their
// records in argument order.
func LoadAll(ctx context.Context, paths []string) ([]TrialRecord, error) {
	tables := make([][]TrialRecord, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := ReadFile(p)
			if err != nil {
				return err
			}
			tables[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []TrialRecord
	for _, t := range tables {
		all = append(all, t...)
	}
	return all, nil
}
