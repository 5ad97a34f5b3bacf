// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aggregate turns trial records from one or more result tables
// into per-tool, per-size summary rows relative to a reference tool.
//
// A tool's startup cost is estimated as its fastest run at the smallest
// region size in the data; subtracting it from a group's mean time gives
// a render-only time. The smallest size serves only as that baseline and
// is dropped from the rows when larger sizes are present.
package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/regionbench/regionbench/results"
	"github.com/regionbench/regionbench/stats"
)

// Missing is the value reported for a metric that cannot be computed.
const Missing = -1.0

// DefaultOrder ranks the usual row labels for display. Labels without a
// rank follow all ranked ones, by name.
var DefaultOrder = map[string]float64{
	"gw":         0,
	"gw -t4":     0.5,
	"igv":        1,
	"igv -t4":    1.5,
	"jb2export":  2,
	"jbrowse2":   2,
	"samplot":    3,
	"wally":      4,
	"bamsnap":    5,
	"genomeview": 6,
	"samtools":   7,
}

// Options configures Aggregate.
type Options struct {
	// Reference is the tool every relative metric divides by.
	Reference string

	// Order overrides or extends DefaultOrder.
	Order map[string]float64

	// MemoryScale divides peak RSS bytes. Zero means 1e6 (megabytes).
	MemoryScale float64
}

// Baseline is a tool's estimated fixed cost.
type Baseline struct {
	Time    float64
	Memory  float64
	Missing bool
}

// SummaryRow aggregates the trials of one tool, thread count and region
// size. Fields that cannot be computed hold Missing.
type SummaryRow struct {
	Label      string
	Tool       string
	Threads    int
	RegionSize int
	Trials     int

	ProbeTime    float64
	BaselineTime float64

	TotalTime          float64
	RelativeTime       float64
	StartTime          float64
	RenderTime         float64
	RelativeRenderTime float64

	TotalMemory    float64
	StartMemory    float64
	RelativeMemory float64
}

// Summary is the output of Aggregate.
type Summary struct {
	Reference string
	Rows      []SummaryRow
	Baselines map[string]Baseline
}

// Label names a tool and thread count the way summary rows do.
func Label(tool string, threads int) string {
	if threads == 1 {
		return tool
	}
	return fmt.Sprintf("%s -t%d", tool, threads)
}

type sizeThreads struct{ size, threads int }

type groupKey struct {
	tool    string
	size    int
	threads int
}

// ratio divides a by b, reporting Missing unless both are measured and b
// is positive.
func ratio(a, b float64) float64 {
	if a < 0 || b <= 0 {
		return Missing
	}
	return a / b
}

// Aggregate summarizes recs. It never fails: absent or unusable data
// shows up as Missing in the affected fields.
func Aggregate(recs []results.TrialRecord, opts Options) *Summary {
	if opts.Reference == "" {
		opts.Reference = "gw"
	}
	scale := opts.MemoryScale
	if scale <= 0 {
		scale = 1e6
	}
	mem := func(r results.TrialRecord) float64 {
		if r.PeakRSS < 0 {
			return Missing
		}
		return float64(r.PeakRSS) / scale
	}
	secs := func(r results.TrialRecord) float64 {
		if r.Elapsed < 0 {
			return Missing
		}
		return r.Elapsed
	}

	sum := &Summary{Reference: opts.Reference, Baselines: make(map[string]Baseline)}
	if len(recs) == 0 {
		return sum
	}

	// Reference means per size, over single-threaded reference runs.
	refTimes := make(map[int][]float64)
	refMems := make(map[int][]float64)
	probes := make(map[sizeThreads][]float64)
	minSize := math.MaxInt
	sizes := make(map[int]bool)
	for _, r := range recs {
		size := r.Size()
		sizes[size] = true
		if size < minSize {
			minSize = size
		}
		probes[sizeThreads{size, r.Threads}] = append(probes[sizeThreads{size, r.Threads}], r.ProbeTime)
		if r.Tool == opts.Reference && r.Threads == 1 && r.Measured() {
			refTimes[size] = append(refTimes[size], secs(r))
			refMems[size] = append(refMems[size], mem(r))
		}
	}

	// Per-tool baselines at the smallest size.
	baseTimes := make(map[string][]float64)
	baseMems := make(map[string][]float64)
	for _, r := range recs {
		if _, ok := baseTimes[r.Tool]; !ok {
			baseTimes[r.Tool] = nil
		}
		if r.Size() == minSize && r.Measured() {
			baseTimes[r.Tool] = append(baseTimes[r.Tool], secs(r))
			baseMems[r.Tool] = append(baseMems[r.Tool], mem(r))
		}
	}
	for tool, ts := range baseTimes {
		t, ok := stats.Min(ts)
		b := Baseline{Time: stats.OrMissing(t, ok), Memory: stats.OrMissing(stats.Min(baseMems[tool])), Missing: !ok}
		sum.Baselines[tool] = b
	}

	dropMin := len(sizes) > 1
	groups := make(map[groupKey][]results.TrialRecord)
	var keys []groupKey
	for _, r := range recs {
		if !r.Measured() || (dropMin && r.Size() == minSize) {
			continue
		}
		k := groupKey{r.Tool, r.Size(), r.Threads}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}

	for _, k := range keys {
		g := groups[k]
		var ts, ms []float64
		for _, r := range g {
			ts = append(ts, secs(r))
			ms = append(ms, mem(r))
		}
		base := sum.Baselines[k.tool]
		row := SummaryRow{
			Label:        Label(k.tool, k.threads),
			Tool:         k.tool,
			Threads:      k.threads,
			RegionSize:   k.size,
			Trials:       len(g),
			ProbeTime:    stats.OrMissing(stats.Mean(probes[sizeThreads{k.size, k.threads}])),
			BaselineTime: stats.OrMissing(stats.Mean(refTimes[k.size])),
			TotalTime:    stats.OrMissing(stats.Mean(ts)),
			StartTime:    base.Time,
			TotalMemory:  stats.OrMissing(stats.Mean(ms)),
			StartMemory:  base.Memory,
		}
		row.RenderTime = Missing
		if row.TotalTime >= 0 && row.StartTime >= 0 {
			// A group mean can fall below the fastest startup run.
			row.RenderTime = math.Max(0, row.TotalTime-row.StartTime)
		}
		row.RelativeTime = ratio(row.TotalTime, row.BaselineTime)
		row.RelativeMemory = ratio(row.TotalMemory, stats.OrMissing(stats.Mean(refMems[k.size])))
		sum.Rows = append(sum.Rows, row)
	}

	refRender := make(map[int]float64)
	for _, row := range sum.Rows {
		if row.Tool == opts.Reference && row.Threads == 1 {
			refRender[row.RegionSize] = row.RenderTime
		}
	}
	for i := range sum.Rows {
		row := &sum.Rows[i]
		row.RelativeRenderTime = Missing
		if rr, ok := refRender[row.RegionSize]; ok && row.RenderTime >= 0 {
			row.RelativeRenderTime = ratio(row.RenderTime, rr)
		}
	}

	sortRows(sum.Rows, opts.Order)
	return sum
}

func sortRows(rows []SummaryRow, override map[string]float64) {
	rank := func(label string) (float64, bool) {
		if r, ok := override[label]; ok {
			return r, true
		}
		r, ok := DefaultOrder[label]
		return r, ok
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, oki := rank(rows[i].Label)
		rj, okj := rank(rows[j].Label)
		if oki != okj {
			return oki
		}
		if oki && ri != rj {
			return ri < rj
		}
		if rows[i].Label != rows[j].Label {
			return rows[i].Label < rows[j].Label
		}
		return rows[i].RegionSize < rows[j].RegionSize
	})
}
