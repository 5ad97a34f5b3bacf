// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package aggregate

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"gitlab.com/golang-commonmark/markdown"
)

// Columns is the header of summary tables.
var Columns = []string{
	"name", "region size (bp)", "samtools", "baseline_time",
	"total_time", "relative_time", "start_time", "render", "relative_render_time",
	"total_mem", "start_mem", "relative_mem",
}

func round3(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

func full(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (r *SummaryRow) cells(format func(float64) string) []string {
	return []string{
		r.Label,
		strconv.Itoa(r.RegionSize),
		format(r.ProbeTime),
		format(r.BaselineTime),
		format(r.TotalTime),
		format(r.RelativeTime),
		format(r.StartTime),
		format(r.RenderTime),
		format(r.RelativeRenderTime),
		format(r.TotalMemory),
		format(r.StartMemory),
		format(r.RelativeMemory),
	}
}

// WriteMarkdown writes the rows as a pipe table with values rounded to
// three decimal places. The first column is left aligned, the numeric
// ones right aligned.
func WriteMarkdown(w io.Writer, rows []SummaryRow) error {
	table := [][]string{Columns}
	for i := range rows {
		table = append(table, rows[i].cells(round3))
	}
	widths := make([]int, len(Columns))
	for _, row := range table {
		for i, c := range row {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}
	var b strings.Builder
	line := func(row []string) {
		for i, c := range row {
			pad := strings.Repeat(" ", widths[i]-len(c))
			if i == 0 {
				fmt.Fprintf(&b, "| %s%s ", c, pad)
			} else {
				fmt.Fprintf(&b, "| %s%s ", pad, c)
			}
		}
		b.WriteString("|\n")
	}
	line(table[0])
	for i, wd := range widths {
		if i == 0 {
			fmt.Fprintf(&b, "|:%s", strings.Repeat("-", wd+1))
		} else {
			fmt.Fprintf(&b, "|%s:", strings.Repeat("-", wd+1))
		}
	}
	b.WriteString("|\n")
	for _, row := range table[1:] {
		line(row)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteCSV writes the rows at full precision, with the trial count
// appended, for external plotting.
func WriteCSV(w io.Writer, rows []SummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string(nil), Columns...), "trials")); err != nil {
		return err
	}
	for i := range rows {
		if err := cw.Write(append(rows[i].cells(full), strconv.Itoa(rows[i].Trials))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReport writes a titled markdown document: a note on how to read
// the columns, then the table.
func WriteReport(w io.Writer, title string, s *Summary) error {
	_, err := fmt.Fprintf(w, `# %s

Relative metrics are against `+"`%s`"+`. Times are in seconds, memory in MB;
-1 marks a missing value. Render time is total time minus the tool's
fastest run at the smallest region size, clamped at 0 when a mean falls
below that start time, so relative render time is never negative.

`, title, s.Reference)
	if err != nil {
		return err
	}
	return WriteMarkdown(w, s.Rows)
}

// WriteHTML renders the WriteReport document as XHTML.
func WriteHTML(w io.Writer, title string, s *Summary) error {
	var src bytes.Buffer
	if err := WriteReport(&src, title, s); err != nil {
		return err
	}
	md := markdown.New(
		markdown.XHTMLOutput(true),
		markdown.Tables(true),
	)
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"/><title>%s</title></head><body>\n", html.EscapeString(title))
	if err := md.Render(w, src.Bytes()); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body></html>\n")
	return err
}
