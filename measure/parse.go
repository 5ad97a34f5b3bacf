// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package measure

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// ParseTime parses the side file written by GNU time with the format
// "%e\t%M". It returns elapsed seconds and peak RSS in bytes.
//
// GNU time prefixes the file with a status line such as
// "Command exited with non-zero status 1" when the child fails, so the
// last line holding two numeric fields wins.
func ParseTime(b []byte) (elapsed float64, rss int64, err error) {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		f := strings.Fields(lines[i])
		if len(f) != 2 {
			continue
		}
		e, err := strconv.ParseFloat(f[0], 64)
		if err != nil || e < 0 {
			continue
		}
		kb, err := strconv.ParseInt(f[1], 10, 64)
		if err != nil || kb < 0 {
			continue
		}
		return e, kb << 10, nil
	}
	return -1, -1, fmt.Errorf("%w: no elapsed/maxrss line in %q", ErrNoMeasurement, string(b))
}

// ParseHyperfine parses a hyperfine --export-csv file and returns the
// mean time in seconds from the first data row.
func ParseHyperfine(b []byte) (float64, error) {
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrNoMeasurement, err)
	}
	if len(recs) < 2 || len(recs[1]) < 2 {
		return -1, fmt.Errorf("%w: hyperfine export has no data row", ErrNoMeasurement)
	}
	col := 1
	for i, h := range recs[0] {
		if h == "mean" {
			col = i
			break
		}
	}
	if col >= len(recs[1]) {
		return -1, fmt.Errorf("%w: hyperfine export row is short", ErrNoMeasurement)
	}
	v, err := strconv.ParseFloat(recs[1][col], 64)
	if err != nil {
		return -1, fmt.Errorf("%w: %v", ErrNoMeasurement, err)
	}
	return v, nil
}
