// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import "testing"

func TestStats(t *testing.T) {
	for _, test := range []struct {
		name      string
		in        []float64
		mean, min float64
		ok        bool
	}{
		{"Empty", nil, 0, 0, false},
		{"AllMissing", []float64{-1, -1}, 0, 0, false},
		{"One", []float64{2}, 2, 2, true},
		{"Odd", []float64{3, 1, 2}, 2, 1, true},
		{"Even", []float64{4, 1, 3, 2}, 2.5, 1, true},
		{"SkipsMissing", []float64{-1, 1, 3, -1}, 2, 1, true},
		{"Zero", []float64{0, 4}, 2, 0, true},
	} {
		t.Run(test.name, func(t *testing.T) {
			if v, ok := Mean(test.in); ok != test.ok || v != test.mean {
				t.Errorf("Mean = %v, %v; want %v, %v", v, ok, test.mean, test.ok)
			}
			if v, ok := Min(test.in); ok != test.ok || v != test.min {
				t.Errorf("Min = %v, %v; want %v, %v", v, ok, test.min, test.ok)
			}
		})
	}
}

func TestOrMissing(t *testing.T) {
	if OrMissing(Mean(nil)) != -1 {
		t.Fatal("expected -1 for no data")
	}
	if OrMissing(Mean([]float64{1})) != 1 {
		t.Fatal("expected mean")
	}
}
