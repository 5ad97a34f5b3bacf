// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stats provides the few summary statistics the aggregator needs.
// Negative values are the "not measured" sentinel and are never part of
// a statistic.
package stats

// Measured returns the non-negative values of xs.
func Measured(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x >= 0 {
			out = append(out, x)
		}
	}
	return out
}

// Mean returns the mean of the measured values of xs. It reports false
// if there are none.
func Mean(xs []float64) (float64, bool) {
	m := Measured(xs)
	if len(m) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, x := range m {
		sum += x
	}
	return sum / float64(len(m)), true
}

// Min returns the smallest measured value of xs.
func Min(xs []float64) (float64, bool) {
	m := Measured(xs)
	if len(m) == 0 {
		return 0, false
	}
	min := m[0]
	for _, x := range m[1:] {
		if x < min {
			min = x
		}
	}
	return min, true
}

// OrMissing returns v if ok and -1 otherwise.
func OrMissing(v float64, ok bool) float64 {
	if !ok {
		return -1
	}
	return v
}
