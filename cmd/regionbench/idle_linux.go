// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/regionbench/regionbench/common/log"
)

const idleMaxLoad = 0.2

// idlePoll is how often the load average is re-read while waiting.
var idlePoll = 30 * time.Second

// loadAvg returns the 1-minute load average.
func loadAvg() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, fmt.Errorf("sysinfo: %w", err)
	}
	// Loads are fixed point with 16 fractional bits.
	avg := float64(info.Loads[0]) / (1 << unix.SI_LOAD_SHIFT)
	log.Printf("Load average: %.2f", avg)
	return avg, nil
}

func waitForIdle(ctx context.Context) error {
	avg, err := loadAvg()
	if err != nil {
		return fmt.Errorf("error reading load average: %w", err)
	}
	if avg < idleMaxLoad {
		return nil
	}

	log.Printf("Waiting for load average to drop below %.2f...", idleMaxLoad)

	tick := time.NewTicker(idlePoll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
		avg, err := loadAvg()
		if err != nil {
			return fmt.Errorf("error reading load average: %w", err)
		}
		if avg < idleMaxLoad {
			return nil
		}

		log.Printf("Waiting for load average to drop below %.2f...", idleMaxLoad)
	}
}
