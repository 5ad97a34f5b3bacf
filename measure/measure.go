// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package measure runs a command under a timing wrapper and reports its
// wall-clock time and peak resident memory.
//
// Three modes are supported. In Direct mode the command runs under GNU
// time, which writes "elapsed<TAB>maxRSS" to a side file. In Export mode
// it runs once under hyperfine, whose CSV export provides the time but no
// memory figure. In Rusage mode the command is started directly and the
// kernel's accounting for the exited child supplies the peak RSS.
package measure

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/regionbench/regionbench/common/log"
)

// ErrNoMeasurement means the wrapper produced no usable time or memory
// figure for a command.
var ErrNoMeasurement = errors.New("no measurement")

// ErrTimedOut means a command was killed after exceeding the timeout.
var ErrTimedOut = errors.New("command timed out")

// Mode selects how a command is wrapped.
type Mode string

const (
	Direct Mode = "direct"
	Export Mode = "export"
	Rusage Mode = "rusage"
)

// Modes lists the supported modes.
var Modes = []Mode{Direct, Export, Rusage}

// ParseMode validates a mode name. The empty string selects Direct.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Direct, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown measurement mode %q (want one of %v)", s, Modes)
}

// DefaultTimePath returns where GNU time usually lives on this platform.
func DefaultTimePath() string {
	if runtime.GOOS == "linux" {
		return "/usr/bin/time"
	}
	return "gtime"
}

// Outcome is the result of one measured command. Elapsed and PeakRSS are
// -1 when the wrapper could not provide them.
type Outcome struct {
	Elapsed float64 // seconds
	PeakRSS int64   // bytes
	Stdout  []byte
}

// Failed returns an Outcome carrying the unmeasured sentinels.
func Failed() Outcome {
	return Outcome{Elapsed: -1, PeakRSS: -1}
}

// Command describes a command to measure.
type Command struct {
	// Name identifies the command's wrapper output file, which is kept
	// in the timer's work directory as <Name>time.txt or
	// <Name>hyperfine.csv.
	Name string
	Args []string
	Env  []string
	Dir  string

	// CaptureStdout collects standard output into Outcome.Stdout.
	// Otherwise it goes to Output.
	CaptureStdout bool

	// Output receives the command's output. Nil discards it.
	Output io.Writer
}

// Timer runs commands under one measurement mode.
type Timer struct {
	Mode          Mode
	TimePath      string
	HyperfinePath string
	WorkDir       string

	// Timeout bounds each command. Zero means no bound.
	Timeout time.Duration
}

// OutputPath returns the wrapper side file used for the named command,
// or "" if the mode needs none.
func (t *Timer) OutputPath(name string) string {
	switch t.Mode {
	case Direct, "":
		return filepath.Join(t.WorkDir, name+"time.txt")
	case Export:
		return filepath.Join(t.WorkDir, name+"hyperfine.csv")
	}
	return ""
}

// Wrap returns the argv that runs c under the wrapper. Rusage mode does
// not wrap.
func (t *Timer) Wrap(c Command) []string {
	switch t.Mode {
	case Direct, "":
		tp := t.TimePath
		if tp == "" {
			tp = DefaultTimePath()
		}
		return append([]string{tp, "--format", "%e\t%M", "-o", t.OutputPath(c.Name)}, c.Args...)
	case Export:
		hp := t.HyperfinePath
		if hp == "" {
			hp = "hyperfine"
		}
		return []string{hp, "--runs", "1", "--show-output", "--export-csv", t.OutputPath(c.Name), shellquote.Join(c.Args...)}
	}
	return c.Args
}

// Run executes c and returns what was measured.
//
// A command that exits unsuccessfully, or whose wrapper output cannot be
// parsed, yields an Outcome with the -1 sentinels and an error wrapping
// ErrNoMeasurement. A command killed by the timeout yields the sentinels
// and ErrTimedOut. Run only fails outright when ctx is cancelled.
func (t *Timer) Run(ctx context.Context, c Command) (Outcome, error) {
	if len(c.Args) == 0 {
		return Failed(), fmt.Errorf("%s: empty command", c.Name)
	}
	if out := t.OutputPath(c.Name); out != "" {
		// Stale output from an earlier trial must never be read back.
		if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
			return Failed(), err
		}
	}

	rctx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}
	argv := t.Wrap(c)
	cmd := exec.CommandContext(rctx, argv[0], argv[1:]...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	var stdout, stderr bytes.Buffer
	out := c.Output
	if out == nil {
		out = io.Discard
	}
	if c.CaptureStdout {
		cmd.Stdout = &stdout
	} else {
		cmd.Stdout = out
	}
	cmd.Stderr = io.MultiWriter(out, &stderr)

	log.TraceCommand(cmd, false)
	start := time.Now()
	runErr := cmd.Run()
	wall := time.Since(start).Seconds()

	if ctx.Err() != nil {
		return Failed(), ctx.Err()
	}
	if rctx.Err() == context.DeadlineExceeded {
		log.TraceKill(cmd)
		return Failed(), fmt.Errorf("%s: %w after %v", c.Name, ErrTimedOut, t.Timeout)
	}
	if runErr != nil {
		if ee, ok := runErr.(*exec.ExitError); ok {
			ee.Stderr = stderr.Bytes()
		}
		return Failed(), fmt.Errorf("%s: %w: %w", c.Name, ErrNoMeasurement, runErr)
	}

	o := Outcome{Stdout: stdout.Bytes()}
	switch t.Mode {
	case Direct, "":
		b, err := os.ReadFile(t.OutputPath(c.Name))
		if err != nil {
			return Failed(), fmt.Errorf("%s: %w: %v", c.Name, ErrNoMeasurement, err)
		}
		o.Elapsed, o.PeakRSS, err = ParseTime(b)
		if err != nil {
			return Failed(), fmt.Errorf("%s: %w", c.Name, err)
		}
	case Export:
		b, err := os.ReadFile(t.OutputPath(c.Name))
		if err != nil {
			return Failed(), fmt.Errorf("%s: %w: %v", c.Name, ErrNoMeasurement, err)
		}
		o.Elapsed, err = ParseHyperfine(b)
		if err != nil {
			return Failed(), fmt.Errorf("%s: %w", c.Name, err)
		}
		o.PeakRSS = -1
	case Rusage:
		o.Elapsed = wall
		o.PeakRSS = peakRSS(cmd.ProcessState)
	}
	return o, nil
}
