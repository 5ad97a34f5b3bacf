// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package log provides the two loggers used throughout regionbench: an
// activity log on stderr describing sweep progress, and a shell trace on
// stdout that prints every subprocess as a runnable command line.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
)

var (
	cmdLog, actLog *log.Logger
	cmdOn, actOn   = false, false
	envMap         map[string]string
)

func init() {
	cmdLog = log.New(os.Stdout, "[shell] ", 0)
	actLog = log.New(os.Stderr, "[regionbench] ", 0)
	envMap = makeEnvironMap()
}

func makeEnvironMap() map[string]string {
	envmap := make(map[string]string)
	for _, e := range os.Environ() {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		envmap[k] = v
	}
	return envmap
}

// SetCommandTrace toggles the shell trace.
func SetCommandTrace(on bool) {
	cmdOn = on
}

// SetActivityLog toggles the activity log.
func SetActivityLog(on bool) {
	actOn = on
}

// SetOutput redirects both loggers. Tests use it to capture output.
func SetOutput(cmd, act io.Writer) {
	cmdLog.SetOutput(cmd)
	actLog.SetOutput(act)
}

// filterAndQuoteEnviron drops variables inherited unchanged from our own
// environment so that only the deltas a tool actually sees are traced.
func filterAndQuoteEnviron(env []string) []string {
	fenv := make([]string, 0, len(env))
	for _, e := range env {
		k, v, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if ev, ok := envMap[k]; ok && ev == v {
			continue
		}
		fenv = append(fenv, fmt.Sprintf("%s=%s", k, shellquote.Join(v)))
	}
	return fenv
}

// CommandLine renders cmd as a single shell line, without environment.
func CommandLine(cmd *exec.Cmd) string {
	return shellquote.Join(cmd.Args...)
}

func TraceCommand(cmd *exec.Cmd, background bool) {
	if !cmdOn {
		return
	}
	senv := ""
	if len(cmd.Env) != 0 {
		senv = strings.Join(filterAndQuoteEnviron(cmd.Env), " ")
	}
	if cmd.Dir != "" {
		cmdLog.Printf("pushd %s", cmd.Dir)
	}
	sbg := ""
	if background {
		sbg = " &"
	}
	sarg := CommandLine(cmd)
	if senv != "" {
		cmdLog.Printf("%s %s%s", senv, sarg, sbg)
	} else {
		cmdLog.Printf("%s%s", sarg, sbg)
	}
	if cmd.Dir != "" {
		cmdLog.Printf("popd")
	}
}

// TraceKill records that a timed-out subprocess was killed.
func TraceKill(cmd *exec.Cmd) {
	if !cmdOn {
		return
	}
	cmdLog.Printf("kill -KILL $(pidof %s)", filepath.Base(cmd.Path))
}

func CommandPrintf(format string, args ...interface{}) {
	if !cmdOn {
		return
	}
	cmdLog.Printf(format, args...)
}

func Printf(format string, args ...interface{}) {
	if !actOn {
		return
	}
	actLog.Printf(format, args...)
}

func Print(args ...interface{}) {
	if !actOn {
		return
	}
	actLog.Print(args...)
}

// Warnf is always printed, regardless of the activity toggle.
func Warnf(format string, args ...interface{}) {
	actLog.Printf("warning: "+format, args...)
}

func Error(err error) {
	actLog.Printf("error: %v", err)
	if e, ok := err.(*exec.ExitError); ok && len(e.Stderr) != 0 {
		actLog.Printf("output:\n%s", string(e.Stderr))
	}
}
