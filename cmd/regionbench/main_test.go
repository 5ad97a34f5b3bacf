// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/regionbench/regionbench/common"
	"github.com/regionbench/regionbench/results"
)

var dir string

// TestMain lets the test binary act as the regionbench command when
// REGIONBENCH_TEST_IS_CMD is set, and creates the directory the commands
// run in.
func TestMain(m *testing.M) {
	if os.Getenv("REGIONBENCH_TEST_IS_CMD") != "" {
		main()
		os.Exit(0)
	}
	var err error
	dir, err = os.MkdirTemp("", "regionbench_test")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// regionbenchCmd returns a "regionbench" command, run in the directory
// created by TestMain.
func regionbenchCmd(t *testing.T, args ...string) *exec.Cmd {
	t.Helper()
	if runtime.GOOS == "windows" || runtime.GOARCH == "wasm" {
		t.Skipf("skipping test: needs exec and a POSIX shell on %s/%s", runtime.GOOS, runtime.GOARCH)
	}
	exe, err := os.Executable()
	if err != nil {
		t.Fatal(err)
	}
	cmd := exec.Command(exe, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "REGIONBENCH_TEST_IS_CMD=1", "PWD="+dir)
	return cmd
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := regionbenchCmd(t, args...).CombinedOutput()
	if err != nil {
		t.Fatalf("regionbench %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return string(out)
}

func TestTools(t *testing.T) {
	out := run(t, "tools")
	for _, want := range []string{"gw:", "igv:", "jbrowse2:", "samplot:", "path:     jb2export", "ActiveProcessorCount"} {
		if !strings.Contains(out, want) {
			t.Errorf("tools output lacks %q:\n%s", want, out)
		}
	}
}

func TestPrintConfig(t *testing.T) {
	out, err := regionbenchCmd(t, "run", "-print-config", "-samples", "3", "-sizes", "500,5", "-mode", "rusage").Output()
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := common.ParseConfig(out)
	if err != nil {
		t.Fatalf("printed config does not parse: %v\n%s", err, out)
	}
	if cfg.Sweep.Samples != 3 || len(cfg.Sweep.RegionSizes) != 2 || cfg.Sweep.RegionSizes[1] != 5 || cfg.Measure.Mode != "rusage" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Sweep.Seed != 1 || !cfg.Sweep.Prime {
		t.Fatalf("defaults lost: %+v", cfg.Sweep)
	}
}

func TestRunErrors(t *testing.T) {
	for _, test := range []struct {
		args []string
		want string
	}{
		{[]string{"run"}, "error: -ref is required"},
		{[]string{"run", "-ref", "r.fa", "-bam", "r.bam", "-tool", "wally"}, "unknown tool"},
		{[]string{"run", "-mode", "perf"}, "measure.mode"},
		{[]string{"nosuch"}, "unknown subcommand"},
	} {
		out, err := regionbenchCmd(t, test.args...).CombinedOutput()
		if err == nil {
			t.Errorf("%v: expected failure", test.args)
			continue
		}
		if !strings.Contains(string(out), test.want) {
			t.Errorf("%v: output lacks %q:\n%s", test.args, test.want, out)
		}
	}
}

func TestRunAndSummarize(t *testing.T) {
	work := filepath.Join(dir, "e2e")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(name, data string, perm os.FileMode) string {
		p := filepath.Join(work, name)
		if err := os.WriteFile(p, []byte(data), perm); err != nil {
			t.Fatal(err)
		}
		return p
	}
	fai := write("ref.sizes", "chr1\t30000000\nchr2\t25000000\nchrM\t16569\n", 0o644)
	tool := write("fake.sh", "#!/bin/sh\nprintf png > \"$2\"\n", 0o755)
	config := write("fake.toml", fmt.Sprintf(`
[sweep]
region_sizes = [2000, 2]
samples = 2

[[tool]]
name = "fake"
path = %q
command = "{{.Path}} {{.Region}} {{.Output}}"
output = "{{.WorkDir}}/images/fake.png"
`, tool), 0o644)

	run(t, "run", "-quiet", "-config", config, "-mode", "rusage", "-probe", "none",
		"-ref", filepath.Join(work, "ref.fa"), "-bam", filepath.Join(work, "reads.bam"), "-fai", fai,
		"-tool", "fake", "-work-dir", filepath.Join(work, "tmp"), "-results", work)

	recs, err := results.ReadFile(filepath.Join(work, results.FileName("fake", "", 1)))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d records, want 4", len(recs))
	}
	for _, r := range recs {
		if r.Tool != "fake" || !r.Measured() || r.Reads != -1 || r.Region.Chrom == "chrM" {
			t.Errorf("unexpected record %+v", r)
		}
	}

	out := run(t, "summarize", "-quiet", "-tag", "e2e", "-reference", "fake", "-out", work,
		filepath.Join(work, "*.benchmark.csv"))
	if !strings.Contains(out, "| fake ") {
		t.Errorf("summary lacks the fake row:\n%s", out)
	}
	for _, ext := range []string{".md", ".csv", ".html"} {
		if _, err := os.Stat(filepath.Join(work, "benchmark.e2e"+ext)); err != nil {
			t.Error(err)
		}
	}
}
