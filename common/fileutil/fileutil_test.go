// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fileutil

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNonEmptyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	full := filepath.Join(dir, "full.png")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("PNG"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		path string
		want bool
	}{
		{empty, false},
		{full, true},
		{filepath.Join(dir, "missing.png"), false},
		{dir, false},
	} {
		got, err := NonEmptyFile(tc.path)
		if err != nil {
			t.Fatalf("NonEmptyFile(%q): %v", tc.path, err)
		}
		if got != tc.want {
			t.Errorf("NonEmptyFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestCopyAndRemove(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "igv.args")
	dst := filepath.Join(dir, "igv.args.orig")
	if err := os.WriteFile(src, []byte("-Xmx8g\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(dst, src); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "-Xmx8g\n" {
		t.Errorf("copied contents = %q", b)
	}
	if err := RemoveFiles(dst, filepath.Join(dir, "never-existed")); err != nil {
		t.Fatalf("RemoveFiles: %v", err)
	}
	if ok, _ := FileExists(dst); ok {
		t.Errorf("%s still exists", dst)
	}
}

func TestGlob(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, n := range []string{"gw.1.benchmark.csv", "igv.1.benchmark.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Glob(filepath.Join(dir, "*.benchmark.csv"), filepath.Join(dir, "gw.1.benchmark.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "gw.1.benchmark.csv"),
		filepath.Join(dir, "igv.1.benchmark.csv"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Glob = %v, want %v", got, want)
	}
}
