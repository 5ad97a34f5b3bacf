// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fileutil

import (
	"io"
	"os"
	"path/filepath"
)

// FileExists returns true if a file or directory exists at the
// specified path, otherwise it returns false. If an error is
// encountered while checking, an error is returned.
func FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// NonEmptyFile reports whether path names a regular file holding at least
// one byte. Missing files are not an error.
func NonEmptyFile(path string) (bool, error) {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular() && fi.Size() > 0, nil
}

// CopyFile copies the bytes of the file at src to dst, creating or
// truncating dst with the same file mode as src. Symbolic links at src
// are followed.
func CopyFile(dst, src string) error {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sf.Close()
	sfinfo, err := sf.Stat()
	if err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, sfinfo.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(df, sf); err != nil {
		df.Close()
		return err
	}
	return df.Close()
}

// RemoveFiles removes each named file, ignoring ones that do not exist.
// The first other error is returned after every removal was attempted.
func RemoveFiles(paths ...string) error {
	var first error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && first == nil {
			first = err
		}
	}
	return first
}

// Glob expands each pattern and returns the matches in argument order,
// sorted within a pattern, without duplicates. A pattern that matches
// nothing but names an existing file is kept as is.
func Glob(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range patterns {
		m, err := filepath.Glob(p)
		if err != nil {
			return nil, err
		}
		if len(m) == 0 {
			if ok, _ := FileExists(p); ok {
				m = []string{p}
			}
		}
		for _, f := range m {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out, nil
}
