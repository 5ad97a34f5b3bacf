// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package upload publishes result tables and summaries to Cloud Storage.
package upload

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/regionbench/regionbench/common/log"
)

// ObjectName is the object a local file is stored as under prefix.
func ObjectName(prefix, file string) string {
	return path.Join(prefix, filepath.Base(file))
}

// Sync uploads each file whose contents are not already recorded in
// hashes under its object name, recording the new hashes. It returns the
// object names it uploaded. Unless force is set, files recorded with the
// same hash are skipped.
func Sync(ctx context.Context, st Store, prefix string, files []string, hashes Hashes, force bool) ([]string, error) {
	var uploaded []string
	for _, file := range files {
		name := ObjectName(prefix, file)
		sum, err := HashFile(file)
		if err != nil {
			return uploaded, err
		}
		if prev, ok := hashes.Get(name); ok && prev == sum && !force {
			log.Printf("Skipping %s: unchanged", file)
			continue
		}
		if err := put(ctx, st, name, file); err != nil {
			return uploaded, fmt.Errorf("uploading %s: %w", file, err)
		}
		log.Printf("Uploaded %s to %s", file, name)
		hashes.Put(name, sum, true)
		uploaded = append(uploaded, name)
	}
	return uploaded, nil
}

func put(ctx context.Context, st Store, name, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	return st.Put(ctx, name, f)
}
