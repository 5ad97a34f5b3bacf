// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/regionbench/regionbench/cli/upload"
	"github.com/regionbench/regionbench/common/fileutil"
	"github.com/regionbench/regionbench/common/log"
)

const (
	putUsage = `Uploads result tables and summaries to a GCS bucket.

Files whose contents were already uploaded under the same name, according
to the local hash manifest, are skipped.

Usage: %s put [flags] -bucket <bucket> [file | glob ...]
`
)

type putCmd struct {
	auth       upload.AuthOption
	force      bool
	public     bool
	bucket     string
	prefix     string
	hashesFile string
}

func (*putCmd) Name() string { return "put" }
func (*putCmd) Synopsis() string {
	return "Uploads results to Cloud Storage."
}
func (*putCmd) PrintUsage(w io.Writer, base string) {
	fmt.Fprintf(w, putUsage, base)
}

func (c *putCmd) SetFlags(f *flag.FlagSet) {
	c.auth = upload.AuthAppDefault
	f.Var(&c.auth, "auth", "authentication method (options: app-default)")
	f.BoolVar(&c.force, "force", false, "overwrite existing objects and ignore the hash manifest")
	f.BoolVar(&c.public, "public", false, "make uploaded objects publicly readable")
	f.StringVar(&c.bucket, "bucket", "", "GCS bucket to upload to")
	f.StringVar(&c.prefix, "prefix", "", "object name prefix, such as a run name")
	f.StringVar(&c.hashesFile, "hashes", "./regionbench-hashes.json", "JSON manifest of uploaded file hashes")
}

func (c *putCmd) Run(ctx context.Context, args []string) error {
	log.SetActivityLog(true)

	if c.bucket == "" {
		return errors.New("-bucket is required")
	}
	if len(args) == 0 {
		args = []string{defaultResultsGlob, "benchmark.*"}
	}
	files, err := fileutil.Glob(args...)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("nothing to upload: no files match %v", args)
	}
	hashes, err := upload.ReadHashesFile(c.hashesFile)
	if err != nil {
		return err
	}

	gcs, err := upload.NewGCS(ctx, c.bucket, c.auth)
	if err != nil {
		return err
	}
	defer gcs.Close()
	gcs.Force = c.force
	gcs.Public = c.public

	log.Printf("Uploading %d files to gs://%s/%s", len(files), c.bucket, c.prefix)
	uploaded, err := upload.Sync(ctx, gcs, c.prefix, files, hashes, c.force)
	if len(uploaded) > 0 {
		if werr := hashes.WriteToFile(c.hashesFile); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
