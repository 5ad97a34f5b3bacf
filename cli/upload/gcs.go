// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"golang.org/x/oauth2/google"

	"google.golang.org/api/option"
)

// ErrExists is returned when an object is already present and the upload
// is not forced.
var ErrExists = errors.New("object already exists")

type AuthOption int

const (
	AuthNone AuthOption = iota
	AuthAppDefault
	NumAuthOptions
)

var authOptString = [NumAuthOptions]string{
	"none",
	"app-default",
}

func (a *AuthOption) String() string {
	return authOptString[*a]
}

func (a *AuthOption) Set(input string) error {
	for i := range authOptString {
		if authOptString[i] == input {
			*a = AuthOption(i)
			return nil
		}
	}
	return fmt.Errorf("unrecognized authentication option: %s", input)
}

// Store receives named objects.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) error
}

// GCS is a Store backed by a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle

	// Force overwrites existing objects.
	Force bool

	// Public grants all users read access to uploaded objects.
	Public bool
}

// NewGCS connects to bucket. Uploads need credentials, so AuthNone is
// rejected.
func NewGCS(ctx context.Context, bucket string, auth AuthOption) (*GCS, error) {
	var opts []option.ClientOption
	switch auth {
	case AuthAppDefault:
		creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentials(creds))
	case AuthNone:
		return nil, fmt.Errorf("authentication required for upload")
	default:
		return nil, fmt.Errorf("unknown authentication method")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCS{client: client, bucket: client.Bucket(bucket)}, nil
}

func (g *GCS) Close() error { return g.client.Close() }

func (g *GCS) Put(ctx context.Context, name string, r io.Reader) error {
	o := g.bucket.Object(name)
	if _, err := o.Attrs(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("checking if %s exists: %v", name, err)
	} else if err == nil && !g.Force {
		return fmt.Errorf("%s: %w", name, ErrExists)
	}

	wc := o.NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}

	if g.Public {
		return o.ACL().Set(ctx, storage.AllUsers, storage.RoleReader)
	}
	return nil
}
