// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package upload

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"os"
)

// Hashes maps uploaded object names to the sha256 of their contents.
type Hashes map[string]string

func (h Hashes) Get(name string) (string, bool) {
	v, b := h[name]
	return v, b
}

func (h Hashes) Put(name string, hash string, force bool) bool {
	if _, ok := h[name]; ok && !force {
		return false
	}
	h[name] = hash
	return true
}

// ReadHashesFile reads a manifest. A missing file is an empty manifest.
func ReadHashesFile(hashfile string) (Hashes, error) {
	f, err := os.Open(hashfile)
	if os.IsNotExist(err) {
		return make(Hashes), nil
	} else if err != nil {
		return nil, err
	}
	defer f.Close()
	vals := make(map[string]string)
	if err := json.NewDecoder(f).Decode(&vals); err != nil {
		return nil, fmt.Errorf("%s: %w", hashfile, err)
	}
	return Hashes(vals), nil
}

func (h Hashes) WriteToFile(hashfile string) error {
	f, err := os.Create(hashfile)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "\t")
	if err := enc.Encode(&h); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func canonicalizeHash(h hash.Hash) string {
	return fmt.Sprintf("%x", h.Sum(nil))
}

func HashStream(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, r); err != nil {
		return "", err
	}
	return canonicalizeHash(hash), nil
}

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return HashStream(f)
}
