// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Env is a layered set of environment variables. Each Set produces a new
// layer on top of its parent, so a tool's environment can be derived from
// the process environment without mutating it.
type Env struct {
	parent *Env
	data   map[string]string
}

func varsToMap(vars ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, v := range vars {
		k, val, ok := strings.Cut(v, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%q is not a valid environment variable", v)
		}
		env[k] = val
	}
	return env, nil
}

func NewEnvFromEnviron() *Env {
	env, err := NewEnv(os.Environ()...)
	if err != nil {
		panic(err)
	}
	return env
}

func NewEnv(vars ...string) (*Env, error) {
	m, err := varsToMap(vars...)
	if err != nil {
		return nil, err
	}
	return &Env{data: m}, nil
}

func (e *Env) Set(vars ...string) (*Env, error) {
	m, err := varsToMap(vars...)
	if err != nil {
		return nil, err
	}
	return &Env{
		data:   m,
		parent: e,
	}, nil
}

func (e *Env) MustSet(vars ...string) *Env {
	env, err := e.Set(vars...)
	if err != nil {
		panic(err)
	}
	return env
}

func (e *Env) Lookup(name string) (string, bool) {
	for t := e; t != nil; t = t.parent {
		if v, ok := t.data[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Append adds value to the end of the variable name, separated from any
// existing value by sep. It is used for list-like variables such as
// NODE_OPTIONS or PATH.
func (e *Env) Append(name, value, sep string) *Env {
	if v, ok := e.Lookup(name); ok && v != "" {
		return e.MustSet(name + "=" + v + sep + value)
	}
	return e.MustSet(name + "=" + value)
}

// Collapse flattens the layers into a sorted KEY=VALUE list suitable for
// exec.Cmd.Env.
func (e *Env) Collapse() []string {
	c := make(map[string]string)
	for t := e; t != nil; t = t.parent {
		for k, v := range t.data {
			if _, ok := c[k]; !ok {
				c[k] = v
			}
		}
	}
	env := make([]string, 0, len(c))
	for k, v := range c {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
