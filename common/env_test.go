// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common_test

import (
	"reflect"
	"testing"

	"github.com/regionbench/regionbench/common"
)

func TestEnv(t *testing.T) {
	tryLookup := func(t *testing.T, env *common.Env, try, expect string) {
		t.Helper()
		if v, ok := env.Lookup(try); !ok {
			t.Fatalf("expected to find variable %q", try)
		} else if v != expect {
			t.Fatalf("expected value %q for %q, instead got %q", expect, try, v)
		}
	}
	tryBadLookup := func(t *testing.T, env *common.Env, try string) {
		t.Helper()
		if v, ok := env.Lookup(try); ok {
			t.Fatalf("expected to not find variable %q, got %q", try, v)
		}
	}

	env, err := common.NewEnv("MYVAR=2", "MYVAR2=100")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("BadCreate", func(t *testing.T) {
		if _, err := common.NewEnv("MYVAR", "MYVAR2=100"); err == nil {
			t.Fatal("expected error due to bad input")
		}
		if _, err := common.NewEnv("=3"); err == nil {
			t.Fatal("expected error due to empty name")
		}
	})
	t.Run("Lookup", func(t *testing.T) {
		tryLookup(t, env, "MYVAR", "2")
		tryBadLookup(t, env, "NOVAR")
	})
	t.Run("Set", func(t *testing.T) {
		env2, err := env.Set("MYVAR=3", "OTHERVAR=6")
		if err != nil {
			t.Fatal(err)
		}
		tryLookup(t, env2, "MYVAR", "3")
		tryLookup(t, env2, "MYVAR2", "100")
		tryLookup(t, env, "MYVAR", "2")
		tryBadLookup(t, env, "OTHERVAR")
		want := []string{"MYVAR2=100", "MYVAR=3", "OTHERVAR=6"}
		if got := env2.Collapse(); !reflect.DeepEqual(got, want) {
			t.Fatalf("on collapse got %v, expected %v", got, want)
		}
	})
	t.Run("Append", func(t *testing.T) {
		env2 := env.Append("NODE_OPTIONS", "--max_old_space_size=320000", " ")
		tryLookup(t, env2, "NODE_OPTIONS", "--max_old_space_size=320000")
		env3 := env2.Append("NODE_OPTIONS", "--trace-warnings", " ")
		tryLookup(t, env3, "NODE_OPTIONS", "--max_old_space_size=320000 --trace-warnings")
		tryLookup(t, env.Append("MYVAR", "5", ":"), "MYVAR", "2:5")
	})
}
