// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const ConfigHelp = `
The configuration format is TOML. Every section is optional; missing keys
keep their defaults, and command-line flags override the file.

[sweep]
  region_sizes: region sizes in bases, swept in the given order
                (default [2000000, 200000, 20000, 2000, 2])
       samples: regions sampled per size (default 20)
          seed: random seed for region sampling (default 1)
       retries: candidate regions drawn per chromosome (default 10)
 min_chrom_length: chromosomes no longer than this are ignored; must
                exceed every region size (default 20000000)
   pool_repeat: copies of the chromosome pool per size (default 1)
         prime: run the read-count probe once before each measurement
                (default true)
  verify_reads: reject candidate regions without reads (default true)
       timeout: per-invocation timeout such as "10m"; "0" is unbounded
     wait_idle: wait for the machine to become idle before the sweep

[measure]
          mode: direct (GNU time), export (hyperfine) or rusage
     time_path: path to GNU time (default /usr/bin/time on Linux, else gtime)
 hyperfine_path: path to hyperfine (default "hyperfine")

[probe]
          kind: samtools, native or none (default samtools)
 samtools_path: path to samtools (default "samtools")
         index: BAM index for the native probe (default <bam>.bai)

[summary]
     reference: tool every other tool is compared with (default "gw")
         order: table of label = rank used to order summary rows

[[tool]]
          name: tool name, as passed to -tool (required)
          path: executable (default: name, looked up on PATH)
       command: command template; see 'regionbench help tools'
        output: template for the image the tool must produce
           env: extra variables "K=V", or "K+=V" to append with a space
         batch: template for a batch script, exposed as {{.Batch}}
      settings: table {file, match, line}; the first line of file
                containing match is replaced by line for the sweep
      threaded: whether the tool accepts a thread count

A minimal configuration comparing gw with a locally built binary:

[sweep]
  region_sizes = [200000, 2000, 2]
  samples = 5

[[tool]]
  name = "gw-dev"
  path = "/home/me/src/gw/gw"
  command = "{{.Path}} {{.Ref}} -t {{.Threads}} -b {{.BAM}} -r {{.Region}} --file {{.Output}} --no-show"
  output = "{{.WorkDir}}/images/gw-dev.png"
  threaded = true
`

// Config is the complete configuration of a run. It is built once and
// passed down; nothing reads configuration from package state.
type Config struct {
	Sweep   SweepConfig   `toml:"sweep"`
	Measure MeasureConfig `toml:"measure"`
	Probe   ProbeConfig   `toml:"probe"`
	Summary SummaryConfig `toml:"summary"`
	Tools   []*ToolSpec   `toml:"tool"`
}

type SweepConfig struct {
	RegionSizes    []int    `toml:"region_sizes"`
	Samples        int      `toml:"samples"`
	Seed           int64    `toml:"seed"`
	Retries        int      `toml:"retries"`
	MinChromLength int      `toml:"min_chrom_length"`
	PoolRepeat     int      `toml:"pool_repeat"`
	Prime          bool     `toml:"prime"`
	VerifyReads    bool     `toml:"verify_reads"`
	Timeout        Duration `toml:"timeout"`
	WaitIdle       bool     `toml:"wait_idle"`
}

type MeasureConfig struct {
	Mode          string `toml:"mode"`
	TimePath      string `toml:"time_path"`
	HyperfinePath string `toml:"hyperfine_path"`
}

type ProbeConfig struct {
	Kind         string `toml:"kind"`
	SamtoolsPath string `toml:"samtools_path"`
	Index        string `toml:"index"`
}

type SummaryConfig struct {
	Reference string             `toml:"reference"`
	Order     map[string]float64 `toml:"order"`
}

// ToolSpec is the configurable description of one tool under test.
type ToolSpec struct {
	Name        string        `toml:"name"`
	Path        string        `toml:"path"`
	Description string        `toml:"description"`
	Command     string        `toml:"command"`
	Output      string        `toml:"output"`
	Env         ConfigEnv     `toml:"env"`
	Batch       string        `toml:"batch"`
	Settings    *SettingsSpec `toml:"settings"`
	Threaded    bool          `toml:"threaded"`
}

// SettingsSpec describes a one-line rewrite of a tool's settings file.
type SettingsSpec struct {
	File  string `toml:"file"`
	Match string `toml:"match"`
	Line  string `toml:"line"`
}

// Copy returns a deep copy of the ToolSpec.
func (t *ToolSpec) Copy() *ToolSpec {
	tc := *t
	tc.Env.Vars = append([]string(nil), t.Env.Vars...)
	if t.Settings != nil {
		s := *t.Settings
		tc.Settings = &s
	}
	return &tc
}

// DefaultRegionSizes is the reference sweep, largest region first.
var DefaultRegionSizes = []int{2000000, 200000, 20000, 2000, 2}

// DefaultConfig returns the reference protocol's configuration.
func DefaultConfig() *Config {
	return &Config{
		Sweep: SweepConfig{
			RegionSizes:    append([]int(nil), DefaultRegionSizes...),
			Samples:        20,
			Seed:           1,
			Retries:        10,
			MinChromLength: 20000000,
			PoolRepeat:     1,
			Prime:          true,
			VerifyReads:    true,
		},
		Measure: MeasureConfig{Mode: "direct"},
		Probe:   ProbeConfig{Kind: "samtools"},
		Summary: SummaryConfig{Reference: "gw"},
	}
}

// LoadConfig reads a TOML file over the defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := ParseConfig(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML over the defaults and validates the result.
func ParseConfig(b []byte) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undec := md.Undecoded(); len(undec) != 0 {
		keys := make([]string, 0, len(undec))
		for _, k := range undec {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var (
	measureModes = []string{"direct", "export", "rusage"}
	probeKinds   = []string{"samtools", "native", "none"}
)

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Validate reports the first invalid key.
func (c *Config) Validate() error {
	s := &c.Sweep
	if len(s.RegionSizes) == 0 {
		return errors.New("sweep.region_sizes: at least one size is required")
	}
	for _, size := range s.RegionSizes {
		if size <= 0 {
			return fmt.Errorf("sweep.region_sizes: invalid size %d", size)
		}
	}
	switch {
	case s.Samples <= 0:
		return fmt.Errorf("sweep.samples: must be positive, got %d", s.Samples)
	case s.Retries < 0:
		return fmt.Errorf("sweep.retries: must not be negative, got %d", s.Retries)
	case s.MinChromLength < 0:
		return fmt.Errorf("sweep.min_chrom_length: must not be negative, got %d", s.MinChromLength)
	case s.PoolRepeat < 0:
		return fmt.Errorf("sweep.pool_repeat: must not be negative, got %d", s.PoolRepeat)
	case s.Timeout.Duration < 0:
		return fmt.Errorf("sweep.timeout: must not be negative, got %v", s.Timeout)
	}
	maxSize := 0
	for _, size := range s.RegionSizes {
		maxSize = max(maxSize, size)
	}
	if s.MinChromLength <= maxSize {
		return fmt.Errorf("sweep.min_chrom_length: %d must exceed the largest region size %d", s.MinChromLength, maxSize)
	}
	if !oneOf(c.Measure.Mode, measureModes) {
		return fmt.Errorf("measure.mode: %q is not one of %v", c.Measure.Mode, measureModes)
	}
	if !oneOf(c.Probe.Kind, probeKinds) {
		return fmt.Errorf("probe.kind: %q is not one of %v", c.Probe.Kind, probeKinds)
	}
	seen := make(map[string]bool)
	for i, t := range c.Tools {
		if t.Name == "" {
			return fmt.Errorf("tool[%d].name: required", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("tool[%d].name: duplicate tool %q", i, t.Name)
		}
		seen[t.Name] = true
		if t.Settings != nil && (t.Settings.File == "" || t.Settings.Match == "") {
			return fmt.Errorf("tool[%d].settings: file and match are required", i)
		}
	}
	return nil
}

// ConfigMarshalTOML encodes c so that ParseConfig reads it back.
func ConfigMarshalTOML(c *Config) ([]byte, error) {
	// github.com/BurntSushi/toml at v1.0.0 doesn't correctly support
	// Marshaler (see https://github.com/BurntSushi/toml/issues/341), so
	// tools are mapped onto a type whose env is a plain list.
	type tool struct {
		Name        string        `toml:"name"`
		Path        string        `toml:"path,omitempty"`
		Description string        `toml:"description,omitempty"`
		Command     string        `toml:"command"`
		Output      string        `toml:"output,omitempty"`
		Env         []string      `toml:"env,omitempty"`
		Batch       string        `toml:"batch,omitempty"`
		Settings    *SettingsSpec `toml:"settings,omitempty"`
		Threaded    bool          `toml:"threaded"`
	}
	type file struct {
		Sweep   SweepConfig   `toml:"sweep"`
		Measure MeasureConfig `toml:"measure"`
		Probe   ProbeConfig   `toml:"probe"`
		Summary SummaryConfig `toml:"summary"`
		Tools   []*tool       `toml:"tool"`
	}
	f := file{Sweep: c.Sweep, Measure: c.Measure, Probe: c.Probe, Summary: c.Summary}
	for _, t := range c.Tools {
		f.Tools = append(f.Tools, &tool{
			Name:        t.Name,
			Path:        t.Path,
			Description: t.Description,
			Command:     t.Command,
			Output:      t.Output,
			Env:         t.Env.Vars,
			Batch:       t.Batch,
			Settings:    t.Settings,
			Threaded:    t.Threaded,
		})
	}
	var b bytes.Buffer
	if err := toml.NewEncoder(&b).Encode(&f); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// ConfigEnv is a list of environment edits. "K=V" sets K, and "K+=V"
// appends V to K's existing value, separated by a space.
type ConfigEnv struct {
	Vars []string
}

func (c *ConfigEnv) UnmarshalTOML(data interface{}) error {
	ldata, ok := data.([]interface{})
	if !ok {
		return fmt.Errorf("expected data for env to be a list")
	}
	vars := make([]string, 0, len(ldata))
	for _, d := range ldata {
		s, ok := d.(string)
		if !ok {
			return fmt.Errorf("expected data for env to contain strings")
		}
		vars = append(vars, s)
	}
	if _, err := (ConfigEnv{Vars: vars}).Apply(nil); err != nil {
		return err
	}
	c.Vars = vars
	return nil
}

// Apply layers the edits on top of base. A nil base starts empty.
func (c ConfigEnv) Apply(base *Env) (*Env, error) {
	env := base
	if env == nil {
		env = &Env{data: map[string]string{}}
	}
	for _, v := range c.Vars {
		k, val, ok := strings.Cut(v, "=")
		if !ok || k == "" || k == "+" {
			return nil, fmt.Errorf("%q is not a valid environment variable", v)
		}
		if name, isAppend := strings.CutSuffix(k, "+"); isAppend {
			env = env.Append(name, val, " ")
			continue
		}
		var err error
		if env, err = env.Set(v); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// Duration is a time.Duration written as a string such as "90s" in TOML.
// "0" and "" mean zero.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "0" {
		d.Duration = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
