// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package harnesses describes how each visualization tool under test is
// invoked: the command line, the image it must produce, any batch script
// it reads, and any settings file that must be rewritten to pin its
// thread count.
package harnesses

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/regionbench/regionbench/common"
	"github.com/regionbench/regionbench/common/fileutil"
	"github.com/regionbench/regionbench/common/log"
)

// ErrUnknownTool means a tool name has no entry in the tool table.
var ErrUnknownTool = errors.New("unknown tool")

// Params are the values available to a tool's templates.
type Params struct {
	Tool    string
	Path    string
	ToolDir string

	Ref string
	BAM string

	Chrom  string
	Start  int
	End    int
	Region string

	Output string
	Batch  string

	Threads   int
	ExtraArgs string
	WorkDir   string
}

func (p Params) quoted() Params {
	q := p
	for _, s := range []*string{&q.Tool, &q.Path, &q.ToolDir, &q.Ref, &q.BAM, &q.Chrom, &q.Region, &q.Output, &q.Batch, &q.WorkDir} {
		if *s != "" {
			*s = shellquote.Join(*s)
		}
	}
	return q
}

// Tool is a parsed tool table entry.
type Tool struct {
	spec *common.ToolSpec

	command *template.Template
	output  *template.Template
	batch   *template.Template
	setFile *template.Template
	setLine *template.Template
}

func parse(name, field, text string) (*template.Template, error) {
	if text == "" {
		return nil, nil
	}
	t, err := template.New(name + "." + field).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %s: %w", name, field, err)
	}
	return t, nil
}

// NewTool parses the templates of spec.
func NewTool(spec *common.ToolSpec) (*Tool, error) {
	if spec.Name == "" {
		return nil, errors.New("tool has no name")
	}
	if spec.Command == "" {
		return nil, fmt.Errorf("tool %s: no command", spec.Name)
	}
	if _, err := spec.Env.Apply(nil); err != nil {
		return nil, fmt.Errorf("tool %s: env: %w", spec.Name, err)
	}
	t := &Tool{spec: spec.Copy()}
	var err error
	if t.command, err = parse(spec.Name, "command", spec.Command); err != nil {
		return nil, err
	}
	if t.output, err = parse(spec.Name, "output", spec.Output); err != nil {
		return nil, err
	}
	if t.batch, err = parse(spec.Name, "batch", spec.Batch); err != nil {
		return nil, err
	}
	if s := spec.Settings; s != nil {
		if t.setFile, err = parse(spec.Name, "settings.file", s.File); err != nil {
			return nil, err
		}
		if t.setLine, err = parse(spec.Name, "settings.line", s.Line); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tool) Name() string { return t.spec.Name }

// Spec returns a copy of the entry the tool was built from.
func (t *Tool) Spec() *common.ToolSpec { return t.spec.Copy() }

func (t *Tool) Threaded() bool { return t.spec.Threaded }

// Path returns the configured executable, defaulting to the tool name.
func (t *Tool) Path() string {
	if t.spec.Path != "" {
		return t.spec.Path
	}
	return t.spec.Name
}

// WithPath returns a copy of t that runs the executable at path.
func (t *Tool) WithPath(path string) *Tool {
	tc := *t
	tc.spec = t.spec.Copy()
	tc.spec.Path = path
	return &tc
}

// BatchPath is where the tool's batch script is written.
func (t *Tool) BatchPath(workDir string) string {
	if t.batch == nil {
		return ""
	}
	return filepath.Join(workDir, t.spec.Name+"_batch.txt")
}

// Bind fills in the tool-specific Params fields.
func (t *Tool) Bind(p Params) Params {
	p.Tool = t.spec.Name
	p.Path = t.Path()
	if p.ToolDir == "" {
		resolved := p.Path
		if !strings.ContainsRune(resolved, filepath.Separator) {
			if lp, err := exec.LookPath(resolved); err == nil {
				resolved = lp
			}
		}
		p.ToolDir = filepath.Dir(resolved)
	}
	p.Batch = t.BatchPath(p.WorkDir)
	return p
}

func execute(tmpl *template.Template, p Params) (string, error) {
	var b bytes.Buffer
	if err := tmpl.Execute(&b, p); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Invocation is a fully rendered run of a tool on one region.
type Invocation struct {
	Args   []string
	Env    []string
	Output string
}

// Prepare renders the command for p, which must already be bound, and
// writes the batch script if the tool has one. env is the environment
// the tool's own variables are layered on.
func (t *Tool) Prepare(p Params, env *common.Env) (*Invocation, error) {
	inv := new(Invocation)
	if t.output != nil {
		out, err := execute(t.output, p)
		if err != nil {
			return nil, fmt.Errorf("tool %s: output: %w", t.spec.Name, err)
		}
		inv.Output = filepath.Clean(out)
		p.Output = inv.Output
	}
	if t.batch != nil {
		script, err := execute(t.batch, p)
		if err != nil {
			return nil, fmt.Errorf("tool %s: batch: %w", t.spec.Name, err)
		}
		log.CommandPrintf("cat > %s <<'EOF'\n%sEOF", p.Batch, withNewline(script))
		if err := os.WriteFile(p.Batch, []byte(script), 0o644); err != nil {
			return nil, err
		}
	}
	line, err := execute(t.command, p.quoted())
	if err != nil {
		return nil, fmt.Errorf("tool %s: command: %w", t.spec.Name, err)
	}
	inv.Args, err = shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("tool %s: command %q: %w", t.spec.Name, line, err)
	}
	if len(inv.Args) == 0 {
		return nil, fmt.Errorf("tool %s: command renders empty", t.spec.Name)
	}
	e, err := t.spec.Env.Apply(env)
	if err != nil {
		return nil, err
	}
	inv.Env = e.Collapse()
	return inv, nil
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// ApplySettings performs the tool's settings rewrite, if it has one, and
// returns a function that puts the original file back. The first line
// containing the match string is replaced; if none does, the line is
// appended.
func (t *Tool) ApplySettings(p Params) (restore func() error, err error) {
	if t.setFile == nil {
		return func() error { return nil }, nil
	}
	file, err := execute(t.setFile, p)
	if err != nil {
		return nil, fmt.Errorf("tool %s: settings.file: %w", t.spec.Name, err)
	}
	line := ""
	if t.setLine != nil {
		if line, err = execute(t.setLine, p); err != nil {
			return nil, fmt.Errorf("tool %s: settings.line: %w", t.spec.Name, err)
		}
	}
	orig, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("tool %s: settings: %w", t.spec.Name, err)
	}
	backup := file + ".regionbench.bak"
	log.CommandPrintf("cp %s %s", file, backup)
	if err := fileutil.CopyFile(backup, file); err != nil {
		return nil, err
	}
	restore = func() error {
		log.CommandPrintf("mv %s %s", backup, file)
		if err := fileutil.CopyFile(file, backup); err != nil {
			return err
		}
		return fileutil.RemoveFiles(backup)
	}
	if err := os.WriteFile(file, rewrite(orig, t.spec.Settings.Match, line), 0o644); err != nil {
		restore()
		return nil, err
	}
	return restore, nil
}

func rewrite(orig []byte, match, line string) []byte {
	var out bytes.Buffer
	done := false
	s := bufio.NewScanner(bytes.NewReader(orig))
	for s.Scan() {
		if !done && strings.Contains(s.Text(), match) {
			out.WriteString(line)
			done = true
		} else {
			out.Write(s.Bytes())
		}
		out.WriteByte('\n')
	}
	if !done {
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.Bytes()
}
