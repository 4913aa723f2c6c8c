/*
 * Copyright 2019 The Kythe Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package pipeline wires the four translation stages — lexer (via
// cmakelib/ast's participle-backed parser), parser, evaluator, and
// builder/freezer — into the single synchronous Run a caller invokes
// once per CMake source tree. Each stage's diagnostics land in one
// shared Sink; a nonzero ERROR count at a stage boundary halts the
// pipeline before the next stage runs, matching the fail-fast
// propagation policy the translator is specified to follow.
package pipeline

import (
	"io"
	"os"
	"path"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kythe/cmakeforge/cmakelib/ast"
	"github.com/kythe/cmakeforge/cmakelib/buildmodel"
	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
	"github.com/kythe/cmakeforge/cmakelib/events"
	"github.com/kythe/cmakeforge/cmakelib/evaluator"
	"github.com/kythe/cmakeforge/workspace"
)

// Config mirrors the Configuration table every pipeline invocation
// consumes exactly once, at construction.
type Config struct {
	// StrictMode promotes every WARNING diagnostic to ERROR.
	StrictMode bool
	// ContinueOnFatalError lets the evaluator keep walking the command
	// tree past a Runtime-kind fatal condition instead of aborting the
	// run outright (it still halts the stage at the next boundary if
	// the sink's ERROR counter is nonzero).
	ContinueOnFatalError bool
	// WriteOutputOnError is carried for the outer driver; Run does not
	// read it. Run returns a Frozen model whenever no ERROR was logged
	// (WARNINGs alone do not stop it) and never returns one once an ERROR
	// has been logged.
	WriteOutputOnError bool
	// CompatProfile is one of "STRICT", "CMAKE_3_X", or "LENIENT".
	CompatProfile string
	// MaxBlockDepth and MaxParenDepth cap structured-program nesting;
	// zero means cmakelib/ast's own defaults.
	MaxBlockDepth int
	MaxParenDepth int
	// FailAppendAfter is recorded on Config only: Run does not pass it to
	// the evaluator or to events.Stream, so no append ever fails because
	// of it and setting it has no effect on a run.
	FailAppendAfter int

	SourceDir string
	BinaryDir string
}

// Pipeline runs one CMake source tree through Lexer -> Parser ->
// Evaluator -> Builder -> Freezer -> Validate, sharing one Sink across
// every stage.
type Pipeline struct {
	cfg   Config
	sink  *diagnostics.Sink
	io    workspace.IO
	proc  workspace.ProcessRunner
	clock workspace.Clock
}

// New constructs a Pipeline against the given external collaborators
// and sink. Callers that don't need a custom sink can pass
// diagnostics.New(os.Stderr).
func New(io workspace.IO, proc workspace.ProcessRunner, clock workspace.Clock, sink *diagnostics.Sink, cfg Config) *Pipeline {
	sink.SetStrict(cfg.StrictMode)
	return &Pipeline{cfg: cfg, sink: sink, io: io, proc: proc, clock: clock}
}

// Sink returns the pipeline's shared diagnostics sink, so a caller can
// inspect ErrorCount/Records/WriteReport after Run returns.
func (p *Pipeline) Sink() *diagnostics.Sink { return p.sink }

// Run pushes source through every stage in order and returns the
// resulting immutable, validated Build Model. Per the universal
// invariant every stage boundary enforces: a valid script yields
// (model, no errors); an invalid one yields (nil, >=1 error) — never
// both and never neither.
func (p *Pipeline) Run(source []byte, label string) (*buildmodel.Frozen, error) {
	file, err := p.parse(source)
	if err != nil {
		return nil, err
	}
	if p.sink.ErrorCount() > 0 {
		return nil, errors.Errorf("pipeline: %s: parse reported %d error(s)", label, p.sink.ErrorCount())
	}

	stream, fatal, err := p.evaluate(file)
	if err != nil {
		return nil, err
	}
	if p.sink.ErrorCount() > 0 {
		return nil, errors.Errorf("pipeline: %s: evaluation reported %d error(s)", label, p.sink.ErrorCount())
	}
	if fatal && !p.cfg.ContinueOnFatalError {
		return nil, errors.Errorf("pipeline: %s: evaluation aborted on a fatal error", label)
	}

	model, err := p.build(stream)
	if err != nil {
		return nil, err
	}
	if model == nil || p.sink.ErrorCount() > 0 {
		return nil, errors.Errorf("pipeline: %s: builder reported %d error(s)", label, p.sink.ErrorCount())
	}

	frozen := buildmodel.NewFreezer().Freeze(model)
	validated, ok := buildmodel.Validate(frozen, p.sink)
	if !ok {
		return nil, errors.Errorf("pipeline: %s: validation reported %d error(s)", label, p.sink.ErrorCount())
	}
	return validated, nil
}

// parse is the Lexer+Parser stage: cmakelib/ast's participle-backed
// parser tokenizes and parses source in one pass, since the teacher
// corpus's lexer is a participle.Lexer handed directly to the parser
// rather than a stage a caller drives separately.
func (p *Pipeline) parse(source []byte) (*ast.CMakeFile, error) {
	parser := ast.NewParser()
	file, err := parser.ParseBytes(source)
	if err != nil {
		p.sink.Error("parser", "", 0, 0, "", err.Error(), "")
		return nil, errors.Wrap(err, "pipeline: parse")
	}
	return file, nil
}

// evaluate is the Evaluator stage: it structures the flat command list
// into if/foreach/while/function/macro blocks and walks it, emitting an
// events.Stream.
func (p *Pipeline) evaluate(file *ast.CMakeFile) (*events.Stream, bool, error) {
	eval := evaluator.New(p.io, p.proc, p.clock, p.sink, evaluator.Options{
		StrictMode:           p.cfg.StrictMode,
		ContinueOnFatalError: p.cfg.ContinueOnFatalError,
		CompatProfile:        p.cfg.CompatProfile,
		SourceDir:            p.cfg.SourceDir,
		BinaryDir:            p.cfg.BinaryDir,
		MaxBlockDepth:        p.cfg.MaxBlockDepth,
		MaxParenDepth:        p.cfg.MaxParenDepth,
	})
	if err := eval.Run(file); err != nil {
		return nil, eval.Fatal(), errors.Wrap(err, "pipeline: evaluate")
	}
	return eval.Stream(), eval.Fatal(), nil
}

// build is the Builder+Freezer stage's first half: applying the event
// stream to a mutable Model.
func (p *Pipeline) build(s *events.Stream) (*buildmodel.Model, error) {
	b := buildmodel.NewBuilder(p.cfg.SourceDir, p.cfg.BinaryDir, p.sink)
	if err := b.Apply(s); err != nil {
		return nil, errors.Wrap(err, "pipeline: build")
	}
	return b.Finish(), nil
}

// WriteUnsupportedReport writes the sink's unsupported-command
// telemetry to w, in the append-only
// "<basename>_unsupported_commands.log" format §6 specifies, only when
// at least one unsupported command was actually seen.
func (p *Pipeline) WriteUnsupportedReport(w io.Writer, runTS int64, label string) error {
	total, _ := p.sink.TelemetrySummary()
	if total == 0 {
		return nil
	}
	return p.sink.WriteReport(w, runTS, label)
}

// NewDefaultSink returns a Sink that logs to stderr. Callers that want a
// silent sink should construct diagnostics.New(ioutil.Discard) directly.
func NewDefaultSink() *diagnostics.Sink {
	return diagnostics.New(os.Stderr)
}

// configureLogMessage is one "kind: message-v1" document appended to
// <binary-dir>/CMakeFiles/CMakeConfigureLog.yaml, mirroring real CMake's
// own configure-log convention of one YAML document per logged event.
type configureLogMessage struct {
	Kind      string   `yaml:"kind"`
	Backtrace []string `yaml:"backtrace,omitempty"`
	Message   string   `yaml:"message"`
}

// AppendConfigureLog marshals every diagnostic recorded so far as a
// "message-v1" YAML document and appends them to
// <binary-dir>/CMakeFiles/CMakeConfigureLog.yaml via io, matching §6's
// append-only persistent-state contract. A pipeline with no recorded
// diagnostics is a no-op.
func (p *Pipeline) AppendConfigureLog() error {
	records := p.sink.Records()
	if len(records) == 0 {
		return nil
	}

	var buf []byte
	for _, r := range records {
		doc := configureLogMessage{
			Kind:    "message-v1",
			Message: r.String(),
		}
		if r.File != "" {
			loc := r.File
			if r.Line > 0 {
				loc = r.File + ":" + strconv.Itoa(r.Line)
			}
			doc.Backtrace = []string{loc}
		}
		encoded, err := yaml.Marshal(doc)
		if err != nil {
			return errors.Wrap(err, "pipeline: marshal configure-log message")
		}
		buf = append(buf, "---\n"...)
		buf = append(buf, encoded...)
	}

	logPath := path.Join(p.cfg.BinaryDir, "CMakeFiles", "CMakeConfigureLog.yaml")
	if err := p.io.MakeDir(path.Join(p.cfg.BinaryDir, "CMakeFiles")); err != nil {
		return errors.Wrap(err, "pipeline: configure-log directory")
	}
	existing, _, err := p.io.ReadFile(logPath)
	if err != nil {
		return errors.Wrap(err, "pipeline: reading configure log")
	}
	return p.io.WriteFile(logPath, append(existing, buf...))
}
