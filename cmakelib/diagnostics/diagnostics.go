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

// Package diagnostics sinks warnings and errors from every pipeline stage,
// promotes WARNING to ERROR under strict mode, and separately tallies
// unsupported-command telemetry.
package diagnostics

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"bitbucket.org/creachadair/stringset"
	"github.com/sirupsen/logrus"
)

// Severity is one of the diagnostic severities the sink records.
type Severity int

const (
	// SeverityWarning is a recoverable condition.
	SeverityWarning Severity = iota
	// SeverityError halts the current phase at its next boundary.
	SeverityError
	// SeverityFatal aborts the pipeline immediately.
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Record is one structured diagnostic, matching the shape spec'd for
// user-facing output: severity, component, source position, command, cause
// and hint.
type Record struct {
	Severity  Severity
	Component string // e.g. "lexer", "parser", "evaluator", "builder", "freezer"
	File      string
	Line      int
	Col       int
	Command   string
	Cause     string
	Hint      string
}

func (r Record) String() string {
	loc := r.File
	if r.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", r.File, r.Line, r.Col)
	}
	s := fmt.Sprintf("%s: %s: %s", r.Severity, loc, r.Cause)
	if r.Command != "" {
		s = fmt.Sprintf("%s: %s(%s): %s", r.Severity, loc, r.Command, r.Cause)
	}
	if r.Hint != "" {
		s += " (" + r.Hint + ")"
	}
	return s
}

// Sink is a process-wide diagnostics service. The zero value is not usable;
// construct with New. A Sink is safe for concurrent use, though the
// pipeline itself is single-threaded end to end.
type Sink struct {
	mu sync.Mutex

	strict bool
	log    *logrus.Logger

	warnings int
	errors   int
	records  []Record

	telemetryTotal int
	telemetryCount map[string]int
	telemetryNames stringset.Set
}

// New returns a Sink that writes its structured stream to w (use
// ioutil.Discard to silence it entirely; the in-memory records and
// counters are always kept regardless).
func New(w io.Writer) *Sink {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return &Sink{
		log:            log,
		telemetryCount: make(map[string]int),
		telemetryNames: stringset.New(),
	}
}

// Reset clears all counters, records, and telemetry, but preserves the
// strict-mode setting and output writer.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = 0
	s.errors = 0
	s.records = nil
	s.telemetryTotal = 0
	s.telemetryCount = make(map[string]int)
	s.telemetryNames = stringset.New()
}

// SetStrict toggles strict mode: every WARNING logged after this call is
// promoted to ERROR before counting.
func (s *Sink) SetStrict(strict bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.strict = strict
}

// Log records one diagnostic, applying strict-mode promotion, and returns
// the (possibly promoted) severity actually recorded.
func (s *Sink) Log(r Record) Severity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strict && r.Severity == SeverityWarning {
		r.Severity = SeverityError
	}
	switch r.Severity {
	case SeverityWarning:
		s.warnings++
	case SeverityError, SeverityFatal:
		s.errors++
	}
	s.records = append(s.records, r)
	fields := logrus.Fields{
		"component": r.Component,
		"file":      r.File,
		"line":      r.Line,
		"col":       r.Col,
	}
	if r.Command != "" {
		fields["command"] = r.Command
	}
	if r.Cause != "" {
		fields["cause"] = r.Cause
	}
	if r.Hint != "" {
		fields["hint"] = r.Hint
	}
	entry := s.log.WithFields(fields)
	switch r.Severity {
	case SeverityWarning:
		entry.Warn(r.Cause)
	default:
		entry.Error(r.Cause)
	}
	return r.Severity
}

// Warning is a convenience wrapper around Log for SeverityWarning.
func (s *Sink) Warning(component, file string, line, col int, command, cause, hint string) Severity {
	return s.Log(Record{SeverityWarning, component, file, line, col, command, cause, hint})
}

// Error is a convenience wrapper around Log for SeverityError.
func (s *Sink) Error(component, file string, line, col int, command, cause, hint string) Severity {
	return s.Log(Record{SeverityError, component, file, line, col, command, cause, hint})
}

// Fatal is a convenience wrapper around Log for SeverityFatal.
func (s *Sink) Fatal(component, file string, line, col int, command, cause, hint string) Severity {
	return s.Log(Record{SeverityFatal, component, file, line, col, command, cause, hint})
}

// WarningCount returns the number of WARNING diagnostics logged (after
// strict-mode promotion — so always 0 in strict mode).
func (s *Sink) WarningCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warnings
}

// ErrorCount returns the number of ERROR and FATAL diagnostics logged.
func (s *Sink) ErrorCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors
}

// HasFatal reports whether any FATAL diagnostic has been logged.
func (s *Sink) HasFatal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// Records returns a copy of every diagnostic logged so far.
func (s *Sink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Telemetry records one occurrence of an unsupported or unimplemented
// command name, for the compatibility-kind error taxonomy (spec §7.6).
func (s *Sink) Telemetry(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetryTotal++
	s.telemetryCount[name]++
	s.telemetryNames.Add(name)
}

// TelemetrySummary returns the total occurrence count and the number of
// distinct unsupported-command names seen.
func (s *Sink) TelemetrySummary() (total, unique int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.telemetryTotal, s.telemetryNames.Len()
}

// WriteReport appends a telemetry report to w in the format:
//
//	run_ts=<epoch> source=<label> total=<n> unique=<u>
//	  cmd=<name> count=<n>
//	  ...
func (s *Sink) WriteReport(w io.Writer, runTS int64, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := s.telemetryNames.Elements()
	sort.Strings(names)
	if _, err := fmt.Fprintf(w, "run_ts=%d source=%s total=%d unique=%d\n", runTS, source, s.telemetryTotal, len(names)); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "  cmd=%s count=%d\n", name, s.telemetryCount[name]); err != nil {
			return err
		}
	}
	return nil
}
