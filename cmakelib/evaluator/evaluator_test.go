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

package evaluator

import (
	"io"
	"testing"

	"github.com/kythe/cmakeforge/cmakelib/ast"
	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
	"github.com/kythe/cmakeforge/workspace"
)

// newTestEvaluator mirrors buildmodel's newTestBuilder helper: a silent
// sink plus fake collaborators, so tests never touch the real filesystem,
// clock, or subprocesses.
func newTestEvaluator(t *testing.T, opts Options) (*Evaluator, *diagnostics.Sink) {
	t.Helper()
	if opts.SourceDir == "" {
		opts.SourceDir = "/src"
	}
	if opts.BinaryDir == "" {
		opts.BinaryDir = "/build"
	}
	sink := diagnostics.New(io.Discard)
	ev := New(workspace.NewFakeIO(), workspace.NewFakeProcessRunner(), workspace.NewFakeClock(1700000000), sink, opts)
	return ev, sink
}

// runSource parses and evaluates src against ev, failing the test on any
// parse or evaluation error a real CMake script wouldn't produce.
func runSource(t *testing.T, ev *Evaluator, src string) {
	t.Helper()
	file, err := ast.NewParser().ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := ev.Run(file); err != nil {
		t.Fatalf("run: %v", err)
	}
}

// lastCause returns the Cause of the most recently logged diagnostic; it's
// the evaluator test suite's way of observing a resolved variable's value
// without a public Evaluator getter, matching how a real script surfaces
// state: message().
func lastCause(sink *diagnostics.Sink) string {
	records := sink.Records()
	if len(records) == 0 {
		return ""
	}
	return records[len(records)-1].Cause
}

func TestIfElseifElse(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(Y TRUE)
if(X)
  set(R x)
elseif(Y)
  set(R y)
else()
  set(R z)
endif()
message(WARNING "${R}")
`)
	if got := lastCause(sink); got != "y" {
		t.Errorf("R = %q, want %q", got, "y")
	}
}

func TestIfFallsThroughToElse(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
if(X)
  set(R x)
else()
  set(R z)
endif()
message(WARNING "${R}")
`)
	if got := lastCause(sink); got != "z" {
		t.Errorf("R = %q, want %q", got, "z")
	}
}

func TestForeachDirectItemsBreak(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(OUT "")
foreach(i a b c d)
  if(i STREQUAL "c")
    break()
  endif()
  string(APPEND OUT "${i}")
endforeach()
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "ab" {
		t.Errorf("OUT = %q, want %q", got, "ab")
	}
}

func TestForeachInLists(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(L "x;y;z")
set(OUT "")
foreach(i IN LISTS L)
  string(APPEND OUT "${i}")
endforeach()
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "xyz" {
		t.Errorf("OUT = %q, want %q", got, "xyz")
	}
}

// TestForeachRangeContinue is scenario 6: foreach(RANGE 1 4), skipping the
// iteration where i equals 2 via continue(), must leave OUT as "134".
func TestForeachRangeContinue(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(OUT "")
foreach(i RANGE 1 4)
  if(i EQUAL 2)
    continue()
  endif()
  string(APPEND OUT "${i}")
endforeach()
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "134" {
		t.Errorf("OUT = %q, want %q", got, "134")
	}
}

func TestWhileLoop(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(N 0)
set(OUT "")
while(N LESS 3)
  string(APPEND OUT "${N}")
  math(EXPR N "${N} + 1")
endwhile()
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "012" {
		t.Errorf("OUT = %q, want %q", got, "012")
	}
}

func TestWhileBreak(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(N 0)
set(OUT "")
while(N LESS 100)
  if(N EQUAL 2)
    break()
  endif()
  string(APPEND OUT "${N}")
  math(EXPR N "${N} + 1")
endwhile()
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "01" {
		t.Errorf("OUT = %q, want %q", got, "01")
	}
}

func TestFunctionScopeDoesNotLeak(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
function(setter)
  set(X local_to_function)
endfunction()
set(X outer)
setter()
message(WARNING "${X}")
`)
	if got := lastCause(sink); got != "outer" {
		t.Errorf("X = %q, want %q (function body write must not leak to the caller)", got, "outer")
	}
}

func TestFunctionParentScopeWrite(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
function(setter)
  set(X from_function PARENT_SCOPE)
endfunction()
set(X outer)
setter()
message(WARNING "${X}")
`)
	if got := lastCause(sink); got != "from_function" {
		t.Errorf("X = %q, want %q", got, "from_function")
	}
}

func TestFunctionArgBinding(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
cmake_policy(SET CMP0140 NEW)
function(concatargs first)
  set(OUT "${ARGC}:${first}:${ARGV1}:${ARGN}")
  return(PROPAGATE OUT)
endfunction()
concatargs(a b c)
message(WARNING "${OUT}")
`)
	if got, want := lastCause(sink), "3:a:b:b;c"; got != want {
		t.Errorf("OUT = %q, want %q", got, want)
	}
}

func TestMacroWritesLandInCallerScope(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
macro(setter)
  set(X set_by_macro)
endmacro()
set(X outer)
setter()
message(WARNING "${X}")
`)
	if got := lastCause(sink); got != "set_by_macro" {
		t.Errorf("X = %q, want %q (macro() never pushes its own scope)", got, "set_by_macro")
	}
}

func TestMacroReturnIsAnError(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
macro(early)
  return()
endmacro()
early()
`)
	if sink.ErrorCount() == 0 {
		t.Error("expected return() inside macro() to report an error")
	}
}

func TestReturnOutsideFunctionIsAnError(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `return()`)
	if sink.ErrorCount() == 0 {
		t.Error("expected return() outside a function() body to report an error")
	}
}

func TestReturnPropagateRequiresCMP0140(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
function(setter)
  set(OUT from_function)
  return(PROPAGATE OUT)
endfunction()
setter()
`)
	if sink.ErrorCount() == 0 {
		t.Error("expected return(PROPAGATE ...) to report an error without CMP0140 NEW")
	}
}

func TestUnrecognizedCommandIsAnErrorUnderStrictProfile(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{CompatProfile: "STRICT"})
	runSource(t, ev, `this_command_does_not_exist()`)
	if sink.ErrorCount() != 1 {
		t.Errorf("ErrorCount = %d, want 1", sink.ErrorCount())
	}
}

func TestUnrecognizedCommandIsLenientUnderCMake3XProfile(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{CompatProfile: "CMAKE_3_X"})
	runSource(t, ev, `this_command_does_not_exist()`)
	if sink.ErrorCount() != 0 {
		t.Errorf("ErrorCount = %d, want 0 under the lenient compatibility profile", sink.ErrorCount())
	}
	if sink.WarningCount() != 1 {
		t.Errorf("WarningCount = %d, want 1", sink.WarningCount())
	}
	total, unique := sink.TelemetrySummary()
	if total != 1 || unique != 1 {
		t.Errorf("TelemetrySummary = (%d, %d), want (1, 1)", total, unique)
	}
}

func TestMaxBlockDepthOverride(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{MaxBlockDepth: 1, MaxParenDepth: 1})
	runSource(t, ev, `
if(TRUE)
  if(TRUE)
    set(X too_deep)
  endif()
endif()
`)
	if sink.ErrorCount() == 0 {
		t.Error("expected a nested if() past MaxBlockDepth to report an error")
	}
}
