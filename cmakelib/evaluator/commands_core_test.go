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

import "testing"

// TestCMP0126CacheShadowDefaultsToOld is scenario 5's OLD half: under the
// default (STRICT) compatibility profile, set(CACHE) unsets the normal
// variable of the same name first, so the variable resolves from the
// cache afterward.
func TestCMP0126CacheShadowDefaultsToOld(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(X from_local)
set(X from_cache CACHE STRING "")
message(WARNING "${X}")
`)
	if got := lastCause(sink); got != "from_cache" {
		t.Errorf("X = %q, want %q (CMP0126 OLD)", got, "from_cache")
	}
}

// TestCMP0126CacheShadowNewLeavesLocalValue is scenario 5's NEW half:
// under the CMAKE_3_X compatibility profile (which pins CMP0126 NEW),
// set(CACHE) without FORCE leaves an already-defined normal variable
// alone, so the variable still resolves to its local value.
func TestCMP0126CacheShadowNewLeavesLocalValue(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{CompatProfile: "CMAKE_3_X"})
	runSource(t, ev, `
set(X from_local)
set(X from_cache CACHE STRING "")
message(WARNING "${X}")
`)
	if got := lastCause(sink); got != "from_local" {
		t.Errorf("X = %q, want %q (CMP0126 NEW)", got, "from_local")
	}
}

// TestCMP0126ExplicitSetOverridesCompatProfile confirms cmake_policy(SET)
// still wins over a pinned compat-profile default, since policy.Stack.Get
// consults the override frame before falling back to ApplyCompatProfile's
// pinned state.
func TestCMP0126ExplicitSetOverridesCompatProfile(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{CompatProfile: "CMAKE_3_X"})
	runSource(t, ev, `
cmake_policy(SET CMP0126 OLD)
set(X from_local)
set(X from_cache CACHE STRING "")
message(WARNING "${X}")
`)
	if got := lastCause(sink); got != "from_cache" {
		t.Errorf("X = %q, want %q", got, "from_cache")
	}
}

func TestSetForceOverwritesCache(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(X first CACHE STRING "")
set(X second CACHE STRING "" FORCE)
message(WARNING "${X}")
`)
	if got := lastCause(sink); got != "second" {
		t.Errorf("X = %q, want %q", got, "second")
	}
}

func TestIfDoesNotPushScope(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(X outer)
if(TRUE)
  set(X inner)
endif()
message(WARNING "${X}")
`)
	if got := lastCause(sink); got != "inner" {
		t.Errorf("X = %q, want %q (if() must not push its own variable scope)", got, "inner")
	}
}

func TestUnsetRemovesVariable(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(X value)
unset(X)
message(WARNING "[${X}]")
`)
	if got := lastCause(sink); got != "[]" {
		t.Errorf("X after unset = %q, want %q", got, "[]")
	}
}

func TestOptionDefaultsAndDoesNotOverwrite(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
option(ENABLE_FOO "enables foo" ON)
set(ENABLE_FOO "user_set")
option(ENABLE_FOO "enables foo" OFF)
message(WARNING "${ENABLE_FOO}")
`)
	if got := lastCause(sink); got != "user_set" {
		t.Errorf("ENABLE_FOO = %q, want %q (a later option() must not overwrite an already-defined variable)", got, "user_set")
	}
}

func TestMessageStatusProducesNoDiagnostic(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `message(STATUS "hello")`)
	if len(sink.Records()) != 0 {
		t.Errorf("message(STATUS ...) logged %d record(s), want 0", len(sink.Records()))
	}
}

func TestMessageFatalErrorStopsEvaluation(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
message(FATAL_ERROR "boom")
set(X should_not_run)
`)
	if !sink.HasFatal() {
		t.Error("expected message(FATAL_ERROR ...) to log a FATAL diagnostic")
	}
	if !ev.Fatal() {
		t.Error("expected Evaluator.Fatal() to report true")
	}
}

func TestMessageSendErrorContinuesEvaluation(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
message(SEND_ERROR "non-fatal")
set(X did_run)
message(WARNING "${X}")
`)
	if sink.ErrorCount() == 0 {
		t.Error("expected message(SEND_ERROR ...) to log an ERROR")
	}
	if got := lastCause(sink); got != "did_run" {
		t.Errorf("X = %q, want %q (SEND_ERROR must not halt evaluation)", got, "did_run")
	}
}

func TestMathExpr(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
math(EXPR RESULT "(2 + 3) * 4")
message(WARNING "${RESULT}")
`)
	if got := lastCause(sink); got != "20" {
		t.Errorf("RESULT = %q, want %q", got, "20")
	}
}

func TestCMakeMinimumRequiredSetsPolicyBaseline(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
cmake_minimum_required(VERSION 3.21)
set(X from_local)
set(X from_cache CACHE STRING "")
message(WARNING "${X}")
`)
	// 3.21 is exactly the version that introduces CMP0126, so the default
	// (no explicit cmake_policy() override) should already behave as NEW.
	if got := lastCause(sink); got != "from_local" {
		t.Errorf("X = %q, want %q (cmake_minimum_required(3.21) should default CMP0126 to NEW)", got, "from_local")
	}
}

func TestCMakePolicyGet(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
cmake_policy(SET CMP0126 NEW)
cmake_policy(GET CMP0126 OUT)
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "NEW" {
		t.Errorf("OUT = %q, want %q", got, "NEW")
	}
}

func TestCMakePolicyPushPop(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
cmake_policy(SET CMP0126 NEW)
cmake_policy(PUSH)
cmake_policy(SET CMP0126 OLD)
cmake_policy(POP)
cmake_policy(GET CMP0126 OUT)
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "NEW" {
		t.Errorf("OUT = %q, want %q (POP must discard the pushed override)", got, "NEW")
	}
}

func TestSeparateArgumentsAndListRoundtrip(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
set(L "a b c")
separate_arguments(L)
list(LENGTH L N)
message(WARNING "${N}")
`)
	if got := lastCause(sink); got != "3" {
		t.Errorf("N = %q, want %q", got, "3")
	}
}
