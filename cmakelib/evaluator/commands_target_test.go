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
	"testing"

	"github.com/kythe/cmakeforge/cmakelib/events"
)

// eventsOfKind collects every event of kind k from ev's stream, in
// emission order.
func eventsOfKind(ev *Evaluator, k events.Kind) []events.Event {
	var out []events.Event
	s := ev.Stream()
	for i := 0; i < s.Len(); i++ {
		if e := s.At(i); e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// TestTargetLinkLibrariesDebugOptimized is scenario 3:
// target_link_libraries(app PRIVATE debug dbg.a optimized rel.a) must
// emit two separate link-library events, each carrying its own
// configuration condition, in source order.
func TestTargetLinkLibrariesDebugOptimized(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
add_executable(app main.cc)
target_link_libraries(app PRIVATE debug dbg.a optimized rel.a)
`)
	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Records())
	}

	tlls := eventsOfKind(ev, events.TargetLinkLibraries)
	if len(tlls) != 2 {
		t.Fatalf("got %d TargetLinkLibraries events, want 2: %+v", len(tlls), tlls)
	}

	dbg, rel := tlls[0], tlls[1]
	if got := dbg.Values; len(got) != 1 || got[0] != "dbg.a" {
		t.Errorf("first event Values = %v, want [dbg.a]", got)
	}
	if dbg.Condition != "configuration == Debug" {
		t.Errorf("first event Condition = %q, want %q", dbg.Condition, "configuration == Debug")
	}
	if dbg.Visibility != events.Private {
		t.Errorf("first event Visibility = %v, want Private", dbg.Visibility)
	}

	if got := rel.Values; len(got) != 1 || got[0] != "rel.a" {
		t.Errorf("second event Values = %v, want [rel.a]", got)
	}
	if rel.Condition != "configuration ≠ Debug" {
		t.Errorf("second event Condition = %q, want %q", rel.Condition, "configuration ≠ Debug")
	}
	if rel.Visibility != events.Private {
		t.Errorf("second event Visibility = %v, want Private", rel.Visibility)
	}
}

// TestTargetLinkLibrariesPlainItemsBatchByVisibility confirms plain
// (non debug/optimized) items under one visibility keyword are grouped
// into a single event rather than one event per item.
func TestTargetLinkLibrariesPlainItemsBatchByVisibility(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
add_executable(app main.cc)
target_link_libraries(app PUBLIC a b PRIVATE c)
`)
	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Records())
	}

	tlls := eventsOfKind(ev, events.TargetLinkLibraries)
	if len(tlls) != 2 {
		t.Fatalf("got %d TargetLinkLibraries events, want 2: %+v", len(tlls), tlls)
	}
	if got := tlls[0].Values; len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("PUBLIC event Values = %v, want [a b]", got)
	}
	if tlls[0].Visibility != events.Public {
		t.Errorf("PUBLIC event Visibility = %v, want Public", tlls[0].Visibility)
	}
	if got := tlls[1].Values; len(got) != 1 || got[0] != "c" {
		t.Errorf("PRIVATE event Values = %v, want [c]", got)
	}
}

func TestAddExecutableDeclaresTargetAndSources(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `add_executable(app main.cc util.cc)`)
	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Records())
	}

	decls := eventsOfKind(ev, events.TargetDeclare)
	if len(decls) != 1 {
		t.Fatalf("got %d TargetDeclare events, want 1", len(decls))
	}
	if decls[0].Name != "app" || decls[0].TargetType != "EXECUTABLE" {
		t.Errorf("declare event = %+v, want Name=app TargetType=EXECUTABLE", decls[0])
	}
}

func TestAddLibraryInterfaceKind(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `add_library(iface INTERFACE)`)
	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Records())
	}

	decls := eventsOfKind(ev, events.TargetDeclare)
	if len(decls) != 1 || decls[0].TargetType != "INTERFACE_LIBRARY" {
		t.Fatalf("declare events = %+v, want one INTERFACE_LIBRARY", decls)
	}
}

func TestTargetIncludeDirectoriesVisibilityBatching(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
add_library(core STATIC core.cc)
target_include_directories(core PUBLIC include PRIVATE src)
`)
	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Records())
	}

	props := eventsOfKind(ev, events.TargetIncludeDirectories)
	if len(props) != 2 {
		t.Fatalf("got %d TargetIncludeDirectories events, want 2: %+v", len(props), props)
	}
	if props[0].Visibility != events.Public || len(props[0].Values) != 1 || props[0].Values[0] != "include" {
		t.Errorf("PUBLIC event = %+v, want Visibility=Public Values=[include]", props[0])
	}
	if props[1].Visibility != events.Private || len(props[1].Values) != 1 || props[1].Values[0] != "src" {
		t.Errorf("PRIVATE event = %+v, want Visibility=Private Values=[src]", props[1])
	}
}

func TestSetTargetPropertiesEmitsPropSet(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
add_executable(app main.cc)
set_target_properties(app PROPERTIES OUTPUT_NAME app_renamed)
`)
	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Records())
	}

	props := eventsOfKind(ev, events.TargetPropSet)
	found := false
	for _, p := range props {
		if p.Name == "app" && p.Key == "OUTPUT_NAME" && p.Value == "app_renamed" {
			found = true
		}
	}
	if !found {
		t.Errorf("no TargetPropSet event for OUTPUT_NAME among %+v", props)
	}
}

func TestEnableTestingAndAddTest(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
enable_testing()
add_test(NAME smoke COMMAND app --selftest)
`)
	if sink.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", sink.Records())
	}

	tests := eventsOfKind(ev, events.TestAdd)
	if len(tests) != 1 || tests[0].Name != "smoke" {
		t.Fatalf("TestAdd events = %+v, want one named smoke", tests)
	}
}

func TestFindPackageNotFoundWithoutRequired(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
find_package(DEFINITELYNOTINSTALLEDLIBRARYXYZ)
message(WARNING "${DEFINITELYNOTINSTALLEDLIBRARYXYZ_FOUND}")
`)
	if got := lastCause(sink); got != "FALSE" {
		t.Errorf("_FOUND = %q, want %q", got, "FALSE")
	}
}
