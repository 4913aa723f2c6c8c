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

package buildmodel

import (
	"io"
	"testing"

	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
)

func freezeModel(m *Model) *Frozen {
	return NewFreezer().Freeze(m)
}

func TestValidateAcceptsWellFormedModel(t *testing.T) {
	m := NewModel("/src", "/build")
	m.Targets = append(m.Targets, Target{Name: "core", Type: StaticLibrary, Sources: []string{"core.cc"}})
	m.Targets = append(m.Targets, Target{Name: "widget", Type: Executable, Sources: []string{"main.cc"}, BuildDeps: []string{"core"}})
	fr, ok := Validate(freezeModel(m), diagnostics.New(io.Discard))
	if !ok || fr == nil {
		t.Fatalf("expected a well-formed model to validate cleanly")
	}
}

func TestValidateRejectsUndeclaredDependency(t *testing.T) {
	m := NewModel("/src", "/build")
	m.Targets = append(m.Targets, Target{Name: "widget", Type: Executable, BuildDeps: []string{"ghost"}})
	_, ok := Validate(freezeModel(m), diagnostics.New(io.Discard))
	if ok {
		t.Fatal("expected validation to reject a dependency on an undeclared target")
	}
}

func TestValidateRejectsDependencyCycle(t *testing.T) {
	m := NewModel("/src", "/build")
	m.Targets = append(m.Targets, Target{Name: "a", Type: StaticLibrary, BuildDeps: []string{"b"}})
	m.Targets = append(m.Targets, Target{Name: "b", Type: StaticLibrary, BuildDeps: []string{"a"}})
	_, ok := Validate(freezeModel(m), diagnostics.New(io.Discard))
	if ok {
		t.Fatal("expected validation to detect the a->b->a cycle")
	}
}

func TestValidateRejectsInterfaceLibraryWithSources(t *testing.T) {
	m := NewModel("/src", "/build")
	m.Targets = append(m.Targets, Target{Name: "iface", Type: InterfaceLibrary, Sources: []string{"nope.cc"}})
	_, ok := Validate(freezeModel(m), diagnostics.New(io.Discard))
	if ok {
		t.Fatal("expected validation to reject an INTERFACE library with sources")
	}
}

func TestValidateRejectsInstallRuleMissingDestination(t *testing.T) {
	m := NewModel("/src", "/build")
	m.InstallRules = append(m.InstallRules, InstallRule{Kind: InstallFiles, Items: []string{"README.md"}})
	_, ok := Validate(freezeModel(m), diagnostics.New(io.Discard))
	if ok {
		t.Fatal("expected validation to reject an install rule without a destination")
	}
}

func TestValidateRejectsCPackComponentReferencingUndeclaredGroup(t *testing.T) {
	m := NewModel("/src", "/build")
	m.CPackComponents = append(m.CPackComponents, CPackComponent{Name: "core", Group: "missing-group"})
	_, ok := Validate(freezeModel(m), diagnostics.New(io.Discard))
	if ok {
		t.Fatal("expected validation to reject a component referencing an undeclared group")
	}
}

func TestValidateWarnsButAcceptsDuplicateSource(t *testing.T) {
	m := NewModel("/src", "/build")
	m.Targets = append(m.Targets, Target{Name: "widget", Type: Executable, Sources: []string{"a.cc", "a.cc"}})
	sink := diagnostics.New(io.Discard)
	fr, ok := Validate(freezeModel(m), sink)
	if !ok || fr == nil {
		t.Fatalf("duplicate sources should warn, not fail validation")
	}
	if sink.WarningCount() == 0 {
		t.Errorf("expected at least one WARNING for the duplicate source")
	}
}
