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
	"github.com/kythe/cmakeforge/cmakelib/events"
)

func newTestBuilder() *Builder {
	return NewBuilder("/src", "/build", diagnostics.New(io.Discard))
}

func TestProjectDeclare(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.ProjectDeclare, Name: "widget", Version: "1.2.3", Languages: []string{"CXX"}})
	if err := b.Apply(s); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	m := b.Finish()
	if m == nil {
		t.Fatal("Finish returned nil")
	}
	if m.Project.Name != "widget" || m.Project.VersionMajor != "1" || m.Project.VersionMinor != "2" || m.Project.VersionPatch != "3" {
		t.Errorf("project = %+v", m.Project)
	}
}

func TestDuplicateTargetDeclareIsFatal(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.TargetDeclare, Name: "widget", TargetType: "EXECUTABLE"})
	s.Push(events.Event{Kind: events.TargetDeclare, Name: "widget", TargetType: "EXECUTABLE"})
	b.Apply(s)
	if m := b.Finish(); m != nil {
		t.Fatalf("Finish returned a model after a duplicate target declaration: %+v", m)
	}
}

func TestAddSourceRejectedOnInterfaceLibrary(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.TargetDeclare, Name: "iface", TargetType: "INTERFACE_LIBRARY"})
	s.Push(events.Event{Kind: events.TargetAddSource, Name: "iface", Values: []string{"a.cc"}})
	b.Apply(s)
	m := b.Finish()
	if m == nil {
		t.Fatal("expected a non-fatal diagnostic, not a fatal one")
	}
	i := m.TargetByName("iface")
	if len(m.Targets[i].Sources) != 0 {
		t.Errorf("INTERFACE library acquired sources: %v", m.Targets[i].Sources)
	}
}

func TestTargetPropSetAppendSemantics(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.TargetDeclare, Name: "widget", TargetType: "EXECUTABLE"})
	s.Push(events.Event{Kind: events.TargetPropSet, Name: "widget", Key: "COMPILE_FLAGS", Value: "-Wall", Action: events.PropSet})
	s.Push(events.Event{Kind: events.TargetPropSet, Name: "widget", Key: "COMPILE_FLAGS", Value: "-Wextra", Action: events.PropAppendString})
	b.Apply(s)
	m := b.Finish()
	i := m.TargetByName("widget")
	if got := m.Targets[i].Properties["COMPILE_FLAGS"]; got != "-Wall-Wextra" {
		t.Errorf("COMPILE_FLAGS = %q, want %q", got, "-Wall-Wextra")
	}
}

func TestTargetIncludeDirectoriesVisibility(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.TargetDeclare, Name: "widget", TargetType: "EXECUTABLE"})
	s.Push(events.Event{Kind: events.TargetIncludeDirectories, Name: "widget", Values: []string{"include"}, Visibility: events.Public})
	b.Apply(s)
	m := b.Finish()
	i := m.TargetByName("widget")
	if len(m.Targets[i].IncludeDirectories) != 1 || m.Targets[i].IncludeDirectories[0].Visibility != Public {
		t.Errorf("include dirs = %+v", m.Targets[i].IncludeDirectories)
	}
}

func TestTargetLinkLibrariesSplitsTargetsFromOpaqueItems(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.TargetDeclare, Name: "core", TargetType: "STATIC_LIBRARY"})
	s.Push(events.Event{Kind: events.TargetDeclare, Name: "widget", TargetType: "EXECUTABLE"})
	s.Push(events.Event{Kind: events.TargetLinkLibraries, Name: "widget", Values: []string{"core", "-lm"}, Visibility: events.Private})
	b.Apply(s)
	m := b.Finish()
	i := m.TargetByName("widget")
	if len(m.Targets[i].BuildDeps) != 1 || m.Targets[i].BuildDeps[0] != "core" {
		t.Errorf("BuildDeps = %v", m.Targets[i].BuildDeps)
	}
	if len(m.Targets[i].LinkLibraries) != 1 || m.Targets[i].LinkLibraries[0].Value != "-lm" {
		t.Errorf("LinkLibraries = %v", m.Targets[i].LinkLibraries)
	}
}

func TestOutputCustomCommandAppendsToMatchingFirstOutput(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.CustomCommandOutput, Outputs: []string{"gen.h"}, CommandLine: []string{"gen", "step1"}})
	s.Push(events.Event{Kind: events.CustomCommandOutput, Outputs: []string{"gen.h"}, CommandLine: []string{"gen", "step2"}})
	b.Apply(s)
	m := b.Finish()
	if len(m.OutputCustomCommands) != 1 {
		t.Fatalf("OutputCustomCommands = %+v, want exactly one entry", m.OutputCustomCommands)
	}
	if len(m.OutputCustomCommands[0].Command) != 4 {
		t.Errorf("Command = %v, want the two command lines concatenated", m.OutputCustomCommands[0].Command)
	}
}

func TestDirectoryPushPopNeverUnderflowsRoot(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.DirPop})
	s.Push(events.Event{Kind: events.DirPop})
	b.Apply(s)
	if m := b.Finish(); m == nil || len(m.Directories) != 1 {
		t.Fatalf("expected the pre-seeded root directory to survive underflow pops")
	}
}

func TestDirectoryPushCreatesChildNode(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.DirPush, SourceDir: "/src/sub", BinaryDir: "/build/sub"})
	s.Push(events.Event{Kind: events.DirectoryIncludeDirectories, Values: []string{"sub/include"}})
	s.Push(events.Event{Kind: events.DirPop})
	b.Apply(s)
	m := b.Finish()
	if len(m.Directories) != 2 {
		t.Fatalf("Directories = %+v, want 2 nodes", m.Directories)
	}
	if m.Directories[1].Parent != 0 {
		t.Errorf("child Parent = %d, want 0", m.Directories[1].Parent)
	}
	if len(m.Directories[1].IncludeDirectories) != 1 {
		t.Errorf("child include dirs = %v", m.Directories[1].IncludeDirectories)
	}
}

func TestInstallRuleMissingDestinationWarnsNotFatal(t *testing.T) {
	b := newTestBuilder()
	s := events.NewStream()
	s.Push(events.Event{Kind: events.InstallAddRule, Values: []string{"widget"}})
	b.Apply(s)
	if m := b.Finish(); m == nil {
		t.Fatal("a missing DESTINATION should warn, not abort the whole build")
	}
}
