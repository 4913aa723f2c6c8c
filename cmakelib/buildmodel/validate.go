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
	"fmt"

	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
)

// color is a DFS visitation mark for the dependency-graph cycle check.
type color int

const (
	white color = iota
	gray
	black
)

// Validate runs the structural, dependency, acyclicity, and semantic
// checks spec.md §4.8 requires against a frozen model. Every failure is
// logged to sink as an ERROR (or WARNING for the non-fatal cases called
// out below); Validate returns the model unchanged on success, or nil if
// any ERROR-level check failed.
func Validate(fr *Frozen, sink *diagnostics.Sink) (*Frozen, bool) {
	ok := true
	report := func(format string, args ...interface{}) {
		sink.Error("validate", "", 0, 0, "", fmt.Sprintf(format, args...), "")
		ok = false
	}
	warn := func(format string, args ...interface{}) {
		sink.Warning("validate", "", 0, 0, "", fmt.Sprintf(format, args...), "")
	}

	names := make(map[string]int, len(fr.Targets))
	for i, t := range fr.Targets {
		if t.Name == "" {
			report("target at index %d has an empty name", i)
			continue
		}
		if prev, dup := names[t.Name]; dup {
			report("duplicate target name %q (indices %d and %d)", t.Name, prev, i)
			continue
		}
		names[t.Name] = i
	}

	for _, t := range fr.Targets {
		checkDeps(t.Name, "link", t.BuildDeps, names, report)
		checkDeps(t.Name, "object", t.ObjectDeps, names, report)
		checkDeps(t.Name, "interface", t.InterfaceDeps, names, report)

		if t.Type == InterfaceLibrary {
			if len(t.Sources) != 0 {
				report("INTERFACE library %q has sources; INTERFACE libraries may not compile anything", t.Name)
			}
			if len(t.BuildDeps) != 0 {
				report("INTERFACE library %q has non-interface link dependencies %v", t.Name, t.BuildDeps)
			}
		}

		seen := make(map[string]bool, len(t.Sources))
		for _, src := range t.Sources {
			if seen[src] {
				warn("target %q lists source %q more than once", t.Name, src)
			}
			seen[src] = true
		}
	}

	if cyc := findCycle(fr.Targets, names); cyc != nil {
		report("dependency cycle: %v", cyc)
	}

	for i, r := range fr.InstallRules {
		if r.Destination == "" {
			report("install rule at index %d has no DESTINATION", i)
		}
	}

	for i, t := range fr.Tests {
		if t.Name == "" {
			report("test at index %d has an empty name", i)
		}
		if len(t.Command) == 0 {
			report("test %q has an empty command", t.Name+fmt.Sprintf("[%d]", i))
		}
	}

	groupNames := make(map[string]bool, len(fr.CPackComponentGroups))
	for _, g := range fr.CPackComponentGroups {
		groupNames[g.Name] = true
	}
	compNames := make(map[string]bool, len(fr.CPackComponents))
	for _, c := range fr.CPackComponents {
		compNames[c.Name] = true
	}
	installTypeNames := make(map[string]bool, len(fr.CPackInstallTypes))
	for _, it := range fr.CPackInstallTypes {
		installTypeNames[it.Name] = true
	}
	for _, g := range fr.CPackComponentGroups {
		if g.ParentGroup != "" && !groupNames[g.ParentGroup] {
			report("CPack component group %q has undeclared parent group %q", g.Name, g.ParentGroup)
		}
	}
	for _, c := range fr.CPackComponents {
		if c.Group != "" && !groupNames[c.Group] {
			report("CPack component %q references undeclared group %q", c.Name, c.Group)
		}
		for _, dep := range c.Dependencies {
			if !compNames[dep] {
				report("CPack component %q depends on undeclared component %q", c.Name, dep)
			}
		}
		for _, it := range c.InstallTypes {
			if !installTypeNames[it] {
				report("CPack component %q references undeclared install type %q", c.Name, it)
			}
		}
	}

	if !ok {
		return nil, false
	}
	return fr, true
}

func checkDeps(target, kind string, deps []string, names map[string]int, report func(string, ...interface{})) {
	for _, d := range deps {
		if _, ok := names[d]; !ok {
			report("target %q has a %s dependency on undeclared target %q", target, kind, d)
		}
	}
}

// findCycle runs a tri-color DFS over the union of the build, object, and
// interface dependency edges and returns the first cycle found as a
// slice of target names, or nil if the graph is acyclic.
func findCycle(targets []Target, names map[string]int) []string {
	colors := make([]color, len(targets))
	var stack []string
	var cyc []string

	var visit func(i int) bool
	visit = func(i int) bool {
		colors[i] = gray
		stack = append(stack, targets[i].Name)
		for _, edgeList := range [][]string{targets[i].BuildDeps, targets[i].ObjectDeps, targets[i].InterfaceDeps} {
			for _, dep := range edgeList {
				j, ok := names[dep]
				if !ok {
					continue
				}
				switch colors[j] {
				case white:
					if visit(j) {
						return true
					}
				case gray:
					cyc = append(append([]string(nil), stack...), targets[j].Name)
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		colors[i] = black
		return false
	}

	for i := range targets {
		if colors[i] == white {
			if visit(i) {
				return cyc
			}
		}
	}
	return nil
}
