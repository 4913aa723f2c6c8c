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

// Package policy implements CMake's CMP#### backward-compatibility
// switches: a push/pop stack of OLD/NEW/UNSET overrides sitting on top of
// a version-indexed default table, so a policy's default behavior is a
// single table lookup against the project's cmake_minimum_required
// baseline rather than a per-policy branch scattered through the
// evaluator.
package policy

import (
	"fmt"
	"strconv"
	"strings"
)

// State is one policy's current disposition.
type State int

const (
	// Unset means neither the project nor cmake_policy() has chosen a
	// side explicitly; Get resolves it from the version-indexed default.
	Unset State = iota
	Old
	New
)

func (s State) String() string {
	switch s {
	case Old:
		return "OLD"
	case New:
		return "NEW"
	default:
		return "UNSET"
	}
}

// ParseState parses "OLD"/"NEW" case-insensitively.
func ParseState(s string) (State, error) {
	switch strings.ToUpper(s) {
	case "OLD":
		return Old, nil
	case "NEW":
		return New, nil
	}
	return Unset, fmt.Errorf("invalid policy state %q, expected OLD or NEW", s)
}

// ID names a single policy, e.g. "CMP0048".
type ID string

// Version is a dotted cmake_minimum_required version, compared
// component-wise with missing trailing components treated as 0.
type Version struct {
	Major, Minor, Patch int
}

// ParseVersion parses a "major[.minor[.patch[...]]]" version string,
// taking only the first three dotted components (CMake policy decisions
// never depend on a tweak component).
func ParseVersion(s string) (Version, error) {
	fields := strings.SplitN(s, ".", 4)
	nums := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %v", s, err)
		}
		nums[i] = n
	}
	var v Version
	if len(nums) > 0 {
		v.Major = nums[0]
	}
	if len(nums) > 1 {
		v.Minor = nums[1]
	}
	if len(nums) > 2 {
		v.Patch = nums[2]
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return sign(v.Major - o.Major)
	case v.Minor != o.Minor:
		return sign(v.Minor - o.Minor)
	default:
		return sign(v.Patch - o.Patch)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// introducedIn is the version-indexed default table: a policy defaults to
// NEW once the project's cmake_minimum_required baseline reaches the
// version that introduced it, and to OLD otherwise. Only the policies this
// project's evaluator branches on are listed; cmake_policy(GET) on any
// other CMP#### id is still well-formed (Known reports false, the
// evaluator treats that as a policy-introspection failure per spec, not a
// panic).
var introducedIn = map[ID]Version{
	"CMP0048": {3, 0, 0},  // project() VERSION sets PROJECT_VERSION variables
	"CMP0126": {3, 21, 0}, // set(CACHE) no longer removes a normal variable of the same name
	"CMP0140": {3, 25, 0}, // return(PROPAGATE ...) supported
}

// Known reports whether id is a policy this evaluator has a default entry
// (and therefore behavior) for.
func Known(id ID) bool {
	_, ok := introducedIn[id]
	return ok
}

// Stack is a push/pop stack of policy overrides sitting on a single
// project-wide version baseline, mirroring cmake_policy(PUSH)/(POP).
type Stack struct {
	baseline Version
	frames   []map[ID]State
}

// New returns a Stack with the given cmake_minimum_required baseline and
// one (the root) frame.
func New(baseline Version) *Stack {
	return &Stack{baseline: baseline, frames: []map[ID]State{{}}}
}

// SetBaseline updates the version baseline used to resolve UNSET policies;
// cmake_minimum_required can be called more than once in a project and the
// latest call wins.
func (s *Stack) SetBaseline(v Version) {
	s.baseline = v
}

// Push starts a new override frame (cmake_policy(PUSH)).
func (s *Stack) Push() {
	s.frames = append(s.frames, map[ID]State{})
}

// Pop discards the most recently pushed frame (cmake_policy(POP)); popping
// the root frame is a no-op, matching CMake's own "POP without PUSH is an
// error" being the evaluator's concern, not the stack's.
func (s *Stack) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Set overrides id's state in the current frame (cmake_policy(SET ...) or
// a directory-scoped policy() command).
func (s *Stack) Set(id ID, state State) {
	s.frames[len(s.frames)-1][id] = state
}

// Get resolves id's effective state: the nearest frame's explicit
// override, or else the version-indexed default computed from the
// baseline.
func (s *Stack) Get(id ID) State {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if st, ok := s.frames[i][id]; ok {
			return st
		}
	}
	introduced, ok := introducedIn[id]
	if !ok {
		return Unset
	}
	if s.baseline.Compare(introduced) >= 0 {
		return New
	}
	return Old
}

// ApplyCompatProfile forces the handful of policies a named compatibility
// profile pins, regardless of baseline. "CMAKE_3_X" is the only profile
// this project defines: CMP0048 and CMP0126 are pinned NEW, and unknown
// commands are treated leniently (WARNING + telemetry) rather than ERROR
// — the lenient-unknown-command behavior itself is consulted separately
// by the evaluator's dispatch, not modeled as a policy here.
func (s *Stack) ApplyCompatProfile(name string) error {
	switch name {
	case "CMAKE_3_X":
		s.Set("CMP0048", New)
		s.Set("CMP0126", New)
		return nil
	default:
		return fmt.Errorf("unrecognized compatibility profile %q", name)
	}
}

// LenientUnknownCommands reports whether the current compatibility
// profile prefers a WARNING+telemetry fallback over an ERROR for a
// command dispatch that matches nothing. Only "CMAKE_3_X" enables it.
func (s *Stack) LenientUnknownCommands(profile string) bool {
	return profile == "CMAKE_3_X"
}
