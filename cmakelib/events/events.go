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

// Package events defines the evaluator's output alphabet: an append-only
// stream of Events the Builder consumes left to right to populate a
// mutable build model. Go's GC makes the arena discipline the original
// design used for event storage unnecessary; Stream instead copies every
// string payload into freshly-allocated Go strings as it's appended
// (Go strings already being immutable value types makes this copy
// trivial), which gives the same "no aliased evaluator temporaries"
// guarantee without manual lifetime management.
package events

// Kind discriminates an Event's payload; exactly one group of fields in
// Event is meaningful for a given Kind.
type Kind int

const (
	Diagnostic Kind = iota

	ProjectDeclare

	VarSet
	SetCacheEntry

	TargetDeclare
	TargetAddSource
	TargetPropSet
	TargetIncludeDirectories
	TargetCompileDefinitions
	TargetCompileOptions
	TargetLinkLibraries
	TargetLinkOptions
	TargetLinkDirectories

	CustomCommandTarget
	CustomCommandOutput

	DirPush
	DirPop
	DirectoryIncludeDirectories
	DirectoryLinkDirectories

	GlobalCompileDefinitions
	GlobalCompileOptions
	GlobalLinkOptions
	GlobalLinkLibraries

	TestingEnable
	TestAdd

	InstallAddRule

	CPackInstallType
	CPackComponentGroup
	CPackComponent

	FindPackage
)

// Visibility is a target property's usage scope, carried by every
// per-target property event that supports PUBLIC/PRIVATE/INTERFACE.
type Visibility int

const (
	VisibilityDefault Visibility = iota
	Public
	Private
	Interface
)

// PropAction distinguishes set(), append-as-list, and append-as-string
// writes to an existing target property, per spec's TARGET_PROP_SET rule.
type PropAction int

const (
	PropSet PropAction = iota
	PropAppendList
	PropAppendString
)

// Origin is the source position every event carries.
type Origin struct {
	File string
	Line int
	Col  int
}

// Event is a single evaluator output record. Only the fields relevant to
// Kind are populated; the rest are left zero.
type Event struct {
	Kind   Kind
	Origin Origin

	// Diagnostic
	Severity  int // mirrors diagnostics.Severity without importing it, to keep events dependency-free
	Component string
	Command   string
	Cause     string
	Hint      string

	// ProjectDeclare
	Name        string
	Version     string
	Description string
	HomepageURL string
	Languages   []string

	// VarSet / SetCacheEntry
	Key         string
	Value       string
	CacheType   string
	CacheDoc    string
	CacheForce  bool

	// TargetDeclare
	TargetType string // mirrors buildmodel.TargetType as text, see below

	// TargetAddSource / property lists
	Values     []string
	Visibility Visibility
	Condition  string // a serialized logic-condition expression, interned by the freezer

	// TargetPropSet
	Action PropAction

	// CustomCommand
	Outputs     []string
	CommandLine []string
	WorkingDir  string
	Pre         bool // CUSTOM_COMMAND_TARGET: true = PRE_BUILD/PRE_LINK, false = POST_BUILD

	// DirPush/Pop and directory-scope events share SourceDir/BinaryDir
	SourceDir string
	BinaryDir string

	// TestAdd
	ExpandLists bool

	// InstallAddRule
	Destination string

	// CPack
	Dependencies []string
	InstallTypes []string

	// FindPackage
	IncludeDirs []string
	Libraries   []string
	Definitions []string
	Properties  map[string]string
}

// Stream is an append-only, cursor-iterable sequence of Events.
type Stream struct {
	events []Event
}

// NewStream returns an empty event stream.
func NewStream() *Stream {
	return &Stream{}
}

// Push appends ev to the stream, copying its string-slice payloads so the
// stream never aliases a caller-owned slice it might later mutate.
func (s *Stream) Push(ev Event) {
	ev.Languages = append([]string(nil), ev.Languages...)
	ev.Values = append([]string(nil), ev.Values...)
	ev.Outputs = append([]string(nil), ev.Outputs...)
	ev.CommandLine = append([]string(nil), ev.CommandLine...)
	ev.Dependencies = append([]string(nil), ev.Dependencies...)
	ev.InstallTypes = append([]string(nil), ev.InstallTypes...)
	ev.IncludeDirs = append([]string(nil), ev.IncludeDirs...)
	ev.Libraries = append([]string(nil), ev.Libraries...)
	ev.Definitions = append([]string(nil), ev.Definitions...)
	if ev.Properties != nil {
		cp := make(map[string]string, len(ev.Properties))
		for k, v := range ev.Properties {
			cp[k] = v
		}
		ev.Properties = cp
	}
	s.events = append(s.events, ev)
}

// Len returns the number of events pushed so far.
func (s *Stream) Len() int {
	return len(s.events)
}

// At returns the event at the given stream position.
func (s *Stream) At(i int) Event {
	return s.events[i]
}

// Cursor is a non-consuming iterator over a Stream: advancing one cursor
// never affects another cursor over the same stream.
type Cursor struct {
	stream *Stream
	pos    int
}

// NewCursor returns a cursor positioned before the first event.
func (s *Stream) NewCursor() *Cursor {
	return &Cursor{stream: s}
}

// Next returns the next event and advances the cursor, or reports ok=false
// at the end of the stream.
func (c *Cursor) Next() (Event, bool) {
	if c.pos >= c.stream.Len() {
		return Event{}, false
	}
	ev := c.stream.At(c.pos)
	c.pos++
	return ev, true
}

// Pos returns the cursor's current stream position.
func (c *Cursor) Pos() int {
	return c.pos
}
