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

// Package buildmodel holds the mutable Build Model a Builder populates
// from an event stream, and the Freezer/Validator pair that turns it into
// the immutable Model a downstream code generator observes.
package buildmodel

// TargetType is the closed alphabet of target kinds add_executable/
// add_library can declare.
type TargetType int

const (
	Executable TargetType = iota
	StaticLibrary
	SharedLibrary
	ModuleLibrary
	ObjectLibrary
	InterfaceLibrary
	Utility
	ImportedTarget
	AliasTarget
)

func (t TargetType) String() string {
	switch t {
	case Executable:
		return "EXECUTABLE"
	case StaticLibrary:
		return "STATIC_LIBRARY"
	case SharedLibrary:
		return "SHARED_LIBRARY"
	case ModuleLibrary:
		return "MODULE_LIBRARY"
	case ObjectLibrary:
		return "OBJECT_LIBRARY"
	case InterfaceLibrary:
		return "INTERFACE_LIBRARY"
	case Utility:
		return "UTILITY"
	case ImportedTarget:
		return "IMPORTED"
	case AliasTarget:
		return "ALIAS"
	default:
		return "UNKNOWN"
	}
}

// Visibility is PUBLIC/PRIVATE/INTERFACE usage scope for a conditional
// target property.
type Visibility int

const (
	VisibilityUnspecified Visibility = iota
	Public
	Private
	Interface
)

// ConditionalValue pairs a property value with the (serialized) generator
// expression or logic condition that gates it, per spec.md §3's
// "(value, condition-expression) pairs".
type ConditionalValue struct {
	Value     string
	Condition string // empty means unconditional
}

// VisibilityValue adds a PUBLIC/PRIVATE/INTERFACE tag to a conditional
// property entry, for the six per-target conditional property lists.
type VisibilityValue struct {
	ConditionalValue
	Visibility Visibility
}

// CustomCommand is one add_custom_command() invocation, in either its
// TARGET form (Outputs empty, Stage set) or its OUTPUT form (Stage
// unused).
type CustomCommand struct {
	Outputs            []string
	Command            []string
	Depends            []string
	MainDependency     string
	Depfile            string
	ByProducts         []string
	ImplicitDepends    []ImplicitDepend
	Comment            string
	WorkingDirectory   string
	JobPool            string
	UsesTerminal       bool
	CommandExpandLists bool
	VerbatimFlag       bool
	DependsExplicitOnly bool
	Codegen            bool
	Stage              CustomCommandStage // PreBuild/PreLink/PostBuild, TARGET form only
}

// ImplicitDepend is one language/file pair from IMPLICIT_DEPENDS.
type ImplicitDepend struct {
	Language string
	File     string
}

// CustomCommandStage is the TARGET-form add_custom_command() attachment point.
type CustomCommandStage int

const (
	NoStage CustomCommandStage = iota
	PreBuild
	PreLink
	PostBuild
)

// Target is one add_executable/add_library/add_custom_target declaration.
type Target struct {
	Name      string
	Type      TargetType
	Directory int // index into Model.Directories

	Sources []string

	// Dependency lists, keyed by the three dependency kinds spec.md §3
	// names: build (ordinary target_link_libraries PUBLIC/PRIVATE),
	// object (object-library membership), interface (INTERFACE-only).
	BuildDeps     []string
	ObjectDeps    []string
	InterfaceDeps []string

	LinkLibraries []ConditionalValue // opaque (non-target) link items, e.g. -lm, /usr/lib/libfoo.a

	CompileDefinitions []VisibilityValue
	CompileOptions     []VisibilityValue
	IncludeDirectories []VisibilityValue
	LinkLibrariesProp  []VisibilityValue // target_link_libraries entries that do name a target
	LinkOptions        []VisibilityValue
	LinkDirectories    []VisibilityValue

	Properties map[string]string

	PreBuildCommands  []CustomCommand
	PostBuildCommands []CustomCommand

	OutputName      string
	OutputDirectory string
	RuntimeDir      string
	ArchiveDir      string
	Prefix          string
	Suffix          string
	Win32Executable bool
	MacOSXBundle    bool
	ExcludeFromAll  bool
	Imported        bool
	ImportedGlobal  bool
	Alias           bool
	AliasOf         string
}

// CacheVariable is one entry of the ordered cache-variable property list.
type CacheVariable struct {
	Name  string
	Value string
	Type  string
	Doc   string
}

// EnvVariable is one entry of the ordered environment-variable property list.
type EnvVariable struct {
	Name  string
	Value string
}

// DirectoryNode is one node of the source/binary directory tree that
// add_subdirectory() grows.
type DirectoryNode struct {
	Parent             int // -1 for the root
	SourceDir          string
	BinaryDir          string
	IncludeDirectories []string
	SystemIncludeDirs  []string
	LinkDirectories    []string
}

// FoundPackage is one find_package() resolution record.
type FoundPackage struct {
	Name         string
	Version      string
	IncludeDirs  []string
	Libraries    []string
	Definitions  []string
	Properties   map[string]string
	Found        bool
	Components   map[string]bool
}

// InstallRuleKind discriminates an install() call's item kind.
type InstallRuleKind int

const (
	InstallTargets InstallRuleKind = iota
	InstallFiles
	InstallPrograms
	InstallDirectory
)

// InstallRule is one install() rule.
type InstallRule struct {
	Kind        InstallRuleKind
	Items       []string // target names, or file/program/directory paths
	Destination string
	Export      string
}

// Test is one add_test() registration.
type Test struct {
	Name         string
	Command      []string
	WorkingDir   string
	ExpandLists  bool
}

// CPackInstallType is one cpack_add_install_type() entity.
type CPackInstallType struct {
	Name        string
	DisplayName string
}

// CPackComponentGroup is one cpack_add_component_group() entity.
type CPackComponentGroup struct {
	Name        string
	DisplayName string
	ParentGroup string
}

// CPackComponent is one cpack_add_component() entity.
type CPackComponent struct {
	Name         string
	DisplayName  string
	Group        string
	Dependencies []string
	InstallTypes []string
}

// Project carries the fields project() populates.
type Project struct {
	Name              string
	Version           string
	VersionMajor      string
	VersionMinor      string
	VersionPatch      string
	VersionTweak      string
	Description       string
	HomepageURL       string
	Languages         []string
	DefaultConfigName string
}

// Model is the mutable Build Model the Builder populates event by event;
// see Frozen for the immutable structure exposed past the freeze/validate
// boundary.
type Model struct {
	Project Project

	Targets []Target

	CacheVariables []CacheVariable
	EnvVariables   []EnvVariable

	Directories []DirectoryNode

	FoundPackages []FoundPackage

	OutputCustomCommands []CustomCommand // OUTPUT-form add_custom_command, keyed by first output

	InstallRules []InstallRule

	Tests []Test

	CPackInstallTypes     []CPackInstallType
	CPackComponentGroups  []CPackComponentGroup
	CPackComponents       []CPackComponent

	GlobalCompileDefinitions []string
	GlobalCompileOptions     []string
	GlobalLinkOptions        []string
	GlobalLinkLibraries      []string

	IsWindows bool
	IsUnix    bool
	IsApple   bool
	IsLinux   bool

	TestingEnabled bool
	InstallEnabled bool
}

// NewModel returns an empty mutable Build Model with the root directory
// node (index 0, no parent) already present, matching how the Builder's
// DIR_PUSH/POP accounting assumes a root always exists.
func NewModel(sourceDir, binaryDir string) *Model {
	return &Model{
		Directories: []DirectoryNode{{Parent: -1, SourceDir: sourceDir, BinaryDir: binaryDir}},
	}
}

// TargetByName returns the index of the named target, or -1 if none.
func (m *Model) TargetByName(name string) int {
	for i, t := range m.Targets {
		if t.Name == name {
			return i
		}
	}
	return -1
}
