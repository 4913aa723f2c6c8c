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
	"strings"

	"github.com/pkg/errors"

	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
	"github.com/kythe/cmakeforge/cmakelib/events"
)

// Builder applies an event stream, left to right, to a mutable Model.
type Builder struct {
	model *Model
	sink  *diagnostics.Sink

	dirStack []int // directory-node indices, root always at [0]
	fatal    bool
}

// NewBuilder returns a Builder over a freshly-created root directory node.
func NewBuilder(sourceDir, binaryDir string, sink *diagnostics.Sink) *Builder {
	return &Builder{
		model:    NewModel(sourceDir, binaryDir),
		sink:     sink,
		dirStack: []int{0},
	}
}

func (b *Builder) currentDir() int {
	return b.dirStack[len(b.dirStack)-1]
}

func (b *Builder) fail(origin events.Origin, cause string) {
	b.sink.Error("builder", origin.File, origin.Line, origin.Col, "", cause, "")
}

func (b *Builder) failFatal(origin events.Origin, cause string) {
	b.sink.Fatal("builder", origin.File, origin.Line, origin.Col, "", cause, "")
	b.fatal = true
}

// Apply consumes every event in s against the model, in stream order.
func (b *Builder) Apply(s *events.Stream) error {
	c := s.NewCursor()
	for {
		ev, ok := c.Next()
		if !ok {
			return nil
		}
		if b.fatal {
			return errors.New("builder: aborting after a fatal event")
		}
		b.applyOne(ev)
	}
}

func (b *Builder) applyOne(ev events.Event) {
	switch ev.Kind {
	case events.Diagnostic:
		b.sink.Log(diagnostics.Record{
			Severity:  diagnostics.Severity(ev.Severity),
			Component: ev.Component,
			File:      ev.Origin.File,
			Line:      ev.Origin.Line,
			Col:       ev.Origin.Col,
			Command:   ev.Command,
			Cause:     ev.Cause,
			Hint:      ev.Hint,
		})

	case events.ProjectDeclare:
		b.model.Project.Name = ev.Name
		b.model.Project.Description = ev.Description
		b.model.Project.HomepageURL = ev.HomepageURL
		b.model.Project.Version = ev.Version
		b.model.Project.VersionMajor, b.model.Project.VersionMinor,
			b.model.Project.VersionPatch, b.model.Project.VersionTweak = splitVersion(ev.Version)
		b.model.Project.Languages = append([]string(nil), ev.Languages...)

	case events.VarSet:
		b.setEnvVariable(ev.Key, ev.Value)

	case events.SetCacheEntry:
		b.setCacheVariable(ev)

	case events.TargetDeclare:
		b.declareTarget(ev)

	case events.TargetAddSource:
		b.addTargetSources(ev)

	case events.TargetPropSet:
		b.setTargetProperty(ev)

	case events.TargetIncludeDirectories:
		b.appendVisibilityProp(ev, propIncludeDirectories)
	case events.TargetCompileDefinitions:
		b.appendVisibilityProp(ev, propCompileDefinitions)
	case events.TargetCompileOptions:
		b.appendVisibilityProp(ev, propCompileOptions)
	case events.TargetLinkOptions:
		b.appendVisibilityProp(ev, propLinkOptions)
	case events.TargetLinkDirectories:
		b.appendVisibilityProp(ev, propLinkDirectories)

	case events.TargetLinkLibraries:
		b.addLinkLibraries(ev)

	case events.CustomCommandTarget:
		b.addTargetCustomCommand(ev)
	case events.CustomCommandOutput:
		b.addOutputCustomCommand(ev)

	case events.DirPush:
		b.pushDirectory(ev)
	case events.DirPop:
		b.popDirectory()
	case events.DirectoryIncludeDirectories:
		dir := &b.model.Directories[b.currentDir()]
		dir.IncludeDirectories = append(dir.IncludeDirectories, ev.Values...)
	case events.DirectoryLinkDirectories:
		dir := &b.model.Directories[b.currentDir()]
		dir.LinkDirectories = append(dir.LinkDirectories, ev.Values...)

	case events.GlobalCompileDefinitions:
		b.model.GlobalCompileDefinitions = append(b.model.GlobalCompileDefinitions, ev.Values...)
	case events.GlobalCompileOptions:
		b.model.GlobalCompileOptions = append(b.model.GlobalCompileOptions, ev.Values...)
	case events.GlobalLinkOptions:
		b.model.GlobalLinkOptions = append(b.model.GlobalLinkOptions, ev.Values...)
	case events.GlobalLinkLibraries:
		b.model.GlobalLinkLibraries = append(b.model.GlobalLinkLibraries, ev.Values...)

	case events.TestingEnable:
		b.model.TestingEnabled = true

	case events.TestAdd:
		b.model.TestingEnabled = true
		b.model.Tests = append(b.model.Tests, Test{
			Name:        ev.Name,
			Command:     append([]string(nil), ev.CommandLine...),
			WorkingDir:  ev.WorkingDir,
			ExpandLists: ev.ExpandLists,
		})

	case events.InstallAddRule:
		if ev.Destination == "" {
			b.sink.Warning("builder", ev.Origin.File, ev.Origin.Line, ev.Origin.Col, "", "install rule missing DESTINATION", "")
		}
		b.model.InstallEnabled = true
		b.model.InstallRules = append(b.model.InstallRules, InstallRule{
			Kind:        installKindFromCommand(ev.Command),
			Items:       append([]string(nil), ev.Values...),
			Destination: ev.Destination,
			Export:      ev.Name,
		})

	case events.CPackInstallType:
		b.model.CPackInstallTypes = append(b.model.CPackInstallTypes, CPackInstallType{Name: ev.Name, DisplayName: ev.Description})
	case events.CPackComponentGroup:
		b.model.CPackComponentGroups = append(b.model.CPackComponentGroups, CPackComponentGroup{Name: ev.Name, DisplayName: ev.Description, ParentGroup: ev.Key})
	case events.CPackComponent:
		b.model.CPackComponents = append(b.model.CPackComponents, CPackComponent{
			Name:         ev.Name,
			DisplayName:  ev.Description,
			Group:        ev.Key,
			Dependencies: append([]string(nil), ev.Dependencies...),
			InstallTypes: append([]string(nil), ev.InstallTypes...),
		})

	case events.FindPackage:
		b.model.FoundPackages = append(b.model.FoundPackages, FoundPackage{
			Name:        ev.Name,
			Version:     ev.Version,
			IncludeDirs: append([]string(nil), ev.IncludeDirs...),
			Libraries:   append([]string(nil), ev.Libraries...),
			Definitions: append([]string(nil), ev.Definitions...),
			Properties:  copyStringMap(ev.Properties),
			Found:       true,
		})

	default:
		b.fail(ev.Origin, "unrecognized event kind in builder")
	}
}

func splitVersion(v string) (major, minor, patch, tweak string) {
	parts := strings.SplitN(v, ".", 4)
	get := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return get(0), get(1), get(2), get(3)
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (b *Builder) setEnvVariable(key, value string) {
	for i, e := range b.model.EnvVariables {
		if e.Name == key {
			b.model.EnvVariables[i].Value = value
			return
		}
	}
	b.model.EnvVariables = append(b.model.EnvVariables, EnvVariable{Name: key, Value: value})
}

func (b *Builder) setCacheVariable(ev events.Event) {
	typ := ev.CacheType
	if typ == "" {
		typ = "STRING"
	}
	for i, c := range b.model.CacheVariables {
		if c.Name == ev.Key {
			b.model.CacheVariables[i].Value = ev.Value
			if ev.CacheForce {
				b.model.CacheVariables[i].Type = typ
				b.model.CacheVariables[i].Doc = ev.CacheDoc
			}
			return
		}
	}
	b.model.CacheVariables = append(b.model.CacheVariables, CacheVariable{
		Name: ev.Key, Value: ev.Value, Type: typ, Doc: ev.CacheDoc,
	})
}

func (b *Builder) declareTarget(ev events.Event) {
	if b.model.TargetByName(ev.Name) >= 0 {
		b.failFatal(ev.Origin, "duplicate target name "+ev.Name)
		return
	}
	tt, _ := parseTargetType(ev.TargetType)
	b.model.Targets = append(b.model.Targets, Target{
		Name:       ev.Name,
		Type:       tt,
		Directory:  b.currentDir(),
		Properties: map[string]string{},
		Imported:   tt == ImportedTarget,
		Alias:      tt == AliasTarget,
		AliasOf:    ev.Value,
	})
}

func parseTargetType(s string) (TargetType, bool) {
	switch strings.ToUpper(s) {
	case "EXECUTABLE":
		return Executable, true
	case "STATIC_LIBRARY", "STATIC":
		return StaticLibrary, true
	case "SHARED_LIBRARY", "SHARED":
		return SharedLibrary, true
	case "MODULE_LIBRARY", "MODULE":
		return ModuleLibrary, true
	case "OBJECT_LIBRARY", "OBJECT":
		return ObjectLibrary, true
	case "INTERFACE_LIBRARY", "INTERFACE":
		return InterfaceLibrary, true
	case "UTILITY":
		return Utility, true
	case "IMPORTED":
		return ImportedTarget, true
	case "ALIAS":
		return AliasTarget, true
	default:
		return Executable, false
	}
}

func (b *Builder) addTargetSources(ev events.Event) {
	i := b.model.TargetByName(ev.Name)
	if i < 0 {
		b.fail(ev.Origin, "target_sources on undeclared target "+ev.Name)
		return
	}
	if b.model.Targets[i].Type == InterfaceLibrary {
		b.fail(ev.Origin, "cannot add sources to INTERFACE library "+ev.Name)
		return
	}
	b.model.Targets[i].Sources = append(b.model.Targets[i].Sources, ev.Values...)
}

func (b *Builder) setTargetProperty(ev events.Event) {
	i := b.model.TargetByName(ev.Name)
	if i < 0 {
		b.fail(ev.Origin, "set_target_properties on undeclared target "+ev.Name)
		return
	}
	if b.model.Targets[i].Alias {
		b.fail(ev.Origin, "cannot set properties on ALIAS target "+ev.Name)
		return
	}
	key := strings.ToUpper(ev.Key)
	existing := b.model.Targets[i].Properties[key]
	switch ev.Action {
	case events.PropAppendList:
		if existing == "" {
			b.model.Targets[i].Properties[key] = ev.Value
		} else {
			b.model.Targets[i].Properties[key] = existing + ";" + ev.Value
		}
	case events.PropAppendString:
		b.model.Targets[i].Properties[key] = existing + ev.Value
	default:
		b.model.Targets[i].Properties[key] = ev.Value
	}
	applyOutputShapeProperty(&b.model.Targets[i], key)
}

// applyOutputShapeProperty mirrors a handful of well-known property keys
// into Target's dedicated output-shape fields, so the freezer doesn't have
// to re-parse the generic property map for common cases.
func applyOutputShapeProperty(t *Target, key string) {
	v := t.Properties[key]
	switch key {
	case "OUTPUT_NAME":
		t.OutputName = v
	case "RUNTIME_OUTPUT_DIRECTORY":
		t.OutputDirectory = v
		t.RuntimeDir = v
	case "ARCHIVE_OUTPUT_DIRECTORY":
		t.ArchiveDir = v
	case "PREFIX":
		t.Prefix = v
	case "SUFFIX":
		t.Suffix = v
	case "WIN32_EXECUTABLE":
		t.Win32Executable = truthyProp(v)
	case "MACOSX_BUNDLE":
		t.MacOSXBundle = truthyProp(v)
	case "EXCLUDE_FROM_ALL":
		t.ExcludeFromAll = truthyProp(v)
	}
}

func truthyProp(s string) bool {
	switch strings.ToUpper(s) {
	case "1", "ON", "YES", "TRUE", "Y":
		return true
	default:
		return false
	}
}

type visibilityProp int

const (
	propIncludeDirectories visibilityProp = iota
	propCompileDefinitions
	propCompileOptions
	propLinkOptions
	propLinkDirectories
)

func toVisibility(v events.Visibility) Visibility {
	switch v {
	case events.Public:
		return Public
	case events.Private:
		return Private
	case events.Interface:
		return Interface
	default:
		return VisibilityUnspecified
	}
}

func (b *Builder) appendVisibilityProp(ev events.Event, prop visibilityProp) {
	i := b.model.TargetByName(ev.Name)
	if i < 0 {
		b.fail(ev.Origin, "property command on undeclared target "+ev.Name)
		return
	}
	t := &b.model.Targets[i]
	vis := toVisibility(ev.Visibility)
	if t.Type == InterfaceLibrary {
		vis = Interface
	}
	entry := VisibilityValue{
		ConditionalValue: ConditionalValue{Condition: ev.Condition},
		Visibility:       vis,
	}
	for _, value := range ev.Values {
		e := entry
		e.Value = value
		switch prop {
		case propIncludeDirectories:
			t.IncludeDirectories = append(t.IncludeDirectories, e)
		case propCompileDefinitions:
			t.CompileDefinitions = append(t.CompileDefinitions, e)
		case propCompileOptions:
			t.CompileOptions = append(t.CompileOptions, e)
		case propLinkOptions:
			t.LinkOptions = append(t.LinkOptions, e)
		case propLinkDirectories:
			t.LinkDirectories = append(t.LinkDirectories, e)
		}
	}
}

// addLinkLibraries implements TARGET_LINK_LIBRARIES: items naming a
// declared target become typed dependencies (build and/or interface by
// visibility); anything else is an opaque library link, warned if it
// looks like it was meant to name a target.
func (b *Builder) addLinkLibraries(ev events.Event) {
	i := b.model.TargetByName(ev.Name)
	if i < 0 {
		b.fail(ev.Origin, "target_link_libraries on undeclared target "+ev.Name)
		return
	}
	t := &b.model.Targets[i]
	vis := toVisibility(ev.Visibility)
	if t.Type == InterfaceLibrary {
		vis = Interface
	}
	for _, item := range ev.Values {
		if j := b.model.TargetByName(item); j >= 0 {
			switch vis {
			case Interface:
				t.InterfaceDeps = append(t.InterfaceDeps, item)
			default:
				t.BuildDeps = append(t.BuildDeps, item)
				if vis != Private {
					t.InterfaceDeps = append(t.InterfaceDeps, item)
				}
			}
			t.LinkLibrariesProp = append(t.LinkLibrariesProp, VisibilityValue{
				ConditionalValue: ConditionalValue{Value: item, Condition: ev.Condition},
				Visibility:       vis,
			})
			continue
		}
		if looksLikeTargetName(item) {
			b.sink.Warning("builder", ev.Origin.File, ev.Origin.Line, ev.Origin.Col, "target_link_libraries",
				"link item "+item+" does not name a declared target or recognizable library path", "")
		}
		t.LinkLibraries = append(t.LinkLibraries, ConditionalValue{Value: item, Condition: ev.Condition})
	}
}

func looksLikeTargetName(s string) bool {
	if strings.ContainsAny(s, "/\\.") {
		return false
	}
	if strings.HasPrefix(s, "-") {
		return false
	}
	return s != ""
}

func (b *Builder) addTargetCustomCommand(ev events.Event) {
	i := b.model.TargetByName(ev.Name)
	if i < 0 {
		b.fail(ev.Origin, "add_custom_command(TARGET) on undeclared target "+ev.Name)
		return
	}
	stage := PostBuild
	if ev.Pre {
		stage = PreBuild
	}
	cmd := CustomCommand{
		Command:          append([]string(nil), ev.CommandLine...),
		Comment:          ev.Hint,
		WorkingDirectory: ev.WorkingDir,
		Stage:            stage,
	}
	if ev.Pre {
		b.model.Targets[i].PreBuildCommands = append(b.model.Targets[i].PreBuildCommands, cmd)
	} else {
		b.model.Targets[i].PostBuildCommands = append(b.model.Targets[i].PostBuildCommands, cmd)
	}
}

func (b *Builder) addOutputCustomCommand(ev events.Event) {
	for i, cmd := range b.model.OutputCustomCommands {
		if len(cmd.Outputs) > 0 && len(ev.Outputs) > 0 && cmd.Outputs[0] == ev.Outputs[0] {
			b.model.OutputCustomCommands[i].Command = append(b.model.OutputCustomCommands[i].Command, ev.CommandLine...)
			return
		}
	}
	b.model.OutputCustomCommands = append(b.model.OutputCustomCommands, CustomCommand{
		Outputs:            append([]string(nil), ev.Outputs...),
		Command:            append([]string(nil), ev.CommandLine...),
		Depends:            append([]string(nil), ev.Dependencies...),
		Comment:            ev.Hint,
		WorkingDirectory:   ev.WorkingDir,
		CommandExpandLists: ev.ExpandLists,
	})
}

func (b *Builder) pushDirectory(ev events.Event) {
	node := DirectoryNode{Parent: b.currentDir(), SourceDir: ev.SourceDir, BinaryDir: ev.BinaryDir}
	b.model.Directories = append(b.model.Directories, node)
	b.dirStack = append(b.dirStack, len(b.model.Directories)-1)
}

func (b *Builder) popDirectory() {
	if len(b.dirStack) == 1 {
		return // never underflows the root
	}
	b.dirStack = b.dirStack[:len(b.dirStack)-1]
}

func installKindFromCommand(cmd string) InstallRuleKind {
	switch strings.ToUpper(cmd) {
	case "FILES":
		return InstallFiles
	case "PROGRAMS":
		return InstallPrograms
	case "DIRECTORY":
		return InstallDirectory
	default:
		return InstallTargets
	}
}

// Finish returns the accumulated mutable model, or nil if a fatal event
// was seen.
func (b *Builder) Finish() *Model {
	if b.fatal {
		return nil
	}
	return b.model
}
