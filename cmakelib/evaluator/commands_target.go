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
	"fmt"
	"strings"

	"github.com/kythe/cmakeforge/cmakelib/ast"
	"github.com/kythe/cmakeforge/cmakelib/events"
)

func (e *Evaluator) registerTargetBuiltins() {
	e.reg("ADD_EXECUTABLE", Full, "add_executable(<name> [WIN32] [MACOSX_BUNDLE] [ALIAS|IMPORTED] <source>...)", cmdAddExecutable)
	e.reg("ADD_LIBRARY", Full, "add_library(<name> [STATIC|SHARED|MODULE|OBJECT|INTERFACE|ALIAS|IMPORTED] <source>...)", cmdAddLibrary)
	e.reg("ADD_CUSTOM_TARGET", Partial, "add_custom_target(<name> [ALL] [COMMAND <cmd>...])", cmdAddCustomTarget)

	e.reg("TARGET_SOURCES", Full, "target_sources(<target> <PUBLIC|PRIVATE|INTERFACE> <source>...)", cmdTargetSources)
	e.reg("TARGET_INCLUDE_DIRECTORIES", Full, "target_include_directories(<target> [BEFORE] [SYSTEM] <PUBLIC|PRIVATE|INTERFACE> <dir>...)", targetVisibilityCmd(events.TargetIncludeDirectories))
	e.reg("TARGET_COMPILE_DEFINITIONS", Full, "target_compile_definitions(<target> <PUBLIC|PRIVATE|INTERFACE> <def>...)", targetVisibilityCmd(events.TargetCompileDefinitions))
	e.reg("TARGET_COMPILE_OPTIONS", Full, "target_compile_options(<target> [BEFORE] <PUBLIC|PRIVATE|INTERFACE> <opt>...)", targetVisibilityCmd(events.TargetCompileOptions))
	e.reg("TARGET_LINK_OPTIONS", Full, "target_link_options(<target> <PUBLIC|PRIVATE|INTERFACE> <opt>...)", targetVisibilityCmd(events.TargetLinkOptions))
	e.reg("TARGET_LINK_DIRECTORIES", Full, "target_link_directories(<target> [BEFORE] <PUBLIC|PRIVATE|INTERFACE> <dir>...)", targetVisibilityCmd(events.TargetLinkDirectories))
	e.reg("TARGET_LINK_LIBRARIES", Full, "target_link_libraries(<target> [<PUBLIC|PRIVATE|INTERFACE>] <item>...)", cmdTargetLinkLibraries)

	e.reg("ADD_COMPILE_DEFINITIONS", Partial, "add_compile_definitions(<def>...)", cmdAddCompileDefinitions)
	e.reg("ADD_COMPILE_OPTIONS", Partial, "add_compile_options(<opt>...)", cmdAddCompileOptions)
	e.reg("ADD_LINK_OPTIONS", Partial, "add_link_options(<opt>...)", cmdAddLinkOptions)
	e.reg("LINK_LIBRARIES", Partial, "link_libraries(<item>...)", cmdLinkLibraries)
	e.reg("LINK_DIRECTORIES", Partial, "link_directories(<dir>...)", cmdLinkDirectories)
	e.reg("INCLUDE_DIRECTORIES", Partial, "include_directories([AFTER|BEFORE] [SYSTEM] <dir>...)", cmdIncludeDirectories)
	e.reg("ADD_DEFINITIONS", Partial, "add_definitions(<def>...)", cmdAddCompileDefinitions)
	e.reg("REMOVE_DEFINITIONS", Missing, "remove_definitions(<def>...)", cmdNoop)

	e.reg("SET_TARGET_PROPERTIES", Full, "set_target_properties(<target>... PROPERTIES <name> <value>...)", cmdSetTargetProperties)
	e.reg("SET_PROPERTY", Partial, "set_property(TARGET <target>... PROPERTY <name> <value>... [APPEND|APPEND_STRING])", cmdSetProperty)
	e.reg("GET_PROPERTY", Partial, "get_property(<out> TARGET <target> PROPERTY <name>)", cmdGetProperty)
	e.reg("GET_TARGET_PROPERTY", Partial, "get_target_property(<out> <target> <name>)", cmdGetTargetProperty)

	e.reg("ADD_CUSTOM_COMMAND", Full, "add_custom_command(TARGET <t> PRE_BUILD|PRE_LINK|POST_BUILD COMMAND <cmd>... | OUTPUT <out>... COMMAND <cmd>...)", cmdAddCustomCommand)

	e.reg("ENABLE_TESTING", Full, "enable_testing()", cmdEnableTesting)
	e.reg("ADD_TEST", Full, "add_test(NAME <name> COMMAND <cmd>... [WORKING_DIRECTORY <dir>] [COMMAND_EXPAND_LISTS])", cmdAddTest)

	e.reg("INSTALL", Partial, "install(TARGETS|FILES|PROGRAMS|DIRECTORY ... DESTINATION <dir>)", cmdInstall)

	e.reg("FIND_PACKAGE", Partial, "find_package(<name> [version] [REQUIRED] [COMPONENTS <c>...] [MODULE|CONFIG])", cmdFindPackage)
	e.reg("FIND_PROGRAM", Partial, "find_program(<out> <name> [PATHS <p>...])", findCmd("program"))
	e.reg("FIND_LIBRARY", Partial, "find_library(<out> <name> [PATHS <p>...])", findCmd("library"))
	e.reg("FIND_FILE", Partial, "find_file(<out> <name> [PATHS <p>...])", findCmd("file"))
	e.reg("FIND_PATH", Partial, "find_path(<out> <name> [PATHS <p>...])", findCmd("path"))

	e.reg("CPACK_ADD_INSTALL_TYPE", Full, "cpack_add_install_type(<name> [DISPLAY_NAME <d>])", cmdCPackAddInstallType)
	e.reg("CPACK_ADD_COMPONENT_GROUP", Full, "cpack_add_component_group(<name> [DISPLAY_NAME <d>] [PARENT_GROUP <p>])", cmdCPackAddComponentGroup)
	e.reg("CPACK_ADD_COMPONENT", Full, "cpack_add_component(<name> [DISPLAY_NAME <d>] [GROUP <g>] [DEPENDS <d>...] [INSTALL_TYPES <t>...])", cmdCPackAddComponent)

	e.reg("EXPORT", Missing, "export(TARGETS <target>... FILE <file>)", cmdNoop)
}

func targetName(cmd *ast.CommandInvocation, args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%s() requires a target name", strings.ToLower(cmd.Name))
	}
	return args[0], args[1:], nil
}

func parseVisibilityKeyword(s string) (events.Visibility, bool) {
	switch strings.ToUpper(s) {
	case "PUBLIC":
		return events.Public, true
	case "PRIVATE":
		return events.Private, true
	case "INTERFACE":
		return events.Interface, true
	default:
		return events.VisibilityDefault, false
	}
}

func cmdAddExecutable(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	name, rest, err := targetName(cmd, args)
	if err != nil {
		return err
	}
	ev := events.Event{Kind: events.TargetDeclare, Origin: e.originOf(cmd.Pos), Name: name, TargetType: "EXECUTABLE"}
	var sources []string
	for i := 0; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "ALIAS":
			ev.TargetType = "ALIAS"
			if i+1 < len(rest) {
				ev.Value = rest[i+1]
				i++
			}
		case "IMPORTED":
			ev.TargetType = "IMPORTED"
		case "WIN32", "MACOSX_BUNDLE", "EXCLUDE_FROM_ALL":
			// recorded via a follow-up TARGET_PROP_SET below
		default:
			sources = append(sources, rest[i])
		}
	}
	e.emit(ev)
	for _, flag := range rest {
		switch strings.ToUpper(flag) {
		case "WIN32":
			e.emitTargetProp(cmd, name, "WIN32_EXECUTABLE", "TRUE")
		case "MACOSX_BUNDLE":
			e.emitTargetProp(cmd, name, "MACOSX_BUNDLE", "TRUE")
		case "EXCLUDE_FROM_ALL":
			e.emitTargetProp(cmd, name, "EXCLUDE_FROM_ALL", "TRUE")
		}
	}
	if ev.TargetType != "ALIAS" && ev.TargetType != "IMPORTED" && len(sources) > 0 {
		e.emit(events.Event{Kind: events.TargetAddSource, Origin: e.originOf(cmd.Pos), Name: name, Values: sources})
	}
	return nil
}

func cmdAddLibrary(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	name, rest, err := targetName(cmd, args)
	if err != nil {
		return err
	}
	kind := "STATIC_LIBRARY"
	var sources []string
	imported, alias := false, false
	aliasOf := ""
	for i := 0; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "STATIC":
			kind = "STATIC_LIBRARY"
		case "SHARED":
			kind = "SHARED_LIBRARY"
		case "MODULE":
			kind = "MODULE_LIBRARY"
		case "OBJECT":
			kind = "OBJECT_LIBRARY"
		case "INTERFACE":
			kind = "INTERFACE_LIBRARY"
		case "IMPORTED":
			imported = true
		case "ALIAS":
			alias = true
			if i+1 < len(rest) {
				aliasOf = rest[i+1]
				i++
			}
		case "GLOBAL", "EXCLUDE_FROM_ALL":
			// recorded as a target property, not a declare-time flag
		default:
			sources = append(sources, rest[i])
		}
	}
	ev := events.Event{Kind: events.TargetDeclare, Origin: e.originOf(cmd.Pos), Name: name, TargetType: kind}
	if alias {
		ev.TargetType = "ALIAS"
		ev.Value = aliasOf
	} else if imported {
		ev.TargetType = "IMPORTED"
	}
	e.emit(ev)
	for _, flag := range rest {
		switch strings.ToUpper(flag) {
		case "GLOBAL":
			e.emitTargetProp(cmd, name, "IMPORTED_GLOBAL", "TRUE")
		case "EXCLUDE_FROM_ALL":
			e.emitTargetProp(cmd, name, "EXCLUDE_FROM_ALL", "TRUE")
		}
	}
	if !alias && !imported && kind != "INTERFACE_LIBRARY" && len(sources) > 0 {
		e.emit(events.Event{Kind: events.TargetAddSource, Origin: e.originOf(cmd.Pos), Name: name, Values: sources})
	}
	return nil
}

func cmdAddCustomTarget(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	name, rest, err := targetName(cmd, args)
	if err != nil {
		return err
	}
	e.emit(events.Event{Kind: events.TargetDeclare, Origin: e.originOf(cmd.Pos), Name: name, TargetType: "UTILITY"})
	var argv []string
	inCommand := false
	for _, a := range rest {
		if strings.EqualFold(a, "COMMAND") {
			inCommand = true
			continue
		}
		if inCommand {
			argv = append(argv, a)
		}
	}
	if len(argv) > 0 {
		e.emit(events.Event{Kind: events.CustomCommandTarget, Origin: e.originOf(cmd.Pos), Name: name, CommandLine: argv})
	}
	return nil
}

func (e *Evaluator) emitTargetProp(cmd *ast.CommandInvocation, target, key, value string) {
	e.emit(events.Event{Kind: events.TargetPropSet, Origin: e.originOf(cmd.Pos), Name: target, Key: key, Value: value, Action: events.PropSet})
}

func cmdTargetSources(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	name, rest, err := targetName(cmd, args)
	if err != nil {
		return err
	}
	var sources []string
	for _, a := range rest {
		if _, ok := parseVisibilityKeyword(a); ok {
			continue
		}
		sources = append(sources, a)
	}
	e.emit(events.Event{Kind: events.TargetAddSource, Origin: e.originOf(cmd.Pos), Name: name, Values: sources})
	return nil
}

// targetVisibilityCmd builds a handler for the target_include_directories/
// target_compile_definitions/target_compile_options/target_link_options/
// target_link_directories family: each PUBLIC/PRIVATE/INTERFACE keyword
// switches the visibility applied to the values that follow it, emitting
// one event per visibility run.
func targetVisibilityCmd(kind events.Kind) handlerFunc {
	return func(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
		name, rest, err := targetName(cmd, args)
		if err != nil {
			return err
		}
		vis := events.Public
		var values []string
		flush := func() {
			if len(values) > 0 {
				e.emit(events.Event{Kind: kind, Origin: e.originOf(cmd.Pos), Name: name, Visibility: vis, Values: values})
				values = nil
			}
		}
		for _, a := range rest {
			if strings.EqualFold(a, "BEFORE") || strings.EqualFold(a, "SYSTEM") {
				continue
			}
			if v, ok := parseVisibilityKeyword(a); ok {
				flush()
				vis = v
				continue
			}
			values = append(values, a)
		}
		flush()
		return nil
	}
}

// configCondition translates a debug/optimized keyword (CMake's
// generator-agnostic stand-in for a per-configuration link item, used
// outside of $<CONFIG:...> generator expressions) into the condition
// string the Build Model records alongside the gated library.
func configCondition(keyword string) (string, bool) {
	switch strings.ToUpper(keyword) {
	case "DEBUG":
		return "configuration == Debug", true
	case "OPTIMIZED":
		return "configuration ≠ Debug", true
	default:
		return "", false
	}
}

func cmdTargetLinkLibraries(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	name, rest, err := targetName(cmd, args)
	if err != nil {
		return err
	}
	vis := events.VisibilityDefault
	var values []string
	flush := func() {
		if len(values) > 0 {
			e.emit(events.Event{Kind: events.TargetLinkLibraries, Origin: e.originOf(cmd.Pos), Name: name, Visibility: vis, Values: values})
			values = nil
		}
	}
	for i := 0; i < len(rest); i++ {
		a := rest[i]
		if v, ok := parseVisibilityKeyword(a); ok {
			flush()
			vis = v
			continue
		}
		if cond, ok := configCondition(a); ok {
			if i+1 >= len(rest) {
				return fmt.Errorf("target_link_libraries(): %s keyword requires a following library name", strings.ToLower(a))
			}
			flush()
			i++
			e.emit(events.Event{Kind: events.TargetLinkLibraries, Origin: e.originOf(cmd.Pos), Name: name, Visibility: vis, Values: []string{rest[i]}, Condition: cond})
			continue
		}
		values = append(values, a)
	}
	flush()
	return nil
}

func cmdAddCompileDefinitions(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	e.emit(events.Event{Kind: events.GlobalCompileDefinitions, Origin: e.originOf(cmd.Pos), Values: args})
	return nil
}

func cmdAddCompileOptions(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	e.emit(events.Event{Kind: events.GlobalCompileOptions, Origin: e.originOf(cmd.Pos), Values: args})
	return nil
}

func cmdAddLinkOptions(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	e.emit(events.Event{Kind: events.GlobalLinkOptions, Origin: e.originOf(cmd.Pos), Values: args})
	return nil
}

func cmdLinkLibraries(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	e.emit(events.Event{Kind: events.GlobalLinkLibraries, Origin: e.originOf(cmd.Pos), Values: args})
	return nil
}

func cmdLinkDirectories(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	e.emit(events.Event{Kind: events.DirectoryLinkDirectories, Origin: e.originOf(cmd.Pos), Values: args})
	return nil
}

func cmdIncludeDirectories(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	var dirs []string
	for _, a := range args {
		if strings.EqualFold(a, "AFTER") || strings.EqualFold(a, "BEFORE") || strings.EqualFold(a, "SYSTEM") {
			continue
		}
		dirs = append(dirs, a)
	}
	e.emit(events.Event{Kind: events.DirectoryIncludeDirectories, Origin: e.originOf(cmd.Pos), Values: dirs})
	return nil
}

func cmdSetTargetProperties(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	propIdx := -1
	for i, a := range args {
		if strings.EqualFold(a, "PROPERTIES") {
			propIdx = i
			break
		}
	}
	if propIdx < 0 || propIdx == 0 {
		return fmt.Errorf("set_target_properties() requires a target list and PROPERTIES")
	}
	targets := args[:propIdx]
	kv := args[propIdx+1:]
	for i := 0; i+1 < len(kv); i += 2 {
		for _, t := range targets {
			e.emitTargetProp(cmd, t, kv[i], kv[i+1])
		}
	}
	return nil
}

func cmdSetProperty(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 || !strings.EqualFold(args[0], "TARGET") {
		return fmt.Errorf("set_property() only TARGET scope is supported")
	}
	rest := args[1:]
	propIdx := -1
	for i, a := range rest {
		if strings.EqualFold(a, "PROPERTY") {
			propIdx = i
			break
		}
	}
	if propIdx < 0 {
		return fmt.Errorf("set_property(TARGET ...) requires PROPERTY")
	}
	targets := rest[:propIdx]
	tail := rest[propIdx+1:]
	if len(tail) == 0 {
		return fmt.Errorf("set_property(... PROPERTY) requires a property name")
	}
	name := tail[0]
	values := tail[1:]
	action := events.PropSet
	if len(values) > 0 && strings.EqualFold(values[0], "APPEND") {
		action = events.PropAppendList
		values = values[1:]
	} else if len(values) > 0 && strings.EqualFold(values[0], "APPEND_STRING") {
		action = events.PropAppendString
		values = values[1:]
	}
	joined := strings.Join(values, ";")
	for _, t := range targets {
		e.emit(events.Event{Kind: events.TargetPropSet, Origin: e.originOf(cmd.Pos), Name: t, Key: name, Value: joined, Action: action})
	}
	return nil
}

func cmdGetProperty(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) < 4 || !strings.EqualFold(args[1], "TARGET") || !strings.EqualFold(args[3], "PROPERTY") {
		return fmt.Errorf("get_property() only TARGET ... PROPERTY <name> is supported")
	}
	return nil // read-back requires consulting the builder's live model, not modeled here (Partial)
}

func cmdGetTargetProperty(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("get_target_property() requires <out> <target> <name>")
	}
	return nil // same limitation as get_property: this evaluator is write-only onto the event stream
}

func cmdAddCustomCommand(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) > 0 && strings.EqualFold(args[0], "TARGET") {
		return addCustomCommandTarget(e, cmd, args[1:])
	}
	if len(args) > 0 && strings.EqualFold(args[0], "OUTPUT") {
		return addCustomCommandOutput(e, cmd, args[1:])
	}
	return fmt.Errorf("add_custom_command() requires TARGET or OUTPUT")
}

func addCustomCommandTarget(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("add_custom_command(TARGET) requires a target name")
	}
	name := args[0]
	rest := args[1:]
	pre := false
	var argv []string
	var workingDir, comment string
	inCommand := false
	for i := 0; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "PRE_BUILD", "PRE_LINK":
			pre = true
			inCommand = false
		case "POST_BUILD":
			pre = false
			inCommand = false
		case "COMMAND":
			inCommand = true
		case "WORKING_DIRECTORY":
			inCommand = false
			i++
			if i < len(rest) {
				workingDir = rest[i]
			}
		case "COMMENT":
			inCommand = false
			i++
			if i < len(rest) {
				comment = rest[i]
			}
		case "VERBATIM", "COMMAND_EXPAND_LISTS":
			inCommand = false
		default:
			if inCommand {
				argv = append(argv, rest[i])
			}
		}
	}
	e.emit(events.Event{Kind: events.CustomCommandTarget, Origin: e.originOf(cmd.Pos), Name: name,
		CommandLine: argv, WorkingDir: workingDir, Hint: comment, Pre: pre})
	return nil
}

func addCustomCommandOutput(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	var outputs, argv, depends []string
	var workingDir, comment string
	expandLists := false
	mode := "OUTPUT"
	for i := 0; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "COMMAND":
			mode = "COMMAND"
		case "DEPENDS":
			mode = "DEPENDS"
		case "WORKING_DIRECTORY":
			mode = "NONE"
			i++
			if i < len(args) {
				workingDir = args[i]
			}
		case "COMMENT":
			mode = "NONE"
			i++
			if i < len(args) {
				comment = args[i]
			}
		case "COMMAND_EXPAND_LISTS":
			expandLists = true
			mode = "NONE"
		case "VERBATIM", "USES_TERMINAL", "DEPFILE", "MAIN_DEPENDENCY", "BYPRODUCTS", "JOB_POOL", "IMPLICIT_DEPENDS":
			mode = "NONE"
		default:
			switch mode {
			case "OUTPUT":
				outputs = append(outputs, args[i])
			case "COMMAND":
				argv = append(argv, args[i])
			case "DEPENDS":
				depends = append(depends, args[i])
			}
		}
	}
	if len(outputs) == 0 {
		return fmt.Errorf("add_custom_command(OUTPUT) requires at least one output")
	}
	e.emit(events.Event{Kind: events.CustomCommandOutput, Origin: e.originOf(cmd.Pos), Outputs: outputs,
		CommandLine: argv, Dependencies: depends, WorkingDir: workingDir, Hint: comment, ExpandLists: expandLists})
	return nil
}

func cmdEnableTesting(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	e.emit(events.Event{Kind: events.TestingEnable, Origin: e.originOf(cmd.Pos)})
	return nil
}

func cmdAddTest(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	var name, workingDir string
	var argv []string
	expandLists := false
	if len(args) > 0 && !strings.EqualFold(args[0], "NAME") {
		// Legacy add_test(<name> <command> <arg>...) form.
		name = args[0]
		argv = args[1:]
	} else {
		mode := ""
		for i := 0; i < len(args); i++ {
			switch strings.ToUpper(args[i]) {
			case "NAME":
				mode = "NAME"
			case "COMMAND":
				mode = "COMMAND"
			case "WORKING_DIRECTORY":
				mode = "NONE"
				i++
				if i < len(args) {
					workingDir = args[i]
				}
			case "COMMAND_EXPAND_LISTS":
				expandLists = true
				mode = "NONE"
			case "CONFIGURATIONS", "PROPERTIES":
				mode = "NONE"
			default:
				switch mode {
				case "NAME":
					name = args[i]
				case "COMMAND":
					argv = append(argv, args[i])
				}
			}
		}
	}
	if name == "" {
		return fmt.Errorf("add_test() requires a name")
	}
	e.emit(events.Event{Kind: events.TestAdd, Origin: e.originOf(cmd.Pos), Name: name,
		CommandLine: argv, WorkingDir: workingDir, ExpandLists: expandLists})
	return nil
}

func cmdInstall(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("install() requires a rule form")
	}
	command := strings.ToUpper(args[0])
	rest := args[1:]
	var items []string
	var destination, exportName string
	mode := "ITEMS"
	for i := 0; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "DESTINATION":
			mode = "NONE"
			i++
			if i < len(rest) {
				destination = rest[i]
			}
		case "EXPORT":
			mode = "NONE"
			i++
			if i < len(rest) {
				exportName = rest[i]
			}
		case "COMPONENT", "PERMISSIONS", "CONFIGURATIONS", "OPTIONAL", "RENAME", "NAMELINK_ONLY", "NAMELINK_SKIP":
			mode = "NONE"
		case "TARGETS", "FILES", "PROGRAMS", "DIRECTORY":
			mode = "ITEMS"
		default:
			if mode == "ITEMS" {
				items = append(items, rest[i])
			}
		}
	}
	e.emit(events.Event{Kind: events.InstallAddRule, Origin: e.originOf(cmd.Pos), Command: command,
		Values: items, Destination: destination, Name: exportName})
	return nil
}

func cmdFindPackage(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("find_package() requires a package name")
	}
	name := args[0]
	required := false
	var components []string
	inComponents := false
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "REQUIRED":
			required = true
			inComponents = false
		case "COMPONENTS", "OPTIONAL_COMPONENTS":
			inComponents = true
		case "MODULE", "CONFIG", "NO_MODULE", "QUIET", "EXACT":
			inComponents = false
		default:
			if inComponents {
				components = append(components, args[i])
			}
		}
	}
	found := e.vars.GetCache(strings.ToUpper(name)+"_DIR") != "" || e.findPackageOnPath(name)
	e.cur.Set(strings.ToUpper(name)+"_FOUND", boolVar(found))
	if !found && required {
		return fmt.Errorf("could not find package %s (REQUIRED)", name)
	}
	if found {
		e.emit(events.Event{Kind: events.FindPackage, Origin: e.originOf(cmd.Pos), Name: name})
	}
	_ = components
	return nil
}

// findPackageOnPath is a best-effort MODULE/CONFIG resolution stand-in: a
// real implementation would search CMAKE_MODULE_PATH for Find<name>.cmake
// and the usual CONFIG search paths for <name>Config.cmake. Neither is
// reachable without a real CMake install tree to search, so this always
// reports not-found unless a prior find_package already cached a _DIR.
func (e *Evaluator) findPackageOnPath(name string) bool {
	return false
}

func boolVar(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// findCmd builds a handler for the find_program/find_library/find_file/
// find_path family: each searches PATHS/HINTS (when given) via the IO
// collaborator and falls through to NOTFOUND, since none of these can
// consult the real system search path without a real filesystem root.
func findCmd(kind string) handlerFunc {
	return func(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
		if len(args) < 2 {
			return fmt.Errorf("find_%s() requires an output variable and a name", kind)
		}
		out, name := args[0], args[1]
		var paths []string
		mode := ""
		for i := 2; i < len(args); i++ {
			switch strings.ToUpper(args[i]) {
			case "PATHS", "HINTS":
				mode = "PATHS"
			case "NAMES", "DOC", "NO_DEFAULT_PATH":
				mode = ""
			default:
				if mode == "PATHS" {
					paths = append(paths, args[i])
				}
			}
		}
		for _, p := range paths {
			candidate := p + "/" + name
			if e.io.FileExists(candidate) {
				e.cur.Set(out, candidate)
				return nil
			}
		}
		e.cur.Set(out, strings.ToUpper(out)+"-NOTFOUND")
		return nil
	}
}

func cmdCPackAddInstallType(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cpack_add_install_type() requires a name")
	}
	name := args[0]
	display := name
	for i := 1; i < len(args); i++ {
		if strings.EqualFold(args[i], "DISPLAY_NAME") && i+1 < len(args) {
			display = args[i+1]
		}
	}
	e.emit(events.Event{Kind: events.CPackInstallType, Origin: e.originOf(cmd.Pos), Name: name, Description: display})
	return nil
}

func cmdCPackAddComponentGroup(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cpack_add_component_group() requires a name")
	}
	name := args[0]
	display, parent := name, ""
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "DISPLAY_NAME":
			if i+1 < len(args) {
				display = args[i+1]
			}
		case "PARENT_GROUP":
			if i+1 < len(args) {
				parent = args[i+1]
			}
		}
	}
	e.emit(events.Event{Kind: events.CPackComponentGroup, Origin: e.originOf(cmd.Pos), Name: name, Description: display, Key: parent})
	return nil
}

func cmdCPackAddComponent(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cpack_add_component() requires a name")
	}
	name := args[0]
	display, group := name, ""
	var deps, types []string
	mode := ""
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "DISPLAY_NAME":
			mode = "NONE"
			if i+1 < len(args) {
				display = args[i+1]
				i++
			}
		case "GROUP":
			mode = "NONE"
			if i+1 < len(args) {
				group = args[i+1]
				i++
			}
		case "DEPENDS":
			mode = "DEPENDS"
		case "INSTALL_TYPES":
			mode = "INSTALL_TYPES"
		default:
			switch mode {
			case "DEPENDS":
				deps = append(deps, args[i])
			case "INSTALL_TYPES":
				types = append(types, args[i])
			}
		}
	}
	e.emit(events.Event{Kind: events.CPackComponent, Origin: e.originOf(cmd.Pos), Name: name, Description: display,
		Key: group, Dependencies: deps, InstallTypes: types})
	return nil
}
