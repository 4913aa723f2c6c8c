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
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/creachadair/ini"

	"github.com/kythe/cmakeforge/cmakelib/ast"
	"github.com/kythe/cmakeforge/cmakelib/events"
	"github.com/kythe/cmakeforge/cmakelib/policy"
)

func (e *Evaluator) reg(name string, level Level, usage string, fn handlerFunc) {
	if e.builtins == nil {
		e.builtins = make(map[string]builtin)
	}
	e.builtins[name] = builtin{cap: Capability{Name: name, Level: level, Usage: usage}, fn: fn}
}

// registerBuiltins installs the full Command Capability table. Commands
// whose long tail of keyword combinations isn't handled are registered
// Partial; commands recognized only so dispatch doesn't warn about them
// are Missing.
func (e *Evaluator) registerBuiltins() {
	e.registerCoreBuiltins()
	e.registerTargetBuiltins()
	e.registerTextBuiltins()
}

func (e *Evaluator) registerCoreBuiltins() {
	e.reg("PROJECT", Full, "project(<name> [VERSION <v>] [DESCRIPTION <d>] [HOMEPAGE_URL <u>] [LANGUAGES <lang>...])", cmdProject)
	e.reg("SET", Full, "set(<var> <value>... [PARENT_SCOPE] | CACHE <type> <doc> [FORCE])", cmdSet)
	e.reg("UNSET", Full, "unset(<var> [CACHE|PARENT_SCOPE])", cmdUnset)
	e.reg("OPTION", Full, "option(<var> <help> [value])", cmdOption)
	e.reg("CMAKE_MINIMUM_REQUIRED", Full, "cmake_minimum_required(VERSION <v>)", cmdCMakeMinimumRequired)
	e.reg("CMAKE_POLICY", Partial, "cmake_policy(VERSION <v> | SET <CMP####> <OLD|NEW> | PUSH | POP)", cmdCMakePolicy)
	e.reg("MESSAGE", Full, "message([STATUS|WARNING|AUTHOR_WARNING|SEND_ERROR|FATAL_ERROR|CHECK_START|CHECK_PASS|CHECK_FAIL] <msg>...)", cmdMessage)
	e.reg("MATH", Partial, "math(EXPR <out> \"<expr>\" [OUTPUT_FORMAT <fmt>])", cmdMath)
	e.reg("INCLUDE", Partial, "include(<file-or-module> [OPTIONAL] [RESULT_VARIABLE <var>])", cmdInclude)
	e.reg("ADD_SUBDIRECTORY", Full, "add_subdirectory(<dir> [<binary-dir>] [EXCLUDE_FROM_ALL])", cmdAddSubdirectory)
	e.reg("EXECUTE_PROCESS", Partial, "execute_process(COMMAND <cmd>... [WORKING_DIRECTORY <dir>] [OUTPUT_VARIABLE <var>] [RESULT_VARIABLE <var>])", cmdExecuteProcess)
	e.reg("EXEC_PROGRAM", Partial, "exec_program(<exe> [<dir>] [ARGS <args>] [OUTPUT_VARIABLE <var>] [RETURN_VALUE <var>])", cmdExecProgram)
	e.reg("MARK_AS_ADVANCED", Missing, "mark_as_advanced(<var>...)", cmdNoop)
	e.reg("INCLUDE_GUARD", Missing, "include_guard([DIRECTORY|GLOBAL])", cmdNoop)
	e.reg("SEPARATE_ARGUMENTS", Partial, "separate_arguments(<var> [<mode>] [<args>])", cmdSeparateArguments)
}

func cmdNoop(e *Evaluator, cmd *ast.CommandInvocation, args []string) error { return nil }

func cmdProject(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("project() requires a name")
	}
	ev := events.Event{Kind: events.ProjectDeclare, Origin: e.originOf(cmd.Pos), Name: args[0]}
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "VERSION":
			i++
			if i < len(args) {
				ev.Version = args[i]
			}
		case "DESCRIPTION":
			i++
			if i < len(args) {
				ev.Description = args[i]
			}
		case "HOMEPAGE_URL":
			i++
			if i < len(args) {
				ev.HomepageURL = args[i]
			}
		case "LANGUAGES":
			for i+1 < len(args) && !isProjectKeyword(args[i+1]) {
				i++
				ev.Languages = append(ev.Languages, args[i])
			}
		}
	}
	e.emit(ev)
	e.cur.Set("PROJECT_NAME", ev.Name)
	if ev.Version != "" && e.policies.Get("CMP0048") == policy.New {
		e.cur.Set("PROJECT_VERSION", ev.Version)
	}
	return nil
}

func isProjectKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "VERSION", "DESCRIPTION", "HOMEPAGE_URL", "LANGUAGES":
		return true
	default:
		return false
	}
}

func cmdSet(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("set() requires a variable name")
	}
	name := args[0]
	rest := args[1:]

	cacheIdx := -1
	for i, a := range rest {
		if strings.EqualFold(a, "CACHE") {
			cacheIdx = i
			break
		}
	}
	if cacheIdx >= 0 {
		value := strings.Join(rest[:cacheIdx], ";")
		tail := rest[cacheIdx+1:]
		if len(tail) < 2 {
			return fmt.Errorf("set(CACHE ...) requires a type and a docstring")
		}
		typ, doc := tail[0], tail[1]
		force := len(tail) > 2 && strings.EqualFold(tail[2], "FORCE")
		e.emit(events.Event{Kind: events.SetCacheEntry, Origin: e.originOf(cmd.Pos),
			Key: name, Value: value, CacheType: typ, CacheDoc: doc, CacheForce: force})
		if e.policies.Get("CMP0126") == policy.New {
			if force || !e.cur.Defined(name) {
				e.vars.SetCache(name, value, typ, doc, force)
			}
		} else {
			e.vars.Unset(name)
			e.vars.SetCache(name, value, typ, doc, force)
		}
		return nil
	}

	parentScope := len(rest) > 0 && strings.EqualFold(rest[len(rest)-1], "PARENT_SCOPE")
	if parentScope {
		rest = rest[:len(rest)-1]
	}
	value := strings.Join(rest, ";")
	if parentScope {
		e.vars.SetParent(name, value)
		return nil
	}
	e.cur.Set(name, value)
	return nil
}

func cmdUnset(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("unset() requires a variable name")
	}
	name := args[0]
	if len(args) > 1 && strings.EqualFold(args[1], "CACHE") {
		e.vars.UnsetCache(name)
		return nil
	}
	e.cur.Unset(name)
	return nil
}

func cmdOption(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("option() requires a variable and a help string")
	}
	name, doc := args[0], args[1]
	value := "OFF"
	if len(args) > 2 {
		value = args[2]
	}
	if e.vars.Defined(name) {
		return nil
	}
	e.emit(events.Event{Kind: events.SetCacheEntry, Origin: e.originOf(cmd.Pos),
		Key: name, Value: value, CacheType: "BOOL", CacheDoc: doc})
	e.vars.SetCache(name, value, "BOOL", doc, false)
	return nil
}

func cmdCMakeMinimumRequired(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	for i := 0; i < len(args); i++ {
		if strings.EqualFold(args[i], "VERSION") && i+1 < len(args) {
			v, err := policy.ParseVersion(strings.SplitN(args[i+1], "...", 2)[0])
			if err != nil {
				return err
			}
			e.policies.SetBaseline(v)
			e.cur.Set("CMAKE_MINIMUM_REQUIRED_VERSION", v.String())
		}
	}
	return nil
}

func cmdCMakePolicy(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cmake_policy() requires an argument")
	}
	switch strings.ToUpper(args[0]) {
	case "VERSION":
		if len(args) < 2 {
			return fmt.Errorf("cmake_policy(VERSION) requires a version")
		}
		v, err := policy.ParseVersion(strings.SplitN(args[1], "...", 2)[0])
		if err != nil {
			return err
		}
		e.policies.SetBaseline(v)
	case "SET":
		if len(args) < 3 {
			return fmt.Errorf("cmake_policy(SET) requires a policy id and OLD/NEW")
		}
		st, err := policy.ParseState(args[2])
		if err != nil {
			return err
		}
		e.policies.Set(policy.ID(strings.ToUpper(args[1])), st)
	case "PUSH":
		e.policies.Push()
	case "POP":
		e.policies.Pop()
	case "GET":
		if len(args) < 3 {
			return fmt.Errorf("cmake_policy(GET) requires a policy id and an output variable")
		}
		e.cur.Set(args[2], e.policies.Get(policy.ID(strings.ToUpper(args[1]))).String())
	default:
		return fmt.Errorf("unrecognized cmake_policy() form %q", args[0])
	}
	return nil
}

func cmdMessage(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return nil
	}
	mode := strings.ToUpper(args[0])
	switch mode {
	case "STATUS", "WARNING", "AUTHOR_WARNING", "SEND_ERROR", "FATAL_ERROR", "DEPRECATION", "NOTICE", "VERBOSE", "DEBUG", "TRACE",
		"CHECK_START", "CHECK_PASS", "CHECK_FAIL":
		args = args[1:]
	default:
		mode = "NOTICE"
	}
	switch mode {
	case "CHECK_START":
		e.checkStack = append(e.checkStack, strings.Join(args, ""))
		return nil
	case "CHECK_PASS", "CHECK_FAIL":
		if len(e.checkStack) > 0 {
			e.checkStack = e.checkStack[:len(e.checkStack)-1]
		}
		return nil
	}
	text := strings.Join(args, "")
	switch mode {
	case "FATAL_ERROR":
		e.reportFatal(cmd.Pos, "message", text)
	case "SEND_ERROR":
		e.report(cmd.Pos, "message", text)
	case "WARNING", "AUTHOR_WARNING", "DEPRECATION":
		e.sink.Warning("evaluator", cmd.Pos.Filename, cmd.Pos.Line, cmd.Pos.Column, "message", text, "")
	}
	return nil
}

func cmdMath(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) < 3 || !strings.EqualFold(args[0], "EXPR") {
		return fmt.Errorf("math() only supports the EXPR form")
	}
	out := args[1]
	result, err := evalMathExpr(args[2])
	if err != nil {
		return fmt.Errorf("math(EXPR): %v", err)
	}
	e.cur.Set(out, strconv.FormatInt(result, 10))
	return nil
}

func cmdInclude(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("include() requires a file or module name")
	}
	name := args[0]
	optional := false
	resultVar := ""
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "OPTIONAL":
			optional = true
		case "RESULT_VARIABLE":
			i++
			if i < len(args) {
				resultVar = args[i]
			}
		}
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.sourceDir, name+".cmake")
	}
	if e.includeStack[path] {
		return fmt.Errorf("include() cycle detected on %s", path)
	}
	contents, found, err := e.io.ReadFile(path)
	if (err != nil || !found) && !strings.Contains(name, "/") && !strings.HasSuffix(name, ".cmake") {
		if vars, ok := builtinModuleStubs()[strings.ToUpper(name)]; ok {
			for k, v := range vars {
				e.cur.Set(k, v)
			}
			if resultVar != "" {
				e.cur.Set(resultVar, "(builtin module)")
			}
			return nil
		}
	}
	if err != nil || !found {
		if resultVar != "" {
			e.cur.Set(resultVar, "NOTFOUND")
		}
		if optional {
			return nil
		}
		return fmt.Errorf("could not find include file %s", name)
	}
	e.includeStack[path] = true
	defer delete(e.includeStack, path)
	file, perr := e.parser.ParseBytes(contents)
	if perr != nil {
		return fmt.Errorf("include(%s): %v", name, perr)
	}
	if resultVar != "" {
		e.cur.Set(resultVar, path)
	}
	return e.Run(file)
}

// builtinModuleStubTable is an ini-formatted table of the handful of
// well-known CMake modules whose include(<Name>) effect is just a set of
// variables, keyed by module name; anything not listed here falls
// through to the ordinary file-not-found handling. Parsed with the same
// ini.Parse/ini.Handler shape the teacher used for LLVMBuild.txt.
const builtinModuleStubTable = `
[GNUInstallDirs]
CMAKE_INSTALL_BINDIR = bin
CMAKE_INSTALL_LIBDIR = lib
CMAKE_INSTALL_INCLUDEDIR = include
CMAKE_INSTALL_DATADIR = share

[CheckIncludeFile]
CMAKE_REQUIRED_INCLUDES =

[CheckFunctionExists]
CMAKE_REQUIRED_LIBRARIES =

[CMakePackageConfigHelpers]
CMAKE_CONFIG_INSTALL_DIR = lib/cmake
`

var (
	moduleStubsOnce  sync.Once
	moduleStubsTable map[string]map[string]string
)

func builtinModuleStubs() map[string]map[string]string {
	moduleStubsOnce.Do(func() {
		table := make(map[string]map[string]string)
		var section string
		ini.Parse(bytes.NewReader([]byte(builtinModuleStubTable)), ini.Handler{
			Section: func(_ ini.Location, name string) error {
				section = strings.ToUpper(name)
				table[section] = make(map[string]string)
				return nil
			},
			KeyValue: func(_ ini.Location, key string, values []string) error {
				table[section][strings.ToUpper(key)] = strings.Join(values, ";")
				return nil
			},
		})
		moduleStubsTable = table
	})
	return moduleStubsTable
}

func cmdAddSubdirectory(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("add_subdirectory() requires a directory")
	}
	subSource := filepath.Join(e.sourceDir, args[0])
	subBinary := subSource
	if len(args) > 1 && !strings.EqualFold(args[1], "EXCLUDE_FROM_ALL") {
		subBinary = filepath.Join(e.binaryDir, args[1])
	} else {
		subBinary = filepath.Join(e.binaryDir, args[0])
	}

	e.emit(events.Event{Kind: events.DirPush, Origin: e.originOf(cmd.Pos), SourceDir: subSource, BinaryDir: subBinary})
	e.vars.Push()
	e.cur.Set("CMAKE_CURRENT_SOURCE_DIR", subSource)
	e.cur.Set("CMAKE_CURRENT_BINARY_DIR", subBinary)

	listFile := filepath.Join(subSource, "CMakeLists.txt")
	contents, found, err := e.io.ReadFile(listFile)
	if err != nil || !found {
		e.reportFatal(cmd.Pos, "add_subdirectory", "missing CMakeLists.txt in "+args[0])
	} else {
		file, perr := e.parser.ParseBytes(contents)
		if perr != nil {
			e.reportFatal(cmd.Pos, "add_subdirectory", perr.Error())
		} else if err := e.Run(file); err != nil {
			e.vars.Pop()
			e.emit(events.Event{Kind: events.DirPop, Origin: e.originOf(cmd.Pos)})
			return err
		}
	}

	e.vars.Pop()
	e.emit(events.Event{Kind: events.DirPop, Origin: e.originOf(cmd.Pos)})
	return nil
}

func cmdExecuteProcess(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	var argv []string
	cwd := e.cur.Get("CMAKE_CURRENT_SOURCE_DIR")
	var outputVar, resultVar, errorVar string
	inCommand := false
	for i := 0; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "COMMAND":
			inCommand = true
			continue
		case "WORKING_DIRECTORY":
			inCommand = false
			i++
			if i < len(args) {
				cwd = args[i]
			}
			continue
		case "OUTPUT_VARIABLE":
			inCommand = false
			i++
			if i < len(args) {
				outputVar = args[i]
			}
			continue
		case "ERROR_VARIABLE":
			inCommand = false
			i++
			if i < len(args) {
				errorVar = args[i]
			}
			continue
		case "RESULT_VARIABLE":
			inCommand = false
			i++
			if i < len(args) {
				resultVar = args[i]
			}
			continue
		case "TIMEOUT", "INPUT_FILE", "OUTPUT_FILE", "ERROR_FILE", "ENCODING":
			inCommand = false
			i++
			continue
		case "OUTPUT_QUIET", "ERROR_QUIET", "OUTPUT_STRIP_TRAILING_WHITESPACE", "ERROR_STRIP_TRAILING_WHITESPACE", "COMMAND_ECHO":
			inCommand = false
			continue
		}
		if inCommand {
			argv = append(argv, args[i])
		}
	}
	if len(argv) == 0 {
		return fmt.Errorf("execute_process() requires at least one COMMAND")
	}
	stdout, stderr, code, err := e.proc.Run(argv, cwd, nil, 0)
	if err != nil {
		e.reportFatal(cmd.Pos, "execute_process", err.Error())
	}
	if outputVar != "" {
		e.cur.Set(outputVar, strings.TrimRight(stdout, "\n"))
	}
	if errorVar != "" {
		e.cur.Set(errorVar, strings.TrimRight(stderr, "\n"))
	}
	if resultVar != "" {
		e.cur.Set(resultVar, strconv.Itoa(code))
	}
	return nil
}

func cmdExecProgram(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("exec_program() requires an executable")
	}
	argv := []string{args[0]}
	cwd := e.cur.Get("CMAKE_CURRENT_SOURCE_DIR")
	var outputVar, returnVar string
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "ARGS":
			i++
			for i < len(args) && !isExecProgramKeyword(args[i]) {
				argv = append(argv, args[i])
				i++
			}
			i--
		case "OUTPUT_VARIABLE":
			i++
			if i < len(args) {
				outputVar = args[i]
			}
		case "RETURN_VALUE":
			i++
			if i < len(args) {
				returnVar = args[i]
			}
		default:
			cwd = args[i]
		}
	}
	stdout, _, code, err := e.proc.Run(argv, cwd, nil, 0)
	if err != nil {
		e.reportFatal(cmd.Pos, "exec_program", err.Error())
	}
	if outputVar != "" {
		e.cur.Set(outputVar, strings.TrimRight(stdout, "\n"))
	}
	if returnVar != "" {
		e.cur.Set(returnVar, strconv.Itoa(code))
	}
	return nil
}

func isExecProgramKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "OUTPUT_VARIABLE", "RETURN_VALUE":
		return true
	default:
		return false
	}
}

func cmdSeparateArguments(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("separate_arguments() requires a variable")
	}
	name := args[0]
	value := e.cur.Get(name)
	fields := strings.Fields(value)
	e.cur.Set(name, strings.Join(fields, ";"))
	return nil
}

// evalMathExpr evaluates a small C-like integer expression: +, -, *, /,
// %, parentheses, unary minus. CMake's math() additionally supports
// bitwise operators and hex output, not modeled here (Partial capability).
func evalMathExpr(expr string) (int64, error) {
	toks, err := mathTokenize(expr)
	if err != nil {
		return 0, err
	}
	p := &mathParser{toks: toks}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.toks) {
		return 0, fmt.Errorf("unexpected token %q", p.toks[p.pos])
	}
	return v, nil
}

func mathTokenize(s string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.ContainsRune("+-*/%()", rune(c)):
			toks = append(toks, string(c))
			i++
		case c >= '0' && c <= '9':
			j := i
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			return nil, fmt.Errorf("invalid character %q in expression", c)
		}
	}
	return toks, nil
}

type mathParser struct {
	toks []string
	pos  int
}

func (p *mathParser) expr() (int64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.toks) && (p.toks[p.pos] == "+" || p.toks[p.pos] == "-") {
		op := p.toks[p.pos]
		p.pos++
		rhs, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v, nil
}

func (p *mathParser) term() (int64, error) {
	v, err := p.factor()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.toks) && (p.toks[p.pos] == "*" || p.toks[p.pos] == "/" || p.toks[p.pos] == "%") {
		op := p.toks[p.pos]
		p.pos++
		rhs, err := p.factor()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			v *= rhs
		case "/":
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v /= rhs
		case "%":
			if rhs == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			v %= rhs
		}
	}
	return v, nil
}

func (p *mathParser) factor() (int64, error) {
	if p.pos >= len(p.toks) {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	if p.toks[p.pos] == "-" {
		p.pos++
		v, err := p.factor()
		return -v, err
	}
	if p.toks[p.pos] == "(" {
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.pos >= len(p.toks) || p.toks[p.pos] != ")" {
			return 0, fmt.Errorf("missing )")
		}
		p.pos++
		return v, nil
	}
	n, err := strconv.ParseInt(p.toks[p.pos], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.toks[p.pos])
	}
	p.pos++
	return n, nil
}
