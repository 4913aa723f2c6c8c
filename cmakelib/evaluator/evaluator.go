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

// Package evaluator is the tree-walking interpreter that turns a
// structured CMake program (cmakelib/ast's second-pass Node tree) into an
// events.Stream: it owns the variable scope stack, the cache variable
// store, the environment overlay, the policy stack, the function/macro
// registry, and command dispatch.
package evaluator

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/lexer"

	"github.com/kythe/cmakeforge/cmakelib/ast"
	"github.com/kythe/cmakeforge/cmakelib/bindings"
	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
	"github.com/kythe/cmakeforge/cmakelib/events"
	"github.com/kythe/cmakeforge/cmakelib/logic"
	"github.com/kythe/cmakeforge/cmakelib/policy"
	"github.com/kythe/cmakeforge/workspace"
)

// scope is the subset of bindings.Mapping/bindings.FunctionScope the
// evaluator needs for the currently active variable frame; a function
// call swaps e.cur from the directory scope stack to a fresh
// *bindings.FunctionScope for the duration of the call, and satisfies
// both ast.Bindings and ast.DefinedBindings structurally.
type scope interface {
	Get(key string) string
	GetCache(key string) string
	GetEnv(key string) string
	Defined(key string) bool
	Set(key, value string)
	Unset(key string)
	Values() map[string]string
}

// funcEntry is one registered function()/macro() definition.
type funcEntry struct {
	params []string
	body   []ast.Node
}

// Options configures an Evaluator, mirroring the Configuration table
// (strict_mode, continue_on_fatal_error, compat_profile, and the
// source/binary directory roots every CMAKE_*_DIR variable derives from).
type Options struct {
	StrictMode           bool
	ContinueOnFatalError bool
	CompatProfile        string // "STRICT", "CMAKE_3_X", or "LENIENT"
	SourceDir, BinaryDir string

	// MaxBlockDepth and MaxParenDepth override cmakelib/ast's structuring
	// limits when nonzero; zero means ast.DefaultBlockLimits.
	MaxBlockDepth int
	MaxParenDepth int
}

// Evaluator is a single-threaded tree-walking interpreter over one CMake
// source tree. It is not safe for concurrent use, matching the
// language's own single-threaded, synchronous evaluation model.
type Evaluator struct {
	vars  *bindings.Mapping
	cur   scope
	funcs map[string]*funcEntry
	mac   map[string]*funcEntry
	stack *bindings.FunctionScope // non-nil while inside a function() call body

	policies *policy.Stack

	stream *events.Stream
	sink   *diagnostics.Sink

	io    workspace.IO
	proc  workspace.ProcessRunner
	clock workspace.Clock

	opts Options

	builtins map[string]builtin
	parser   *ast.Parser

	sourceDir, binaryDir string

	includeStack map[string]bool
	checkStack   []string

	fatal bool
}

// New constructs an Evaluator ready to run against opts.SourceDir /
// opts.BinaryDir, with the given external collaborators.
func New(io workspace.IO, proc workspace.ProcessRunner, clock workspace.Clock, sink *diagnostics.Sink, opts Options) *Evaluator {
	if opts.CompatProfile == "" {
		opts.CompatProfile = "STRICT"
	}
	vars := bindings.New()
	e := &Evaluator{
		vars:         vars,
		cur:          vars,
		funcs:        make(map[string]*funcEntry),
		mac:          make(map[string]*funcEntry),
		policies:     policy.New(policy.Version{}),
		stream:       events.NewStream(),
		sink:         sink,
		io:           io,
		proc:         proc,
		clock:        clock,
		opts:         opts,
		sourceDir:    opts.SourceDir,
		binaryDir:    opts.BinaryDir,
		includeStack: make(map[string]bool),
		parser:       ast.NewParser(),
	}
	if opts.CompatProfile == "CMAKE_3_X" {
		e.policies.ApplyCompatProfile("CMAKE_3_X")
	}
	e.registerBuiltins()
	e.seedBuiltinVariables()
	sink.SetStrict(opts.StrictMode)
	return e
}

func (e *Evaluator) seedBuiltinVariables() {
	e.vars.Set("CMAKE_SOURCE_DIR", e.sourceDir)
	e.vars.Set("CMAKE_BINARY_DIR", e.binaryDir)
	e.vars.Set("CMAKE_CURRENT_SOURCE_DIR", e.sourceDir)
	e.vars.Set("CMAKE_CURRENT_BINARY_DIR", e.binaryDir)
}

// Stream returns the event stream accumulated so far.
func (e *Evaluator) Stream() *events.Stream { return e.stream }

// Fatal reports whether a Resource- or Runtime-kind fatal condition has
// stopped evaluation early.
func (e *Evaluator) Fatal() bool { return e.fatal }

// Run structures file (cmakelib/ast's second pass) and evaluates it top
// to bottom, emitting events as it goes.
func (e *Evaluator) Run(file *ast.CMakeFile) error {
	limits := ast.DefaultBlockLimits
	if e.opts.MaxBlockDepth > 0 || e.opts.MaxParenDepth > 0 {
		maxBlock, maxParen := e.opts.MaxBlockDepth, e.opts.MaxParenDepth
		if maxBlock == 0 {
			maxBlock = limits.MaxBlockDepth
		}
		if maxParen == 0 {
			maxParen = limits.MaxParenDepth
		}
		limits = ast.NewBlockLimits(maxBlock, maxParen)
	}
	nodes := ast.Structure(file, limits, e.sink)
	return e.runBlock(nodes)
}

// --- control-flow unwind signals ---
//
// break(), continue() and return() are modeled as sentinel errors that
// unwind runBlock/runNode the same way a Go panic/recover would, but
// without actually using panic: each loop (runForeach/runWhile) and each
// function call (callFunction) is responsible for catching the signal
// kinds it understands and letting everything else keep propagating.

type breakSignal struct{}

func (breakSignal) Error() string { return "break() outside foreach()/while()" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue() outside foreach()/while()" }

// returnSignal unwinds out of a function() call. propagate holds the
// return(PROPAGATE ...) variable values to copy into the caller's scope,
// present only under policy CMP0140 NEW.
type returnSignal struct {
	propagate map[string]string
}

func (returnSignal) Error() string { return "return() outside function()" }

func (e *Evaluator) runBlock(nodes []ast.Node) error {
	for _, n := range nodes {
		if e.fatal {
			return nil
		}
		if err := e.runNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) runNode(n ast.Node) error {
	switch n.Kind {
	case ast.NodeCommand:
		return e.runCommand(n.Command)
	case ast.NodeIf:
		return e.runIf(n.If)
	case ast.NodeForeach:
		return e.runForeach(n.Foreach)
	case ast.NodeWhile:
		return e.runWhile(n.While)
	case ast.NodeFunctionDef:
		e.funcs[strings.ToUpper(n.FunctionDef.Name)] = &funcEntry{params: n.FunctionDef.Params, body: n.FunctionDef.Body}
		return nil
	case ast.NodeMacroDef:
		e.mac[strings.ToUpper(n.MacroDef.Name)] = &funcEntry{params: n.MacroDef.Params, body: n.MacroDef.Body}
		return nil
	default:
		return fmt.Errorf("unrecognized node kind %d", n.Kind)
	}
}

func (e *Evaluator) runIf(n *ast.IfNode) error {
	for _, clause := range n.Clauses {
		ok, err := e.evalCondition(clause.Condition, clause.Pos)
		if err != nil {
			continue
		}
		if ok {
			return e.runBlock(clause.Body)
		}
	}
	return e.runBlock(n.Else)
}

func (e *Evaluator) evalCondition(args ast.ArgumentList, pos lexer.Position) (bool, error) {
	toks := logic.Tokenize(args, e.cur)
	v, err := logic.Eval(toks, e.cur)
	if err != nil {
		e.report(pos, "if", err.Error())
		return false, err
	}
	return v, nil
}

func (e *Evaluator) runForeach(n *ast.ForeachNode) error {
	header := n.Header.Eval(e.cur)
	if len(header) == 0 {
		return nil
	}
	varName := header[0]
	items, err := e.foreachItems(header[1:])
	if err != nil {
		e.report(n.Pos, "foreach", err.Error())
		return nil
	}
	for _, item := range items {
		e.cur.Set(varName, item)
		err := e.runBlock(n.Body)
		switch err.(type) {
		case nil:
			continue
		case breakSignal:
			return nil
		case continueSignal:
			continue
		default:
			return err
		}
	}
	return nil
}

func (e *Evaluator) foreachItems(rest []string) ([]string, error) {
	if len(rest) == 0 {
		return nil, nil
	}
	switch strings.ToUpper(rest[0]) {
	case "RANGE":
		return foreachRange(rest[1:])
	case "IN":
		var items []string
		mode := "ITEMS"
		for _, tok := range rest[1:] {
			switch strings.ToUpper(tok) {
			case "LISTS", "ITEMS":
				mode = strings.ToUpper(tok)
				continue
			}
			if mode == "LISTS" {
				items = append(items, splitCMakeList(e.cur.Get(tok))...)
			} else {
				items = append(items, tok)
			}
		}
		return items, nil
	default:
		return rest, nil
	}
}

// splitCMakeList splits a variable's stored value on unescaped ';' into
// its list items, matching CMake's list-as-string representation.
func splitCMakeList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}

func foreachRange(args []string) ([]string, error) {
	start, stop, step := 0, 0, 1
	var err error
	switch len(args) {
	case 1:
		stop, err = parseForeachInt(args[0])
	case 2:
		if start, err = parseForeachInt(args[0]); err == nil {
			stop, err = parseForeachInt(args[1])
		}
	case 3:
		if start, err = parseForeachInt(args[0]); err == nil {
			if stop, err = parseForeachInt(args[1]); err == nil {
				step, err = parseForeachInt(args[2])
			}
		}
	default:
		return nil, fmt.Errorf("foreach(RANGE ...) takes 1 to 3 arguments")
	}
	if err != nil {
		return nil, err
	}
	if step == 0 {
		return nil, fmt.Errorf("foreach(RANGE ...) step cannot be 0")
	}
	var items []string
	if step > 0 {
		for i := start; i <= stop; i += step {
			items = append(items, fmt.Sprintf("%d", i))
		}
	} else {
		for i := start; i >= stop; i += step {
			items = append(items, fmt.Sprintf("%d", i))
		}
	}
	return items, nil
}

func parseForeachInt(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid foreach(RANGE) bound %q", s)
	}
	return n, nil
}

// maxWhileIterations caps while() so an always-true condition can't hang
// evaluation forever.
const maxWhileIterations = 1_000_000

func (e *Evaluator) runWhile(n *ast.WhileNode) error {
	for i := 0; i < maxWhileIterations; i++ {
		ok, err := e.evalCondition(n.Condition, n.Pos)
		if err != nil {
			return nil
		}
		if !ok {
			return nil
		}
		err = e.runBlock(n.Body)
		switch err.(type) {
		case nil:
			continue
		case breakSignal:
			return nil
		case continueSignal:
			continue
		default:
			return err
		}
	}
	e.report(n.Pos, "while", fmt.Sprintf("exceeded maximum iteration count (%d)", maxWhileIterations))
	return nil
}

// runCommand dispatches one invocation: user functions, then user
// macros, then the built-in table, then an unrecognized-command
// diagnostic.
func (e *Evaluator) runCommand(cmd *ast.CommandInvocation) error {
	name := strings.ToUpper(cmd.Name)
	switch name {
	case "BREAK":
		return breakSignal{}
	case "CONTINUE":
		return continueSignal{}
	case "RETURN":
		return e.runReturn(cmd)
	}
	if fn, ok := e.funcs[name]; ok {
		return e.callFunction(cmd, fn)
	}
	if mac, ok := e.mac[name]; ok {
		return e.callMacro(cmd, mac)
	}
	if b, ok := e.builtins[name]; ok {
		args := e.expandArgs(cmd.Arguments)
		if err := b.fn(e, cmd, args); err != nil {
			e.report(cmd.Pos, cmd.Name, err.Error())
		}
		return nil
	}
	e.unknownCommand(cmd)
	return nil
}

func (e *Evaluator) unknownCommand(cmd *ast.CommandInvocation) {
	e.sink.Telemetry(cmd.Name)
	if e.opts.CompatProfile == "LENIENT" || e.policies.LenientUnknownCommands(e.opts.CompatProfile) {
		e.sink.Warning("evaluator", cmd.Pos.Filename, cmd.Pos.Line, cmd.Pos.Column, cmd.Name,
			"unrecognized command", "treated as a no-op under the current compatibility profile")
		return
	}
	e.sink.Error("evaluator", cmd.Pos.Filename, cmd.Pos.Line, cmd.Pos.Column, cmd.Name, "unrecognized command", "")
}

func (e *Evaluator) runReturn(cmd *ast.CommandInvocation) error {
	if e.stack == nil {
		e.report(cmd.Pos, "return", "return() outside of a function() body is an error")
		return nil
	}
	args := e.expandArgs(cmd.Arguments)
	sig := returnSignal{}
	if len(args) > 0 && strings.EqualFold(args[0], "PROPAGATE") {
		if e.policies.Get("CMP0140") != policy.New {
			e.report(cmd.Pos, "return", "return(PROPAGATE ...) requires policy CMP0140 NEW")
			return returnSignal{}
		}
		sig.propagate = make(map[string]string, len(args)-1)
		for _, name := range args[1:] {
			sig.propagate[name] = e.stack.Get(name)
		}
	}
	return sig
}

// callFunction runs a user function() body in a fresh child frame that
// falls through to the caller's scope for reads but never leaks writes
// back out except via PARENT_SCOPE or return(PROPAGATE ...), binding the
// CMake call convention (named params, ARGC/ARGV/ARGN, ARGV<n>) first.
func (e *Evaluator) callFunction(cmd *ast.CommandInvocation, fn *funcEntry) error {
	args := e.expandArgs(cmd.Arguments)

	parentCur, parentStack := e.cur, e.stack
	// An empty directory-stack level for the call, so that PARENT_SCOPE
	// writes (Mapping.SetParent) land in the level the call was made from.
	e.vars.Push()
	frame := bindings.NewFunctionScope(e.vars)
	if parentStack != nil {
		frame = parentStack.Push()
	}
	bindCallArguments(frame, fn.params, args)

	e.stack = frame
	e.cur = frame
	err := e.runBlock(fn.body)
	e.vars.Pop()
	e.stack = parentStack
	e.cur = parentCur

	ret, isReturn := err.(returnSignal)
	if !isReturn {
		return err
	}
	for k, v := range ret.propagate {
		e.cur.Set(k, v)
	}
	return nil
}

// callMacro splices the macro body directly into the caller's own
// scope: no frame push, so any set()/unset() the macro performs is
// visible to (and persists in) the caller, matching macro() semantics.
// Parameters and ARGC/ARGV/ARGN are visible only through a thin overlay
// that shadows the caller's scope for those names alone.
func (e *Evaluator) callMacro(cmd *ast.CommandInvocation, mac *funcEntry) error {
	args := e.expandArgs(cmd.Arguments)
	params := bindings.NewFunctionScope(e.vars)
	bindCallArguments(params, mac.params, args)

	saved := e.cur
	e.cur = &macroOverlay{caller: saved, params: params}
	err := e.runBlock(mac.body)
	e.cur = saved

	if _, isReturn := err.(returnSignal); isReturn {
		e.report(cmd.Pos, "return", "return() inside macro() is an error")
		return nil
	}
	return err
}

// macroOverlay makes a macro's parameters/ARGV family visible without
// giving the macro body its own scope level: reads consult params
// first, writes always land in the caller.
type macroOverlay struct {
	caller scope
	params *bindings.FunctionScope
}

func (o *macroOverlay) Get(key string) string {
	if o.params.Defined(key) {
		return o.params.Get(key)
	}
	return o.caller.Get(key)
}
func (o *macroOverlay) GetCache(key string) string { return o.caller.GetCache(key) }
func (o *macroOverlay) GetEnv(key string) string   { return o.caller.GetEnv(key) }
func (o *macroOverlay) Defined(key string) bool {
	return o.params.Defined(key) || o.caller.Defined(key)
}
func (o *macroOverlay) Set(key, value string) { o.caller.Set(key, value) }
func (o *macroOverlay) Unset(key string)      { o.caller.Unset(key) }
func (o *macroOverlay) Values() map[string]string {
	values := o.caller.Values()
	for k, v := range o.params.Values() {
		values[k] = v
	}
	return values
}

// bindCallArguments implements CMake's function/macro parameter
// convention: named parameters bind positionally, and ARGC/ARGV/ARGN
// plus ARGV<n> carry the full and extra argument lists regardless of
// how many named parameters were declared.
func bindCallArguments(frame *bindings.FunctionScope, params []string, args []string) {
	for i, p := range params {
		if i < len(args) {
			frame.Set(p, args[i])
		} else {
			frame.Set(p, "")
		}
	}
	frame.Set("ARGC", fmt.Sprintf("%d", len(args)))
	for i, a := range args {
		frame.Set(fmt.Sprintf("ARGV%d", i), a)
	}
	frame.Set("ARGV", strings.Join(args, ";"))
	var extra []string
	if len(args) > len(params) {
		extra = args[len(params):]
	}
	frame.Set("ARGN", strings.Join(extra, ";"))
}

func (e *Evaluator) expandArgs(args ast.ArgumentList) []string {
	return args.Eval(e.cur)
}

// report sends a diagnostic through the sink and promotes it to a fatal
// condition when strict mode leaves no tolerance for further errors.
func (e *Evaluator) report(pos lexer.Position, command, cause string) {
	sev := e.sink.Error("evaluator", pos.Filename, pos.Line, pos.Column, command, cause, "")
	if sev == diagnostics.SeverityFatal && !e.opts.ContinueOnFatalError {
		e.fatal = true
	}
}

// reportFatal is used by built-ins whose failure mode is a Resource-kind
// error (always fatal): a file the build cannot proceed without, or a
// process the evaluator could not even launch.
func (e *Evaluator) reportFatal(pos lexer.Position, command, cause string) {
	e.sink.Fatal("evaluator", pos.Filename, pos.Line, pos.Column, command, cause, "")
	if !e.opts.ContinueOnFatalError {
		e.fatal = true
	}
}

func (e *Evaluator) emit(ev events.Event) {
	e.stream.Push(ev)
}

func (e *Evaluator) originOf(pos lexer.Position) events.Origin {
	return events.Origin{File: pos.Filename, Line: pos.Line, Col: pos.Column}
}
