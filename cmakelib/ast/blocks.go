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

package ast

import (
	"strings"

	"github.com/alecthomas/participle/lexer"

	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
)

// NodeKind discriminates the closed alphabet of structured-program nodes a
// CMakeFile's flat command list is regrouped into.
type NodeKind int

const (
	NodeCommand NodeKind = iota
	NodeIf
	NodeForeach
	NodeWhile
	NodeFunctionDef
	NodeMacroDef
)

// Node is a single entry in a structured program: a plain command, or one
// of the five control-flow block kinds. Exactly one of the payload fields
// is non-nil, matching Kind.
type Node struct {
	Kind NodeKind

	Command     *CommandInvocation
	If          *IfNode
	Foreach     *ForeachNode
	While       *WhileNode
	FunctionDef *FunctionDefNode
	MacroDef    *MacroDefNode
}

// ConditionalBlock pairs an if/elseif condition's raw arguments with the
// body to run when it's true; the logic sub-language (cmakelib/logic)
// evaluates Condition against the current bindings.
type ConditionalBlock struct {
	Pos       lexer.Position
	Condition ArgumentList
	Body      []Node
}

// IfNode is `if() ... (elseif() ...)* (else() ...)? endif()`.
type IfNode struct {
	Pos     lexer.Position
	Clauses []ConditionalBlock // [0] is the if(), the rest are elseif()s
	Else    []Node             // nil when there is no else() clause
}

// ForeachNode is `foreach(header) ... endforeach()`.
type ForeachNode struct {
	Pos    lexer.Position
	Header ArgumentList
	Body   []Node
}

// WhileNode is `while(condition) ... endwhile()`.
type WhileNode struct {
	Pos       lexer.Position
	Condition ArgumentList
	Body      []Node
}

// FunctionDefNode is `function(name params...) ... endfunction()`.
type FunctionDefNode struct {
	Pos    lexer.Position
	Name   string
	Params []string
	Body   []Node
}

// MacroDefNode is `macro(name params...) ... endmacro()`.
type MacroDefNode struct {
	Pos    lexer.Position
	Name   string
	Params []string
	Body   []Node
}

// blockLimits bundles the parser's two configurable nesting caps.
type blockLimits struct {
	MaxBlockDepth int
	MaxParenDepth int // recorded only; Structure does not check argument parenthesis nesting against it
}

// DefaultBlockLimits matches CMake's own practical defaults.
var DefaultBlockLimits = blockLimits{MaxBlockDepth: 250, MaxParenDepth: 50}

// NewBlockLimits builds a custom limit pair, for callers (the pipeline's
// configuration layer) that expose max_block_depth/max_paren_depth as
// configurable options rather than hardcoding CMake's own defaults.
func NewBlockLimits(maxBlockDepth, maxParenDepth int) blockLimits {
	return blockLimits{MaxBlockDepth: maxBlockDepth, MaxParenDepth: maxParenDepth}
}

// Structure regroups a flat CMakeFile's command list into a structured
// program, recognizing if/foreach/while/function/macro blocks. Local
// syntax errors (unmatched closers, missing end*) are reported to sink and
// recovered from so that parsing can continue: an unterminated block is
// closed at EOF, and a stray elseif/else/endif-without-if is skipped with
// a diagnostic. The returned tree is always a best-effort tree, per the
// parser's error-recovery contract.
func Structure(file *CMakeFile, limits blockLimits, sink *diagnostics.Sink) []Node {
	b := &structurer{cmds: file.Commands, limits: limits, sink: sink}
	nodes := b.block(0)
	for b.pos < len(b.cmds) {
		stray := b.cmds[b.pos]
		b.report(stray.Pos, stray.Name+"() without a matching opening block")
		b.pos++
		nodes = append(nodes, b.block(0)...)
	}
	return nodes
}

type structurer struct {
	cmds []CommandInvocation
	pos  int
	limits blockLimits
	sink   *diagnostics.Sink
}

func keyword(name string) string {
	return strings.ToUpper(name)
}

func (b *structurer) peek() (CommandInvocation, bool) {
	if b.pos >= len(b.cmds) {
		return CommandInvocation{}, false
	}
	return b.cmds[b.pos], true
}

func (b *structurer) report(pos lexer.Position, cause string) {
	if b.sink == nil {
		return
	}
	b.sink.Error("parser", pos.Filename, pos.Line, pos.Column, "", cause, "")
}

// block parses a run of nodes up to (but not including) one of
// endif/endforeach/endwhile/endfunction/endmacro/elseif/else, or EOF.
func (b *structurer) block(depth int) []Node {
	if depth > b.limits.MaxBlockDepth {
		b.report(lexer.Position{}, "maximum block nesting depth exceeded")
		return nil
	}
	var nodes []Node
	for {
		cmd, ok := b.peek()
		if !ok {
			return nodes
		}
		switch keyword(cmd.Name) {
		case "ENDIF", "ENDFOREACH", "ENDWHILE", "ENDFUNCTION", "ENDMACRO", "ELSEIF", "ELSE":
			return nodes
		case "IF":
			nodes = append(nodes, b.parseIf(depth))
		case "FOREACH":
			nodes = append(nodes, b.parseForeach(depth))
		case "WHILE":
			nodes = append(nodes, b.parseWhile(depth))
		case "FUNCTION":
			nodes = append(nodes, b.parseFunction(depth))
		case "MACRO":
			nodes = append(nodes, b.parseMacro(depth))
		default:
			cmd := cmd
			b.pos++
			nodes = append(nodes, Node{Kind: NodeCommand, Command: &cmd})
		}
	}
}

func (b *structurer) parseIf(depth int) Node {
	start := b.cmds[b.pos]
	b.pos++
	var clauses []ConditionalBlock
	clauses = append(clauses, ConditionalBlock{Pos: start.Pos, Condition: start.Arguments, Body: b.block(depth + 1)})
	var elseBody []Node
	for {
		cmd, ok := b.peek()
		if !ok {
			b.report(start.Pos, "missing endif() for if() opened here")
			return Node{Kind: NodeIf, If: &IfNode{Pos: start.Pos, Clauses: clauses, Else: elseBody}}
		}
		switch keyword(cmd.Name) {
		case "ELSEIF":
			b.pos++
			clauses = append(clauses, ConditionalBlock{Pos: cmd.Pos, Condition: cmd.Arguments, Body: b.block(depth + 1)})
		case "ELSE":
			b.pos++
			elseBody = b.block(depth + 1)
		case "ENDIF":
			b.pos++
			return Node{Kind: NodeIf, If: &IfNode{Pos: start.Pos, Clauses: clauses, Else: elseBody}}
		default:
			b.report(cmd.Pos, "expected elseif(), else() or endif()")
			return Node{Kind: NodeIf, If: &IfNode{Pos: start.Pos, Clauses: clauses, Else: elseBody}}
		}
	}
}

func (b *structurer) parseForeach(depth int) Node {
	start := b.cmds[b.pos]
	b.pos++
	body := b.block(depth + 1)
	if cmd, ok := b.peek(); ok && keyword(cmd.Name) == "ENDFOREACH" {
		b.pos++
	} else {
		b.report(start.Pos, "missing endforeach() for foreach() opened here")
	}
	return Node{Kind: NodeForeach, Foreach: &ForeachNode{Pos: start.Pos, Header: start.Arguments, Body: body}}
}

func (b *structurer) parseWhile(depth int) Node {
	start := b.cmds[b.pos]
	b.pos++
	body := b.block(depth + 1)
	if cmd, ok := b.peek(); ok && keyword(cmd.Name) == "ENDWHILE" {
		b.pos++
	} else {
		b.report(start.Pos, "missing endwhile() for while() opened here")
	}
	return Node{Kind: NodeWhile, While: &WhileNode{Pos: start.Pos, Condition: start.Arguments, Body: body}}
}

func (b *structurer) parseFunction(depth int) Node {
	start := b.cmds[b.pos]
	b.pos++
	name, params := splitNameParams(start.Arguments)
	body := b.block(depth + 1)
	if cmd, ok := b.peek(); ok && keyword(cmd.Name) == "ENDFUNCTION" {
		b.pos++
	} else {
		b.report(start.Pos, "missing endfunction() for function() opened here")
	}
	return Node{Kind: NodeFunctionDef, FunctionDef: &FunctionDefNode{Pos: start.Pos, Name: name, Params: params, Body: body}}
}

func (b *structurer) parseMacro(depth int) Node {
	start := b.cmds[b.pos]
	b.pos++
	name, params := splitNameParams(start.Arguments)
	body := b.block(depth + 1)
	if cmd, ok := b.peek(); ok && keyword(cmd.Name) == "ENDMACRO" {
		b.pos++
	} else {
		b.report(start.Pos, "missing endmacro() for macro() opened here")
	}
	return Node{Kind: NodeMacroDef, MacroDef: &MacroDefNode{Pos: start.Pos, Name: name, Params: params, Body: body}}
}

// splitNameParams evaluates a function()/macro() header's literal argument
// text (no variable expansion applies to a definition header) into the
// name and the declared parameter list.
func splitNameParams(args ArgumentList) (name string, params []string) {
	values := args.Eval(literalBindings{})
	if len(values) == 0 {
		return "", nil
	}
	return values[0], values[1:]
}

// literalBindings makes every variable reference in a function/macro
// header resolve to its own literal text, since headers are never
// variable-expanded.
type literalBindings struct{}

func (literalBindings) Get(name string) string      { return "${" + name + "}" }
func (literalBindings) GetCache(name string) string { return "$CACHE{" + name + "}" }
func (literalBindings) GetEnv(name string) string   { return "$ENV{" + name + "}" }
