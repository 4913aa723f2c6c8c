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
	"fmt"
	"strings"
)

// protectedSemicolon stands in for a backslash-escaped semicolon while a
// joined argument string is split on its remaining, unescaped semicolons;
// it's restored to a literal ';' in each resulting piece afterward. U+E000
// is a Private Use Area code point, so it can't collide with real CMake
// source text.
const protectedSemicolon = ''

// unescape decodes backslash escapes in literal (non-variable-reference)
// argument text. Recognized short escapes (\t \r \n) become their control
// character; \; becomes a protected semicolon so list-splitting leaves it
// alone; any other \c becomes the literal character c.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i == len(runes)-1 {
			b.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 't':
			b.WriteRune('\t')
		case 'r':
			b.WriteRune('\r')
		case 'n':
			b.WriteRune('\n')
		case ';':
			b.WriteRune(protectedSemicolon)
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

// splitList splits s on unescaped semicolons into CMake list items,
// restoring protected (escaped) semicolons in each resulting item. An
// empty input yields no items, matching CMake's empty-list behavior.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, string(protectedSemicolon), ";")
	}
	return parts
}

// Eval uses the provided bindings to resolve any variable references and returns a slice
// corresponding to the argument values.
func (a *ArgumentList) Eval(vars Bindings) []string {
	var values []string
	for _, arg := range a.Values {
		values = append(values, arg.Eval(vars)...)
	}
	return values
}

// Eval returns a slice of argument values after resolving variable references from vars.
func (a *Argument) Eval(vars Bindings) []string {
	switch {
	case a.QuotedArgument != nil:
		return a.QuotedArgument.Eval(vars)
	case a.UnquotedArgument != nil:
		return a.UnquotedArgument.Eval(vars)
	case a.BracketArgument != nil:
		return a.BracketArgument.Eval(vars)
	case a.GenexArgument != nil:
		return a.GenexArgument.Eval(vars)
	case a.ArgumentList != nil:
		// Include the parens, but only for nested argument lists.
		values := []string{"("}
		values = append(values, a.ArgumentList.Eval(vars)...)
		return append(values, ")")
	}
	panic("Missing concrete argument!")
}

// Eval returns the argument's raw generator-expression text, braces
// included; per design, the evaluator never decodes it.
func (a *GenexArgument) Eval(vars Bindings) []string {
	return []string{fmt.Sprintf("$<%s>", a.Text)}
}

// Eval returns a slice of argument values after resolving variable references from vars.
// Quoted arguments are never split on semicolons.
func (a *QuotedArgument) Eval(vars Bindings) []string {
	var parts []string
	for _, e := range a.Elements {
		parts = append(parts, e.Eval(vars)...)
	}
	return []string{strings.ReplaceAll(strings.Join(parts, ""), string(protectedSemicolon), ";")}
}

// Eval returns a slice of values after resolving variable references using vars.
func (e *QuotedElement) Eval(vars Bindings) []string {
	if e.Ref != nil {
		return e.Ref.Eval(vars)
	}
	return []string{unescape(e.Text)}
}

// Eval returns a slice of argument values after resolving variable references from vars.
// The joined, expanded text is then split on unescaped semicolons into
// separate logical arguments, per CMake list semantics.
func (a *UnquotedArgument) Eval(vars Bindings) []string {
	var parts []string
	for _, e := range a.Elements {
		parts = append(parts, e.Eval(vars)...)
	}
	items := splitList(strings.Join(parts, ""))
	if items == nil {
		return []string{""}
	}
	return items
}

// Eval returns a slice of values after evaluating escape sequences; list
// splitting happens once, over the fully-joined argument, in
// UnquotedArgument.Eval.
func (e *UnquotedElement) Eval(vars Bindings) []string {
	if e.Ref != nil {
		return e.Ref.Eval(vars)
	}
	return []string{unescape(e.Text)}
}

// Eval returns a slice of values for the text of the argument. Bracket
// arguments are raw: no variable expansion, no escape decoding, no splitting.
func (a *BracketArgument) Eval(vars Bindings) []string {
	return []string{a.Text}
}

// Eval recursively resolved variable references using vars and returns the result.
func (v *VariableReference) Eval(vars Bindings) []string {
	var name []string
	for _, e := range v.Elements {
		name = append(name, e.Eval(vars)...)
	}
	var get func(string) string
	switch v.Domain {
	case DomainDefault:
		get = vars.Get
	case DomainCache:
		get = vars.GetCache
	case DomainEnv:
		get = vars.GetEnv
	case DomainMake:
		// Legacy $(VAR) make-variable syntax: never expanded by CMake itself.
		return []string{fmt.Sprintf("$(%s)", strings.Join(name, ""))}
	default:
		panic(fmt.Sprintf("unrecognized domain: %#v", v.Domain))
	}
	return []string{get(strings.Join(name, ""))}
}

// Eval recursively resolved variable references using vars and returns the result.
func (v *VariableElement) Eval(vars Bindings) []string {
	parts := []string{unescape(v.Text)}
	if v.Ref != nil {
		parts = append(parts, v.Ref.Eval(vars)...)
	}
	return []string{strings.Join(parts, "")}
}
