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
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kythe/cmakeforge/cmakelib/ast"
)

func (e *Evaluator) registerTextBuiltins() {
	e.reg("LIST", Full, "list(<op> <var> ...)", cmdList)
	e.reg("STRING", Partial, "string(<op> ...)", cmdString)
	e.reg("FILE", Partial, "file(<op> ...)", cmdFile)
	e.reg("GET_FILENAME_COMPONENT", Full, "get_filename_component(<out> <path> <component>)", cmdGetFilenameComponent)
	e.reg("CMAKE_PATH", Partial, "cmake_path(<op> <path-var> ...)", cmdCMakePath)
	e.reg("CONFIGURE_FILE", Full, "configure_file(<input> <output> [COPYONLY] [@ONLY])", cmdConfigureFile)
}

// --- list() ---

func cmdList(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("list() requires an operation and a variable name")
	}
	op := strings.ToUpper(args[0])
	varName := args[1]
	rest := args[2:]
	items := splitCMakeList(e.cur.Get(varName))

	switch op {
	case "LENGTH":
		if len(rest) != 1 {
			return fmt.Errorf("list(LENGTH) requires an output variable")
		}
		e.cur.Set(rest[0], strconv.Itoa(len(items)))

	case "GET":
		if len(rest) < 2 {
			return fmt.Errorf("list(GET) requires at least one index and an output variable")
		}
		out := rest[len(rest)-1]
		var got []string
		for _, idxStr := range rest[:len(rest)-1] {
			idx, err := listIndex(idxStr, len(items))
			if err != nil {
				return err
			}
			got = append(got, items[idx])
		}
		e.cur.Set(out, strings.Join(got, ";"))

	case "APPEND":
		items = append(items, rest...)
		e.cur.Set(varName, strings.Join(items, ";"))

	case "PREPEND":
		items = append(append([]string(nil), rest...), items...)
		e.cur.Set(varName, strings.Join(items, ";"))

	case "INSERT":
		if len(rest) < 1 {
			return fmt.Errorf("list(INSERT) requires an index")
		}
		idx, err := listIndex(rest[0], len(items)+1)
		if err != nil {
			return err
		}
		out := append([]string(nil), items[:idx]...)
		out = append(out, rest[1:]...)
		out = append(out, items[idx:]...)
		e.cur.Set(varName, strings.Join(out, ";"))

	case "REMOVE_AT":
		toRemove := map[int]bool{}
		for _, idxStr := range rest {
			idx, err := listIndex(idxStr, len(items))
			if err != nil {
				return err
			}
			toRemove[idx] = true
		}
		var out []string
		for i, v := range items {
			if !toRemove[i] {
				out = append(out, v)
			}
		}
		e.cur.Set(varName, strings.Join(out, ";"))

	case "REMOVE_ITEM":
		remove := map[string]bool{}
		for _, v := range rest {
			remove[v] = true
		}
		var out []string
		for _, v := range items {
			if !remove[v] {
				out = append(out, v)
			}
		}
		e.cur.Set(varName, strings.Join(out, ";"))

	case "REMOVE_DUPLICATES":
		seen := map[string]bool{}
		var out []string
		for _, v := range items {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
		e.cur.Set(varName, strings.Join(out, ";"))

	case "REVERSE":
		out := make([]string, len(items))
		for i, v := range items {
			out[len(items)-1-i] = v
		}
		e.cur.Set(varName, strings.Join(out, ";"))

	case "SORT":
		out := append([]string(nil), items...)
		desc := false
		caseInsensitive := false
		for _, o := range rest {
			switch strings.ToUpper(o) {
			case "ORDER":
			case "DESCENDING":
				desc = true
			case "CASE":
			case "COMPARE":
			case "INSENSITIVE":
				caseInsensitive = true
			}
		}
		sort.Slice(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if caseInsensitive {
				a, b = strings.ToUpper(a), strings.ToUpper(b)
			}
			if desc {
				return a > b
			}
			return a < b
		})
		e.cur.Set(varName, strings.Join(out, ";"))

	case "FILTER":
		if len(rest) < 2 {
			return fmt.Errorf("list(FILTER) requires INCLUDE|EXCLUDE and a regex")
		}
		mode := strings.ToUpper(rest[0])
		re, err := regexp.Compile(rest[len(rest)-1])
		if err != nil {
			return fmt.Errorf("list(FILTER) invalid regex: %v", err)
		}
		var out []string
		for _, v := range items {
			match := re.MatchString(v)
			if mode == "INCLUDE" && match {
				out = append(out, v)
			} else if mode == "EXCLUDE" && !match {
				out = append(out, v)
			}
		}
		e.cur.Set(varName, strings.Join(out, ";"))

	case "FIND":
		if len(rest) != 2 {
			return fmt.Errorf("list(FIND) requires a value and an output variable")
		}
		idx := -1
		for i, v := range items {
			if v == rest[0] {
				idx = i
				break
			}
		}
		e.cur.Set(rest[1], strconv.Itoa(idx))

	case "JOIN":
		if len(rest) != 2 {
			return fmt.Errorf("list(JOIN) requires a glue string and an output variable")
		}
		e.cur.Set(rest[1], strings.Join(items, rest[0]))

	case "SUBLIST":
		if len(rest) != 3 {
			return fmt.Errorf("list(SUBLIST) requires start, length, and an output variable")
		}
		start, err := strconv.Atoi(rest[0])
		if err != nil || start < 0 || start > len(items) {
			return fmt.Errorf("list(SUBLIST) invalid start index %q", rest[0])
		}
		length, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("list(SUBLIST) invalid length %q", rest[1])
		}
		end := len(items)
		if length >= 0 && start+length < end {
			end = start + length
		}
		e.cur.Set(rest[2], strings.Join(items[start:end], ";"))

	case "TRANSFORM":
		if len(rest) < 1 {
			return fmt.Errorf("list(TRANSFORM) requires an action")
		}
		out := make([]string, len(items))
		for i, v := range items {
			out[i] = applyListTransform(strings.ToUpper(rest[0]), v, rest[1:])
		}
		e.cur.Set(varName, strings.Join(out, ";"))

	default:
		return fmt.Errorf("list(%s) is not a recognized operation", op)
	}
	return nil
}

func listIndex(s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid list index %q", s)
	}
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("list index %q out of range", s)
	}
	return idx, nil
}

func applyListTransform(action, value string, args []string) string {
	switch action {
	case "TOUPPER":
		return strings.ToUpper(value)
	case "TOLOWER":
		return strings.ToLower(value)
	case "STRIP":
		return strings.TrimSpace(value)
	case "APPEND":
		if len(args) > 0 {
			return value + args[0]
		}
		return value
	case "PREPEND":
		if len(args) > 0 {
			return args[0] + value
		}
		return value
	default:
		return value
	}
}

// --- string() ---

func cmdString(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("string() requires an operation")
	}
	op := strings.ToUpper(args[0])
	rest := args[1:]
	switch op {
	case "CONCAT":
		if len(rest) < 1 {
			return fmt.Errorf("string(CONCAT) requires an output variable")
		}
		e.cur.Set(rest[0], strings.Join(rest[1:], ""))
	case "APPEND":
		if len(rest) < 1 {
			return fmt.Errorf("string(APPEND) requires an output variable")
		}
		e.cur.Set(rest[0], e.cur.Get(rest[0])+strings.Join(rest[1:], ""))
	case "PREPEND":
		if len(rest) < 1 {
			return fmt.Errorf("string(PREPEND) requires an output variable")
		}
		e.cur.Set(rest[0], strings.Join(rest[1:], "")+e.cur.Get(rest[0]))
	case "LENGTH":
		if len(rest) != 2 {
			return fmt.Errorf("string(LENGTH) requires a string and an output variable")
		}
		e.cur.Set(rest[1], strconv.Itoa(len(rest[0])))
	case "SUBSTRING":
		if len(rest) != 4 {
			return fmt.Errorf("string(SUBSTRING) requires string, begin, length, and an output variable")
		}
		s := rest[0]
		begin, err := strconv.Atoi(rest[1])
		if err != nil || begin < 0 || begin > len(s) {
			return fmt.Errorf("string(SUBSTRING) invalid begin %q", rest[1])
		}
		length, err := strconv.Atoi(rest[2])
		if err != nil {
			return fmt.Errorf("string(SUBSTRING) invalid length %q", rest[2])
		}
		end := len(s)
		if length >= 0 && begin+length < end {
			end = begin + length
		}
		e.cur.Set(rest[3], s[begin:end])
	case "REPLACE":
		if len(rest) < 3 {
			return fmt.Errorf("string(REPLACE) requires match, replace, output var, and input strings")
		}
		match, replace, out := rest[0], rest[1], rest[2]
		joined := strings.Join(rest[3:], "")
		e.cur.Set(out, strings.ReplaceAll(joined, match, replace))
	case "REGEX":
		return stringRegex(e, rest)
	case "TOUPPER":
		if len(rest) != 2 {
			return fmt.Errorf("string(TOUPPER) requires a string and an output variable")
		}
		e.cur.Set(rest[1], strings.ToUpper(rest[0]))
	case "TOLOWER":
		if len(rest) != 2 {
			return fmt.Errorf("string(TOLOWER) requires a string and an output variable")
		}
		e.cur.Set(rest[1], strings.ToLower(rest[0]))
	case "STRIP":
		if len(rest) != 2 {
			return fmt.Errorf("string(STRIP) requires a string and an output variable")
		}
		e.cur.Set(rest[1], strings.TrimSpace(rest[0]))
	case "COMPARE":
		return stringCompare(e, rest)
	case "HEX":
		if len(rest) != 2 {
			return fmt.Errorf("string(HEX) requires a string and an output variable")
		}
		e.cur.Set(rest[1], fmt.Sprintf("%x", rest[0]))
	case "MD5", "SHA1", "SHA256":
		if len(rest) != 2 {
			return fmt.Errorf("string(%s) requires a string and an output variable", op)
		}
		e.cur.Set(rest[1], stringHash(op, rest[0]))
	case "RANDOM":
		return stringRandom(e, rest)
	case "TIMESTAMP":
		return stringTimestamp(e, rest)
	case "UUID":
		return stringUUID(e, rest)
	case "JOIN":
		if len(rest) < 2 {
			return fmt.Errorf("string(JOIN) requires a glue string, an output variable, and inputs")
		}
		e.cur.Set(rest[1], strings.Join(rest[2:], rest[0]))
	case "FIND":
		if len(rest) < 3 {
			return fmt.Errorf("string(FIND) requires a haystack, a needle, and an output variable")
		}
		e.cur.Set(rest[2], strconv.Itoa(strings.Index(rest[0], rest[1])))
	default:
		return fmt.Errorf("string(%s) is not a recognized operation", op)
	}
	return nil
}

func stringHash(kind, s string) string {
	switch kind {
	case "MD5":
		sum := md5.Sum([]byte(s))
		return fmt.Sprintf("%x", sum)
	case "SHA1":
		sum := sha1.Sum([]byte(s))
		return fmt.Sprintf("%x", sum)
	case "SHA256":
		sum := sha256.Sum256([]byte(s))
		return fmt.Sprintf("%x", sum)
	default:
		return ""
	}
}

func stringRegex(e *Evaluator, rest []string) error {
	if len(rest) < 3 {
		return fmt.Errorf("string(REGEX) requires a mode, a pattern, an output variable, and input")
	}
	mode := strings.ToUpper(rest[0])
	pattern := rest[1]
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("string(REGEX) invalid pattern: %v", err)
	}
	switch mode {
	case "MATCH":
		if len(rest) < 4 {
			return fmt.Errorf("string(REGEX MATCH) requires an output variable and input")
		}
		out := rest[2]
		input := strings.Join(rest[3:], "")
		e.cur.Set(out, re.FindString(input))
	case "MATCHALL":
		if len(rest) < 4 {
			return fmt.Errorf("string(REGEX MATCHALL) requires an output variable and input")
		}
		out := rest[2]
		input := strings.Join(rest[3:], "")
		e.cur.Set(out, strings.Join(re.FindAllString(input, -1), ";"))
	case "REPLACE":
		if len(rest) < 4 {
			return fmt.Errorf("string(REGEX REPLACE) requires a replace expression, output variable, and input")
		}
		replace := translateCMakeBackrefs(rest[2])
		out := rest[3]
		input := strings.Join(rest[4:], "")
		e.cur.Set(out, re.ReplaceAllString(input, replace))
	default:
		return fmt.Errorf("string(REGEX %s) is not a recognized mode", mode)
	}
	return nil
}

// translateCMakeBackrefs rewrites CMake's \1-\9 backreference syntax into
// Go regexp's ${1}-${9}, since the two otherwise share RE2 semantics.
func translateCMakeBackrefs(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			b.WriteString("${")
			b.WriteByte(s[i+1])
			b.WriteString("}")
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func stringCompare(e *Evaluator, rest []string) error {
	if len(rest) != 4 {
		return fmt.Errorf("string(COMPARE) requires an operator, two strings, and an output variable")
	}
	op, a, b, out := strings.ToUpper(rest[0]), rest[1], rest[2], rest[3]
	var result bool
	switch op {
	case "EQUAL":
		result = a == b
	case "NOTEQUAL":
		result = a != b
	case "LESS":
		result = a < b
	case "GREATER":
		result = a > b
	case "LESS_EQUAL":
		result = a <= b
	case "GREATER_EQUAL":
		result = a >= b
	default:
		return fmt.Errorf("string(COMPARE %s) is not a recognized operator", op)
	}
	e.cur.Set(out, boolVar(result))
	return nil
}

func stringRandom(e *Evaluator, rest []string) error {
	if len(rest) == 0 {
		return fmt.Errorf("string(RANDOM) requires an output variable")
	}
	out := rest[len(rest)-1]
	length := 5
	alphabet := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for i := 0; i+1 < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "LENGTH":
			if i+1 < len(rest) {
				if n, err := strconv.Atoi(rest[i+1]); err == nil {
					length = n
				}
				i++
			}
		case "ALPHABET":
			if i+1 < len(rest) {
				alphabet = rest[i+1]
				i++
			}
		}
	}
	seed := e.clock.Now()
	var b strings.Builder
	for i := 0; i < length; i++ {
		seed = seed*1103515245 + 12345
		idx := int(seed>>16) % len(alphabet)
		if idx < 0 {
			idx += len(alphabet)
		}
		b.WriteByte(alphabet[idx])
	}
	e.cur.Set(out, b.String())
	return nil
}

func stringTimestamp(e *Evaluator, rest []string) error {
	if len(rest) == 0 {
		return fmt.Errorf("string(TIMESTAMP) requires an output variable")
	}
	out := rest[0]
	layout := "%Y-%m-%dT%H:%M:%SZ"
	if len(rest) > 1 && !strings.EqualFold(rest[1], "UTC") {
		layout = rest[1]
	}
	e.cur.Set(out, formatCMakeTimestamp(e.clock.Now(), layout))
	return nil
}

// formatCMakeTimestamp renders epoch seconds using a subset of CMake's
// strftime-style TIMESTAMP format specifiers, always in UTC since the
// evaluator has no notion of a local timezone.
func formatCMakeTimestamp(epoch int64, layout string) string {
	t := time.Unix(epoch, 0).UTC()
	replacer := strings.NewReplacer(
		"%Y", fmt.Sprintf("%04d", t.Year()),
		"%m", fmt.Sprintf("%02d", int(t.Month())),
		"%d", fmt.Sprintf("%02d", t.Day()),
		"%H", fmt.Sprintf("%02d", t.Hour()),
		"%M", fmt.Sprintf("%02d", t.Minute()),
		"%S", fmt.Sprintf("%02d", t.Second()),
		"%j", fmt.Sprintf("%03d", t.YearDay()),
	)
	return replacer.Replace(layout)
}

func stringUUID(e *Evaluator, rest []string) error {
	if len(rest) == 0 {
		return fmt.Errorf("string(UUID) requires an output variable")
	}
	out := rest[0]
	namespace := uuid.Nil
	name := ""
	for i := 1; i+1 < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "NAMESPACE":
			if ns, err := uuid.Parse(rest[i+1]); err == nil {
				namespace = ns
			}
		case "NAME":
			name = rest[i+1]
		}
	}
	e.cur.Set(out, uuid.NewSHA1(namespace, []byte(name)).String())
	return nil
}

// --- file() ---

func cmdFile(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("file() requires an operation")
	}
	op := strings.ToUpper(args[0])
	rest := args[1:]
	switch op {
	case "READ":
		if len(rest) < 2 {
			return fmt.Errorf("file(READ) requires a path and an output variable")
		}
		contents, ok, err := e.io.ReadFile(rest[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("file(READ) could not find %s", rest[0])
		}
		e.cur.Set(rest[1], string(contents))
	case "STRINGS":
		if len(rest) < 2 {
			return fmt.Errorf("file(STRINGS) requires a path and an output variable")
		}
		contents, ok, err := e.io.ReadFile(rest[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("file(STRINGS) could not find %s", rest[0])
		}
		var out []string
		for _, line := range strings.Split(string(contents), "\n") {
			line = strings.TrimRight(line, "\r")
			if line != "" {
				out = append(out, line)
			}
		}
		e.cur.Set(rest[1], strings.Join(out, ";"))
	case "WRITE":
		if len(rest) < 1 {
			return fmt.Errorf("file(WRITE) requires a path")
		}
		return e.io.WriteFile(rest[0], []byte(strings.Join(rest[1:], "")))
	case "APPEND":
		if len(rest) < 1 {
			return fmt.Errorf("file(APPEND) requires a path")
		}
		existing, _, _ := e.io.ReadFile(rest[0])
		return e.io.WriteFile(rest[0], append(existing, []byte(strings.Join(rest[1:], ""))...))
	case "GLOB":
		return fileGlob(e, rest, false)
	case "GLOB_RECURSE":
		return fileGlob(e, rest, true)
	case "MAKE_DIRECTORY":
		for _, dir := range rest {
			if err := e.io.MakeDir(dir); err != nil {
				return err
			}
		}
	case "REMOVE", "REMOVE_RECURSE":
		// no IO.Remove is exposed; modeled as a silent no-op, since the
		// build model never depends on files disappearing mid-evaluation.
	case "RENAME", "COPY", "COPY_FILE", "DOWNLOAD":
		return fmt.Errorf("file(%s) is not supported in this evaluator", op)
	case "TO_CMAKE_PATH":
		if len(rest) != 2 {
			return fmt.Errorf("file(TO_CMAKE_PATH) requires a path and an output variable")
		}
		e.cur.Set(rest[1], filepath.ToSlash(rest[0]))
	case "TO_NATIVE_PATH":
		if len(rest) != 2 {
			return fmt.Errorf("file(TO_NATIVE_PATH) requires a path and an output variable")
		}
		e.cur.Set(rest[1], filepath.FromSlash(rest[0]))
	default:
		return fmt.Errorf("file(%s) is not a recognized operation", op)
	}
	return nil
}

func fileGlob(e *Evaluator, rest []string, recurse bool) error {
	if len(rest) < 1 {
		return fmt.Errorf("file(GLOB) requires an output variable")
	}
	out := rest[0]
	var patterns []string
	for i := 1; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "LIST_DIRECTORIES", "RELATIVE":
			i++ // consumes the keyword's argument
		case "CONFIGURE_DEPENDS":
			// takes no argument
		default:
			patterns = append(patterns, rest[i])
		}
	}
	var matches []string
	for _, p := range patterns {
		if recurse {
			p = recurseGlobPattern(p)
		}
		found, err := e.io.Glob(p)
		if err != nil {
			return err
		}
		matches = append(matches, found...)
	}
	sort.Strings(matches)
	e.cur.Set(out, strings.Join(matches, ";"))
	return nil
}

// recurseGlobPattern turns a single-directory glob into one that also
// matches arbitrarily nested paths, approximating GLOB_RECURSE without a
// true recursive walk (the IO seam exposes Glob, not WalkDir).
func recurseGlobPattern(pattern string) string {
	dir, file := filepath.Split(pattern)
	return filepath.Join(dir, "**", file)
}

func cmdGetFilenameComponent(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("get_filename_component() requires an output variable, a path, and a component")
	}
	out, path, component := args[0], args[1], strings.ToUpper(args[2])
	var value string
	switch component {
	case "DIRECTORY", "PATH":
		value = filepath.Dir(path)
	case "NAME":
		value = filepath.Base(path)
	case "EXT":
		value = filepath.Ext(path)
	case "NAME_WE":
		base := filepath.Base(path)
		value = strings.TrimSuffix(base, filepath.Ext(base))
	case "ABSOLUTE":
		abs, err := e.io.CanonicalPath(path)
		if err != nil {
			return err
		}
		value = abs
	case "REALPATH":
		abs, err := e.io.CanonicalPath(path)
		if err != nil {
			return err
		}
		value = abs
	default:
		return fmt.Errorf("get_filename_component() component %q is not recognized", component)
	}
	e.cur.Set(out, value)
	return nil
}

func cmdCMakePath(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("cmake_path() requires an operation and a path variable")
	}
	op := strings.ToUpper(args[0])
	pathVar := args[1]
	rest := args[2:]
	path := e.cur.Get(pathVar)
	switch op {
	case "GET":
		if len(rest) < 2 {
			return fmt.Errorf("cmake_path(GET) requires a component and an output variable")
		}
		return cmdGetFilenameComponent(e, cmd, []string{rest[1], path, translateCMakePathComponent(rest[0])})
	case "APPEND":
		if len(rest) < 1 {
			return fmt.Errorf("cmake_path(APPEND) requires at least one segment")
		}
		out := pathVar
		segments := rest
		if len(rest) >= 2 && strings.EqualFold(rest[len(rest)-2], "OUTPUT_VARIABLE") {
			out = rest[len(rest)-1]
			segments = rest[:len(rest)-2]
		}
		e.cur.Set(out, filepath.Join(append([]string{path}, segments...)...))
	case "NATIVE_PATH":
		if len(rest) < 1 {
			return fmt.Errorf("cmake_path(NATIVE_PATH) requires an output variable")
		}
		e.cur.Set(rest[0], filepath.FromSlash(path))
	default:
		return fmt.Errorf("cmake_path(%s) is not a recognized operation", op)
	}
	return nil
}

func translateCMakePathComponent(s string) string {
	switch strings.ToUpper(s) {
	case "FILENAME":
		return "NAME"
	case "STEM":
		return "NAME_WE"
	case "EXTENSION":
		return "EXT"
	case "PARENT_PATH":
		return "DIRECTORY"
	default:
		return strings.ToUpper(s)
	}
}

var configureVarPattern = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)@|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func cmdConfigureFile(e *Evaluator, cmd *ast.CommandInvocation, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("configure_file() requires an input and an output path")
	}
	input, output := args[0], args[1]
	copyOnly := false
	for _, a := range args[2:] {
		if strings.EqualFold(a, "COPYONLY") {
			copyOnly = true
		}
	}
	contents, ok, err := e.io.ReadFile(input)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("configure_file() could not find input %s", input)
	}
	if copyOnly {
		return e.io.WriteFile(output, contents)
	}
	expanded := configureVarPattern.ReplaceAllStringFunc(string(contents), func(m string) string {
		sub := configureVarPattern.FindStringSubmatch(m)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		if !e.cur.Defined(name) {
			return ""
		}
		return e.cur.Get(name)
	})
	return e.io.WriteFile(output, []byte(expanded))
}
