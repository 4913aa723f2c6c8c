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
	"io"
	"testing"

	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
	"github.com/kythe/cmakeforge/workspace"
)

// newTestEvaluatorWithIO is newTestEvaluator plus direct access to the
// FakeIO backing it, for tests that need to seed or inspect its Files map.
func newTestEvaluatorWithIO(t *testing.T, opts Options) (*Evaluator, *diagnostics.Sink, *workspace.FakeIO) {
	t.Helper()
	if opts.SourceDir == "" {
		opts.SourceDir = "/src"
	}
	if opts.BinaryDir == "" {
		opts.BinaryDir = "/build"
	}
	sink := diagnostics.New(io.Discard)
	fio := workspace.NewFakeIO()
	ev := New(fio, workspace.NewFakeProcessRunner(), workspace.NewFakeClock(1700000000), sink, opts)
	return ev, sink, fio
}

func TestListAppendSort(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
list(APPEND L c a b)
list(SORT L)
message(WARNING "${L}")
`)
	if got := lastCause(sink); got != "a;b;c" {
		t.Errorf("L = %q, want %q", got, "a;b;c")
	}
}

func TestListRemoveItemAndRemoveDuplicates(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
list(APPEND L a b a c b d)
list(REMOVE_ITEM L d)
list(REMOVE_DUPLICATES L)
message(WARNING "${L}")
`)
	if got := lastCause(sink); got != "a;b;c" {
		t.Errorf("L = %q, want %q", got, "a;b;c")
	}
}

func TestListFilterInclude(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
list(APPEND L foo.cc foo.h bar.cc)
list(FILTER L INCLUDE REGEX "\\.cc$")
message(WARNING "${L}")
`)
	if got := lastCause(sink); got != "foo.cc;bar.cc" {
		t.Errorf("L = %q, want %q", got, "foo.cc;bar.cc")
	}
}

func TestListGetNegativeIndex(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
list(APPEND L a b c)
list(GET L -1 OUT)
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "c" {
		t.Errorf("OUT = %q, want %q", got, "c")
	}
}

func TestListJoin(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
list(APPEND L a b c)
list(JOIN L "-" OUT)
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "a-b-c" {
		t.Errorf("OUT = %q, want %q", got, "a-b-c")
	}
}

func TestStringAppendAndUpper(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
string(APPEND OUT "hello" " " "world")
string(TOUPPER "${OUT}" OUT)
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "HELLO WORLD" {
		t.Errorf("OUT = %q, want %q", got, "HELLO WORLD")
	}
}

func TestStringRegexMatch(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
string(REGEX MATCH "[0-9]+" OUT "version 3.21.0 release")
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "3" {
		t.Errorf("OUT = %q, want %q", got, "3")
	}
}

func TestStringRegexReplaceWithBackreference(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
string(REGEX REPLACE "([a-z]+)_([a-z]+)" "\\2_\\1" OUT "foo_bar")
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "bar_foo" {
		t.Errorf("OUT = %q, want %q", got, "bar_foo")
	}
}

func TestStringCompareEqual(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
string(COMPARE EQUAL "abc" "abc" OUT)
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "TRUE" {
		t.Errorf("OUT = %q, want %q", got, "TRUE")
	}
}

func TestStringSubstring(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
string(SUBSTRING "hello world" 6 5 OUT)
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "world" {
		t.Errorf("OUT = %q, want %q", got, "world")
	}
}

func TestFileWriteThenRead(t *testing.T) {
	ev, sink, fio := newTestEvaluatorWithIO(t, Options{})
	runSource(t, ev, `
file(WRITE /build/generated.txt "line one\n" "line two\n")
file(READ /build/generated.txt OUT)
message(WARNING "${OUT}")
`)
	if got := lastCause(sink); got != "line one\nline two\n" {
		t.Errorf("OUT = %q, want %q", got, "line one\nline two\n")
	}
	if _, ok := fio.Files["/build/generated.txt"]; !ok {
		t.Error("file(WRITE) did not leave a file behind in the fake filesystem")
	}
}

func TestFileReadMissingFileIsAnError(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `file(READ /does/not/exist.txt OUT)`)
	if sink.ErrorCount() == 0 {
		t.Error("expected file(READ) on a missing path to report an error")
	}
}

func TestFileGlobFindsSeededFiles(t *testing.T) {
	ev, sink, fio := newTestEvaluatorWithIO(t, Options{})
	fio.Files["/src/a.cc"] = []byte("")
	fio.Files["/src/b.cc"] = []byte("")
	fio.Files["/src/readme.md"] = []byte("")
	runSource(t, ev, `
file(GLOB SOURCES "/src/*.cc")
list(SORT SOURCES)
message(WARNING "${SOURCES}")
`)
	if got := lastCause(sink); got != "/src/a.cc;/src/b.cc" {
		t.Errorf("SOURCES = %q, want %q", got, "/src/a.cc;/src/b.cc")
	}
}

func TestGetFilenameComponentNameAndExt(t *testing.T) {
	ev, sink := newTestEvaluator(t, Options{})
	runSource(t, ev, `
get_filename_component(NAME_OUT /src/lib/foo.cc NAME)
get_filename_component(EXT_OUT /src/lib/foo.cc EXT)
message(WARNING "${NAME_OUT}:${EXT_OUT}")
`)
	if got := lastCause(sink); got != "foo.cc:.cc" {
		t.Errorf("NAME_OUT:EXT_OUT = %q, want %q", got, "foo.cc:.cc")
	}
}
