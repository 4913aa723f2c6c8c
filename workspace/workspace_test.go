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

package workspace

import "testing"

func TestFakeIOReadMissingReportsNotFoundNotError(t *testing.T) {
	io := NewFakeIO()
	_, found, err := io.ReadFile("/src/missing.cmake")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected found=false for a missing file")
	}
}

func TestFakeIOListDirSorted(t *testing.T) {
	io := NewFakeIO()
	io.Files["/src/b.cmake"] = []byte("")
	io.Files["/src/a.cmake"] = []byte("")
	io.Files["/src/sub/c.cmake"] = []byte("")
	names, err := io.ListDir("/src")
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	want := []string{"a.cmake", "b.cmake", "sub"}
	if len(names) != len(want) {
		t.Fatalf("ListDir = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListDir[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestFakeProcessRunnerRecordsCallsAndScriptedResults(t *testing.T) {
	r := NewFakeProcessRunner()
	r.Results["echo hi"] = FakeResult{Stdout: "hi\n", ExitCode: 0}
	out, _, code, err := r.Run([]string{"echo", "hi"}, "/src", nil, 0)
	if err != nil || out != "hi\n" || code != 0 {
		t.Errorf("Run = (%q, _, %d, %v)", out, code, err)
	}
	if len(r.Calls) != 1 {
		t.Fatalf("Calls = %v, want one recorded call", r.Calls)
	}
}

func TestFakeClockHonorsSourceDateEpochOverlay(t *testing.T) {
	c := NewFakeClock(1000)
	if c.Now() != 1000 {
		t.Fatalf("Now() = %d, want 1000", c.Now())
	}
	c.EnvSet("SOURCE_DATE_EPOCH", "42")
	if c.Now() != 42 {
		t.Fatalf("Now() = %d, want 42 after SOURCE_DATE_EPOCH override", c.Now())
	}
	c.EnvUnset("SOURCE_DATE_EPOCH")
	if c.Now() != 1000 {
		t.Fatalf("Now() = %d, want 1000 after unset", c.Now())
	}
}
