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

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FakeIO is an in-memory IO for tests: a flat map from canonical
// ("/"-joined, absolute) path to file contents. Directories are
// inferred from the path prefixes of the files present.
type FakeIO struct {
	Files map[string][]byte
}

// NewFakeIO returns an empty FakeIO.
func NewFakeIO() *FakeIO {
	return &FakeIO{Files: make(map[string][]byte)}
}

func (f *FakeIO) ReadFile(path string) ([]byte, bool, error) {
	b, ok := f.Files[path]
	return b, ok, nil
}

func (f *FakeIO) FileExists(path string) bool {
	_, ok := f.Files[path]
	return ok
}

func (f *FakeIO) WriteFile(path string, contents []byte) error {
	f.Files[path] = append([]byte(nil), contents...)
	return nil
}

func (f *FakeIO) Glob(pattern string) ([]string, error) {
	var out []string
	for p := range f.Files {
		if ok, err := filepath.Match(pattern, p); err != nil {
			return nil, err
		} else if ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *FakeIO) MakeDir(path string) error {
	return nil
}

func (f *FakeIO) ListDir(dir string) ([]string, error) {
	seen := map[string]bool{}
	prefix := strings.TrimSuffix(dir, "/") + "/"
	for p := range f.Files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name := strings.SplitN(rest, "/", 2)[0]
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeIO) CanonicalPath(path string) (string, error) {
	return filepath.ToSlash(filepath.Clean(path)), nil
}

// FakeProcessRunner records every invocation and returns a scripted
// result, keyed by the joined argv.
type FakeProcessRunner struct {
	Results map[string]FakeResult
	Calls   [][]string
}

// FakeResult is a scripted process-execution outcome.
type FakeResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// NewFakeProcessRunner returns a FakeProcessRunner with no scripted results.
func NewFakeProcessRunner() *FakeProcessRunner {
	return &FakeProcessRunner{Results: make(map[string]FakeResult)}
}

func (f *FakeProcessRunner) Run(argv []string, cwd string, env []string, timeout time.Duration) (string, string, int, error) {
	f.Calls = append(f.Calls, append([]string(nil), argv...))
	key := strings.Join(argv, " ")
	r, ok := f.Results[key]
	if !ok {
		return "", "", 127, nil
	}
	return r.Stdout, r.Stderr, r.ExitCode, r.Err
}

// FakeClock is a deterministic Clock for tests.
type FakeClock struct {
	Epoch   int64
	overlay map[string]string
}

// NewFakeClock returns a FakeClock fixed at epoch.
func NewFakeClock(epoch int64) *FakeClock {
	return &FakeClock{Epoch: epoch, overlay: make(map[string]string)}
}

func (c *FakeClock) Now() int64 {
	if v, ok := c.overlay["SOURCE_DATE_EPOCH"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return c.Epoch
}

func (c *FakeClock) EnvGet(name string) string    { return c.overlay[name] }
func (c *FakeClock) EnvSet(name, value string)    { c.overlay[name] = value }
func (c *FakeClock) EnvUnset(name string)         { delete(c.overlay, name) }
