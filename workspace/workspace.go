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

// Package workspace defines the three external collaborators the
// evaluator calls out to — file I/O, process execution, and the
// clock/environment — plus real adapters backed by the actual
// filesystem, os/exec, and the process clock. Tests substitute fakes
// satisfying the same interfaces instead of touching the real machine.
package workspace

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// IO is the workspace I/O adapter §6 requires for include(), add_subdirectory(),
// and the find_* command family.
type IO interface {
	ReadFile(path string) ([]byte, bool, error)
	WriteFile(path string, contents []byte) error
	FileExists(path string) bool
	ListDir(path string) ([]string, error)
	CanonicalPath(path string) (string, error)
	Glob(pattern string) ([]string, error)
	MakeDir(path string) error
}

// ProcessRunner is the process adapter §6 requires for execute_process,
// exec_program, and probe-based find_* flows.
type ProcessRunner interface {
	Run(argv []string, cwd string, env []string, timeout time.Duration) (stdout, stderr string, exitCode int, err error)
}

// Clock is the clock/environment adapter §6 requires. SOURCE_DATE_EPOCH
// must be honored wherever a timestamp is embedded in output, for
// reproducible builds.
type Clock interface {
	Now() int64 // epoch seconds
	EnvGet(name string) string
	EnvSet(name, value string)
	EnvUnset(name string)
}

// RealIO is an IO backed by the actual filesystem.
type RealIO struct{}

// ReadFile reads path, reporting found=false (not an error) when it
// doesn't exist, matching the read_file(path) -> bytes | NotFound contract.
func (RealIO) ReadFile(path string) ([]byte, bool, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// FileExists reports whether path exists, following symlinks.
func (RealIO) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFile writes contents to path, creating or truncating it, and
// creating any missing parent directories first.
func (RealIO) WriteFile(path string, contents []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, contents, 0o644)
}

// Glob returns every path matching pattern, sorted, per file(GLOB ...).
func (RealIO) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// MakeDir creates path and any missing parents.
func (RealIO) MakeDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ListDir returns path's entries, sorted, per §6's list_dir contract.
func (RealIO) ListDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	sort.Strings(names)
	return names, nil
}

// CanonicalPath resolves path to an absolute, symlink-free form.
func (RealIO) CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil // non-existent paths still canonicalize to their absolute form
	}
	return real, nil
}

// RealProcessRunner is a ProcessRunner backed by os/exec.
type RealProcessRunner struct{}

// Run executes argv[0] with argv[1:] as arguments, under cwd and env,
// collecting stdout/stderr separately and the process's exit code. A
// nonzero timeout bounds the run; zero means no bound.
func (RealProcessRunner) Run(argv []string, cwd string, env []string, timeout time.Duration) (stdout, stderr string, exitCode int, err error) {
	if len(argv) == 0 {
		return "", "", -1, exec.ErrNotFound
	}
	ctx := context.Background()
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = cwd
	if env != nil {
		cmd.Env = env
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	code := 0
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
		runErr = nil
	} else if runErr != nil {
		code = -1
	}
	return outBuf.String(), errBuf.String(), code, runErr
}

// RealClock is a Clock backed by the process clock and the real
// environment, honoring SOURCE_DATE_EPOCH when it's set to a valid
// integer (reproducible-builds convention: seconds since the epoch).
type RealClock struct {
	overlay map[string]string
}

// NewRealClock returns a RealClock with an empty ENV{} overlay.
func NewRealClock() *RealClock {
	return &RealClock{overlay: make(map[string]string)}
}

// Now returns SOURCE_DATE_EPOCH if it parses as an integer, else the
// current wall-clock time.
func (c *RealClock) Now() int64 {
	if v := c.EnvGet("SOURCE_DATE_EPOCH"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return time.Now().Unix()
}

// EnvGet returns the overlay's value for name, falling through to the
// real process environment.
func (c *RealClock) EnvGet(name string) string {
	if v, ok := c.overlay[name]; ok {
		return v
	}
	return os.Getenv(name)
}

// EnvSet records name=value in the overlay, without touching the real
// process environment.
func (c *RealClock) EnvSet(name, value string) {
	c.overlay[name] = value
}

// EnvUnset removes name from the overlay, so reads fall back to the real
// process environment again.
func (c *RealClock) EnvUnset(name string) {
	delete(c.overlay, name)
}
