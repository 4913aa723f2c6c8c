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

// Command cmakeforge reads a single CMakeLists.txt, runs it through the
// lexer/parser/evaluator/builder/freezer pipeline, and reports the
// resulting Build Model's shape plus any diagnostics. It exits non-zero
// whenever the pipeline logged an ERROR.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kythe/cmakeforge/cmakelib/buildmodel"
	"github.com/kythe/cmakeforge/cmakelib/diagnostics"
	"github.com/kythe/cmakeforge/workspace"
	"github.com/kythe/cmakeforge/pipeline"
	"github.com/kythe/cmakeforge/writer"
)

var (
	sourceDir    = flag.String("source-dir", ".", "directory containing the root CMakeLists.txt")
	binaryDir    = flag.String("binary-dir", "", "build output directory; defaults to source-dir")
	strictMode   = flag.Bool("strict", false, "promote every WARNING diagnostic to ERROR")
	continueFatal = flag.Bool("continue-on-fatal-error", false, "keep evaluating past a fatal runtime error instead of aborting the run")
	compatProfile = flag.String("compat-profile", "STRICT", "one of STRICT, CMAKE_3_X, or LENIENT")
	maxBlockDepth = flag.Int("max-block-depth", 0, "override the default nested-block limit (0 = default)")
	maxParenDepth = flag.Int("max-paren-depth", 0, "override the default nested-parenthesis limit (0 = default)")
	unsupportedLog = flag.Bool("write-unsupported-log", false, "append a <basename>_unsupported_commands.log telemetry report in source-dir")
	configureLog  = flag.Bool("write-configure-log", false, "append this run's diagnostics to <binary-dir>/CMakeFiles/CMakeConfigureLog.yaml")
	dumpBzl       = flag.String("dump-bzl", "", "write a best-effort Starlark transcript of the evaluated commands to this path, for downstream codegen prototyping")
)

func main() {
	flag.Parse()

	root := *sourceDir
	bin := *binaryDir
	if bin == "" {
		bin = root
	}

	listPath := filepath.Join(root, "CMakeLists.txt")
	source, err := os.ReadFile(listPath)
	if err != nil {
		log.Fatalf("cmakeforge: %v", err)
	}

	sink := diagnostics.New(os.Stderr)
	cfg := pipeline.Config{
		StrictMode:           *strictMode,
		ContinueOnFatalError: *continueFatal,
		CompatProfile:        strings.ToUpper(*compatProfile),
		MaxBlockDepth:        *maxBlockDepth,
		MaxParenDepth:        *maxParenDepth,
		SourceDir:            root,
		BinaryDir:            bin,
	}
	clock := workspace.NewRealClock()
	p := pipeline.New(workspace.RealIO{}, workspace.RealProcessRunner{}, clock, sink, cfg)

	frozen, runErr := p.Run(source, listPath)

	if *unsupportedLog {
		reportPath := filepath.Join(root, strings.TrimSuffix(filepath.Base(listPath), filepath.Ext(listPath))+"_unsupported_commands.log")
		f, err := os.OpenFile(reportPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("cmakeforge: opening unsupported-command log: %v", err)
		}
		if err := p.WriteUnsupportedReport(f, clock.Now(), listPath); err != nil {
			f.Close()
			log.Fatalf("cmakeforge: writing unsupported-command log: %v", err)
		}
		f.Close()
	}

	if *configureLog {
		if err := p.AppendConfigureLog(); err != nil {
			log.Fatalf("cmakeforge: writing configure log: %v", err)
		}
	}

	for _, r := range sink.Records() {
		fmt.Fprintln(os.Stderr, r)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "cmakeforge: %v\n", runErr)
		os.Exit(1)
	}

	fmt.Printf("project %q: %d target(s), %d test(s), %d install rule(s)\n",
		frozen.Project.Name, len(frozen.Targets), len(frozen.Tests), len(frozen.InstallRules))

	if *dumpBzl != "" {
		if err := dumpStarlark(frozen, *dumpBzl); err != nil {
			log.Fatalf("cmakeforge: -dump-bzl: %v", err)
		}
	}
}

// dumpStarlark is a demonstration of how a downstream code generator
// could consume a Frozen Build Model: it is not a faithful Starlark BUILD
// file (no load()s, no dependency mapping to external repos), just a
// readable transcript of each target's declared shape via the kept
// writer.StarlarkWriter emitter.
func dumpStarlark(fr *buildmodel.Frozen, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := writer.NewStarlarkWriter(f)
	if err := w.BeginMacro("generated_targets"); err != nil {
		return err
	}
	for _, t := range fr.Targets {
		args := append([]string{t.Name}, t.Sources...)
		cmd := targetCommandName(t.Type)
		if err := w.WriteCommand(cmd, args...); err != nil {
			return err
		}
	}
	return w.EndMacro()
}

func targetCommandName(t buildmodel.TargetType) string {
	switch t {
	case buildmodel.Executable:
		return "add_executable"
	case buildmodel.InterfaceLibrary:
		return "add_library_interface"
	default:
		return "add_library"
	}
}
