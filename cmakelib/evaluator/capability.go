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

import "github.com/kythe/cmakeforge/cmakelib/ast"

// Level is a built-in command's implementation depth.
type Level int

const (
	// Full means every documented form of the command is handled.
	Full Level = iota
	// Partial means the common forms are handled but some keyword
	// combinations fall through to a diagnostic instead of being applied.
	Partial
	// Missing means the command is recognized (so dispatch doesn't treat
	// it as unknown) but has no effect beyond telemetry.
	Missing
)

func (l Level) String() string {
	switch l {
	case Full:
		return "FULL"
	case Partial:
		return "PARTIAL"
	case Missing:
		return "MISSING"
	default:
		return "UNKNOWN"
	}
}

// Capability is one built-in command's introspection record.
type Capability struct {
	Name  string
	Level Level
	Usage string
}

type builtin struct {
	cap Capability
	fn  handlerFunc
}

// handlerFunc is a built-in command implementation. args is the
// already-expanded, already-list-split argument vector.
type handlerFunc func(e *Evaluator, cmd *ast.CommandInvocation, args []string) error

// Capabilities returns the full Command Capability table, sorted by name,
// for introspection (§4.5.2).
func (e *Evaluator) Capabilities() []Capability {
	out := make([]Capability, 0, len(e.builtins))
	for _, b := range e.builtins {
		out = append(out, b.cap)
	}
	sortCapabilities(out)
	return out
}

func sortCapabilities(caps []Capability) {
	for i := 1; i < len(caps); i++ {
		for j := i; j > 0 && caps[j].Name < caps[j-1].Name; j-- {
			caps[j], caps[j-1] = caps[j-1], caps[j]
		}
	}
}
