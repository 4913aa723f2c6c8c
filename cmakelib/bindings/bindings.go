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

// Package bindings implements CMake-style variable bindings: the ordinary
// scope stack, the persistent cache store, and the process-environment
// overlay.
// https://cmake.org/cmake/help/latest/manual/cmake-language.7.html#variables
package bindings

import "log"

// CacheEntry holds a cache variable's value together with the metadata
// `set(... CACHE type doc)` records alongside it.
type CacheEntry struct {
	Value string
	Type  string // BOOL, STRING, PATH, FILEPATH, INTERNAL, ...
	Doc   string
	Force bool
}

// Mapping is a stack of map[string]string for CMake variables, plus the
// cache store and the environment-variable overlay that sit beside it.
type Mapping struct {
	vs      []map[string]string
	defined []map[string]bool // tracks set-but-empty vs never-set, for DEFINED
	cache   map[string]CacheEntry
	env     map[string]string
	envGet  func(string) string // real process environment; overridable for tests
}

// New returns a new, empty, variable stack.
func New() *Mapping {
	m := &Mapping{
		cache:  make(map[string]CacheEntry),
		env:    make(map[string]string),
		envGet: realEnvGet,
	}
	m.Push()
	return m
}

// Push pushes a new variable binding scope.
func (m *Mapping) Push() {
	m.vs = append(m.vs, make(map[string]string))
	m.defined = append(m.defined, make(map[string]bool))
}

// Pop removes the most recently pushed scope.
func (m *Mapping) Pop() {
	m.vs = m.vs[0 : len(m.vs)-1]
	m.defined = m.defined[0 : len(m.defined)-1]
}

// Depth returns the current mapping depth starting from 0.
func (m *Mapping) Depth() int {
	return len(m.vs) - 1
}

// Set sets a key to a particular value in the current scope.
func (m *Mapping) Set(key, value string) {
	m.vs[len(m.vs)-1][key] = value
	m.defined[len(m.defined)-1][key] = true
}

// Unset removes a key from the current scope entirely, so DEFINED on it
// (absent a shadowed parent binding) reports false again.
func (m *Mapping) Unset(key string) {
	delete(m.vs[len(m.vs)-1], key)
	delete(m.defined[len(m.defined)-1], key)
}

// SetParent sets a key to a particular value in the parent scope.
func (m *Mapping) SetParent(key, value string) {
	if m.Depth() == 0 {
		log.Println("Attempt to set", key, "in PARENT_SCOPE at root")
		return
	}
	m.vs[len(m.vs)-2][key] = value
	m.defined[len(m.defined)-2][key] = true
}

// SetCache sets a key to a particular value in CACHE scope, recording the
// type/doc/force metadata `set(... CACHE ...)` carries. An existing entry
// is left untouched unless force is true.
func (m *Mapping) SetCache(key, value, typ, doc string, force bool) {
	if _, ok := m.cache[key]; ok && !force {
		return
	}
	m.cache[key] = CacheEntry{Value: value, Type: typ, Doc: doc, Force: force}
}

// UnsetCache removes a cache entry.
func (m *Mapping) UnsetCache(key string) {
	delete(m.cache, key)
}

// Get looks from the current scope up to find the nearest value for key.
// If the key is absent, returns the empty string.
// This matches the semantics of CMake variable lookup, which falls through
// to the cache when the ordinary scope stack has no binding at all.
func (m *Mapping) Get(key string) string {
	for i := len(m.vs) - 1; i >= 0; i-- {
		if val, ok := m.vs[i][key]; ok {
			return val
		}
	}
	return m.GetCache(key)
}

// GetCache returns the associated value from the variable cache or an empty string if not found.
func (m *Mapping) GetCache(key string) string {
	return m.cache[key].Value
}

// CacheEntryFor returns the full cache entry and whether it exists.
func (m *Mapping) CacheEntryFor(key string) (CacheEntry, bool) {
	e, ok := m.cache[key]
	return e, ok
}

// GetEnv returns the overlay's value for key if `set(ENV{key} ...)` has
// been called, otherwise falls through to the real process environment.
func (m *Mapping) GetEnv(key string) string {
	if val, ok := m.env[key]; ok {
		return val
	}
	return m.envGet(key)
}

// SetEnv records an ENV{} overlay entry.
func (m *Mapping) SetEnv(key, value string) {
	m.env[key] = value
}

// UnsetEnv removes an ENV{} overlay entry, so subsequent reads fall back to
// the real process environment again.
func (m *Mapping) UnsetEnv(key string) {
	delete(m.env, key)
}

// Defined reports whether key is bound (even to the empty string) in the
// scope stack or the cache — the semantics if(DEFINED name) needs, which
// Get alone can't provide since an empty string is ambiguous with absence.
func (m *Mapping) Defined(key string) bool {
	for i := len(m.vs) - 1; i >= 0; i-- {
		if m.defined[i][key] {
			return true
		}
	}
	_, ok := m.cache[key]
	return ok
}

// Values returns the currently set values as a map[string]string.
func (m *Mapping) Values() map[string]string {
	vals := make(map[string]string)
	for _, v := range m.vs {
		for key, val := range v {
			if val == "" {
				delete(vals, key)
			} else {
				vals[key] = val
			}
		}
	}
	return vals
}
