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

package logic

import "regexp"

// compileCMakeRegexp compiles a MATCHES pattern. CMake's own regex dialect
// (a traditional egrep-derived one) and RE2 agree on every construct this
// project's scenarios use (character classes, anchors, quantifiers,
// alternation, groups); no example in the corpus pulls in a backtracking
// engine, so the standard library's RE2-based regexp is used directly
// rather than adding a second regex dependency for a gap that isn't
// exercised.
func compileCMakeRegexp(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(pattern)
}
