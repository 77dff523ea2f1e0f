// Copyright 2025 MakeMCP Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import "strings"

// OperationFilter evaluates whitelist/blacklist glob patterns against
// operation candidates, shared by the OpenAPI compiler (operationId or
// "METHOD:/path/glob" candidates) and the GraphQL compiler (root field
// names, plus "<toolName>.<paramName>" candidates).
//
// Whitelist, if non-empty, restricts matches to operations it retains;
// blacklist is consulted only when whitelist is empty. Both lists are
// evaluated left-to-right, first hit decides.
type OperationFilter struct {
	Whitelist []string
	Blacklist []string
}

// Allows reports whether candidate is retained under the filter, checked
// against every string in candidates (an operation may be matched by more
// than one candidate form, e.g. both its operationId and its
// method-qualified path).
func (f OperationFilter) Allows(candidates ...string) bool {
	if len(f.Whitelist) > 0 {
		for _, pattern := range f.Whitelist {
			for _, candidate := range candidates {
				if globMatch(pattern, candidate) {
					return true
				}
			}
		}
		return false
	}
	for _, pattern := range f.Blacklist {
		for _, candidate := range candidates {
			if globMatch(pattern, candidate) {
				return false
			}
		}
	}
	return true
}

// globMatch matches pattern against candidate using the two-wildcard glob
// convention: "*" matches exactly one path segment, "**" matches any
// number of segments (including zero). Segments are delimited by "/".
// When neither pattern nor candidate contains a "/", the two are matched
// as single opaque tokens (used for operationId-style globs).
func globMatch(pattern, candidate string) bool {
	if !strings.Contains(pattern, "/") && !strings.Contains(candidate, "/") {
		return matchSegment(pattern, candidate)
	}

	patternSegs := strings.Split(pattern, "/")
	candidateSegs := strings.Split(candidate, "/")
	return matchSegments(patternSegs, candidateSegs)
}

func matchSegments(pattern, candidate []string) bool {
	if len(pattern) == 0 {
		return len(candidate) == 0
	}

	head := pattern[0]
	if head == "**" {
		if matchSegments(pattern[1:], candidate) {
			return true
		}
		if len(candidate) == 0 {
			return false
		}
		return matchSegments(pattern, candidate[1:])
	}

	if len(candidate) == 0 {
		return false
	}
	if !matchSegment(head, candidate[0]) {
		return false
	}
	return matchSegments(pattern[1:], candidate[1:])
}

// matchSegment matches a single path segment pattern, where "*" matches
// any run of characters within the segment (shell-glob style, "*" only;
// no "/" can appear on either side here).
func matchSegment(pattern, segment string) bool {
	if pattern == "*" {
		return true
	}
	return wildcardMatch(pattern, segment)
}

// wildcardMatch is a minimal "*"-only glob matcher (no path separators
// possible at this point). Unlike the standard library's path.Match it
// gives "?", "[" and "\" no special meaning and never reports a bad
// pattern.
func wildcardMatch(pattern, s string) bool {
	pi, si := 0, 0
	starIdx, matchIdx := -1, 0
	for si < len(s) {
		if pi < len(pattern) && (pattern[pi] == s[si]) {
			pi++
			si++
		} else if pi < len(pattern) && pattern[pi] == '*' {
			starIdx = pi
			matchIdx = si
			pi++
		} else if starIdx != -1 {
			pi = starIdx + 1
			matchIdx++
			si = matchIdx
		} else {
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}

// SplitMethodQualifiedPattern splits a "METHOD:/path/glob" pattern into
// its method and path-glob parts. If there is no ':', method is "" and
// the whole pattern is the path glob (or operationId glob).
func SplitMethodQualifiedPattern(pattern string) (method, pathGlob string) {
	if idx := strings.Index(pattern, ":"); idx >= 0 && strings.HasPrefix(pattern[idx+1:], "/") {
		return strings.ToUpper(pattern[:idx]), pattern[idx+1:]
	}
	return "", pattern
}
