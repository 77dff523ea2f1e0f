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

package graphql

import "strings"

// BuildSelectionSet walks the return type named rootType and renders a
// bounded GraphQL selection set string. Scalar fields are emitted
// verbatim; object fields recurse up to pathDepth levels, guarded by a
// per-branch visited-set so a type already on the active path is never
// re-entered. A field named "parent" is skipped outright to break
// parent-back-references; a field named "edges" emits
// only its scalar subfields, never recursing further.
func BuildSelectionSet(table TypeTable, rootType string, pathDepth int) string {
	var b strings.Builder
	writeSelectionSet(&b, table, rootType, pathDepth, map[string]bool{})
	return b.String()
}

func writeSelectionSet(b *strings.Builder, table TypeTable, typeName string, depth int, visited map[string]bool) {
	t, ok := table[typeName]
	if !ok || t.Kind != "OBJECT" || depth < 0 {
		return
	}
	if visited[typeName] {
		return
	}
	branchVisited := make(map[string]bool, len(visited)+1)
	for k := range visited {
		branchVisited[k] = true
	}
	branchVisited[typeName] = true

	b.WriteString("{ ")
	writeFields(b, table, t.Fields, depth, branchVisited)
	b.WriteString("}")
}

func writeFields(b *strings.Builder, table TypeTable, fields []Field, depth int, visited map[string]bool) {
	for _, f := range fields {
		if f.Name == "parent" {
			continue
		}
		named := unwrap(f.Type)
		if named == nil || named.Name == "" {
			continue
		}

		if isScalarKind(named.Kind) {
			b.WriteString(f.Name)
			b.WriteString(" ")
			continue
		}

		if named.Kind != "OBJECT" {
			continue
		}

		if f.Name == "edges" {
			b.WriteString(f.Name)
			b.WriteString(" ")
			writeScalarSubfieldsOnly(b, table, named.Name)
			continue
		}

		if depth == 0 || visited[named.Name] {
			continue
		}

		b.WriteString(f.Name)
		b.WriteString(" ")
		writeSelectionSet(b, table, named.Name, depth-1, visited)
	}
}

// writeScalarSubfieldsOnly renders a nested selection set containing
// only the scalar-kinded fields of typeName, no recursion, as required
// for "edges"-named fields that keep connection pagination compact.
func writeScalarSubfieldsOnly(b *strings.Builder, table TypeTable, typeName string) {
	t, ok := table[typeName]
	if !ok || t.Kind != "OBJECT" {
		return
	}
	b.WriteString("{ ")
	for _, f := range t.Fields {
		named := unwrap(f.Type)
		if named != nil && isScalarKind(named.Kind) {
			b.WriteString(f.Name)
			b.WriteString(" ")
		}
	}
	b.WriteString("}")
}
