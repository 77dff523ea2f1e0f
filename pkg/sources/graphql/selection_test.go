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

import (
	"strings"
	"testing"
)

func nonNull(inner *TypeRef) *TypeRef { return &TypeRef{Kind: "NON_NULL", OfType: inner} }
func list(inner *TypeRef) *TypeRef    { return &TypeRef{Kind: "LIST", OfType: inner} }

// userObjectSchema builds a small object graph: User{id, name, parent:
// User, friends: [User]} to exercise the selection-set builder's
// scalar-emission, recursion bound, cycle guard, and "parent" skip rule.
func userObjectSchema() TypeTable {
	return TypeTable{
		"User": &FullType{
			Kind: "OBJECT",
			Name: "User",
			Fields: []Field{
				{Name: "id", Type: namedType("SCALAR", "ID")},
				{Name: "name", Type: namedType("SCALAR", "String")},
				{Name: "parent", Type: namedType("OBJECT", "User")},
				{Name: "friends", Type: list(namedType("OBJECT", "User"))},
			},
		},
	}
}

func TestBuildSelectionSetScalarFieldsEmitted(t *testing.T) {
	set := BuildSelectionSet(userObjectSchema(), "User", 2)
	if !strings.Contains(set, "id") || !strings.Contains(set, "name") {
		t.Errorf("selection set %q missing scalar fields id/name", set)
	}
}

func TestBuildSelectionSetSkipsParentField(t *testing.T) {
	set := BuildSelectionSet(userObjectSchema(), "User", 2)
	if strings.Contains(set, "parent") {
		t.Errorf("selection set %q must not include the 'parent' back-reference field", set)
	}
}

func TestBuildSelectionSetBoundedDepth(t *testing.T) {
	// depth 0 must still emit User's own scalars but not recurse into
	// "friends" (an OBJECT field), matching the "maximum nesting <= d+1"
	// invariant from §8.
	set := BuildSelectionSet(userObjectSchema(), "User", 0)
	if !strings.Contains(set, "id") {
		t.Errorf("selection set %q should still include top-level scalars at depth 0", set)
	}
	if strings.Contains(set, "friends") {
		t.Errorf("selection set %q should not recurse into 'friends' at depth 0", set)
	}
}

func TestBuildSelectionSetDeterministic(t *testing.T) {
	table := userObjectSchema()
	a := BuildSelectionSet(table, "User", 3)
	b := BuildSelectionSet(table, "User", 3)
	if a != b {
		t.Errorf("selection set is not deterministic: %q != %q", a, b)
	}
}

// TestBuildSelectionSetEdgesScalarOnly grounds the "edges"-named-field
// special rule: only scalar subfields are emitted, never a recursive
// selection set, even when the edges type itself has object fields.
func TestBuildSelectionSetEdgesScalarOnly(t *testing.T) {
	table := TypeTable{
		"UserConnection": &FullType{
			Kind: "OBJECT",
			Name: "UserConnection",
			Fields: []Field{
				{Name: "edges", Type: namedType("OBJECT", "UserEdge")},
				{Name: "totalCount", Type: namedType("SCALAR", "Int")},
			},
		},
		"UserEdge": &FullType{
			Kind: "OBJECT",
			Name: "UserEdge",
			Fields: []Field{
				{Name: "cursor", Type: namedType("SCALAR", "String")},
				{Name: "node", Type: namedType("OBJECT", "User")},
			},
		},
		"User": &FullType{
			Kind: "OBJECT",
			Name: "User",
			Fields: []Field{
				{Name: "id", Type: namedType("SCALAR", "ID")},
			},
		},
	}

	set := BuildSelectionSet(table, "UserConnection", 4)
	if !strings.Contains(set, "cursor") {
		t.Errorf("selection set %q should include edges' own scalar field cursor", set)
	}
	if strings.Contains(set, "node") {
		t.Errorf("selection set %q must not recurse into edges.node (edges rule keeps connections scalar-only)", set)
	}
}

func TestBuildPaginationParams(t *testing.T) {
	field := Field{
		Name: "users",
		Args: []InputValue{
			{Name: "where", Type: namedType("INPUT_OBJECT", "UserFilter")},
			{Name: "limit", Type: namedType("SCALAR", "Int")},
			{Name: "offset", Type: nonNull(namedType("SCALAR", "Int"))},
		},
	}

	params := BuildPaginationParams(field)
	if len(params) != 2 {
		t.Fatalf("expected 2 pagination params (where excluded), got %d: %v", len(params), names(params))
	}
	for _, p := range params {
		if !p.Pagination {
			t.Errorf("param %q should be marked Pagination", p.Name)
		}
	}
}

func TestBuildPaginationArgsRendersInline(t *testing.T) {
	field := Field{
		Name: "users",
		Args: []InputValue{
			{Name: "limit", Type: namedType("SCALAR", "Int")},
			{Name: "cursor", Type: namedType("SCALAR", "String")},
		},
	}
	params := BuildPaginationParams(field)
	got := BuildPaginationArgs(params, map[string]any{"limit": float64(10), "cursor": "abc"})
	want := "limit: 10, cursor: \"abc\""
	if got != want {
		t.Errorf("BuildPaginationArgs = %q, want %q", got, want)
	}
}
