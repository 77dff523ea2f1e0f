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
	"testing"

	"github.com/makemcp/gateway/pkg/core"
)

// namedType builds a TypeRef naming a scalar/object/input type directly
// (no NON_NULL/LIST wrapping).
func namedType(kind, name string) *TypeRef {
	return &TypeRef{Kind: kind, Name: name}
}

// userFilterSchema grounds scenario #4/#5 from §8: a root field
// users(where: UserFilter) with UserFilter{name: StringOperationFilterInput,
// age: IntOperationFilterInput}, each *OperationFilterInput carrying eq.
func userFilterSchema() TypeTable {
	return TypeTable{
		"UserFilter": &FullType{
			Kind: "INPUT_OBJECT",
			Name: "UserFilter",
			InputFields: []InputValue{
				{Name: "name", Type: namedType("INPUT_OBJECT", "StringOperationFilterInput")},
				{Name: "age", Type: namedType("INPUT_OBJECT", "IntOperationFilterInput")},
				{Name: "or", Type: &TypeRef{Kind: "LIST", OfType: namedType("INPUT_OBJECT", "UserFilter")}},
			},
		},
		"StringOperationFilterInput": &FullType{
			Kind: "INPUT_OBJECT",
			Name: "StringOperationFilterInput",
			InputFields: []InputValue{
				{Name: "eq", Type: namedType("SCALAR", "String")},
				{Name: "contains", Type: namedType("SCALAR", "String")},
			},
		},
		"IntOperationFilterInput": &FullType{
			Kind: "INPUT_OBJECT",
			Name: "IntOperationFilterInput",
			InputFields: []InputValue{
				{Name: "eq", Type: namedType("SCALAR", "Int")},
			},
		},
	}
}

func TestFlattenFilterOperationalLeafNamesByEnclosingField(t *testing.T) {
	params := FlattenFilter(userFilterSchema(), "UserFilter", 4)

	byName := map[string]core.McpParam{}
	for _, p := range params {
		byName[p.Name] = p
	}

	name, ok := byName["name"]
	if !ok {
		t.Fatalf("expected a %q param, got %v", "name", names(params))
	}
	if !name.Operational {
		t.Error("name param should be marked Operational (renders as { eq: value })")
	}
	if name.Type != "String" {
		t.Errorf("name param type = %q, want String", name.Type)
	}
	if got := name.FieldsPath; len(got) != 1 || got[0] != "name" {
		t.Errorf("name param FieldsPath = %v, want [name]", got)
	}

	age, ok := byName["age"]
	if !ok {
		t.Fatalf("expected an %q param, got %v", "age", names(params))
	}
	if !age.Operational || age.Type != "Int" {
		t.Errorf("age param = %+v, want Operational Int", age)
	}

	if _, ok := byName["or"]; ok {
		t.Error("logical connector 'or' must be skipped entirely")
	}
	if _, ok := byName["name_eq"]; ok {
		t.Error("flattening must not descend into the *OperationFilterInput's own eq/contains members")
	}
}

func names(params []core.McpParam) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

func TestFlattenFilterDeduplicatesByFlatName(t *testing.T) {
	params := FlattenFilter(userFilterSchema(), "UserFilter", 4)
	seen := map[string]int{}
	for _, p := range params {
		seen[p.Name]++
	}
	for name, count := range seen {
		if count > 1 {
			t.Errorf("param %q appeared %d times, want 1", name, count)
		}
	}
}

// TestFlattenFilterCycleGuardTerminates asserts a self-referencing input
// type (not a logical-connector name, so the recursion itself must stop
// it) does not cause unbounded recursion; reaching the assertion at all
// is the test (FlattenFilter is synchronous, so an infinite loop would
// hang the test rather than fail an assertion).
func TestFlattenFilterCycleGuardTerminates(t *testing.T) {
	table := TypeTable{
		"GroupFilter": &FullType{
			Kind: "INPUT_OBJECT",
			Name: "GroupFilter",
			InputFields: []InputValue{
				{Name: "label", Type: namedType("INPUT_OBJECT", "StringOperationFilterInput")},
				{Name: "nested", Type: namedType("INPUT_OBJECT", "GroupFilter")},
			},
		},
		"StringOperationFilterInput": &FullType{
			Kind: "INPUT_OBJECT",
			Name: "StringOperationFilterInput",
			InputFields: []InputValue{
				{Name: "eq", Type: namedType("SCALAR", "String")},
			},
		},
	}

	params := FlattenFilter(table, "GroupFilter", 10)
	if len(params) != 1 || params[0].Name != "label" {
		t.Fatalf("expected only the top-level 'label' param once the cycle guard stops re-entry, got %v", names(params))
	}
}

// TestFlattenFilterBoundedByPathDepth asserts a negative depth bound
// immediately stops descent, so no leaves below the root are reached.
func TestFlattenFilterBoundedByPathDepth(t *testing.T) {
	params := FlattenFilter(userFilterSchema(), "UserFilter", -1)
	if len(params) != 0 {
		t.Errorf("pathDepth -1 should yield no params, got %v", names(params))
	}
}

// TestReconstructWhereSingleOperationalFilter grounds scenario #4:
// users(where: UserFilter), invocation {name: "Ada"} reconstructs
// "name: { eq: "Ada" }".
func TestReconstructWhereSingleOperationalFilter(t *testing.T) {
	params := FlattenFilter(userFilterSchema(), "UserFilter", 4)
	got := ReconstructWhere(params, map[string]any{"name": "Ada"})
	want := `name: { eq: "Ada" }`
	if got != want {
		t.Errorf("ReconstructWhere = %q, want %q", got, want)
	}
}

// TestReconstructWhereMultiBranch grounds scenario #5: {name:"Ada",
// age:30} reconstructs both branches joined by ", ".
func TestReconstructWhereMultiBranch(t *testing.T) {
	params := FlattenFilter(userFilterSchema(), "UserFilter", 4)
	got := ReconstructWhere(params, map[string]any{"name": "Ada", "age": float64(30)})
	want := `name: { eq: "Ada" }, age: { eq: 30 }`
	if got != want {
		t.Errorf("ReconstructWhere = %q, want %q", got, want)
	}
}

func TestReconstructWhereEmptySelection(t *testing.T) {
	params := FlattenFilter(userFilterSchema(), "UserFilter", 4)
	if got := ReconstructWhere(params, map[string]any{}); got != "" {
		t.Errorf("ReconstructWhere with no values = %q, want empty", got)
	}
}

// TestReconstructWhereNestedNonOperationalGroup covers a filter whose
// leaf is reached directly (not through an *OperationFilterInput), to
// exercise the "otherwise" flat-name convention and its round trip.
func TestReconstructWhereNestedNonOperationalGroup(t *testing.T) {
	table := TypeTable{
		"PostFilter": &FullType{
			Kind: "INPUT_OBJECT",
			Name: "PostFilter",
			InputFields: []InputValue{
				{Name: "author", Type: namedType("INPUT_OBJECT", "AuthorRef")},
			},
		},
		"AuthorRef": &FullType{
			Kind: "INPUT_OBJECT",
			Name: "AuthorRef",
			InputFields: []InputValue{
				{Name: "id", Type: namedType("SCALAR", "ID")},
			},
		},
	}

	params := FlattenFilter(table, "PostFilter", 4)
	if len(params) != 1 || params[0].Name != "author_id" {
		t.Fatalf("flattened params = %v, want [author_id]", names(params))
	}

	got := ReconstructWhere(params, map[string]any{"author_id": "u1"})
	want := `author: { id: "u1" }`
	if got != want {
		t.Errorf("ReconstructWhere = %q, want %q", got, want)
	}
}
