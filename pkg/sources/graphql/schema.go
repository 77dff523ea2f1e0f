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

// Package graphql compiles a GraphQL introspection result into MCP tool
// descriptors: one tool per query-root field, with a bounded selection
// set and a flattened filter parameter surface.
package graphql

// TypeRef mirrors a single "__Type" reference node from an introspection
// response: either a named type, or a NON_NULL/LIST wrapper around
// another TypeRef via OfType.
type TypeRef struct {
	Kind   string   `json:"kind"`
	Name   string   `json:"name"`
	OfType *TypeRef `json:"ofType"`
}

// InputValue mirrors "__InputValue": an argument or input-object field.
type InputValue struct {
	Name string   `json:"name"`
	Type *TypeRef `json:"type"`
}

// Field mirrors "__Field": an object type's field, with its own
// arguments and return type.
type Field struct {
	Name string       `json:"name"`
	Args []InputValue `json:"args"`
	Type *TypeRef     `json:"type"`
}

// FullType mirrors "__Type" as it appears in the schema's top-level
// "types" array: a fully described named type.
type FullType struct {
	Kind        string       `json:"kind"`
	Name        string       `json:"name"`
	Fields      []Field      `json:"fields"`
	InputFields []InputValue `json:"inputFields"`
}

// Schema is this repo's typed mirror of a GraphQL introspection result's
// "__schema" payload.
type Schema struct {
	QueryTypeName string     `json:"queryTypeName"`
	Types         []FullType `json:"types"`
}

// introspectionData matches the payload under the response's "data" key:
// the shape machinebox/graphql hands back after unwrapping the envelope.
type introspectionData struct {
	Schema struct {
		QueryType struct {
			Name string `json:"name"`
		} `json:"queryType"`
		Types []FullType `json:"types"`
	} `json:"__schema"`
}

// introspectionResponse is the full response envelope, as captured to a
// file by tools that save the raw HTTP body rather than just its data.
type introspectionResponse struct {
	Data introspectionData `json:"data"`
}

// TypeTable is the flat, index-based map of type name to its full
// description, built once per schema. Traversal never recurses on the
// raw introspection tree; it looks up named types here instead.
type TypeTable map[string]*FullType

// BuildTypeTable indexes every type in the schema by name.
func BuildTypeTable(schema *Schema) TypeTable {
	table := make(TypeTable, len(schema.Types))
	for i := range schema.Types {
		t := &schema.Types[i]
		table[t.Name] = t
	}
	return table
}

// QueryRootFields returns the fields of the schema's query root type
// (the type named schema.QueryTypeName, defaulting to "Query").
func (s *Schema) QueryRootFields(table TypeTable) []Field {
	name := s.QueryTypeName
	if name == "" {
		name = "Query"
	}
	root, ok := table[name]
	if !ok {
		return nil
	}
	return root.Fields
}

// unwrap follows NON_NULL and LIST wrapper chains to the innermost named
// type, bounded by a fixed iteration cap rather than recursion, per the
// index-based traversal design: no single GraphQL schema nests wrappers
// more than a handful of levels deep, so a generous cap is a safety net,
// not a real limit.
const maxUnwrapDepth = 32

func unwrap(t *TypeRef) *TypeRef {
	cur := t
	for i := 0; i < maxUnwrapDepth && cur != nil && cur.OfType != nil; i++ {
		cur = cur.OfType
	}
	return cur
}

// isScalarKind reports whether kind denotes a leaf value type (as opposed
// to OBJECT/INPUT_OBJECT, which need further traversal).
func isScalarKind(kind string) bool {
	switch kind {
	case "SCALAR", "ENUM":
		return true
	default:
		return false
	}
}
