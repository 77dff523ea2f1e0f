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
	"fmt"
	"strconv"
	"strings"

	"github.com/makemcp/gateway/pkg/core"
)

// operationFilterInputSuffix marks an input type as an "operational
// filter" (conventionally holding eq, gt, lt, ...); this core only ever
// renders the eq branch.
const operationFilterInputSuffix = "OperationFilterInput"

var logicalConnectors = map[string]bool{"or": true, "and": true, "any": true}

// FlattenFilter descends the input-object type named whereArgType,
// bounded by pathDepth and a cycle guard, producing one core.McpParam
// per leaf, deduplicated by flat name (first occurrence wins).
func FlattenFilter(table TypeTable, whereArgType string, pathDepth int) []core.McpParam {
	var out []core.McpParam
	seen := map[string]bool{}
	walkFilterType(table, whereArgType, pathDepth, map[string]bool{}, nil, nil, &out, seen)
	return out
}

func walkFilterType(table TypeTable, typeName string, depth int, visited map[string]bool, path, fieldsPath []string, out *[]core.McpParam, seen map[string]bool) {
	if depth < 0 || visited[typeName] {
		return
	}
	t, ok := table[typeName]
	if !ok || t.Kind != "INPUT_OBJECT" {
		return
	}

	branchVisited := make(map[string]bool, len(visited)+1)
	for k := range visited {
		branchVisited[k] = true
	}
	branchVisited[typeName] = true
	branchPath := append(append([]string{}, path...), typeName)

	for _, field := range t.InputFields {
		if logicalConnectors[field.Name] {
			continue
		}
		named := unwrap(field.Type)
		if named == nil || named.Name == "" {
			continue
		}
		childFieldsPath := append(append([]string{}, fieldsPath...), field.Name)

		if named.Kind == "INPUT_OBJECT" {
			if strings.Contains(named.Name, operationFilterInputSuffix) {
				// An *OperationFilterInput (e.g. StringOperationFilterInput)
				// is itself the leaf: the field that carries it (e.g.
				// "name") is the flat parameter, not its eq/gt/lt members.
				emitOperationalLeaf(table, branchPath, childFieldsPath, named, out, seen)
				continue
			}
			walkFilterType(table, named.Name, depth-1, branchVisited, branchPath, childFieldsPath, out, seen)
			continue
		}

		emitFilterLeaf(branchPath, fieldsPath, field.Name, named, out, seen)
	}
}

// emitOperationalLeaf emits the McpParam for a field whose type is an
// *OperationFilterInput. Per §4.3's convention, the flat name is just
// fieldsPath.join("_") (the enclosing field name, not "eq"); the scalar
// kind is read off the filter input's own "eq" member so the leaf's
// JSON-Schema type and literal rendering match what it actually filters.
func emitOperationalLeaf(table TypeTable, path, fieldsPath []string, filterInputType *TypeRef, out *[]core.McpParam, seen map[string]bool) {
	flatName := strings.Join(fieldsPath, "_")
	if seen[flatName] {
		return
	}
	seen[flatName] = true

	scalarName := operationalScalarType(table, filterInputType.Name)
	description := fmt.Sprintf(
		"Filter parameter with next hierarcy of fields \"%s\" and type of \"%s\"",
		strings.Join(fieldsPath, " -> "), scalarName,
	)

	*out = append(*out, core.McpParam{
		Name:        flatName,
		Type:        scalarName,
		Path:        append(append([]string{}, path...), filterInputType.Name),
		FieldsPath:  fieldsPath,
		Description: description,
		Operational: true,
	})
}

// operationalScalarType looks up the scalar type name of the "eq" member
// of an *OperationFilterInput type, falling back to "String" if absent.
func operationalScalarType(table TypeTable, filterInputTypeName string) string {
	t, ok := table[filterInputTypeName]
	if !ok {
		return "String"
	}
	for _, field := range t.InputFields {
		if field.Name != "eq" {
			continue
		}
		if named := unwrap(field.Type); named != nil && named.Name != "" {
			return named.Name
		}
	}
	return "String"
}

// emitFilterLeaf emits the McpParam for a leaf scalar field reached
// directly (not via an *OperationFilterInput wrapper). parentFieldsPath
// is the accumulated field path NOT including leafName; the flat name
// and stored FieldsPath both append leafName exactly once.
func emitFilterLeaf(path, parentFieldsPath []string, leafName string, scalarType *TypeRef, out *[]core.McpParam, seen map[string]bool) {
	fieldsPath := append(append([]string{}, parentFieldsPath...), leafName)
	flatName := strings.Join(parentFieldsPath, "_") + "_" + leafName
	if len(parentFieldsPath) == 0 {
		flatName = leafName
	}

	if seen[flatName] {
		return
	}
	seen[flatName] = true

	description := fmt.Sprintf(
		"Filter parameter with next hierarcy of fields \"%s\" and type of \"%s\"",
		strings.Join(fieldsPath, " -> "), scalarType.Name,
	)

	*out = append(*out, core.McpParam{
		Name:        flatName,
		Type:        scalarType.Name,
		Path:        path,
		FieldsPath:  fieldsPath,
		Description: description,
		Operational: false,
	})
}

// ReconstructWhere rebuilds a GraphQL "where" literal from a flat
// user-supplied filters map, given the McpParams the tool's where
// argument was flattened into. It is the dispatch-time inverse of
// FlattenFilter.
func ReconstructWhere(params []core.McpParam, values map[string]any) string {
	var selected []core.McpParam
	for _, p := range params {
		if _, ok := values[p.Name]; ok {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		return ""
	}
	return reconstructLevel(selected, values, 0)
}

// reconstructLevel groups the selected params by their fieldsPath[level]
// entry and renders one object literal, recursing per group until a
// leaf is reached.
func reconstructLevel(params []core.McpParam, values map[string]any, level int) string {
	var order []string
	groups := map[string][]core.McpParam{}

	for _, p := range params {
		if level >= len(p.FieldsPath) {
			continue
		}
		key := p.FieldsPath[level]
		if _, exists := groups[key]; !exists {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	var parts []string
	for _, key := range order {
		members := groups[key]
		var inner string
		atLeaf := level+1 >= len(members[0].FieldsPath)
		if atLeaf {
			inner = renderLeaf(members[0], values[members[0].Name])
		} else {
			inner = "{ " + reconstructLevel(members, values, level+1) + " }"
		}
		parts = append(parts, fmt.Sprintf("%s: %s", key, inner))
	}

	return strings.Join(parts, ", ")
}

// renderLeaf renders the value side of a leaf's "<name>: ..." pair. The
// leaf's own field name is already emitted by reconstructLevel (it is the
// last FieldsPath entry), so a non-operational leaf is just the literal;
// an operational-filter leaf wraps it in the { eq: ... } convention.
func renderLeaf(p core.McpParam, value any) string {
	literal := renderScalarLiteral(p.Type, value)
	if p.Operational {
		return fmt.Sprintf("{ eq: %s }", literal)
	}
	return literal
}

// renderScalarLiteral renders value as a GraphQL value literal, using
// scalarType to decide whether it needs quoting (strings/enums) or not
// (numbers/booleans).
func renderScalarLiteral(scalarType string, value any) string {
	switch v := value.(type) {
	case string:
		switch strings.ToLower(scalarType) {
		case "int", "float", "boolean":
			return v
		default:
			return strconv.Quote(v)
		}
	case bool:
		return strconv.FormatBool(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
