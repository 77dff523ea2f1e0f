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
	"strings"

	"github.com/makemcp/gateway/pkg/core"
)

// BuildPaginationParams turns a root field's scalar-typed arguments
// (everything except "where") into top-level McpParams.
func BuildPaginationParams(field Field) []core.McpParam {
	var out []core.McpParam
	for _, arg := range field.Args {
		if arg.Name == "where" {
			continue
		}
		named := unwrap(arg.Type)
		if named == nil || !isScalarKind(named.Kind) {
			continue
		}
		out = append(out, core.McpParam{
			Name:        arg.Name,
			Type:        named.Name,
			Description: fmt.Sprintf("Parameter: %s", arg.Name),
			Pagination:  true,
		})
	}
	return out
}

// BuildPaginationArgs renders the inline pagination argument list
// ("<name>: <value>, ..."), numeric/boolean kinds unquoted and strings
// double-quoted.
func BuildPaginationArgs(params []core.McpParam, values map[string]any) string {
	var parts []string
	for _, p := range params {
		value, ok := values[p.Name]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", p.Name, renderScalarLiteral(p.Type, value)))
	}
	return strings.Join(parts, ", ")
}
