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

import "fmt"

// AuthPlan carries the preset credentials and static headers a dispatch
// plan injects into every upstream call, before session-dynamic headers
// are layered on top.
type AuthPlan struct {
	SecuritySchemeName string            `json:"securitySchemeName,omitempty"`
	Credential         string            `json:"credential,omitempty"`
	APIKey             string            `json:"apiKey,omitempty"`
	StaticHeaders      map[string]string `json:"staticHeaders,omitempty"`
	DisableXMcp        bool              `json:"disableXMcp,omitempty"`
}

// RestParam is one path/query/header/cookie parameter binding recorded on
// a RestPlan, keyed by its top-level inputSchema property name.
type RestParam struct {
	Name     string `json:"name"`
	Location string `json:"location"` // path | query | header | cookie
	Required bool   `json:"required"`
}

// RestPlan is the opaque dispatch plan for an OpenAPI-derived tool.
type RestPlan struct {
	Method            string      `json:"method"`
	PathTemplate      string      `json:"pathTemplate"`
	BaseURL           string      `json:"baseUrl"`
	ContentType       string      `json:"contentType"`
	Parameters        []RestParam `json:"parameters"`
	RequestBodySchema bool        `json:"hasRequestBody"`
	// BodyPropertyNames are the hoisted top-level property names of the
	// request body schema, used to assemble the body from either the
	// synthetic "requestBody" input or the hoisted top-level properties,
	// whichever the caller supplied.
	BodyPropertyNames []string `json:"bodyPropertyNames,omitempty"`
	Auth              AuthPlan `json:"auth"`
}

// McpParam is a single flattened GraphQL filter or pagination leaf, as
// defined by the GraphQL compiler's where-flattening algorithm.
type McpParam struct {
	Name        string   `json:"name"`        // flat identifier
	Type        string   `json:"type"`        // scalar kind (String, Int, Boolean, ...)
	Path        []string `json:"path"`        // chain of input-object type names
	FieldsPath  []string `json:"fieldsPath"`  // chain of input field names
	Description string   `json:"description"`
	Operational bool     `json:"operational"` // true when leaf renders as {eq: value}
	Pagination  bool     `json:"pagination"`  // true for top-level pagination args
}

// GraphqlPlan is the opaque dispatch plan for a GraphQL-derived tool.
type GraphqlPlan struct {
	RootFieldName  string            `json:"rootFieldName"`
	SelectionSet   string            `json:"selectionSet"`
	McpParams      []McpParam        `json:"mcpParams"`
	PaginationArgs []string          `json:"paginationArgNames"`
	Endpoint       string            `json:"endpoint"`
	PresetParams   map[string]any    `json:"presetParams,omitempty"`
	Auth           AuthPlan          `json:"auth"`
	StaticHeaders  map[string]string `json:"staticHeaders,omitempty"`
}

// ToolDescriptor is the compiled, transport-agnostic representation of a
// single tool, produced by either the OpenAPI or the GraphQL compiler and
// consumed by the Dispatch Engine. Plan holds *RestPlan or *GraphqlPlan.
type ToolDescriptor struct {
	Tool McpTool
	Plan any
}

// DisambiguateNames enforces the tool-name uniqueness invariant: repeated
// names are suffixed "_2", "_3", ... in discovery order, matching the
// order names are first encountered.
func DisambiguateNames(names []string) []string {
	seen := make(map[string]int, len(names))
	result := make([]string, len(names))
	for i, name := range names {
		seen[name]++
		if count := seen[name]; count == 1 {
			result[i] = name
		} else {
			result[i] = fmt.Sprintf("%s_%d", name, count)
		}
	}
	return result
}
