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

	"github.com/makemcp/gateway/pkg/core"
)

// usersQuerySchema grounds scenario #4/#5/#6 end to end: a Query root
// with a single "users(where: UserFilter, limit: Int)" field.
func usersQuerySchema() *Schema {
	return &Schema{
		QueryTypeName: "Query",
		Types: []FullType{
			{
				Kind: "OBJECT",
				Name: "Query",
				Fields: []Field{
					{
						Name: "users",
						Args: []InputValue{
							{Name: "where", Type: namedType("INPUT_OBJECT", "UserFilter")},
							{Name: "limit", Type: namedType("SCALAR", "Int")},
						},
						Type: list(namedType("OBJECT", "User")),
					},
				},
			},
			{
				Kind: "INPUT_OBJECT",
				Name: "UserFilter",
				InputFields: []InputValue{
					{Name: "name", Type: namedType("INPUT_OBJECT", "StringOperationFilterInput")},
					{Name: "age", Type: namedType("INPUT_OBJECT", "IntOperationFilterInput")},
					{Name: "tenantId", Type: namedType("INPUT_OBJECT", "StringOperationFilterInput")},
				},
			},
			{
				Kind: "INPUT_OBJECT",
				Name: "StringOperationFilterInput",
				InputFields: []InputValue{
					{Name: "eq", Type: namedType("SCALAR", "String")},
				},
			},
			{
				Kind: "INPUT_OBJECT",
				Name: "IntOperationFilterInput",
				InputFields: []InputValue{
					{Name: "eq", Type: namedType("SCALAR", "Int")},
				},
			},
			{
				Kind: "OBJECT",
				Name: "User",
				Fields: []Field{
					{Name: "id", Type: namedType("SCALAR", "ID")},
					{Name: "name", Type: namedType("SCALAR", "String")},
				},
			},
		},
	}
}

func findTool(descriptors []*core.ToolDescriptor, name string) *core.ToolDescriptor {
	for _, d := range descriptors {
		if d.Tool.Name == name {
			return d
		}
	}
	return nil
}

func TestCompileProducesUsersToolWithFlatSchema(t *testing.T) {
	descriptors := Compile(usersQuerySchema(), Config{Endpoint: "https://api.example.com/graphql", SessionDescription: "demo", PathDepth: 4})

	tool := findTool(descriptors, "users")
	if tool == nil {
		t.Fatalf("expected a 'users' tool, got %v", toolNames(descriptors))
	}
	for _, want := range []string{"name", "age", "limit"} {
		if _, ok := tool.Tool.InputSchema.Properties[want]; !ok {
			t.Errorf("inputSchema missing flattened property %q", want)
		}
	}
	if _, ok := tool.Tool.InputSchema.Properties["where"]; ok {
		t.Error("inputSchema must not carry the raw 'where' argument, only its flattened leaves")
	}
}

func toolNames(descriptors []*core.ToolDescriptor) []string {
	out := make([]string, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Tool.Name
	}
	return out
}

// TestCompileDescriptionPrefixIdempotent grounds §8's "idempotence of
// description prefix" property: two compilations with the same
// sessionDescription yield byte-identical descriptions.
func TestCompileDescriptionPrefixIdempotent(t *testing.T) {
	cfg := Config{Endpoint: "https://api.example.com/graphql", SessionDescription: "demo", PathDepth: 4}
	d1 := Compile(usersQuerySchema(), cfg)
	d2 := Compile(usersQuerySchema(), cfg)

	t1, t2 := findTool(d1, "users"), findTool(d2, "users")
	if t1.Tool.Description != t2.Tool.Description {
		t.Errorf("descriptions differ across identical compilations: %q vs %q", t1.Tool.Description, t2.Tool.Description)
	}
	if !strings.HasPrefix(t1.Tool.Description, "MCP description: demo.") {
		t.Errorf("description %q missing session prefix", t1.Tool.Description)
	}
}

// TestCompilePresetParamOmittedFromSchemaButDispatched grounds scenario
// #6: presetParams {tenantId: "t1"} is hidden from the tool's inputSchema
// but still reconstructible into the where literal at dispatch time.
func TestCompilePresetParamOmittedFromSchemaButDispatched(t *testing.T) {
	cfg := Config{
		Endpoint:           "https://api.example.com/graphql",
		SessionDescription: "demo",
		PathDepth:          4,
		PresetParams:       map[string]any{"tenantId": "t1"},
	}
	descriptors := Compile(usersQuerySchema(), cfg)
	tool := findTool(descriptors, "users")
	if tool == nil {
		t.Fatal("expected a users tool")
	}
	if _, ok := tool.Tool.InputSchema.Properties["tenantId"]; ok {
		t.Error("tenantId is a preset and must not appear in the tool's inputSchema")
	}

	plan, ok := tool.Plan.(*core.GraphqlPlan)
	if !ok {
		t.Fatalf("expected a *core.GraphqlPlan, got %T", tool.Plan)
	}

	values := map[string]any{"name": "Ada"}
	for k, v := range plan.PresetParams {
		values[k] = v
	}
	nonPagination := make([]core.McpParam, 0, len(plan.McpParams))
	for _, p := range plan.McpParams {
		if !p.Pagination {
			nonPagination = append(nonPagination, p)
		}
	}
	where := ReconstructWhere(nonPagination, values)
	if !strings.Contains(where, `tenantId: { eq: "t1" }`) {
		t.Errorf("reconstructed where %q should include the injected preset tenantId", where)
	}
}

// TestCompileWhitelistedToolKeepsItsParams asserts a tool-level
// whitelist entry never strips the tool's own parameter surface.
func TestCompileWhitelistedToolKeepsItsParams(t *testing.T) {
	descriptors := Compile(usersQuerySchema(), Config{
		Endpoint:  "https://api.example.com/graphql",
		Filter:    core.OperationFilter{Whitelist: []string{"users"}},
		PathDepth: 4,
	})
	tool := findTool(descriptors, "users")
	if tool == nil {
		t.Fatal("expected a users tool")
	}
	for _, want := range []string{"name", "age", "limit"} {
		if _, ok := tool.Tool.InputSchema.Properties[want]; !ok {
			t.Errorf("whitelisting the tool must keep its %q parameter", want)
		}
	}
}

// TestCompileParamLevelFilterEntries grounds §4.3's per-parameter
// "<toolName>.<paramName>" filter form.
func TestCompileParamLevelFilterEntries(t *testing.T) {
	descriptors := Compile(usersQuerySchema(), Config{
		Endpoint:  "https://api.example.com/graphql",
		Filter:    core.OperationFilter{Blacklist: []string{"users.age"}},
		PathDepth: 4,
	})
	tool := findTool(descriptors, "users")
	if tool == nil {
		t.Fatal("expected a users tool")
	}
	if _, ok := tool.Tool.InputSchema.Properties["age"]; ok {
		t.Error("blacklisted users.age must not appear in the inputSchema")
	}
	if _, ok := tool.Tool.InputSchema.Properties["name"]; !ok {
		t.Error("non-blacklisted name parameter must survive")
	}

	descriptors = Compile(usersQuerySchema(), Config{
		Endpoint:  "https://api.example.com/graphql",
		Filter:    core.OperationFilter{Whitelist: []string{"users.name"}},
		PathDepth: 4,
	})
	tool = findTool(descriptors, "users")
	if tool == nil {
		t.Fatal("a parameter-level whitelist entry implies its tool is wanted")
	}
	if _, ok := tool.Tool.InputSchema.Properties["name"]; !ok {
		t.Error("whitelisted users.name must survive")
	}
	if _, ok := tool.Tool.InputSchema.Properties["age"]; ok {
		t.Error("non-whitelisted age must be dropped once a param whitelist targets this tool")
	}
}

func TestCompileWhitelistFiltersRootFields(t *testing.T) {
	schema := usersQuerySchema()
	schema.Types[0].Fields = append(schema.Types[0].Fields, Field{Name: "posts", Type: list(namedType("OBJECT", "User"))})

	descriptors := Compile(schema, Config{
		Endpoint:  "https://api.example.com/graphql",
		Filter:    core.OperationFilter{Whitelist: []string{"users"}},
		PathDepth: 4,
	})
	if len(descriptors) != 1 || descriptors[0].Tool.Name != "users" {
		t.Fatalf("expected only 'users' to survive whitelist, got %v", toolNames(descriptors))
	}
}
