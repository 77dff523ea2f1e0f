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

package openapi

import (
	"testing"

	"github.com/pb33f/libopenapi"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/makemcp/gateway/pkg/core"
)

const petstoreSpec = `
openapi: 3.0.3
info:
  title: Pets
  version: "1.0"
paths:
  /pets/{id}:
    get:
      operationId: getPet
      summary: Fetch a pet by id
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: integer
      responses:
        "200":
          description: ok
  /pets:
    post:
      summary: Create a pet
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                name:
                  type: string
                age:
                  type: integer
              required:
                - name
      responses:
        "201":
          description: created
    get:
      x-mcp:
        name: listAllPets
        description: override description
      responses:
        "200":
          description: ok
`

func buildDoc(t *testing.T, spec string) *libopenapi.DocumentModel[v3.Document] {
	t.Helper()
	doc, err := libopenapi.NewDocument([]byte(spec))
	if err != nil {
		t.Fatalf("failed to parse spec: %v", err)
	}
	model, errs := doc.BuildV3Model()
	if len(errs) > 0 {
		t.Fatalf("failed to build v3 model: %v", errs)
	}
	return model
}

func findDescriptor(descriptors []*core.ToolDescriptor, name string) *core.ToolDescriptor {
	for _, d := range descriptors {
		if d.Tool.Name == name {
			return d
		}
	}
	return nil
}

// TestCompileToolNamePriority grounds §4.2: xMcp.name wins over
// operationId, operationId wins over METHOD_path.
func TestCompileToolNamePriority(t *testing.T) {
	model := buildDoc(t, petstoreSpec)
	descriptors, err := Compile(model, Config{BaseURL: "https://api.example.com", SessionDescription: "demo"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if d := findDescriptor(descriptors, "getPet"); d == nil {
		t.Error("expected operationId 'getPet' to be used as the tool name")
	}
	if d := findDescriptor(descriptors, "listAllPets"); d == nil {
		t.Error("expected x-mcp.name override 'listAllPets' to win over the missing operationId")
	}
	if d := findDescriptor(descriptors, "post__pets"); d == nil {
		t.Error("expected the POST /pets operation (no operationId, no x-mcp) to fall back to METHOD_path")
	}
}

// TestCompileDescriptionFallbackChain grounds the resolveDescription
// hierarchy: description -> summary -> pathItem summary -> "".
func TestCompileDescriptionFallbackChain(t *testing.T) {
	model := buildDoc(t, petstoreSpec)
	descriptors, err := Compile(model, Config{BaseURL: "https://api.example.com", SessionDescription: "demo"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	getPet := findDescriptor(descriptors, "getPet")
	if getPet == nil {
		t.Fatal("missing getPet tool")
	}
	want := "MCP description: demo. Tool description: Fetch a pet by id"
	if getPet.Tool.Description != want {
		t.Errorf("description = %q, want %q", getPet.Tool.Description, want)
	}

	listAll := findDescriptor(descriptors, "listAllPets")
	if listAll == nil {
		t.Fatal("missing listAllPets tool")
	}
	want = "MCP description: demo. Tool description: override description"
	if listAll.Tool.Description != want {
		t.Errorf("description = %q, want %q (x-mcp override)", listAll.Tool.Description, want)
	}
}

// TestCompilePathParameterAndBodyHoisting grounds §8 scenario #1 and the
// requestBody-hoisting rule: path params become RestParams, body
// properties are listed under the synthetic "requestBody" inputSchema
// property and recorded as BodyPropertyNames for dispatch-time reassembly.
func TestCompilePathParameterAndBodyHoisting(t *testing.T) {
	model := buildDoc(t, petstoreSpec)
	descriptors, err := Compile(model, Config{BaseURL: "https://api.example.com", SessionDescription: "demo"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	getPet := findDescriptor(descriptors, "getPet")
	plan, ok := getPet.Plan.(*core.RestPlan)
	if !ok {
		t.Fatalf("expected a *core.RestPlan, got %T", getPet.Plan)
	}
	if len(plan.Parameters) != 1 || plan.Parameters[0].Name != "id" || plan.Parameters[0].Location != "path" {
		t.Errorf("plan.Parameters = %+v, want a single required path param 'id'", plan.Parameters)
	}
	if !plan.Parameters[0].Required {
		t.Error("id path parameter should be Required")
	}
	if _, ok := getPet.Tool.InputSchema.Properties["id"]; !ok {
		t.Error("inputSchema missing 'id' property")
	}

	createPet := findDescriptor(descriptors, "post__pets")
	if createPet == nil {
		t.Fatal("missing post__pets tool")
	}
	createPlan, ok := createPet.Plan.(*core.RestPlan)
	if !ok {
		t.Fatalf("expected a *core.RestPlan, got %T", createPet.Plan)
	}
	if !createPlan.RequestBodySchema {
		t.Error("expected RequestBodySchema to be true for POST /pets")
	}
	for _, want := range []string{"name", "age"} {
		found := false
		for _, n := range createPlan.BodyPropertyNames {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("BodyPropertyNames missing hoisted property %q", want)
		}
	}
	requestBodySchema, ok := createPet.Tool.InputSchema.Properties["requestBody"].(map[string]any)
	if !ok {
		t.Fatal("inputSchema missing synthetic 'requestBody' property")
	}
	bodyProps, ok := requestBodySchema["properties"].(map[string]any)
	if !ok {
		t.Fatal("requestBody schema missing nested properties")
	}
	if _, ok := bodyProps["name"]; !ok {
		t.Error("requestBody.properties missing 'name'")
	}
}

// TestCompileDisambiguatesCollidingNames grounds the tool-name
// disambiguation invariant across two operations sharing an x-mcp name
// override.
func TestCompileDisambiguatesCollidingNames(t *testing.T) {
	const spec = `
openapi: 3.0.3
info:
  title: Collide
  version: "1.0"
paths:
  /widgets:
    get:
      x-mcp:
        name: sameName
      responses:
        "200":
          description: ok
  /gadgets:
    get:
      x-mcp:
        name: sameName
      responses:
        "200":
          description: ok
`
	model := buildDoc(t, spec)
	descriptors, err := Compile(model, Config{BaseURL: "https://api.example.com"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(descriptors))
	}
	if descriptors[0].Tool.Name != "sameName" || descriptors[1].Tool.Name != "sameName_2" {
		t.Errorf("got names %q, %q, want sameName, sameName_2", descriptors[0].Tool.Name, descriptors[1].Tool.Name)
	}
}

func TestCompileWhitelistFilter(t *testing.T) {
	model := buildDoc(t, petstoreSpec)
	descriptors, err := Compile(model, Config{
		BaseURL: "https://api.example.com",
		Filter:  core.OperationFilter{Whitelist: []string{"getPet"}},
	})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(descriptors) != 1 || descriptors[0].Tool.Name != "getPet" {
		t.Fatalf("expected only getPet to survive the whitelist, got %v", descriptors)
	}
}
