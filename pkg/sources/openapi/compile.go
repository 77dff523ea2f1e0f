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
	"fmt"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"gopkg.in/yaml.v3"

	"github.com/makemcp/gateway/pkg/core"
)

// Config carries everything the compiler needs beyond the parsed document
// to turn operations into tools: the upstream base URL, the session
// description line, the operation filter, and auth/header injection.
type Config struct {
	BaseURL             string
	SessionDescription  string
	Filter              core.OperationFilter
	SecuritySchemeName  string
	SecurityCredentials map[string]string
	APIKey              string
	CustomHeaders       map[string]string
	DisableXMcp         bool
}

// Compile walks every operation in doc, applies cfg.Filter, and returns one
// ToolDescriptor per retained operation, names disambiguated in discovery
// order.
func Compile(doc *libopenapi.DocumentModel[v3.Document], cfg Config) ([]*core.ToolDescriptor, error) {
	var descriptors []*core.ToolDescriptor
	var names []string

	err := forEachOperation(doc, func(method, path string, pathItem *v3.PathItem, operation *v3.Operation) error {
		operationID := operation.OperationId
		if operationID == "" {
			operationID = syntheticOperationID(method, path)
		}
		methodQualified := fmt.Sprintf("%s:%s", strings.ToUpper(method), path)
		if !cfg.Filter.Allows(operationID, methodQualified) {
			return nil
		}

		descriptor := compileOperation(method, path, pathItem, operation, operationID, cfg)
		descriptors = append(descriptors, descriptor)
		names = append(names, descriptor.Tool.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	disambiguated := core.DisambiguateNames(names)
	for i, descriptor := range descriptors {
		descriptor.Tool.Name = disambiguated[i]
	}
	return descriptors, nil
}

// forEachOperation iterates every path+method pair in document order,
// mirroring the teacher's ordered-map traversal.
func forEachOperation(doc *libopenapi.DocumentModel[v3.Document], fn func(method, path string, pathItem *v3.PathItem, operation *v3.Operation) error) error {
	for pathPairs := doc.Model.Paths.PathItems.First(); pathPairs != nil; pathPairs = pathPairs.Next() {
		path := pathPairs.Key()
		pathItem := pathPairs.Value()

		operations := pathItem.GetOperations()
		for opPairs := operations.First(); opPairs != nil; opPairs = opPairs.Next() {
			if err := fn(opPairs.Key(), path, pathItem, opPairs.Value()); err != nil {
				return err
			}
		}
	}
	return nil
}

// syntheticOperationID synthesizes a stand-in operationId from method and
// path when the document does not declare one, using the same
// METHOD_path_with_slashes_replaced rule resolveToolName falls back to so
// the two never disagree about a nameless operation.
func syntheticOperationID(method, path string) string {
	replacer := strings.NewReplacer("{", "", "}", "", "/", "_", "-", "_")
	return strings.ToLower(method) + "_" + strings.ToLower(replacer.Replace(path))
}

// xMcpOverride is the optional "x-mcp" extension object carried on a path
// item or operation, giving it a fixed tool name and/or description.
type xMcpOverride struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// resolveXMcp looks up the "x-mcp" extension, operation level taking
// priority over path level, per §3's "xMcp override (optional at path
// level)" with the operation's own override naturally taking precedence
// when both are present.
func resolveXMcp(operation *v3.Operation, pathItem *v3.PathItem) *xMcpOverride {
	if override := decodeXMcpExtension(operation.Extensions); override != nil {
		return override
	}
	return decodeXMcpExtension(pathItem.Extensions)
}

func decodeXMcpExtension(extensions orderedExtensions) *xMcpOverride {
	if extensions == nil {
		return nil
	}
	node, ok := extensions.Get("x-mcp")
	if !ok || node == nil {
		return nil
	}
	var override xMcpOverride
	if err := node.Decode(&override); err != nil {
		return nil
	}
	return &override
}

// orderedExtensions is the minimal surface this package needs from
// libopenapi's ordered extension map, kept as an interface so the exact
// generic instantiation libopenapi uses for Operation.Extensions and
// PathItem.Extensions does not need to be spelled out here.
type orderedExtensions interface {
	Get(key string) (*yaml.Node, bool)
}

// resolveToolName applies §4.2's "xMcp.name if present, else operationId,
// else METHOD_path" rule.
func resolveToolName(override *xMcpOverride, operationID, method, path string) string {
	if override != nil && override.Name != "" {
		return override.Name
	}
	if operationID != "" {
		return operationID
	}
	replacer := strings.NewReplacer("{", "", "}", "", "/", "_", "-", "_")
	return strings.ToLower(method) + "_" + strings.ToLower(replacer.Replace(path))
}

// resolveDescription applies the hierarchical fallback (operation
// description -> summary -> path item summary -> "") and the xMcp
// override, then prefixes the session-level description line.
func resolveDescription(override *xMcpOverride, operation *v3.Operation, pathItem *v3.PathItem, sessionDescription string) string {
	resolved := operation.Description
	if resolved == "" {
		resolved = operation.Summary
	}
	if resolved == "" {
		resolved = pathItem.Summary
	}
	if override != nil && override.Description != "" {
		resolved = override.Description
	}
	return fmt.Sprintf("MCP description: %s. Tool description: %s", sessionDescription, resolved)
}

// compileOperation builds one ToolDescriptor for a single operation.
func compileOperation(method, path string, pathItem *v3.PathItem, operation *v3.Operation, operationID string, cfg Config) *core.ToolDescriptor {
	override := resolveXMcp(operation, pathItem)
	name := resolveToolName(override, operationID, method, path)
	description := resolveDescription(override, operation, pathItem, cfg.SessionDescription)

	properties := make(map[string]any)
	var required []string
	var restParams []core.RestParam

	for _, param := range operation.Parameters {
		if param == nil || param.In == "" {
			continue
		}
		typeName := schemaTypeToMcpType(GetSchemaTypeString(param.Schema))
		desc := param.Description
		if desc == "" {
			desc = fmt.Sprintf("Parameter: %s", param.Name)
		}
		properties[param.Name] = map[string]any{
			"type":        typeName,
			"description": desc,
		}
		isRequired := param.Required != nil && *param.Required
		if isRequired {
			required = append(required, param.Name)
		}
		restParams = append(restParams, core.RestParam{
			Name:     param.Name,
			Location: param.In,
			Required: isRequired,
		})
	}

	contentType, media := determineContentType(operation)
	hasBody := media != nil
	var bodyNames []string
	if hasBody {
		bodyProps, bodyRequired, err := defaultContentTypeRegistry.GetHandler(contentType).ExtractParameters(media)
		if err != nil {
			bodyProps, bodyRequired = nil, nil
		}
		bodySchema := map[string]any{"type": "object", "properties": map[string]any{}}
		bodySchemaProps := bodySchema["properties"].(map[string]any)
		for propName, prop := range bodyProps {
			bodySchemaProps[propName] = map[string]any{
				"type":        schemaTypeToMcpType(prop.Type),
				"description": defaultDescription(prop.Description, propName),
			}
			bodyNames = append(bodyNames, propName)
		}
		if len(bodyRequired) > 0 {
			bodySchema["required"] = bodyRequired
		}
		properties["requestBody"] = bodySchema
	}

	inputSchema := core.McpToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}

	tool := core.McpTool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
		Annotations: toolAnnotations(name, method),
	}

	plan := &core.RestPlan{
		Method:            strings.ToUpper(method),
		PathTemplate:      path,
		BaseURL:           cfg.BaseURL,
		ContentType:       contentType,
		Parameters:        restParams,
		RequestBodySchema: hasBody,
		BodyPropertyNames: bodyNames,
		Auth:              buildAuthPlan(cfg),
	}

	return &core.ToolDescriptor{Tool: tool, Plan: plan}
}

func defaultDescription(description, name string) string {
	if description != "" {
		return description
	}
	return fmt.Sprintf("Parameter: %s", name)
}

// schemaTypeToMcpType maps a raw JSON-schema type name to the protocol
// primitive it is exposed as in a tool's inputSchema, per §4.2.
func schemaTypeToMcpType(jsonType string) string {
	switch jsonType {
	case "integer":
		return "integer"
	case "number":
		return "number"
	case "boolean":
		return "boolean"
	case "object":
		return "object"
	case "array":
		return "array"
	default:
		return "string"
	}
}

// GetSchemaTypeString returns the declared type of a schema, defaulting to
// "string" when the schema is absent or untyped.
func GetSchemaTypeString(schemaProxy *base.SchemaProxy) string {
	if schemaProxy != nil {
		schema := schemaProxy.Schema()
		if schema != nil && len(schema.Type) > 0 {
			return schema.Type[0]
		}
	}
	return "string"
}

// determineContentType returns the request body's preferred content type
// and its media type definition, preferring the content types the
// registered handlers know about, in registration order.
func determineContentType(operation *v3.Operation) (string, *v3.MediaType) {
	if operation.RequestBody == nil || operation.RequestBody.Content == nil {
		return "", nil
	}
	first := operation.RequestBody.Content.First()
	if first == nil {
		return "", nil
	}
	for _, candidate := range defaultContentTypeRegistry.GetAllContentTypes() {
		if media, ok := operation.RequestBody.Content.Get(candidate); ok {
			return candidate, media
		}
	}
	return first.Key(), first.Value()
}

func toolAnnotations(name, method string) core.McpToolAnnotation {
	annotation := core.McpToolAnnotation{Title: name}
	switch strings.ToUpper(method) {
	case "GET", "HEAD", "OPTIONS":
		annotation.ReadOnlyHint = boolPtr(true)
		annotation.IdempotentHint = boolPtr(true)
	case "DELETE":
		annotation.DestructiveHint = boolPtr(true)
	case "PUT":
		annotation.IdempotentHint = boolPtr(true)
	case "POST":
		annotation.IdempotentHint = boolPtr(false)
	}
	return annotation
}

func boolPtr(b bool) *bool { return &b }

// buildAuthPlan assembles the preset credential and static-header auth
// plan a RestPlan carries, per §4.2's auth/header injection rule.
func buildAuthPlan(cfg Config) core.AuthPlan {
	plan := core.AuthPlan{
		SecuritySchemeName: cfg.SecuritySchemeName,
		APIKey:             cfg.APIKey,
		DisableXMcp:        cfg.DisableXMcp,
	}
	if cfg.SecuritySchemeName != "" {
		plan.Credential = cfg.SecurityCredentials[cfg.SecuritySchemeName]
	}
	if len(cfg.CustomHeaders) > 0 {
		plan.StaticHeaders = make(map[string]string, len(cfg.CustomHeaders))
		for k, v := range cfg.CustomHeaders {
			plan.StaticHeaders[k] = v
		}
	}
	return plan
}
