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

// Config carries everything the compiler needs beyond the introspected
// schema: the endpoint to dispatch to, the session description line, the
// operation filter, the selection/filter depth bound, preset parameters,
// and auth/header injection.
type Config struct {
	Endpoint            string
	SessionDescription  string
	Filter              core.OperationFilter
	PathDepth           int
	PresetParams        map[string]any
	SecuritySchemeName  string
	SecurityCredentials map[string]string
	APIKey              string
	CustomHeaders       map[string]string
	DisableXMcp         bool
}

// Compile builds one ToolDescriptor per retained query-root field of
// schema, per §4.3: selection set, flattened "where" filter, and
// top-level pagination arguments.
func Compile(schema *Schema, cfg Config) []*core.ToolDescriptor {
	table := BuildTypeTable(schema)
	rootFields := schema.QueryRootFields(table)

	var descriptors []*core.ToolDescriptor
	var names []string

	for _, field := range rootFields {
		if !cfg.Filter.Allows(field.Name) && !hasParamEntries(cfg.Filter.Whitelist, field.Name) {
			continue
		}

		descriptor := compileField(table, field, cfg)
		descriptors = append(descriptors, descriptor)
		names = append(names, descriptor.Tool.Name)
	}

	disambiguated := core.DisambiguateNames(names)
	for i, descriptor := range descriptors {
		descriptor.Tool.Name = disambiguated[i]
	}
	return descriptors
}

// compileField builds one ToolDescriptor for a single query-root field.
func compileField(table TypeTable, field Field, cfg Config) *core.ToolDescriptor {
	whereArgType := ""
	for _, arg := range field.Args {
		if arg.Name == "where" {
			if named := unwrap(arg.Type); named != nil {
				whereArgType = named.Name
			}
			break
		}
	}

	var filterParams []core.McpParam
	if whereArgType != "" {
		filterParams = FlattenFilter(table, whereArgType, cfg.PathDepth)
	}
	paginationParams := BuildPaginationParams(field)

	// dispatchParams is every retained param (filter leaves + pagination),
	// including presets: the dispatch engine needs their path/fieldsPath/
	// operational metadata to render preset values into the rebuilt
	// "where" literal even though they never reach the tool's schema.
	dispatchParams := append(append([]core.McpParam{}, filterParams...), paginationParams...)
	dispatchParams = filterMcpParams(dispatchParams, field.Name, cfg.Filter)
	// visibleParams additionally drops presets, per §4.3(iv): omitted
	// from the input schema but still recorded (on dispatchParams) for
	// automatic injection at dispatch time.
	visibleParams := filterPresets(dispatchParams, cfg.PresetParams)

	returnType := ""
	if named := unwrap(field.Type); named != nil {
		returnType = named.Name
	}
	selectionSet := BuildSelectionSet(table, returnType, cfg.PathDepth)

	properties := make(map[string]any)
	var required []string
	for _, p := range visibleParams {
		properties[p.Name] = map[string]any{
			"type":        mcpScalarType(p.Type),
			"description": p.Description,
		}
	}

	tool := core.McpTool{
		Name:        field.Name,
		Description: fmt.Sprintf("MCP description: %s. Tool description: %s", cfg.SessionDescription, defaultFieldDescription(field)),
		InputSchema: core.McpToolInputSchema{
			Type:       "object",
			Properties: properties,
			Required:   required,
		},
		Annotations: core.McpToolAnnotation{Title: field.Name, ReadOnlyHint: boolPtr(true), IdempotentHint: boolPtr(true)},
	}

	var paginationArgNames []string
	for _, p := range paginationParams {
		paginationArgNames = append(paginationArgNames, p.Name)
	}

	plan := &core.GraphqlPlan{
		RootFieldName:  field.Name,
		SelectionSet:   selectionSet,
		McpParams:      dispatchParams,
		PaginationArgs: paginationArgNames,
		Endpoint:       cfg.Endpoint,
		PresetParams:   cfg.PresetParams,
		Auth:           buildAuthPlan(cfg),
		StaticHeaders:  copyHeaders(cfg.CustomHeaders),
	}

	return &core.ToolDescriptor{Tool: tool, Plan: plan}
}

func defaultFieldDescription(field Field) string {
	return fmt.Sprintf("Query root field %q", field.Name)
}

// filterPresets drops any McpParam whose name is supplied as a preset, so
// the compiled tool never exposes a parameter the caller cannot override.
func filterPresets(params []core.McpParam, presets map[string]any) []core.McpParam {
	if len(presets) == 0 {
		return params
	}
	out := params[:0:0]
	for _, p := range params {
		if _, preset := presets[p.Name]; preset {
			continue
		}
		out = append(out, p)
	}
	return out
}

// filterMcpParams applies the filter's "<toolName>.<paramName>" entries
// to this tool's parameters. Only dotted entries addressed to toolName
// participate; tool-level patterns never strip parameters, so
// whitelisting a root field keeps its whole parameter surface.
func filterMcpParams(params []core.McpParam, toolName string, filter core.OperationFilter) []core.McpParam {
	paramFilter := core.OperationFilter{
		Whitelist: paramPatterns(filter.Whitelist, toolName),
		Blacklist: paramPatterns(filter.Blacklist, toolName),
	}
	if len(paramFilter.Whitelist) == 0 && len(paramFilter.Blacklist) == 0 {
		return params
	}
	out := params[:0:0]
	for _, p := range params {
		if paramFilter.Allows(p.Name) {
			out = append(out, p)
		}
	}
	return out
}

// paramPatterns extracts the entries of the form "<toolName>.<paramGlob>"
// addressed to this tool, reduced to their parameter half.
func paramPatterns(patterns []string, toolName string) []string {
	var out []string
	for _, pattern := range patterns {
		if tool, param, ok := strings.Cut(pattern, "."); ok && tool == toolName {
			out = append(out, param)
		}
	}
	return out
}

// hasParamEntries reports whether any pattern addresses a parameter of
// toolName, which implies the tool itself is wanted even when no
// tool-level pattern matches it.
func hasParamEntries(patterns []string, toolName string) bool {
	return len(paramPatterns(patterns, toolName)) > 0
}

func mcpScalarType(graphqlType string) string {
	switch strings.ToLower(graphqlType) {
	case "int":
		return "integer"
	case "float":
		return "number"
	case "boolean":
		return "boolean"
	default:
		return "string"
	}
}

func boolPtr(b bool) *bool { return &b }

func copyHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	return out
}

func buildAuthPlan(cfg Config) core.AuthPlan {
	plan := core.AuthPlan{
		SecuritySchemeName: cfg.SecuritySchemeName,
		APIKey:             cfg.APIKey,
		DisableXMcp:        cfg.DisableXMcp,
	}
	if cfg.SecuritySchemeName != "" {
		plan.Credential = cfg.SecurityCredentials[cfg.SecuritySchemeName]
	}
	return plan
}
