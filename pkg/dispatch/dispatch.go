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

// Package dispatch binds a tool invocation's user inputs to its compiled
// plan, executes the upstream call, and translates the response (or
// failure) into a tool result or a classified mcperr.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	mbgraphql "github.com/machinebox/graphql"

	"github.com/makemcp/gateway/internal/mcperr"
	"github.com/makemcp/gateway/pkg/core"
	"github.com/makemcp/gateway/pkg/sources/graphql"
	"github.com/makemcp/gateway/pkg/sources/openapi"
)

// DefaultTimeout is the http.Client timeout NewEngine applies to every
// upstream call when it is given no client of its own.
const DefaultTimeout = 30 * time.Second

// Engine executes tool invocations against their compiled plans.
type Engine struct {
	HTTPClient *http.Client
}

// NewEngine creates a dispatch Engine with the given HTTP client, or a
// client defaulting to DefaultTimeout if client is nil.
func NewEngine(client *http.Client) *Engine {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Engine{HTTPClient: client}
}

// shortRequestID returns a short opaque id for correlating one invocation's
// inbound call with its upstream result in the logs.
func shortRequestID() string {
	return uuid.New().String()[:8]
}

// Invoke executes one tool invocation: it binds userInputs against
// descriptor's plan (RestPlan or GraphqlPlan), forwards sessionHeaders,
// executes the upstream call, and returns the response body as a single
// text chunk, or a classified mcperr on failure.
func (e *Engine) Invoke(ctx context.Context, descriptor *core.ToolDescriptor, userInputs map[string]any, sessionHeaders map[string]string) (string, error) {
	reqID := shortRequestID()

	switch plan := descriptor.Plan.(type) {
	case *core.RestPlan:
		log.Printf("[dispatch %s] tool=%s upstream=%s %s", reqID, descriptor.Tool.Name, plan.Method, plan.PathTemplate)
		result, err := e.invokeRest(ctx, plan, userInputs, sessionHeaders)
		log.Printf("[dispatch %s] tool=%s done err=%v", reqID, descriptor.Tool.Name, err)
		return result, err
	case *core.GraphqlPlan:
		log.Printf("[dispatch %s] tool=%s upstream=%s field=%s", reqID, descriptor.Tool.Name, plan.Endpoint, plan.RootFieldName)
		result, err := e.invokeGraphql(ctx, plan, userInputs, sessionHeaders)
		log.Printf("[dispatch %s] tool=%s done err=%v", reqID, descriptor.Tool.Name, err)
		return result, err
	default:
		return "", mcperr.Newf(mcperr.InternalError, "tool %q carries an unrecognized dispatch plan", descriptor.Tool.Name)
	}
}

// invokeRest assembles and executes a REST call per a RestPlan: path
// substitution, query/header collection, body assembly, then status-code
// mapping of the response.
func (e *Engine) invokeRest(ctx context.Context, plan *core.RestPlan, userInputs map[string]any, sessionHeaders map[string]string) (string, error) {
	pathStr := plan.PathTemplate
	query := url.Values{}
	headers := http.Header{}

	for _, p := range plan.Parameters {
		value, ok := userInputs[p.Name]
		if !ok {
			continue
		}
		switch p.Location {
		case "path":
			pathStr = strings.ReplaceAll(pathStr, "{"+p.Name+"}", url.PathEscape(fmt.Sprintf("%v", value)))
		case "query":
			addQueryValue(query, p.Name, value)
		case "header":
			headers.Set(p.Name, fmt.Sprintf("%v", value))
		case "cookie":
			headers.Add("Cookie", fmt.Sprintf("%s=%v", p.Name, value))
		}
	}

	applyAuth(headers, plan.Auth)
	for k, v := range sessionHeaders {
		if isPropagatedHeader(k) {
			headers.Set(k, v)
		}
	}

	fullURL := strings.TrimRight(plan.BaseURL, "/") + pathStr
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var bodyReader io.Reader
	if plan.RequestBodySchema {
		body := requestBodyValue(plan, userInputs)
		if body != nil {
			reader, err := encodeBody(plan.ContentType, body)
			if err != nil {
				return "", mcperr.Wrap(mcperr.InvalidParams, "failed to encode request body", err)
			}
			bodyReader = reader
			if headers.Get("Content-Type") == "" {
				ct := plan.ContentType
				if ct == "" {
					ct = "application/json"
				}
				headers.Set("Content-Type", ct)
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, plan.Method, fullURL, bodyReader)
	if err != nil {
		return "", mcperr.Wrap(mcperr.InternalError, "failed to build upstream request", err)
	}
	req.Header = headers

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return "", mcperr.Wrap(mcperr.InternalError, "upstream request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", mcperr.Wrap(mcperr.InternalError, "failed to read upstream response", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return string(respBody), nil
	}
	return "", mapHTTPError(resp.StatusCode, respBody)
}

// requestBodyValue resolves the body to send: the user-supplied
// "requestBody" object takes priority; otherwise the hoisted top-level
// properties named on the plan are collected back into one object.
func requestBodyValue(plan *core.RestPlan, userInputs map[string]any) any {
	if nested, ok := userInputs["requestBody"]; ok {
		return nested
	}
	if len(plan.BodyPropertyNames) == 0 {
		return nil
	}
	body := map[string]any{}
	found := false
	for _, name := range plan.BodyPropertyNames {
		if v, ok := userInputs[name]; ok {
			body[name] = v
			found = true
		}
	}
	if !found {
		return nil
	}
	return body
}

// encodeBody renders a resolved request body according to the operation's
// declared content type. Non-JSON content types (form, multipart, XML,
// plain text) go through the OpenAPI content-type handlers when the body
// is a flat object; everything else falls back to JSON, which also covers
// nested "requestBody" objects the caller supplied verbatim.
func encodeBody(contentType string, body any) (io.Reader, error) {
	if bodyMap, ok := body.(map[string]any); ok {
		switch {
		case contentType == "", contentType == "application/json", strings.Contains(contentType, "+json"):
		default:
			return openapi.EncodeRequestBody(contentType, bodyMap)
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(string(raw)), nil
}

func addQueryValue(query url.Values, name string, value any) {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			query.Add(name, fmt.Sprintf("%v", item))
		}
	default:
		query.Set(name, fmt.Sprintf("%v", v))
	}
}

// isPropagatedHeader reports whether an inbound header name is one of the
// auth-carrying kinds that must be forwarded verbatim on every upstream
// call within a session.
func isPropagatedHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"auth", "key", "api", "cookie"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func applyAuth(headers http.Header, auth core.AuthPlan) {
	for k, v := range auth.StaticHeaders {
		headers.Set(k, v)
	}
	if auth.APIKey != "" {
		headers.Set("X-API-Key", auth.APIKey)
	}
	if auth.Credential != "" {
		headers.Set("Authorization", auth.Credential)
	}
	if !auth.DisableXMcp {
		headers.Set("X-MCP", "1")
	}
}

// mapHTTPError classifies a non-2xx/3xx upstream HTTP status per spec
// §4.4/§7: 400/404 are user input mistakes, 401/403 are auth failures
// (internal, since the gateway - not the caller - owns the credential),
// everything else is an internal/upstream error.
func mapHTTPError(status int, body []byte) error {
	msg := fmt.Sprintf("upstream responded with status %d", status)
	if len(body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, truncate(string(body), 2000))
	}
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		return mcperr.New(mcperr.InvalidParams, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return mcperr.New(mcperr.InternalError, "upstream authentication/authorization failed: "+msg)
	default:
		return mcperr.New(mcperr.InternalError, msg)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}

// invokeGraphql rebuilds the query string from the flat filter/pagination
// inputs and runs it through machinebox/graphql, the same client/transport
// idiom introspection uses to fetch a schema. Per §4.4, a response with
// top-level "errors" alongside non-null data is success-with-errors (data
// still surfaces, with a note); errors alongside null data is a failure.
func (e *Engine) invokeGraphql(ctx context.Context, plan *core.GraphqlPlan, userInputs map[string]any, sessionHeaders map[string]string) (string, error) {
	values := map[string]any{}
	for k, v := range plan.PresetParams {
		values[k] = v
	}
	for k, v := range userInputs {
		if _, preset := plan.PresetParams[k]; !preset {
			values[k] = v
		}
	}

	whereLiteral := graphql.ReconstructWhere(paginationExcluded(plan.McpParams), values)
	paginationArgs := graphql.BuildPaginationArgs(paginationOnly(plan.McpParams), values)
	query := graphql.BuildQuery(plan.RootFieldName, whereLiteral, paginationArgs, plan.SelectionSet)

	// machinebox/graphql reports a non-2xx upstream only as a decode or
	// graphql error; recording the status on the transport keeps the
	// 4xx/5xx classification identical to the REST path's.
	recorder := &statusRecordingTransport{base: e.HTTPClient.Transport}
	httpClient := &http.Client{Transport: recorder, Timeout: e.HTTPClient.Timeout}
	client := mbgraphql.NewClient(plan.Endpoint, mbgraphql.WithHTTPClient(httpClient))
	req := mbgraphql.NewRequest(query)

	headers := http.Header{}
	applyAuth(headers, plan.Auth)
	for k, v := range plan.StaticHeaders {
		headers.Set(k, v)
	}
	for k, v := range sessionHeaders {
		if isPropagatedHeader(k) {
			headers.Set(k, v)
		}
	}
	for k := range headers {
		req.Header.Set(k, headers.Get(k))
	}

	var data json.RawMessage
	if err := client.Run(ctx, req, &data); err != nil {
		if recorder.status >= 400 {
			return "", mapHTTPError(recorder.status, []byte(err.Error()))
		}
		if len(data) == 0 || string(data) == "null" {
			return "", mcperr.Newf(mcperr.InternalError, "GraphQL request returned no data: %s", err.Error())
		}
		// Success-with-errors: the client already decoded the "data" key
		// into data before surfacing the first "errors" entry.
		return fmt.Sprintf("%s\n\n[partial GraphQL errors: %s]", string(data), err.Error()), nil
	}

	return string(data), nil
}

// statusRecordingTransport remembers the last upstream HTTP status seen
// on this invocation's GraphQL POST.
type statusRecordingTransport struct {
	base   http.RoundTripper
	status int
}

func (t *statusRecordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if resp != nil {
		t.status = resp.StatusCode
	}
	return resp, err
}

func paginationOnly(params []core.McpParam) []core.McpParam {
	var out []core.McpParam
	for _, p := range params {
		if p.Pagination {
			out = append(out, p)
		}
	}
	return out
}

func paginationExcluded(params []core.McpParam) []core.McpParam {
	var out []core.McpParam
	for _, p := range params {
		if !p.Pagination {
			out = append(out, p)
		}
	}
	return out
}
