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
	"context"
	"encoding/json"

	"github.com/machinebox/graphql"

	"github.com/makemcp/gateway/internal/mcperr"
)

// standardIntrospectionQuery is the GraphQL community's canonical
// introspection query, trimmed to the fields this compiler consumes
// (query root name, full type list with fields/args/inputFields/type
// chains). Directives and deprecation metadata are intentionally
// omitted since nothing here renders them.
const standardIntrospectionQuery = `
query IntrospectionQuery {
  __schema {
    queryType { name }
    types {
      kind
      name
      fields(includeDeprecated: true) {
        name
        args {
          name
          type { ...TypeRef }
        }
        type { ...TypeRef }
      }
      inputFields {
        name
        type { ...TypeRef }
      }
    }
  }
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
            }
          }
        }
      }
    }
  }
}
`

// Introspect fetches and decodes a GraphQL endpoint's schema via the
// standard introspection query, posted with machinebox/graphql so the
// same client/transport idiom is used here as at dispatch time.
func Introspect(ctx context.Context, endpoint string, headers map[string]string) (*Schema, error) {
	client := graphql.NewClient(endpoint)
	req := graphql.NewRequest(standardIntrospectionQuery)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	// client.Run unwraps the {"data": ...} envelope itself, so the decode
	// target is the data payload, not the full response.
	var data introspectionData
	if err := client.Run(ctx, req, &data); err != nil {
		return nil, mcperr.Wrap(mcperr.SpecNotFound, "introspection request to "+endpoint+" failed", err)
	}

	return &Schema{
		QueryTypeName: data.Schema.QueryType.Name,
		Types:         data.Schema.Types,
	}, nil
}

// ParseIntrospectionJSON decodes a previously captured introspection
// response (e.g. loaded from a file rather than fetched live). It accepts
// both the full {"data": {"__schema": ...}} envelope and a bare
// {"__schema": ...} payload.
func ParseIntrospectionJSON(raw []byte) (*Schema, error) {
	var resp introspectionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, mcperr.Wrap(mcperr.SpecParseError, "failed to decode introspection JSON", err)
	}
	data := resp.Data
	if len(data.Schema.Types) == 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, mcperr.Wrap(mcperr.SpecParseError, "failed to decode introspection JSON", err)
		}
	}
	return &Schema{
		QueryTypeName: data.Schema.QueryType.Name,
		Types:         data.Schema.Types,
	}, nil
}
