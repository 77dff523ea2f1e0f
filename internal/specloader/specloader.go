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

// Package specloader fetches and normalizes OpenAPI documents (including
// overlay application) before the compiler in pkg/sources/openapi turns
// them into tools. The GraphQL counterpart, introspection fetch, lives
// with the schema types in pkg/sources/graphql.
package specloader

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/makemcp/gateway/internal/mcperr"
)

// SpecSource describes where a tool source's definition comes from and,
// for OpenAPI, which overlays to apply to it before compilation.
type SpecSource struct {
	Type     string   // "openapi" | "graphql"
	Location string   // file path or URL
	Overlays []string // OpenAPI only; file paths to JSON overlay documents
}

// OverlayEntry is a single targeted patch applied to a decoded spec
// document tree before the typed document model is built.
type OverlayEntry struct {
	Target string `json:"target"`
	Update any    `json:"update"`
}

// LoadOpenAPI reads the OpenAPI document at location, applies overlays (in
// order) to its raw JSON tree, then builds the libopenapi v3 document
// model from the patched bytes.
func LoadOpenAPI(location string, overlays []string, strictValidation bool) (*libopenapi.DocumentModel[v3.Document], error) {
	raw, err := loadSpecBytes(location)
	if err != nil {
		return nil, err
	}

	patched, err := applyOverlayFiles(raw, overlays)
	if err != nil {
		return nil, err
	}

	config := datamodel.NewDocumentConfiguration()
	config.AllowFileReferences = true
	config.AllowRemoteReferences = true

	document, err := libopenapi.NewDocumentWithConfiguration(patched, config)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.SpecParseError, "failed to create OpenAPI document", err)
	}

	docModel, errs := document.BuildV3Model()
	if len(errs) > 0 {
		if strictValidation {
			var msgs []string
			for _, e := range errs {
				msgs = append(msgs, e.Error())
			}
			return nil, mcperr.Newf(mcperr.SpecInvalid, "OpenAPI model validation errors: %s", strings.Join(msgs, "; "))
		}
		log.Printf("OpenAPI validation warnings (permissive mode): %d warnings", len(errs))
	}

	log.Printf("Loaded OpenAPI spec: %s v%s", docModel.Model.Info.Title, docModel.Model.Info.Version)
	return docModel, nil
}

// loadSpecBytes loads specification bytes from either a file or a URL.
func loadSpecBytes(location string) ([]byte, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		resp, err := http.Get(location)
		if err != nil {
			return nil, mcperr.Wrap(mcperr.SpecNotFound, "failed to fetch spec from URL", err)
		}
		defer func() {
			if cerr := resp.Body.Close(); cerr != nil {
				log.Printf("failed to close response body: %v", cerr)
			}
		}()
		if resp.StatusCode >= 400 {
			return nil, mcperr.Newf(mcperr.SpecNotFound, "fetching spec from %s: status %d", location, resp.StatusCode)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, mcperr.Wrap(mcperr.SpecParseError, "failed to read spec response", err)
		}
		return body, nil
	}

	body, err := os.ReadFile(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mcperr.Wrap(mcperr.SpecNotFound, fmt.Sprintf("spec file %s not found", location), err)
		}
		return nil, mcperr.Wrap(mcperr.SpecParseError, "failed to read spec file", err)
	}
	return body, nil
}
