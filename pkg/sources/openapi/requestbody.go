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

import "io"

// defaultContentTypeRegistry is shared by every call to EncodeRequestBody;
// the handlers it holds are stateless.
var defaultContentTypeRegistry = NewContentTypeRegistry()

// EncodeRequestBody renders a tool's hoisted body properties into the wire
// format the upstream operation declared, using the same per-content-type
// handlers the compiler used to describe the body's input schema.
func EncodeRequestBody(contentType string, bodyParams map[string]any) (io.Reader, error) {
	handler := defaultContentTypeRegistry.GetHandler(contentType)
	return handler.BuildRequestBody(bodyParams)
}
