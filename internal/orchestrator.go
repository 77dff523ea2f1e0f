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

package internal

import (
	"github.com/urfave/cli/v3"

	"github.com/makemcp/gateway/pkg/sources"
	"github.com/makemcp/gateway/pkg/sources/file"
	"github.com/makemcp/gateway/pkg/sources/graphql"
	"github.com/makemcp/gateway/pkg/sources/openapi"
)

// registry holds every built-in Source, in discovery order.
var registry = sources.NewRegistry()

func init() {
	registry.Register(openapi.Source{})
	registry.Register(graphql.Source{})
	registry.Register(file.NewSource(registry))
	sources.Run = RunSource
}

// Commands returns the CLI subcommand for every registered source.
func Commands() []*cli.Command {
	return registry.Commands()
}
