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

// Package sources declares the common Source contract both the OpenAPI
// and GraphQL compilers implement, and the registry the CLI and server
// entrypoint use to discover them.
package sources

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/makemcp/gateway/pkg/core"
)

// Config is the resolved, merged configuration (CLI > environment > JSON
// config file) one source compiles tools from.
type Config struct {
	Type      string // "openapi" | "graphql"
	Transport core.TransportType
	Port      string
	DevMode   bool

	// OpenAPI
	SpecLocation     string
	Overlays         []string
	StrictValidation bool

	// GraphQL
	PathDepth int

	TargetURL string // OpenAPI base URL, or GraphQL endpoint

	Whitelist []string
	Blacklist []string

	PresetParams map[string]any

	SecuritySchemeName  string
	SecurityCredentials map[string]string
	APIKey              string
	CustomHeaders       map[string]string
	DisableXMcp         bool

	Description string
}

// Source compiles one upstream API definition into a session's tools.
type Source interface {
	// Type returns the source's config "type" discriminator.
	Type() string

	// Command returns the CLI subcommand that launches a server from
	// this source type.
	Command() *cli.Command

	// Compile loads cfg's spec source and produces one ToolDescriptor per
	// retained operation, ready for a ToolRegistry.
	Compile(ctx context.Context, cfg Config) ([]*core.ToolDescriptor, error)
}

// Run is set by the server entrypoint at startup. Each Source's CLI
// command action calls it once the command's Config is resolved,
// deferring session/tool-registry wiring to the entrypoint package and
// keeping this package free of an import cycle back to it.
var Run func(ctx context.Context, source Source, cfg Config) error

// Registry holds the known Source implementations, keyed by Type().
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source, in discovery order.
func (r *Registry) Register(s Source) {
	if _, exists := r.sources[s.Type()]; !exists {
		r.order = append(r.order, s.Type())
	}
	r.sources[s.Type()] = s
}

// Get looks up a source by its Type().
func (r *Registry) Get(sourceType string) (Source, bool) {
	s, ok := r.sources[sourceType]
	return s, ok
}

// Commands returns the CLI subcommand for every registered source, in
// registration order.
func (r *Registry) Commands() []*cli.Command {
	commands := make([]*cli.Command, 0, len(r.order))
	for _, t := range r.order {
		commands = append(commands, r.sources[t].Command())
	}
	return commands
}
