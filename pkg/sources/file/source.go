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

// Package file serves a previously saved gateway configuration: the
// "file" subcommand loads a JSON config file (as emitted by
// --config-only) and starts the server the configuration describes,
// delegating compilation to the source named by the file's "type" key.
package file

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/makemcp/gateway/pkg/core"
	"github.com/makemcp/gateway/pkg/sources"
)

// Source replays a saved configuration through the source registry.
type Source struct {
	registry *sources.Registry
}

// NewSource creates a file Source resolving the underlying source type
// against registry.
func NewSource(registry *sources.Registry) Source {
	return Source{registry: registry}
}

// Type implements sources.Source.
func (Source) Type() string { return "file" }

// Command returns the "file" CLI subcommand.
func (s Source) Command() *cli.Command {
	return &cli.Command{
		Name:      "file",
		Usage:     "Load a saved gateway configuration file and start the server.",
		ArgsUsage: "<config-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Usage: "Override the transport from the config file (stdio, http, or sse)."},
			&cli.StringFlag{Name: "port", Usage: "Override the HTTP/SSE listen port from the config file."},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return fmt.Errorf("config file path is required")
			}

			cfg, err := sources.LoadConfig(cmd.Args().First())
			if err != nil {
				return err
			}
			if transport := cmd.String("transport"); transport != "" {
				cfg.Transport = core.TransportType(transport)
			}
			if port := cmd.String("port"); port != "" {
				cfg.Port = port
			}
			if cfg.Port == "" {
				cfg.Port = "8080"
			}

			if _, err := s.underlying(cfg); err != nil {
				return err
			}
			return sources.Run(ctx, s, cfg)
		},
	}
}

// Compile implements sources.Source by delegating to the source the
// loaded configuration names, so per-session recompiles behave exactly
// as they would had that source been launched directly.
func (s Source) Compile(ctx context.Context, cfg sources.Config) ([]*core.ToolDescriptor, error) {
	underlying, err := s.underlying(cfg)
	if err != nil {
		return nil, err
	}
	return underlying.Compile(ctx, cfg)
}

func (s Source) underlying(cfg sources.Config) (sources.Source, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("config file does not declare a source type")
	}
	underlying, ok := s.registry.Get(cfg.Type)
	if !ok {
		return nil, fmt.Errorf("unknown source type %q in config file", cfg.Type)
	}
	return underlying, nil
}
