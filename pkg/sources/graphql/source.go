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
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/makemcp/gateway/internal/mcperr"
	"github.com/makemcp/gateway/pkg/core"
	"github.com/makemcp/gateway/pkg/sources"
)

// defaultPathDepth bounds the GraphQL compiler's filter/selection
// traversal when neither the CLI, environment, nor config file set
// pathDepth.
const defaultPathDepth = 4

// Source compiles a GraphQL endpoint's introspection schema into MCP
// tools, one per query-root field.
type Source struct{}

// Type implements sources.Source.
func (Source) Type() string { return "graphql" }

// Command returns the "graphql" CLI subcommand.
func (Source) Command() *cli.Command {
	return &cli.Command{
		Name:  "graphql",
		Usage: "Expose a GraphQL endpoint's query-root fields as MCP tools.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "endpoint", Aliases: []string{"e"}, Usage: "GraphQL endpoint URL."},
			&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Value: "stdio", Usage: "stdio, http, or sse."},
			&cli.StringFlag{Name: "port", Value: "8080", Usage: "HTTP/SSE listen port."},
			&cli.IntFlag{Name: "path-depth", Value: defaultPathDepth, Usage: "Max recursion depth for selection sets and filter flattening."},
			&cli.StringFlag{Name: "whitelist", Usage: "Comma-separated root-field/parameter globs to retain."},
			&cli.StringFlag{Name: "blacklist", Usage: "Comma-separated root-field/parameter globs to drop."},
			&cli.StringFlag{Name: "api-key", Usage: "Preset API key credential."},
			&cli.StringFlag{Name: "security-scheme", Usage: "Security scheme name the api-key/credential applies to."},
			&cli.BoolFlag{Name: "disable-x-mcp", Usage: "Suppress the X-MCP: 1 header on upstream calls."},
			&cli.StringFlag{Name: "description", Usage: "Session-level description line prefixed onto every tool."},
			&cli.BoolFlag{Name: "dev-mode", Usage: "Suppress security warnings for local/private URLs."},
			&cli.StringFlag{Name: "config", Usage: "Path to a JSON config file."},
			&cli.BoolFlag{Name: "config-only", Usage: "Write the resolved configuration to a file and exit without serving."},
			&cli.StringFlag{Name: "file", Usage: "Output path for --config-only (default " + sources.DefaultConfigFilename + ")."},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cliCfg := sources.Config{
				Type:               "graphql",
				Transport:          core.TransportType(cmd.String("transport")),
				Port:               cmd.String("port"),
				DevMode:            cmd.Bool("dev-mode"),
				PathDepth:          int(cmd.Int("path-depth")),
				TargetURL:          cmd.String("endpoint"),
				Whitelist:          sources.SplitCSV(cmd.String("whitelist")),
				Blacklist:          sources.SplitCSV(cmd.String("blacklist")),
				APIKey:             cmd.String("api-key"),
				SecuritySchemeName: cmd.String("security-scheme"),
				DisableXMcp:        cmd.Bool("disable-x-mcp"),
				Description:        cmd.String("description"),
			}
			// Flag defaults are not explicit settings; leave them to lower tiers.
			if !cmd.IsSet("transport") {
				cliCfg.Transport = ""
			}
			if !cmd.IsSet("port") {
				cliCfg.Port = ""
			}
			if !cmd.IsSet("path-depth") {
				cliCfg.PathDepth = 0
			}
			cfg, err := sources.ResolveConfig(cliCfg, cmd.String("config"))
			if err != nil {
				return fmt.Errorf("failed to resolve configuration: %w", err)
			}
			if cfg.PathDepth == 0 {
				cfg.PathDepth = defaultPathDepth
			}
			if cfg.Port == "" {
				cfg.Port = "8080"
			}
			if cfg.SecuritySchemeName != "" && cfg.APIKey != "" {
				if cfg.SecurityCredentials == nil {
					cfg.SecurityCredentials = map[string]string{}
				}
				cfg.SecurityCredentials[cfg.SecuritySchemeName] = cfg.APIKey
			}
			if cmd.Bool("config-only") {
				return sources.SaveConfig(cfg, cmd.String("file"))
			}
			return sources.Run(ctx, Source{}, cfg)
		},
	}
}

// Compile implements sources.Source: it fetches the endpoint's
// introspection schema, then compiles every retained query-root field
// into a tool.
func (Source) Compile(ctx context.Context, cfg sources.Config) ([]*core.ToolDescriptor, error) {
	if cfg.TargetURL == "" {
		return nil, mcperr.New(mcperr.SpecInvalid, "graphql source requires an endpoint (--endpoint or targetUrl)")
	}
	sources.WarnUpstreamLocation(cfg.TargetURL, "GraphQL endpoint", cfg.DevMode)

	schema, err := Introspect(ctx, cfg.TargetURL, cfg.CustomHeaders)
	if err != nil {
		return nil, err
	}

	compileCfg := Config{
		Endpoint:            cfg.TargetURL,
		SessionDescription:  cfg.Description,
		Filter:              core.OperationFilter{Whitelist: cfg.Whitelist, Blacklist: cfg.Blacklist},
		PathDepth:           cfg.PathDepth,
		PresetParams:        cfg.PresetParams,
		SecuritySchemeName:  cfg.SecuritySchemeName,
		SecurityCredentials: cfg.SecurityCredentials,
		APIKey:              cfg.APIKey,
		CustomHeaders:       cfg.CustomHeaders,
		DisableXMcp:         cfg.DisableXMcp,
	}
	return Compile(schema, compileCfg), nil
}
