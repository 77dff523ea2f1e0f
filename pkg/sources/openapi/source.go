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
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/makemcp/gateway/internal/mcperr"
	"github.com/makemcp/gateway/internal/specloader"
	"github.com/makemcp/gateway/pkg/core"
	"github.com/makemcp/gateway/pkg/sources"
)

// Source compiles an OpenAPI document into MCP tools.
type Source struct{}

// Type implements sources.Source.
func (Source) Type() string { return "openapi" }

// Command returns the "openapi" CLI subcommand, grounded in the teacher's
// per-source flag set, extended with the whitelist/blacklist/API-key
// flags the compiler's filtering and auth injection need.
func (Source) Command() *cli.Command {
	return &cli.Command{
		Name:  "openapi",
		Usage: "Expose an OpenAPI specification's operations as MCP tools.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "spec", Aliases: []string{"s"}, Usage: "Path or URL to the OpenAPI document."},
			&cli.StringSliceFlag{Name: "overlay", Usage: "Overlay document to apply, in order (repeatable)."},
			&cli.StringFlag{Name: "base-url", Aliases: []string{"b"}, Usage: "Base URL the compiled tools dispatch to."},
			&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Value: "stdio", Usage: "stdio, http, or sse."},
			&cli.StringFlag{Name: "port", Value: "8080", Usage: "HTTP/SSE listen port."},
			&cli.StringFlag{Name: "whitelist", Usage: "Comma-separated operationId/METHOD:/path globs to retain."},
			&cli.StringFlag{Name: "blacklist", Usage: "Comma-separated operationId/METHOD:/path globs to drop."},
			&cli.StringFlag{Name: "api-key", Usage: "Preset API key credential."},
			&cli.StringFlag{Name: "security-scheme", Usage: "Security scheme name the api-key/credential applies to."},
			&cli.BoolFlag{Name: "disable-x-mcp", Usage: "Suppress the X-MCP: 1 header on upstream calls."},
			&cli.StringFlag{Name: "description", Usage: "Session-level description line prefixed onto every tool."},
			&cli.BoolFlag{Name: "strict", Usage: "Fail on OpenAPI validation errors instead of logging warnings."},
			&cli.BoolFlag{Name: "dev-mode", Usage: "Suppress security warnings for local/private URLs."},
			&cli.StringFlag{Name: "config", Usage: "Path to a JSON config file."},
			&cli.BoolFlag{Name: "config-only", Usage: "Write the resolved configuration to a file and exit without serving."},
			&cli.StringFlag{Name: "file", Usage: "Output path for --config-only (default " + sources.DefaultConfigFilename + ")."},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cliCfg := sources.Config{
				Type:               "openapi",
				Transport:          core.TransportType(cmd.String("transport")),
				Port:               cmd.String("port"),
				DevMode:            cmd.Bool("dev-mode"),
				SpecLocation:       cmd.String("spec"),
				Overlays:           cmd.StringSlice("overlay"),
				StrictValidation:   cmd.Bool("strict"),
				TargetURL:          cmd.String("base-url"),
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
			cfg, err := sources.ResolveConfig(cliCfg, cmd.String("config"))
			if err != nil {
				return fmt.Errorf("failed to resolve configuration: %w", err)
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

// Compile implements sources.Source: it loads the OpenAPI document (with
// overlays applied), then compiles every retained operation into a tool.
func (Source) Compile(ctx context.Context, cfg sources.Config) ([]*core.ToolDescriptor, error) {
	sources.WarnUpstreamLocation(cfg.SpecLocation, "OpenAPI spec", cfg.DevMode)
	sources.WarnUpstreamLocation(cfg.TargetURL, "base URL", cfg.DevMode)

	doc, err := specloader.LoadOpenAPI(cfg.SpecLocation, cfg.Overlays, cfg.StrictValidation)
	if err != nil {
		return nil, err
	}
	if cfg.TargetURL == "" {
		return nil, mcperr.New(mcperr.SpecInvalid, "openapi source requires a base URL (--base-url or targetUrl)")
	}

	compileCfg := Config{
		BaseURL:             cfg.TargetURL,
		SessionDescription:  cfg.Description,
		Filter:              core.OperationFilter{Whitelist: cfg.Whitelist, Blacklist: cfg.Blacklist},
		SecuritySchemeName:  cfg.SecuritySchemeName,
		SecurityCredentials: cfg.SecurityCredentials,
		APIKey:              cfg.APIKey,
		CustomHeaders:       cfg.CustomHeaders,
		DisableXMcp:         cfg.DisableXMcp,
	}
	return Compile(doc, compileCfg)
}
