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

package sources

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/makemcp/gateway/pkg/core"
)

func coreTransportType(s string) core.TransportType {
	return core.TransportType(s)
}

// ResolveConfig merges cliCfg (values already populated from explicit CLI
// flags) with the environment tier (HEADER_* custom headers) and the JSON
// config file tier, per §6's CLI > environment > JSON config file
// precedence. explicitConfigPath is the --config flag value, if given.
func ResolveConfig(cliCfg Config, explicitConfigPath string) (Config, error) {
	if len(cliCfg.CustomHeaders) == 0 {
		if envHeaders := envCustomHeaders(); len(envHeaders) > 0 {
			cliCfg.CustomHeaders = envHeaders
		}
	}

	fc, err := loadFileConfig(explicitConfigPath)
	if err != nil {
		return cliCfg, err
	}
	return mergeFileConfig(cliCfg, fc), nil
}

// fileConfig mirrors the recognized JSON config file keys, the lowest
// precedence tier (CLI > environment > JSON config file).
type fileConfig struct {
	Type                string            `json:"type"`
	Transport           string            `json:"transport"`
	Port                string            `json:"port"`
	PathDepth           int               `json:"pathDepth"`
	Spec                string            `json:"spec"`
	OpenAPISpecPath     string            `json:"openapiSpecPath"`
	Overlays            string            `json:"overlays"`
	TargetURL           string            `json:"targetUrl"`
	TargetAPIBaseURL    string            `json:"targetApiBaseUrl"`
	Whitelist           string            `json:"whitelist"`
	Blacklist           string            `json:"blacklist"`
	PresetParams        map[string]any    `json:"presetParams"`
	APIKey              string            `json:"apiKey"`
	SecuritySchemeName  string            `json:"securitySchemeName"`
	SecurityCredentials map[string]string `json:"securityCredentials"`
	CustomHeaders       map[string]string `json:"customHeaders"`
	DisableXMcp         bool              `json:"disableXMcp"`
	Description         string            `json:"description"`
}

// configFileCandidates is the discovery order used when --config is not
// given and CONFIG_FILE is not set.
var configFileCandidates = []string{"config.json", "openapi-mcp.json", ".openapi-mcp.json"}

// loadFileConfig locates and parses the JSON config file, per the
// discovery order: explicit path, then CONFIG_FILE env, then the
// candidate filenames in cwd. Returns a zero-value fileConfig (no error)
// when nothing is found; a JSON config file is optional at every tier.
func loadFileConfig(explicitPath string) (fileConfig, error) {
	path := explicitPath
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		for _, candidate := range configFileCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return fileConfig{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, err
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return fileConfig{}, err
	}
	return fc, nil
}

// envCustomHeaders collects every HEADER_* environment variable into a
// header-name -> value map, the env tier of customHeaders.
func envCustomHeaders() map[string]string {
	headers := map[string]string{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, "HEADER_") {
			continue
		}
		headerName := strings.TrimPrefix(name, "HEADER_")
		headers[headerName] = value
	}
	return headers
}

// SplitCSV splits a comma-separated pattern list, trimming whitespace and
// dropping empty entries.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// mergeFileConfig lays fc under cfg wherever cfg's field is still at its
// zero value, i.e. was not set by a higher-precedence tier (CLI flags or
// environment, both applied by the caller before this is called).
func mergeFileConfig(cfg Config, fc fileConfig) Config {
	if cfg.Type == "" {
		cfg.Type = fc.Type
	}
	if cfg.Transport == "" {
		cfg.Transport = coreTransportType(fc.Transport)
	}
	if cfg.Port == "" {
		cfg.Port = fc.Port
	}
	if cfg.PathDepth == 0 {
		cfg.PathDepth = fc.PathDepth
	}
	if cfg.SpecLocation == "" {
		cfg.SpecLocation = fc.Spec
		if cfg.SpecLocation == "" {
			cfg.SpecLocation = fc.OpenAPISpecPath
		}
	}
	if len(cfg.Overlays) == 0 {
		cfg.Overlays = SplitCSV(fc.Overlays)
	}
	if cfg.TargetURL == "" {
		cfg.TargetURL = fc.TargetURL
		if cfg.TargetURL == "" {
			cfg.TargetURL = fc.TargetAPIBaseURL
		}
	}
	if len(cfg.Whitelist) == 0 {
		cfg.Whitelist = SplitCSV(fc.Whitelist)
	}
	if len(cfg.Blacklist) == 0 {
		cfg.Blacklist = SplitCSV(fc.Blacklist)
	}
	if cfg.PresetParams == nil {
		cfg.PresetParams = fc.PresetParams
	}
	if cfg.APIKey == "" {
		cfg.APIKey = fc.APIKey
	}
	if cfg.SecuritySchemeName == "" {
		cfg.SecuritySchemeName = fc.SecuritySchemeName
	}
	if cfg.SecurityCredentials == nil {
		cfg.SecurityCredentials = fc.SecurityCredentials
	}
	if len(cfg.CustomHeaders) == 0 {
		cfg.CustomHeaders = fc.CustomHeaders
	}
	if !cfg.DisableXMcp {
		cfg.DisableXMcp = fc.DisableXMcp
	}
	if cfg.Description == "" {
		cfg.Description = fc.Description
	}
	return cfg
}
