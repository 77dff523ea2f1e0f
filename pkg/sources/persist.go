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
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigFilename is where a resolved Config is persisted when the
// caller does not name a file.
const DefaultConfigFilename = "makemcp.json"

// SaveConfig serializes cfg into the JSON config-file shape (the same
// keys ResolveConfig reads back) and writes it to path, creating parent
// directories as needed. This is what --config-only emits, and what the
// "file" source later loads and serves.
func SaveConfig(cfg Config, path string) error {
	if path == "" {
		path = DefaultConfigFilename
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			log.Printf("failed to close config file: %v", cerr)
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(configToFile(cfg)); err != nil {
		return fmt.Errorf("failed to encode config JSON: %w", err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	log.Printf("Configuration saved to %s", path)
	return nil
}

// LoadConfig reads a previously saved JSON config file into a Config,
// with no higher-precedence CLI or environment tier layered on top.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	log.Printf("Configuration loaded from %s", path)
	return mergeFileConfig(Config{}, fc), nil
}

// configToFile converts a resolved Config back to the config-file shape,
// re-joining the comma-separated list fields.
func configToFile(cfg Config) fileConfig {
	return fileConfig{
		Type:                cfg.Type,
		Transport:           string(cfg.Transport),
		Port:                cfg.Port,
		PathDepth:           cfg.PathDepth,
		Spec:                cfg.SpecLocation,
		Overlays:            strings.Join(cfg.Overlays, ","),
		TargetURL:           cfg.TargetURL,
		Whitelist:           strings.Join(cfg.Whitelist, ","),
		Blacklist:           strings.Join(cfg.Blacklist, ","),
		PresetParams:        cfg.PresetParams,
		APIKey:              cfg.APIKey,
		SecuritySchemeName:  cfg.SecuritySchemeName,
		SecurityCredentials: cfg.SecurityCredentials,
		CustomHeaders:       cfg.CustomHeaders,
		DisableXMcp:         cfg.DisableXMcp,
		Description:         cfg.Description,
	}
}
