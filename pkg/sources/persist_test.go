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
	"path/filepath"
	"testing"

	"github.com/makemcp/gateway/pkg/core"
)

func TestSaveConfigLoadConfigRoundTrip(t *testing.T) {
	cfg := Config{
		Type:         "openapi",
		Transport:    core.TransportTypeHTTP,
		Port:         "9090",
		SpecLocation: "https://api.example.com/openapi.json",
		Overlays:     []string{"overlay-a.json", "overlay-b.json"},
		TargetURL:    "https://api.example.com",
		Whitelist:    []string{"getPet", "GET:/pets/**"},
		PresetParams: map[string]any{"tenantId": "t1"},
		CustomHeaders: map[string]string{
			"X-Custom": "1",
		},
		DisableXMcp: true,
		Description: "petstore gateway",
	}

	path := filepath.Join(t.TempDir(), "saved", "makemcp.json")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Type != cfg.Type || loaded.Transport != cfg.Transport || loaded.Port != cfg.Port {
		t.Errorf("type/transport/port mismatch: %+v", loaded)
	}
	if loaded.SpecLocation != cfg.SpecLocation || loaded.TargetURL != cfg.TargetURL {
		t.Errorf("locations mismatch: %+v", loaded)
	}
	if len(loaded.Overlays) != 2 || loaded.Overlays[1] != "overlay-b.json" {
		t.Errorf("overlays did not round trip: %v", loaded.Overlays)
	}
	if len(loaded.Whitelist) != 2 || loaded.Whitelist[1] != "GET:/pets/**" {
		t.Errorf("whitelist did not round trip: %v", loaded.Whitelist)
	}
	if loaded.PresetParams["tenantId"] != "t1" {
		t.Errorf("presetParams did not round trip: %v", loaded.PresetParams)
	}
	if loaded.CustomHeaders["X-Custom"] != "1" {
		t.Errorf("customHeaders did not round trip: %v", loaded.CustomHeaders)
	}
	if !loaded.DisableXMcp || loaded.Description != cfg.Description {
		t.Errorf("disableXMcp/description mismatch: %+v", loaded)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
