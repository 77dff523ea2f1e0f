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

package specloader

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/makemcp/gateway/internal/mcperr"
)

// applyOverlayFiles reads each overlay file (a JSON array of OverlayEntry),
// decodes the base spec bytes into a generic tree, applies every entry in
// order, and re-encodes the result as JSON for libopenapi to consume.
func applyOverlayFiles(specBytes []byte, overlayPaths []string) ([]byte, error) {
	if len(overlayPaths) == 0 {
		return specBytes, nil
	}

	var tree any
	if err := yaml.Unmarshal(specBytes, &tree); err != nil {
		return nil, mcperr.Wrap(mcperr.SpecParseError, "failed to decode spec for overlay application", err)
	}

	for _, path := range overlayPaths {
		entries, err := loadOverlayEntries(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			applyOverlayEntry(&tree, entry)
		}
	}

	patched, err := json.Marshal(tree)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.InternalError, "failed to re-encode overlaid spec", err)
	}
	return patched, nil
}

func loadOverlayEntries(path string) ([]OverlayEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, mcperr.Wrap(mcperr.SpecNotFound, "overlay file not found: "+path, err)
	}
	var entries []OverlayEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, mcperr.Wrap(mcperr.SpecParseError, "overlay file is not a valid JSON entry array: "+path, err)
	}
	return entries, nil
}

// applyOverlayEntry resolves entry.Target against root (a dotted path,
// e.g. "paths./pets.get", where a path key keeps its own slashes) and deep
// merges entry.Update into whatever it finds there. A target that
// resolves to nothing is logged and skipped; this is non-fatal.
func applyOverlayEntry(root *any, entry OverlayEntry) {
	segments := splitTarget(entry.Target)
	if len(segments) == 0 {
		log.Printf("overlay: empty target, skipping")
		return
	}

	parent, key, ok := navigateToParent(root, segments)
	if !ok {
		log.Printf("overlay: target %q matched nothing, skipping", entry.Target)
		return
	}

	switch p := parent.(type) {
	case map[string]any:
		p[key] = deepMerge(p[key], entry.Update)
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(p) {
			log.Printf("overlay: target %q has invalid array index, skipping", entry.Target)
			return
		}
		p[idx] = deepMerge(p[idx], entry.Update)
	default:
		log.Printf("overlay: target %q matched nothing, skipping", entry.Target)
	}
}

// splitTarget breaks a target expression into path segments on ".",
// e.g. "paths./pets.get" -> ["paths", "/pets", "get"]. OpenAPI path
// keys keep their own leading "/" untouched, since "." (not "/") is the
// segment separator.
func splitTarget(target string) []string {
	normalized := strings.Trim(target, ".")
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, ".")
}

// navigateToParent walks root following segments[:len-1] and returns the
// container holding the final segment, plus that final segment as a key,
// so the caller can merge into it in place. Returns ok=false if any
// intermediate segment is missing.
func navigateToParent(root *any, segments []string) (parent any, key string, ok bool) {
	var cur any = *root
	for i, seg := range segments {
		last := i == len(segments)-1
		switch node := cur.(type) {
		case map[string]any:
			if last {
				return node, seg, true
			}
			next, exists := node[seg]
			if !exists {
				return nil, "", false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, "", false
			}
			if last {
				return node, seg, true
			}
			cur = node[idx]
		default:
			return nil, "", false
		}
	}
	return nil, "", false
}

// deepMerge merges update onto base: scalars and nil are replaced
// outright, arrays are concatenated (base..., then update...), and
// objects are key-unioned with update's values winning on key conflicts
// (recursively).
func deepMerge(base, update any) any {
	switch u := update.(type) {
	case map[string]any:
		b, ok := base.(map[string]any)
		if !ok {
			b = map[string]any{}
		}
		merged := make(map[string]any, len(b)+len(u))
		for k, v := range b {
			merged[k] = v
		}
		for k, v := range u {
			merged[k] = deepMerge(merged[k], v)
		}
		return merged
	case []any:
		b, ok := base.([]any)
		if !ok {
			return u
		}
		merged := make([]any, 0, len(b)+len(u))
		merged = append(merged, b...)
		merged = append(merged, u...)
		return merged
	default:
		return update
	}
}
