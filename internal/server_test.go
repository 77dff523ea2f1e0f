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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/makemcp/gateway/pkg/core"
)

func TestMergeHeadersOverridesWinOnConflict(t *testing.T) {
	base := map[string]string{"Authorization": "Bearer static", "X-Static": "1"}
	overrides := map[string]string{"Authorization": "Bearer session", "X-Session": "2"}

	got := mergeHeaders(base, overrides)

	if got["Authorization"] != "Bearer session" {
		t.Errorf("Authorization = %q, want session override to win", got["Authorization"])
	}
	if got["X-Static"] != "1" || got["X-Session"] != "2" {
		t.Errorf("non-conflicting keys from both maps should survive: %+v", got)
	}
}

// TestNewHTTPContextFuncPreservesExistingSessionState grounds the
// resumed-session case: a second request carrying the same
// Mcp-Session-Id must not reset the session (and so must not discard
// whatever registry its first tool call already compiled).
func TestNewHTTPContextFuncPreservesExistingSessionState(t *testing.T) {
	sessions := core.NewSessionRegistry()
	contextFunc := newHTTPContextFunc(sessions)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Mcp-Session-Id", "sess-1")
	req.Header.Set("Authorization", "Bearer t")

	ctx := contextFunc(context.Background(), req)
	sessionID, ok := sessionIDFromContext(ctx)
	if !ok || sessionID != "sess-1" {
		t.Fatalf("sessionIDFromContext = %q, %v, want sess-1, true", sessionID, ok)
	}

	state, found := sessions.Get("sess-1")
	if !found {
		t.Fatal("expected session to be opened")
	}
	registry := core.NewToolRegistry(nil)
	if _, err := state.EnsureRegistry(func(map[string]string) (*core.ToolRegistry, error) {
		return registry, nil
	}); err != nil {
		t.Fatalf("EnsureRegistry failed: %v", err)
	}

	// A second request for the same session id must reuse the existing
	// state, not replace it with a fresh, uncompiled one.
	contextFunc(context.Background(), req)
	state, _ = sessions.Get("sess-1")
	if state.Registry != registry {
		t.Error("resuming a session must not discard its already-compiled registry")
	}
}
