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

package core

import (
	"sync"
	"time"
)

// RegistryCompiler builds a session's tool registry, given that session's
// captured inbound headers. Implementations close over the configured
// Source and Config so the spec can be (re)loaded per session, since a
// spec's fetch or introspection call may itself depend on per-request
// headers (an auth-gated OpenAPI document, or a GraphQL endpoint whose
// introspection query requires credentials).
type RegistryCompiler func(headers map[string]string) (*ToolRegistry, error)

// ToolRegistry holds the tool descriptors compiled for a single session and
// routes invocations by name. It is built once per session, on the first
// invocation that requires tools, and is read-only afterwards.
type ToolRegistry struct {
	byName map[string]*ToolDescriptor
	order  []string
}

// NewToolRegistry builds a registry from a list of compiled tool
// descriptors, applying the tool-name uniqueness invariant.
func NewToolRegistry(descriptors []*ToolDescriptor) *ToolRegistry {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Tool.Name
	}
	disambiguated := DisambiguateNames(names)

	reg := &ToolRegistry{
		byName: make(map[string]*ToolDescriptor, len(descriptors)),
		order:  make([]string, 0, len(descriptors)),
	}
	for i, d := range descriptors {
		d.Tool.Name = disambiguated[i]
		reg.byName[d.Tool.Name] = d
		reg.order = append(reg.order, d.Tool.Name)
	}
	return reg
}

// Get looks up a tool descriptor by name.
func (r *ToolRegistry) Get(name string) (*ToolDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All returns every descriptor in discovery order.
func (r *ToolRegistry) All() []*ToolDescriptor {
	out := make([]*ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// SessionState holds the per-session compiled registry plus the auth
// headers captured from the inbound transport request at session start.
type SessionState struct {
	ID        string
	Registry  *ToolRegistry
	Headers   map[string]string
	CreatedAt time.Time

	compileOnce sync.Once
	compileErr  error
}

// NewSessionState creates a SessionState with no registry compiled yet;
// the registry is compiled lazily by EnsureRegistry on the first
// tool-requiring invocation, using this session's captured headers.
func NewSessionState(id string, headers map[string]string) *SessionState {
	return &SessionState{
		ID:        id,
		Headers:   headers,
		CreatedAt: time.Now(),
	}
}

// EnsureRegistry compiles and caches this session's tool registry exactly
// once, no matter how many tool calls race to trigger it: the first
// caller runs compiler against this session's Headers, every caller
// (concurrent or later) observes the same cached registry or error. This
// is what lets a spec depend on per-session headers (e.g. an
// authorization header gating an OpenAPI document's retrieval, or a
// GraphQL introspection query) rather than only the static, process-wide
// headers a source was launched with.
func (s *SessionState) EnsureRegistry(compiler RegistryCompiler) (*ToolRegistry, error) {
	s.compileOnce.Do(func() {
		s.Registry, s.compileErr = compiler(s.Headers)
	})
	return s.Registry, s.compileErr
}

// SessionRegistry is the single process-wide mutable map of
// sessionId -> SessionState, replacing any global singleton. It is owned
// by the server entrypoint and passed to components by parameter; its
// interior mutability is guarded by a mutex (single writer, many readers).
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*SessionState
}

// NewSessionRegistry creates an empty SessionRegistry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*SessionState),
	}
}

// Open registers a new session, created on transport session start.
func (r *SessionRegistry) Open(state *SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[state.ID] = state
}

// Get returns the session state for an id, if it exists.
func (r *SessionRegistry) Get(id string) (*SessionState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close discards a session's state, on the transport's close signal.
func (r *SessionRegistry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions, for diagnostics.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
