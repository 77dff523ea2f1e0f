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

// Package mcperr classifies the errors the gateway can return to an MCP
// client into a fixed set of kinds, so transports can map them onto the
// right JSON-RPC error code without string-matching messages.
package mcperr

import (
	"errors"
	"fmt"
)

// Kind is one of the fixed MCP-facing error classifications.
type Kind string

const (
	SpecNotFound   Kind = "spec_not_found"
	SpecParseError Kind = "spec_parse_error"
	SpecInvalid    Kind = "spec_invalid"
	InvalidParams  Kind = "invalid_params"
	MethodNotFound Kind = "method_not_found"
	InternalError  Kind = "internal_error"
)

// classified is the concrete error type returned by New/Wrap; it carries
// a Kind alongside the usual message and unwraps to its cause.
type classified struct {
	kind  Kind
	msg   string
	cause error
}

func (e *classified) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *classified) Unwrap() error {
	return e.cause
}

// Is reports whether target is the sentinel for e's kind, so that
// errors.Is(err, mcperr.SpecInvalid) works directly against a Kind value.
func (e *classified) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.kind
}

// Error satisfies the error interface for Kind itself, so a bare Kind can
// be used as a sentinel in errors.Is comparisons.
func (k Kind) Error() string {
	return string(k)
}

// New creates a classified error of the given kind with a message.
func New(kind Kind, msg string) error {
	return &classified{kind: kind, msg: msg}
}

// Newf creates a classified error of the given kind with a formatted
// message.
func Newf(kind Kind, format string, args ...any) error {
	return &classified{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error under kind, preserving it as the
// unwrap cause so errors.Is/errors.As still reach the original error.
func Wrap(kind Kind, msg string, cause error) error {
	if cause == nil {
		return nil
	}
	return &classified{kind: kind, msg: msg, cause: cause}
}

// KindOf extracts the Kind of err, walking its Unwrap chain. It returns
// InternalError for any error that was never classified, matching the
// gateway's default JSON-RPC mapping.
func KindOf(err error) Kind {
	var c *classified
	if errors.As(err, &c) {
		return c.kind
	}
	return InternalError
}
