package mcperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfClassifiesWrapped(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(SpecInvalid, "bad spec", cause)

	if KindOf(err) != SpecInvalid {
		t.Fatalf("KindOf() = %v, want %v", KindOf(err), SpecInvalid)
	}
	if !errors.Is(err, SpecInvalid) {
		t.Fatalf("errors.Is(err, SpecInvalid) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true")
	}
}

func TestKindOfDefaultsToInternalError(t *testing.T) {
	err := errors.New("plain")
	if KindOf(err) != InternalError {
		t.Fatalf("KindOf() = %v, want %v", KindOf(err), InternalError)
	}
}

func TestKindOfThroughFmtWrap(t *testing.T) {
	base := New(InvalidParams, "missing field x")
	wrapped := fmt.Errorf("decoding request: %w", base)

	if KindOf(wrapped) != InvalidParams {
		t.Fatalf("KindOf() = %v, want %v", KindOf(wrapped), InvalidParams)
	}
}
