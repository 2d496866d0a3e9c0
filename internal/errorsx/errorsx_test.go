package errorsx

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapAndKindOf(t *testing.T) {
	err := Wrap(errors.New("boom"), KindTransport)
	if KindOf(err) != KindTransport {
		t.Fatalf("expected kind %s, got %s", KindTransport, KindOf(err))
	}
	if !Is(err, KindTransport) {
		t.Fatal("expected Is to match transport kind")
	}
}

func TestWrapPreservesExistingKind(t *testing.T) {
	first := Wrap(errors.New("boom"), KindProtocol)
	second := Wrap(fmt.Errorf("receive: %w", first), KindTransport)
	if KindOf(second) != KindProtocol {
		t.Fatalf("expected kind preserved, got %s", KindOf(second))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, KindState) != nil {
		t.Fatal("expected nil for nil error")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatal("expected unknown kind for nil error")
	}
}

func TestDescribe(t *testing.T) {
	err := New(KindState, "session is %s", "closed")
	if got := Describe(err); got != "state error: session is closed" {
		t.Fatalf("unexpected description: %q", got)
	}
	if got := Describe(errors.New("plain")); got != "unknown error: plain" {
		t.Fatalf("unexpected description: %q", got)
	}
}
