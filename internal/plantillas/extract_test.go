package plantillas

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractOrderAndDedup(t *testing.T) {
	got := Extract("Hello {a} and {b} and {a}")
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractNoBraces(t *testing.T) {
	got := Extract("plain narrative text, nothing to substitute")
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestExtractKeepsFirstOccurrenceOrder(t *testing.T) {
	got := Extract("{plate} seen near {lugar}, driver {nombre}, plate {plate} confirmed")
	want := []string{"plate", "lugar", "nombre"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractNoValidation(t *testing.T) {
	// Whitespace, punctuation and the empty capture all pass through as
	// literal names.
	got := Extract("{ nombre }{}{n-1}")
	want := []string{" nombre ", "", "n-1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractUnbalancedBraces(t *testing.T) {
	if got := Extract("left { open forever"); len(got) != 0 {
		t.Fatalf("unbalanced open brace should yield nothing, got %v", got)
	}
	if got := Extract("close } only"); len(got) != 0 {
		t.Fatalf("stray close brace should yield nothing, got %v", got)
	}
	got := Extract("{a} and { b never closes")
	want := []string{"a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("extract mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractIdempotent(t *testing.T) {
	content := "Driver {nombre} plate {plate} and again {nombre}"
	first := Extract(content)
	second := Extract(content)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("extract is not deterministic (-first +second):\n%s", diff)
	}
}
