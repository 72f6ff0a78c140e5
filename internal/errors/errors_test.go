package errors

import (
	"fmt"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' by default, got '%s'", ee.Category)
	}

	if ee.GetComponent() == "" {
		t.Error("Expected a non-empty component")
	}
}

func TestBuilderChaining(t *testing.T) {
	t.Parallel()

	ee := Newf("fetch failed for %s", "t3_abc").
		Component("reddit").
		Category(CategoryRedditAPI).
		Context("fullname", "t3_abc").
		Build()

	if ee.GetComponent() != "reddit" {
		t.Errorf("Expected component 'reddit', got '%s'", ee.GetComponent())
	}
	if ee.GetCategory() != "reddit-api" {
		t.Errorf("Expected category 'reddit-api', got '%s'", ee.GetCategory())
	}
	if got := ee.GetContext()["fullname"]; got != "t3_abc" {
		t.Errorf("Expected context fullname 't3_abc', got '%v'", got)
	}
}

func TestUnwrapAndIs(t *testing.T) {
	t.Parallel()

	base := NewStd("base failure")
	wrapped := New(fmt.Errorf("outer: %w", base)).Category(CategoryDatabase).Build()

	if !Is(wrapped, base) {
		t.Error("Expected Is to match the wrapped base error")
	}

	other := New(NewStd("different")).Category(CategoryDatabase).Build()
	if !Is(wrapped, other) {
		t.Error("Expected category-based matching between enhanced errors")
	}

	mismatch := New(NewStd("different")).Category(CategoryNetwork).Build()
	if Is(wrapped, mismatch) {
		t.Error("Expected no match with a different category")
	}
}

func TestContextIsCopied(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).Context("k", "v").Build()
	ctx := ee.GetContext()
	ctx["k"] = "mutated"

	if ee.GetContext()["k"] != "v" {
		t.Error("Expected GetContext to return a defensive copy")
	}
}
