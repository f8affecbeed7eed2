package prompt

import (
	"strings"
	"testing"
)

func TestRender_InterpolatesContextAndTask(t *testing.T) {
	out, err := Render("# From a.java:\nclass A {}", "add refund endpoint")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if !strings.Contains(out, "class A {}") {
		t.Error("Expected context in rendered prompt")
	}
	if !strings.Contains(out, "add refund endpoint") {
		t.Error("Expected task in rendered prompt")
	}
	if !strings.Contains(out, "senior Java backend engineer") {
		t.Error("Expected template scaffolding in rendered prompt")
	}
}

func TestRender_EmptyContext(t *testing.T) {
	out, err := Render("", "add refund endpoint")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "add refund endpoint") {
		t.Error("Expected task in rendered prompt")
	}
}
