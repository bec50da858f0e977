package template

import (
	"errors"
	"testing"
)

func testContext() *Context {
	return NewContext(map[string]interface{}{
		"project": map[string]interface{}{
			"name":           "shop",
			"packageManager": "pnpm",
			"port":           float64(3000),
		},
		"modules": map[string]interface{}{
			"database": map[string]interface{}{
				"orm":     "prisma",
				"enabled": true,
			},
		},
		"empty":    "",
		"disabled": false,
		"tags":     []interface{}{},
	})
}

func TestResolveVariable(t *testing.T) {
	r := NewResolver()

	out, err := r.Resolve("name={{project.name}} orm={{modules.database.orm}}", testContext())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if out != "name=shop orm=prisma" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestResolveNumberRendersWithoutFraction(t *testing.T) {
	r := NewResolver()

	out, err := r.Resolve("PORT={{project.port}}", testContext())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if out != "PORT=3000" {
		t.Errorf("expected PORT=3000, got %q", out)
	}
}

func TestUnresolvedVariableLeftVerbatim(t *testing.T) {
	r := NewResolver()

	out, err := r.Resolve("value={{no.such.param}}", testContext())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// A missing parameter must surface as literal text, never an empty string.
	if out != "value={{no.such.param}}" {
		t.Errorf("expected marker preserved, got %q", out)
	}
}

func TestAliasFallback(t *testing.T) {
	r := NewResolver()

	// Direct lookup fails; alias rule redirects to project.packageManager.
	out, err := r.Resolve("{{packageManager}} install", testContext())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if out != "pnpm install" {
		t.Errorf("expected alias redirect, got %q", out)
	}

	// No context value anywhere: hard-coded default applies.
	out, err = r.Resolve("{{packageManager}} install", NewContext(nil))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if out != "npm install" {
		t.Errorf("expected alias default, got %q", out)
	}
}

func TestConditionTruthiness(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"literal zero", `{{#if 0}}x{{/if}}`, ""},
		{"literal nonzero", `{{#if 42}}x{{/if}}`, "x"},
		{"literal nonempty string", `{{#if "nonempty"}}x{{/if}}`, "x"},
		{"literal empty string", `{{#if ""}}x{{/if}}`, ""},
		{"literal false string", `{{#if "false"}}x{{/if}}`, ""},
		{"bool true", `{{#if modules.database.enabled}}x{{/if}}`, "x"},
		{"bool false", `{{#if disabled}}x{{/if}}`, ""},
		{"empty context string", `{{#if empty}}x{{/if}}`, ""},
		{"empty collection", `{{#if tags}}x{{/if}}`, ""},
		{"unresolved variable", `{{#if never.defined}}x{{/if}}`, ""},
		{"nonempty string value", `{{#if project.name}}x{{/if}}`, "x"},
	}

	r := NewResolver()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.Resolve(tc.input, testContext())
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if out != tc.want {
				t.Errorf("got %q, want %q", out, tc.want)
			}
		})
	}
}

func TestAdjacentSiblingBlocks(t *testing.T) {
	r := NewResolver()

	input := `{{#if disabled}}A{{/if}}{{#if project.name}}B{{/if}}{{#if empty}}C{{/if}}`
	out, err := r.Resolve(input, testContext())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Each block must be matched by its own closing marker, not the last one.
	if out != "B" {
		t.Errorf("expected B, got %q", out)
	}
}

func TestBlockKeepsInnerVariables(t *testing.T) {
	r := NewResolver()

	out, err := r.Resolve(`{{#if modules.database.enabled}}orm: {{modules.database.orm}}{{/if}}`, testContext())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if out != "orm: prisma" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestValidateUnterminatedMarker(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve("hello {{project.name", testContext())
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

func TestValidateUnmatchedIf(t *testing.T) {
	r := NewResolver()

	for _, input := range []string{
		`{{#if project.name}}body`,
		`body{{/if}}`,
		`{{#if}}body{{/if}}`,
	} {
		_, err := r.Resolve(input, testContext())
		var resErr *ResolutionError
		if !errors.As(err, &resErr) {
			t.Errorf("input %q: expected ResolutionError, got %v", input, err)
		}
	}
}

func TestResolveNoMarkers(t *testing.T) {
	r := NewResolver()

	out, err := r.Resolve("plain text, no markers", testContext())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if out != "plain text, no markers" {
		t.Errorf("unexpected output: %q", out)
	}
}
