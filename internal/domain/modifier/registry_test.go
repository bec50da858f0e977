package modifier

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistryExecute(t *testing.T) {
	r := NewDefault(nil)

	out, err := r.Execute("text-append", "styles.css", "body {}\n", Params{
		"content": ".generated { color: red; }",
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(out, ".generated") {
		t.Errorf("append missing: %q", out)
	}
}

func TestRegistryUnknownModifier(t *testing.T) {
	r := NewDefault(nil)

	_, err := r.Execute("no-such-modifier", "a.txt", "", Params{})
	var tErr *TransformError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if tErr.Modifier != "no-such-modifier" || tErr.Path != "a.txt" {
		t.Errorf("error should identify modifier and path: %+v", tErr)
	}
}

func TestRegistryValidatesBeforeTransform(t *testing.T) {
	r := NewDefault(nil)

	_, err := r.Execute("structured-merge", "package.json", "{}", Params{})
	var pErr *ParamError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected ParamError, got %v", err)
	}
	if pErr.Param != "data" {
		t.Errorf("error should name the offending parameter: %+v", pErr)
	}
}

func TestRegistryRejectsBinaryContent(t *testing.T) {
	r := NewDefault(nil)

	binary := string([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00})
	_, err := r.Execute("text-append", "logo.png", binary, Params{"content": "x"})
	var tErr *TransformError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransformError for binary content, got %v", err)
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	r := NewRegistry(nil)

	first := NewTextAppend()
	if err := r.Register(first); err != nil {
		t.Fatal(err)
	}
	second := NewTextAppend()
	if err := r.Register(second); err != nil {
		t.Fatal(err)
	}

	got, ok := r.Get("text-append")
	if !ok {
		t.Fatal("modifier missing after re-registration")
	}
	if got != Modifier(second) {
		t.Error("expected last registration to win")
	}
}

func TestRegistryErrorsAreTyped(t *testing.T) {
	r := NewDefault(nil)

	// A failed transform must come back as a TransformError naming the file.
	_, err := r.Execute("structured-merge", "tsconfig.json", "{broken", Params{
		"data": map[string]interface{}{"x": float64(1)},
	})
	var tErr *TransformError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransformError, got %T", err)
	}
	if tErr.Path != "tsconfig.json" {
		t.Errorf("error should carry the file path: %+v", tErr)
	}
}

func TestWrapComponentNotSupported(t *testing.T) {
	r := NewDefault(nil)

	_, err := r.Execute("wrap-component", "src/App.tsx", "<App />", Params{
		"target":  "App",
		"wrapper": "ThemeProvider",
	})
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestTextAppendIdempotent(t *testing.T) {
	m := NewTextAppend()
	params := Params{"content": ".btn { padding: 4px; }\n"}

	once, err := m.Apply("body {}\n", params)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := m.Apply(once, params)
	if err != nil {
		t.Fatal(err)
	}

	if once != twice {
		t.Errorf("append not idempotent:\n%q\n%q", once, twice)
	}
}

func TestTextAppendToEmpty(t *testing.T) {
	m := NewTextAppend()

	out, err := m.Apply("", Params{"content": "node_modules/"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "node_modules/\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestIsBinary(t *testing.T) {
	if isBinary("") {
		t.Error("empty content is not binary")
	}
	if isBinary(`{"json": true}`) {
		t.Error("json is text")
	}
	if isBinary("plain text\nwith lines\n") {
		t.Error("plain text is text")
	}
	if !isBinary(string([]byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x01, 0x00})) {
		t.Error("ELF header is binary")
	}
}
