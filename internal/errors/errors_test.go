package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "runtime error",
			code:    CodeHookWithoutOwner,
			wantMsg: "Hook called without an owner",
			wantCat: CategoryRuntime,
		},
		{
			name:    "config error",
			code:    CodeConfigSyntax,
			wantMsg: "Invalid config syntax",
			wantCat: CategoryConfig,
		},
		{
			name:    "devtools error",
			code:    CodeStoreNotFound,
			wantMsg: "Store not found",
			wantCat: CategoryDevtools,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown scenario %q", "cart")
	if err.Message != `unknown scenario "cart"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestVStoreError_Error(t *testing.T) {
	err := New(CodeStoreNotFound)
	if got, want := err.Error(), "E160: Store not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.Wrap(fmt.Errorf("no store %q", "cart"))
	if got, want := err.Error(), `E160: Store not found: no store "cart"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &VStoreError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestVStoreError_IsAndUnwrap(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := fmt.Errorf("load: %w", New(CodeConfigNotFound).Wrap(cause))

	if !stderrors.Is(err, New(CodeConfigNotFound)) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, New(CodeConfigSyntax)) {
		t.Error("errors.Is should not match a different code")
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
	if Code(err) != CodeConfigNotFound {
		t.Errorf("Code() = %q, want %q", Code(err), CodeConfigNotFound)
	}
	if Code(cause) != "" {
		t.Errorf("Code() of a plain error = %q, want empty", Code(cause))
	}
}

func TestVStoreError_WithLocation(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "vstore.yaml")
	content := "inspect:\n  addr: localhost:7070\n metrics: true\nbench:\n  writes: 10\n"
	if err := os.WriteFile(tmpFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New(CodeConfigSyntax).WithLocation(tmpFile, 3, 2)

	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.Line != 3 || err.Location.Column != 2 {
		t.Errorf("Location = %v, want line 3 column 2", err.Location)
	}
	if len(err.Context) != 5 {
		t.Errorf("expected 5 context lines, got %d: %v", len(err.Context), err.Context)
	}
}

func TestVStoreError_WithLocationFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantLine int
		wantCol  int
	}{
		{"yaml line", stderrors.New("yaml: line 3: mapping values are not allowed in this context"), 3, 0},
		{"line and column", stderrors.New("config: line 7, column 4: unexpected token"), 7, 4},
		{"no position", stderrors.New("unexpected end of JSON input"), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(CodeConfigSyntax).WithLocationFromError("vstore.yaml", tt.err)
			if tt.wantLine == 0 {
				if err.Location != nil {
					t.Errorf("expected no location, got %v", err.Location)
				}
				return
			}
			if err.Location == nil {
				t.Fatal("Location is nil")
			}
			if err.Location.Line != tt.wantLine || err.Location.Column != tt.wantCol {
				t.Errorf("Location = %v, want %d:%d", err.Location, tt.wantLine, tt.wantCol)
			}
		})
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeInvalidFlag) != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	ve := New(CodeInvalidFlag)
	if FromError(fmt.Errorf("wrapped: %w", ve), CodeServerFailed) != ve {
		t.Error("FromError should return the VStoreError in the chain")
	}

	stdErr := stderrors.New("address in use")
	result := FromError(stdErr, CodeServerFailed)
	if result.Wrapped != stdErr || result.Code != CodeServerFailed {
		t.Errorf("standard error should be wrapped with the given code, got %+v", result)
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, ""},
		{"with column", &Location{File: "vstore.yaml", Line: 10, Column: 5}, "vstore.yaml:10:5"},
		{"without column", &Location{File: "vstore.yaml", Line: 10}, "vstore.yaml:10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tmpFile := filepath.Join(t.TempDir(), "vstore.yaml")
	if err := os.WriteFile(tmpFile, []byte("inspect:\n  addr: nope\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := New(CodeConfigInvalidAddr).
		WithLocation(tmpFile, 2, 0).
		WithSuggestion("Use host:port").
		Wrap(stderrors.New("missing port in address"))

	formatted := err.Format()
	for _, want := range []string{
		"ERROR E103: Invalid listen address",
		tmpFile + ":2",
		"→    2 │   addr: nope",
		"Cause: missing port in address",
		"Hint: Use host:port",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format() missing %q:\n%s", want, formatted)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeConfigSyntax)
	err.Location = &Location{File: "vstore.json", Line: 10, Column: 5}

	want := "vstore.json:10:5: E101: Invalid config syntax"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestMarshalJSON(t *testing.T) {
	err := New(CodeStoreNotFound).WithSuggestion("GET /stores lists registered stores")

	data, jerr := json.Marshal(err)
	if jerr != nil {
		t.Fatalf("Marshal: %v", jerr)
	}

	var decoded map[string]any
	if jerr := json.Unmarshal(data, &decoded); jerr != nil {
		t.Fatalf("Unmarshal: %v", jerr)
	}
	if decoded["code"] != CodeStoreNotFound || decoded["category"] != "devtools" {
		t.Errorf("unexpected JSON: %s", data)
	}
	if _, ok := decoded["location"]; ok {
		t.Errorf("location should be omitted when unset: %s", data)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, fmt.Errorf("inspect: %w", New(CodeServerFailed)))
	if !strings.Contains(buf.String(), "ERROR E141: Inspector server failed") {
		t.Errorf("coded error should be formatted, got %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, stderrors.New("boom"))
	if !strings.Contains(buf.String(), "ERROR: boom") {
		t.Errorf("plain error should be printed, got %q", buf.String())
	}
}

func TestRegistry(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has an incomplete template: %+v", code, tmpl)
		}
	}

	Register("E999", ErrorTemplate{Category: CategoryCLI, Message: "Custom test error"})
	defer delete(registry, "E999")

	if err := New("E999"); err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}
}

func TestWrapText(t *testing.T) {
	if got := wrapText("short text", 100); len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}
	if got := wrapText("this is a longer text that should be wrapped", 20); len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}
	if got := wrapText("", 10); len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}
