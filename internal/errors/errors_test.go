package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestPagegenError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *PagegenError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("permission denied"), CategoryFileSystem, SeverityFatal, "page write failed"),
			expected: "filesystem (fatal): page write failed: permission denied",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestPagegenError_WithContext(t *testing.T) {
	err := ResolverNotFound("entries", "post", "slug")

	if err.Context["route"] != "post" {
		t.Errorf("Context[route] = %v, want post", err.Context["route"])
	}
	if err.Context["param"] != "slug" {
		t.Errorf("Context[param] = %v, want slug", err.Context["param"])
	}
	if !err.IsFatal() {
		t.Error("resolver miss should be fatal")
	}
}

func TestIsCategoryThroughWrapping(t *testing.T) {
	base := RenderFailed("/out/index.html", fmt.Errorf("boom"))
	wrapped := fmt.Errorf("page /: %w", base)

	if !IsCategory(wrapped, CategoryRender) {
		t.Error("expected wrapped error to keep render category")
	}
	if IsCategory(wrapped, CategoryConfig) {
		t.Error("render error reported as config")
	}
	if GetCategory(fmt.Errorf("plain")) != CategoryInternal {
		t.Error("plain errors should classify as internal")
	}
	if !stdErrors.Is(wrapped, base) {
		t.Error("errors.Is should find the PagegenError")
	}
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)

	cases := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{fmt.Errorf("x"), 1},
		{ValidationError("bad flag"), 2},
		{ConfigRequired("routes"), 7},
		{LocalNameCollision("post", "slug"), 7},
		{RedirectFailed("/a", "/b", nil), 11},
		{TemplateNotFound("Post"), 11},
		{WriteFailed("/x", fmt.Errorf("disk full")), 11},
		{InternalError("oops", nil), 10},
	}
	for _, c := range cases {
		if got := a.ExitCodeFor(c.err); got != c.code {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", c.err, got, c.code)
		}
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var stderr bytes.Buffer
	code := -1
	a := NewCLIErrorAdapter(false, nil)
	a.stderr = &stderr
	a.exit = func(c int) { code = c }

	a.HandleError(TemplateNotFound("PostPage"))

	if code != 11 {
		t.Fatalf("exit code = %d, want 11", code)
	}
	if !strings.Contains(stderr.String(), "template:") || !strings.Contains(stderr.String(), "PostPage") {
		t.Errorf("unexpected message %q", stderr.String())
	}
}
