package logfields

import (
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Route", KeyRoute, "post", Route("post")},
		{"Param", KeyParam, "slug", Param("slug")},
		{"Path", KeyPath, "/posts/a", Path("/posts/a")},
		{"Output", KeyOutput, "/tmp/out/index.html", Output("/tmp/out/index.html")},
		{"Template", KeyTemplate, "post.html", Template("post.html")},
		{"Component", KeyComponent, "PostPage", Component("PostPage")},
		{"Digest", KeyDigest, "abc", Digest("abc")},
		{"From", KeyFrom, "/old", From("/old")},
		{"To", KeyTo, "/new", To("/new")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Depth(2); v.Key != KeyDepth {
		t.Fatalf("Depth key mismatch: %s", v.Key)
	}
	if v := RouteIndex(1); v.Key != KeyRouteIndex {
		t.Fatalf("RouteIndex key mismatch: %s", v.Key)
	}
	if v := Count(3); v.Key != KeyCount {
		t.Fatalf("Count key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errTest{})
	if attr.Value.String() != "err-test" {
		t.Fatalf("Expected 'err-test', got %s", attr.Value.String())
	}
}

type errTest struct{}

func (e errTest) Error() string { return "err-test" }
