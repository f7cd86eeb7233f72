package incremental

import (
	"testing"

	"git.home.luguber.info/inful/pagegen/internal/locals"
)

func TestPageDigestDeterministic(t *testing.T) {
	l1 := locals.New(map[string]any{"title": "A", "tags": []string{"x", "y"}})
	l2 := locals.New(map[string]any{"tags": []string{"x", "y"}, "title": "A"})

	d1, err := PageDigest("tmpl", l1)
	if err != nil {
		t.Fatalf("PageDigest failed: %v", err)
	}
	d2, err := PageDigest("tmpl", l2)
	if err != nil {
		t.Fatalf("PageDigest failed: %v", err)
	}
	if d1 != d2 {
		t.Errorf("expected equal digests for equal locals, got %s vs %s", d1, d2)
	}
	if len(d1) != 64 { // blake3 produces 32 bytes = 64 hex chars
		t.Errorf("unexpected digest length %d", len(d1))
	}
}

func TestPageDigestChangesWithInputs(t *testing.T) {
	l := locals.New(map[string]any{"title": "A"})
	base, _ := PageDigest("tmpl-1", l)

	otherTemplate, _ := PageDigest("tmpl-2", l)
	if base == otherTemplate {
		t.Error("template digest change must change page digest")
	}

	otherLocals, _ := PageDigest("tmpl-1", l.With("title", "B"))
	if base == otherLocals {
		t.Error("locals change must change page digest")
	}
}

func TestPageDigestRejectsUnserializableLocals(t *testing.T) {
	l := locals.New(map[string]any{"ch": make(chan int)})
	if _, err := PageDigest("tmpl", l); err == nil {
		t.Error("expected error for unserializable locals")
	}
}

func TestSourceDigest(t *testing.T) {
	if SourceDigest([]byte("a")) == SourceDigest([]byte("b")) {
		t.Error("different sources must have different digests")
	}
	if SourceDigest([]byte("a")) != SourceDigest([]byte("a")) {
		t.Error("digest must be stable")
	}
}
