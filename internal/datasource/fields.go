package datasource

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lookup follows a dotted field path through nested mappings. An empty path
// returns the entry itself.
func Lookup(entry any, path string) (any, bool) {
	if path == "" {
		return entry, true
	}
	cur := entry
	for key := range strings.SplitSeq(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(m) {
				return nil, false
			}
			cur = m[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Scalar returns the string form of a scalar value. Nil is the empty string.
func Scalar(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Segment derives a path segment from field of entry. With slug set the value
// is slugified; a missing or null field is the empty segment.
func Segment(entry any, field string, slug bool) (string, error) {
	v, ok := Lookup(entry, field)
	if !ok || v == nil {
		return "", nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", fmt.Errorf("field %q is not a scalar", field)
	}
	s := Scalar(v)
	if slug {
		s = Slugify(s)
	}
	return s, nil
}

// Slugify lowercases s, strips diacritics and joins runs of letters and
// digits with single dashes.
func Slugify(s string) string {
	// Transformers and casers carry state; build them per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
