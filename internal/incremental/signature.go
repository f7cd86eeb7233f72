// Package incremental computes the content digests that drive incremental
// page builds.
package incremental

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"git.home.luguber.info/inful/pagegen/internal/locals"
)

// SourceDigest returns the digest of a template's source text.
func SourceDigest(source []byte) string {
	sum := blake3.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// PageDigest computes the digest of one page:
// hash(templateDigest ++ canonical(locals)).
//
// Two pages with identical digests render identically, provided the
// template's render function is pure.
func PageDigest(templateDigest string, l locals.Locals) (string, error) {
	data, err := l.Canonical()
	if err != nil {
		return "", fmt.Errorf("serialize locals: %w", err)
	}

	h := blake3.New()
	_, _ = h.Write([]byte(templateDigest))
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
