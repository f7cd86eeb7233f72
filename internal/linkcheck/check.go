package linkcheck

import (
	"bytes"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/pagegen/internal/storage"
)

// Broken is an internal link with no page or file behind it.
type Broken struct {
	Page string // output file containing the link
	Href string
}

// Check parses each page file and reports site-absolute links that resolve
// neither to a known page path nor to a file under outputDir.
func Check(fsys storage.FS, outputDir string, pages []string, known map[string]bool) ([]Broken, error) {
	var broken []Broken
	for _, file := range pages {
		data, err := fsys.ReadFile(file)
		if err != nil {
			return broken, err
		}
		links, err := ExtractLinks(bytes.NewReader(data))
		if err != nil {
			return broken, err
		}
		for _, l := range links {
			p, ok := sitePath(l.URL)
			if !ok || resolves(fsys, outputDir, p, known) {
				continue
			}
			broken = append(broken, Broken{Page: file, Href: l.URL})
		}
	}
	return broken, nil
}

func resolves(fsys storage.FS, outputDir, p string, known map[string]bool) bool {
	clean := path.Clean(p)
	if known[clean] || known[strings.TrimSuffix(clean, "/index.html")] {
		return true
	}
	if clean == "/index.html" && known["/"] {
		return true
	}
	target := filepath.Join(outputDir, filepath.FromSlash(clean))
	if _, err := fsys.ReadFile(target); err == nil {
		return true
	}
	_, err := fsys.ReadFile(filepath.Join(target, "index.html"))
	return err == nil
}
