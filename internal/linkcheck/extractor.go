// Package linkcheck scans rendered pages for internal links that point at
// pages the build did not produce.
package linkcheck

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL       string // The URL or path
	Tag       string // HTML tag (a, link, ...)
	Attribute string // Attribute containing the link (href, src)
}

// linkAttrs lists the attribute holding a navigable or loadable URL per tag.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"source": "src",
	"video":  "src",
	"audio":  "src",
}

// ExtractLinks extracts all links from an HTML reader.
func ExtractLinks(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, pgerrors.Wrap(err, pgerrors.CategoryValidation, pgerrors.SeverityError, "failed to parse HTML")
	}

	var links []Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if v := getAttr(n, attr); v != "" {
					links = append(links, Link{URL: v, Tag: n.Data, Attribute: attr})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// sitePath returns the site-absolute path a link points at, or false for
// links that leave the site or carry no path (anchors, mailto:, //host/...).
func sitePath(link string) (string, bool) {
	if link == "" || strings.HasPrefix(link, "#") || strings.HasPrefix(link, "//") {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if !strings.HasPrefix(u.Path, "/") {
		return "", false
	}
	return u.Path, true
}
