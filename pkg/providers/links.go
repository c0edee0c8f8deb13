package providers

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Link is one anchor found on a listing page.
type Link struct {
	Text string
	Href string
}

// ExtractLinks returns every anchor in document order with its text trimmed.
// Anchors without text or href are dropped.
func ExtractLinks(body []byte) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []Link
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		links = append(links, Link{Text: text, Href: href})
	})
	return links, nil
}

// ResolveURL resolves href against the listing URL base. Absolute http(s)
// links pass through; other schemes and unparsable input are rejected.
func ResolveURL(base, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		if !isHTTP(ref.Scheme) {
			return "", false
		}
		return ref.String(), true
	}

	baseURL, err := url.Parse(strings.TrimSpace(base))
	if err != nil || !baseURL.IsAbs() {
		return "", false
	}

	resolved := baseURL.ResolveReference(ref)
	if !isHTTP(resolved.Scheme) {
		return "", false
	}
	return resolved.String(), true
}

func isHTTP(scheme string) bool {
	scheme = strings.ToLower(scheme)
	return scheme == "http" || scheme == "https"
}

// ToUTF8 transcodes an HTML body to UTF-8 using the Content-Type charset, a
// meta declaration or a BOM. Undecodable input is returned unchanged.
func ToUTF8(body []byte, contentType string) []byte {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return out
}
