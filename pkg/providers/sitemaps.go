package providers

import (
	"encoding/xml"
	"strings"
)

type googleNewsSitemap struct {
	URLs []googleNewsURL `xml:"url"`
}

type googleNewsURL struct {
	Loc  string           `xml:"loc"`
	News googleNewsDetail `xml:"news"`
}

type sitemapIndex struct {
	Sitemaps []sitemapIndexEntry `xml:"sitemap"`
}

type sitemapIndexEntry struct {
	Loc string `xml:"loc"`
}

type googleNewsDetail struct {
	PublicationDate string `xml:"publication_date"`
	Keywords        string `xml:"keywords"`
	Title           string `xml:"title"`
}

// parseGoogleNewsSitemap parses the XML data into a slice of googleNewsURL structs.
func parseGoogleNewsSitemap(data []byte) ([]googleNewsURL, error) {
	var sitemap googleNewsSitemap
	if err := xml.Unmarshal(data, &sitemap); err != nil {
		return nil, err
	}
	return sitemap.URLs, nil
}

// parseSitemapIndex parses an XML sitemap index file and returns the nested sitemap URLs.
func parseSitemapIndex(data []byte) ([]string, error) {
	var index sitemapIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, entry := range index.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}

// collectSitemapCandidates feeds sitemap entries through the collector. The
// news:keywords field counts towards topic matching alongside the title.
func collectSitemapCandidates(c *candidateCollector, urls []googleNewsURL) {
	for _, entry := range urls {
		title := strings.TrimSpace(entry.News.Title)
		if title == "" {
			continue
		}
		if c.match != nil && !c.match.Matches(title) && !c.match.Matches(entry.News.Keywords) {
			continue
		}
		c.addMatched(title, strings.TrimSpace(entry.Loc), parsePublicationDate(entry.News.PublicationDate))
	}
}
