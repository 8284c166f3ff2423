// Package page pulls the text the rate extractor works on out of fetched HTML.
package page

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cashback-scraper/models"
)

const (
	maxFragments    = 20
	maxFragmentSize = 300
)

// fragmentClassRegexp selects elements whose class hints at a rate block
var fragmentClassRegexp = regexp.MustCompile(`(?i)cash-?back|reward|rate|taux|remise|bon-?achat|gift`)

// Extract reads title, meta description and rate-related fragments from an
// HTML document. Missing tags degrade to empty strings.
func Extract(r io.Reader) (models.PageText, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return models.PageText{}, fmt.Errorf("page: parse html: %w", err)
	}
	return FromDocument(doc), nil
}

// FromDocument extracts page text from an already parsed document.
func FromDocument(doc *goquery.Document) models.PageText {
	p := models.PageText{
		Title:           clean(doc.Find("title").First().Text()),
		MetaDescription: clean(doc.Find(`meta[name="description"]`).First().AttrOr("content", "")),
	}
	if p.MetaDescription == "" {
		p.MetaDescription = clean(doc.Find(`meta[property="og:description"]`).First().AttrOr("content", ""))
	}

	seen := make(map[string]struct{})
	doc.Find("body [class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !fragmentClassRegexp.MatchString(class) {
			return true
		}
		txt := clean(s.Text())
		if txt == "" || !strings.Contains(txt, "%") {
			return true
		}
		if len(txt) > maxFragmentSize {
			txt = truncateRunes(txt, maxFragmentSize)
		}
		if _, dup := seen[txt]; dup {
			return true
		}
		seen[txt] = struct{}{}
		p.Fragments = append(p.Fragments, txt)
		return len(p.Fragments) < maxFragments
	})

	return p
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
