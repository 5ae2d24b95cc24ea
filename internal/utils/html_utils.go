package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HardenHTML adds privacy attributes to images and links in already
// sanitised HTML.
func HardenHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("referrerpolicy", "no-referrer")
		s.SetAttr("loading", "lazy")
	})
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		s.SetAttr("rel", "nofollow noopener noreferrer")
	})

	// goquery wraps fragments in a full document
	out, err := doc.Find("body").Html()
	if err != nil || out == "" {
		return fragment
	}
	return strings.TrimSpace(out)
}
