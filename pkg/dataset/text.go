package dataset

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Elements that end a run of text when rendered.
const blockSelector = "p, div, li, br, tr, h1, h2, h3, h4, h5, h6, blockquote"

// PlainText reduces authored HTML to whitespace-normalized text. Strings
// without markup are returned unchanged.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		sel.AfterHtml(" ")
	})
	return strings.Join(strings.Fields(doc.Text()), " ")
}
