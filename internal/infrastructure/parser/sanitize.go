package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText reduces HTML fragments returned by providers to readable text.
// Input without markup only gets its whitespace collapsed.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("br, p, li, div").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})

	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
