package feed

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)

	// Left over when a feed double-encodes its markup.
	entityReplacer = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&#038;", "&",
	)
)

const blockElements = "p, br, div, li, ul, ol, h1, h2, h3, h4, h5, h6, tr, td, blockquote"

// CleanText strips markup, decodes HTML entities and collapses whitespace.
func CleanText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	var text string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		text = tagPattern.ReplaceAllString(s, " ")
	} else {
		doc.Find("script, style").Remove()
		doc.Find(blockElements).AfterHtml(" ")
		text = doc.Text()
	}

	// Decoding can surface markup that was double-encoded upstream.
	text = tagPattern.ReplaceAllString(entityReplacer.Replace(text), " ")
	return strings.Join(strings.Fields(text), " ")
}
