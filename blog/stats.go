package blog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const wordsPerMinute = 200

// ReadingStats counts the words of the visible text in an HTML body and
// estimates reading time, rounding up to whole minutes.
func ReadingStats(html string) (words, minutes int) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, 0
	}
	doc.Find("script, style, noscript").Remove()
	words = len(strings.Fields(doc.Text()))
	if words == 0 {
		return 0, 0
	}
	return words, (words + wordsPerMinute - 1) / wordsPerMinute
}
