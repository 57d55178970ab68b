package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML extracts plain text from markup. Feedback exports frequently
// wrap responses in HTML; tags become spaces so adjacent words don't fuse.
// Input without markup passes through unchanged apart from whitespace
// normalization. Malformed HTML is tolerated (the tokenizer degrades
// gracefully either way).
func StripHTML(raw string) string {
	if !strings.ContainsRune(raw, '<') {
		return strings.Join(strings.Fields(raw), " ")
	}

	var b strings.Builder
	tz := html.NewTokenizer(strings.NewReader(raw))

	for {
		tt := tz.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(tz.Text())
			b.WriteByte(' ')
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tz.TagName()
			switch string(name) {
			case "script", "style":
				if tt == html.StartTagToken {
					skipElement(tz, string(name))
				}
			}
			b.WriteByte(' ')
		}
	}
}

// skipElement consumes tokens until the matching end tag (or EOF).
func skipElement(tz *html.Tokenizer, tag string) {
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			return
		}
		if tt == html.EndTagToken {
			name, _ := tz.TagName()
			if string(name) == tag {
				return
			}
		}
	}
}
