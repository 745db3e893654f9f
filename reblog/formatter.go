package reblog

import (
	"fmt"
	"html"
	"strings"
)

// Formatter builds post markup in either the block editor dialect or classic
// HTML.
type Formatter struct {
	BlockEditor bool
}

// HyperLink returns an anchor to url. An empty text falls back to the url.
func (f Formatter) HyperLink(url, text string) string {
	if text == "" {
		text = url
	}
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(text))
}

// HTMLQuote wraps already formatted HTML in a blockquote.
func (f Formatter) HTMLQuote(inner string) string {
	if f.BlockEditor {
		return "<!-- wp:quote -->\n" +
			`<blockquote class="wp-block-quote">` + inner + "</blockquote>\n" +
			"<!-- /wp:quote -->"
	}
	return "<blockquote>" + inner + "</blockquote>"
}

// Quote quotes summary and cites the source post by title and permalink.
// summary is HTML as returned by the API; bare text is escaped and gets a
// paragraph.
func (f Formatter) Quote(summary, title, permalink string) string {
	body := strings.TrimSpace(summary)
	if body != "" && !strings.HasPrefix(body, "<") {
		body = "<p>" + html.EscapeString(body) + "</p>"
	}
	if permalink != "" {
		body += "<cite>" + f.HyperLink(permalink, title) + "</cite>"
	}
	return f.HTMLQuote(body)
}

// ImageBlock embeds an uploaded image by its media ID.
func (f Formatter) ImageBlock(src string, mediaID uint) string {
	img := fmt.Sprintf(`<img src="%s" class="wp-image-%d"/>`, html.EscapeString(src), mediaID)
	if f.BlockEditor {
		return fmt.Sprintf("<!-- wp:image {\"id\":%d} -->\n", mediaID) +
			`<figure class="wp-block-image">` + img + "</figure>\n" +
			"<!-- /wp:image -->"
	}
	return "<p>" + img + "</p>"
}
