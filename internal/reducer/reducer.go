// Package reducer strips job-posting HTML down to the text blocks worth sending to a model.
package reducer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMinBlockChars is the length a block's text must exceed to be kept.
const DefaultMinBlockChars = 20

var (
	// removedTags never carry posting content.
	removedTags = []string{
		"script", "style", "noscript", "template",
		"nav", "header", "footer", "iframe",
		"img", "svg", "video", "audio", "picture", "object", "embed", "canvas",
		"button", "input", "select", "textarea",
	}

	blockTags = map[string]struct{}{
		"p": {}, "div": {}, "section": {}, "article": {}, "li": {}, "td": {},
	}

	reHiddenStyle = regexp.MustCompile(`(?i)display\s*:\s*none|visibility\s*:\s*hidden`)
	reBoilerplate = regexp.MustCompile(`(?i)menu|nav|footer|header|sidebar|banner|ad|cookie|popup|modal`)
)

// Reducer removes boilerplate from HTML and keeps dense text blocks.
type Reducer struct {
	minBlockChars int
}

// New returns a Reducer keeping blocks longer than minBlockChars runes.
// A negative value falls back to DefaultMinBlockChars.
func New(minBlockChars int) *Reducer {
	if minBlockChars < 0 {
		minBlockChars = DefaultMinBlockChars
	}
	return &Reducer{minBlockChars: minBlockChars}
}

// Reduce uses DefaultMinBlockChars.
func Reduce(html string) string {
	return New(DefaultMinBlockChars).Reduce(html)
}

// Reduce never fails: unparseable or content-free input yields "".
func (r *Reducer) Reduce(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find(strings.Join(removedTags, ",")).Remove()

	doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
		if style, ok := s.Attr("style"); ok && reHiddenStyle.MatchString(style) {
			s.Remove()
		}
	})

	// html and body are exempt so a themed <body class="has-header"> does not empty the page.
	doc.Find("[class],[id]").Not("html,body").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		if reBoilerplate.MatchString(class) || reBoilerplate.MatchString(id) {
			s.Remove()
		}
	})

	c := &collector{min: r.minBlockChars}
	var root strings.Builder
	c.walk(doc.Selection, &root)

	kept := c.blocks[:0]
	for _, b := range c.blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}

// collector assigns each piece of text to the innermost block that passes the
// length filter. Short nested blocks roll their text up into the enclosing block,
// so a list of short items still survives as part of its container.
type collector struct {
	min    int
	blocks []string
}

func (c *collector) walk(s *goquery.Selection, buf *strings.Builder) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			buf.WriteString(child.Text())
			buf.WriteByte(' ')
		case strings.HasPrefix(name, "#"):
			// comments, doctype
		case isBlock(name):
			idx := len(c.blocks)
			c.blocks = append(c.blocks, "")

			var inner strings.Builder
			c.walk(child, &inner)
			text := collapseSpace(inner.String())
			if utf8.RuneCountInString(text) > c.min {
				c.blocks[idx] = text
				return
			}
			if text != "" {
				buf.WriteByte(' ')
				buf.WriteString(text)
				buf.WriteByte(' ')
			}
		default:
			c.walk(child, buf)
		}
	})
}

func isBlock(name string) bool {
	_, ok := blockTags[name]
	return ok
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
