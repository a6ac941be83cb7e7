// Package extract parses legacy Huapala song pages (Claris Homepage era
// HTML) into the engine's raw input. Pure function: a reader in, a
// Document out. No database dependencies.
package extract

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/huapala/mele-archive/internal/domain"
)

// Document is one parsed source page: the two-column lyric pair plus the
// header and footer attribution metadata.
type Document struct {
	Title      string
	Composer   string
	Translator string
	SourceInfo string
	Lyrics     domain.RawBlock
}

var (
	// Attribution lines sit in free text around the lyrics table; the
	// pages never mark them up consistently, so they are matched as text.
	composerPattern   = regexp.MustCompile(`(?i)(?:words\s*&\s*music\s+by|music\s+by|words\s+by|by)\s+([^-\n(]+)`)
	translatorPattern = regexp.MustCompile(`(?i)(?:translated\s+by|hawaiian\s+text\s+edited\s+by)\s+([^,\n]+)`)
	sourcePattern     = regexp.MustCompile(`(?i)source:\s*([^\n]+)`)
	copyrightPattern  = regexp.MustCompile(`©\s*(\d{4}[^,\n]*)`)
)

// Parse reads one legacy HTML song page. The first table whose rows carry
// two text columns becomes the Hawaiian/English raw pair, with <br>
// converted to newlines and rows separated by blank lines (the section
// boundaries the classifier expects). Malformed markup is tolerated; an
// error is returned only when the input is not parseable as HTML at all.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{Title: findTitle(root)}
	doc.Lyrics = findLyrics(root)

	text := flatText(root)
	if m := translatorPattern.FindStringSubmatch(text); m != nil {
		doc.Translator = domain.CollapseSpaces(m[1])
	}
	// Strip translator credits first so the looser composer pattern does
	// not claim them.
	if m := composerPattern.FindStringSubmatch(translatorPattern.ReplaceAllString(text, "")); m != nil {
		if c := domain.CollapseSpaces(m[1]); c != "" && len(c) < 50 {
			doc.Composer = c
		}
	}
	if m := sourcePattern.FindStringSubmatch(text); m != nil {
		doc.SourceInfo = domain.CollapseSpaces(m[1])
	} else if m := copyrightPattern.FindStringSubmatch(text); m != nil {
		doc.SourceInfo = domain.CollapseSpaces(m[1])
	}

	return doc, nil
}

// findTitle prefers the <title> element, then the large header fonts the
// Claris pages use (size 3, +1 or 4), then any h1-h3.
func findTitle(root *html.Node) string {
	if t := domain.CollapseSpaces(textOf(findElement(root, "title"))); t != "" {
		return t
	}

	var fromFont string
	walk(root, func(n *html.Node) bool {
		if fromFont != "" {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "font" {
			switch attr(n, "size") {
			case "3", "+1", "4":
				if t := domain.CollapseSpaces(textOf(n)); len(t) >= 3 && len(t) <= 60 {
					fromFont = t
					return false
				}
			}
		}
		return true
	})
	if fromFont != "" {
		return fromFont
	}

	for _, h := range []string{"h1", "h2", "h3"} {
		if t := domain.CollapseSpaces(textOf(findElement(root, h))); t != "" {
			return t
		}
	}
	return ""
}

// findLyrics locates the two-column lyrics table. Every row with at least
// two cells contributes one verse pair; the first cell is Hawaiian, the
// second English, matching the archival page layout.
func findLyrics(root *html.Node) domain.RawBlock {
	var hawaiian, english []string

	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "tr" {
			return true
		}

		var cells []string
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
				cells = append(cells, cellText(c))
			}
		}
		if len(cells) < 2 || (cells[0] == "" && cells[1] == "") {
			return true
		}

		if cells[0] != "" {
			hawaiian = append(hawaiian, cells[0])
		}
		if cells[1] != "" {
			english = append(english, cells[1])
		}
		return false // cells handled, no need to descend further
	})

	return domain.RawBlock{
		Hawaiian: strings.Join(hawaiian, "\n\n"),
		English:  strings.Join(english, "\n\n"),
	}
}

// cellText extracts a table cell's text with <br> preserved as newlines
// and each line whitespace-collapsed.
func cellText(n *html.Node) string {
	var b strings.Builder
	var emit func(*html.Node)
	emit = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteString("\n")
		case n.Type == html.ElementNode && (n.Data == "p" || n.Data == "div"):
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			emit(c)
		}
	}
	emit(n)

	// One table row is one verse, so blank lines inside a cell carry no
	// structure; they are artifacts of source formatting and are dropped.
	var lines []string
	for _, l := range strings.Split(b.String(), "\n") {
		if l = domain.CollapseSpaces(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// flatText renders the whole document as plain text with newlines at
// block boundaries, the shape the attribution regexes expect.
func flatText(root *html.Node) string {
	var b strings.Builder
	walk(root, func(n *html.Node) bool {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode:
			switch n.Data {
			case "script", "style":
				return false
			case "br", "p", "div", "tr", "td", "table", "center", "h1", "h2", "h3":
				b.WriteString("\n")
			}
		}
		return true
	})
	return b.String()
}

func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findElement(root *html.Node, name string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.Data == name {
			found = n
			return false
		}
		return true
	})
	return found
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
