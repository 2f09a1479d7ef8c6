// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format turns raw answer text into sanitized markup. The rules
// depend on the query mode: understanding answers promote short bold spans
// to section headers, retrieval answers recognise citation cards and
// links. Both modes share list, emphasis and paragraph handling.
package format

import (
	"regexp"
	"strings"

	"github.com/pdiddy/philquery/internal/markup"
	"github.com/pdiddy/philquery/pkg/types"
)

// HeaderMaxWords is the largest bold span, in words, that understanding
// mode renders as a header.
const HeaderMaxWords = 6

// Class names carried by formatted output. The web stylesheet targets them.
const (
	CardClass  = "citation-card"
	LabelClass = "label"
)

var (
	// blankLineRe separates paragraph chunks.
	blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

	// listItemRe matches "- item" and "* item" lines.
	listItemRe = regexp.MustCompile(`^\s*[-*]\s+(.*?)\s*$`)

	// Inline tokens, leftmost alternative first. inlineRe captures bold and
	// italic; linkedRe adds link text and target between them. Bold is lazy
	// and may hold single asterisks, which the recursive pass turns into
	// italics.
	inlineRe = regexp.MustCompile(`\*\*((?s:.+?))\*\*|\*([^*\n]+)\*`)
	linkedRe = regexp.MustCompile(`\*\*((?s:.+?))\*\*|\[([^\]\n]+)\]\(([^)\s]+)\)|\*([^*\n]+)\*`)

	// cardStartRe matches the Source and Summary lines of a card and the
	// Quote label. The quote itself runs to cardEndRe or end of input.
	cardStartRe = regexp.MustCompile(`(?m)^Source:[ \t]*([^\n]*)\nSummary:[ \t]*([^\n]*)\nQuote:[ \t]*`)

	// cardEndRe is a blank line followed by the next card.
	cardEndRe = regexp.MustCompile(`\n[ \t]*\nSource:`)
)

// Format renders content for mode. It never returns empty markup: blank
// input yields an empty paragraph. Unknown modes format as understanding.
func Format(content string, mode types.QueryMode) markup.HTML {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var blocks []markup.Node
	if mode == types.ModeRetrieval {
		blocks = retrievalBlocks(content)
	} else {
		blocks = textBlocks(content, types.ModeUnderstanding)
	}
	if len(blocks) == 0 {
		return markup.Render(markup.Paragraph())
	}
	return markup.Sanitize(markup.RenderBlocks(blocks))
}

// retrievalBlocks lifts citation cards out of content and formats the text
// around them with the shared rules. A card's quote may span lines; it ends
// at a blank line followed by "Source:" or at end of input.
func retrievalBlocks(content string) []markup.Node {
	var blocks []markup.Node
	last := 0
	for _, m := range cardStartRe.FindAllStringSubmatchIndex(content, -1) {
		if m[0] < last {
			// Inside the quote of the previous card.
			continue
		}
		end := len(content)
		if e := cardEndRe.FindStringIndex(content[m[1]:]); e != nil {
			end = m[1] + e[0]
		}
		source := strings.TrimSpace(content[m[2]:m[3]])
		summary := strings.TrimSpace(content[m[4]:m[5]])
		quote := strings.TrimSpace(content[m[1]:end])
		if source == "" || summary == "" || quote == "" {
			continue
		}
		blocks = append(blocks, textBlocks(content[last:m[0]], types.ModeRetrieval)...)
		blocks = append(blocks, Card(source, summary, quote))
		last = end
	}
	return append(blocks, textBlocks(content[last:], types.ModeRetrieval)...)
}

// Card renders one cited passage: a header naming the source, the labelled
// summary, and the labelled quote in a blockquote. Fields are plain text.
func Card(source, summary, quote string) markup.Node {
	return markup.Div(CardClass,
		markup.Header(markup.Text("Source: "+source)),
		markup.Paragraph(markup.Span(LabelClass, markup.Text("Summary: ")), markup.Text(summary)),
		markup.Blockquote(
			markup.Paragraph(markup.Span(LabelClass, markup.Text("Quote: ")), markup.Text(quote)),
		),
	)
}

// textBlocks applies list, header, inline and paragraph rules to text.
func textBlocks(text string, mode types.QueryMode) []markup.Node {
	var blocks []markup.Node
	for _, chunk := range blankLineRe.Split(text, -1) {
		var para []string
		flush := func() {
			if len(para) > 0 {
				blocks = append(blocks, paragraphBlocks(strings.Join(para, "\n"), mode)...)
				para = para[:0]
			}
		}
		for _, line := range strings.Split(chunk, "\n") {
			if m := listItemRe.FindStringSubmatch(line); m != nil {
				flush()
				blocks = append(blocks, markup.ListItem(inline(m[1], mode)...))
				continue
			}
			para = append(para, line)
		}
		flush()
	}
	return blocks
}

// paragraphBlocks wraps text in a paragraph. In understanding mode a short
// single-line bold span becomes a header and splits the paragraph around it.
func paragraphBlocks(text string, mode types.QueryMode) []markup.Node {
	var blocks []markup.Node
	emit := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			blocks = append(blocks, markup.Paragraph(inline(s, mode)...))
		}
	}

	last := 0
	if mode != types.ModeRetrieval {
		for _, m := range inlineRe.FindAllStringSubmatchIndex(text, -1) {
			if m[2] < 0 {
				continue
			}
			title := text[m[2]:m[3]]
			if !isHeader(title) {
				continue
			}
			emit(text[last:m[0]])
			blocks = append(blocks, markup.Header(inline(strings.TrimSpace(title), mode)...))
			last = m[1]
		}
	}
	emit(text[last:])
	return blocks
}

// isHeader reports whether a bold span qualifies as a header.
func isHeader(s string) bool {
	if strings.Contains(s, "\n") {
		return false
	}
	n := len(strings.Fields(s))
	return n > 0 && n <= HeaderMaxWords
}

// inline converts bold, italic and (in retrieval mode) link tokens in s.
// Anything that does not form a complete token stays literal text.
func inline(s string, mode types.QueryMode) []markup.Node {
	re := inlineRe
	if mode == types.ModeRetrieval {
		re = linkedRe
	}

	var nodes []markup.Node
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		if m[0] > last {
			nodes = append(nodes, markup.Text(s[last:m[0]]))
		}
		nodes = append(nodes, token(s, m, re == linkedRe, mode))
		last = m[1]
	}
	if last < len(s) {
		nodes = append(nodes, markup.Text(s[last:]))
	}
	return nodes
}

func token(s string, m []int, linked bool, mode types.QueryMode) markup.Node {
	whole := s[m[0]:m[1]]
	if m[2] >= 0 {
		inner := s[m[2]:m[3]]
		if strings.TrimSpace(inner) == "" {
			return markup.Text(whole)
		}
		return markup.Bold(inline(inner, mode)...)
	}
	italic := 4
	if linked {
		if m[4] >= 0 {
			label, href := s[m[4]:m[5]], s[m[6]:m[7]]
			if !markup.SafeURL(href) {
				return markup.Text(whole)
			}
			return markup.Anchor(href, markup.Text(label))
		}
		italic = 8
	}
	inner := s[m[italic]:m[italic+1]]
	if strings.TrimSpace(inner) == "" {
		return markup.Text(whole)
	}
	return markup.Emphasis(inline(inner, mode)...)
}
