// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markup builds answer markup from a fixed whitelist of elements.
// Text is escaped when a node is rendered, so callers never concatenate raw
// strings into HTML. Sanitize re-checks rendered output against the same
// whitelist.
package markup

import (
	"html"
	"net/url"
	"strings"
)

// HTML is rendered, escaped markup ready to be embedded in a page.
type HTML string

// String returns the markup as a plain string.
func (h HTML) String() string { return string(h) }

// Node is one piece of markup. Only the constructors in this package
// produce nodes.
type Node interface {
	render(b *strings.Builder)
}

// Text is literal text. It is escaped on render.
type Text string

func (t Text) render(b *strings.Builder) {
	b.WriteString(html.EscapeString(string(t)))
}

type attr struct {
	name, value string
}

type element struct {
	tag      string
	attrs    []attr
	children []Node
}

func (e *element) render(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(e.tag)
	for _, a := range e.attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.value))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	for _, c := range e.children {
		c.render(b)
	}
	b.WriteString("</")
	b.WriteString(e.tag)
	b.WriteByte('>')
}

func newElement(tag string, children []Node, attrs ...attr) Node {
	return &element{tag: tag, attrs: attrs, children: children}
}

// Paragraph returns a <p> block.
func Paragraph(children ...Node) Node { return newElement("p", children) }

// Header returns an <h4> block. Answers never use higher-level headings.
func Header(children ...Node) Node { return newElement("h4", children) }

// Emphasis returns an inline <em>.
func Emphasis(children ...Node) Node { return newElement("em", children) }

// Bold returns an inline <strong>.
func Bold(children ...Node) Node { return newElement("strong", children) }

// ListItem returns an <li>. No list container is emitted.
func ListItem(children ...Node) Node { return newElement("li", children) }

// Blockquote returns a <blockquote>.
func Blockquote(children ...Node) Node { return newElement("blockquote", children) }

// Span returns a <span> with the given class. An empty class is omitted.
func Span(class string, children ...Node) Node {
	return newElement("span", children, classAttr(class)...)
}

// Div returns a <div> with the given class. An empty class is omitted.
func Div(class string, children ...Node) Node {
	return newElement("div", children, classAttr(class)...)
}

// Anchor returns a link that opens in a new browsing context without
// opener or referrer. When href is not a SafeURL the children are returned
// unwrapped, so the link text survives and the target is dropped.
func Anchor(href string, children ...Node) Node {
	if !SafeURL(href) {
		return Fragment(children...)
	}
	return newElement("a", children,
		attr{"href", href},
		attr{"target", "_blank"},
		attr{"rel", "noopener noreferrer"},
	)
}

// Fragment groups nodes without a wrapping element.
func Fragment(children ...Node) Node { return fragment(children) }

type fragment []Node

func (f fragment) render(b *strings.Builder) {
	for _, c := range f {
		c.render(b)
	}
}

func classAttr(class string) []attr {
	class = strings.TrimSpace(class)
	if class == "" {
		return nil
	}
	return []attr{{"class", class}}
}

// SafeURL reports whether href may be used as a link target: http, https
// and mailto URLs, or relative references without a scheme.
func SafeURL(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
	default:
		return false
	}
	// Opaque forms such as "http:example" are not links.
	return u.Opaque == "" || strings.EqualFold(u.Scheme, "mailto")
}

// Render renders nodes back to back.
func Render(nodes ...Node) HTML {
	var b strings.Builder
	for _, n := range nodes {
		n.render(&b)
	}
	return HTML(b.String())
}

// RenderBlocks renders block nodes separated by newlines.
func RenderBlocks(blocks []Node) HTML {
	var b strings.Builder
	for i, n := range blocks {
		if i > 0 {
			b.WriteByte('\n')
		}
		n.render(&b)
	}
	return HTML(b.String())
}
