// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citations extracts source records from the citation payloads the
// backend attaches to an answer. Two encodings exist: a JSON array of
// citation objects, and bracket-numbered free-text references. Parsing is
// total: malformed entries are dropped and unreadable payloads yield no
// records.
package citations

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/philquery/pkg/types"
)

// Kind discriminates the citation encodings.
type Kind int

const (
	// KindNone carries no citations.
	KindNone Kind = iota

	// KindJSON is a JSON array of citation objects, held as text.
	KindJSON

	// KindBracket is a list of "[n] Title by Author:" references.
	KindBracket
)

// String returns the encoding name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindBracket:
		return "bracket"
	default:
		return "none"
	}
}

// Raw is a citation payload tagged with its encoding. Only the field
// matching Kind is read.
type Raw struct {
	Kind       Kind
	JSON       string
	References []string
}

// FromJSON tags a JSON array payload.
func FromJSON(payload string) Raw { return Raw{Kind: KindJSON, JSON: payload} }

// FromReferences tags a list of bracket references.
func FromReferences(refs []string) Raw { return Raw{Kind: KindBracket, References: refs} }

// Detect resolves the encoding of a citations field as it appears in a
// backend response. A JSON string is unwrapped once, since the backend
// double-encodes its citation array. Arrays of objects are KindJSON,
// arrays of strings are KindBracket, anything else is KindNone.
func Detect(field json.RawMessage) Raw {
	field = bytes.TrimSpace(field)
	if len(field) == 0 {
		return Raw{}
	}

	if field[0] == '"' {
		var inner string
		if err := json.Unmarshal(field, &inner); err != nil {
			return Raw{}
		}
		inner = strings.TrimSpace(inner)
		if strings.HasPrefix(inner, "[") {
			if raw := detectArray([]byte(inner)); raw.Kind != KindNone {
				return raw
			}
		}
		if refs := splitReferences(inner); len(refs) > 0 {
			return FromReferences(refs)
		}
		return Raw{}
	}
	if field[0] == '[' {
		return detectArray(field)
	}
	return Raw{}
}

func detectArray(data []byte) Raw {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return Raw{}
	}
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 {
			continue
		}
		switch e[0] {
		case '{':
			return FromJSON(string(data))
		case '"':
			var refs []string
			for _, el := range elems {
				var s string
				if json.Unmarshal(el, &s) == nil {
					refs = append(refs, s)
				}
			}
			return FromReferences(refs)
		}
	}
	return Raw{}
}

// splitReferences breaks a single free-text string into one reference per
// "[n]" marker.
func splitReferences(s string) []string {
	idx := refStartRe.FindAllStringIndex(s, -1)
	refs := make([]string, 0, len(idx))
	for i, loc := range idx {
		end := len(s)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		refs = append(refs, strings.TrimSpace(s[loc[0]:end]))
	}
	return refs
}

// Parse returns the records carried by raw, in input order.
func Parse(raw Raw) []types.CitationRecord {
	switch raw.Kind {
	case KindJSON:
		return ParseJSON(raw.JSON)
	case KindBracket:
		return ParseReferences(raw.References)
	default:
		return []types.CitationRecord{}
	}
}

// jsonCitation is one element of the JSON encoding. Fields other than
// citation_id are decoded loosely so one mistyped value cannot drop an
// otherwise titled record. Nested metadata wins over the flat fields.
type jsonCitation struct {
	CitationID  json.RawMessage `json:"citation_id"`
	Metadata    any             `json:"metadata"`
	SourceTitle any             `json:"source_title"`
	Author      any             `json:"author"`
	URL         any             `json:"url"`
	Excerpt     any             `json:"excerpt"`
	FullText    any             `json:"full_text"`
}

// ParseJSON decodes a JSON array of citation objects. Elements that are
// not objects, or that resolve to no title, are dropped. Non-string field
// values count as absent. Invalid JSON yields an empty slice.
func ParseJSON(payload string) []types.CitationRecord {
	records := []types.CitationRecord{}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &elems); err != nil {
		return records
	}

	for _, e := range elems {
		var c jsonCitation
		if err := json.Unmarshal(e, &c); err != nil {
			continue
		}
		title, author, url := text(c.SourceTitle), text(c.Author), text(c.URL)
		if meta, ok := c.Metadata.(map[string]any); ok {
			title = firstNonEmpty(text(meta["source_title"]), title)
			author = firstNonEmpty(text(meta["author"]), author)
			url = firstNonEmpty(text(meta["url"]), url)
		}
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		records = append(records, types.CitationRecord{
			ID:       citationID(c.CitationID),
			Title:    title,
			Author:   strings.TrimSpace(author),
			Excerpt:  text(c.Excerpt),
			FullText: text(c.FullText),
			URL:      firstNonEmpty(strings.TrimSpace(url), types.UnresolvedURL),
		})
	}
	return records
}

// text returns v when it is a JSON string and "" for any other value.
func text(v any) string {
	s, _ := v.(string)
	return s
}

// citationID renders a numeric or string citation_id as text.
func citationID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var (
	// refStartRe finds the "[n]" marker that opens a reference.
	refStartRe = regexp.MustCompile(`\[\d+\]`)

	// bracketRefRe matches "[n] Title by Author:".
	bracketRefRe = regexp.MustCompile(`\[(\d+)\]\s*(.+?)\s+by\s+(.+?):`)

	// excerptRe matches an optional `(Excerpt: "text")` suffix.
	excerptRe = regexp.MustCompile(`\(Excerpt:\s*"(.*?)"\)`)
)

// ParseReferences parses bracket references. Entries not of the form
// "[n] Title by Author:" are dropped. The title keeps its numeral, and the
// URL is always the unresolved placeholder since the encoding has none.
func ParseReferences(refs []string) []types.CitationRecord {
	records := []types.CitationRecord{}
	for _, ref := range refs {
		m := bracketRefRe.FindStringSubmatch(ref)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[2])
		author := strings.TrimSpace(m[3])
		if title == "" || author == "" {
			continue
		}
		rec := types.CitationRecord{
			ID:     m[1],
			Title:  "[" + m[1] + "] " + title + " by " + author,
			Author: author,
			URL:    types.UnresolvedURL,
		}
		if x := excerptRe.FindStringSubmatch(ref); x != nil {
			rec.Excerpt = x[1]
		}
		records = append(records, rec)
	}
	return records
}
