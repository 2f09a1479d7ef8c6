// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package markup

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Elements lists every tag the builder can emit.
var Elements = []string{"p", "h4", "em", "strong", "li", "blockquote", "div", "span", "a"}

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Policy returns the sanitizer policy matching the builder's whitelist.
// The policy is built once and is safe for concurrent use.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements(Elements...)
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z][a-z0-9 -]*$`)).Globally()
		p.AllowAttrs("href").OnElements("a")
		p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		p.AllowAttrs("rel").Matching(regexp.MustCompile(`^noopener noreferrer$`)).OnElements("a")
		p.RequireParseableURLs(true)
		p.AllowRelativeURLs(true)
		p.AllowURLSchemes("http", "https", "mailto")
		policy = p
	})
	return policy
}

// Sanitize strips any element or attribute outside the whitelist from h.
// Output built with this package passes through unchanged apart from
// entity normalisation.
func Sanitize(h HTML) HTML {
	return HTML(Policy().Sanitize(string(h)))
}
