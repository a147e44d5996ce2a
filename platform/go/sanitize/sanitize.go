// Package sanitize strips unsafe markup from admin-entered text before it is stored.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	plainOnce  sync.Once
	plain      *bluemonday.Policy
	richOnce   sync.Once
	richPolicy *bluemonday.Policy
)

func plainPolicy() *bluemonday.Policy {
	plainOnce.Do(func() { plain = bluemonday.StrictPolicy() })
	return plain
}

func rich() *bluemonday.Policy {
	richOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		richPolicy = p
	})
	return richPolicy
}

// Text removes all markup and trims surrounding whitespace. Entities produced by the policy are unescaped
// so names such as "Tom & Jerry" round-trip unchanged.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainPolicy().Sanitize(s)))
}

// TextPtr applies Text to an optional value.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := Text(*s)
	return &cleaned
}

// RichText keeps formatting markup and drops scripts, event handlers and unsafe URLs.
func RichText(s string) string {
	return strings.TrimSpace(rich().Sanitize(s))
}

// RichTextPtr applies RichText to an optional value.
func RichTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := RichText(*s)
	return &cleaned
}
