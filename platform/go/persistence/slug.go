package persistence

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

var (
	slugCharset     = regexp.MustCompile(`^[a-z0-9-]+$`)
	slugAlnum       = regexp.MustCompile(`[a-z0-9]`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
	hyphenRunRe     = regexp.MustCompile(`-+`)
)

// ErrEmptySlug is returned by NormalizeSlug when nothing URL-safe survives the transformation.
var ErrEmptySlug = errors.New("slug must contain at least one letter or digit")

// GenerateSlug turns free text into a URL-safe identifier made of [a-z0-9-].
// Input without any ASCII letter or digit yields "", which callers must reject.
func GenerateSlug(input string) string {
	lowered := strings.TrimSpace(strings.ToLower(input))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == '_':
			b.WriteRune('-')
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	slug := whitespaceRunRe.ReplaceAllString(b.String(), "-")
	slug = hyphenRunRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// IsValidSlug reports whether value is a non-empty [a-z0-9-] string with at least one alphanumeric character.
func IsValidSlug(value string) bool {
	return value != "" && slugCharset.MatchString(value) && slugAlnum.MatchString(value)
}

// NormalizeSlug cleans an admin-supplied slug and rejects values that end up empty.
func NormalizeSlug(input string) (string, error) {
	slug := GenerateSlug(input)
	if slug == "" {
		return "", ErrEmptySlug
	}
	if !IsValidSlug(slug) {
		return "", fmt.Errorf("invalid slug %q", input)
	}
	return slug, nil
}

// MakeUniqueSlug returns base when unused, otherwise the first free base-N with N counting up from 2.
// Gaps in an existing sequence are filled before higher suffixes are tried.
func MakeUniqueSlug(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, slug := range existing {
		taken[slug] = struct{}{}
	}

	if _, ok := taken[base]; !ok {
		return base
	}

	for counter := 2; ; counter++ {
		candidate := suffixedSlug(base, counter)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// SlugProbe answers whether a slug is already used in one collection.
type SlugProbe interface {
	SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
}

// SlugProbeFunc adapts a function to SlugProbe.
type SlugProbeFunc func(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)

func (f SlugProbeFunc) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	return f(ctx, slug, excludeID)
}

// EnsureUniqueSlug asks the store for base, base-2, base-3 ... and returns the first free candidate.
//
// This is best-effort: when the probe itself fails the current candidate is returned unchecked and the
// collection's unique constraint decides at insert time (surfacing ErrDuplicateSlug).
// Each candidate costs one round trip, so heavily reused names are linear in the number of siblings.
func EnsureUniqueSlug(ctx context.Context, probe SlugProbe, base string, excludeID *uuid.UUID) string {
	candidate := base
	for counter := 2; ; counter++ {
		exists, err := probe.SlugExists(ctx, candidate, excludeID)
		if err != nil || !exists {
			return candidate
		}
		candidate = suffixedSlug(base, counter)
	}
}

func suffixedSlug(base string, counter int) string {
	return base + "-" + strconv.Itoa(counter)
}

// ResolveSlug picks a unique slug. An explicit value is normalized; otherwise one is generated from source.
// It returns ErrEmptySlug when neither yields a usable slug.
func ResolveSlug(ctx context.Context, probe SlugProbe, explicit *string, source string, excludeID *uuid.UUID) (string, error) {
	var base string
	if explicit != nil {
		normalized, err := NormalizeSlug(*explicit)
		if err != nil {
			return "", err
		}
		base = normalized
	} else {
		base = GenerateSlug(source)
	}
	if base == "" {
		return "", ErrEmptySlug
	}
	return EnsureUniqueSlug(ctx, probe, base, excludeID), nil
}
