// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package history

import (
	"regexp"
	"strings"
	"unicode"
)

var yearSuffixRe = regexp.MustCompile(`\s*\(\d{4}\)\s*`)

// NormalizeTitle canonicalizes a title for comparison across the scraped
// site and the metadata API: lowercase, "(YYYY)" suffix removed, runs of
// whitespace collapsed, punctuation stripped.
func NormalizeTitle(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = yearSuffixRe.ReplaceAllString(t, " ")
	t = strings.Join(strings.Fields(t), " ")

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleYear splits a "Title (YYYY)" string into the bare title and the
// year. Year is 0 when no suffix is present.
func TitleYear(title string) (string, int) {
	loc := yearSuffixRe.FindStringIndex(title)
	if loc == nil {
		return strings.TrimSpace(title), 0
	}

	yearStr := strings.Trim(title[loc[0]:loc[1]], " ()")
	year := 0
	for _, r := range yearStr {
		year = year*10 + int(r-'0')
	}

	bare := strings.TrimSpace(title[:loc[0]] + title[loc[1]:])
	return bare, year
}

// minFuzzyLen guards the containment heuristic against short titles that
// would otherwise match aggressively ("It", "Up").
const minFuzzyLen = 9

// FuzzyMatch reports whether two normalized titles likely refer to the
// same work: one contains the other and their lengths are within a 0.7
// ratio. Both must be at least minFuzzyLen characters.
func FuzzyMatch(a, b string) bool {
	if len(a) < minFuzzyLen || len(b) < minFuzzyLen {
		return false
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return false
	}

	shorter, longer := len(a), len(b)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return float64(shorter)/float64(longer) > 0.7
}

// WatchedSet is a set of normalized titles used to exclude already-watched
// titles from recommendation output.
type WatchedSet struct {
	exact map[string]struct{}
}

// NewWatchedSet builds a set from the given histories.
func NewWatchedSet(histories ...*History) *WatchedSet {
	s := &WatchedSet{exact: make(map[string]struct{})}
	for _, h := range histories {
		for _, rec := range h.Records() {
			s.exact[NormalizeTitle(rec.Title)] = struct{}{}
		}
	}
	return s
}

// Add inserts a normalized title.
func (s *WatchedSet) Add(normalized string) {
	s.exact[normalized] = struct{}{}
}

// Contains reports whether the title (after normalization) is watched,
// either exactly or by fuzzy containment.
func (s *WatchedSet) Contains(title string) bool {
	norm := NormalizeTitle(title)
	if _, ok := s.exact[norm]; ok {
		return true
	}
	for watched := range s.exact {
		if FuzzyMatch(norm, watched) {
			return true
		}
	}
	return false
}

// Len returns the number of distinct normalized titles.
func (s *WatchedSet) Len() int {
	return len(s.exact)
}
