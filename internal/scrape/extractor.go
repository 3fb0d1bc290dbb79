// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package scrape

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/reelmates/reelmates/internal/history"
)

var ratedClassRe = regexp.MustCompile(`\brated-(\d+)\b`)

// ExtractFilms parses one watched-films page and returns a record per
// film poster found. A nil slice with nil error means the page held no
// film containers, which on pages past the first signals the end of
// the history.
func ExtractFilms(r io.Reader, user history.User) ([]history.WatchRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	var records []history.WatchRecord
	doc.Find("div[data-item-slug]").Each(func(_ int, sel *goquery.Selection) {
		slug, _ := sel.Attr("data-item-slug")
		title := strings.TrimSpace(sel.AttrOr("data-item-name", ""))
		if title == "" {
			title = titleFromSlug(slug)
		}
		if title == "" {
			return
		}
		records = append(records, history.WatchRecord{
			Title:      title,
			RatingCode: extractRatingCode(sel),
			User:       user,
		})
	})
	return records, nil
}

// titleFromSlug reconstructs a display title from a URL slug when the
// page carries no name attribute.
func titleFromSlug(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// extractRatingCode walks outward from the poster container looking
// for the member's rating. Letterboxd encodes it three ways depending
// on the page variant: a rated-N class on an enclosing li, a numeric
// data attribute, or a span of star glyphs.
func extractRatingCode(sel *goquery.Selection) int {
	li := sel.Closest("li")
	if li.Length() > 0 {
		if class, ok := li.Attr("class"); ok {
			if m := ratedClassRe.FindStringSubmatch(class); m != nil {
				if code, err := strconv.Atoi(m[1]); err == nil && validRatingCode(code) {
					return code
				}
			}
		}
	}

	for _, attr := range []string{"data-rating", "data-owner-rating"} {
		scope := sel
		if li.Length() > 0 {
			scope = li
		}
		if raw, ok := firstAttr(scope, attr); ok {
			if code, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && validRatingCode(code) {
				return code
			}
		}
	}

	if li.Length() > 0 {
		if text := li.Find("span.rating").First().Text(); text != "" {
			if code := ratingCodeFromGlyphs(text); validRatingCode(code) {
				return code
			}
		}
	}
	return 0
}

// firstAttr checks the selection itself, then any descendant, for the
// named attribute.
func firstAttr(sel *goquery.Selection, name string) (string, bool) {
	if v, ok := sel.Attr(name); ok {
		return v, true
	}
	found := sel.Find("[" + name + "]").First()
	if found.Length() > 0 {
		return found.Attr(name)
	}
	return "", false
}

// ratingCodeFromGlyphs converts star glyph text like "★★★½" to the
// 2..10 rating code (two code points per star, one per half star).
func ratingCodeFromGlyphs(text string) int {
	code := strings.Count(text, "★") * 2
	if strings.Contains(text, "½") {
		code++
	}
	return code
}

func validRatingCode(code int) bool {
	return code >= 2 && code <= 10
}
