// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

// Package history models scraped watch histories and persists them as CSV.
//
// A WatchRecord is one user's logged viewing of one title with an optional
// rating. Ratings are stored as the site's half-star integer code in
// [2,10]; code 10 is five stars. Code 0 means unrated.
package history

// User identifies which of the two configured users a record belongs to.
type User string

const (
	UserA User = "a"
	UserB User = "b"
)

// Valid reports whether u is one of the two known users.
func (u User) Valid() bool {
	return u == UserA || u == UserB
}

// WatchRecord is one logged viewing of one title. Immutable once created.
type WatchRecord struct {
	Title string

	// RatingCode is the half-star integer code in [2,10], or 0 when the
	// entry is unrated.
	RatingCode int

	User User
}

// Rated reports whether the record carries a rating.
func (r WatchRecord) Rated() bool {
	return r.RatingCode >= 2 && r.RatingCode <= 10
}

// Stars returns the human-facing star value (code/2), or 0 when unrated.
func (r WatchRecord) Stars() float64 {
	if !r.Rated() {
		return 0
	}
	return float64(r.RatingCode) / 2.0
}

// History is one user's watch history. Records keep scrape order; titles
// are unique, with later scrapes of the same title replacing earlier ones.
type History struct {
	User    User
	records []WatchRecord
	byTitle map[string]int // title -> index into records
}

// NewHistory creates an empty history for the given user.
func NewHistory(user User) *History {
	return &History{
		User:    user,
		byTitle: make(map[string]int),
	}
}

// Add inserts a record, overwriting any existing record with the same title.
func (h *History) Add(rec WatchRecord) {
	rec.User = h.User
	if idx, ok := h.byTitle[rec.Title]; ok {
		h.records[idx] = rec
		return
	}
	h.byTitle[rec.Title] = len(h.records)
	h.records = append(h.records, rec)
}

// Records returns the records in scrape order. The returned slice must not
// be modified.
func (h *History) Records() []WatchRecord {
	return h.records
}

// Len returns the number of distinct titles in the history.
func (h *History) Len() int {
	return len(h.records)
}

// Get returns the record for an exact title, if present.
func (h *History) Get(title string) (WatchRecord, bool) {
	idx, ok := h.byTitle[title]
	if !ok {
		return WatchRecord{}, false
	}
	return h.records[idx], true
}

// NormalizedTitles returns the set of normalized titles in the history.
func (h *History) NormalizedTitles() map[string]struct{} {
	set := make(map[string]struct{}, len(h.records))
	for _, rec := range h.records {
		set[NormalizeTitle(rec.Title)] = struct{}{}
	}
	return set
}

// RatingDistribution returns a star-value -> count histogram of the rated
// records.
func (h *History) RatingDistribution() map[float64]int {
	dist := make(map[float64]int)
	for _, rec := range h.records {
		if rec.Rated() {
			dist[rec.Stars()]++
		}
	}
	return dist
}
