// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package history

import "testing"

func TestWatchRecordStars(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		wantStars float64
		wantRated bool
	}{
		{"five stars", 10, 5.0, true},
		{"four stars", 8, 4.0, true},
		{"half star minimum", 2, 1.0, true},
		{"three and a half", 7, 3.5, true},
		{"unrated", 0, 0, false},
		{"below range", 1, 0, false},
		{"above range", 11, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := WatchRecord{Title: "X", RatingCode: tt.code}
			if rec.Rated() != tt.wantRated {
				t.Errorf("Rated() = %v, want %v", rec.Rated(), tt.wantRated)
			}
			if rec.Stars() != tt.wantStars {
				t.Errorf("Stars() = %g, want %g", rec.Stars(), tt.wantStars)
			}
		})
	}
}

func TestHistoryDuplicateTitlesOverwrite(t *testing.T) {
	h := NewHistory(UserA)
	h.Add(WatchRecord{Title: "Heat", RatingCode: 6})
	h.Add(WatchRecord{Title: "Alien", RatingCode: 10})
	h.Add(WatchRecord{Title: "Heat", RatingCode: 9})

	if h.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", h.Len())
	}

	rec, ok := h.Get("Heat")
	if !ok {
		t.Fatal("Get(Heat) not found")
	}
	if rec.RatingCode != 9 {
		t.Errorf("RatingCode = %d, want 9 (most recent wins)", rec.RatingCode)
	}

	// Order preserved: Heat keeps its original position.
	recs := h.Records()
	if recs[0].Title != "Heat" || recs[1].Title != "Alien" {
		t.Errorf("order = [%s, %s], want [Heat, Alien]", recs[0].Title, recs[1].Title)
	}
}

func TestHistoryUserStamped(t *testing.T) {
	h := NewHistory(UserB)
	h.Add(WatchRecord{Title: "Heat"})

	rec, _ := h.Get("Heat")
	if rec.User != UserB {
		t.Errorf("User = %q, want %q", rec.User, UserB)
	}
}

func TestRatingDistribution(t *testing.T) {
	h := NewHistory(UserA)
	h.Add(WatchRecord{Title: "A", RatingCode: 10})
	h.Add(WatchRecord{Title: "B", RatingCode: 10})
	h.Add(WatchRecord{Title: "C", RatingCode: 7})
	h.Add(WatchRecord{Title: "D"}) // unrated, excluded

	dist := h.RatingDistribution()
	if dist[5.0] != 2 {
		t.Errorf("dist[5.0] = %d, want 2", dist[5.0])
	}
	if dist[3.5] != 1 {
		t.Errorf("dist[3.5] = %d, want 1", dist[3.5])
	}
	if len(dist) != 2 {
		t.Errorf("len(dist) = %d, want 2", len(dist))
	}
}

func TestUserValid(t *testing.T) {
	if !UserA.Valid() || !UserB.Valid() {
		t.Error("UserA/UserB should be valid")
	}
	if User("c").Valid() {
		t.Error("unknown user should be invalid")
	}
}
