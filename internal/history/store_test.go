// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package history

import (
	"os"
	"strings"
	"testing"
)

func TestWriteReadHistoryRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	h := NewHistory(UserA)
	h.Add(WatchRecord{Title: "Heat", RatingCode: 9})
	h.Add(WatchRecord{Title: "Alien", RatingCode: 10})
	h.Add(WatchRecord{Title: "Unrated Film"})

	if err := store.WriteHistory("gorg", h); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}

	got, err := store.ReadHistory("gorg", UserA)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}

	if got.Len() != 3 {
		t.Fatalf("Len = %d, want 3", got.Len())
	}
	rec, ok := got.Get("Heat")
	if !ok || rec.RatingCode != 9 {
		t.Errorf("Heat = %+v, want rating code 9", rec)
	}
	rec, ok = got.Get("Unrated Film")
	if !ok || rec.Rated() {
		t.Errorf("Unrated Film = %+v, want unrated", rec)
	}
}

func TestWriteHistorySchema(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	h := NewHistory(UserA)
	h.Add(WatchRecord{Title: "Heat", RatingCode: 7})
	h.Add(WatchRecord{Title: "No Rating"})

	if err := store.WriteHistory("gorg", h); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(store.HistoryPath("gorg"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")

	if lines[0] != "film_title,rating,rating_stars" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Heat,7,3.5" {
		t.Errorf("rated row = %q, want %q", lines[1], "Heat,7,3.5")
	}
	if lines[2] != "No Rating,," {
		t.Errorf("unrated row = %q, want %q", lines[2], "No Rating,,")
	}
}

func TestWriteHistoryOverwritesFully(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first := NewHistory(UserA)
	first.Add(WatchRecord{Title: "Old Film", RatingCode: 4})
	if err := store.WriteHistory("gorg", first); err != nil {
		t.Fatal(err)
	}

	second := NewHistory(UserA)
	second.Add(WatchRecord{Title: "New Film", RatingCode: 8})
	if err := store.WriteHistory("gorg", second); err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadHistory("gorg", UserA)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (full overwrite)", got.Len())
	}
	if _, ok := got.Get("Old Film"); ok {
		t.Error("stale record survived overwrite")
	}
}

func TestWriteHistoryLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	h := NewHistory(UserA)
	h.Add(WatchRecord{Title: "Heat", RatingCode: 9})
	if err := store.WriteHistory("gorg", h); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestReadHistoryMissingFile(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.ReadHistory("nobody", UserA); err == nil {
		t.Error("ReadHistory on missing file = nil error")
	}
	if store.HistoryExists("nobody") {
		t.Error("HistoryExists = true for missing file")
	}
}

func TestTitlesWithCommasAndQuotes(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	h := NewHistory(UserA)
	h.Add(WatchRecord{Title: `I, Tonya`, RatingCode: 8})
	h.Add(WatchRecord{Title: `"Quoted" Title`, RatingCode: 6})

	if err := store.WriteHistory("gorg", h); err != nil {
		t.Fatal(err)
	}
	got, err := store.ReadHistory("gorg", UserA)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := got.Get(`I, Tonya`); !ok {
		t.Error("comma title did not round trip")
	}
	if _, ok := got.Get(`"Quoted" Title`); !ok {
		t.Error("quoted title did not round trip")
	}
}
