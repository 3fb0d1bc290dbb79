// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Store persists watch histories as CSV files in a data directory.
//
// Files are fully overwritten on each run via write-to-temp-then-rename so
// a reader never observes a partially written file and each run's output
// reflects only the latest scrape.
type Store struct {
	dataDir string
}

// NewStore creates a store rooted at dataDir, creating the directory if
// needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// DataDir returns the directory files are written to.
func (s *Store) DataDir() string {
	return s.dataDir
}

// HistoryPath returns the CSV path for a username's watch history.
func (s *Store) HistoryPath(username string) string {
	return filepath.Join(s.dataDir, username+"_scraped_films.csv")
}

// historyHeader is the watch-history CSV schema.
var historyHeader = []string{"film_title", "rating", "rating_stars"}

// WriteHistory writes a user's history, replacing any previous file.
func (s *Store) WriteHistory(username string, h *History) error {
	rows := make([][]string, 0, h.Len()+1)
	rows = append(rows, historyHeader)

	for _, rec := range h.Records() {
		rating, stars := "", ""
		if rec.Rated() {
			rating = strconv.Itoa(rec.RatingCode)
			stars = strconv.FormatFloat(rec.Stars(), 'g', -1, 64)
		}
		rows = append(rows, []string{rec.Title, rating, stars})
	}

	return writeCSVAtomic(s.HistoryPath(username), rows)
}

// ReadHistory reads a previously written history file.
func (s *Store) ReadHistory(username string, user User) (*History, error) {
	f, err := os.Open(s.HistoryPath(username))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read history csv: %w", err)
	}

	h := NewHistory(user)
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue // header
		}
		rec := WatchRecord{Title: row[0]}
		if row[1] != "" {
			code, err := strconv.Atoi(row[1])
			if err != nil {
				return nil, fmt.Errorf("row %d: bad rating code %q: %w", i, row[1], err)
			}
			rec.RatingCode = code
		}
		h.Add(rec)
	}
	return h, nil
}

// HistoryExists reports whether a history file is present for the username.
func (s *Store) HistoryExists(username string) bool {
	_, err := os.Stat(s.HistoryPath(username))
	return err == nil
}

// FileExists reports whether a named file is present in the data
// directory.
func (s *Store) FileExists(filename string) bool {
	_, err := os.Stat(filepath.Join(s.dataDir, filename))
	return err == nil
}

// WriteCSV writes arbitrary rows (header included) to a named file in the
// data directory, atomically. Used by the recommendation store.
func (s *Store) WriteCSV(filename string, rows [][]string) error {
	return writeCSVAtomic(filepath.Join(s.dataDir, filename), rows)
}

// ReadCSV reads all rows from a named file in the data directory.
func (s *Store) ReadCSV(filename string) ([][]string, error) {
	f, err := os.Open(filepath.Join(s.dataDir, filename))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return csv.NewReader(f).ReadAll()
}

// writeCSVAtomic writes rows to path via a temp file in the same directory
// followed by rename, so concurrent readers never see a torn file.
func writeCSVAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
