// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package scrape

import (
	"errors"
	"fmt"
)

// Kind classifies a scrape failure so callers can decide whether to
// retry, abort the user, or fail the whole run.
type Kind int

const (
	// KindUnknown covers failures that do not fit any other class.
	KindUnknown Kind = iota
	// KindNotFound means the profile or page returned HTTP 404.
	KindNotFound
	// KindForbidden means Letterboxd refused the request with HTTP 403.
	KindForbidden
	// KindTimeout means the request exceeded its deadline.
	KindTimeout
	// KindNetwork covers transport-level failures (DNS, reset, EOF).
	KindNetwork
	// KindParse means the page was fetched but could not be parsed.
	KindParse
	// KindAPI covers unexpected HTTP status codes.
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by the scraper. It carries the
// username and page so one log line locates the failure.
type Error struct {
	Kind     Kind
	Username string
	Page     int
	Err      error
}

func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("scrape %s page %d: %s: %v", e.Username, e.Page, e.Kind, e.Err)
	}
	return fmt.Sprintf("scrape %s: %s: %v", e.Username, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two scrape errors by Kind, so callers can test against
// sentinel values without constructing identical errors.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// Sentinel errors for errors.Is checks.
var (
	ErrNotFound  = &Error{Kind: KindNotFound, Err: errors.New("page not found")}
	ErrForbidden = &Error{Kind: KindForbidden, Err: errors.New("access forbidden")}
)

func newError(kind Kind, username string, page int, err error) *Error {
	return &Error{Kind: kind, Username: username, Page: page, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown when err is not a
// scrape error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
