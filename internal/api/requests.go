// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package api

import (
	"net/http"
	"strconv"

	"github.com/reelmates/reelmates/internal/validation"
)

// ListQuery holds validated query parameters for list endpoints.
type ListQuery struct {
	// Limit truncates the returned list. Zero means no truncation.
	Limit int `validate:"omitempty,gte=1,lte=100"`
}

// parseListQuery extracts and validates list query parameters.
// A validation failure has already been written to w when ok is false.
func parseListQuery(w http.ResponseWriter, r *http.Request) (ListQuery, bool) {
	var q ListQuery

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			NewResponseWriter(w, r).BadRequest("limit must be an integer")
			return q, false
		}
		q.Limit = n
	}

	if verr := validation.ValidateStruct(&q); verr != nil {
		apiErr := verr.ToAPIError()
		NewResponseWriter(w, r).ValidationError(apiErr.Message, apiErr.Details)
		return q, false
	}

	return q, true
}

// applyLimit truncates a list to the query limit.
func applyLimit[T any](items []T, q ListQuery) []T {
	if q.Limit > 0 && len(items) > q.Limit {
		return items[:q.Limit]
	}
	return items
}
