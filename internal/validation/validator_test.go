// Reelmates - Letterboxd Pair Scraping and Recommendation Engine
// Copyright 2026 Reelmates Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelmates/reelmates

package validation

import (
	"strings"
	"testing"
)

func TestGetValidatorSingleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() should not return nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

type listRequest struct {
	Limit int    `validate:"omitempty,gte=1,lte=100"`
	List  string `validate:"omitempty,oneof=general genre tv"`
}

func TestValidateStructValid(t *testing.T) {
	tests := []struct {
		name  string
		input listRequest
	}{
		{name: "zero value passes with omitempty", input: listRequest{}},
		{name: "limit at lower bound", input: listRequest{Limit: 1}},
		{name: "limit at upper bound", input: listRequest{Limit: 100}},
		{name: "known list name", input: listRequest{List: "genre"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStructInvalid(t *testing.T) {
	tests := []struct {
		name      string
		input     listRequest
		wantField string
		wantTag   string
	}{
		{name: "limit too large", input: listRequest{Limit: 500}, wantField: "Limit", wantTag: "lte"},
		{name: "limit negative", input: listRequest{Limit: -1}, wantField: "Limit", wantTag: "gte"},
		{name: "unknown list name", input: listRequest{List: "horror"}, wantField: "List", wantTag: "oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("len(Errors()) = %d, want 1", len(errs))
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
		})
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	err := ValidateStruct(&listRequest{Limit: 500})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "less than or equal to 100") {
		t.Errorf("Message = %q, want lte message", apiErr.Message)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("Details[field] = %v, want Limit", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	err := ValidateStruct(&listRequest{Limit: 500, List: "horror"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("len(Errors()) = %d, want 2", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has type %T, want []map[string]interface{}", apiErr.Details["fields"])
	}
	if len(fields) != 2 {
		t.Errorf("len(fields) = %d, want 2", len(fields))
	}
}
