// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package validation

import (
	"strings"
	"testing"
)

type feedRequest struct {
	UserID   string `validate:"required,max=128"`
	Limit    int    `validate:"min=1,max=100"`
	Strategy string `validate:"omitempty,oneof=collaborative content_based basic"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		req        feedRequest
		wantErr    bool
		wantField  string
		wantSubstr string
	}{
		{
			name:    "valid request",
			req:     feedRequest{UserID: "user_1", Limit: 20},
			wantErr: false,
		},
		{
			name:       "missing user id",
			req:        feedRequest{Limit: 20},
			wantErr:    true,
			wantField:  "UserID",
			wantSubstr: "UserID is required",
		},
		{
			name:       "limit too large",
			req:        feedRequest{UserID: "user_1", Limit: 500},
			wantErr:    true,
			wantField:  "Limit",
			wantSubstr: "Limit must be at most 100",
		},
		{
			name:       "unknown strategy",
			req:        feedRequest{UserID: "user_1", Limit: 20, Strategy: "random"},
			wantErr:    true,
			wantField:  "Strategy",
			wantSubstr: "Strategy must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if got := err.Errors()[0].Field(); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantSubstr) {
				t.Errorf("message %q does not contain %q", err.Error(), tt.wantSubstr)
			}
		})
	}
}

func TestToAPIErrorSingleField(t *testing.T) {
	err := ValidateStruct(&feedRequest{Limit: 20})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "UserID" {
		t.Errorf("details field = %v, want UserID", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultipleFields(t *testing.T) {
	err := ValidateStruct(&feedRequest{Limit: 0, Strategy: "random"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) < 2 {
		t.Fatalf("expected multiple errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("expected fields detail, got %T", apiErr.Details["fields"])
	}
	if len(fields) != len(err.Errors()) {
		t.Errorf("fields = %d, want %d", len(fields), len(err.Errors()))
	}
}
