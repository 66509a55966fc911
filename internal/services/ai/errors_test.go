package ai

import (
	"errors"
	"fmt"
	"testing"
)

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		validate func(*testing.T, *APIError)
	}{
		{
			name: "nil error",
			err:  nil,
			validate: func(t *testing.T, apiErr *APIError) {
				if apiErr != nil {
					t.Errorf("Expected nil, got %v", apiErr)
				}
			},
		},
		{
			name: "non rate limit error",
			err:  errors.New("500 internal server error"),
			validate: func(t *testing.T, apiErr *APIError) {
				if apiErr != nil {
					t.Errorf("Expected nil, got %v", apiErr)
				}
			},
		},
		{
			name: "quota exhaustion",
			err:  errors.New(`POST "/chat/completions": 429 Too Many Requests {"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}`),
			validate: func(t *testing.T, apiErr *APIError) {
				if apiErr == nil {
					t.Fatal("Expected API error")
				}
				if !apiErr.IsPermanent {
					t.Error("Expected quota error to be permanent")
				}
				if apiErr.Message != "You exceeded your current quota" {
					t.Errorf("Expected parsed message, got %q", apiErr.Message)
				}
			},
		},
		{
			name: "plain rate limit",
			err:  errors.New("429 Too Many Requests"),
			validate: func(t *testing.T, apiErr *APIError) {
				if apiErr == nil || apiErr.StatusCode != 429 || apiErr.IsPermanent {
					t.Errorf("Expected transient 429, got %+v", apiErr)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.validate(t, ExtractAPIError(tt.err))
		})
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	rate := &APIError{StatusCode: 429}
	quota := &APIError{StatusCode: 429, IsPermanent: true, Code: "insufficient_quota"}

	if !IsRateLimitError(fmt.Errorf("wrapped: %w", rate)) {
		t.Error("Expected wrapped 429 to be a rate limit error")
	}
	if IsRateLimitError(quota) {
		t.Error("Expected quota error not to be a rate limit error")
	}
	if !IsQuotaError(quota) {
		t.Error("Expected quota error")
	}
	if IsQuotaError(nil) || IsRateLimitError(nil) {
		t.Error("Expected nil to classify as neither")
	}
}
