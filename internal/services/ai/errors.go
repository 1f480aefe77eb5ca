package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the API quota was exceeded
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrEmptyResponse is returned when the model produced no usable content
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrNoChoicesInResponse is returned when a completion has no choices
	ErrNoChoicesInResponse = errors.New("no choices in response")
	// ErrNotesTooShort is returned when there is too little to summarize
	ErrNotesTooShort = errors.New("notes are too short to summarize")
)

// APIError represents an error from the AI provider API
type APIError struct {
	Provider    string
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // quota exhaustion; rate limits are transient
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d, type %s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
}

// Is lets callers match APIErrors against ErrRateLimited and ErrQuotaExceeded
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrQuotaExceeded:
		return e.IsPermanent
	case ErrRateLimited:
		return e.StatusCode == 429 && !e.IsPermanent
	}
	return false
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 && !apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError pulls rate limit and quota details out of a provider error.
// It returns nil for errors that are neither.
func ExtractAPIError(provider string, err error) *APIError {
	if err == nil {
		return nil
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "429") && !strings.Contains(errStr, "RESOURCE_EXHAUSTED") {
		return nil
	}

	apiErr := &APIError{
		Provider:   provider,
		StatusCode: 429,
		Message:    errStr,
		Type:       "rate_limit_error",
	}

	// Both SDKs embed the JSON error body in the message
	if body := extractJSON(errStr, '{', '}'); body != errStr {
		var errorData struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
			Status  string `json:"status"`
			Error   *struct {
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		if json.Unmarshal([]byte(body), &errorData) == nil {
			if errorData.Message != "" {
				apiErr.Message = errorData.Message
			}
			if errorData.Error != nil && errorData.Error.Message != "" {
				apiErr.Message = errorData.Error.Message
			}
			if errorData.Type != "" {
				apiErr.Type = errorData.Type
			}
			apiErr.Code = errorData.Code
			if errorData.Code == "insufficient_quota" {
				apiErr.IsPermanent = true
			}
		}
	}
	if strings.Contains(strings.ToLower(apiErr.Message), "quota") && strings.Contains(strings.ToLower(apiErr.Message), "exceeded your") {
		apiErr.IsPermanent = true
	}

	retryAfter := 60 * time.Second
	if apiErr.IsPermanent {
		retryAfter = time.Hour
	}
	apiErr.RetryAfter = &retryAfter

	return apiErr
}

// wrapAPIError wraps a provider failure for operation, keeping rate limit
// details when present
func wrapAPIError(provider, operation string, err error) error {
	if apiErr := ExtractAPIError(provider, err); apiErr != nil {
		return fmt.Errorf("failed to %s: %w", operation, apiErr)
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// GetRetryDelay calculates the delay before retrying based on error type
func GetRetryDelay(err error, attempt int) time.Duration {
	// Shift is clamped to [0, 10] so the multiplication cannot overflow
	var shift uint
	switch {
	case attempt <= 0:
		shift = 0
	case attempt > 10:
		shift = 10
	default:
		shift = uint(attempt)
	}

	if IsQuotaError(err) {
		delay := time.Hour * time.Duration(1<<shift)
		if delay > 24*time.Hour {
			delay = 24 * time.Hour
		}
		return delay
	}

	if IsRateLimitError(err) {
		delay := 60 * time.Second * time.Duration(1<<shift)
		if delay > 15*time.Minute {
			delay = 15 * time.Minute
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
		return delay
	}

	delay := 5 * time.Second * time.Duration(1<<shift)
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}
