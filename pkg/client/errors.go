package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response")

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 403/429 responses with an exhausted quota.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassMalformed represents 2xx responses with an undecodable body.
	ErrorClassMalformed ErrorClass = "malformed"
)

// APIError represents a GitHub error response with additional context.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("github %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("github %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Classify categorizes a response for observability and error reporting.
// Successful responses have an empty class.
func Classify(resp Response) ErrorClass {
	if resp.Err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// ProviderMessage extracts the "message" field GitHub puts in error bodies.
// Returns an empty string when the body carries none.
func ProviderMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

// AsError converts a non-2xx or failed response into an *APIError.
// Returns nil for successful responses.
func (r Response) AsError() error {
	if r.OK() {
		return nil
	}
	class := Classify(r)

	if r.Err != nil {
		return &APIError{
			StatusCode: r.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    r.Err.Error(),
			Err:        r.Err,
		}
	}

	msg := ProviderMessage(r.Body)
	if msg == "" {
		msg = http.StatusText(r.StatusCode)
	}
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", r.StatusCode)
	}
	if class == "" {
		class = ErrorClassClient
	}

	return &APIError{
		StatusCode: r.StatusCode,
		ErrorClass: class,
		Message:    msg,
	}
}
