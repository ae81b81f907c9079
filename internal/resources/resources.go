// Package resources implements the per-collection services: each fetches and
// mutates one backend collection and reconciles every result into its cache.
// An error string is recorded and surfaced once; nothing is retried.
package resources

import (
	"errors"

	"carelink.org/internal/api"
)

// dataEnvelope wraps single-resource responses.
type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// pagedEnvelope wraps page-numbered list responses (medications, users).
type pagedEnvelope[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

func errorMessage(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
