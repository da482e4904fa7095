// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries one of these codes next to the HTTP status so
// clients can branch on a stable, machine-readable value:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "project not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
	ErrCodeTimeout          = "timeout"

	// ErrCodeProvider marks a failed call to the upstream AI provider.
	ErrCodeProvider = "provider_error"
)
