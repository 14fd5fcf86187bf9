// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them, while
// the message is for humans. Generic codes mirror HTTP status semantics;
// domain codes name the operation that failed.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "invalid_date",
//	  "message": "date must be YYYY-MM-DD"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidDate    = "invalid_date"
	ErrCodeCreateFailed   = "create_failed"
	ErrCodeUpdateFailed   = "update_failed"
	ErrCodeDeleteFailed   = "delete_failed"
	ErrCodeListFailed     = "list_failed"
	ErrCodeDiffFailed     = "diff_failed"
	ErrCodeSnapshotFailed = "snapshot_failed"
	ErrCodeSyncFailed     = "sync_failed"
)
