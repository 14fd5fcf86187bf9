// Package services defines the business logic for customers, the daily
// snapshot writer, the difference engine, and tracker synchronization.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrCustomerNotFound indicates that the requested customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrInvalidDate is returned when a report date is not a YYYY-MM-DD
	// calendar date.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

	// ErrEmptyQuery is returned when a customer search has no search text.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrInvalidCustomer is returned when a customer's company name or Slack
	// channel is blank.
	ErrInvalidCustomer = errors.New("company_name and slack_channel are required")
)
