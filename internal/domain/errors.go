// Package domain holds errors shared across the domain services. Handlers
// translate them to HTTP status codes with errors.Is.
package domain

import "errors"

var (
	// ErrNotFound covers both genuinely missing records and records owned
	// by another user. Ownership misses must not be distinguishable from
	// missing rows.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a request rejected before any state change.
	ErrValidation = errors.New("validation failed")

	// ErrEmailTaken is returned when registering or changing the email to
	// one that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmptyCart rejects checkout on a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidTransition rejects an order status change not allowed by
	// the status lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
)
