package models

import "errors"

// Sentinel errors shared across the storage and selection layers. Handlers map
// these onto HTTP status codes; everything else is treated as an internal error.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrNoInventory is returned when no eligible campaign can serve a client,
	// or when a billing write finds the campaign cap already reached at commit
	// time.
	ErrNoInventory = errors.New("no ad inventory available")

	// ErrPrecursorMissing is returned when a click is confirmed for a
	// (client, campaign) pair that has no recorded impression.
	ErrPrecursorMissing = errors.New("campaign must be seen before click")

	// ErrInvalidTransition is returned when the simulated day is moved
	// backward, or when campaign dates or caps are edited after the campaign
	// has started.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrValidation is returned for malformed input: bad targeting ranges,
	// non-unique bulk-upsert keys, out-of-range ages and the like.
	ErrValidation = errors.New("validation failure")

	// ErrDuplicateAction is returned when a ledger write collides with an
	// existing (client, campaign, kind) action. Callers treat it as
	// already-billed and do not retry.
	ErrDuplicateAction = errors.New("action already recorded")

	// ErrStorageUnavailable is returned when the underlying store fails
	// mid-transaction. It is propagated to the caller, never swallowed.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrAdCopyFailed is returned when ad-text generation exhausts its retry
	// budget. The whole mutating request fails; nothing is committed.
	ErrAdCopyFailed = errors.New("ad copy generation failed")
)
