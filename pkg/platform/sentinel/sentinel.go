package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store (or is soft-deleted)
// - ErrVersionConflict: optimistic-concurrency token is stale
// - ErrDuplicate: uniqueness constraint (code, sequence number) violated
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrLockHeld: distributed lock owned by another instance
// - ErrUnavailable: service or resource temporarily unavailable
//
// For business-rule violations use pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicate       = errors.New("duplicate")
	ErrInvalidState    = errors.New("invalid state")
	ErrLockHeld        = errors.New("lock held")
	ErrUnavailable     = errors.New("unavailable")
)
