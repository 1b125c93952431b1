// Package parking implements slot allocation and the occupancy lifecycle
// of a parking space: the slot registry, the session ledger, the
// allocation policy, billing and maintenance transitions.
//
// The sentinel errors below are returned (possibly wrapped) by every
// component so callers can classify failures with errors.Is.  None of them
// is transient; callers must not retry.
package parking

import "errors"

// ErrNotFound is returned for an unknown slot, session or vehicle id.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a slot is not in a state that allows the
// requested transition.
var ErrConflict = errors.New("conflict")

// ErrNoCapacity is returned when no compatible slot is free.
var ErrNoCapacity = errors.New("no capacity")

// ErrInvalidInput is returned for a missing or malformed vehicle number,
// vehicle type, billing type or inventory.
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidInterval is returned when an exit time precedes its entry time.
var ErrInvalidInterval = errors.New("invalid interval")

// ErrAlreadyClosed is returned when closing a session that is not active.
var ErrAlreadyClosed = errors.New("session already closed")

// ErrVehicleParked is returned when a vehicle with an active session
// registers again.
var ErrVehicleParked = errors.New("vehicle already parked")

// ErrNotInitialized is returned when allocating before an inventory exists.
var ErrNotInitialized = errors.New("parking space not initialized")
