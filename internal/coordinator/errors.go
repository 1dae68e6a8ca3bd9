package coordinator

import "errors"

var (
	// ErrAlreadyActive rejects a slot claim for a device that already has a
	// reservation or an active session.
	ErrAlreadyActive = errors.New("coordinator: device already has an active delivery")

	// ErrNotReserved rejects an activation whose reservation no longer exists
	// or is owned by a different peer.
	ErrNotReserved = errors.New("coordinator: device slot is not reserved by this peer")

	// ErrEmptyDeliveryID rejects an activation without a remote-assigned id.
	ErrEmptyDeliveryID = errors.New("coordinator: delivery id must not be empty")

	// ErrEmptyDeviceID rejects operations on a blank device identity.
	ErrEmptyDeviceID = errors.New("coordinator: device identity must not be empty")
)
