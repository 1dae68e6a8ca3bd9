package coordinator

import "time"

// DeviceID uniquely identifies a physical landing/dispatch device.
type DeviceID string

// Peer is one connected device channel. A session references exactly one
// peer for its whole lifetime; sessions are never transferred.
type Peer interface {
	ID() string
	Send(event string, payload any) error
}

// Broadcaster fans an event out to every connection in the namespace.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// DeliverySession records one in-flight delivery for a device. DeliveryID is
// non-empty for the session's whole lifetime; a session only exists once the
// remote system has assigned an id.
type DeliverySession struct {
	DeviceID      DeviceID
	DeliveryID    string
	Peer          Peer
	DeviceAddress string
	CreatedAt     time.Time
}

// Outcome is the terminal result a device reports for its delivery.
type Outcome struct {
	Success       bool
	FailureReason string
}
