package coordinator

import (
	"strings"
	"sync"
	"time"
)

// slot is one claimed device entry. A slot starts reserved and either gets
// promoted to an active session or released.
type slot struct {
	peerID  string
	session *DeliverySession
}

func (s *slot) active() bool {
	return s.session != nil
}

// Registry is the authoritative map from device identity to claimed slot.
// Every mutation is a single step under the mutex; no remote call ever runs
// while the lock is held.
type Registry struct {
	mu    sync.Mutex
	slots map[DeviceID]*slot
}

// NewRegistry constructs an empty session registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[DeviceID]*slot)}
}

// Reserve claims the device slot for peer before any remote call is issued.
// The check and insert are one atomic step; two concurrent reservations for
// the same device cannot both succeed.
func (r *Registry) Reserve(deviceID DeviceID, peer Peer) error {
	if strings.TrimSpace(string(deviceID)) == "" {
		return ErrEmptyDeviceID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.slots[deviceID]; exists {
		return ErrAlreadyActive
	}
	r.slots[deviceID] = &slot{peerID: peer.ID()}
	return nil
}

// Activate promotes peer's reservation to an active session once the remote
// system has assigned deliveryID. The reservation must still exist and still
// belong to peer; a disconnect that raced the remote call invalidates it.
func (r *Registry) Activate(deviceID DeviceID, peer Peer, deliveryID, deviceAddress string, createdAt time.Time) (DeliverySession, error) {
	if strings.TrimSpace(deliveryID) == "" {
		return DeliverySession{}, ErrEmptyDeliveryID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	claimed, exists := r.slots[deviceID]
	if !exists || claimed.active() || claimed.peerID != peer.ID() {
		return DeliverySession{}, ErrNotReserved
	}
	claimed.session = &DeliverySession{
		DeviceID:      deviceID,
		DeliveryID:    deliveryID,
		Peer:          peer,
		DeviceAddress: deviceAddress,
		CreatedAt:     createdAt,
	}
	return *claimed.session, nil
}

// Release drops an unpromoted reservation after a failed remote create.
// Releasing a missing or already-active slot is a no-op.
func (r *Registry) Release(deviceID DeviceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if claimed, exists := r.slots[deviceID]; exists && !claimed.active() {
		delete(r.slots, deviceID)
	}
}

// FindByDevice returns the active session for a device, if any.
func (r *Registry) FindByDevice(deviceID DeviceID) (DeliverySession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if claimed, exists := r.slots[deviceID]; exists && claimed.active() {
		return *claimed.session, true
	}
	return DeliverySession{}, false
}

// FindByPeer returns the active session owned by a connection. Termination
// paths only know the connection; the scan is bounded by connected peers.
func (r *Registry) FindByPeer(peerID string) (DeliverySession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, claimed := range r.slots {
		if claimed.active() && claimed.peerID == peerID {
			return *claimed.session, true
		}
	}
	return DeliverySession{}, false
}

// Remove deletes the device entry, reserved or active. Removing a missing
// device is a no-op; the second of two removals observes nothing.
func (r *Registry) Remove(deviceID DeviceID) (DeliverySession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claimed, exists := r.slots[deviceID]
	if !exists {
		return DeliverySession{}, false
	}
	delete(r.slots, deviceID)
	if claimed.active() {
		return *claimed.session, true
	}
	return DeliverySession{}, false
}

// RemoveByPeer drops every entry owned by a lost connection, reservations
// included, and returns the active session that was abandoned if one existed.
func (r *Registry) RemoveByPeer(peerID string) (DeliverySession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var abandoned DeliverySession
	var found bool
	for deviceID, claimed := range r.slots {
		if claimed.peerID != peerID {
			continue
		}
		delete(r.slots, deviceID)
		if claimed.active() {
			abandoned = *claimed.session
			found = true
		}
	}
	return abandoned, found
}

// Snapshot copies the current active sessions. Reservations are excluded;
// they have no delivery id yet.
func (r *Registry) Snapshot() []DeliverySession {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]DeliverySession, 0, len(r.slots))
	for _, claimed := range r.slots {
		if claimed.active() {
			sessions = append(sessions, *claimed.session)
		}
	}
	return sessions
}

// ActiveCount reports how many promoted sessions the registry holds.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, claimed := range r.slots {
		if claimed.active() {
			n++
		}
	}
	return n
}
