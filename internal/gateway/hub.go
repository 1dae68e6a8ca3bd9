package gateway

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub is the namespace: the set of connections sharing broadcast visibility
// for delivery updates.
type Hub struct {
	mu    sync.Mutex
	peers map[*wsPeer]struct{}
	log   zerolog.Logger
}

// NewHub constructs an empty namespace hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{peers: make(map[*wsPeer]struct{}), log: log}
}

func (h *Hub) join(peer *wsPeer) {
	h.mu.Lock()
	h.peers[peer] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) leave(peer *wsPeer) {
	h.mu.Lock()
	delete(h.peers, peer)
	h.mu.Unlock()
}

// Len reports the number of connected peers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Broadcast fans one event out to every connected peer. The peer set is
// snapshotted under the lock and written outside it; a slow connection never
// blocks membership changes.
func (h *Hub) Broadcast(event string, payload any) {
	h.mu.Lock()
	peers := make([]*wsPeer, 0, len(h.peers))
	for peer := range h.peers {
		peers = append(peers, peer)
	}
	h.mu.Unlock()

	for _, peer := range peers {
		if err := peer.Send(event, payload); err != nil {
			h.log.Warn().Err(err).Str("event", event).Str("peer", peer.ID()).Msg("broadcast to peer failed")
		}
	}
}
