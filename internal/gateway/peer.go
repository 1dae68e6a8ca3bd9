package gateway

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/droneops/landingd/internal/protocol"
)

// wsPeer is one connected device channel. Writes are serialized through the
// mutex so coordinator responses and namespace broadcasts never interleave
// mid-frame.
type wsPeer struct {
	id  string
	mu  sync.Mutex
	enc *json.Encoder
}

func newWSPeer(enc *json.Encoder) *wsPeer {
	return &wsPeer{id: uuid.NewString(), enc: enc}
}

// ID returns the stable connection handle for registry ownership checks.
func (p *wsPeer) ID() string {
	return p.id
}

// Send encodes one event frame to this connection.
func (p *wsPeer) Send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: encode %s payload: %w", event, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enc.Encode(protocol.Frame{Event: event, Data: data})
}
