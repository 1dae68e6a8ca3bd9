package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/droneops/landingd/internal/coordinator"
	"github.com/droneops/landingd/internal/protocol"
)

const maxDecodeErrorsPerConn = 3

// namespaceHandler accepts device connections on the namespace path and runs
// the per-connection event loop.
func (s *Service) namespaceHandler() http.Handler {
	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		s.handleConn(conn)
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})
}

func (s *Service) handleConn(conn *websocket.Conn) {
	defer conn.Close()

	peer := newWSPeer(json.NewEncoder(conn))
	s.hub.join(peer)
	s.log.Info().Str("peer", peer.ID()).Int("connected", s.hub.Len()).Msg("client connected")

	defer func() {
		s.hub.leave(peer)
		s.coordinator.HandleDisconnect(peer)
		s.log.Info().Str("peer", peer.ID()).Int("connected", s.hub.Len()).Msg("client disconnected")
	}()

	ctx := conn.Request().Context()
	decoder := json.NewDecoder(conn)
	decodeErrors := 0

	for {
		var frame protocol.Frame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return
			}
			decodeErrors++
			if decodeErrors >= maxDecodeErrorsPerConn {
				_ = peer.Send(protocol.EventDisconnectMessage, protocol.StatusUpdate{
					Status: http.StatusBadRequest,
					Value:  "Too many malformed frames",
				})
				return
			}
			_ = peer.Send(protocol.EventErrorMessage, protocol.StatusUpdate{
				Status: http.StatusBadRequest,
				Value:  "Invalid frame",
			})
			continue
		}
		decodeErrors = 0

		switch frame.Event {
		case protocol.EventNewDelivery:
			req, err := protocol.DecodeNewDelivery(frame.Data)
			if err != nil {
				_ = peer.Send(protocol.EventErrorMessage, protocol.StatusUpdate{
					Status: http.StatusBadRequest,
					Value:  "Missing required fields: deviceIdentity or deliveryName",
				})
				continue
			}
			s.coordinator.StartDelivery(ctx, peer, req)
		case protocol.EventFinishDelivery:
			req, err := protocol.DecodeFinishDelivery(frame.Data)
			if err != nil {
				_ = peer.Send(protocol.EventErrorMessage, protocol.StatusUpdate{
					Status: http.StatusBadRequest,
					Value:  "Invalid FINISH_DELIVERY payload",
				})
				continue
			}
			s.coordinator.FinishDelivery(ctx, peer, coordinator.Outcome{
				Success:       req.Success,
				FailureReason: req.FailureReason,
			})
		case protocol.EventGetActiveDeliveries:
			s.coordinator.ActiveDeliveries(peer)
		default:
			_ = peer.Send(protocol.EventErrorMessage, protocol.StatusUpdate{
				Status: http.StatusBadRequest,
				Value:  "Unsupported event",
			})
		}
	}
}
