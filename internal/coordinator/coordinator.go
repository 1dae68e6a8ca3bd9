package coordinator

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/droneops/landingd/internal/deliveryapi"
	"github.com/droneops/landingd/internal/observability"
	"github.com/droneops/landingd/internal/protocol"
)

// RemoteClient is the boundary to the remote system of record. Every call
// returns a normalized result; a non-nil error means the transport itself
// failed and the result carries deliveryapi.StatusRemoteFailure.
type RemoteClient interface {
	CreateDelivery(ctx context.Context, deviceID, deliveryName, deviceAddress string) (deliveryapi.CreateResult, error)
	SetDeliveryOutcome(ctx context.Context, deliveryID, status string, endTime time.Time) (deliveryapi.Result, error)
	SetDeviceStatus(ctx context.Context, deviceID, status string) (deliveryapi.Result, error)
	CloseDelivery(ctx context.Context, deliveryID string, success bool, failureReason string) (deliveryapi.Result, error)
}

// Coordinator drives delivery session transitions for connected devices.
type Coordinator struct {
	registry    *Registry
	remote      RemoteClient
	broadcaster Broadcaster
	log         zerolog.Logger
	now         func() time.Time
}

// New constructs a coordinator around its collaborators.
func New(registry *Registry, remote RemoteClient, broadcaster Broadcaster, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		registry:    registry,
		remote:      remote,
		broadcaster: broadcaster,
		log:         log,
		now:         time.Now,
	}
}

// Registry exposes the session registry for snapshot surfaces.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// StartDelivery handles NEW_DELIVERY for one connection.
//
// The device slot is reserved before the remote create call so a concurrent
// start for the same device is rejected without ever reaching the remote
// system. On remote failure the reservation is released; on success the
// reservation is promoted and the namespace is told the delivery started.
func (c *Coordinator) StartDelivery(ctx context.Context, peer Peer, req protocol.NewDelivery) {
	deviceID := DeviceID(strings.TrimSpace(req.DeviceIdentity))
	deliveryName := strings.TrimSpace(req.DeliveryName)
	if deviceID == "" || deliveryName == "" {
		c.sendError(peer, http.StatusBadRequest, "Missing required fields: deviceIdentity or deliveryName")
		return
	}

	if err := c.registry.Reserve(deviceID, peer); err != nil {
		c.log.Info().Str("device", string(deviceID)).Str("peer", peer.ID()).Msg("start rejected: device already in delivery")
		c.sendError(peer, http.StatusBadRequest, "Device already has an active delivery")
		return
	}

	created, err := c.remote.CreateDelivery(ctx, string(deviceID), deliveryName, req.DeviceAddress)
	if err != nil {
		c.registry.Release(deviceID)
		c.log.Error().Err(err).Str("device", string(deviceID)).Msg("remote delivery create failed")
		status := created.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		c.sendError(peer, status, "Internal server error")
		return
	}
	if created.Status != http.StatusCreated {
		c.registry.Release(deviceID)
		c.log.Warn().Int("status", created.Status).Str("device", string(deviceID)).Msg("remote rejected delivery create")
		c.sendError(peer, created.Status, "Delivery process not started successfully")
		return
	}

	session, err := c.registry.Activate(deviceID, peer, created.DeliveryID, req.DeviceAddress, c.now())
	if err != nil {
		// The owning connection vanished while the create call was in
		// flight. Close the fresh remote record instead of orphaning it.
		c.log.Warn().Err(err).Str("device", string(deviceID)).Str("delivery", created.DeliveryID).Msg("reservation lost during remote create, closing delivery")
		if _, closeErr := c.remote.CloseDelivery(ctx, created.DeliveryID, false, "connection lost before activation"); closeErr != nil {
			c.log.Error().Err(closeErr).Str("delivery", created.DeliveryID).Msg("close of unclaimed delivery failed")
		}
		return
	}

	observability.RecordSessionStarted()
	observability.SetActiveSessions(c.registry.ActiveCount())
	c.log.Info().Str("device", string(deviceID)).Str("delivery", session.DeliveryID).Msg("delivery session started")

	c.send(peer, protocol.EventDeliveryStarted, protocol.DeliveryStarted{
		Status:        created.Status,
		Value:         "Delivery started successfully",
		DeliveryID:    session.DeliveryID,
		DeviceAddress: session.DeviceAddress,
	})
	c.broadcast(protocol.EventDeliveryUpdate, protocol.DeliveryUpdate{
		DeviceIdentity: string(deviceID),
		DeliveryID:     session.DeliveryID,
		DeviceAddress:  session.DeviceAddress,
		Status:         protocol.DeliveryStatusStarted,
	})
}

// FinishDelivery handles FINISH_DELIVERY for the session owned by peer.
//
// The session is removed unconditionally once the remote call resolves,
// success or failure: a registry entry whose remote counterpart may already
// be stale is worse than letting a retry fail with no active session.
func (c *Coordinator) FinishDelivery(ctx context.Context, peer Peer, outcome Outcome) {
	session, found := c.registry.FindByPeer(peer.ID())
	if !found {
		c.sendError(peer, http.StatusNotFound, "No active delivery found for this socket")
		return
	}

	terminal := protocol.DeliveryStatusSucceeded
	if !outcome.Success {
		terminal = protocol.DeliveryStatusFailed
	}
	endTime := c.now()

	result, err := c.remote.SetDeliveryOutcome(ctx, session.DeliveryID, terminal, endTime)

	c.registry.Remove(session.DeviceID)
	observability.SetActiveSessions(c.registry.ActiveCount())

	if err != nil || result.Status != http.StatusOK {
		observability.RecordSessionOrphanedRemote()
		c.log.Error().Err(err).Int("status", result.Status).
			Str("device", string(session.DeviceID)).Str("delivery", session.DeliveryID).
			Msg("terminal status write failed, session removed locally; remote record needs operator reconciliation")
		c.send(peer, protocol.EventStatusUpdate, protocol.StatusUpdate{
			Status: http.StatusInternalServerError,
			Value:  "Failed to update delivery status",
		})
		return
	}

	observability.RecordSessionFinished(terminal)
	c.log.Info().Str("device", string(session.DeviceID)).Str("delivery", session.DeliveryID).
		Str("outcome", terminal).Msg("delivery session finished")

	c.send(peer, protocol.EventStatusUpdate, protocol.StatusUpdate{
		Status: http.StatusOK,
		Value:  "Delivery " + terminal + " successfully",
	})
	c.broadcast(protocol.EventDeliveryUpdate, protocol.DeliveryUpdate{
		DeviceIdentity: string(session.DeviceID),
		DeliveryID:     session.DeliveryID,
		DeviceAddress:  session.DeviceAddress,
		Status:         terminal,
	})

	// Best-effort side channel. The delivery outcome is already recorded;
	// a failed device status restore is logged, never retried or rolled back.
	if deviceResult, err := c.remote.SetDeviceStatus(ctx, string(session.DeviceID), protocol.DeviceActive); err != nil || deviceResult.Status != http.StatusOK {
		c.log.Error().Err(err).Int("status", deviceResult.Status).
			Str("device", string(session.DeviceID)).Msg("device status restore failed")
	}
}

// HandleDisconnect drops every slot owned by a lost connection. No remote
// call is made: the device slot becoming available again wins over
// reconciling whatever state the remote record was last confirmed in.
// Calling it twice for the same peer is a no-op the second time.
func (c *Coordinator) HandleDisconnect(peer Peer) {
	session, found := c.registry.RemoveByPeer(peer.ID())
	if !found {
		return
	}
	observability.RecordSessionAbandoned()
	observability.SetActiveSessions(c.registry.ActiveCount())
	c.log.Warn().Str("device", string(session.DeviceID)).Str("delivery", session.DeliveryID).
		Str("peer", peer.ID()).Str("remote_status", protocol.DeliveryStatusUnderProcess).
		Msg("delivery session abandoned on disconnect, remote record left non-terminal")
}

// ActiveDeliveries sends the registry snapshot to the requesting connection.
func (c *Coordinator) ActiveDeliveries(peer Peer) {
	sessions := c.registry.Snapshot()
	entries := make([]protocol.ActiveDelivery, 0, len(sessions))
	for _, session := range sessions {
		entries = append(entries, protocol.ActiveDelivery{
			DeviceIdentity: string(session.DeviceID),
			DeliveryID:     session.DeliveryID,
			DeviceAddress:  session.DeviceAddress,
		})
	}
	c.send(peer, protocol.EventActiveDeliveries, entries)
}

func (c *Coordinator) sendError(peer Peer, status int, value string) {
	c.send(peer, protocol.EventErrorMessage, protocol.StatusUpdate{Status: status, Value: value})
}

func (c *Coordinator) send(peer Peer, event string, payload any) {
	if err := peer.Send(event, payload); err != nil {
		c.log.Warn().Err(err).Str("event", event).Str("peer", peer.ID()).Msg("send to peer failed")
	}
}

func (c *Coordinator) broadcast(event string, payload any) {
	observability.RecordBroadcast(event)
	c.broadcaster.Broadcast(event, payload)
}
