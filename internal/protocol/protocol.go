package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Inbound event names accepted from a connected device.
const (
	EventNewDelivery         = "NEW_DELIVERY"
	EventFinishDelivery      = "FINISH_DELIVERY"
	EventGetActiveDeliveries = "GET_ACTIVE_DELIVERIES"
)

// Outbound event names emitted to one connection or the whole namespace.
const (
	EventDeliveryStarted   = "deliveryStarted"
	EventDeliveryUpdate    = "deliveryUpdate"
	EventStatusUpdate      = "statusUpdate"
	EventActiveDeliveries  = "activeDeliveries"
	EventErrorMessage      = "errorMessage"
	EventDisconnectMessage = "disconnectMessage"
)

// Delivery status values mirrored to the remote system of record.
const (
	DeliveryStatusStarted      = "Started"
	DeliveryStatusUnderProcess = "Under process"
	DeliveryStatusSucceeded    = "Succeeded"
	DeliveryStatusFailed       = "Failed"
)

// Device operational status values owned by the remote system of record.
const (
	DeviceActive     = "Active"
	DeviceInDelivery = "InDelivery"
	DeviceInactive   = "Inactive"
)

var ErrMissingFields = errors.New("protocol: missing required fields")

// Frame is the envelope for every message on the namespace channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewDelivery announces the start of a delivery for one device.
type NewDelivery struct {
	DeviceIdentity string `json:"deviceIdentity"`
	DeliveryName   string `json:"deliveryName"`
	DeviceAddress  string `json:"deviceAddress,omitempty"`
}

// FinishDelivery reports the terminal outcome of the connection's delivery.
type FinishDelivery struct {
	Success       bool   `json:"success"`
	FailureReason string `json:"failureReason,omitempty"`
}

// DeliveryStarted acknowledges an accepted delivery to the originating connection.
type DeliveryStarted struct {
	Status        int    `json:"status"`
	Value         string `json:"value"`
	DeliveryID    string `json:"deliveryId"`
	DeviceAddress string `json:"deviceAddress,omitempty"`
}

// DeliveryUpdate is broadcast to every connection sharing the namespace.
type DeliveryUpdate struct {
	DeviceIdentity string `json:"deviceIdentity"`
	DeliveryID     string `json:"deliveryId"`
	DeviceAddress  string `json:"deviceAddress,omitempty"`
	Status         string `json:"status"`
}

// StatusUpdate carries a terminal per-request response to one connection.
type StatusUpdate struct {
	Status int    `json:"status"`
	Value  string `json:"value"`
}

// ActiveDelivery is one entry of the registry snapshot sent to a requester.
type ActiveDelivery struct {
	DeviceIdentity string `json:"deviceIdentity"`
	DeliveryID     string `json:"deliveryId"`
	DeviceAddress  string `json:"deviceAddress,omitempty"`
}

// DecodeNewDelivery validates a NEW_DELIVERY payload at the boundary.
// Device address is optional; identity and name are not.
func DecodeNewDelivery(data json.RawMessage) (NewDelivery, error) {
	var req NewDelivery
	if err := json.Unmarshal(data, &req); err != nil {
		return NewDelivery{}, fmt.Errorf("protocol: decode NEW_DELIVERY: %w", err)
	}
	req.DeviceIdentity = strings.TrimSpace(req.DeviceIdentity)
	req.DeliveryName = strings.TrimSpace(req.DeliveryName)
	req.DeviceAddress = strings.TrimSpace(req.DeviceAddress)
	if req.DeviceIdentity == "" || req.DeliveryName == "" {
		return NewDelivery{}, ErrMissingFields
	}
	return req, nil
}

// DecodeFinishDelivery validates a FINISH_DELIVERY payload at the boundary.
func DecodeFinishDelivery(data json.RawMessage) (FinishDelivery, error) {
	var req FinishDelivery
	if len(data) == 0 {
		return FinishDelivery{}, ErrMissingFields
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return FinishDelivery{}, fmt.Errorf("protocol: decode FINISH_DELIVERY: %w", err)
	}
	return req, nil
}
