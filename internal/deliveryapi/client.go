package deliveryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/droneops/landingd/internal/observability"
	"github.com/droneops/landingd/internal/protocol"
)

const (
	opCreateDelivery   = "create_delivery"
	opDeliveryOutcome  = "set_delivery_outcome"
	opDeviceStatus     = "set_device_status"
	opCloseDelivery    = "close_delivery"
	opGetDeviceStatus  = "get_device_status"
	maxResponseBodyLen = 1 << 20
)

// StatusRemoteFailure is the normalized status for transport-level failures
// (dial error, timeout, unreadable body). The coordinator forwards it as-is.
const StatusRemoteFailure = http.StatusInternalServerError

// Result is the normalized outcome of one remote call.
type Result struct {
	Status  int
	Message string
}

// CreateResult is the normalized outcome of a delivery creation call.
type CreateResult struct {
	Status     int
	DeliveryID string
	Message    string
}

// Client issues delivery/device calls against the remote system of record.
// Every method returns a normalized result; transport failures surface both
// as an error and as a StatusRemoteFailure result so callers can forward a
// numeric status without inspecting the error.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a client bound to one API base URL.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type createDeliveryRequest struct {
	DeviceIdentity string `json:"deviceIdentity"`
	DeliveryName   string `json:"deliveryName"`
	DeviceAddress  string `json:"deviceAddress,omitempty"`
}

type createDeliveryResponse struct {
	Delivery struct {
		ID string `json:"_id"`
	} `json:"delivery"`
	Message string `json:"message"`
}

type deliveryOutcomeRequest struct {
	Status  string `json:"status"`
	EndTime string `json:"end_time"`
}

type deviceStatusRequest struct {
	Status string `json:"status"`
}

type closeDeliveryRequest struct {
	Success       bool   `json:"success"`
	FailureReason string `json:"failureReason,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type deviceStatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateDelivery registers a new delivery and returns its assigned id.
// A success without a delivery id is normalized to a failure; a session must
// never be created around an empty identifier.
func (c *Client) CreateDelivery(ctx context.Context, deviceID, deliveryName, deviceAddress string) (CreateResult, error) {
	body := createDeliveryRequest{
		DeviceIdentity: deviceID,
		DeliveryName:   deliveryName,
		DeviceAddress:  deviceAddress,
	}
	status, raw, err := c.do(ctx, opCreateDelivery, http.MethodPost, "/api/delivery/new", body)
	if err != nil {
		return CreateResult{Status: StatusRemoteFailure, Message: remoteFailureMessage}, err
	}

	if status != http.StatusCreated {
		var resp messageResponse
		_ = json.Unmarshal(raw, &resp)
		return CreateResult{Status: status, Message: messageOr(resp.Message, "delivery not created")}, nil
	}
	var resp createDeliveryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return CreateResult{Status: StatusRemoteFailure, Message: "malformed delivery response"},
			fmt.Errorf("deliveryapi: decode create response: %w", err)
	}
	deliveryID := strings.TrimSpace(resp.Delivery.ID)
	if deliveryID == "" {
		return CreateResult{Status: StatusRemoteFailure, Message: "delivery id missing in response"},
			fmt.Errorf("deliveryapi: delivery id missing in create response")
	}
	return CreateResult{Status: status, DeliveryID: deliveryID}, nil
}

// SetDeliveryOutcome persists the terminal status and end time for a delivery.
func (c *Client) SetDeliveryOutcome(ctx context.Context, deliveryID, status string, endTime time.Time) (Result, error) {
	if strings.TrimSpace(deliveryID) == "" {
		return Result{Status: StatusRemoteFailure, Message: "delivery id required"},
			fmt.Errorf("deliveryapi: delivery id required")
	}
	body := deliveryOutcomeRequest{
		Status:  status,
		EndTime: endTime.UTC().Format(time.RFC3339),
	}
	path := "/api/delivery/" + deliveryID + "/wss"
	httpStatus, raw, err := c.do(ctx, opDeliveryOutcome, http.MethodPut, path, body)
	if err != nil {
		return Result{Status: StatusRemoteFailure, Message: remoteFailureMessage}, err
	}
	var resp messageResponse
	_ = json.Unmarshal(raw, &resp)
	return Result{Status: httpStatus, Message: resp.Message}, nil
}

// SetDeviceStatus mirrors a device operational status to the remote system.
func (c *Client) SetDeviceStatus(ctx context.Context, deviceID, status string) (Result, error) {
	if strings.TrimSpace(deviceID) == "" {
		return Result{Status: StatusRemoteFailure, Message: "device id required"},
			fmt.Errorf("deliveryapi: device id required")
	}
	path := "/api/device/" + deviceID + "/wss"
	httpStatus, raw, err := c.do(ctx, opDeviceStatus, http.MethodPut, path, deviceStatusRequest{Status: status})
	if err != nil {
		return Result{Status: StatusRemoteFailure, Message: remoteFailureMessage}, err
	}
	var resp messageResponse
	_ = json.Unmarshal(raw, &resp)
	return Result{Status: httpStatus, Message: resp.Message}, nil
}

// CloseDelivery closes a delivery record without a terminal status write.
func (c *Client) CloseDelivery(ctx context.Context, deliveryID string, success bool, failureReason string) (Result, error) {
	if strings.TrimSpace(deliveryID) == "" {
		return Result{Status: StatusRemoteFailure, Message: "delivery id required"},
			fmt.Errorf("deliveryapi: delivery id required")
	}
	body := closeDeliveryRequest{Success: success, FailureReason: failureReason}
	path := "/api/delivery/" + deliveryID + "/close"
	httpStatus, raw, err := c.do(ctx, opCloseDelivery, http.MethodPut, path, body)
	if err != nil {
		return Result{Status: StatusRemoteFailure, Message: remoteFailureMessage}, err
	}
	var resp messageResponse
	_ = json.Unmarshal(raw, &resp)
	return Result{Status: httpStatus, Message: resp.Message}, nil
}

// GetDeviceStatus reads a device's operational status. Remote "active" and
// "indelivery" map to their vocabulary values; everything else is Inactive.
func (c *Client) GetDeviceStatus(ctx context.Context, deviceID string) (string, error) {
	if strings.TrimSpace(deviceID) == "" {
		return "", fmt.Errorf("deliveryapi: device id required")
	}
	httpStatus, raw, err := c.do(ctx, opGetDeviceStatus, http.MethodGet, "/api/device/"+deviceID, nil)
	if err != nil {
		return "", err
	}
	if httpStatus != http.StatusOK {
		return "", fmt.Errorf("deliveryapi: get device status %d", httpStatus)
	}
	var resp deviceStatusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("deliveryapi: decode device status: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(resp.Status)) {
	case "active":
		return protocol.DeviceActive, nil
	case "indelivery":
		return protocol.DeviceInDelivery, nil
	}
	return protocol.DeviceInactive, nil
}

const remoteFailureMessage = "network error or no response from server"

// do issues one request and returns the HTTP status with the raw body.
// Metrics are recorded per op; a transport failure records status 0.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("deliveryapi: encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("deliveryapi: build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordRemoteRequest(op, 0, time.Since(start))
		c.log.Error().Err(err).Str("op", op).Str("path", path).Msg("remote call failed")
		return 0, nil, fmt.Errorf("deliveryapi: %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyLen))
	observability.RecordRemoteRequest(op, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, fmt.Errorf("deliveryapi: read %s response: %w", op, err)
	}
	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("remote call completed")
	return resp.StatusCode, raw, nil
}

func messageOr(message, fallback string) string {
	if strings.TrimSpace(message) == "" {
		return fallback
	}
	return message
}
