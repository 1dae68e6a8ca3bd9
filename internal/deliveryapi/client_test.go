package deliveryapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/droneops/landingd/internal/protocol"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, zerolog.Nop())
}

func TestCreateDeliverySuccess(t *testing.T) {
	var gotBody createDeliveryRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/delivery/new" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"delivery":{"_id":"DX"}}`))
	}))

	result, err := client.CreateDelivery(context.Background(), "D1", "box1", "A1")
	if err != nil {
		t.Fatalf("create delivery: %v", err)
	}
	if result.Status != http.StatusCreated || result.DeliveryID != "DX" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotBody.DeviceIdentity != "D1" || gotBody.DeliveryName != "box1" || gotBody.DeviceAddress != "A1" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestCreateDeliveryNonSuccessStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"unknown device"}`))
	}))

	result, err := client.CreateDelivery(context.Background(), "D1", "box1", "")
	if err != nil {
		t.Fatalf("non-2xx must not be an error: %v", err)
	}
	if result.Status != http.StatusBadRequest || result.Message != "unknown device" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCreateDeliveryMissingIDNormalizedToFailure(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"delivery":{}}`))
	}))

	result, err := client.CreateDelivery(context.Background(), "D1", "box1", "")
	if err == nil {
		t.Fatal("missing delivery id must surface as an error")
	}
	if result.Status != StatusRemoteFailure {
		t.Fatalf("want normalized %d, got %d", StatusRemoteFailure, result.Status)
	}
}

func TestCreateDeliveryMalformedBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`not json`))
	}))

	result, err := client.CreateDelivery(context.Background(), "D1", "box1", "")
	if err == nil {
		t.Fatal("malformed body must surface as an error")
	}
	if result.Status != StatusRemoteFailure {
		t.Fatalf("want normalized %d, got %d", StatusRemoteFailure, result.Status)
	}
}

func TestCreateDeliveryTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // dial will fail
	client := NewClient(srv.URL, time.Second, zerolog.Nop())

	result, err := client.CreateDelivery(context.Background(), "D1", "box1", "")
	if err == nil {
		t.Fatal("transport failure must surface as an error")
	}
	if result.Status != StatusRemoteFailure {
		t.Fatalf("want normalized %d, got %d", StatusRemoteFailure, result.Status)
	}
}

func TestSetDeliveryOutcome(t *testing.T) {
	var gotBody deliveryOutcomeRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/delivery/DX/wss" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	endTime := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	result, err := client.SetDeliveryOutcome(context.Background(), "DX", protocol.DeliveryStatusSucceeded, endTime)
	if err != nil {
		t.Fatalf("set delivery outcome: %v", err)
	}
	if result.Status != http.StatusOK {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotBody.Status != protocol.DeliveryStatusSucceeded || gotBody.EndTime != "2026-03-14T15:09:26Z" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestSetDeliveryOutcomeRequiresID(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", time.Second, zerolog.Nop())
	if _, err := client.SetDeliveryOutcome(context.Background(), " ", protocol.DeliveryStatusFailed, time.Now()); err == nil {
		t.Fatal("empty delivery id must be rejected")
	}
}

func TestSetDeviceStatus(t *testing.T) {
	var gotBody deviceStatusRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/device/D1/wss" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	result, err := client.SetDeviceStatus(context.Background(), "D1", protocol.DeviceActive)
	if err != nil {
		t.Fatalf("set device status: %v", err)
	}
	if result.Status != http.StatusOK || gotBody.Status != protocol.DeviceActive {
		t.Fatalf("unexpected result %+v body %+v", result, gotBody)
	}
}

func TestCloseDelivery(t *testing.T) {
	var gotBody closeDeliveryRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/delivery/DX/close" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	result, err := client.CloseDelivery(context.Background(), "DX", false, "connection lost")
	if err != nil {
		t.Fatalf("close delivery: %v", err)
	}
	if result.Status != http.StatusOK {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotBody.Success || gotBody.FailureReason != "connection lost" {
		t.Fatalf("unexpected request body: %+v", gotBody)
	}
}

func TestGetDeviceStatusNormalizesActive(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/device/D1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"active"}`))
	}))

	status, err := client.GetDeviceStatus(context.Background(), "D1")
	if err != nil {
		t.Fatalf("get device status: %v", err)
	}
	if status != protocol.DeviceActive {
		t.Fatalf("want Active, got %q", status)
	}
}

func TestGetDeviceStatusNormalizesInDelivery(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"InDelivery"}`))
	}))

	status, err := client.GetDeviceStatus(context.Background(), "D1")
	if err != nil {
		t.Fatalf("get device status: %v", err)
	}
	if status != protocol.DeviceInDelivery {
		t.Fatalf("want InDelivery, got %q", status)
	}
}

func TestGetDeviceStatusNormalizesInactive(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"maintenance"}`))
	}))

	status, err := client.GetDeviceStatus(context.Background(), "D1")
	if err != nil {
		t.Fatalf("get device status: %v", err)
	}
	if status != protocol.DeviceInactive {
		t.Fatalf("want Inactive, got %q", status)
	}
}
