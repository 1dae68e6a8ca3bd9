package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStatusVocabularyWireValues(t *testing.T) {
	if DeliveryStatusStarted != "Started" || DeliveryStatusUnderProcess != "Under process" ||
		DeliveryStatusSucceeded != "Succeeded" || DeliveryStatusFailed != "Failed" {
		t.Fatal("delivery status vocabulary drifted")
	}
	if DeviceActive != "Active" || DeviceInDelivery != "InDelivery" || DeviceInactive != "Inactive" {
		t.Fatal("device status vocabulary drifted")
	}

	// The Started acknowledgement and the Started status travel on different
	// frames; both must stay addressable side by side.
	raw, err := json.Marshal(DeliveryStarted{Status: 201, Value: "ok", DeliveryID: "DX"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"deliveryId":"DX"`) {
		t.Fatalf("unexpected payload: %s", raw)
	}
}

func TestDecodeNewDelivery(t *testing.T) {
	req, err := DecodeNewDelivery(json.RawMessage(`{"deviceIdentity":" D1 ","deliveryName":"box1","deviceAddress":"A1"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.DeviceIdentity != "D1" || req.DeliveryName != "box1" || req.DeviceAddress != "A1" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeNewDeliveryOptionalAddress(t *testing.T) {
	req, err := DecodeNewDelivery(json.RawMessage(`{"deviceIdentity":"D1","deliveryName":"box1"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.DeviceAddress != "" {
		t.Fatalf("unexpected address: %q", req.DeviceAddress)
	}
}

func TestDecodeNewDeliveryMissingFields(t *testing.T) {
	cases := map[string]string{
		"no identity":    `{"deliveryName":"box1"}`,
		"no name":        `{"deviceIdentity":"D1"}`,
		"blank identity": `{"deviceIdentity":"  ","deliveryName":"box1"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeNewDelivery(json.RawMessage(raw)); !errors.Is(err, ErrMissingFields) {
				t.Fatalf("want ErrMissingFields, got %v", err)
			}
		})
	}
}

func TestDecodeNewDeliveryMalformed(t *testing.T) {
	if _, err := DecodeNewDelivery(json.RawMessage(`not json`)); err == nil {
		t.Fatal("want decode error")
	}
}

func TestDecodeFinishDelivery(t *testing.T) {
	req, err := DecodeFinishDelivery(json.RawMessage(`{"success":false,"failureReason":"wind"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Success || req.FailureReason != "wind" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeFinishDeliveryEmptyPayload(t *testing.T) {
	if _, err := DecodeFinishDelivery(nil); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("want ErrMissingFields, got %v", err)
	}
}
