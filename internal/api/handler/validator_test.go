package handler

import (
	"strings"
	"testing"
)

func TestValidator_UsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&startMonitoringRequest{ShipmentID: "SHP-1", PollIntervalSeconds: 1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"subject_id is required", "poll_interval_seconds must be at least 5"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestValidator_Valid(t *testing.T) {
	if err := NewValidator().Validate(&startTripRequest{ShipmentID: "SHP-1", DriverID: "drv-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
