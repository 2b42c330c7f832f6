package domain

import "time"

// IncidentType identifies the class of condition that produced an incident.
type IncidentType string

const (
	IncidentGPSAcquisitionFailure IncidentType = "gps_acquisition_failure"
	IncidentSignalLost            IncidentType = "signal_lost"
	IncidentOther                 IncidentType = "other"
)

// Severity ranks how urgently operators must act on an incident.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Incident is the escalation artifact handed to the incident sink.
// It is never mutated once created.
type Incident struct {
	ID          string         `json:"id" bson:"_id"`
	Type        IncidentType   `json:"type" bson:"type"`
	Severity    Severity       `json:"severity" bson:"severity"`
	ShipmentID  string         `json:"shipment_id" bson:"shipment_id"`
	SubjectID   string         `json:"subject_id" bson:"subject_id"`
	Description string         `json:"description" bson:"description"`
	Evidence    map[string]any `json:"evidence,omitempty" bson:"evidence,omitempty"`
	DedupeKey   string         `json:"dedupe_key" bson:"dedupe_key"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
}

// IncidentDedupeKey builds the key that groups repeated incidents of one type
// for one shipment.
func IncidentDedupeKey(t IncidentType, shipmentID string) string {
	return string(t) + ":" + shipmentID
}
