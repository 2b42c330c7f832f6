package domain

import (
	"errors"
	"time"
)

// TripStatus is one stage of a shipment's trip. Stages are strictly ordered.
type TripStatus string

const (
	StatusNew                          TripStatus = "new"
	StatusAccepted                     TripStatus = "accepted"
	StatusLoading                      TripStatus = "loading"
	StatusLoaded                       TripStatus = "loaded"
	StatusInTransit                    TripStatus = "in_transit"
	StatusDeliveredPendingConfirmation TripStatus = "delivered_pending_confirmation"
	StatusDelivered                    TripStatus = "delivered"
	StatusCompleted                    TripStatus = "completed"
)

// stageOrder is the only valid progression of a trip.
var stageOrder = []TripStatus{
	StatusNew,
	StatusAccepted,
	StatusLoading,
	StatusLoaded,
	StatusInTransit,
	StatusDeliveredPendingConfirmation,
	StatusDelivered,
	StatusCompleted,
}

var stageLabels = map[TripStatus]string{
	StatusNew:                          "Novo",
	StatusAccepted:                     "Aceito",
	StatusLoading:                      "Carregando",
	StatusLoaded:                       "Carregado",
	StatusInTransit:                    "Em trânsito",
	StatusDeliveredPendingConfirmation: "Entregue (aguardando confirmação)",
	StatusDelivered:                    "Entregue",
	StatusCompleted:                    "Concluído",
}

// activeStatuses are the stages during which the driver is expected to report
// position and the shipment is monitored.
var activeStatuses = map[TripStatus]struct{}{
	StatusAccepted:  {},
	StatusLoading:   {},
	StatusLoaded:    {},
	StatusInTransit: {},
}

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTripNotFound      = errors.New("trip not found")
	ErrTripExists        = errors.New("trip already exists")
	ErrStatusConflict    = errors.New("trip status changed concurrently")
	ErrShipmentNotFound  = errors.New("shipment not found")
	ErrForbidden         = errors.New("access forbidden")
)

// Rank returns the position of s in the stage order, or -1 when s is not a
// recognised stage.
func (s TripStatus) Rank() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a recognised stage.
func (s TripStatus) Valid() bool { return s.Rank() >= 0 }

// Label returns the user-facing name of the stage. Unknown stages fall back
// to their raw value.
func (s TripStatus) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// IsActive reports whether s belongs to the monitored set.
func (s TripStatus) IsActive() bool {
	_, ok := activeStatuses[s]
	return ok
}

// Next returns the stage that directly follows s. ok is false for the final
// stage and for unrecognised stages.
func (s TripStatus) Next() (TripStatus, bool) {
	r := s.Rank()
	if r < 0 || r+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[r+1], true
}

// Stages returns a copy of the ordered stage list.
func Stages() []TripStatus {
	out := make([]TripStatus, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ActiveStatuses returns the monitored stages in order.
func ActiveStatuses() []TripStatus {
	out := make([]TripStatus, 0, len(activeStatuses))
	for _, s := range stageOrder {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

// ValidateTransition checks a requested stage change. It returns
// idempotent=true when next equals cur, which callers must treat as a no-op.
// A current stage that is not recognised permits any transition to a
// recognised stage. The requested stage is checked first, so a request for an
// unrecognised stage is rejected even when the current stage is unrecognised
// too; an unknown value is never written.
func ValidateTransition(cur, next TripStatus) (idempotent bool, err error) {
	nextRank := next.Rank()
	if nextRank < 0 {
		return false, &ValidationError{Reason: ReasonUnrecognized, Current: cur, Requested: next}
	}

	curRank := cur.Rank()
	if curRank < 0 {
		return false, nil
	}

	switch {
	case nextRank == curRank:
		return true, nil
	case nextRank < curRank:
		return false, &ValidationError{Reason: ReasonRegression, Current: cur, Requested: next}
	case nextRank > curRank+1:
		expected, _ := cur.Next()
		return false, &ValidationError{Reason: ReasonSkip, Current: cur, Requested: next, Expected: expected}
	}
	return false, nil
}

// TripProgress is the persisted record of one shipment-assignment pair.
type TripProgress struct {
	ShipmentID      string                   `json:"shipment_id" bson:"shipment_id"`
	DriverID        string                   `json:"driver_id" bson:"driver_id"`
	ShipperID       string                   `json:"shipper_id,omitempty" bson:"shipper_id,omitempty"`
	CurrentStatus   TripStatus               `json:"current_status" bson:"current_status"`
	StageTimestamps map[TripStatus]time.Time `json:"stage_timestamps" bson:"stage_timestamps"`
	LastLocation    *Coordinates             `json:"last_location,omitempty" bson:"last_location,omitempty"`
	Notes           string                   `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt       time.Time                `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at" bson:"updated_at"`
}

// StageReachedAt returns when the trip entered s.
func (t *TripProgress) StageReachedAt(s TripStatus) (time.Time, bool) {
	ts, ok := t.StageTimestamps[s]
	return ts, ok
}

// Evidence is optional operator-supplied data attached to a stage advance.
type Evidence struct {
	Location *Coordinates
	Notes    string
}

// TripEvent is published to downstream subscribers after a trip moves forward.
type TripEvent struct {
	ShipmentID string
	DriverID   string
	ShipperID  string
	From       TripStatus
	To         TripStatus
	Location   *Coordinates
	OccurredAt time.Time
}
