package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
)

// toTripResponse copies the scalar fields with copier and builds the ordered
// stage list by hand.
func toTripResponse(t *domain.TripProgress) (tripResponse, error) {
	var resp tripResponse
	if t == nil {
		return resp, errors.New("map trip: no trip")
	}
	if err := copier.Copy(&resp, t); err != nil {
		return resp, fmt.Errorf("map trip %s: %w", t.ShipmentID, err)
	}
	resp.CreatedAt = t.CreatedAt.UTC()
	resp.UpdatedAt = t.UpdatedAt.UTC()
	resp.StatusLabel = t.CurrentStatus.Label()

	stages := domain.Stages()
	resp.Stages = make([]stageResponse, 0, len(stages))
	for _, s := range stages {
		item := stageResponse{Status: s, Label: s.Label()}
		if at, ok := t.StageReachedAt(s); ok {
			at = at.UTC()
			item.ReachedAt = &at
		}
		resp.Stages = append(resp.Stages, item)
	}
	return resp, nil
}

func toSessionResponse(s ports.SessionInfo) sessionResponse {
	resp := sessionResponse{
		ID:                  s.ID,
		ShipmentID:          s.ShipmentID,
		SubjectID:           s.SubjectID,
		State:               s.State,
		StartedAt:           s.StartedAt.UTC(),
		ConsecutiveFailures: s.ConsecutiveFailures,
		SignalLost:          s.SignalLost,
	}
	if !s.LastReportAt.IsZero() {
		at := s.LastReportAt.UTC()
		resp.LastReportAt = &at
	}
	return resp
}

func toSample(req locationReportRequest) domain.LocationSample {
	s := domain.LocationSample{
		Lat:      req.Lat,
		Lng:      req.Lng,
		Accuracy: req.Accuracy,
		Heading:  req.Heading,
		Speed:    req.Speed,
	}
	if req.CapturedAt != nil {
		s.CapturedAt = req.CapturedAt.UTC()
	}
	return s
}

func toSessionOptions(req startMonitoringRequest) *ports.SessionOptions {
	return &ports.SessionOptions{
		PollInterval:        time.Duration(req.PollIntervalSeconds) * time.Second,
		FailureThreshold:    req.FailureThreshold,
		SignalLossThreshold: time.Duration(req.SignalLossThresholdSeconds) * time.Second,
		SignalLossGrace:     time.Duration(req.SignalLossGraceSeconds) * time.Second,
		DisableWatchdog:     req.DisableWatchdog,
	}
}
