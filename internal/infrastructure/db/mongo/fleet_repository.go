package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

// FleetRepository updates the last known position of drivers registered in
// the affiliated fleet. Drivers outside the fleet are never inserted.
type FleetRepository struct {
	col *mongo.Collection
}

func NewFleetRepository(db *mongo.Database) *FleetRepository {
	return &FleetRepository{col: db.Collection(collectionFleet)}
}

func (r *FleetRepository) UpdateFleetLocation(ctx context.Context, subjectID string, s domain.LocationSample) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"last_location":    s.Coordinates(),
		"last_location_at": s.CapturedAt,
		"updated_at":       time.Now().UTC(),
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"driver_id": subjectID}, update)
	if err != nil {
		return fmt.Errorf("update fleet location: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotAffiliated
	}
	return nil
}
