package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fretenet/trip-monitor/internal/core/domain"
)

// LocationRepository keeps one current-location document per driver and an
// append-only trail per shipment.
type LocationRepository struct {
	current *mongo.Collection
	history *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) *LocationRepository {
	return &LocationRepository{
		current: db.Collection(collectionDriverLocations),
		history: db.Collection(collectionLocationHistory),
	}
}

type historyDoc struct {
	DriverID              string `bson:"driver_id"`
	ShipmentID            string `bson:"shipment_id"`
	domain.LocationSample `bson:",inline"`
	RecordedAt            time.Time `bson:"recorded_at"`
}

func (r *LocationRepository) UpsertCurrent(ctx context.Context, subjectID string, s domain.LocationSample) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"driver_id":   subjectID,
		"lat":         s.Lat,
		"lng":         s.Lng,
		"captured_at": s.CapturedAt,
		"updated_at":  time.Now().UTC(),
	}
	if s.Accuracy != nil {
		set["accuracy"] = *s.Accuracy
	}
	if s.Heading != nil {
		set["heading"] = *s.Heading
	}
	if s.Speed != nil {
		set["speed"] = *s.Speed
	}

	_, err := r.current.UpdateOne(ctx,
		bson.M{"driver_id": subjectID},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert driver location: %w", err)
	}
	return nil
}

func (r *LocationRepository) AppendHistory(ctx context.Context, subjectID, shipmentID string, s domain.LocationSample) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := historyDoc{
		DriverID:       subjectID,
		ShipmentID:     shipmentID,
		LocationSample: s,
		RecordedAt:     time.Now().UTC(),
	}
	if _, err := r.history.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert location history: %w", err)
	}
	return nil
}
