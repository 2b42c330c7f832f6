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

// ShipmentStatusRepository reads and mirrors the authoritative shipment
// status kept in the shipments collection.
type ShipmentStatusRepository struct {
	col *mongo.Collection
}

func NewShipmentStatusRepository(db *mongo.Database) *ShipmentStatusRepository {
	return &ShipmentStatusRepository{col: db.Collection(collectionShipments)}
}

type shipmentStatusDoc struct {
	ShipmentID string            `bson:"shipment_id"`
	Status     domain.TripStatus `bson:"status"`
}

func (r *ShipmentStatusRepository) GetShipmentStatus(ctx context.Context, shipmentID string) (domain.TripStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc shipmentStatusDoc
	opts := options.FindOne().SetProjection(bson.M{"shipment_id": 1, "status": 1})
	if err := r.col.FindOne(ctx, bson.M{"shipment_id": shipmentID}, opts).Decode(&doc); err != nil {
		if isNotFound(err) {
			return "", domain.ErrShipmentNotFound
		}
		return "", fmt.Errorf("find shipment status: %w", err)
	}
	return doc.Status, nil
}

// SetShipmentStatus upserts the status and appends it to the shipment's
// status history.
func (r *ShipmentStatusRepository) SetShipmentStatus(ctx context.Context, shipmentID string, status domain.TripStatus, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"status": status, "updated_at": at.UTC()},
		"$push": bson.M{"status_history": bson.M{
			"status":    status,
			"timestamp": at.UTC(),
		}},
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"shipment_id": shipmentID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set shipment status: %w", err)
	}
	return nil
}
