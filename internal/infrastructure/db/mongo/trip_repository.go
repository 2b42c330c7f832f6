package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fretenet/trip-monitor/internal/core/domain"
	"github.com/fretenet/trip-monitor/internal/core/ports"
)

// TripRepository implements ports.TripRepository on the trips collection.
type TripRepository struct {
	col *mongo.Collection
}

func NewTripRepository(db *mongo.Database) *TripRepository {
	return &TripRepository{col: db.Collection(collectionTrips)}
}

// Create inserts a new trip. The unique shipment_id index turns a replay into
// domain.ErrTripExists.
func (r *TripRepository) Create(ctx context.Context, trip *domain.TripProgress) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, trip); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrTripExists
		}
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (r *TripRepository) FindByShipmentID(ctx context.Context, shipmentID string) (*domain.TripProgress, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var t domain.TripProgress
	if err := r.col.FindOne(ctx, bson.M{"shipment_id": shipmentID}).Decode(&t); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrTripNotFound
		}
		return nil, fmt.Errorf("find trip: %w", err)
	}
	return &t, nil
}

// Advance moves the trip forward only while its stored status is still
// in.From, so two concurrent advances cannot both succeed.
func (r *TripRepository) Advance(ctx context.Context, in ports.AdvanceTripInput) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"current_status":                    in.To,
		"stage_timestamps." + string(in.To): in.At,
		"updated_at":                        in.At,
	}
	if in.Location != nil {
		set["last_location"] = in.Location
	}
	if in.Notes != "" {
		set["notes"] = in.Notes
	}

	filter := bson.M{"shipment_id": in.ShipmentID, "current_status": in.From}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("advance trip: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}
