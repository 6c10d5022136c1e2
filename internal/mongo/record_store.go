package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"geoenrich/internal/model"
	"geoenrich/internal/service/enrich"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultBatchSize = 500

// PendingFilter selects the records without a city, narrowed by extra when set
func PendingFilter(extra bson.D) bson.D {
	pending := bson.D{{Key: model.CityField, Value: bson.D{{Key: "$exists", Value: false}}}}
	if len(extra) == 0 {
		return pending
	}
	return bson.D{{Key: "$and", Value: bson.A{pending, extra}}}
}

// ParseFilter parses a relaxed extended JSON query document. An empty string
// yields no filter.
func ParseFilter(extJSON string) (bson.D, error) {
	if strings.TrimSpace(extJSON) == "" {
		return nil, nil
	}

	var filter bson.D
	if err := bson.UnmarshalExtJSON([]byte(extJSON), false, &filter); err != nil {
		return nil, fmt.Errorf("invalid record filter %q: %w", extJSON, err)
	}
	return filter, nil
}

// RecordStore reads and updates tracking records in a collection
type RecordStore struct {
	collection *mongo.Collection
	filter     bson.D
	batchSize  int32
}

// NewRecordStore creates a store over collection. extra narrows the pending
// record selection and may be nil.
func NewRecordStore(collection *mongo.Collection, extra bson.D) *RecordStore {
	return &RecordStore{
		collection: collection,
		filter:     PendingFilter(extra),
		batchSize:  defaultBatchSize,
	}
}

// Filter returns the query used to select pending records
func (s *RecordStore) Filter() bson.D {
	return s.filter
}

// Find returns a cursor over the records still missing a city
func (s *RecordStore) Find(ctx context.Context) (enrich.Cursor, error) {
	cursor, err := s.collection.Find(ctx, s.filter, options.Find().SetBatchSize(s.batchSize))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.collection.Name(), err)
	}
	return &recordCursor{cursor: cursor}, nil
}

// UpdateData replaces the Data sub-document of the record
func (s *RecordStore) UpdateData(ctx context.Context, record *model.TrackingRecord) error {
	if record.Data == nil {
		return errors.New("record has no Data to write")
	}

	update := bson.D{{Key: "$set", Value: bson.D{{Key: "Data", Value: record.Data}}}}
	result, err := s.collection.UpdateByID(ctx, record.ID, update)
	if err != nil {
		return fmt.Errorf("failed to update record %v: %w", record.ID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("record %v no longer exists", record.ID)
	}
	return nil
}

// recordCursor adapts a driver cursor to enrich.Cursor
type recordCursor struct {
	cursor *mongo.Cursor
}

func (c *recordCursor) Next(ctx context.Context) bool {
	return c.cursor.Next(ctx)
}

func (c *recordCursor) Decode() (*model.TrackingRecord, error) {
	var record model.TrackingRecord
	if err := c.cursor.Decode(&record); err != nil {
		id, lookupErr := c.cursor.Current.LookupErr("_id")
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return &record, nil
}

func (c *recordCursor) Err() error {
	return c.cursor.Err()
}

func (c *recordCursor) Close(ctx context.Context) error {
	return c.cursor.Close(ctx)
}
