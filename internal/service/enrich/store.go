package enrich

import (
	"context"
	"fmt"

	"geoenrich/internal/model"
)

// Cursor iterates over the records selected for enrichment
type Cursor interface {
	Next(ctx context.Context) bool
	Decode() (*model.TrackingRecord, error)
	Err() error
	Close(ctx context.Context) error
}

// Store is the tracking record collection
type Store interface {
	// Find returns the records that have not been enriched yet
	Find(ctx context.Context) (Cursor, error)
	// UpdateData replaces the Data sub-document of the record with the same id
	UpdateData(ctx context.Context, record *model.TrackingRecord) error
}

// Resolver maps a point to the key of the area containing it
type Resolver interface {
	FindContainingKey(point model.GeographicPoint) (string, bool)
}

// Cache remembers resolutions between runs. A found entry with an empty key
// is a remembered miss.
type Cache interface {
	Get(ctx context.Context, point model.GeographicPoint) (key string, found bool, err error)
	Set(ctx context.Context, point model.GeographicPoint, key string) error
}

// MalformedRecordError is returned for records without a usable position
type MalformedRecordError struct {
	ID     interface{}
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %v: %s", e.ID, e.Reason)
}

// ExtractPoint reads the [lon, lat] pair from Data.Position.Point
func ExtractPoint(record *model.TrackingRecord) (model.GeographicPoint, error) {
	if record == nil {
		return model.GeographicPoint{}, &MalformedRecordError{Reason: "empty record"}
	}
	if record.Data == nil {
		return model.GeographicPoint{}, &MalformedRecordError{ID: record.ID, Reason: "missing Data"}
	}
	if record.Data.Position == nil {
		return model.GeographicPoint{}, &MalformedRecordError{ID: record.ID, Reason: "missing Data.Position"}
	}

	point := record.Data.Position.Point
	if len(point) != 2 {
		return model.GeographicPoint{}, &MalformedRecordError{
			ID:     record.ID,
			Reason: fmt.Sprintf("Data.Position.Point has %d values, expected 2", len(point)),
		}
	}

	return model.MakePoint(point[0], point[1]), nil
}
