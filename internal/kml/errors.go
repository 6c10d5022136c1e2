package kml

import (
	"fmt"
	"strings"
)

// MissingAttributesError lists the ExtendedData attributes a placemark needs but does not carry
type MissingAttributesError struct {
	Fields []string
}

func (e *MissingAttributesError) Error() string {
	return fmt.Sprintf("missing attributes: %s", strings.Join(e.Fields, ", "))
}

// PlacemarkError ties a per-feature failure to the city it belongs to, when known
type PlacemarkError struct {
	City string
	Err  error
}

func (e *PlacemarkError) Error() string {
	if e.City == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s - %v", e.City, e.Err)
}

func (e *PlacemarkError) Unwrap() error {
	return e.Err
}

// AggregatedImportError is returned once the whole file was read and at least
// one placemark failed. Entries imported before and after the failures stay in
// the sink.
type AggregatedImportError struct {
	Errors []error
}

func (e *AggregatedImportError) Error() string {
	return fmt.Sprintf("%d placemarks failed to import:\n%s", len(e.Errors), strings.Join(e.Messages(), "\n"))
}

func (e *AggregatedImportError) Unwrap() []error {
	return e.Errors
}

// Messages returns one line per failed placemark
func (e *AggregatedImportError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Error()
	}
	return messages
}
