package kml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"geoenrich/internal/model"

	"go.uber.org/multierr"
	"golang.org/x/text/encoding/charmap"
)

// Sink receives the polygons of every indexed placemark. Put with an
// existing key replaces the previous polygons.
type Sink interface {
	Put(key string, polygons ...model.Polygon)
}

// Options controls how placemarks are validated
type Options struct {
	// StrictMultiGeometry requires every administrative attribute on
	// MultiGeometry placemarks too and keys them by the full composite key,
	// keeping all of their polygons. When false, MultiGeometry polygons are
	// keyed by city name only and each one replaces the previous.
	StrictMultiGeometry bool
}

// Result counts what happened to the placemarks of a file
type Result struct {
	Placemarks int
	Imported   int
	Skipped    int
	Failed     int
}

// LoadFile opens a KML file and loads it into the sink
func LoadFile(path string, sink Sink, opts Options) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open KML file: %w", err)
	}
	defer file.Close()

	return Load(file, sink, opts)
}

// Load streams the placemarks of a KML document into the sink. Failures of a
// single placemark do not stop the load; they are returned together as an
// *AggregatedImportError once the document has been read. A document that is
// not well-formed aborts the load.
func Load(r io.Reader, sink Sink, opts Options) (Result, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader

	var (
		result Result
		errs   error
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read KML: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "Placemark" {
			continue
		}

		var placemark placemarkXML
		if err := decoder.DecodeElement(&placemark, &start); err != nil {
			return result, fmt.Errorf("failed to decode placemark %d: %w", result.Placemarks+1, err)
		}
		result.Placemarks++

		imported, err := importPlacemark(&placemark, sink, opts)
		switch {
		case err != nil:
			result.Failed++
			errs = multierr.Append(errs, err)
		case imported:
			result.Imported++
		default:
			result.Skipped++
		}

		if result.Placemarks%1000 == 0 {
			log.Printf("KML progress: %d placemarks read, %d imported", result.Placemarks, result.Imported)
		}
	}

	if errs != nil {
		return result, &AggregatedImportError{Errors: multierr.Errors(errs)}
	}
	return result, nil
}

// importPlacemark indexes the geometry of one placemark. Polygons put before
// an error stay in the sink.
func importPlacemark(p *placemarkXML, sink Sink, opts Options) (bool, error) {
	f, err := p.feature()
	if err != nil {
		return false, &PlacemarkError{City: f.city, Err: err}
	}

	imported := false

	if p.Polygon != nil {
		polygon, ok, err := parsePolygon(p.Polygon)
		if err != nil {
			return imported, &PlacemarkError{City: f.city, Err: err}
		}
		if ok {
			if missing := f.missing(); len(missing) > 0 {
				return imported, &PlacemarkError{City: f.city, Err: &MissingAttributesError{Fields: missing}}
			}
			sink.Put(f.key().String(), polygon)
			imported = true
		}
	}

	if p.MultiGeometry != nil {
		var polygons []model.Polygon
		for _, element := range p.MultiGeometry.polygons() {
			polygon, ok, err := parsePolygon(&element)
			if err != nil {
				return imported, &PlacemarkError{City: f.city, Err: err}
			}
			if !ok {
				continue
			}
			if !opts.StrictMultiGeometry && f.city != "" {
				sink.Put(f.city, polygon)
				imported = true
			}
			polygons = append(polygons, polygon)
		}

		if opts.StrictMultiGeometry && len(polygons) > 0 {
			if missing := f.missing(); len(missing) > 0 {
				return imported, &PlacemarkError{City: f.city, Err: &MissingAttributesError{Fields: missing}}
			}
			sink.Put(f.key().String(), polygons...)
			imported = true
		}
	}

	return imported, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported KML charset %q", label)
}
