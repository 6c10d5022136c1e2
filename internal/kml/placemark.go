package kml

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"geoenrich/internal/brazil"
	"geoenrich/internal/model"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IBGE attribute names after accent folding. The meso-region column is
// truncated to ten characters by the shapefile export, and some files carry
// it mis-decoded, so both spellings are accepted.
const (
	attrCityCode   = "GEOCODIG_M"
	attrStateCode  = "SIGLA"
	attrMesoCode   = "MESORREGIAO"
	attrMesoShort  = "MESORREGIA"
	attrMesoName   = "NOME_MESO"
	attrMicroCode  = "MICRORREGI"
	attrMicroLong  = "MICRORREGIAO"
	attrMicroName  = "NOME_MICRO"
	minRingTokens  = 3
	coordSeparator = ","
)

type placemarkXML struct {
	Name          *string           `xml:"name"`
	SchemaData    []simpleDataXML   `xml:"ExtendedData>SchemaData>SimpleData"`
	SimpleData    []simpleDataXML   `xml:"ExtendedData>SimpleData"`
	Polygon       *polygonXML       `xml:"Polygon"`
	MultiGeometry *multiGeometryXML `xml:"MultiGeometry"`
}

type simpleDataXML struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type polygonXML struct {
	Coordinates string `xml:"outerBoundaryIs>LinearRing>coordinates"`
}

type multiGeometryXML struct {
	Polygons []polygonXML       `xml:"Polygon"`
	Nested   []multiGeometryXML `xml:"MultiGeometry"`
}

// polygons flattens nested multi-geometries
func (m *multiGeometryXML) polygons() []polygonXML {
	result := append([]polygonXML(nil), m.Polygons...)
	for i := range m.Nested {
		result = append(result, m.Nested[i].polygons()...)
	}
	return result
}

// feature holds the administrative attributes of one placemark
type feature struct {
	city      string
	cityCode  string
	stateCode string
	stateName string
	mesoCode  string
	mesoName  string
	microCode string
	microName string
}

func (f feature) key() model.AdministrativeKey {
	return model.AdministrativeKey{
		CityName:        f.city,
		StateName:       f.stateName,
		StateCode:       f.stateCode,
		MesoRegionCode:  f.mesoCode,
		MesoRegionName:  f.mesoName,
		MicroRegionCode: f.microCode,
		MicroRegionName: f.microName,
	}
}

// missing returns the required fields that are blank, city name included
func (f feature) missing() []string {
	var fields []string
	check := func(name, value string) {
		if value == "" {
			fields = append(fields, name)
		}
	}
	check("name", f.city)
	check(attrCityCode, f.cityCode)
	check(attrStateCode, f.stateCode)
	check(attrMesoCode, f.mesoCode)
	check(attrMesoName, f.mesoName)
	check(attrMicroCode, f.microCode)
	check(attrMicroName, f.microName)
	return fields
}

// feature reads the name and ExtendedData attributes. The returned feature
// carries the city name even on error so failures can be attributed.
func (p *placemarkXML) feature() (feature, error) {
	var f feature
	if p.Name != nil {
		f.city = strings.TrimSpace(*p.Name)
	}

	data := append(append([]simpleDataXML(nil), p.SchemaData...), p.SimpleData...)
	for _, sd := range data {
		value := strings.TrimSpace(sd.Value)
		switch foldName(sd.Name) {
		case attrCityCode:
			f.cityCode = value
		case attrStateCode:
			name, err := brazil.GetState(value)
			if err != nil {
				return f, err
			}
			f.stateCode = value
			f.stateName = name
		case attrMesoCode, attrMesoShort:
			f.mesoCode = value
		case attrMesoName:
			f.mesoName = value
		case attrMicroCode, attrMicroLong:
			f.microCode = value
		case attrMicroName:
			f.microName = value
		}
	}

	return f, nil
}

// foldName upper-cases an attribute name and strips its accents
func foldName(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.ToUpper(strings.TrimSpace(s)),
	)
	return s
}

// parsePolygon turns a coordinates blob into a polygon. Blocks with too few
// points are not an error: ok is false and the geometry is ignored.
func parsePolygon(p *polygonXML) (polygon model.Polygon, ok bool, err error) {
	tokens := strings.Fields(p.Coordinates)
	if len(tokens) <= minRingTokens {
		return model.Polygon{}, false, nil
	}

	points := make([]model.GeographicPoint, 0, len(tokens))
	for _, token := range tokens {
		point, err := parseCoordinate(token)
		if err != nil {
			return model.Polygon{}, false, err
		}
		points = append(points, point)
	}

	polygon, err = model.BuildPolygon(points)
	if err != nil {
		return model.Polygon{}, false, err
	}
	return polygon, true, nil
}

// parseCoordinate reads "lon,lat[,elevation]"
func parseCoordinate(token string) (model.GeographicPoint, error) {
	parts := strings.Split(token, coordSeparator)
	if len(parts) < 2 {
		return model.GeographicPoint{}, fmt.Errorf("invalid coordinate %q", token)
	}

	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return model.GeographicPoint{}, fmt.Errorf("invalid longitude in %q: %w", token, err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return model.GeographicPoint{}, fmt.Errorf("invalid latitude in %q: %w", token, err)
	}

	return model.MakePoint(lon, lat), nil
}
