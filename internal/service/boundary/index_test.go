package boundary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"geoenrich/internal/kml"
	"geoenrich/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(t *testing.T, minLon, minLat, size float64) model.Polygon {
	t.Helper()
	polygon, err := model.BuildPolygon([]model.GeographicPoint{
		model.MakePoint(minLon, minLat),
		model.MakePoint(minLon+size, minLat),
		model.MakePoint(minLon+size, minLat+size),
		model.MakePoint(minLon, minLat+size),
		model.MakePoint(minLon, minLat),
	})
	require.NoError(t, err)
	return polygon
}

func allModes() map[string]Options {
	return map[string]Options{
		"rtree":           {},
		"linear":          {LinearScan: true},
		"geodesic":        {Geodesic: true},
		"geodesic linear": {Geodesic: true, LinearScan: true},
	}
}

func TestFindContainingKeyUnitSquare(t *testing.T) {
	for name, opts := range allModes() {
		t.Run(name, func(t *testing.T) {
			builder := NewBuilder()
			builder.Put("unit", square(t, 0, 0, 1))
			index := builder.Build(opts)

			tests := []struct {
				point model.GeographicPoint
				found bool
			}{
				{model.MakePoint(0.5, 0.5), true},
				{model.MakePoint(0, 0.5), true},
				{model.MakePoint(1, 1), true},
				{model.MakePoint(100, 100), false},
				{model.MakePoint(-0.5, 0.5), false},
			}

			for _, tt := range tests {
				key, ok := index.FindContainingKey(tt.point)
				assert.Equal(t, tt.found, ok, tt.point.String())
				if tt.found {
					assert.Equal(t, "unit", key)
				} else {
					assert.Empty(t, key)
				}
			}
		})
	}
}

func TestFindContainingKeyFirstInsertedWins(t *testing.T) {
	for name, opts := range allModes() {
		t.Run(name, func(t *testing.T) {
			builder := NewBuilder()
			builder.Put("first", square(t, 0, 0, 2))
			builder.Put("second", square(t, 1, 1, 2))
			index := builder.Build(opts)

			key, ok := index.FindContainingKey(model.MakePoint(1.5, 1.5))
			require.True(t, ok)
			assert.Equal(t, "first", key)

			key, ok = index.FindContainingKey(model.MakePoint(2.5, 2.5))
			require.True(t, ok)
			assert.Equal(t, "second", key)
		})
	}
}

func TestBuilderPutReplacesAndKeepsPosition(t *testing.T) {
	builder := NewBuilder()
	builder.Put("a", square(t, 0, 0, 1))
	builder.Put("b", square(t, 10, 10, 1))
	builder.Put("a", square(t, 20, 20, 1))
	builder.Put("empty")

	index := builder.Build(Options{})
	assert.Equal(t, 2, index.Len())
	assert.Equal(t, []string{"a", "b"}, index.Keys())

	_, ok := index.FindContainingKey(model.MakePoint(0.5, 0.5))
	assert.False(t, ok)

	key, ok := index.FindContainingKey(model.MakePoint(20.5, 20.5))
	require.True(t, ok)
	assert.Equal(t, "a", key)

	polygons, ok := index.Polygons("a")
	require.True(t, ok)
	require.Len(t, polygons, 1)
	assert.True(t, polygons[0].Contains(model.MakePoint(20.5, 20.5)))

	_, ok = index.Polygons("missing")
	assert.False(t, ok)
}

func TestEntryWithSeveralPolygons(t *testing.T) {
	builder := NewBuilder()
	builder.Put("islands", square(t, 0, 0, 1), square(t, 5, 5, 1))
	index := builder.Build(Options{})

	for _, p := range []model.GeographicPoint{model.MakePoint(0.5, 0.5), model.MakePoint(5.5, 5.5)} {
		key, ok := index.FindContainingKey(p)
		require.True(t, ok)
		assert.Equal(t, "islands", key)
	}

	_, ok := index.FindContainingKey(model.MakePoint(3, 3))
	assert.False(t, ok)
}

func TestRTreeMatchesLinearScan(t *testing.T) {
	// enough entries to make rtreego bulk-load
	linear := NewBuilder()
	tree := NewBuilder()
	for i := 0; i < 20; i++ {
		for j := 0; j < 20; j++ {
			key := fmt.Sprintf("cell-%d-%d", i, j)
			polygon := square(t, float64(i)*0.5, float64(j)*0.5, 0.75)
			linear.Put(key, polygon)
			tree.Put(key, polygon)
		}
	}

	linearIndex := linear.Build(Options{LinearScan: true})
	treeIndex := tree.Build(Options{})

	for x := -0.3; x < 11; x += 0.37 {
		for y := -0.3; y < 11; y += 0.41 {
			p := model.MakePoint(x, y)
			wantKey, wantOK := linearIndex.FindContainingKey(p)
			gotKey, gotOK := treeIndex.FindContainingKey(p)
			assert.Equal(t, wantOK, gotOK, p.String())
			assert.Equal(t, wantKey, gotKey, p.String())
		}
	}
}

func TestGeodesicFollowsGreatCircle(t *testing.T) {
	// A long east-west edge at high latitude: the great circle between the
	// top corners bulges poleward past the parallel.
	ring := []model.GeographicPoint{
		model.MakePoint(-40, 50),
		model.MakePoint(40, 50),
		model.MakePoint(40, 60),
		model.MakePoint(-40, 60),
		model.MakePoint(-40, 50),
	}
	polygon, err := model.BuildPolygon(ring)
	require.NoError(t, err)

	planarBuilder := NewBuilder()
	planarBuilder.Put("band", polygon)
	geodesicBuilder := NewBuilder()
	geodesicBuilder.Put("band", polygon)

	planar := planarBuilder.Build(Options{})
	geodesic := geodesicBuilder.Build(Options{Geodesic: true})

	// just north of the southern edge at the meridian: inside the planar
	// band, but south of the great circle through (-40,50) and (40,50)
	p := model.MakePoint(0, 50.5)
	_, ok := planar.FindContainingKey(p)
	assert.True(t, ok)
	_, ok = geodesic.FindContainingKey(p)
	assert.False(t, ok)

	_, ok = geodesic.FindContainingKey(model.MakePoint(0, 58))
	assert.True(t, ok)

	// north of the planar band but south of the northern great circle
	p = model.MakePoint(0, 62)
	_, ok = planar.FindContainingKey(p)
	assert.False(t, ok)
	_, ok = geodesic.FindContainingKey(p)
	assert.True(t, ok)
}

func TestConcurrentReads(t *testing.T) {
	for name, opts := range allModes() {
		t.Run(name, func(t *testing.T) {
			builder := NewBuilder()
			for i := 0; i < 60; i++ {
				builder.Put(fmt.Sprintf("cell-%d", i), square(t, float64(i), 0, 1))
			}
			index := builder.Build(opts)

			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 60; i++ {
						key, ok := index.FindContainingKey(model.MakePoint(float64(i)+0.5, 0.5))
						if !ok || key != fmt.Sprintf("cell-%d", i) {
							errs <- fmt.Errorf("point %d resolved to %q (%v)", i, key, ok)
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Error(err)
			}
		})
	}
}

func TestLoadIndex(t *testing.T) {
	document := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><Folder>
<Placemark><name>Recife</name><ExtendedData><SchemaData schemaUrl="#m">
<SimpleData name="GEOCODIG_M">2611606</SimpleData>
<SimpleData name="SIGLA">PE</SimpleData>
<SimpleData name="MESORREGIÃO">2605</SimpleData>
<SimpleData name="NOME_MESO">Metropolitana de Recife</SimpleData>
<SimpleData name="MICRORREGI">26017</SimpleData>
<SimpleData name="NOME_MICRO">Recife</SimpleData>
</SchemaData></ExtendedData>
<Polygon><outerBoundaryIs><LinearRing><coordinates>
-35.0,-8.1,0 -34.8,-8.1,0 -34.8,-7.9,0 -35.0,-7.9,0 -35.0,-8.1,0
</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark>
<Placemark><name>Olinda</name><ExtendedData><SchemaData schemaUrl="#m">
<SimpleData name="GEOCODIG_M">2609600</SimpleData>
</SchemaData></ExtendedData>
<Polygon><outerBoundaryIs><LinearRing><coordinates>
-34.9,-8.0 -34.8,-8.0 -34.8,-7.9 -34.9,-8.0
</coordinates></LinearRing></outerBoundaryIs></Polygon></Placemark>
</Folder></Document></kml>`

	path := filepath.Join(t.TempDir(), "cities.kml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	index, result, err := LoadIndex(path, kml.Options{}, Options{})
	require.Error(t, err)
	require.NotNil(t, index)

	var importErr *kml.AggregatedImportError
	require.True(t, errors.As(err, &importErr))
	assert.Len(t, importErr.Errors, 1)
	assert.Equal(t, 2, result.Placemarks)
	assert.Equal(t, 1, result.Imported)

	key, ok := index.FindContainingKey(model.MakePoint(-34.9, -8.0))
	require.True(t, ok)
	assert.Equal(t, "Recife,PERNAMBUCO,PE,2605,Metropolitana de Recife,26017,Recife", key)

	parsed, err := model.ParseAdministrativeKey(key)
	require.NoError(t, err)
	assert.Equal(t, "Recife", parsed.CityName)
}

func TestLoadIndexMissingFile(t *testing.T) {
	index, _, err := LoadIndex(filepath.Join(t.TempDir(), "missing.kml"), kml.Options{}, Options{})
	require.Error(t, err)
	assert.Nil(t, index)

	var importErr *kml.AggregatedImportError
	assert.False(t, errors.As(err, &importErr))
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.kml")
	second := filepath.Join(dir, "second.kml")
	require.NoError(t, os.WriteFile(first, []byte("<kml>a</kml>"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("<kml>b</kml>"), 0o600))

	base, err := Fingerprint(first, kml.Options{}, Options{})
	require.NoError(t, err)
	assert.Len(t, base, 16)

	again, err := Fingerprint(first, kml.Options{}, Options{LinearScan: true})
	require.NoError(t, err)
	assert.Equal(t, base, again)

	variants := map[string]func() (string, error){
		"contents": func() (string, error) { return Fingerprint(second, kml.Options{}, Options{}) },
		"geodesic": func() (string, error) { return Fingerprint(first, kml.Options{}, Options{Geodesic: true}) },
		"strict": func() (string, error) {
			return Fingerprint(first, kml.Options{StrictMultiGeometry: true}, Options{})
		},
	}
	for name, fingerprint := range variants {
		t.Run(name, func(t *testing.T) {
			other, err := fingerprint()
			require.NoError(t, err)
			assert.NotEqual(t, base, other)
		})
	}

	_, err = Fingerprint(filepath.Join(dir, "missing.kml"), kml.Options{}, Options{})
	assert.Error(t, err)
}
