// Package boundary loads country boundary GeoJSON and normalizes the
// heterogeneous property schemas found in public boundary datasets.
package boundary

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// Feature is one boundary shape with its resolved identity.
type Feature struct {
	Identity
	Geometry geom.T `json:"-"`
}

// Selectable reports whether the feature can be joined to country data.
func (f Feature) Selectable() bool {
	return f.ISO3 != ""
}

// Box is a lon/lat bounding box.
type Box struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// EmptyBox returns a box that any extension replaces.
func EmptyBox() Box {
	return Box{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.MinLon > b.MaxLon || b.MinLat > b.MaxLat
}

// Bound converts b to an orb bound with lon on X and lat on Y.
func (b Box) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// ExtendGeom grows b to cover g.
func (b Box) ExtendGeom(g geom.T) Box {
	if g == nil {
		return b
	}
	gb := g.Bounds()
	if gb == nil || g.Layout().Stride() < 2 {
		return b
	}
	minX, minY, maxX, maxY := gb.Min(0), gb.Min(1), gb.Max(0), gb.Max(1)
	if minX > maxX || minY > maxY {
		return b
	}
	b.MinLon = math.Min(b.MinLon, minX)
	b.MinLat = math.Min(b.MinLat, minY)
	b.MaxLon = math.Max(b.MaxLon, maxX)
	b.MaxLat = math.Max(b.MaxLat, maxY)
	return b
}

// Decode parses a GeoJSON FeatureCollection.
func Decode(r io.Reader) ([]Feature, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "boundary: decode feature collection")
	}

	features := make([]Feature, 0, len(fc.Features))
	unmatched := 0
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		feat := Feature{Identity: Extract(f.Properties), Geometry: f.Geometry}
		if !feat.Selectable() {
			unmatched++
		}
		features = append(features, feat)
	}

	if unmatched > 0 {
		zap.L().Debug("boundary: features without a usable ISO-3 code",
			zap.Int("count", unmatched),
			zap.Int("total", len(features)),
		)
	}
	return features, nil
}

// Load reads and decodes a GeoJSON boundary file.
func Load(path string) ([]Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	features, err := Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: load %s", path)
	}
	zap.L().Info("boundary: loaded features", zap.String("path", path), zap.Int("count", len(features)))
	return features, nil
}

// Extent returns the bounding box of every feature geometry.
func Extent(features []Feature) Box {
	b := EmptyBox()
	for _, f := range features {
		b = b.ExtendGeom(f.Geometry)
	}
	return b
}

// Identities returns the first identity seen for each ISO-3 code.
func Identities(features []Feature) map[string]Identity {
	out := make(map[string]Identity, len(features))
	for _, f := range features {
		if !f.Selectable() {
			continue
		}
		if _, ok := out[f.ISO3]; ok {
			continue
		}
		out[f.ISO3] = f.Identity
	}
	return out
}
