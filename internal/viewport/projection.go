package viewport

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// MaxMercatorLat is the latitude at which Web Mercator is square.
const MaxMercatorLat = 85.0511287798

// World is the geographic extent used when no boundary data is loaded.
var World = orb.Bound{
	Min: orb.Point{-180, -MaxMercatorLat},
	Max: orb.Point{180, MaxMercatorLat},
}

// Projection maps lon/lat to unzoomed screen pixels and back. Screen Y grows
// downward.
type Projection interface {
	Project(p orb.Point) orb.Point
	Invert(p orb.Point) orb.Point
}

// affine fits a planar coordinate system into a width x height viewport,
// preserving aspect ratio and centering the fitted extent.
type affine struct {
	scale  float64
	offX   float64
	offY   float64
	toXY   orb.Projection
	fromXY orb.Projection
}

func fit(geo orb.Bound, width, height float64, toXY, fromXY orb.Projection) *affine {
	lo := toXY(geo.Min)
	hi := toXY(geo.Max)
	w := math.Abs(hi[0] - lo[0])
	h := math.Abs(hi[1] - lo[1])

	scale := 1.0
	switch {
	case w > 0 && h > 0:
		scale = math.Min(width/w, height/h)
	case w > 0:
		scale = width / w
	case h > 0:
		scale = height / h
	}

	cx := (lo[0] + hi[0]) / 2
	cy := (lo[1] + hi[1]) / 2
	return &affine{
		scale:  scale,
		offX:   width/2 - scale*cx,
		offY:   height/2 + scale*cy,
		toXY:   toXY,
		fromXY: fromXY,
	}
}

func (a *affine) Project(p orb.Point) orb.Point {
	xy := a.toXY(p)
	return orb.Point{a.scale*xy[0] + a.offX, a.offY - a.scale*xy[1]}
}

func (a *affine) Invert(p orb.Point) orb.Point {
	xy := orb.Point{(p[0] - a.offX) / a.scale, (a.offY - p[1]) / a.scale}
	return a.fromXY(xy)
}

func clampLat(p orb.Point) orb.Point {
	return orb.Point{p[0], math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, p[1]))}
}

// Mercator returns a Web Mercator projection fitted to geo.
func Mercator(geo orb.Bound, width, height float64) Projection {
	toXY := func(p orb.Point) orb.Point {
		return project.WGS84.ToMercator(clampLat(p))
	}
	return fit(clampBound(geo), width, height, toXY, project.Mercator.ToWGS84)
}

// Equirectangular returns a plate carrée projection fitted to geo.
func Equirectangular(geo orb.Bound, width, height float64) Projection {
	identity := func(p orb.Point) orb.Point { return p }
	return fit(geo, width, height, identity, identity)
}

func clampBound(b orb.Bound) orb.Bound {
	return orb.Bound{Min: clampLat(b.Min), Max: clampLat(b.Max)}
}

// Content projects the corners of geo into unzoomed screen space. Both
// projections here are axis-separable, so the corners bound every shape.
func Content(proj Projection, geo orb.Bound) orb.Bound {
	a := proj.Project(geo.Min)
	b := proj.Project(geo.Max)
	return orb.Bound{
		Min: orb.Point{math.Min(a[0], b[0]), math.Min(a[1], b[1])},
		Max: orb.Point{math.Max(a[0], b[0]), math.Max(a[1], b[1])},
	}
}
