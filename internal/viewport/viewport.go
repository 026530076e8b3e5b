// Package viewport clamps a geographic map view so the projected content
// stays within the visible area.
//
// A View always stores geography (center and zoom). The screen translation
// is derived from it on demand and never kept.
package viewport

import (
	"math"

	"github.com/paulmach/orb"
)

// View is a geographic map position.
type View struct {
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

// Limits bounds the zoom factor.
type Limits struct {
	MinZoom float64 `json:"min_zoom"`
	MaxZoom float64 `json:"max_zoom"`
}

// DefaultLimits allows zooming from 1x to 8x.
var DefaultLimits = Limits{MinZoom: 1, MaxZoom: 8}

// ClampZoom restricts z to the limits. Non-finite zooms fall back to MinZoom.
func (l Limits) ClampZoom(z float64) float64 {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return l.MinZoom
	}
	return math.Max(l.MinZoom, math.Min(l.MaxZoom, z))
}

// Translate returns the screen translation for v: the offset t such that a
// point p lands at zoom*Project(p) + t.
func Translate(v View, proj Projection, width, height float64) orb.Point {
	c := proj.Project(v.Center)
	return orb.Point{width/2 - v.Zoom*c[0], height/2 - v.Zoom*c[1]}
}

// centerFor inverts a screen translation back into a geographic center.
func centerFor(t orb.Point, zoom float64, proj Projection, width, height float64) orb.Point {
	return proj.Invert(orb.Point{(width/2 - t[0]) / zoom, (height/2 - t[1]) / zoom})
}

// Clamp returns v with its zoom clamped to limits and its center corrected so
// that content, the unzoomed screen bounds of the map, covers the viewport on
// every axis where it is larger than the viewport, and is centered on every
// axis where it is not.
func Clamp(v View, proj Projection, content orb.Bound, width, height float64, limits Limits) View {
	k := limits.ClampZoom(v.Zoom)
	t := Translate(View{Center: v.Center, Zoom: k}, proj, width, height)

	t[0] = clampAxis(t[0], k, content.Min[0], content.Max[0], width)
	t[1] = clampAxis(t[1], k, content.Min[1], content.Max[1], height)

	return View{Center: centerFor(t, k, proj, width, height), Zoom: k}
}

func clampAxis(t, k, lo, hi, size float64) float64 {
	if math.IsNaN(t) {
		t = 0
	}
	if k*(hi-lo) <= size {
		return (size - k*(lo+hi)) / 2
	}
	minT := size - k*hi
	maxT := -k * lo
	if minT > maxT {
		mid := (minT + maxT) / 2
		minT, maxT = mid, mid
	}
	return math.Max(minT, math.Min(maxT, t))
}
