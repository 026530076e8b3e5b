package viewport

import (
	"github.com/paulmach/orb"
)

// Frame bundles a fitted projection with its content bounds and viewport
// size so callers can apply view transitions without repeating arguments.
type Frame struct {
	Proj    Projection
	Content orb.Bound
	Width   float64
	Height  float64
	Limits  Limits
}

// NewFrame fits a projection to geo and computes its content bounds once.
// kind is "mercator" or "equirectangular"; anything else means mercator.
func NewFrame(kind string, geo orb.Bound, width, height float64, limits Limits) Frame {
	if geo.Min[0] > geo.Max[0] || geo.Min[1] > geo.Max[1] {
		geo = World
	}
	var proj Projection
	switch kind {
	case "equirectangular":
		proj = Equirectangular(geo, width, height)
	default:
		proj = Mercator(geo, width, height)
	}
	return Frame{
		Proj:    proj,
		Content: Content(proj, geo),
		Width:   width,
		Height:  height,
		Limits:  limits,
	}
}

// Clamp applies Clamp with the frame's parameters.
func (f Frame) Clamp(v View) View {
	return Clamp(v, f.Proj, f.Content, f.Width, f.Height, f.Limits)
}

// Translate returns the screen translation of a clamped v.
func (f Frame) Translate(v View) orb.Point {
	return Translate(f.Clamp(v), f.Proj, f.Width, f.Height)
}

// Reset returns the fully zoomed-out, centered view.
func (f Frame) Reset() View {
	center := f.Proj.Invert(orb.Point{f.Width / 2, f.Height / 2})
	return f.Clamp(View{Center: center, Zoom: f.Limits.MinZoom})
}

// Pan moves v by dx, dy screen pixels.
func (f Frame) Pan(v View, dx, dy float64) View {
	v = f.Clamp(v)
	t := Translate(v, f.Proj, f.Width, f.Height)
	t[0] += dx
	t[1] += dy
	center := centerFor(t, v.Zoom, f.Proj, f.Width, f.Height)
	return f.Clamp(View{Center: center, Zoom: v.Zoom})
}

// ZoomBy multiplies v's zoom by factor, keeping the center fixed.
func (f Frame) ZoomBy(v View, factor float64) View {
	if factor <= 0 {
		return f.Clamp(v)
	}
	return f.Clamp(View{Center: v.Center, Zoom: v.Zoom * factor})
}
