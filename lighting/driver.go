package lighting

import (
	"time"

	"github.com/aukilabs/lumen/quadtree"
)

// Marker is the part of a spatial index that lights draw on.
type Marker interface {
	ResetIllumination()
	MarkArea(center quadtree.Vector2, radius float32)
}

// Driver recomputes the illumination of a marker once per frame.
type Driver struct {
	// The index the lights are drawn on.
	Target Marker

	// The lights applied on each frame.
	Lights *Registry
}

// Frame resets the target illumination then applies every registered light
// once, in registration order. It must not run concurrently with other calls
// on the target.
func (d *Driver) Frame() {
	start := time.Now()

	d.Target.ResetIllumination()

	var applied int
	if d.Lights != nil {
		for _, l := range d.Lights.lights {
			l.Apply(d.Target)
			applied++
		}
	}

	instrumentFrame(applied, time.Since(start))
}
