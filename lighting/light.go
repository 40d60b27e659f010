package lighting

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lumen/quadtree"
)

const (
	MinRadius float32 = 1
	MaxRadius float32 = 30

	// ErrTypeInvalidRadius is the error type returned when a light radius is
	// outside of [MinRadius, MaxRadius].
	ErrTypeInvalidRadius = "lighting_invalid_radius"
)

// Light is a source that illuminates a circle of the tree plane around its
// position.
type Light struct {
	ID       uint32           `json:"id"`
	Position quadtree.Vector3 `json:"position"`
	Radius   float32          `json:"radius"`
}

func (l *Light) Validate() error {
	if !(l.Radius >= MinRadius && l.Radius <= MaxRadius) {
		return errors.New("light radius out of range").
			WithType(ErrTypeInvalidRadius).
			WithTag("radius", l.Radius).
			WithTag("min", MinRadius).
			WithTag("max", MaxRadius)
	}
	return nil
}

// Apply marks the area lit by the light.
func (l *Light) Apply(m Marker) {
	m.MarkArea(quadtree.Project(l.Position), l.Radius)
}
