package models

import (
	"github.com/aukilabs/lumen/quadtree"
)

// Object is an entity placed in a scene.
type Object struct {
	ID       uint32           `json:"id"`
	Name     string           `json:"name,omitempty"`
	Position quadtree.Vector3 `json:"position"`
}

func (o *Object) planePosition() quadtree.Vector2 {
	return quadtree.Project(o.Position)
}
