package quadtree

import (
	"math"
)

// Vector2 is a position or extent on the tree plane.
type Vector2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

func (v Vector2) Mul(s float32) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

func (v Vector2) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

// Vector3 is a world position. The y component is the height and is ignored
// by every tree operation.
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Project maps a world position onto the tree plane: x stays x and z becomes y.
func Project(v Vector3) Vector2 {
	return Vector2{v.X, v.Z}
}

// Bounds is an axis-aligned box described by its center and half-extents.
type Bounds struct {
	Center  Vector3 `json:"center"`
	Extents Vector3 `json:"extents"` // Half-Extents!
}

// NewBounds returns the bounds centered on center with the given full size.
func NewBounds(center Vector3, size Vector3) Bounds {
	return Bounds{
		Center:  center,
		Extents: Vector3{size.X * 0.5, size.Y * 0.5, size.Z * 0.5},
	}
}

// Rect returns the bounds projected onto the tree plane.
func (b Bounds) Rect() Rect {
	return Rect{
		Center:   Project(b.Center),
		HalfSize: Vector2{b.Extents.X, b.Extents.Z},
	}
}

// Rect is an axis-aligned rectangle on the tree plane.
type Rect struct {
	Center   Vector2 `json:"center"`
	HalfSize Vector2 `json:"half_size"`
}

func (r Rect) Min() Vector2 {
	return r.Center.Sub(r.HalfSize)
}

func (r Rect) Max() Vector2 {
	return r.Center.Add(r.HalfSize)
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return !(r.HalfSize.X > 0 && r.HalfSize.Y > 0)
}

// Contains reports whether p lies in the rectangle, edges included.
func (r Rect) Contains(p Vector2) bool {
	return abs(p.X-r.Center.X) <= r.HalfSize.X &&
		abs(p.Y-r.Center.Y) <= r.HalfSize.Y
}

// Intersects reports whether both rectangles overlap, touching edges included.
func (r Rect) Intersects(o Rect) bool {
	minA, maxA := r.Min(), r.Max()
	minB, maxB := o.Min(), o.Max()

	if minA.X > maxB.X || maxA.X < minB.X {
		return false
	}
	if minA.Y > maxB.Y || maxA.Y < minB.Y {
		return false
	}
	return true
}

// OverlapsCircle reports whether the circle of the given center and radius
// overlaps the rectangle. The circle boundary is closed.
func (r Rect) OverlapsCircle(center Vector2, radius float32) bool {
	dx := abs(center.X - r.Center.X)
	dy := abs(center.Y - r.Center.Y)

	if dx > r.HalfSize.X+radius {
		return false
	}
	if dy > r.HalfSize.Y+radius {
		return false
	}

	if dx <= r.HalfSize.X {
		return true
	}
	if dy <= r.HalfSize.Y {
		return true
	}

	cx := dx - r.HalfSize.X
	cy := dy - r.HalfSize.Y
	return cx*cx+cy*cy <= radius*radius
}

// quadrant returns the i-th quarter of the rectangle in NE, NW, SW, SE order.
func (r Rect) quadrant(i int) Rect {
	half := r.HalfSize.Mul(0.5)

	var offset Vector2
	switch i {
	case NorthEast:
		offset = Vector2{half.X, half.Y}
	case NorthWest:
		offset = Vector2{-half.X, half.Y}
	case SouthWest:
		offset = Vector2{-half.X, -half.Y}
	default:
		offset = Vector2{half.X, -half.Y}
	}

	return Rect{
		Center:   r.Center.Add(offset),
		HalfSize: half,
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func isFinite(v float32) bool {
	return !math.IsNaN((float64)(v)) && !math.IsInf((float64)(v), 0)
}
