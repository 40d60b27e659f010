package quadtree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProject(t *testing.T) {
	require.Equal(t, Vector2{-10, 14}, Project(Vector3{-10, 42, 14}))
}

func TestBoundsRect(t *testing.T) {
	b := NewBounds(Vector3{-10, 0, 14}, Vector3{10, 0, 10})
	r := b.Rect()

	require.Equal(t, Vector2{-10, 14}, r.Center)
	require.Equal(t, Vector2{5, 5}, r.HalfSize)
	require.Equal(t, Vector2{-15, 9}, r.Min())
	require.Equal(t, Vector2{-5, 19}, r.Max())
	require.False(t, r.Empty())

	require.True(t, NewBounds(Vector3{}, Vector3{0, 10, 10}).Rect().Empty())
	require.True(t, NewBounds(Vector3{}, Vector3{10, 10, 0}).Rect().Empty())
}

func TestRectContains(t *testing.T) {
	r := Rect{Center: Vector2{0, 0}, HalfSize: Vector2{5, 5}}

	require.True(t, r.Contains(Vector2{0, 0}))
	require.True(t, r.Contains(Vector2{5, 5}))
	require.True(t, r.Contains(Vector2{-5, -5}))
	require.False(t, r.Contains(Vector2{5.01, 0}))
	require.False(t, r.Contains(Vector2{0, -5.01}))
}

func TestRectIntersects(t *testing.T) {
	r := Rect{Center: Vector2{0, 0}, HalfSize: Vector2{5, 5}}

	require.True(t, r.Intersects(Rect{Center: Vector2{3, 3}, HalfSize: Vector2{1, 1}}))
	require.True(t, r.Intersects(Rect{Center: Vector2{10, 0}, HalfSize: Vector2{5, 5}}))
	require.False(t, r.Intersects(Rect{Center: Vector2{10.5, 0}, HalfSize: Vector2{5, 5}}))
	require.False(t, r.Intersects(Rect{Center: Vector2{0, -20}, HalfSize: Vector2{5, 5}}))
}

func TestRectOverlapsCircle(t *testing.T) {
	r := Rect{Center: Vector2{0, 0}, HalfSize: Vector2{2, 2}}

	t.Run("center inside", func(t *testing.T) {
		require.True(t, r.OverlapsCircle(Vector2{1, 1}, 0.1))
	})

	t.Run("facing an edge", func(t *testing.T) {
		require.True(t, r.OverlapsCircle(Vector2{5, 0}, 3))
		require.False(t, r.OverlapsCircle(Vector2{5, 0}, 2.9))
	})

	t.Run("exactly radius away from a corner", func(t *testing.T) {
		require.True(t, r.OverlapsCircle(Vector2{5, 6}, 5))
	})

	t.Run("near a corner but outside", func(t *testing.T) {
		// Inside the extended box on both axes but too far from the corner.
		require.False(t, r.OverlapsCircle(Vector2{4.5, 4.5}, 3))
	})
}

func TestRectQuadrant(t *testing.T) {
	r := Rect{Center: Vector2{0, 0}, HalfSize: Vector2{50, 50}}

	require.Equal(t, Rect{Center: Vector2{25, 25}, HalfSize: Vector2{25, 25}}, r.quadrant(NorthEast))
	require.Equal(t, Rect{Center: Vector2{-25, 25}, HalfSize: Vector2{25, 25}}, r.quadrant(NorthWest))
	require.Equal(t, Rect{Center: Vector2{-25, -25}, HalfSize: Vector2{25, 25}}, r.quadrant(SouthWest))
	require.Equal(t, Rect{Center: Vector2{25, -25}, HalfSize: Vector2{25, 25}}, r.quadrant(SouthEast))
}

func TestVectorIsFinite(t *testing.T) {
	require.True(t, Vector2{1, 2}.IsFinite())
	require.False(t, Vector2{float32(math.NaN()), 0}.IsFinite())
	require.False(t, Vector2{0, float32(math.Inf(-1))}.IsFinite())
}
