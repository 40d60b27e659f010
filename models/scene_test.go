package models

import (
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/lumen/lighting"
	"github.com/aukilabs/lumen/quadtree"
	"github.com/stretchr/testify/require"
)

func testSceneConfig() SceneConfig {
	return SceneConfig{
		Tree: quadtree.Config{
			Size:     quadtree.Vector2{X: 100, Y: 100},
			Capacity: 4,
			MaxDepth: 3,
			PreSplit: true,
		},
		FrameDuration: MinFrameDuration,
	}
}

func newTestScene(t *testing.T) *Scene {
	s, err := NewScene(1, testSceneConfig())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewScene(t *testing.T) {
	t.Run("creates a scene", func(t *testing.T) {
		s := newTestScene(t)
		require.Equal(t, uint32(1), s.ID)
		require.NotEmpty(t, s.SceneUUID)
		require.Equal(t, 85, s.DebugInfo().NodeCount)
		require.Equal(t, 64, s.DebugInfo().LeafCount)
	})

	t.Run("rejects an invalid tree config", func(t *testing.T) {
		c := testSceneConfig()
		c.Tree.Capacity = 0

		s, err := NewScene(1, c)
		require.Nil(t, s)
		require.True(t, errors.IsType(err, quadtree.ErrTypeInvalidConfig))
	})

	t.Run("rejects a non positive frame duration", func(t *testing.T) {
		c := testSceneConfig()
		c.FrameDuration = 0

		s, err := NewScene(1, c)
		require.Nil(t, s)
		require.True(t, errors.IsType(err, quadtree.ErrTypeInvalidConfig))
	})

	t.Run("rejects a frame duration below the minimum", func(t *testing.T) {
		c := testSceneConfig()
		c.FrameDuration = time.Nanosecond

		s, err := NewScene(1, c)
		require.Nil(t, s)
		require.True(t, errors.IsType(err, quadtree.ErrTypeInvalidConfig))
	})

	t.Run("rejects a max depth above the limit", func(t *testing.T) {
		c := testSceneConfig()
		c.Tree.PreSplit = false
		c.Tree.MaxDepth = 1 << 30

		s, err := NewScene(1, c)
		require.Nil(t, s)
		require.True(t, errors.IsType(err, quadtree.ErrTypeInvalidConfig))
	})
}

func TestSceneObjects(t *testing.T) {
	t.Run("adds and queries objects", func(t *testing.T) {
		s := newTestScene(t)

		a, err := s.AddObject("a", quadtree.Vector3{X: -10, Y: 3, Z: 14})
		require.NoError(t, err)
		require.Equal(t, uint32(1), a.ID)

		b, err := s.AddObject("b", quadtree.Vector3{X: 40, Z: 40})
		require.NoError(t, err)
		require.Equal(t, uint32(2), b.ID)

		found := s.Query(quadtree.NewBounds(quadtree.Vector3{X: -10, Z: 14}, quadtree.Vector3{X: 10, Z: 10}))
		require.Equal(t, []Object{a}, found)

		found = s.Query(quadtree.NewBounds(quadtree.Vector3{}, quadtree.Vector3{X: 100, Z: 100}))
		require.Equal(t, []Object{a, b}, found)
		require.Equal(t, []Object{a, b}, s.Objects())
		require.Equal(t, 2, s.ObjectCount())
	})

	t.Run("rejects objects outside of the bounds", func(t *testing.T) {
		s := newTestScene(t)

		_, err := s.AddObject("far", quadtree.Vector3{X: 500})
		require.True(t, errors.IsType(err, ErrTypeOutOfBounds))
		require.Equal(t, 0, s.ObjectCount())

		obj, err := s.AddObject("near", quadtree.Vector3{X: 1})
		require.NoError(t, err)
		require.Equal(t, uint32(1), obj.ID)
	})

	t.Run("moves objects", func(t *testing.T) {
		s := newTestScene(t)
		obj, err := s.AddObject("a", quadtree.Vector3{X: -10, Z: 14})
		require.NoError(t, err)

		moved, err := s.MoveObject(obj.ID, quadtree.Vector3{X: 30, Z: -30})
		require.NoError(t, err)
		require.Equal(t, quadtree.Vector3{X: 30, Z: -30}, moved.Position)

		require.Empty(t, s.Query(quadtree.NewBounds(quadtree.Vector3{X: -10, Z: 14}, quadtree.Vector3{X: 2, Z: 2})))
		require.Equal(t, []Object{moved}, s.Query(quadtree.NewBounds(quadtree.Vector3{X: 30, Z: -30}, quadtree.Vector3{X: 2, Z: 2})))
	})

	t.Run("keeps objects moved outside of the bounds", func(t *testing.T) {
		s := newTestScene(t)
		obj, err := s.AddObject("a", quadtree.Vector3{X: -10, Z: 14})
		require.NoError(t, err)

		_, err = s.MoveObject(obj.ID, quadtree.Vector3{X: 300})
		require.True(t, errors.IsType(err, ErrTypeOutOfBounds))

		current, err := s.Object(obj.ID)
		require.NoError(t, err)
		require.Equal(t, obj, current)
		require.Equal(t, []Object{obj}, s.Query(quadtree.NewBounds(quadtree.Vector3{X: -10, Z: 14}, quadtree.Vector3{X: 2, Z: 2})))
	})

	t.Run("removes objects", func(t *testing.T) {
		s := newTestScene(t)
		obj, err := s.AddObject("a", quadtree.Vector3{X: -10, Z: 14})
		require.NoError(t, err)

		require.NoError(t, s.RemoveObject(obj.ID))
		require.Empty(t, s.Objects())

		err = s.RemoveObject(obj.ID)
		require.True(t, errors.IsType(err, ErrTypeNotFound))

		_, err = s.Object(obj.ID)
		require.True(t, errors.IsType(err, ErrTypeNotFound))

		_, err = s.MoveObject(obj.ID, quadtree.Vector3{})
		require.True(t, errors.IsType(err, ErrTypeNotFound))
	})
}

func TestSceneLights(t *testing.T) {
	t.Run("rejects invalid radius", func(t *testing.T) {
		s := newTestScene(t)

		_, err := s.AddLight(quadtree.Vector3{}, 0.5)
		require.True(t, errors.IsType(err, lighting.ErrTypeInvalidRadius))
		require.Empty(t, s.Lights())
	})

	t.Run("lights objects on frame", func(t *testing.T) {
		s := newTestScene(t)

		lit, err := s.AddObject("lit", quadtree.Vector3{X: -40, Z: -40})
		require.NoError(t, err)
		dark, err := s.AddObject("dark", quadtree.Vector3{X: 40, Z: 40})
		require.NoError(t, err)

		light, err := s.AddLight(quadtree.Vector3{X: -40, Y: 10, Z: -40}, 2)
		require.NoError(t, err)
		require.Equal(t, []lighting.Light{light}, s.Lights())

		isLit, err := s.IsLit(lit.ID)
		require.NoError(t, err)
		require.False(t, isLit)

		s.Frame()

		isLit, err = s.IsLit(lit.ID)
		require.NoError(t, err)
		require.True(t, isLit)

		isLit, err = s.IsLit(dark.ID)
		require.NoError(t, err)
		require.False(t, isLit)
	})

	t.Run("updates lights", func(t *testing.T) {
		s := newTestScene(t)

		obj, err := s.AddObject("a", quadtree.Vector3{X: 40, Z: 40})
		require.NoError(t, err)

		light, err := s.AddLight(quadtree.Vector3{X: -40, Z: -40}, 2)
		require.NoError(t, err)

		updated, err := s.UpdateLight(light.ID, quadtree.Vector3{X: 40, Z: 40}, 3)
		require.NoError(t, err)
		require.Equal(t, lighting.Light{ID: light.ID, Position: quadtree.Vector3{X: 40, Z: 40}, Radius: 3}, updated)

		_, err = s.UpdateLight(light.ID, quadtree.Vector3{}, 100)
		require.True(t, errors.IsType(err, lighting.ErrTypeInvalidRadius))

		s.Frame()
		isLit, err := s.IsLit(obj.ID)
		require.NoError(t, err)
		require.True(t, isLit)
	})

	t.Run("removes lights", func(t *testing.T) {
		s := newTestScene(t)

		obj, err := s.AddObject("a", quadtree.Vector3{})
		require.NoError(t, err)
		light, err := s.AddLight(quadtree.Vector3{}, 5)
		require.NoError(t, err)

		s.Frame()
		require.NoError(t, s.RemoveLight(light.ID))
		s.Frame()

		isLit, err := s.IsLit(obj.ID)
		require.NoError(t, err)
		require.False(t, isLit)

		err = s.RemoveLight(light.ID)
		require.True(t, errors.IsType(err, ErrTypeNotFound))

		_, err = s.UpdateLight(light.ID, quadtree.Vector3{}, 5)
		require.True(t, errors.IsType(err, ErrTypeNotFound))
	})

	t.Run("snapshots lights with the tree state", func(t *testing.T) {
		s := newTestScene(t)

		light, err := s.AddLight(quadtree.Vector3{X: -40, Z: -40}, 2)
		require.NoError(t, err)
		s.Frame()

		lights, info := s.Snapshot()
		require.Equal(t, []lighting.Light{light}, lights)
		require.Equal(t, 85, info.NodeCount)
		require.Equal(t, 1, info.MarkedCount)
	})

	t.Run("skips lighting when disabled", func(t *testing.T) {
		c := testSceneConfig()
		c.DisableLighting = true
		s, err := NewScene(1, c)
		require.NoError(t, err)
		defer s.Close()

		obj, err := s.AddObject("a", quadtree.Vector3{})
		require.NoError(t, err)
		_, err = s.AddLight(quadtree.Vector3{}, 5)
		require.NoError(t, err)

		s.Frame()
		isLit, err := s.IsLit(obj.ID)
		require.NoError(t, err)
		require.False(t, isLit)
	})
}

func TestSceneDispatchFrames(t *testing.T) {
	s := newTestScene(t)

	obj, err := s.AddObject("a", quadtree.Vector3{})
	require.NoError(t, err)
	_, err = s.AddLight(quadtree.Vector3{}, 5)
	require.NoError(t, err)

	frames := make(chan struct{}, 1)
	cancel := s.HandleFrame(func() {
		select {
		case frames <- struct{}{}:
		default:
		}
	})
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.StartDispatchFrames()
	}()

	select {
	case <-frames:
	case <-time.After(time.Second):
		t.Fatal("no frame dispatched")
	}

	isLit, err := s.IsLit(obj.ID)
	require.NoError(t, err)
	require.True(t, isLit)

	s.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("frame dispatch did not stop")
	}
}

func TestSceneStore(t *testing.T) {
	var store SceneStore

	newScene := func() *Scene {
		s, err := NewScene(store.NewID(), testSceneConfig())
		require.NoError(t, err)
		store.Add(s)
		return s
	}

	a := newScene()
	b := newScene()
	require.Equal(t, []*Scene{a, b}, store.List())

	s, ok := store.Get(b.ID)
	require.True(t, ok)
	require.Equal(t, b, s)

	store.Remove(a)
	_, ok = store.Get(a.ID)
	require.False(t, ok)
	require.Equal(t, []*Scene{b}, store.List())

	c := newScene()
	require.Equal(t, a.ID, c.ID)

	store.Close()
	require.Empty(t, store.List())
}
