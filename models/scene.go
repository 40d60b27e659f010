package models

import (
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/lumen/lighting"
	"github.com/aukilabs/lumen/quadtree"
	"github.com/google/uuid"
)

// MinFrameDuration is the shortest frame a scene accepts.
const MinFrameDuration = time.Millisecond * 5

// SceneConfig describes how a scene is built.
type SceneConfig struct {
	// The spatial index configuration.
	Tree quadtree.Config `json:"tree"`

	// The duration of a frame.
	FrameDuration time.Duration `json:"frame_duration"`

	// Skips illumination updates when frames are dispatched.
	DisableLighting bool `json:"disable_lighting"`
}

func (c SceneConfig) Validate() error {
	if err := c.Tree.Validate(); err != nil {
		return err
	}

	if c.FrameDuration < MinFrameDuration {
		return errors.New("frame duration is too short").
			WithType(quadtree.ErrTypeInvalidConfig).
			WithTag("frame_duration", c.FrameDuration).
			WithTag("min", MinFrameDuration)
	}
	return nil
}

// Scene represents a world where objects are indexed by their position and
// lit by lights.
//
// Scene serializes every access to its spatial index, which is not safe for
// concurrent use on its own.
type Scene struct {
	ID        uint32
	SceneUUID string
	Config    SceneConfig

	mutex     sync.RWMutex
	tree      *quadtree.Tree[*Object]
	objectIDs SequentialIDGenerator
	objects   map[uint32]*Object
	lightIDs  SequentialIDGenerator
	lights    lighting.Registry
	driver    lighting.Driver

	startFrameOnce  sync.Once
	closeFrameChan  chan struct{}
	frameTicker     *time.Ticker
	frameHandlerIDs SequentialIDGenerator
	frameHandlers   map[uint32]func()
	frameMutex      sync.RWMutex

	closeOnce sync.Once
	done      chan struct{}
}

func NewScene(id uint32, c SceneConfig) (*Scene, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	tree, err := quadtree.New[*Object](c.Tree)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		ID:             id,
		SceneUUID:      uuid.New().String(),
		Config:         c,
		tree:           tree,
		objects:        make(map[uint32]*Object),
		closeFrameChan: make(chan struct{}, 1),
		frameTicker:    time.NewTicker(c.FrameDuration),
		frameHandlers:  make(map[uint32]func()),
		done:           make(chan struct{}),
	}
	s.driver = lighting.Driver{
		Target: tree,
		Lights: &s.lights,
	}
	return s, nil
}

func (s *Scene) Close() {
	s.closeOnce.Do(func() {
		s.frameTicker.Stop()
		s.closeFrameChan <- struct{}{}
		close(s.done)

		s.mutex.Lock()
		defer s.mutex.Unlock()

		for _, l := range s.lights.Lights() {
			s.lights.Unregister(l)
		}
	})
}

// Done returns a channel closed when the scene is closed.
func (s *Scene) Done() <-chan struct{} {
	return s.done
}

// AddObject places a new object at the given position.
func (s *Scene) AddObject(name string, pos quadtree.Vector3) (Object, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	obj := &Object{
		ID:       s.objectIDs.New(),
		Name:     name,
		Position: pos,
	}

	if !s.tree.Insert(obj, obj.planePosition()) {
		s.objectIDs.Reuse(obj.ID)

		logs.WithTag("scene_id", s.ID).
			WithTag("position", pos).
			Debug("object is outside of the scene bounds")

		return Object{}, errors.New("object is outside of the scene bounds").
			WithType(ErrTypeOutOfBounds).
			WithTag("position", pos)
	}

	s.objects[obj.ID] = obj
	return *obj, nil
}

// MoveObject moves the given object. The object stays where it was when the
// new position is outside of the scene bounds.
func (s *Scene) MoveObject(id uint32, pos quadtree.Vector3) (Object, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	obj, err := s.object(id)
	if err != nil {
		return Object{}, err
	}

	if !s.tree.Remove(obj, obj.planePosition()) {
		return Object{}, errors.New("object is not indexed").
			WithTag("object_id", id).
			WithTag("position", obj.Position)
	}

	previous := obj.Position
	obj.Position = pos
	if !s.tree.Insert(obj, obj.planePosition()) {
		obj.Position = previous
		s.tree.Insert(obj, obj.planePosition())

		return Object{}, errors.New("object is outside of the scene bounds").
			WithType(ErrTypeOutOfBounds).
			WithTag("object_id", id).
			WithTag("position", pos)
	}

	return *obj, nil
}

func (s *Scene) RemoveObject(id uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	obj, err := s.object(id)
	if err != nil {
		return err
	}

	if !s.tree.Remove(obj, obj.planePosition()) {
		return errors.New("object is not indexed").
			WithTag("object_id", id).
			WithTag("position", obj.Position)
	}

	delete(s.objects, id)
	s.objectIDs.Reuse(id)
	return nil
}

func (s *Scene) Object(id uint32) (Object, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	obj, err := s.object(id)
	if err != nil {
		return Object{}, err
	}
	return *obj, nil
}

// Objects returns the scene objects sorted by id.
func (s *Scene) Objects() []Object {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	objects := make([]Object, 0, len(s.objects))
	for _, obj := range s.objects {
		objects = append(objects, *obj)
	}
	sortObjects(objects)
	return objects
}

func (s *Scene) ObjectCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.objects)
}

// Query returns the objects within the given area sorted by id. Heights are
// ignored.
func (s *Scene) Query(area quadtree.Bounds) []Object {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	found := s.tree.QueryArea(area)
	objects := make([]Object, len(found))
	for i, obj := range found {
		objects[i] = *obj
	}
	sortObjects(objects)
	return objects
}

// IsLit reports whether the given object stands in an area marked during the
// last frame.
func (s *Scene) IsLit(id uint32) (bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	obj, err := s.object(id)
	if err != nil {
		return false, err
	}
	return s.tree.IsMarked(obj.planePosition()), nil
}

func (s *Scene) object(id uint32) (*Object, error) {
	obj, ok := s.objects[id]
	if !ok {
		return nil, errors.New("object not found").
			WithType(ErrTypeNotFound).
			WithTag("object_id", id)
	}
	return obj, nil
}

// AddLight registers a new light. It is applied from the next frame.
func (s *Scene) AddLight(pos quadtree.Vector3, radius float32) (lighting.Light, error) {
	l := &lighting.Light{
		Position: pos,
		Radius:   radius,
	}
	if err := l.Validate(); err != nil {
		return lighting.Light{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	l.ID = s.lightIDs.New()
	s.lights.Register(l)
	return *l, nil
}

// UpdateLight changes the position and radius of the given light.
func (s *Scene) UpdateLight(id uint32, pos quadtree.Vector3, radius float32) (lighting.Light, error) {
	update := lighting.Light{
		ID:       id,
		Position: pos,
		Radius:   radius,
	}
	if err := update.Validate(); err != nil {
		return lighting.Light{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	l, err := s.light(id)
	if err != nil {
		return lighting.Light{}, err
	}

	*l = update
	return update, nil
}

func (s *Scene) RemoveLight(id uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	l, err := s.light(id)
	if err != nil {
		return err
	}

	s.lights.Unregister(l)
	s.lightIDs.Reuse(id)
	return nil
}

// Lights returns the scene lights in registration order.
func (s *Scene) Lights() []lighting.Light {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.lightsLocked()
}

func (s *Scene) lightsLocked() []lighting.Light {
	registered := s.lights.Lights()
	lights := make([]lighting.Light, len(registered))
	for i, l := range registered {
		lights[i] = *l
	}
	return lights
}

func (s *Scene) light(id uint32) (*lighting.Light, error) {
	l, ok := s.lights.ByID(id)
	if !ok {
		return nil, errors.New("light not found").
			WithType(ErrTypeNotFound).
			WithTag("light_id", id)
	}
	return l, nil
}

// Frame recomputes the scene illumination from the registered lights.
func (s *Scene) Frame() {
	if s.Config.DisableLighting {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.driver.Frame()
}

func (s *Scene) DebugInfo() quadtree.DebugInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.tree.GetDebugInfo()
}

// Snapshot returns the scene lights and tree state as seen by a single frame.
func (s *Scene) Snapshot() ([]lighting.Light, quadtree.DebugInfo) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.lightsLocked(), s.tree.GetDebugInfo()
}

// HandleFrame registers a function called after each dispatched frame. The
// returned function unregisters it.
func (s *Scene) HandleFrame(h func()) (cancel func()) {
	s.frameMutex.Lock()
	defer s.frameMutex.Unlock()

	id := s.frameHandlerIDs.New()
	s.frameHandlers[id] = h

	return func() {
		s.frameMutex.Lock()
		defer s.frameMutex.Unlock()

		if _, ok := s.frameHandlers[id]; !ok {
			return
		}
		delete(s.frameHandlers, id)
		s.frameHandlerIDs.Reuse(id)
	}
}

// StartDispatchFrames computes a frame on every tick of the scene frame
// duration until the scene is closed. It blocks.
func (s *Scene) StartDispatchFrames() {
	s.startFrameOnce.Do(func() {
		for {
			select {
			case <-s.closeFrameChan:
				return

			case <-s.frameTicker.C:
				s.dispatchFrame()
			}
		}
	})
}

func (s *Scene) dispatchFrame() {
	s.Frame()

	s.frameMutex.RLock()
	defer s.frameMutex.RUnlock()

	for _, h := range s.frameHandlers {
		h()
	}
}

func sortObjects(objects []Object) {
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].ID < objects[j].ID
	})
}

type SceneStore struct {
	initOnce sync.Once
	mutex    sync.RWMutex
	scenes   map[uint32]*Scene
	ids      SequentialIDGenerator
}

func (s *SceneStore) init() {
	s.scenes = map[uint32]*Scene{}
}

func (s *SceneStore) NewID() uint32 {
	return s.ids.New()
}

// ReuseID releases an id returned by NewID that was never added.
func (s *SceneStore) ReuseID(id uint32) {
	s.ids.Reuse(id)
}

func (s *SceneStore) Add(scene *Scene) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.scenes[scene.ID] = scene

	instrumentIncreaseSceneGauge()
	instrumentCountScene()
}

func (s *SceneStore) Remove(scene *Scene) {
	s.initOnce.Do(s.init)
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.scenes[scene.ID]; !ok {
		return
	}

	delete(s.scenes, scene.ID)
	scene.Close()

	s.ids.Reuse(scene.ID)

	instrumentDecreaseSceneGauge()
}

func (s *SceneStore) Get(id uint32) (*Scene, bool) {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	scene, ok := s.scenes[id]
	return scene, ok
}

// List returns the scenes sorted by id.
func (s *SceneStore) List() []*Scene {
	s.initOnce.Do(s.init)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	scenes := make([]*Scene, 0, len(s.scenes))
	for _, scene := range s.scenes {
		scenes = append(scenes, scene)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].ID < scenes[j].ID
	})
	return scenes
}

// Close closes all the scenes.
func (s *SceneStore) Close() {
	for _, scene := range s.List() {
		s.Remove(scene)
	}
}
