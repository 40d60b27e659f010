package quadtree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

// MaxDepthLimit is the deepest a tree can subdivide. Deeper nodes would be
// smaller than float32 coordinates can tell apart.
const MaxDepthLimit = 24

// MaxPreSplitDepth is the deepest tree that can be eagerly pre-split. A
// pre-split tree holds 4^MaxDepth leaves.
const MaxPreSplitDepth = 10

// Config describes the rectangle covered by a tree and how it subdivides.
type Config struct {
	// The center of the root rectangle.
	Center Vector2 `json:"center"`

	// The full size of the root rectangle. Both components must be positive.
	Size Vector2 `json:"size"`

	// The number of objects a leaf holds before it splits.
	Capacity int `json:"capacity"`

	// The depth at which nodes stop splitting and accept any number of
	// objects. The root is at depth 0.
	MaxDepth int `json:"max_depth"`

	// Subdivides every node down to MaxDepth at construction.
	PreSplit bool `json:"pre_split"`
}

func (c Config) Validate() error {
	if !c.Center.IsFinite() {
		return errors.New("center is not finite").
			WithType(ErrTypeInvalidConfig).
			WithTag("center", c.Center)
	}

	if !(c.Size.X > 0 && c.Size.Y > 0) || !c.Size.IsFinite() {
		return errors.New("size must be positive").
			WithType(ErrTypeInvalidConfig).
			WithTag("size", c.Size)
	}

	if c.Capacity < 1 {
		return errors.New("capacity must be at least 1").
			WithType(ErrTypeInvalidConfig).
			WithTag("capacity", c.Capacity)
	}

	if c.MaxDepth < 0 {
		return errors.New("max depth must not be negative").
			WithType(ErrTypeInvalidConfig).
			WithTag("max_depth", c.MaxDepth)
	}

	if c.MaxDepth > MaxDepthLimit {
		return errors.New("max depth is too deep").
			WithType(ErrTypeInvalidConfig).
			WithTag("max_depth", c.MaxDepth).
			WithTag("limit", MaxDepthLimit)
	}

	if c.PreSplit && c.MaxDepth > MaxPreSplitDepth {
		return errors.New("max depth is too deep to pre-split").
			WithType(ErrTypeInvalidConfig).
			WithTag("max_depth", c.MaxDepth).
			WithTag("limit", MaxPreSplitDepth)
	}

	return nil
}
