package quadtree

const (
	// ErrTypeInvalidConfig is the error type returned when a tree is built
	// from a malformed configuration.
	ErrTypeInvalidConfig = "quadtree_invalid_config"
)
