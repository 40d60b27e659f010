package quadtree

type NodeInfo struct {
	Center      Vector2 `json:"center"`
	HalfSize    Vector2 `json:"half_size"`
	Depth       int     `json:"depth"`
	Leaf        bool    `json:"leaf"`
	Marked      bool    `json:"marked"`
	ObjectCount int     `json:"object_count"`
}

type DebugInfo struct {
	Center      Vector2    `json:"center"`
	Size        Vector2    `json:"size"`
	Capacity    int        `json:"capacity"`
	MaxDepth    int        `json:"max_depth"`
	NodeCount   int        `json:"node_count"`
	LeafCount   int        `json:"leaf_count"`
	MarkedCount int        `json:"marked_count"`
	ObjectCount int        `json:"object_count"`
	Nodes       []NodeInfo `json:"nodes"`
}

type SpatialIndex[T comparable] interface {
	Insert(obj T, pos Vector2) bool
	Remove(obj T, pos Vector2) bool
	QueryArea(area Bounds) []T
	MarkArea(center Vector2, radius float32)
	ResetIllumination()

	// debug stuff:
	GetDebugInfo() DebugInfo
}
