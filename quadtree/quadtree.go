package quadtree

// Region Quadtree
//
// An adaptively subdivided tree implementing the SpatialIndex interface.
// The particularities are:
//   - objects are keyed by their position on the tree plane; world positions
//     are projected with Project.
//   - a leaf splits into 4 children once it holds Capacity objects, unless it
//     sits at MaxDepth where it accepts any number of objects.
//   - nodes are never merged back: removing objects leaves the structure as is.
//   - each leaf carries a marked (illuminated) flag set by MarkArea and cleared
//     by ResetIllumination.
//
// A Tree is not safe for concurrent use. Hosts that share a tree between
// goroutines must synchronize every call themselves.

// Tree is a region quadtree storing objects of type T.
type Tree[T comparable] struct {
	config Config
	root   *node[T]
	count  int
	nodes  int
}

// New builds a tree covering the rectangle described by the given config.
func New[T comparable](c Config) (*Tree[T], error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	t := &Tree[T]{
		config: c,
		root: newNode[T](Rect{
			Center:   c.Center,
			HalfSize: c.Size.Mul(0.5),
		}, 0, c.Capacity),
		nodes: 1,
	}

	if c.PreSplit {
		t.preSplit(t.root)
	}
	return t, nil
}

func (t *Tree[T]) preSplit(n *node[T]) {
	if n.depth >= t.config.MaxDepth {
		return
	}

	t.splitNode(n)
	for _, child := range n.children {
		t.preSplit(child)
	}
}

func (t *Tree[T]) splitNode(n *node[T]) {
	n.split()
	t.nodes += len(n.children)
}

// Bounds returns the root rectangle.
func (t *Tree[T]) Bounds() Rect {
	return t.root.rect
}

// Len returns the number of stored objects.
func (t *Tree[T]) Len() int {
	return t.count
}

// NodeCount returns the number of nodes, root included. It never decreases.
func (t *Tree[T]) NodeCount() int {
	return t.nodes
}

// LeafCount returns the number of leaves.
func (t *Tree[T]) LeafCount() int {
	// Every split turns one leaf into an internal node and adds 4 leaves.
	return t.nodes - (t.nodes-1)/4
}

// Insert stores obj at pos. It returns false when pos is outside of the root
// rectangle. Objects are not deduplicated: inserting the same object twice
// stores it twice.
func (t *Tree[T]) Insert(obj T, pos Vector2) bool {
	if !pos.IsFinite() {
		return false
	}

	if !t.insert(t.root, entry[T]{obj: obj, pos: pos}) {
		return false
	}
	t.count++
	return true
}

func (t *Tree[T]) insert(n *node[T], e entry[T]) bool {
	if !n.rect.Contains(e.pos) {
		return false
	}

	if n.isLeaf() {
		if len(n.objects) < n.capacity || n.depth >= t.config.MaxDepth {
			n.objects = append(n.objects, e)
			return true
		}

		t.splitNode(n)
		n.redistribute()
	}

	for _, child := range n.children {
		if t.insert(child, e) {
			return true
		}
	}
	return false
}

// Remove deletes obj previously inserted at pos. It returns false when obj is
// not stored along the path leading to pos.
func (t *Tree[T]) Remove(obj T, pos Vector2) bool {
	if !pos.IsFinite() {
		return false
	}

	if !t.remove(t.root, obj, pos) {
		return false
	}
	t.count--
	return true
}

func (t *Tree[T]) remove(n *node[T], obj T, pos Vector2) bool {
	if !n.rect.Contains(pos) {
		return false
	}

	if n.removeObject(obj) {
		return true
	}

	if n.isLeaf() {
		return false
	}

	for _, child := range n.children {
		if t.remove(child, obj, pos) {
			return true
		}
	}
	return false
}

// QueryArea returns the objects whose position lies within area. The height
// of area is ignored. Results follow a stable traversal order for a given
// tree state but are otherwise unordered.
func (t *Tree[T]) QueryArea(area Bounds) []T {
	rect := area.Rect()
	if rect.Empty() || !rect.Center.IsFinite() {
		return nil
	}

	var results []T
	t.query(t.root, rect, &results)
	return results
}

func (t *Tree[T]) query(n *node[T], area Rect, results *[]T) {
	if !area.Intersects(n.rect) {
		return
	}

	for _, e := range n.objects {
		if area.Contains(e.pos) {
			*results = append(*results, e.obj)
		}
	}

	if n.isLeaf() {
		return
	}

	for _, child := range n.children {
		t.query(child, area, results)
	}
}

// MarkArea marks every leaf overlapping the circle of the given center and
// radius. Marks add up until the next ResetIllumination.
func (t *Tree[T]) MarkArea(center Vector2, radius float32) {
	if !(radius > 0) || !center.IsFinite() {
		return
	}
	t.mark(t.root, center, radius)
}

func (t *Tree[T]) mark(n *node[T], center Vector2, radius float32) {
	if !n.rect.OverlapsCircle(center, radius) {
		return
	}

	if n.isLeaf() {
		n.marked = true
		return
	}

	for _, child := range n.children {
		t.mark(child, center, radius)
	}
}

// ResetIllumination clears the marked flag of every node.
func (t *Tree[T]) ResetIllumination() {
	t.reset(t.root)
}

func (t *Tree[T]) reset(n *node[T]) {
	n.marked = false
	if n.isLeaf() {
		return
	}

	for _, child := range n.children {
		t.reset(child)
	}
}

// IsMarked reports whether the leaf owning pos is marked. It returns false
// when pos is outside of the root rectangle.
func (t *Tree[T]) IsMarked(pos Vector2) bool {
	n := t.root
	if !n.rect.Contains(pos) {
		return false
	}

	for !n.isLeaf() {
		var next *node[T]
		for _, child := range n.children {
			if child.rect.Contains(pos) {
				next = child
				break
			}
		}

		if next == nil {
			return false
		}
		n = next
	}
	return n.marked
}

// Walk calls fn for every node in pre-order, children in NE, NW, SW, SE order.
// Walking stops when fn returns false.
func (t *Tree[T]) Walk(fn func(NodeInfo) bool) {
	t.walk(t.root, fn)
}

func (t *Tree[T]) walk(n *node[T], fn func(NodeInfo) bool) bool {
	if !fn(n.info()) {
		return false
	}

	if n.isLeaf() {
		return true
	}

	for _, child := range n.children {
		if !t.walk(child, fn) {
			return false
		}
	}
	return true
}

func (t *Tree[T]) GetDebugInfo() DebugInfo {
	result := DebugInfo{
		Center:      t.config.Center,
		Size:        t.config.Size,
		Capacity:    t.config.Capacity,
		MaxDepth:    t.config.MaxDepth,
		NodeCount:   t.nodes,
		LeafCount:   t.LeafCount(),
		ObjectCount: t.count,
		Nodes:       make([]NodeInfo, 0, t.nodes),
	}

	t.Walk(func(n NodeInfo) bool {
		if n.Leaf && n.Marked {
			result.MarkedCount++
		}
		result.Nodes = append(result.Nodes, n)
		return true
	})

	return result
}
