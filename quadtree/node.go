package quadtree

// Child indexes. Children are always tested in this order, so a point lying on
// a shared edge belongs to the first child that contains it.
const (
	NorthEast = iota
	NorthWest
	SouthWest
	SouthEast
)

type entry[T comparable] struct {
	obj T
	pos Vector2
}

type node[T comparable] struct {
	rect     Rect
	depth    int
	capacity int
	marked   bool

	// nil for leaves.
	children *[4]*node[T]

	// Internal nodes only keep the objects that no child accepted when they
	// were split.
	objects []entry[T]
}

func newNode[T comparable](rect Rect, depth, capacity int) *node[T] {
	return &node[T]{
		rect:     rect,
		depth:    depth,
		capacity: capacity,
	}
}

func (n *node[T]) isLeaf() bool {
	return n.children == nil
}

func (n *node[T]) split() {
	var children [4]*node[T]
	for i := range children {
		children[i] = newNode[T](n.rect.quadrant(i), n.depth+1, n.capacity)
	}
	n.children = &children
}

// redistribute moves the objects held by a freshly split node into the first
// child containing them. Objects that fit no child stay on the node.
func (n *node[T]) redistribute() {
	objects := n.objects
	n.objects = nil

	for _, e := range objects {
		moved := false
		for _, child := range n.children {
			if child.rect.Contains(e.pos) {
				child.objects = append(child.objects, e)
				moved = true
				break
			}
		}

		if !moved {
			n.objects = append(n.objects, e)
		}
	}
}

func (n *node[T]) removeObject(obj T) bool {
	for i, e := range n.objects {
		if e.obj == obj {
			n.objects = append(n.objects[:i], n.objects[i+1:]...)
			return true
		}
	}
	return false
}

func (n *node[T]) info() NodeInfo {
	return NodeInfo{
		Center:      n.rect.Center,
		HalfSize:    n.rect.HalfSize,
		Depth:       n.depth,
		Leaf:        n.isLeaf(),
		Marked:      n.marked,
		ObjectCount: len(n.objects),
	}
}
