package offsetlist

import "fmt"

// --------------------------------------------------------------------------
// Container (tree node + linked list element)
// --------------------------------------------------------------------------

// Container is one element of an EvaluableOffsetList. It owns a value and a
// non-negative size and is at the same time a node of the balancing tree.
type Container[T, V any] struct {
	value  T
	size   int
	offset int // summed size of the left subtree
	height int

	parent, left, right *Container[T, V]
	prev, next          *Container[T, V]

	cache  V
	cached bool

	sentinel bool
	removed  bool
}

// Value returns the value of the container.
func (c *Container[T, V]) Value() T {
	return c.value
}

// SetValue replaces the value of the container and invalidates cached evaluations
// that depend on it.
func (c *Container[T, V]) SetValue(value T) {
	c.value = value
	c.Invalidate()
}

// Size returns the size of the container.
func (c *Container[T, V]) Size() int {
	return c.size
}

// IsSentinel reports whether c is the sentinel of its list.
func (c *Container[T, V]) IsSentinel() bool {
	return c.sentinel
}

// Previous returns the preceding container. The first container returns the sentinel.
func (c *Container[T, V]) Previous() *Container[T, V] {
	return c.prev
}

// Next returns the following container. The last container returns the sentinel.
func (c *Container[T, V]) Next() *Container[T, V] {
	return c.next
}

// Offset returns the absolute offset of the first position inside the container.
//
// Complexity: O(log n)
func (c *Container[T, V]) Offset() int {
	total := c.offset
	for node, parent := c, c.parent; parent != nil; node, parent = parent, parent.parent {
		if parent.right == node {
			total += parent.offset + parent.size
		}
	}
	return total
}

// InsertBefore creates a new container holding value with the given size directly
// in front of c and returns it. Inserting before the sentinel appends to the list.
//
// Complexity: O(log n)
func (c *Container[T, V]) InsertBefore(value T, size int) (*Container[T, V], error) {
	if c.removed {
		return nil, ErrRemoved
	}
	if size < 0 {
		return nil, ErrNegativeSize
	}

	n := &Container[T, V]{value: value, size: size}

	// linked list
	n.prev = c.prev
	n.next = c
	c.prev.next = n
	c.prev = n

	// tree: the new node becomes the in-order predecessor of c
	if c.left == nil {
		c.setLeft(n)
	} else {
		c.left.lastInSubtree().setRight(n)
	}
	c.offset += n.size
	c.correctOffsets(n.size)
	n.parent.rebalance()
	return n, nil
}

// Split shrinks c to offset and creates a new container with the remaining size
// (the old size minus offset) holding value directly after c.
//
// Complexity: O(log n)
func (c *Container[T, V]) Split(offset int, value T) (*Container[T, V], error) {
	if c.removed {
		return nil, ErrRemoved
	}
	if c.sentinel {
		return nil, ErrSentinel
	}
	if offset < 0 || offset > c.size {
		return nil, fmt.Errorf("%w: split at %d in container of size %d", ErrOutOfRange, offset, c.size)
	}

	secondSize := c.size - offset
	n := &Container[T, V]{value: value, size: secondSize}

	// linked list
	n.next = c.next
	n.prev = c
	c.next.prev = n
	c.next = n
	c.size = offset

	// tree: the new node becomes the in-order successor of c. the total size of
	// the subtree rooted at c is unchanged, so only nodes below c are corrected.
	if c.right == nil {
		c.setRight(n)
	} else {
		node := c.right
		for node.left != nil {
			node.offset += secondSize
			node = node.left
		}
		node.offset += secondSize
		node.setLeft(n)
	}
	n.parent.rebalance()
	return n, nil
}

// Remove deletes c from its list. The container must not be used afterward.
//
// Complexity: O(log n)
func (c *Container[T, V]) Remove() error {
	if c.removed {
		return ErrRemoved
	}
	if c.sentinel {
		return ErrSentinel
	}

	c.next.prev = c.prev
	c.prev.next = c.next
	c.correctOffsets(-c.size)

	if c.right == nil {
		c.replaceWith(c.left)
		c.parent.rebalance()
	} else {
		// promote the in-order successor into the place of c
		replacement := c.right.firstInSubtree()
		replacementParent := replacement.parent
		for node := replacementParent; node != c; node = node.parent {
			node.offset -= replacement.size
		}
		replacement.replaceWith(replacement.right)
		c.replaceWith(replacement)

		replacement.setLeftSafely(c.left)
		replacement.setRightSafely(c.right)
		replacement.offset = c.offset
		replacement.height = c.height

		// the promoted node now covers a different subtree
		replacement.clearCache()
		c.parent.Invalidate()
		if replacementParent != c {
			replacementParent.rebalance()
		} else {
			replacement.rebalance()
		}
	}

	c.prev, c.next = nil, nil
	c.parent, c.left, c.right = nil, nil, nil
	c.removed = true
	return nil
}

// IncreaseSize changes the size of c by delta. delta may be negative as long as
// the resulting size is not.
//
// Complexity: O(log n)
func (c *Container[T, V]) IncreaseSize(delta int) error {
	if c.removed {
		return ErrRemoved
	}
	if c.sentinel {
		return ErrSentinel
	}
	if c.size+delta < 0 {
		return fmt.Errorf("%w: size %d, delta %d", ErrNegativeSize, c.size, delta)
	}
	c.size += delta
	c.correctOffsets(delta)
	return nil
}

// Invalidate drops the cached evaluation of c and of all ancestors. The walk stops
// at the first node without a cached value since its ancestors cannot have one.
func (c *Container[T, V]) Invalidate() {
	for node := c; node != nil && node.cached; node = node.parent {
		node.clearCache()
	}
}

func (c *Container[T, V]) String() string {
	return fmt.Sprintf("%d,%d:%v", c.Offset(), c.size, c.value)
}

// --------------------------------------------------------------------------
// Balancing
// --------------------------------------------------------------------------

// rebalance restores the AVL property from c up to the root. It stops as soon as
// a node's height did not change.
func (c *Container[T, V]) rebalance() {
	c.Invalidate()
	for node := c; node.parent != nil; node = node.parent {
		oldHeight := node.height
		leftHeight := height(node.left)
		rightHeight := height(node.right)

		switch {
		case rightHeight == leftHeight+2:
			if height(node.right.right) != rightHeight-1 {
				node.right.rotateRight()
			}
			node = node.rotateLeft()
		case leftHeight == rightHeight+2:
			if height(node.left.left) != leftHeight-1 {
				node.left.rotateLeft()
			}
			node = node.rotateRight()
		default:
			node.height = max(leftHeight, rightHeight) + 1
		}

		if node.height == oldHeight {
			break
		}
	}
}

func (c *Container[T, V]) rotateLeft() *Container[T, V] {
	newRoot := c.right
	subtree1 := newRoot.left
	subtree2 := c.left

	c.replaceWith(newRoot)
	c.setRightSafely(subtree1)
	newRoot.setLeft(c)

	c.height = max(height(subtree1), height(subtree2)) + 1
	if c.height+1 > newRoot.height {
		newRoot.height = c.height + 1
	}
	newRoot.offset += c.offset + c.size

	c.clearCache()
	newRoot.clearCache()
	return newRoot
}

func (c *Container[T, V]) rotateRight() *Container[T, V] {
	newRoot := c.left
	subtree1 := newRoot.right
	subtree2 := c.right

	c.replaceWith(newRoot)
	c.setLeftSafely(subtree1)
	newRoot.setRight(c)

	c.height = max(height(subtree1), height(subtree2)) + 1
	if c.height+1 > newRoot.height {
		newRoot.height = c.height + 1
	}
	c.offset -= newRoot.offset + newRoot.size

	c.clearCache()
	newRoot.clearCache()
	return newRoot
}

// --------------------------------------------------------------------------
// Tree helpers
// --------------------------------------------------------------------------

// correctOffsets adds delta to every ancestor that reaches c through its left child.
func (c *Container[T, V]) correctOffsets(delta int) {
	for node, parent := c, c.parent; parent != nil; node, parent = parent, parent.parent {
		if parent.left == node {
			parent.offset += delta
		}
	}
}

func (c *Container[T, V]) firstInSubtree() *Container[T, V] {
	node := c
	for node.left != nil {
		node = node.left
	}
	return node
}

func (c *Container[T, V]) lastInSubtree() *Container[T, V] {
	node := c
	for node.right != nil {
		node = node.right
	}
	return node
}

func (c *Container[T, V]) setLeft(child *Container[T, V]) {
	c.left = child
	child.parent = c
}

func (c *Container[T, V]) setRight(child *Container[T, V]) {
	c.right = child
	child.parent = c
}

func (c *Container[T, V]) setLeftSafely(child *Container[T, V]) {
	c.left = child
	if child != nil {
		child.parent = c
	}
}

func (c *Container[T, V]) setRightSafely(child *Container[T, V]) {
	c.right = child
	if child != nil {
		child.parent = c
	}
}

// replaceWith puts replacement (may be nil) into the slot c occupies in its parent.
func (c *Container[T, V]) replaceWith(replacement *Container[T, V]) {
	if replacement != nil {
		replacement.parent = c.parent
	}
	if c.parent.left == c {
		c.parent.left = replacement
	} else {
		c.parent.right = replacement
	}
}

func (c *Container[T, V]) clearCache() {
	var zero V
	c.cache = zero
	c.cached = false
}

func height[T, V any](c *Container[T, V]) int {
	if c == nil {
		return -1
	}
	return c.height
}
