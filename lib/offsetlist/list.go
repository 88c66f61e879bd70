package offsetlist

import (
	"fmt"
	"iter"
)

// Operator is an associative operation over values extracted from containers.
// Operate must be associative; it is not required to be commutative.
type Operator[T, V any] interface {
	// Extract maps a container value to the operand domain.
	Extract(value T) V
	// Operate combines two operands, left before right.
	Operate(left, right V) V
}

// OperatorFuncs adapts two plain functions to the Operator interface.
type OperatorFuncs[T, V any] struct {
	ExtractFn func(value T) V
	OperateFn func(left, right V) V
}

func (o OperatorFuncs[T, V]) Extract(value T) V       { return o.ExtractFn(value) }
func (o OperatorFuncs[T, V]) Operate(left, right V) V { return o.OperateFn(left, right) }

// --------------------------------------------------------------------------
// EvaluableOffsetList
// --------------------------------------------------------------------------

// EvaluableOffsetList is an offset list with an optional cached fold over its values.
type EvaluableOffsetList[T, V any] struct {
	root     *Container[T, V]
	operator Operator[T, V]
}

// NewEvaluable creates an empty list. op may be nil, in which case Evaluate fails.
func NewEvaluable[T, V any](op Operator[T, V]) *EvaluableOffsetList[T, V] {
	root := &Container[T, V]{size: 1, sentinel: true}
	root.prev = root
	root.next = root
	return &EvaluableOffsetList[T, V]{root: root, operator: op}
}

// Size returns the summed size of all containers.
func (l *EvaluableOffsetList[T, V]) Size() int {
	return l.root.offset
}

// Sentinel returns the sentinel container.
func (l *EvaluableOffsetList[T, V]) Sentinel() *Container[T, V] {
	return l.root
}

// FirstContainer returns the first container or the sentinel if the list is empty.
func (l *EvaluableOffsetList[T, V]) FirstContainer() *Container[T, V] {
	return l.root.next
}

// IsEmpty reports whether the list has no containers. Zero-size containers count.
func (l *EvaluableOffsetList[T, V]) IsEmpty() bool {
	return l.root.next == l.root
}

// Locate returns the container covering offset and the offset inside that container.
// offset == Size() returns the sentinel at inner offset 0.
//
// Complexity: O(log n)
func (l *EvaluableOffsetList[T, V]) Locate(offset int) (*Container[T, V], int, error) {
	remaining := offset
	node := l.root
	for node != nil {
		if remaining < node.offset {
			node = node.left
			continue
		}
		remaining -= node.offset
		if remaining < node.size {
			return node, remaining, nil
		}
		remaining -= node.size
		node = node.right
	}
	return nil, 0, fmt.Errorf("%w: offset %d, size %d", ErrOutOfRange, offset, l.Size())
}

// All iterates the container values in order. The sentinel is skipped.
func (l *EvaluableOffsetList[T, V]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for c := l.root.next; c != l.root; c = c.next {
			if !yield(c.value) {
				return
			}
		}
	}
}

// Containers iterates the containers in order. The sentinel is skipped.
// Removing the yielded container during iteration is not supported.
func (l *EvaluableOffsetList[T, V]) Containers() iter.Seq[*Container[T, V]] {
	return func(yield func(*Container[T, V]) bool) {
		for c := l.root.next; c != l.root; c = c.next {
			if !yield(c) {
				return
			}
		}
	}
}

// Values returns a snapshot of all container values in order.
func (l *EvaluableOffsetList[T, V]) Values() []T {
	var values []T
	for v := range l.All() {
		values = append(values, v)
	}
	return values
}

// Evaluate returns the fold of the operator over all values. An empty list yields
// the zero value of V.
//
// Complexity: O(1) if nothing changed since the last call, O(k log n) after k changes.
func (l *EvaluableOffsetList[T, V]) Evaluate() (V, error) {
	var zero V
	if l.operator == nil {
		return zero, ErrNoOperator
	}
	if l.root.left == nil {
		return zero, nil
	}
	return l.evaluate(l.root.left), nil
}

func (l *EvaluableOffsetList[T, V]) evaluate(node *Container[T, V]) V {
	if node.cached {
		return node.cache
	}
	value := l.operator.Extract(node.value)
	if node.left != nil {
		value = l.operator.Operate(l.evaluate(node.left), value)
	}
	if node.right != nil {
		value = l.operator.Operate(value, l.evaluate(node.right))
	}
	node.cache = value
	node.cached = true
	return value
}

// PerformActionAt locates offset and runs action with the container and the
// offset inside it.
func PerformActionAt[T, V, R any](l *EvaluableOffsetList[T, V], offset int, action func(c *Container[T, V], innerOffset int) R) (R, error) {
	c, inner, err := l.Locate(offset)
	if err != nil {
		var zero R
		return zero, err
	}
	return action(c, inner), nil
}

// --------------------------------------------------------------------------
// OffsetList
// --------------------------------------------------------------------------

// OffsetList is an offset list without evaluation.
type OffsetList[T any] struct {
	*EvaluableOffsetList[T, struct{}]
}

// New creates an empty OffsetList.
func New[T any]() *OffsetList[T] {
	return &OffsetList[T]{EvaluableOffsetList: NewEvaluable[T, struct{}](nil)}
}
