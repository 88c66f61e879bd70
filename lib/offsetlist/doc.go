// Package offsetlist provides an ordered sequence of variable-size containers that
// can be addressed by cumulative integer offset.
//
// The sequence is stored twice at the same time:
//   - as a doubly linked list (Container.Previous / Container.Next) that reflects
//     document order independent of the tree shape, and
//   - as an AVL-balanced binary tree whose nodes carry the summed size of their
//     left subtree ("offset"). This makes locate, insert, split and remove
//     O(log n) operations.
//
// Every list owns a sentinel container of size 1 with a zero value. The sentinel is
// the root of the tree and the anchor of the linked list: Previous/Next wrap through
// it at the boundaries and it is never returned by iteration. Locating the offset
// equal to Size() yields the sentinel, so appending is done with
// list.Sentinel().InsertBefore(v, n).
//
// Key Components:
//
//   - EvaluableOffsetList: the tree together with an optional associative Operator.
//     Evaluate folds Operator.Extract over all containers from left to right using
//     Operator.Operate. Subtree results are cached per node and invalidated lazily:
//     a structural change clears the cache of the touched node and walks to the
//     root only while it keeps finding cached values, so repeated calls between
//     mutations are O(1).
//
//   - OffsetList: the same structure without an operator, used where only
//     addressing is needed (e.g. annotation runs of a text document).
//
//   - PerformActionAt: descends the tree for an offset and hands the located
//     container together with the offset inside that container to a callback.
//     Offsets beyond Size() fail with ErrOutOfRange; there is no clamping.
//
// The structure has no internal locking. Callers serialize access.
package offsetlist
