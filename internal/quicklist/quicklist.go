// Package quicklist implements a chunked deque of listpack nodes: push
// operations append to the head/tail node, creating a new node when the
// current one would exceed its byte budget, combining listpack's
// cache-friendly packing with O(1) amortized end insertion.
//
// A payload over listpack.MaxPayloadLen cannot be packed into a listpack
// node at all, so it gets its own "plain" node holding the raw bytes
// directly instead — the same escape hatch Redis's own quicklist uses for
// oversized elements, rather than silently dropping them or refusing the
// push.
package quicklist

import "github.com/rpcpool/zumic/internal/listpack"

// DefaultMaxNodeBytes is the default per-node byte budget (8 KiB).
const DefaultMaxNodeBytes = 8 * 1024

type qlNode struct {
	lp         *listpack.ListPack // nil for a plain node
	plain      []byte             // non-nil for a plain node holding one oversized element
	bytes      int
	prev, next *qlNode
}

func (n *qlNode) len() int {
	if n.plain != nil {
		return 1
	}
	return n.lp.Len()
}

func (n *qlNode) get(i int) ([]byte, bool) {
	if n.plain != nil {
		if i == 0 {
			return n.plain, true
		}
		return nil, false
	}
	return n.lp.Get(i)
}

func (n *qlNode) iter() [][]byte {
	if n.plain != nil {
		return [][]byte{n.plain}
	}
	return n.lp.Iter()
}

// QuickList is a doubly-linked sequence of listpack (or plain) nodes.
type QuickList struct {
	head, tail   *qlNode
	length       int
	maxNodeBytes int
}

// New creates an empty QuickList with the given per-node byte budget (0
// selects DefaultMaxNodeBytes).
func New(maxNodeBytes int) *QuickList {
	if maxNodeBytes <= 0 {
		maxNodeBytes = DefaultMaxNodeBytes
	}
	return &QuickList{maxNodeBytes: maxNodeBytes}
}

// Len returns the total number of elements across all nodes.
func (q *QuickList) Len() int { return q.length }

func newNode() *qlNode {
	return &qlNode{lp: listpack.New()}
}

func newPlainNode(val []byte) *qlNode {
	cp := make([]byte, len(val))
	copy(cp, val)
	return &qlNode{plain: cp, bytes: len(cp)}
}

// PushBack appends a value to the tail.
func (q *QuickList) PushBack(val []byte) {
	if len(val) > listpack.MaxPayloadLen {
		n := newPlainNode(val)
		if q.tail == nil {
			q.head, q.tail = n, n
		} else {
			n.prev = q.tail
			q.tail.next = n
			q.tail = n
		}
		q.length++
		return
	}
	if q.tail == nil || q.tail.plain != nil || q.tail.bytes+len(val) > q.maxNodeBytes {
		n := newNode()
		if q.tail == nil {
			q.head = n
		} else {
			n.prev = q.tail
			q.tail.next = n
		}
		q.tail = n
	}
	if err := q.tail.lp.PushBack(val); err != nil {
		// Unreachable: val is already checked against MaxPayloadLen above.
		panic(err)
	}
	q.tail.bytes += len(val)
	q.length++
}

// PushFront prepends a value to the head.
func (q *QuickList) PushFront(val []byte) {
	if len(val) > listpack.MaxPayloadLen {
		n := newPlainNode(val)
		if q.head == nil {
			q.head, q.tail = n, n
		} else {
			n.next = q.head
			q.head.prev = n
			q.head = n
		}
		q.length++
		return
	}
	if q.head == nil || q.head.plain != nil || q.head.bytes+len(val) > q.maxNodeBytes {
		n := newNode()
		if q.head == nil {
			q.tail = n
		} else {
			n.next = q.head
			q.head.prev = n
		}
		q.head = n
	}
	if err := q.head.lp.PushFront(val); err != nil {
		// Unreachable: val is already checked against MaxPayloadLen above.
		panic(err)
	}
	q.head.bytes += len(val)
	q.length++
}

// PopBack removes and returns the last value.
func (q *QuickList) PopBack() ([]byte, bool) {
	if q.tail == nil {
		return nil, false
	}
	if q.tail.plain != nil {
		val := q.tail.plain
		q.length--
		q.unlink(q.tail)
		return val, true
	}
	idx := q.tail.lp.Len() - 1
	val, ok := q.tail.lp.Get(idx)
	if !ok {
		return nil, false
	}
	q.tail.lp.Remove(idx)
	q.tail.bytes -= len(val)
	q.length--
	if q.tail.lp.Len() == 0 {
		q.unlink(q.tail)
	}
	return val, true
}

// PopFront removes and returns the first value.
func (q *QuickList) PopFront() ([]byte, bool) {
	if q.head == nil {
		return nil, false
	}
	if q.head.plain != nil {
		val := q.head.plain
		q.length--
		q.unlink(q.head)
		return val, true
	}
	val, ok := q.head.lp.Get(0)
	if !ok {
		return nil, false
	}
	q.head.lp.Remove(0)
	q.head.bytes -= len(val)
	q.length--
	if q.head.lp.Len() == 0 {
		q.unlink(q.head)
	}
	return val, true
}

func (q *QuickList) unlink(n *qlNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		q.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		q.tail = n.prev
	}
}

// Index returns the value at position i, walking nodes and subtracting
// per-node counts.
func (q *QuickList) Index(i int) ([]byte, bool) {
	if i < 0 || i >= q.length {
		return nil, false
	}
	for n := q.head; n != nil; n = n.next {
		c := n.len()
		if i < c {
			return n.get(i)
		}
		i -= c
	}
	return nil, false
}

// Iter returns every element in order.
func (q *QuickList) Iter() [][]byte {
	out := make([][]byte, 0, q.length)
	for n := q.head; n != nil; n = n.next {
		out = append(out, n.iter()...)
	}
	return out
}
