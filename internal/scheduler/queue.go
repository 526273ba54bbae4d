package scheduler

import (
	"container/heap"

	"github.com/google/uuid"
)

type item struct {
	ev    Event
	seq   uint64 // admission order, breaks FireTime ties
	owner *registration
}

// pendingQueue orders events by FireTime, FIFO among equal times, and keeps
// the set of pending IDs.
type pendingQueue struct {
	items []*item
	ids   map[uuid.UUID]struct{}
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{ids: make(map[uuid.UUID]struct{})}
}

func (q *pendingQueue) Len() int { return len(q.items) }

func (q *pendingQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if a.ev.FireTime != b.ev.FireTime {
		return a.ev.FireTime < b.ev.FireTime
	}
	return a.seq < b.seq
}

func (q *pendingQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *pendingQueue) Push(x any) { q.items = append(q.items, x.(*item)) }

func (q *pendingQueue) Pop() any {
	n := len(q.items)
	it := q.items[n-1]
	q.items[n-1] = nil
	q.items = q.items[:n-1]
	return it
}

func (q *pendingQueue) contains(id uuid.UUID) bool {
	_, ok := q.ids[id]
	return ok
}

func (q *pendingQueue) admit(it *item) {
	q.ids[it.ev.ID] = struct{}{}
	heap.Push(q, it)
}

func (q *pendingQueue) peek() *item {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *pendingQueue) take() *item {
	it := heap.Pop(q).(*item)
	delete(q.ids, it.ev.ID)
	return it
}

func (q *pendingQueue) reset() {
	for i := range q.items {
		q.items[i] = nil
	}
	q.items = q.items[:0]
	clear(q.ids)
}
