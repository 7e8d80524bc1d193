package mcache

import (
	"container/heap"
	"context"
	"sync"
)

// UniqueQueue is a deduplicating priority queue. Each album id is held at
// most once regardless of priority; membership and ordering mutate under one
// mutex so concurrent submitters never race a dequeue. Safe for
// multi-producer, single-consumer use.
type UniqueQueue struct {
	mu      sync.Mutex
	items   itemHeap
	members map[string]struct{}
	seq     uint64
	wake    chan struct{}
}

// NewUniqueQueue constructs an empty queue.
func NewUniqueQueue() *UniqueQueue {
	return &UniqueQueue{
		members: make(map[string]struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Submit enqueues the item unless its album id is already pending. It returns
// true if the item was newly enqueued. A duplicate submission is dropped even
// when its priority differs; the original priority is retained.
func (q *UniqueQueue) Submit(item WorkItem) bool {
	q.mu.Lock()
	if _, pending := q.members[item.AlbumID]; pending {
		q.mu.Unlock()
		return false
	}
	q.members[item.AlbumID] = struct{}{}
	q.seq++
	heap.Push(&q.items, queuedItem{WorkItem: item, seq: q.seq})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Take blocks until an item is available or the context finishes. Items are
// returned in ascending priority value, ties in arrival order. The album id
// leaves the membership set the instant it is dequeued, so resubmission while
// processing is in flight requeues it.
func (q *UniqueQueue) Take(ctx context.Context) (WorkItem, error) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			item := heap.Pop(&q.items).(queuedItem)
			delete(q.members, item.AlbumID)
			q.mu.Unlock()
			return item.WorkItem, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return WorkItem{}, ctx.Err()
		case <-q.wake:
			// Recheck; a stale wakeup just loops.
		}
	}
}

// Size returns the number of pending items. Advisory under concurrent use.
func (q *UniqueQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Empty reports whether the queue has no pending items.
func (q *UniqueQueue) Empty() bool {
	return q.Size() == 0
}

type queuedItem struct {
	WorkItem
	seq uint64
}

type itemHeap []queuedItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(queuedItem)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
