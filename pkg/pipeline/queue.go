package pipeline

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"
)

// pendingQueue is the ordered worklist of requests awaiting their first or
// next dispatch attempt. It supports front insertion for prioritized
// submissions and deduplicates by request id. Only the pipeline's event loop
// touches it.
type pendingQueue struct {
	list *doublylinkedlist.List
	ids  map[string]struct{}
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{
		list: doublylinkedlist.New(),
		ids:  make(map[string]struct{}),
	}
}

func (q *pendingQueue) contains(id string) bool {
	_, ok := q.ids[id]
	return ok
}

// insertAt places req at the given position from the front. Prioritized
// batches use increasing indexes so they keep their relative order ahead of
// everything already queued.
func (q *pendingQueue) insertAt(index int, req Request) {
	q.list.Insert(index, req)
	q.ids[req.ID()] = struct{}{}
}

func (q *pendingQueue) append(req Request) {
	q.list.Add(req)
	q.ids[req.ID()] = struct{}{}
}

func (q *pendingQueue) pop() (Request, bool) {
	v, ok := q.list.Get(0)
	if !ok {
		return nil, false
	}
	q.list.Remove(0)

	req := v.(Request)
	delete(q.ids, req.ID())
	return req, true
}

func (q *pendingQueue) len() int {
	return q.list.Size()
}

func (q *pendingQueue) empty() bool {
	return q.list.Empty()
}
