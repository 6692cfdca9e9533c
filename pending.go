package surfacepool

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// pendingSet holds surfaces submitted to the GPU, keyed by identifier.
// Keys are kept ordered so listings are deterministic.
//
// pendingSet is owned by the pool goroutine and is not safe for
// concurrent use.
type pendingSet struct {
	tree *treemap.Map
}

func newPendingSet() *pendingSet {
	return &pendingSet{tree: treemap.NewWith(utils.UInt64Comparator)}
}

// insert adds s under id. It returns false, leaving the set unchanged,
// if id is already present.
func (p *pendingSet) insert(id uint64, s Surface) bool {
	if _, found := p.tree.Get(id); found {
		return false
	}
	p.tree.Put(id, s)
	return true
}

// take removes and returns the surface stored under id.
func (p *pendingSet) take(id uint64) (Surface, bool) {
	v, found := p.tree.Get(id)
	if !found {
		return nil, false
	}
	p.tree.Remove(id)
	return v.(Surface), true
}

func (p *pendingSet) len() int {
	return p.tree.Size()
}

// ids returns the pending identifiers in ascending order.
func (p *pendingSet) ids() []uint64 {
	keys := p.tree.Keys()
	out := make([]uint64, len(keys))
	for i, k := range keys {
		out[i] = k.(uint64)
	}
	return out
}

// drain removes and returns every pending surface.
func (p *pendingSet) drain() []Surface {
	values := p.tree.Values()
	out := make([]Surface, len(values))
	for i, v := range values {
		out[i] = v.(Surface)
	}
	p.tree.Clear()
	return out
}

// completionInbox collects writes-finished notifications delivered from
// arbitrary goroutines. Callbacks only enqueue; the pool goroutine drains.
type completionInbox struct {
	mu     sync.Mutex
	ids    *queue.Queue
	notify chan struct{}
}

func newCompletionInbox() *completionInbox {
	return &completionInbox{
		ids:    queue.New(),
		notify: make(chan struct{}, 1),
	}
}

// push records that id finished. Safe for concurrent use.
func (in *completionInbox) push(id uint64) {
	in.mu.Lock()
	in.ids.Add(id)
	in.mu.Unlock()

	// Coalesce: one buffered token is enough to wake the owner.
	select {
	case in.notify <- struct{}{}:
	default:
	}
}

// popAll removes and returns every queued identifier in arrival order.
func (in *completionInbox) popAll() []uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()

	n := in.ids.Length()
	if n == 0 {
		return nil
	}
	out := make([]uint64, 0, n)
	for in.ids.Length() > 0 {
		out = append(out, in.ids.Remove().(uint64))
	}
	return out
}
