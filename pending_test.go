package surfacepool

import (
	"sync"
	"testing"
)

func TestPendingSet(t *testing.T) {
	ps := newPendingSet()
	a := newFakeSurface(7, sizeA)
	b := newFakeSurface(3, sizeB)

	if !ps.insert(7, a) || !ps.insert(3, b) {
		t.Fatal("insert of new id returned false")
	}
	if ps.insert(7, b) {
		t.Error("insert of duplicate id returned true")
	}
	if ps.len() != 2 {
		t.Fatalf("len() = %d, want 2", ps.len())
	}

	ids := ps.ids()
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Errorf("ids() = %v, want [3 7]", ids)
	}

	got, ok := ps.take(7)
	if !ok || got != Surface(a) {
		t.Errorf("take(7) = %v, %v; want surface a", got, ok)
	}
	if _, ok := ps.take(7); ok {
		t.Error("second take(7) found a surface")
	}

	drained := ps.drain()
	if len(drained) != 1 || drained[0] != Surface(b) {
		t.Errorf("drain() = %v, want [b]", drained)
	}
	if ps.len() != 0 {
		t.Errorf("len() after drain = %d", ps.len())
	}
}

func TestCompletionInboxOrder(t *testing.T) {
	in := newCompletionInbox()
	if got := in.popAll(); got != nil {
		t.Errorf("popAll() on empty inbox = %v, want nil", got)
	}

	in.push(5)
	in.push(1)
	in.push(5)

	got := in.popAll()
	want := []uint64{5, 1, 5}
	if len(got) != len(want) {
		t.Fatalf("popAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("popAll() = %v, want %v", got, want)
			break
		}
	}

	select {
	case <-in.notify:
	default:
		t.Error("push did not leave a notify token")
	}
	select {
	case <-in.notify:
		t.Error("notify tokens were not coalesced")
	default:
	}
}

func TestCompletionInboxConcurrentPush(t *testing.T) {
	in := newCompletionInbox()
	const goroutines = 50

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in.push(uint64(i))
		}()
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, id := range in.popAll() {
		seen[id] = true
	}
	if len(seen) != goroutines {
		t.Errorf("received %d distinct ids, want %d", len(seen), goroutines)
	}
}
