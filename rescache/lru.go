package rescache

// entry is a cached resource and its position in the recency list.
type entry[K comparable, V any] struct {
	key   K
	value V
	bytes uint64
	pins  int

	prev *entry[K, V]
	next *entry[K, V]
}

// lruList orders entries by recency. The head is the most recently used,
// the tail the least. The list is not thread-safe.
type lruList[K comparable, V any] struct {
	head *entry[K, V]
	tail *entry[K, V]
	len  int
}

// pushFront inserts e as the most recently used entry.
func (l *lruList[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
	l.len++
}

// moveToFront marks e as the most recently used entry.
func (l *lruList[K, V]) moveToFront(e *entry[K, V]) {
	if e == l.head {
		return
	}
	l.remove(e)
	l.pushFront(e)
}

// remove unlinks e from the list.
func (l *lruList[K, V]) remove(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev = nil
	e.next = nil
	l.len--
}

// oldestUnpinned returns the least recently used entry with no pins, or nil.
func (l *lruList[K, V]) oldestUnpinned() *entry[K, V] {
	for e := l.tail; e != nil; e = e.prev {
		if e.pins == 0 {
			return e
		}
	}
	return nil
}

func (l *lruList[K, V]) clear() {
	l.head = nil
	l.tail = nil
	l.len = 0
}
