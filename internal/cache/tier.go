package cache

import (
	"sync"
	"time"
)

// tier is one storage partition: a capacity-bounded LRU over a doubly
// linked list, with an optional expiry clock shared by every entry in the
// tier. ttl == 0 means entries never expire (the permanent tier).
// A get hit counts as a touch; eviction removes the least recently read
// entry, not the least recently written.
type tier struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*node
	head     *node // most recently used
	tail     *node // least recently used
	now      func() time.Time
}

type node struct {
	key       string
	value     []byte
	expiresAt time.Time
	prev      *node
	next      *node
}

func newTier(capacity int, ttl time.Duration, now func() time.Time) *tier {
	return &tier{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*node),
		now:      now,
	}
}

func (t *tier) get(key string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.items[key]
	if !ok {
		return nil, false
	}
	if t.ttl > 0 && t.now().After(n.expiresAt) {
		t.removeNode(n)
		delete(t.items, key)
		return nil, false
	}

	t.moveToHead(n)
	return n.value, true
}

// set stores the value and reports whether a capacity eviction happened.
func (t *tier) set(key string, value []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expiresAt time.Time
	if t.ttl > 0 {
		expiresAt = t.now().Add(t.ttl)
	}

	if n, ok := t.items[key]; ok {
		n.value = value
		n.expiresAt = expiresAt
		t.moveToHead(n)
		return false
	}

	n := &node{key: key, value: value, expiresAt: expiresAt}
	t.items[key] = n
	t.addToHead(n)

	if len(t.items) > t.capacity {
		t.evictTail()
		return true
	}
	return false
}

func (t *tier) delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.items[key]; ok {
		t.removeNode(n)
		delete(t.items, key)
	}
}

func (t *tier) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[string]*node)
	t.head = nil
	t.tail = nil
}

func (t *tier) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}

func (t *tier) addToHead(n *node) {
	n.prev = nil
	n.next = t.head
	if t.head != nil {
		t.head.prev = n
	}
	t.head = n
	if t.tail == nil {
		t.tail = n
	}
}

func (t *tier) removeNode(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		t.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		t.tail = n.prev
	}
	n.prev = nil
	n.next = nil
}

func (t *tier) moveToHead(n *node) {
	if t.head == n {
		return
	}
	t.removeNode(n)
	t.addToHead(n)
}

func (t *tier) evictTail() {
	if t.tail == nil {
		return
	}
	victim := t.tail
	t.removeNode(victim)
	delete(t.items, victim.key)
}
