package cache

// node is an entry of the recency list.
type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// lruList is a doubly-linked list ordered by recency: head is the most
// recently used entry, tail the least. It is not thread-safe.
type lruList[K comparable, V any] struct {
	head *node[K, V]
	tail *node[K, V]
	len  int
}

func (l *lruList[K, V]) pushFront(key K, value V) *node[K, V] {
	n := &node[K, V]{key: key, value: value}
	l.linkFront(n)
	return n
}

func (l *lruList[K, V]) moveToFront(n *node[K, V]) {
	if n == l.head {
		return
	}
	l.unlink(n)
	l.linkFront(n)
}

func (l *lruList[K, V]) remove(n *node[K, V]) {
	l.unlink(n)
}

// removeOldest unlinks and returns the tail. The list must not be empty.
func (l *lruList[K, V]) removeOldest() *node[K, V] {
	n := l.tail
	l.unlink(n)
	return n
}

func (l *lruList[K, V]) linkFront(n *node[K, V]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	} else {
		l.tail = n
	}
	l.head = n
	l.len++
}

func (l *lruList[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev = nil
	n.next = nil
	l.len--
}
