package watcher

// DefaultNoveltyCapacity bounds the in-memory seen-spot index. Eviction is
// strictly insertion order (oldest first), not last access.
const DefaultNoveltyCapacity = 1000

// NoveltyIndex remembers which spot identities have already been
// processed this session. It is not persisted and is not safe for
// concurrent use; the runner serializes all access.
type NoveltyIndex struct {
	capacity int
	order    []int64
	seen     map[int64]struct{}
}

func NewNoveltyIndex(capacity int) *NoveltyIndex {
	if capacity <= 0 {
		capacity = DefaultNoveltyCapacity
	}
	return &NoveltyIndex{
		capacity: capacity,
		seen:     make(map[int64]struct{}, capacity),
	}
}

// Offer marks id as seen and reports whether it was new. An already-seen
// id is left untouched (no reordering).
func (n *NoveltyIndex) Offer(id int64) bool {
	if _, ok := n.seen[id]; ok {
		return false
	}
	n.seen[id] = struct{}{}
	n.order = append(n.order, id)
	for len(n.order) > n.capacity {
		oldest := n.order[0]
		n.order = n.order[1:]
		delete(n.seen, oldest)
	}
	return true
}

func (n *NoveltyIndex) Contains(id int64) bool {
	_, ok := n.seen[id]
	return ok
}

func (n *NoveltyIndex) Len() int {
	return len(n.seen)
}
