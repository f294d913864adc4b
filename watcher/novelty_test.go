package watcher

import "testing"

func TestNoveltyIndex_OfferAndContains(t *testing.T) {
	idx := NewNoveltyIndex(10)
	if !idx.Offer(1) {
		t.Fatalf("first offer should be new")
	}
	if idx.Offer(1) {
		t.Fatalf("second offer of same id should not be new")
	}
	if !idx.Contains(1) {
		t.Fatalf("expected id 1 present")
	}
	if idx.Len() != 1 {
		t.Fatalf("expected len 1, got %d", idx.Len())
	}
}

func TestNoveltyIndex_FIFOEviction(t *testing.T) {
	idx := NewNoveltyIndex(1000)
	for id := int64(1); id <= 1001; id++ {
		if !idx.Offer(id) {
			t.Fatalf("expected id %d to be new", id)
		}
	}
	if idx.Len() != 1000 {
		t.Fatalf("expected exactly 1000 entries after 1001 inserts, got %d", idx.Len())
	}
	if idx.Contains(1) {
		t.Fatalf("oldest-inserted id should have been evicted")
	}
	if !idx.Contains(2) || !idx.Contains(1001) {
		t.Fatalf("the 1000 most recent ids should remain")
	}
}

func TestNoveltyIndex_EvictedIDIsNewAgain(t *testing.T) {
	idx := NewNoveltyIndex(2)
	idx.Offer(1)
	idx.Offer(2)
	idx.Offer(3) // evicts 1
	if !idx.Offer(1) {
		t.Fatalf("an evicted id should count as new again")
	}
}

func TestNoveltyIndex_DefaultCapacity(t *testing.T) {
	idx := NewNoveltyIndex(0)
	if idx.capacity != DefaultNoveltyCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultNoveltyCapacity, idx.capacity)
	}
}
