package suballoc

import "github.com/google/btree"

// offsetEntry is a free region keyed by its start offset. It is the item
// type stored in the free-by-offset index.
type offsetEntry struct {
	offset uint32
	size   uint32
}

func (e offsetEntry) Less(than btree.Item) bool {
	return e.offset < than.(offsetEntry).offset
}

// sizeEntry is a free region keyed lexicographically by (size, offset). It
// is the item type stored in the free-by-size index; offset breaks ties
// between same-sized regions so best-fit search is deterministic.
type sizeEntry struct {
	size   uint32
	offset uint32
}

func (e sizeEntry) Less(than btree.Item) bool {
	o := than.(sizeEntry)
	if e.size != o.size {
		return e.size < o.size
	}
	return e.offset < o.offset
}

// offsetIndex is the ordered offset -> size mapping described in the core's
// free-by-offset index: it answers predecessor/successor queries used to
// find coalescing neighbors in O(log n).
type offsetIndex struct {
	tree *btree.BTree
}

func newOffsetIndex(degree int, freeList *btree.FreeList) *offsetIndex {
	return &offsetIndex{tree: btree.NewWithFreeList(degree, freeList)}
}

func (idx *offsetIndex) insert(offset, size uint32) {
	idx.tree.ReplaceOrInsert(offsetEntry{offset: offset, size: size})
}

func (idx *offsetIndex) remove(offset uint32) (uint32, bool) {
	item := idx.tree.Delete(offsetEntry{offset: offset})
	if item == nil {
		return 0, false
	}
	return item.(offsetEntry).size, true
}

// predecessor returns the entry with the greatest offset <= o, if any.
func (idx *offsetIndex) predecessor(o uint32) (offsetEntry, bool) {
	var found offsetEntry
	ok := false
	idx.tree.DescendLessOrEqual(offsetEntry{offset: o}, func(i btree.Item) bool {
		found = i.(offsetEntry)
		ok = true
		return false
	})
	return found, ok
}

// successor returns the entry with the smallest offset >= o, if any.
func (idx *offsetIndex) successor(o uint32) (offsetEntry, bool) {
	var found offsetEntry
	ok := false
	idx.tree.AscendGreaterOrEqual(offsetEntry{offset: o}, func(i btree.Item) bool {
		found = i.(offsetEntry)
		ok = true
		return false
	})
	return found, ok
}

func (idx *offsetIndex) clear() {
	idx.tree.Clear(true)
}

// sizeIndex is the ordered (size, offset) set described in the core's
// free-by-size index: it answers the best-fit lower-bound query in
// O(log n).
type sizeIndex struct {
	tree *btree.BTree
}

func newSizeIndex(degree int, freeList *btree.FreeList) *sizeIndex {
	return &sizeIndex{tree: btree.NewWithFreeList(degree, freeList)}
}

func (idx *sizeIndex) insert(size, offset uint32) {
	idx.tree.ReplaceOrInsert(sizeEntry{size: size, offset: offset})
}

func (idx *sizeIndex) remove(size, offset uint32) bool {
	return idx.tree.Delete(sizeEntry{size: size, offset: offset}) != nil
}

// lowerBound returns the smallest (size, offset) pair with size >= s.
func (idx *sizeIndex) lowerBound(s uint32) (sizeEntry, bool) {
	var found sizeEntry
	ok := false
	idx.tree.AscendGreaterOrEqual(sizeEntry{size: s, offset: 0}, func(i btree.Item) bool {
		found = i.(sizeEntry)
		ok = true
		return false
	})
	return found, ok
}

func (idx *sizeIndex) max() (sizeEntry, bool) {
	item := idx.tree.Max()
	if item == nil {
		return sizeEntry{}, false
	}
	return item.(sizeEntry), true
}

func (idx *sizeIndex) clear() {
	idx.tree.Clear(true)
}
