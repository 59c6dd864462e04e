package suballoc

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/btree"
)

const (
	// DefaultDegree is the branching factor used for the two ordered
	// indexes when New is called. Matches the degree google/btree's own
	// docs recommend for general in-memory workloads.
	DefaultDegree = 32

	// DefaultNodeArenaSize bounds how many freed btree nodes are kept
	// around for reuse by the shared node free-list. It trades a modest
	// amount of retained memory for fewer allocations on the hot
	// insert/remove path.
	DefaultNodeArenaSize = 256
)

var errInvalidDegree = errors.New("suballoc: degree must be >= 2")

// Allocation is an opaque token describing a previously-granted region of
// the managed [0, capacity) range. It carries no reference back to the
// Allocator and no callback; passing it to Free on a different Allocator,
// freeing it twice, or using it after Reset is a usage error with
// undefined behavior (the Allocator does not track live tokens).
type Allocation struct {
	Offset uint32
	Size   uint32
}

// Range yields the half-open interval [Offset, Offset+Size), suitable for
// use as a slice index into the caller's own buffer.
func (a Allocation) Range() (start, end uint32) {
	return a.Offset, a.Offset + a.Size
}

// FreeRegion is one entry of a free-region report, as returned by
// Allocator.ReportFreeRegions.
type FreeRegion struct {
	Offset uint32
	Size   uint32
}

// Allocator is a single-owner, non-thread-safe best-fit suballocator over
// a virtual range [0, capacity). It never touches any backing buffer; it
// only tracks free (offset, size) regions and hands out Allocation tokens
// that index into memory the caller owns.
//
// The free set is maintained by two ordered indexes sharing one
// underlying node arena (a *btree.FreeList): a free-by-offset index used
// for coalescing neighbor lookups, and a free-by-size index used for
// best-fit search. Both support O(log n) insert, remove, and neighbor
// queries; a hash-based index would not, since best-fit and coalescing
// both depend on ordering.
type Allocator struct {
	byOffset *offsetIndex
	bySize   *sizeIndex

	capacity       uint32
	totalAvailable uint32
}

// New constructs an Allocator managing [0, capacity). If capacity > 0 the
// free set initially contains the single region (0, capacity).
func New(capacity uint32) (*Allocator, error) {
	return NewWithNodeArena(capacity, DefaultDegree, btree.NewFreeList(DefaultNodeArenaSize))
}

// NewWithNodeArena constructs an Allocator like New, but lets the caller
// choose the btree degree and supply (or share) the node arena used by
// the two indexes. Passing a *btree.FreeList shared with other
// Allocators amortizes node allocation across them; passing one sized to
// the expected node count gives a hard-realtime-friendly allocator that
// never grows its arena after warm-up.
func NewWithNodeArena(capacity uint32, degree int, arena *btree.FreeList) (*Allocator, error) {
	if degree < 2 {
		return nil, errInvalidDegree
	}

	a := &Allocator{
		byOffset: newOffsetIndex(degree, arena),
		bySize:   newSizeIndex(degree, arena),
		capacity: capacity,
	}

	if capacity > 0 {
		a.insertFreeRegion(0, capacity)
	}

	return a, nil
}

// Alloc is equivalent to AllocWithAlign(size, 1).
func (a *Allocator) Alloc(size uint32) (Allocation, bool) {
	return a.AllocWithAlign(size, 1)
}

// AllocWithAlign returns a region of exactly size bytes whose offset is a
// multiple of align, or reports false if no free region is large enough.
// size must be >= 1 and align must be a power of two; violating either is
// a caller bug and panics immediately rather than silently misbehaving.
func (a *Allocator) AllocWithAlign(size, align uint32) (Allocation, bool) {
	if size == 0 {
		panic("suballoc: size must be >= 1")
	}
	if align == 0 || align&(align-1) != 0 {
		panic(fmt.Sprintf("suballoc: align must be a power of two, got %d", align))
	}

	// s_eff is the tight upper bound on the region length required to
	// satisfy size at any offset within it, since the alignment padding
	// at a region's start is always < align. Using it as the search key
	// keeps best-fit a single lower-bound probe instead of a scan.
	sEff64 := uint64(size) + uint64(align) - 1
	if sEff64 > math.MaxUint32 {
		return Allocation{}, false
	}

	candidate, ok := a.bySize.lowerBound(uint32(sEff64))
	if !ok {
		return Allocation{}, false
	}

	o, s := candidate.offset, candidate.size
	aligned := uint32(alignUp64(uint64(o), uint64(align)))
	leftPad := aligned - o
	tail := (o + s) - (aligned + size)

	a.removeFreeRegion(o, s)

	if leftPad > 0 {
		a.insertFreeRegion(o, leftPad)
	}
	if tail > 0 {
		a.insertFreeRegion(aligned+size, tail)
	}

	return Allocation{Offset: aligned, Size: size}, true
}

// Free releases allocation, coalescing it with any immediately-adjacent
// free regions. Freeing a token from a different Allocator, a double
// free, or a token from before the last Reset is a usage error that this
// Allocator does not detect (see Allocation).
func (a *Allocator) Free(allocation Allocation) {
	a.insertFreeRegion(allocation.Offset, allocation.Size)
}

// TryReallocate attempts to grow or shrink allocation in place, keeping
// its starting offset. On success it returns a new Allocation with
// size = newSize and the original token must not be used again. On
// failure (growth only) the original allocation remains valid unchanged
// and the caller should fall back to alloc+copy+free.
func (a *Allocator) TryReallocate(allocation Allocation, newSize uint32) (Allocation, bool) {
	if newSize == 0 {
		panic("suballoc: new_size must be >= 1")
	}

	offset, oldSize := allocation.Offset, allocation.Size
	switch {
	case newSize == oldSize:
		return allocation, true

	case newSize < oldSize:
		// Shrink always succeeds: release the tail exactly like Free.
		a.insertFreeRegion(offset+newSize, oldSize-newSize)
		return Allocation{Offset: offset, Size: newSize}, true

	default:
		delta := newSize - oldSize
		neighbor, ok := a.byOffset.successor(offset + oldSize)
		if !ok || neighbor.offset != offset+oldSize || neighbor.size < delta {
			return allocation, false
		}

		a.removeFreeRegion(neighbor.offset, neighbor.size)
		if neighbor.size > delta {
			a.insertFreeRegion(offset+newSize, neighbor.size-delta)
		}

		return Allocation{Offset: offset, Size: newSize}, true
	}
}

// GrowCapacity extends the managed range to [0, capacity+additional),
// coalescing the new tail region with whatever free region (if any)
// currently ends at the old capacity.
func (a *Allocator) GrowCapacity(additional uint32) {
	if additional == 0 {
		return
	}

	newCapacity := uint64(a.capacity) + uint64(additional)
	if newCapacity > math.MaxUint32 {
		panic("suballoc: capacity overflow")
	}

	oldCapacity := a.capacity
	a.capacity = uint32(newCapacity)
	a.insertFreeRegion(oldCapacity, additional)
}

// Reset discards all allocations and returns the Allocator to its
// post-construction state for the current capacity. Every Allocation
// token issued before Reset is invalidated.
func (a *Allocator) Reset() {
	a.byOffset.clear()
	a.bySize.clear()
	a.totalAvailable = 0

	if a.capacity > 0 {
		a.insertFreeRegion(0, a.capacity)
	}
}

// Capacity returns the size of the managed range.
func (a *Allocator) Capacity() uint32 {
	return a.capacity
}

// IsEmpty reports whether every byte of the managed range is free, i.e.
// there are no live allocations.
func (a *Allocator) IsEmpty() bool {
	return a.totalAvailable == a.capacity
}

// LargestAvailable returns the size of the largest free region, or 0 if
// the free set is empty.
func (a *Allocator) LargestAvailable() uint32 {
	largest, ok := a.bySize.max()
	if !ok {
		return 0
	}
	return largest.size
}

// TotalAvailable returns the sum of the sizes of all free regions.
func (a *Allocator) TotalAvailable() uint32 {
	return a.totalAvailable
}

// ReportFreeRegions returns a lazy, non-restartable iterator over the
// current free regions in ascending-offset order. The iterator reflects
// a live traversal of the free-by-offset index: mutating the Allocator
// while iterating is not supported and yields undefined results.
func (a *Allocator) ReportFreeRegions() *FreeRegionIterator {
	return &FreeRegionIterator{idx: a.byOffset}
}

// FreeRegionIterator walks an Allocator's free set in ascending-offset
// order. It is produced by Allocator.ReportFreeRegions and must not be
// reused once exhausted.
type FreeRegionIterator struct {
	idx     *offsetIndex
	next    uint32
	started bool
	done    bool
}

// Next returns the next free region in ascending-offset order, or false
// once the sequence is exhausted.
func (it *FreeRegionIterator) Next() (FreeRegion, bool) {
	if it.done {
		return FreeRegion{}, false
	}

	pivot := uint32(0)
	if it.started {
		pivot = it.next + 1
	}
	it.started = true

	entry, ok := it.idx.successor(pivot)
	if !ok {
		it.done = true
		return FreeRegion{}, false
	}

	it.next = entry.offset
	return FreeRegion{Offset: entry.offset, Size: entry.size}, true
}

// insertFreeRegion adds size freed bytes starting at offset to the free
// set, merging with an immediately-adjacent left and/or right neighbor
// first so the free set never holds touching regions. The accounted
// total only ever grows by size: coalescing a neighbor in does not
// change how many bytes are free, only how they are indexed.
func (a *Allocator) insertFreeRegion(offset, size uint32) {
	start, end := offset, offset+size

	if left, ok := a.byOffset.predecessor(start); ok && left.offset+left.size == start {
		a.deleteIndexEntry(left.offset, left.size)
		start = left.offset
	}

	if right, ok := a.byOffset.successor(end); ok && right.offset == end {
		a.deleteIndexEntry(right.offset, right.size)
		end = right.offset + right.size
	}

	a.byOffset.insert(start, end-start)
	a.bySize.insert(end-start, start)
	a.totalAvailable += size
}

// removeFreeRegion deletes (offset, size) from both indexes and accounts
// for size bytes leaving the free set entirely (they are about to become
// part of a live allocation). Both indexes must already hold the entry.
func (a *Allocator) removeFreeRegion(offset, size uint32) {
	a.deleteIndexEntry(offset, size)
	a.totalAvailable -= size
}

// deleteIndexEntry removes (offset, size) from both indexes without
// touching the accounted total; used when a free region is being
// re-indexed (coalesced), not consumed.
func (a *Allocator) deleteIndexEntry(offset, size uint32) {
	a.byOffset.remove(offset)
	a.bySize.remove(size, offset)
}

// alignUp64 rounds n up to the nearest multiple of align (align must be a
// power of two). Computed in 64 bits so the intermediate n+align-1 cannot
// overflow for any uint32 n and align.
func alignUp64(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
