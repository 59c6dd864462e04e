package pool

import (
	"math"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/lang/mcache"

	"github.com/ickk/orderly-allocator/suballoc"
)

// Slab is a suballoc.Allocator plus the bytes it is bookkeeping. Alloc*
// return subslices of the Slab's own buffer instead of opaque offset/size
// tokens, for the common case where the pool itself is Go-owned memory
// rather than a caller-owned resource like a GPU buffer.
type Slab struct {
	alloc       *suballoc.Allocator
	buf         []byte
	mcacheOwned bool
}

// NewSlab constructs a Slab with capacity bytes of backing storage,
// uninitialized: the whole buffer is free and about to be handed out via
// Alloc* before anything reads it.
func NewSlab(capacity uint32) *Slab {
	alloc, err := suballoc.New(capacity)
	if err != nil {
		panic(err)
	}
	return &Slab{
		alloc: alloc,
		buf:   dirtmake.Bytes(int(capacity), int(capacity)),
	}
}

// Alloc is equivalent to AllocWithAlign(size, 1).
func (s *Slab) Alloc(size uint32) ([]byte, bool) {
	return s.AllocWithAlign(size, 1)
}

// AllocWithAlign returns a len==cap==size subslice of the Slab's backing
// buffer starting at an offset aligned to align, or false if no free
// region is large enough.
func (s *Slab) AllocWithAlign(size, align uint32) ([]byte, bool) {
	got, ok := s.alloc.AllocWithAlign(size, align)
	if !ok {
		return nil, false
	}
	return s.slice(got), true
}

// Free returns data, a slice previously returned by Alloc, AllocWithAlign,
// or TryReallocate on this Slab, to the pool. Passing a slice this Slab did
// not produce panics, since the Slab can cheaply tell from the slice's
// address that its own bookkeeping would otherwise be corrupted.
func (s *Slab) Free(data []byte) {
	offset, size := s.locate(data)
	s.alloc.Free(suballoc.Allocation{Offset: offset, Size: size})
}

// TryReallocate attempts to grow or shrink data in place; see
// suballoc.Allocator.TryReallocate. On success the returned slice replaces
// data; on failure data is returned unchanged and remains valid.
func (s *Slab) TryReallocate(data []byte, newSize uint32) ([]byte, bool) {
	offset, size := s.locate(data)
	grown, ok := s.alloc.TryReallocate(suballoc.Allocation{Offset: offset, Size: size}, newSize)
	if !ok {
		return data, false
	}
	return s.slice(grown), true
}

// Grow extends the Slab's capacity by additional bytes, staging a larger
// buffer and copying the old one's contents across before extending the
// allocator's managed range. Slices returned by earlier Alloc* calls keep
// their bytes but no longer alias s.buf after a Grow; they still alias the
// buffer that was current when they were returned. That previous buffer is
// handed back to mcache when it came from an earlier Grow; the initial
// buffer from NewSlab is left to the garbage collector.
func (s *Slab) Grow(additional uint32) {
	if additional == 0 {
		return
	}

	newCap := uint64(len(s.buf)) + uint64(additional)
	if newCap > math.MaxUint32 {
		panic("pool: capacity overflow")
	}
	next := mcache.Malloc(0, int(newCap))
	next = next[:newCap]
	copy(next, s.buf)

	old, oldOwned := s.buf, s.mcacheOwned
	s.buf = next
	s.mcacheOwned = true
	s.alloc.GrowCapacity(additional)

	if oldOwned {
		mcache.Free(old)
	}
}

// Capacity returns the size of the Slab's backing buffer.
func (s *Slab) Capacity() uint32 { return s.alloc.Capacity() }

// IsEmpty reports whether every byte of the Slab is free.
func (s *Slab) IsEmpty() bool { return s.alloc.IsEmpty() }

// LargestAvailable returns the size of the largest free region.
func (s *Slab) LargestAvailable() uint32 { return s.alloc.LargestAvailable() }

// TotalAvailable returns the sum of the sizes of all free regions.
func (s *Slab) TotalAvailable() uint32 { return s.alloc.TotalAvailable() }

// Reset discards all outstanding allocations, invalidating every slice
// previously returned by Alloc*.
func (s *Slab) Reset() { s.alloc.Reset() }

// ReportFreeRegions returns a lazy, non-restartable iterator over the
// Slab's current free regions in ascending-offset order.
func (s *Slab) ReportFreeRegions() *suballoc.FreeRegionIterator {
	return s.alloc.ReportFreeRegions()
}

// slice returns the len==cap subslice of s.buf described by a.
func (s *Slab) slice(a suballoc.Allocation) []byte {
	start, end := a.Range()
	return s.buf[start:end:end]
}

// locate recovers the (offset, size) pair underlying data by comparing its
// address against s.buf's. It panics if data is not a slice this Slab
// produced, since that is always a caller bug.
func (s *Slab) locate(data []byte) (offset, size uint32) {
	if len(data) == 0 {
		panic("pool: slice does not belong to this Slab")
	}

	base := uintptr(unsafe.Pointer(unsafe.SliceData(s.buf)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	if ptr < base {
		panic("pool: slice does not belong to this Slab")
	}

	off := uint64(ptr - base)
	if off > uint64(len(s.buf)) || off+uint64(len(data)) > uint64(len(s.buf)) {
		panic("pool: slice does not belong to this Slab")
	}

	return uint32(off), uint32(len(data))
}
