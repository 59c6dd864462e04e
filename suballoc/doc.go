// Package suballoc implements a soft-realtime best-fit suballocator for an
// external memory pool. It manages offsets and lengths within a virtual
// range [0, capacity) and hands out opaque Allocation tokens; it never
// reads or writes the caller's backing buffer.
//
// The Allocator is single-owner and not safe for concurrent use. Callers
// that need concurrent access must add their own mutual exclusion.
package suballoc
