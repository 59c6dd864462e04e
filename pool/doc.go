// Package pool pairs a suballoc.Allocator with an actual backing buffer,
// for callers that want []byte views of a pool they own rather than raw
// offset/size tokens into memory managed elsewhere (a GPU buffer, a mapped
// file). Slab is the single owner of its buffer: it is not safe for
// concurrent use, same as suballoc.Allocator.
package pool
