// Package guestmem moves binpack payloads in and out of WebAssembly linear memory.
//
// A Writer is a growable sink over a wazero api.Memory: writing past the end
// of memory grows it by whole pages. A Reader is a bounded source over a
// range of guest memory. Store and Load wrap both around a typed codec, and
// StoreAlloc asks the guest's own allocator for the destination range.
//
//	ptr, n, err := guestmem.StoreAlloc(ctx, mod.Memory(), guestmem.NewReallocAllocator(ctx, realloc), order)
//	// hand (ptr, n) to the guest
//	back, err := guestmem.Load[Order](mod.Memory(), ptr, n)
package guestmem
