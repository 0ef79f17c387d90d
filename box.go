// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmem

import (
	"runtime"
	"unsafe"

	"github.com/nxgtw/go-shmem/internal/allocator"
)

// Box is a typed handle over a segment: the first Sizeof(T) bytes of
// the mapping are aliased as a value of type T.
//
// A handle is either borrowing or owning. Both release the local
// mapping and close the descriptor on Close; an owning handle
// additionally removes the segment's name from the system namespace,
// so removal is always a single party's decision. Leak suppresses the
// release protocol entirely, which keeps the segment alive past the
// handle, and past the process, that created it.
//
// Warning. The internal object has a finalizer set, so an abandoned
// handle releases its mapping during gc. A pointer obtained from Get
// must not outlive the handle, or the memory it points into may be
// unmapped under it; see also Leak, which disarms the finalizer and
// makes the pointer permanent.
type Box[T any] struct {
	*box[T]
}

type box[T any] struct {
	seg   *Segment
	ptr   *T
	state boxState
}

type boxState int

const (
	stateBorrowing boxState = iota
	stateOwning
	stateForgotten
	stateReleased
)

// Boxed aliases the mapped bytes of seg as a value of type T,
// consuming the segment. The handle starts out owning iff the
// acquisition created the segment.
//
// The reinterpretation is unchecked. The caller must guarantee that
// the segment is at least Sizeof(T) bytes long, and that the mapped
// bytes either already form a valid T, or that T tolerates arbitrary
// bytes until the caller initializes it. T must not contain references
// (pointers, slices, maps, strings, channels, functions): the memory
// belongs to every process mapping the segment, not to one Go runtime.
// CheckShareable vets a type for the latter condition; nothing at all
// vets the former.
func Boxed[T any](seg *Segment) *Box[T] {
	impl := &box[T]{
		seg:   seg,
		ptr:   (*T)(unsafe.Pointer(&seg.data[0])),
		state: stateBorrowing,
	}
	if seg.owner {
		impl.state = stateOwning
	}
	result := &Box[T]{impl}
	runtime.SetFinalizer(impl, func(b *box[T]) {
		b.Close()
	})
	return result
}

// Get returns a pointer to the aliased value. Reads and writes through
// it go straight to shared memory with no bounds or synchronization
// checks; access from other handles mapping the same segment, in this
// process or in others, is unguarded.
func (b *box[T]) Get() *T {
	return b.ptr
}

// Bytes returns the byte representation of the aliased value.
func (b *box[T]) Bytes() []byte {
	return allocator.ByteSliceFromPointer(unsafe.Pointer(b.ptr), int(unsafe.Sizeof(*b.ptr)))
}

// Own makes the handle responsible for removing the segment from the
// system namespace on Close. It is idempotent, and is a no-op once the
// handle was leaked or closed.
func (b *box[T]) Own() {
	if b.state == stateBorrowing {
		b.state = stateOwning
	}
}

// Leak suppresses the release protocol for good and returns a pointer
// to the aliased value: no unmap, no unlink and no descriptor close
// will ever run for this handle, not even from the finalizer. This is
// how a process creates a segment, initializes it, and hands its
// lifetime off to a handle in this or another process. The hand-off is
// not atomic, sequencing it (for example, by waiting for the other
// process) is up to the caller.
func (b *box[T]) Leak() *T {
	if b.state == stateForgotten || b.state == stateReleased {
		return b.ptr
	}
	b.state = stateForgotten
	runtime.SetFinalizer(b, nil)
	return b.ptr
}

// Close releases the handle. The local mapping is always unmapped and
// the descriptor closed; if the handle is owning, the segment is also
// removed from the system namespace first, so a later Open of the same
// name creates a fresh object. Go runs no destructor for the aliased
// value: if T refers to resources of its own, releasing those is the
// caller's business.
//
// A release failure signals an unexpected OS-level anomaly, such as
// the object having vanished while still mapped. It is returned, never
// swallowed, and the handle must not be used afterwards. Close after
// Leak, and a second Close, return nil without doing anything.
func (b *box[T]) Close() error {
	if b.state == stateForgotten || b.state == stateReleased {
		return nil
	}
	owning := b.state == stateOwning
	b.state = stateReleased
	runtime.SetFinalizer(b, nil)
	return b.seg.release(owning)
}

// CheckShareable reports whether a value of the object's type can be
// safely placed into shared memory, that is, whether the type is free
// of references. It is a helper for callers of Boxed, not a check
// Boxed itself performs.
func CheckShareable(object interface{}) error {
	return allocator.CheckObjectReferences(object)
}
