// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmem

// Builder accumulates the parameters needed to open a segment.
// It performs no I/O.
type Builder struct {
	name string
}

// New returns a builder for the segment with the given name.
// The name identifies the segment in the system-wide shared memory
// namespace: every process that opens the same name gets a view of the
// same physical memory. It should not contain '/' and should not
// exceed the platform's name length limit.
func New(name string) Builder {
	return Builder{name: name}
}

// WithSize sets the length of the segment in bytes.
func (b Builder) WithSize(size int) SizedBuilder {
	return SizedBuilder{name: b.name, size: size}
}

// SizedBuilder is a builder with both a name and a size set.
type SizedBuilder struct {
	name string
	size int
}

// Open opens the named segment, creating it if it does not exist yet.
// The returned segment reports IsOwner() == true iff this call created
// the object, which makes the first caller responsible for its eventual
// teardown. The decision is not negotiated and not retried: a transient
// failure of any step is surfaced immediately as ErrCreateFailed,
// ErrAllocationFailed or ErrMappingFailed.
//
// An existing segment shorter than the requested size cannot back the
// mapping and fails with ErrMappingFailed; a longer one is accepted,
// with only size bytes mapped. A size of 0 always fails with
// ErrMappingFailed, as zero-length mappings are rejected by the OS.
func (b SizedBuilder) Open() (*Segment, error) {
	return acquire(b.name, b.size)
}
