// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package shmem provides typed access to named shared memory segments.
// A segment is a system-wide object with a fixed byte size, visible to
// every process that knows its name. It is opened via the builder:
//	seg, err := shmem.New("data").WithSize(1024).Open()
// The first caller of a name creates the segment and becomes its owner,
// later callers borrow it. The mapped bytes can be aliased as a value
// of an arbitrary type:
//	box := shmem.Boxed[Payload](seg)
//	box.Get().Counter = 42
// Closing an owning handle removes the segment from the system
// namespace, closing a borrowing handle only releases the local
// mapping, and Leak suppresses all cleanup, which allows handing the
// segment's lifetime off to another handle or process.
// The library provides no synchronization between the participants:
// coordinating concurrent access to the aliased value is entirely the
// caller's responsibility.
package shmem
