// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shmem

import (
	"github.com/pkg/errors"
)

// Acquisition errors. Open returns one of these sentinels wrapped with
// the details of the step that failed; use errors.Cause to match them.
// None of the steps is retried, a failure is surfaced immediately.
var (
	// ErrCreateFailed means that the segment did not exist, and
	// an attempt to create it did not succeed either.
	ErrCreateFailed = errors.New("segment create failed")
	// ErrAllocationFailed means that a newly created segment
	// could not be resized to the requested length.
	ErrAllocationFailed = errors.New("segment allocation failed")
	// ErrMappingFailed means that the segment could not be mapped
	// into the address space of the current process.
	ErrMappingFailed = errors.New("segment mapping failed")
)
