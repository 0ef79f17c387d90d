// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package shmem

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const segmentPerm = 0600

// Segment is a single mapping of a named shared memory object into the
// address space of the current process. Two segments with the same name
// alias the same physical memory, no matter which processes hold them,
// while the mapping itself is process-local and must be released by
// every process separately.
//
// A segment is produced by Open and is consumed exactly once: either by
// Boxed, which takes over its lifecycle, or by a direct Close/Destroy.
type Segment struct {
	name  string
	owner bool
	file  *os.File
	data  []byte
}

func acquire(name string, size int) (*Segment, error) {
	path, err := shmName(name)
	if err != nil {
		return nil, errors.Wrapf(ErrCreateFailed, "%v", err)
	}
	owner := false
	file, err := shmOpen(path, os.O_RDWR, segmentPerm)
	if err != nil {
		// the object does not exist, try to become its creator.
		file, err = shmOpen(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, segmentPerm)
		if err != nil {
			return nil, errors.Wrapf(ErrCreateFailed, "shm_open %q: %v", name, err)
		}
		owner = true
		if err = file.Truncate(int64(size)); err != nil {
			file.Close()
			doUnlink(path)
			return nil, errors.Wrapf(ErrAllocationFailed, "truncate %q to %d bytes: %v", name, size, err)
		}
	} else if fi, serr := file.Stat(); serr == nil && fi.Size() < int64(size) {
		// mapping past the end of the object does not fail here,
		// but faults on first access, so refuse it right away.
		file.Close()
		return nil, errors.Wrapf(ErrMappingFailed, "segment %q is %d bytes long, %d requested", name, fi.Size(), size)
	}
	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		if owner {
			doUnlink(path)
		}
		return nil, errors.Wrapf(ErrMappingFailed, "mmap of %d bytes: %v", size, err)
	}
	return &Segment{name: name, owner: owner, file: file, data: data}, nil
}

// Name returns the name of the segment in the system namespace.
func (seg *Segment) Name() string {
	return seg.name
}

// IsOwner reports whether this segment's Open call created the object.
func (seg *Segment) IsOwner() bool {
	return seg.owner
}

// Size returns the length of the mapping in bytes.
func (seg *Segment) Size() int {
	return len(seg.data)
}

// Fd returns the descriptor of the backing object.
func (seg *Segment) Fd() uintptr {
	return seg.file.Fd()
}

// Data returns the mapped bytes. The slice aliases shared memory
// directly, there is no synchronization with other processes.
func (seg *Segment) Data() []byte {
	return seg.data
}

// Flush synchronizes the mapped bytes with the backing object.
func (seg *Segment) Flush(async bool) error {
	flag := unix.MS_SYNC
	if async {
		flag = unix.MS_ASYNC
	}
	if err := unix.Msync(seg.data, flag); err != nil {
		return errors.Wrap(err, "msync failed")
	}
	return nil
}

// Close releases the local mapping and closes the descriptor, leaving
// the object in the system namespace for its owner and any other
// borrower. It is the release path of a borrowed segment.
func (seg *Segment) Close() error {
	return seg.release(false)
}

// Destroy releases the local mapping and removes the object from the
// system namespace, so that a later Open of the same name creates a
// fresh segment. It is the release path of an owned segment.
func (seg *Segment) Destroy() error {
	return seg.release(true)
}

// release tears the mapping down in a fixed order: munmap, then unlink
// for the owning path, then close. Any failure signals an OS-level
// anomaly, for example the object vanishing while still mapped, and is
// returned to the caller instead of being swallowed. After the first
// call the segment is defunct and further calls return nil.
func (seg *Segment) release(unlink bool) error {
	if seg.data == nil {
		return nil
	}
	err := unix.Munmap(seg.data)
	seg.data = nil
	if err != nil {
		return errors.Wrapf(err, "munmap of segment %q failed", seg.name)
	}
	var unlinkErr error
	if unlink {
		if path, err := shmName(seg.name); err != nil {
			unlinkErr = err
		} else if err = doUnlink(path); err != nil {
			unlinkErr = errors.Wrapf(err, "unlink of segment %q failed", seg.name)
		}
	}
	if err := seg.file.Close(); err != nil {
		return errors.Wrapf(err, "close of segment %q failed", seg.name)
	}
	return unlinkErr
}

// Unlink removes the named segment from the system namespace without
// opening it. Mappings held by running processes remain valid; a name
// that does not exist is not an error. This is the out-of-band way to
// end the lifetime of a segment whose handles were all leaked.
func Unlink(name string) error {
	path, err := shmName(name)
	if err != nil {
		return err
	}
	if err = doUnlink(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
