// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package shmem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxgtw/go-shmem/internal/allocator"
)

type testPayload struct {
	Val1 int32
	Val2 float32
	Val3 [12]byte
}

func openPayloadSegment(t *testing.T, name string) *Segment {
	seg, err := New(name).WithSize(int(unsafe.Sizeof(testPayload{}))).Open()
	require.NoError(t, err)
	return seg
}

func TestBoxedOwnerRelease(t *testing.T) {
	a := assert.New(t)
	name := testSegmentName()
	defer Unlink(name)
	box := Boxed[testPayload](openPayloadSegment(t, name))
	box.Get().Val1 = 42
	a.Equal(int32(42), box.Get().Val1)
	a.NoError(box.Close())

	// the owning handle's release removed the object.
	seg := openPayloadSegment(t, name)
	a.True(seg.IsOwner())
	a.NoError(seg.Destroy())
}

func TestBoxedBorrowerRelease(t *testing.T) {
	a := assert.New(t)
	name := testSegmentName()
	defer Unlink(name)
	owner := Boxed[testPayload](openPayloadSegment(t, name))
	owner.Get().Val1 = 7

	borrower := Boxed[testPayload](openPayloadSegment(t, name))
	a.Equal(int32(7), borrower.Get().Val1)
	a.NoError(borrower.Close())

	// a borrower's release keeps the object and its content.
	another := openPayloadSegment(t, name)
	a.False(another.IsOwner())
	a.NoError(another.Close())
	a.NoError(owner.Close())
}

func TestBoxLeak(t *testing.T) {
	a := assert.New(t)
	name := testSegmentName()
	defer Unlink(name)
	box := Boxed[testPayload](openPayloadSegment(t, name))
	box.Get().Val1 = 11
	ptr := box.Leak()
	a.Equal(int32(11), ptr.Val1)
	// no release logic runs for a leaked handle.
	a.NoError(box.Close())

	// the object survived the owning handle, and the leaked pointer
	// still aliases live memory.
	seg := openPayloadSegment(t, name)
	a.False(seg.IsOwner())
	reopened := Boxed[testPayload](seg)
	a.Equal(int32(11), reopened.Get().Val1)
	reopened.Get().Val1 = 13
	a.Equal(int32(13), ptr.Val1)

	// pick ownership back up to tear the segment down.
	reopened.Own()
	a.NoError(reopened.Close())
	fresh := openPayloadSegment(t, name)
	a.True(fresh.IsOwner())
	a.NoError(fresh.Destroy())
}

func TestBoxOwnIdempotent(t *testing.T) {
	a := assert.New(t)
	name := testSegmentName()
	defer Unlink(name)
	creator := Boxed[testPayload](openPayloadSegment(t, name))
	creator.Leak()

	borrower := Boxed[testPayload](openPayloadSegment(t, name))
	borrower.Own()
	borrower.Own()
	a.NoError(borrower.Close())

	// the borrower became the owner, so its release removed the object.
	fresh := openPayloadSegment(t, name)
	a.True(fresh.IsOwner())
	a.NoError(fresh.Destroy())
}

func TestBoxOwnAfterLeak(t *testing.T) {
	a := assert.New(t)
	name := testSegmentName()
	defer Unlink(name)
	box := Boxed[testPayload](openPayloadSegment(t, name))
	box.Leak()
	// a leaked handle is out of the game for good.
	box.Own()
	a.NoError(box.Close())

	seg := openPayloadSegment(t, name)
	a.False(seg.IsOwner())
	a.NoError(seg.Destroy())
}

func TestBoxInitializedFromBytes(t *testing.T) {
	a := assert.New(t)
	name := testSegmentName()
	defer Unlink(name)
	value := testPayload{Val1: -3, Val2: 1.5, Val3: [12]byte{1, 2, 3}}
	seg := openPayloadSegment(t, name)
	require.NoError(t, allocator.Alloc(seg.Data(), &value))

	box := Boxed[testPayload](seg)
	a.Equal(value, *box.Get())
	a.Equal(int(unsafe.Sizeof(testPayload{})), len(box.Bytes()))
	a.NoError(box.Close())
}

func TestCheckShareable(t *testing.T) {
	a := assert.New(t)
	a.NoError(CheckShareable(testPayload{}))
	a.NoError(CheckShareable(int64(0)))
	a.Error(CheckShareable(struct{ p *int }{}))
	a.Error(CheckShareable(struct{ s string }{}))
	a.Error(CheckShareable("str"))
}
