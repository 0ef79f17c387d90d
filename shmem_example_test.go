// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd || linux
// +build darwin freebsd linux

package shmem

import (
	"unsafe"
)

func ExampleBoxed() {
	type Message struct {
		ID      int32
		Urgent  bool
		Payload [16]byte
	}
	// cleanup a possible leftover from a previous run.
	Unlink("example-msg")
	seg, err := New("example-msg").WithSize(int(unsafe.Sizeof(Message{}))).Open()
	if err != nil {
		panic("open")
	}
	// the first opener creates the segment and owns it.
	if !seg.IsOwner() {
		panic("not an owner")
	}
	box := Boxed[Message](seg)
	box.Get().ID = 1
	box.Get().Urgent = true
	// an owning Close removes the segment from the system namespace.
	if err := box.Close(); err != nil {
		panic("close")
	}
}

func ExampleBox_Leak() {
	// cleanup a possible leftover from a previous run.
	Unlink("example-counter")
	seg, err := New("example-counter").WithSize(int(unsafe.Sizeof(int64(0)))).Open()
	if err != nil {
		panic("open")
	}
	box := Boxed[int64](seg)
	*box.Get() = 42
	// Leak suppresses all cleanup: the segment outlives the handle
	// and can be picked up later, possibly by another process.
	ptr := box.Leak()
	_ = ptr

	// another handle reopens the segment, claims ownership
	// and finally tears it down.
	seg2, err := New("example-counter").WithSize(int(unsafe.Sizeof(int64(0)))).Open()
	if err != nil {
		panic("reopen")
	}
	box2 := Boxed[int64](seg2)
	if *box2.Get() != 42 {
		panic("lost value")
	}
	box2.Own()
	if err := box2.Close(); err != nil {
		panic("close")
	}
}
