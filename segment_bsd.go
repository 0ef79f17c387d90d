// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build darwin || freebsd
// +build darwin freebsd

package shmem

import (
	"fmt"
	"os"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

const maxNameLen = 30

func shmName(name string) (string, error) {
	// workaround from http://www.opensource.apple.com/source/Libc/Libc-320/sys/shm_open.c
	if runtime.GOOS == "darwin" {
		withUID := fmt.Sprintf("%s\t%d", name, unix.Geteuid())
		if len(withUID) < maxNameLen {
			name = withUID
		}
	}
	return "/" + name, nil
}

func shmOpen(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := shmopen(path, flag|unix.O_CLOEXEC, int(perm))
	if err != nil {
		return nil, err
	}
	return os.NewFile(fd, path), nil
}

func doUnlink(path string) error {
	return shmunlink(path)
}

// syscalls

func shmopen(name string, flags, mode int) (uintptr, error) {
	nameBytes, err := unix.BytePtrFromString(name)
	if err != nil {
		return 0, err
	}
	fd, _, errno := unix.Syscall(unix.SYS_SHM_OPEN, uintptr(unsafe.Pointer(nameBytes)), uintptr(flags), uintptr(mode))
	runtime.KeepAlive(nameBytes)
	if errno != syscall.Errno(0) {
		return 0, &os.PathError{Op: "shm_open", Path: name, Err: errno}
	}
	return fd, nil
}

func shmunlink(name string) error {
	nameBytes, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}
	_, _, errno := unix.Syscall(unix.SYS_SHM_UNLINK, uintptr(unsafe.Pointer(nameBytes)), 0, 0)
	runtime.KeepAlive(nameBytes)
	if errno != syscall.Errno(0) {
		return &os.PathError{Op: "shm_unlink", Path: name, Err: errno}
	}
	return nil
}
