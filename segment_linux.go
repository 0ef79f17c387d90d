// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build linux
// +build linux

package shmem

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	maxNameLen     = 255
	defaultShmPath = "/dev/shm/"

	shmfsSuperMagic = 0x01021994
	ramfsMagic      = 0x858458f6
)

var (
	shmPathOnce sync.Once
	shmPath     string
)

// glibc/sysdeps/posix/shm_open.c
func shmOpen(path string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, flag, perm)
}

func doUnlink(path string) error {
	return os.Remove(path)
}

// glibc/sysdeps/posix/shm-directory.h
func shmName(name string) (string, error) {
	name = strings.TrimLeft(name, "/")
	if len(name) == 0 || len(name) >= maxNameLen || strings.Contains(name, "/") {
		return "", errors.New("invalid segment name")
	}
	dir, err := shmDirectory()
	if err != nil {
		return "", errors.Wrap(err, "error locating the shared memory directory")
	}
	return dir + name, nil
}

func shmDirectory() (string, error) {
	shmPathOnce.Do(func() {
		if checkShmPath(defaultShmPath) {
			shmPath = defaultShmPath
		} else {
			shmPath = shmFsFromMounts()
		}
	})
	if len(shmPath) == 0 {
		return "", errors.New("no shared memory filesystem is mounted")
	}
	return shmPath, nil
}

func checkShmPath(path string) bool {
	if len(path) == 0 {
		return false
	}
	var statfs unix.Statfs_t
	if err := unix.Statfs(path, &statfs); err != nil {
		return false
	}
	// statfs.Type has different types on different platforms,
	// so the conversion is not redundant.
	fsType := int64(statfs.Type)
	return fsType == shmfsSuperMagic || fsType == ramfsMagic
}

// glibc/sysdeps/unix/sysv/linux/shm-directory.c
func shmFsFromMounts() string {
	file, err := os.Open("/proc/mounts")
	if err != nil {
		if file, err = os.Open("/etc/fstab"); err != nil {
			return ""
		}
	}
	defer file.Close()
	return shmFsFromReader(file)
}

func shmFsFromReader(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fsType := fields[2]; fsType != "tmpfs" && fsType != "shm" {
			continue
		}
		dir := fields[1]
		if !strings.HasSuffix(dir, "/") {
			dir += "/"
		}
		if checkShmPath(dir) {
			return dir
		}
	}
	return ""
}
