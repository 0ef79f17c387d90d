// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"unsafe"

	"github.com/nxgtw/go-shmem"
	testutil "github.com/nxgtw/go-shmem/internal/test"
)

var (
	objName = flag.String("object", "", "segment name")
	objSize = flag.Int("size", int(unsafe.Sizeof(int32(0))), "segment size in bytes")
)

const usage = `  test program for typed shared memory handles.
available commands:
  create {value}             create the segment, write the int32 value, leak the handle
  mutate {expected} {value}  open the segment, check the current value, write a new one, leak
  read                       open the segment and print the current int32 value
  write {offset} {bytes}     open the segment and write bytes at the given offset
  test {offset} {bytes}      open the segment and compare its contents at the given offset
  destroy                    open the segment, claim ownership and release it
byte arrays should be passed as a continuous string of 2-symbol hex byte values like '01020A'
`

func open() (*shmem.Segment, error) {
	return shmem.New(*objName).WithSize(*objSize).Open()
}

func create() error {
	if flag.NArg() != 2 {
		return fmt.Errorf("create: must provide exactly one argument")
	}
	value, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	seg, err := open()
	if err != nil {
		return err
	}
	if !seg.IsOwner() {
		seg.Close()
		return fmt.Errorf("create: segment %q already exists", *objName)
	}
	box := shmem.Boxed[int32](seg)
	*box.Get() = int32(value)
	box.Leak()
	return nil
}

func mutate() error {
	if flag.NArg() != 3 {
		return fmt.Errorf("mutate: must provide exactly two arguments")
	}
	expected, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	value, err := strconv.Atoi(flag.Arg(2))
	if err != nil {
		return err
	}
	seg, err := open()
	if err != nil {
		return err
	}
	if seg.IsOwner() {
		seg.Destroy()
		return fmt.Errorf("mutate: segment %q did not exist", *objName)
	}
	box := shmem.Boxed[int32](seg)
	if actual := *box.Get(); actual != int32(expected) {
		box.Close()
		return fmt.Errorf("mutate: expected value %d, got %d", expected, actual)
	}
	*box.Get() = int32(value)
	box.Leak()
	return nil
}

func read() error {
	if flag.NArg() != 1 {
		return fmt.Errorf("read: must not provide any arguments")
	}
	seg, err := open()
	if err != nil {
		return err
	}
	box := shmem.Boxed[int32](seg)
	fmt.Println(*box.Get())
	return box.Close()
}

func write() error {
	if flag.NArg() != 3 {
		return fmt.Errorf("write: must provide exactly two arguments")
	}
	offset, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	data, err := testutil.StringToBytes(flag.Arg(2))
	if err != nil {
		return err
	}
	seg, err := open()
	if err != nil {
		return err
	}
	defer seg.Close()
	writer := shmem.NewSegmentWriter(seg)
	if written, err := writer.WriteAt(data, int64(offset)); err != nil || written != len(data) {
		return fmt.Errorf("write: wrote %d of %d bytes, error: %v", written, len(data), err)
	}
	return seg.Flush(false)
}

func test() error {
	if flag.NArg() != 3 {
		return fmt.Errorf("test: must provide exactly two arguments")
	}
	offset, err := strconv.Atoi(flag.Arg(1))
	if err != nil {
		return err
	}
	data, err := testutil.StringToBytes(flag.Arg(2))
	if err != nil {
		return err
	}
	seg, err := open()
	if err != nil {
		return err
	}
	defer seg.Close()
	actual := make([]byte, len(data))
	reader := shmem.NewSegmentReader(seg)
	if read, err := reader.ReadAt(actual, int64(offset)); err != nil || read != len(data) {
		return fmt.Errorf("test: read %d of %d bytes, error: %v", read, len(data), err)
	}
	for i, value := range actual {
		if value != data[i] {
			return fmt.Errorf("test: invalid value at %d. expected '%d', got '%d'", i, data[i], value)
		}
	}
	return nil
}

func destroy() error {
	if flag.NArg() != 1 {
		return fmt.Errorf("destroy: must not provide any arguments")
	}
	seg, err := open()
	if err != nil {
		return err
	}
	box := shmem.Boxed[int32](seg)
	box.Own()
	return box.Close()
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Print(usage)
		os.Exit(1)
	}
	var err error
	switch flag.Arg(0) {
	case "create":
		err = create()
	case "mutate":
		err = mutate()
	case "read":
		err = read()
	case "write":
		err = write()
	case "test":
		err = test()
	case "destroy":
		err = destroy()
	default:
		err = fmt.Errorf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
