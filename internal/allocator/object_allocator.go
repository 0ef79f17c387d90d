// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package allocator provides unchecked conversions between typed
// objects and raw bytes of shared memory mappings.
package allocator

import (
	"fmt"
	"reflect"
	"runtime"
	"unsafe"
)

// ObjectData returns the bytes backing the given object. The object
// must be a pointer or a slice, and the underlying type must be free
// of references, see CheckObjectReferences. The returned slice aliases
// the object's memory, it is not a copy.
func ObjectData(object interface{}) ([]byte, error) {
	value := reflect.ValueOf(object)
	var addr unsafe.Pointer
	var size int
	switch value.Kind() {
	case reflect.Ptr:
		if value.IsNil() {
			return nil, fmt.Errorf("nil pointer")
		}
		if err := checkType(value.Type().Elem(), 1); err != nil {
			return nil, err
		}
		addr = unsafe.Pointer(value.Pointer())
		size = int(value.Type().Elem().Size())
	case reflect.Slice:
		if err := checkType(value.Type(), 0); err != nil {
			return nil, err
		}
		if value.Len() == 0 {
			return nil, nil
		}
		addr = unsafe.Pointer(value.Pointer())
		size = value.Len() * int(value.Type().Elem().Size())
	default:
		return nil, fmt.Errorf("expected a pointer or a slice, got %q", value.Kind().String())
	}
	return ByteSliceFromPointer(addr, size), nil
}

// Alloc copies the object's underlying bytes into memory. The object
// must satisfy the requirements of ObjectData. It is used to stage an
// initial value into a mapping before typed access begins.
func Alloc(memory []byte, object interface{}) error {
	data, err := ObjectData(object)
	if err != nil {
		return err
	}
	if len(data) > len(memory) {
		return fmt.Errorf("an object of %d bytes does not fit into %d bytes of memory", len(data), len(memory))
	}
	copy(memory, data)
	runtime.KeepAlive(object)
	return nil
}

// ByteSliceFromPointer returns a slice of size bytes aliasing the
// memory at addr.
func ByteSliceFromPointer(addr unsafe.Pointer, size int) []byte {
	return unsafe.Slice((*byte)(addr), size)
}

// CheckObjectReferences checks if an object of this type can be copied
// byte by byte into memory shared with other processes. The type must
// not contain reference types like maps, strings, channels and so on.
// Slices and pointers are allowed at the top level only.
func CheckObjectReferences(object interface{}) error {
	if object == nil {
		return fmt.Errorf("nil object")
	}
	return checkType(reflect.TypeOf(object), 0)
}

func checkType(t reflect.Type, depth int) error {
	kind := t.Kind()
	if kind == reflect.Array {
		return checkType(t.Elem(), depth+1)
	}
	if kind == reflect.Slice || kind == reflect.Ptr {
		if depth != 0 {
			return fmt.Errorf("unexpected %q type", kind.String())
		}
		return checkType(t.Elem(), depth+1)
	}
	if kind == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if err := checkType(field.Type, depth+1); err != nil {
				return fmt.Errorf("field %s: %v", field.Name, err)
			}
		}
		return nil
	}
	return checkNumericType(kind)
}

func checkNumericType(kind reflect.Kind) error {
	if kind >= reflect.Bool && kind <= reflect.Complex128 {
		return nil
	}
	if kind == reflect.UnsafePointer {
		return nil
	}
	return fmt.Errorf("unsupported type %q", kind.String())
}
