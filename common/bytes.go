package common

import (
	"fmt"
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// BytesToSlice copies a raw byte slice into a newly allocated slice of T.
// It is the inverse of SliceToBytes and is used when reading buffers back from a device.
//
// Parameters:
//   - data: the raw bytes, whose length must be a multiple of the size of T
//
// Returns:
//   - []T: a new slice holding the decoded elements
//   - error: an error if the byte length is not a multiple of the element size
func BytesToSlice[T any](data []byte) ([]T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || len(data)%size != 0 {
		return nil, fmt.Errorf("byte length %d is not a multiple of element size %d", len(data), size)
	}
	out := make([]T, len(data)/size)
	if len(out) == 0 {
		return out, nil
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(data)), data)
	return out, nil
}
