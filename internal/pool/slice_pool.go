package pool

import "sync"

// int64SlicePool reuses the backing arrays GetInt64Slice hands out.
// monotonic takes one slice per field to buffer a doc-values sequence
// before computing its min/avgInc fit and bit-packing the residuals.
var int64SlicePool = sync.Pool{
	New: func() any { return &[]int64{} },
}

// GetInt64Slice retrieves an int64 slice from the pool, resized to length
// size (allocating a new one if the pooled backing array's capacity is
// insufficient). The caller must call the returned cleanup function
// (typically via defer) to return the slice to the pool.
func GetInt64Slice(size int) ([]int64, func()) {
	ptr, _ := int64SlicePool.Get().(*[]int64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]int64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { int64SlicePool.Put(ptr) }
}
