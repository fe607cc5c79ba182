package sdspi

import "golang.org/x/exp/constraints"

// alignUp rounds val up to the nearest multiple of align, both assumed
// to be block sizes rather than arbitrary values. Used to size buffers
// for callers that request a byte count instead of a block count.
func alignUp[T constraints.Unsigned](val, align T) T {
	return (val + align - 1) &^ (align - 1)
}

// BlocksForBytes returns the number of 512-byte blocks needed to hold n
// bytes, rounding up.
func BlocksForBytes(n uint32) uint32 {
	return alignUp(n, 512) / 512
}
