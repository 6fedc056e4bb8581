package search

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// DeriveSeed returns the seed of the index-th independent stream under base.
// It depends only on its arguments, so work may be scheduled in any order.
func DeriveSeed(base uint64, index int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], base)
	binary.LittleEndian.PutUint64(buf[8:], uint64(index))
	return xxhash.Sum64(buf[:])
}

// DeriveSeedKey returns the seed of the stream named key under base.
func DeriveSeedKey(base uint64, key string) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], base)
	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(key)
	return d.Sum64()
}
