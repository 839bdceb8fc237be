package cache

import "encoding/binary"

// murmurHash32 MurmurHash2的32位版本,seed为0时与Nginx Lua的实现一致
func murmurHash32(data []byte, seed uint32) uint32 {
	const m uint32 = 0x5bd1e995
	const r = 24

	h := seed ^ uint32(len(data))
	n := len(data) / 4 * 4
	for i := 0; i < n; i += 4 {
		k := binary.LittleEndian.Uint32(data[i:])
		k *= m
		k ^= k >> r
		k *= m
		h *= m
		h ^= k
	}

	tail := data[n:]
	switch len(tail) {
	case 3:
		h ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		h ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		h ^= uint32(tail[0])
		h *= m
	}

	h ^= h >> 13
	h *= m
	h ^= h >> 15
	return h
}
