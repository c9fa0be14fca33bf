package mapper

import "github.com/masarunakajima/methylign/internal/seq"

// GetHash builds the seed hash key from keyWeight bases of an encoded
// read starting at readStart.
func GetHash(encoded seq.EncodedRead, readStart, keyWeight int) uint32 {
	return seq.Hash(encoded, readStart, keyWeight)
}

// ShiftHash slides the key window forward by one base.
func ShiftHash(key uint32, keyWeight int, nextBase byte) uint32 {
	return seq.ShiftHash(key, keyWeight, nextBase)
}
