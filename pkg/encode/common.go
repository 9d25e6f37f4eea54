// Package encode converts the on-disk little-endian records to and from
// their in-memory types.
package encode

import (
	"encoding/binary"

	. "github.com/weberc2/easyfs/pkg/types"
)

func putU32(b []byte, start Byte, u uint32) {
	binary.LittleEndian.PutUint32(b[start:start+4], u)
}

func getU32(b []byte, start Byte) uint32 {
	return binary.LittleEndian.Uint32(b[start : start+4])
}

func EncodeBlock(block Block, b *[BlockPointerSize]byte) {
	putU32(b[:], 0, uint32(block))
}

func DecodeBlock(b *[BlockPointerSize]byte) Block {
	return Block(getU32(b[:], 0))
}

// PutBlockPointer writes the `i`th pointer of an index block.
func PutBlockPointer(p []byte, i Block, block Block) {
	putU32(p, Byte(i)*BlockPointerSize, uint32(block))
}

func GetBlockPointer(p []byte, i Block) Block {
	return Block(getU32(p, Byte(i)*BlockPointerSize))
}
