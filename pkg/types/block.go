package types

// Block is the index of a 512-byte block on a device.
type Block uint32

// Byte is a byte offset or length.
type Byte uint64

const (
	BlockSize        Byte = 512
	BlockPointerSize Byte = 4
	BitsPerBlock          = uint64(BlockSize) * 8

	// PointersPerBlock is the number of block pointers an index block holds.
	PointersPerBlock = Block(BlockSize / BlockPointerSize)

	BlockNil Block = 0
)
