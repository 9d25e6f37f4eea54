// Package inode maps a disk inode's logical blocks onto physical blocks and
// moves bytes through them.
//
// An inode's size fixes exactly which physical blocks it owns: the first
// 28 data blocks hang off direct pointers, the next 128 off one singly
// indirect index block, and the remainder off a doubly indirect block
// whose entries are singly indirect blocks of their own. Nothing here
// allocates; callers hand in the blocks a growth needs and take back the
// blocks a truncation frees.
package inode

import (
	"fmt"

	"github.com/weberc2/easyfs/pkg/math"
	. "github.com/weberc2/easyfs/pkg/types"
)

const (
	IndirectCount = PointersPerBlock
	DirectBound   = DirectBlocksCount
	SinglyBound   = DirectBound + IndirectCount
	DoublyBound   = SinglyBound + IndirectCount*IndirectCount

	// MaxSize is the largest size an inode can index.
	MaxSize = Byte(DoublyBound) * BlockSize
)

// BlockView is the subset of `cache.View` this package needs.
type BlockView interface {
	Read(block Block, offset Byte, f func(p []byte)) error
	Modify(block Block, offset Byte, f func(p []byte)) error
}

// Initialize resets `inode` to an empty inode of type `ft`.
func Initialize(inode *DiskInode, ft FileType) {
	*inode = DiskInode{FileType: ft}
}

// DataBlocks is the number of data blocks `size` bytes occupy.
func DataBlocks(size Byte) Block {
	return Block(math.DivRoundUp(size, BlockSize))
}

// TotalBlocks is the number of data blocks plus the index blocks needed to
// reach them.
func TotalBlocks(size Byte) Block {
	data := DataBlocks(size)
	total := data
	if data > DirectBound {
		total++
	}
	if data > SinglyBound {
		total += math.DivRoundUp(data-SinglyBound, IndirectCount) + 1
	}
	return total
}

// BlocksNeeded is the number of blocks `IncreaseSize` must be handed to grow
// `inode` to `newSize`.
func BlocksNeeded(inode *DiskInode, newSize Byte) Block {
	if newSize < inode.Size {
		panic(fmt.Sprintf(
			"shrinking inode from `%d` to `%d` bytes",
			inode.Size,
			newSize,
		))
	}
	return TotalBlocks(newSize) - TotalBlocks(inode.Size)
}

func checkSize(size Byte) {
	if size > MaxSize {
		panic(fmt.Sprintf(
			"inode size `%d` exceeds the maximum `%d`",
			size,
			MaxSize,
		))
	}
}
