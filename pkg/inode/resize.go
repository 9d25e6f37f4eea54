package inode

import (
	"fmt"

	"github.com/weberc2/easyfs/pkg/math"
	. "github.com/weberc2/easyfs/pkg/types"
)

// IncreaseSize grows `inode` to `newSize`, threading `newBlocks` (exactly
// `BlocksNeeded(inode, newSize)` of them) into the index in order: data
// blocks and index blocks alike are consumed as the walk first needs them.
// The new blocks must be zeroed.
func IncreaseSize(
	inode *DiskInode,
	newSize Byte,
	newBlocks []Block,
	view BlockView,
) error {
	checkSize(newSize)
	if needed := BlocksNeeded(inode, newSize); Block(len(newBlocks)) != needed {
		panic(fmt.Sprintf(
			"growing inode to `%d` bytes: wanted `%d` blocks; found `%d`",
			newSize,
			needed,
			len(newBlocks),
		))
	}

	next := func() Block {
		block := newBlocks[0]
		newBlocks = newBlocks[1:]
		return block
	}

	current := DataBlocks(inode.Size)
	inode.Size = newSize
	total := DataBlocks(newSize)

	for ; current < math.Min(total, DirectBound); current++ {
		inode.DirectBlocks[current] = next()
	}

	if total <= DirectBound {
		return nil
	}
	if current == DirectBound {
		inode.SinglyIndirectBlock = next()
	}
	current -= DirectBound
	total -= DirectBound

	for ; current < math.Min(total, IndirectCount); current++ {
		if err := writePointer(
			view,
			inode.SinglyIndirectBlock,
			current,
			next(),
		); err != nil {
			return fmt.Errorf("growing inode to `%d`: %w", newSize, err)
		}
	}

	if total <= IndirectCount {
		return nil
	}
	if current == IndirectCount {
		inode.DoublyIndirectBlock = next()
	}
	current -= IndirectCount
	total -= IndirectCount

	for ; current < total; current++ {
		outer, inner := current/IndirectCount, current%IndirectCount
		if inner == 0 {
			if err := writePointer(
				view,
				inode.DoublyIndirectBlock,
				outer,
				next(),
			); err != nil {
				return fmt.Errorf("growing inode to `%d`: %w", newSize, err)
			}
		}
		singly, err := readPointer(view, inode.DoublyIndirectBlock, outer)
		if err != nil {
			return fmt.Errorf("growing inode to `%d`: %w", newSize, err)
		}
		if err := writePointer(view, singly, inner, next()); err != nil {
			return fmt.Errorf("growing inode to `%d`: %w", newSize, err)
		}
	}
	return nil
}

// ClearSize empties `inode` and returns every block it owned: exactly
// `TotalBlocks` of its old size, data and index blocks together. The
// returned blocks still hold their old contents.
func ClearSize(inode *DiskInode, view BlockView) ([]Block, error) {
	data := DataBlocks(inode.Size)
	blocks := make([]Block, 0, TotalBlocks(inode.Size))
	cleared := *inode
	Initialize(inode, inode.FileType)

	blocks = append(blocks, cleared.DirectBlocks[:math.Min(data, DirectBound)]...)
	if data <= DirectBound {
		return blocks, nil
	}
	data -= DirectBound

	singly, err := readPointers(
		view,
		cleared.SinglyIndirectBlock,
		math.Min(data, IndirectCount),
	)
	if err != nil {
		*inode = cleared
		return nil, fmt.Errorf("clearing inode: %w", err)
	}
	blocks = append(blocks, cleared.SinglyIndirectBlock)
	blocks = append(blocks, singly...)
	if data <= IndirectCount {
		return blocks, nil
	}
	data -= IndirectCount

	outers, err := readPointers(
		view,
		cleared.DoublyIndirectBlock,
		math.DivRoundUp(data, IndirectCount),
	)
	if err != nil {
		*inode = cleared
		return nil, fmt.Errorf("clearing inode: %w", err)
	}
	blocks = append(blocks, cleared.DoublyIndirectBlock)
	for _, outer := range outers {
		inners, err := readPointers(view, outer, math.Min(data, IndirectCount))
		if err != nil {
			*inode = cleared
			return nil, fmt.Errorf("clearing inode: %w", err)
		}
		blocks = append(blocks, outer)
		blocks = append(blocks, inners...)
		data -= Block(len(inners))
	}
	return blocks, nil
}
