package inode

import (
	"fmt"

	"github.com/weberc2/easyfs/pkg/encode"
	. "github.com/weberc2/easyfs/pkg/types"
)

type level int

const (
	levelDirect level = iota
	levelSingly
	levelDoubly
	levelOutOfRange
)

func (level level) String() string {
	switch level {
	case levelDirect:
		return "direct"
	case levelSingly:
		return "singly indirect"
	case levelDoubly:
		return "doubly indirect"
	case levelOutOfRange:
		return "out of range"
	default:
		panic(fmt.Sprintf("invalid level: %d", level))
	}
}

func levelOf(inner Block) level {
	switch {
	case inner < DirectBound:
		return levelDirect
	case inner < SinglyBound:
		return levelSingly
	case inner < DoublyBound:
		return levelDoubly
	default:
		return levelOutOfRange
	}
}

// BlockID is the physical block holding the `inner`th data block of
// `inode`.
func BlockID(inode *DiskInode, inner Block, view BlockView) (Block, error) {
	switch levelOf(inner) {
	case levelDirect:
		return inode.DirectBlocks[inner], nil
	case levelSingly:
		block, err := readPointer(
			view,
			inode.SinglyIndirectBlock,
			inner-DirectBound,
		)
		if err != nil {
			return 0, fmt.Errorf("resolving block `%d`: %w", inner, err)
		}
		return block, nil
	case levelDoubly:
		last := inner - SinglyBound
		singly, err := readPointer(
			view,
			inode.DoublyIndirectBlock,
			last/IndirectCount,
		)
		if err != nil {
			return 0, fmt.Errorf("resolving block `%d`: %w", inner, err)
		}
		block, err := readPointer(view, singly, last%IndirectCount)
		if err != nil {
			return 0, fmt.Errorf("resolving block `%d`: %w", inner, err)
		}
		return block, nil
	default:
		panic(fmt.Sprintf(
			"inner block `%d` is %s (limit `%d`)",
			inner,
			levelOutOfRange,
			DoublyBound,
		))
	}
}

func readPointer(view BlockView, index Block, i Block) (Block, error) {
	var block Block
	if err := view.Read(index, 0, func(p []byte) {
		block = encode.GetBlockPointer(p, i)
	}); err != nil {
		return 0, fmt.Errorf(
			"reading pointer `%d` of index block `%d`: %w",
			i,
			index,
			err,
		)
	}
	return block, nil
}

func writePointer(view BlockView, index Block, i Block, block Block) error {
	if err := view.Modify(index, 0, func(p []byte) {
		encode.PutBlockPointer(p, i, block)
	}); err != nil {
		return fmt.Errorf(
			"writing pointer `%d` of index block `%d`: %w",
			i,
			index,
			err,
		)
	}
	return nil
}

func readPointers(view BlockView, index Block, n Block) ([]Block, error) {
	blocks := make([]Block, n)
	if err := view.Read(index, 0, func(p []byte) {
		for i := range blocks {
			blocks[i] = encode.GetBlockPointer(p, Block(i))
		}
	}); err != nil {
		return nil, fmt.Errorf("reading index block `%d`: %w", index, err)
	}
	return blocks, nil
}
