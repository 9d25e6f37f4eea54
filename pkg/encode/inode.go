package encode

import (
	"fmt"

	. "github.com/weberc2/easyfs/pkg/types"
)

func EncodeInode(inode *DiskInode, b *[InodeSize]byte) {
	p := b[:]

	putU32(p, inodeSizeStart, uint32(inode.Size))

	for i := Byte(0); i < Byte(DirectBlocksCount); i++ {
		blockPointerStart := inodeDirectBlocksStart + i*BlockPointerSize
		EncodeBlock(
			inode.DirectBlocks[i],
			(*[BlockPointerSize]byte)(p[blockPointerStart:]),
		)
	}

	EncodeBlock(
		inode.SinglyIndirectBlock,
		(*[BlockPointerSize]byte)(p[inodeSinglyIndStart:inodeSinglyIndEnd]),
	)

	EncodeBlock(
		inode.DoublyIndirectBlock,
		(*[BlockPointerSize]byte)(p[inodeDoublyIndStart:inodeDoublyIndEnd]),
	)

	putU32(p, inodeFileTypeStart, uint32(inode.FileType))
}

func DecodeInode(inode *DiskInode, b *[InodeSize]byte) error {
	p := b[:]

	// validate before touching `inode` so a corrupt slot leaves it intact
	ft := FileType(getU32(p, inodeFileTypeStart))
	if err := ft.Validate(); err != nil {
		return fmt.Errorf("decoding inode: %w", err)
	}

	inode.FileType = ft
	inode.Size = Byte(getU32(p, inodeSizeStart))

	for i := Byte(0); i < Byte(DirectBlocksCount); i++ {
		blockPointerStart := inodeDirectBlocksStart + i*BlockPointerSize
		inode.DirectBlocks[i] = DecodeBlock(
			(*[BlockPointerSize]byte)(p[blockPointerStart:]),
		)
	}

	inode.SinglyIndirectBlock = DecodeBlock(
		(*[BlockPointerSize]byte)(p[inodeSinglyIndStart:inodeSinglyIndEnd]),
	)

	inode.DoublyIndirectBlock = DecodeBlock(
		(*[BlockPointerSize]byte)(p[inodeDoublyIndStart:inodeDoublyIndEnd]),
	)

	return nil
}

const (
	inodeSizeStart Byte = 0
	inodeSizeSize  Byte = 4
	inodeSizeEnd        = inodeSizeStart + inodeSizeSize

	inodeDirectBlocksStart = inodeSizeEnd
	inodeDirectBlocksSize  = Byte(DirectBlocksCount) * BlockPointerSize
	inodeDirectBlocksEnd   = inodeDirectBlocksStart + inodeDirectBlocksSize

	inodeSinglyIndStart = inodeDirectBlocksEnd
	inodeSinglyIndSize  = BlockPointerSize
	inodeSinglyIndEnd   = inodeSinglyIndStart + inodeSinglyIndSize

	inodeDoublyIndStart = inodeSinglyIndEnd
	inodeDoublyIndSize  = BlockPointerSize
	inodeDoublyIndEnd   = inodeDoublyIndStart + inodeDoublyIndSize

	inodeFileTypeStart = inodeDoublyIndEnd
	inodeFileTypeSize  = 4
	inodeFileTypeEnd   = inodeFileTypeStart + inodeFileTypeSize
)
