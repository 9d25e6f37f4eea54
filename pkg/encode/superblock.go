package encode

import (
	"fmt"

	. "github.com/weberc2/easyfs/pkg/types"
)

func EncodeSuperblock(sb *Superblock, b *[BlockSize]byte) {
	p := b[:]
	clear(p)
	putU32(p, superblockMagicStart, SuperblockMagic)
	putU32(p, superblockTotalBlocksStart, uint32(sb.TotalBlocks))
	putU32(p, superblockInodeBitmapStart, uint32(sb.InodeBitmapBlocks))
	putU32(p, superblockInodeAreaStart, uint32(sb.InodeAreaBlocks))
	putU32(p, superblockDataBitmapStart, uint32(sb.DataBitmapBlocks))
	putU32(p, superblockDataAreaStart, uint32(sb.DataAreaBlocks))
	copy(p[superblockVolumeIDStart:superblockVolumeIDEnd], sb.VolumeID[:])
}

// DecodeSuperblock decodes and validates block 0. `sb` is left untouched
// on error.
func DecodeSuperblock(sb *Superblock, b *[BlockSize]byte) error {
	p := b[:]
	if magic := getU32(p, superblockMagicStart); magic != SuperblockMagic {
		return fmt.Errorf(
			"decoding superblock: %w",
			ErrBadMagic{Found: magic},
		)
	}

	var tmp Superblock
	tmp.TotalBlocks = Block(getU32(p, superblockTotalBlocksStart))
	tmp.InodeBitmapBlocks = Block(getU32(p, superblockInodeBitmapStart))
	tmp.InodeAreaBlocks = Block(getU32(p, superblockInodeAreaStart))
	tmp.DataBitmapBlocks = Block(getU32(p, superblockDataBitmapStart))
	tmp.DataAreaBlocks = Block(getU32(p, superblockDataAreaStart))
	copy(tmp.VolumeID[:], p[superblockVolumeIDStart:superblockVolumeIDEnd])
	if err := tmp.Validate(); err != nil {
		return fmt.Errorf("decoding superblock: %w", err)
	}
	*sb = tmp
	return nil
}

const (
	superblockMagicStart       Byte = 0
	superblockTotalBlocksStart Byte = 4
	superblockInodeBitmapStart Byte = 8
	superblockInodeAreaStart   Byte = 12
	superblockDataBitmapStart  Byte = 16
	superblockDataAreaStart    Byte = 20

	superblockVolumeIDStart Byte = 24
	superblockVolumeIDSize  Byte = 16
	superblockVolumeIDEnd        = superblockVolumeIDStart + superblockVolumeIDSize
)
