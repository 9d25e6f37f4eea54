package fs

import (
	"fmt"

	"github.com/google/uuid"
	. "github.com/weberc2/easyfs/pkg/types"
)

// Layout computes the super-block for an image of `totalBlocks` blocks with
// `inodeBitmapBlocks` blocks of inode bitmap. Every inode bit maps to a
// slot in the inode area, and the data bitmap is just large enough to
// cover the data area that follows it.
func Layout(
	totalBlocks Block,
	inodeBitmapBlocks Block,
	volumeID uuid.UUID,
) (Superblock, error) {
	if inodeBitmapBlocks < 1 {
		return Superblock{}, fmt.Errorf(
			"laying out `%d` blocks: inode bitmap must span at least one "+
				"block: %w",
			totalBlocks,
			InvalidGeometryErr,
		)
	}

	inodeArea := uint64(inodeBitmapBlocks) * InodesPerBitmapBlock *
		uint64(InodeSize) / uint64(BlockSize)
	reserved := 1 + uint64(inodeBitmapBlocks) + inodeArea

	// one data bitmap block plus at least one data block
	if uint64(totalBlocks) < reserved+2 {
		return Superblock{}, fmt.Errorf(
			"laying out `%d` blocks: `%d` inode bitmap blocks need at "+
				"least `%d`: %w",
			totalBlocks,
			inodeBitmapBlocks,
			reserved+2,
			InvalidGeometryErr,
		)
	}

	dataTotal := uint64(totalBlocks) - reserved
	dataBitmap := (dataTotal + BitsPerBlock) / (BitsPerBlock + 1)
	return Superblock{
		TotalBlocks:       totalBlocks,
		InodeBitmapBlocks: inodeBitmapBlocks,
		InodeAreaBlocks:   Block(inodeArea),
		DataBitmapBlocks:  Block(dataBitmap),
		DataAreaBlocks:    Block(dataTotal - dataBitmap),
		VolumeID:          volumeID,
	}, nil
}
