package types

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	SuperblockMagic uint32 = 0x3b800001

	// InodesPerBitmapBlock is the number of inode slots one inode bitmap
	// block accounts for.
	InodesPerBitmapBlock = BitsPerBlock
)

// Superblock is block 0 of an image. The five region sizes always sum to
// `TotalBlocks`; the super-block itself is the first region.
type Superblock struct {
	TotalBlocks       Block
	InodeBitmapBlocks Block
	InodeAreaBlocks   Block
	DataBitmapBlocks  Block
	DataAreaBlocks    Block
	VolumeID          uuid.UUID
}

func (sb Superblock) InodeBitmapStart() Block { return 1 }

func (sb Superblock) InodeAreaStart() Block {
	return 1 + sb.InodeBitmapBlocks
}

func (sb Superblock) DataBitmapStart() Block {
	return sb.InodeAreaStart() + sb.InodeAreaBlocks
}

func (sb Superblock) DataAreaStart() Block {
	return sb.DataBitmapStart() + sb.DataBitmapBlocks
}

// Validate checks that the regions tile the image exactly.
func (sb Superblock) Validate() error {
	sum := uint64(1) +
		uint64(sb.InodeBitmapBlocks) +
		uint64(sb.InodeAreaBlocks) +
		uint64(sb.DataBitmapBlocks) +
		uint64(sb.DataAreaBlocks)
	if sum != uint64(sb.TotalBlocks) {
		return fmt.Errorf(
			"validating superblock: regions cover `%d` blocks; total is "+
				"`%d`: %w",
			sum,
			sb.TotalBlocks,
			CorruptSuperblockErr,
		)
	}
	if sb.InodeBitmapBlocks < 1 || sb.DataBitmapBlocks < 1 {
		return fmt.Errorf(
			"validating superblock: empty bitmap region: %w",
			CorruptSuperblockErr,
		)
	}
	if uint64(sb.DataAreaBlocks) > uint64(sb.DataBitmapBlocks)*BitsPerBlock {
		return fmt.Errorf(
			"validating superblock: `%d` data blocks exceed the data "+
				"bitmap: %w",
			sb.DataAreaBlocks,
			CorruptSuperblockErr,
		)
	}
	return nil
}

type ErrBadMagic struct {
	Found uint32
}

func (err ErrBadMagic) Error() string {
	return fmt.Sprintf(
		"bad magic: wanted `%#x`; found `%#x`",
		SuperblockMagic,
		err.Found,
	)
}

func (err ErrBadMagic) Is(other error) bool { return other == BadMagicErr }

const (
	BadMagicErr          ConstError = "bad magic"
	CorruptSuperblockErr ConstError = "corrupt superblock"
)
