package inode

import (
	"fmt"

	"github.com/weberc2/easyfs/pkg/math"
	. "github.com/weberc2/easyfs/pkg/types"
)

// ReadAt copies the bytes of `inode` starting at `offset` into `p`, stopping
// at the end of the data. It returns the number of bytes read.
func ReadAt(
	inode *DiskInode,
	offset Byte,
	p []byte,
	view BlockView,
) (int, error) {
	end := math.Min(offset+Byte(len(p)), inode.Size)
	if offset >= end {
		return 0, nil
	}
	return fragments(inode, offset, end, p, view, func(
		block Block,
		start Byte,
		dst []byte,
	) error {
		return view.Read(block, start, func(b []byte) { copy(dst, b) })
	})
}

// WriteAt copies `p` into `inode` at `offset`. The byte range must already
// lie within the inode's size.
func WriteAt(
	inode *DiskInode,
	offset Byte,
	p []byte,
	view BlockView,
) (int, error) {
	end := offset + Byte(len(p))
	if end > inode.Size {
		panic(fmt.Sprintf(
			"writing bytes `%d..%d` past the inode size `%d`",
			offset,
			end,
			inode.Size,
		))
	}
	if offset >= end {
		return 0, nil
	}
	return fragments(inode, offset, end, p, view, func(
		block Block,
		start Byte,
		src []byte,
	) error {
		return view.Modify(block, start, func(b []byte) { copy(b, src) })
	})
}

// fragments splits `offset..end` at block boundaries and calls `f` once per
// piece with the physical block, the offset within it, and the matching
// window of `p`.
func fragments(
	inode *DiskInode,
	offset Byte,
	end Byte,
	p []byte,
	view BlockView,
	f func(block Block, start Byte, window []byte) error,
) (int, error) {
	var done int
	for start := offset; start < end; {
		next := math.Min((start/BlockSize+1)*BlockSize, end)
		n := int(next - start)
		block, err := BlockID(inode, Block(start/BlockSize), view)
		if err != nil {
			return done, fmt.Errorf("transferring byte `%d`: %w", start, err)
		}
		if err := f(block, start%BlockSize, p[done:done+n]); err != nil {
			return done, fmt.Errorf(
				"transferring byte `%d` of block `%d`: %w",
				start,
				block,
				err,
			)
		}
		done += n
		start = next
	}
	return done, nil
}
