// Package alloc hands out indices from on-disk bitmaps.
package alloc

import (
	"fmt"

	. "github.com/weberc2/easyfs/pkg/types"
)

const bitsPerByte = 8

const OutOfSpaceErr ConstError = "bitmap has no free bits"

// BlockView is the subset of `cache.View` the allocator needs.
type BlockView interface {
	Read(block Block, offset Byte, f func(p []byte)) error
	Modify(block Block, offset Byte, f func(p []byte)) error
}

// Bitmap is a run of `Blocks` bitmap blocks starting at `Start`. Bit `i` of
// byte `j` in bitmap block `b` is index `b*4096 + j*8 + i`. Only indices
// below `Limit` are ever handed out.
type Bitmap struct {
	Start  Block
	Blocks Block
	Limit  uint64
}

// Maximum is the number of bits the bitmap blocks hold, which may exceed
// `Limit`.
func (bm *Bitmap) Maximum() uint64 {
	return uint64(bm.Blocks) * BitsPerBlock
}

// Alloc sets and returns the lowest clear index. Indices are handed out
// first-fit, so every index below the result is set.
func (bm *Bitmap) Alloc(view BlockView) (uint64, error) {
	for b := Block(0); b < bm.Blocks; b++ {
		var (
			i     int
			bit   uint8
			found bool
		)
		if err := view.Read(bm.Start+b, 0, func(p []byte) {
			i, bit, found = bytesFirstZero(p)
		}); err != nil {
			return 0, fmt.Errorf("allocating from bitmap: %w", err)
		}
		if !found {
			continue
		}

		index := uint64(b)*BitsPerBlock + uint64(i*bitsPerByte) + uint64(bit)
		if index >= bm.Limit {
			break
		}
		if err := view.Modify(bm.Start+b, 0, func(p []byte) {
			p[i] = byteSetHigh(p[i], bit)
		}); err != nil {
			return 0, fmt.Errorf("allocating index `%d`: %w", index, err)
		}
		return index, nil
	}
	return 0, fmt.Errorf("allocating from bitmap: %w", OutOfSpaceErr)
}

// Free clears `index`. Freeing an index that isn't allocated panics.
func (bm *Bitmap) Free(view BlockView, index uint64) error {
	bm.checkIndex(index)
	block, i, bit := bm.locate(index)
	if err := view.Modify(block, 0, func(p []byte) {
		if byteIsZero(p[i], bit) {
			panic(fmt.Sprintf("freeing unallocated index `%d`", index))
		}
		p[i] = byteSetLow(p[i], bit)
	}); err != nil {
		return fmt.Errorf("freeing index `%d`: %w", index, err)
	}
	return nil
}

func (bm *Bitmap) IsSet(view BlockView, index uint64) (bool, error) {
	bm.checkIndex(index)
	block, i, bit := bm.locate(index)
	var set bool
	if err := view.Read(block, 0, func(p []byte) {
		set = !byteIsZero(p[i], bit)
	}); err != nil {
		return false, fmt.Errorf("checking index `%d`: %w", index, err)
	}
	return set, nil
}

// Used counts the allocated indices.
func (bm *Bitmap) Used(view BlockView) (uint64, error) {
	var used uint64
	for b := Block(0); b < bm.Blocks; b++ {
		if err := view.Read(bm.Start+b, 0, func(p []byte) {
			for _, byt := range p[:BlockSize] {
				used += uint64(byteOnes(byt))
			}
		}); err != nil {
			return 0, fmt.Errorf("counting bitmap block `%d`: %w", b, err)
		}
	}
	return used, nil
}

func (bm *Bitmap) locate(index uint64) (Block, int, uint8) {
	return bm.Start + Block(index/BitsPerBlock),
		int(index % BitsPerBlock / bitsPerByte),
		uint8(index % bitsPerByte)
}

func (bm *Bitmap) checkIndex(index uint64) {
	if index >= bm.Limit {
		panic(fmt.Sprintf(
			"bitmap index `%d` out of range `%d`",
			index,
			bm.Limit,
		))
	}
}
