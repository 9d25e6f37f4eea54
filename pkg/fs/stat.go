package fs

import (
	"fmt"

	"github.com/google/uuid"
	. "github.com/weberc2/easyfs/pkg/types"
)

// Stat summarizes an image's geometry and usage.
type Stat struct {
	VolumeID    uuid.UUID `json:"volumeId"`
	TotalBlocks Block     `json:"totalBlocks"`
	BlockSize   Byte      `json:"blockSize"`
	Inodes      uint64    `json:"inodes"`
	UsedInodes  uint64    `json:"usedInodes"`
	DataBlocks  Block     `json:"dataBlocks"`
	UsedBlocks  uint64    `json:"usedBlocks"`
}

func (s *Stat) FreeInodes() uint64 { return s.Inodes - s.UsedInodes }
func (s *Stat) FreeBlocks() uint64 { return uint64(s.DataBlocks) - s.UsedBlocks }

func (fs *FileSystem) Stat() (Stat, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()

	usedInodes, err := fs.inodeBitmap.Used(fs.view)
	if err != nil {
		return Stat{}, fmt.Errorf("stat: counting inodes: %w", err)
	}
	usedBlocks, err := fs.dataBitmap.Used(fs.view)
	if err != nil {
		return Stat{}, fmt.Errorf("stat: counting data blocks: %w", err)
	}
	return Stat{
		VolumeID:    fs.superblock.VolumeID,
		TotalBlocks: fs.superblock.TotalBlocks,
		BlockSize:   BlockSize,
		Inodes:      fs.inodeBitmap.Limit,
		UsedInodes:  usedInodes,
		DataBlocks:  fs.superblock.DataAreaBlocks,
		UsedBlocks:  usedBlocks,
	}, nil
}
