package types

import "fmt"

type Ino uint32

const (
	DirectBlocksCount Block = 28
	InodeSize         Byte  = 128
	InodesPerBlock          = Ino(BlockSize / InodeSize)
	InoRoot           Ino   = 0
)

// DiskInode is the in-memory form of one 128-byte inode slot. Its size and
// pointers are only ever changed through package inode.
type DiskInode struct {
	Size                Byte
	DirectBlocks        [DirectBlocksCount]Block
	SinglyIndirectBlock Block
	DoublyIndirectBlock Block
	FileType            FileType
}

func (inode *DiskInode) IsDir() bool  { return inode.FileType == FileTypeDir }
func (inode *DiskInode) IsFile() bool { return inode.FileType == FileTypeRegular }

type FileType uint32

const (
	FileTypeRegular FileType = iota
	FileTypeDir
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeRegular:
		return "Regular"
	case FileTypeDir:
		return "Dir"
	default:
		return fmt.Sprintf("FileType(%d)", uint32(ft))
	}
}

func (ft FileType) MarshalJSON() ([]byte, error) {
	s := ft.String()
	out := make([]byte, len(s)+2)
	out[0] = '"'
	out[len(out)-1] = '"'
	copy(out[1:], s)
	return out, nil
}

func (ft FileType) Validate() error {
	if ft > FileTypeDir {
		return fmt.Errorf(
			"validating file type `%d`: %w",
			ft,
			InvalidFileTypeErr,
		)
	}
	return nil
}

const (
	InvalidFileTypeErr ConstError = "invalid file type"
)
