package encode

import (
	"bytes"
	"fmt"

	. "github.com/weberc2/easyfs/pkg/types"
)

const NameTooLongErr ConstError = "name too long"

// EncodeDirEntry writes a NUL-padded name followed by the inode number.
func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) error {
	if len(entry.Name) > NameLengthLimit {
		return fmt.Errorf(
			"encoding directory entry `%s`: `%d` bytes exceeds `%d`: %w",
			entry.Name,
			len(entry.Name),
			NameLengthLimit,
			NameTooLongErr,
		)
	}
	p := b[:]
	clear(p[dirEntryNameStart:dirEntryNameEnd])
	copy(p[dirEntryNameStart:dirEntryNameEnd], entry.Name)
	putU32(p, dirEntryInoStart, uint32(entry.Ino))
	return nil
}

func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	name := p[dirEntryNameStart:dirEntryNameEnd]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	entry.Name = string(name)
	entry.Ino = Ino(getU32(p, dirEntryInoStart))
}

const (
	dirEntryNameStart Byte = 0
	dirEntryNameEnd        = dirEntryNameStart + DirEntryNameSize

	dirEntryInoStart = dirEntryNameEnd
	dirEntryInoSize  = Byte(4)
	dirEntryInoEnd   = dirEntryInoStart + dirEntryInoSize
)
