package fs

import (
	"fmt"

	"github.com/weberc2/easyfs/pkg/inode"
	. "github.com/weberc2/easyfs/pkg/types"
)

// Inode is a handle on one inode slot. Handles are cheap, carry no state
// beyond the slot's location, and may be shared freely; two handles are
// equal when they name the same slot.
type Inode struct {
	block  Block
	offset Byte
	fs     *FileSystem
}

func (fs *FileSystem) handle(ino Ino) *Inode {
	block, offset := fs.DiskInodePos(ino)
	return &Inode{block: block, offset: offset, fs: fs}
}

func (i *Inode) FileSystem() *FileSystem { return i.fs }

// Location is the block and byte offset of the inode's slot.
func (i *Inode) Location() (Block, Byte) { return i.block, i.offset }

func (i *Inode) Ino() Ino { return i.fs.InoAt(i.block, i.offset) }

func (i *Inode) IsRoot() bool { return i.Ino() == InoRoot }

func (i *Inode) Equal(other *Inode) bool {
	return i.fs == other.fs && i.block == other.block && i.offset == other.offset
}

func (i *Inode) load() (DiskInode, error) {
	return i.fs.loadInode(i.block, i.offset)
}

func (i *Inode) store(di *DiskInode) error {
	return i.fs.storeInode(i.block, i.offset, di)
}

// Stat returns a copy of the on-disk inode.
func (i *Inode) Stat() (DiskInode, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	return i.load()
}

func (i *Inode) Size() (Byte, error) {
	di, err := i.Stat()
	if err != nil {
		return 0, err
	}
	return di.Size, nil
}

func (i *Inode) IsDir() (bool, error) {
	di, err := i.Stat()
	if err != nil {
		return false, err
	}
	return di.IsDir(), nil
}

func (i *Inode) IsFile() (bool, error) {
	di, err := i.Stat()
	if err != nil {
		return false, err
	}
	return di.IsFile(), nil
}

// ReadAt reads from `offset` into `p`, returning fewer bytes than `len(p)`
// only at the end of the data. A read at or past the end returns 0.
func (i *Inode) ReadAt(offset Byte, p []byte) (int, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	di, err := i.load()
	if err != nil {
		return 0, fmt.Errorf("reading inode `%d`: %w", i.Ino(), err)
	}
	n, err := inode.ReadAt(&di, offset, p, i.fs.view)
	if err != nil {
		return n, fmt.Errorf("reading inode `%d`: %w", i.Ino(), err)
	}
	return n, nil
}

// ReadAll returns the whole content.
func (i *Inode) ReadAll() ([]byte, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	di, err := i.load()
	if err != nil {
		return nil, fmt.Errorf("reading inode `%d`: %w", i.Ino(), err)
	}
	data := make([]byte, di.Size)
	if _, err := inode.ReadAt(&di, 0, data, i.fs.view); err != nil {
		return nil, fmt.Errorf("reading inode `%d`: %w", i.Ino(), err)
	}
	return data, nil
}

// WriteAt writes `p` at `offset`, growing the file first if the write ends
// past its size. Every block the write touched is on the device by the
// time it returns. Writing to a directory panics.
func (i *Inode) WriteAt(offset Byte, p []byte) (int, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	di, err := i.load()
	if err != nil {
		return 0, fmt.Errorf("writing inode `%d`: %w", i.Ino(), err)
	}
	if !di.IsFile() {
		panic(fmt.Sprintf("writing directory inode `%d`", i.Ino()))
	}

	n, err := i.fs.writeAt(&di, offset, p)
	if err != nil {
		return n, fmt.Errorf("writing inode `%d`: %w", i.Ino(), err)
	}
	if err := i.store(&di); err != nil {
		return n, fmt.Errorf("writing inode `%d`: %w", i.Ino(), err)
	}
	if err := i.fs.cache.SyncAll(); err != nil {
		return n, fmt.Errorf("writing inode `%d`: %w", i.Ino(), err)
	}
	return n, nil
}

// Clear truncates a file to zero bytes, returning all of its blocks to the
// data area. Clearing a directory panics.
func (i *Inode) Clear() error {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	di, err := i.load()
	if err != nil {
		return fmt.Errorf("clearing inode `%d`: %w", i.Ino(), err)
	}
	if !di.IsFile() {
		panic(fmt.Sprintf("clearing directory inode `%d`", i.Ino()))
	}
	if err := i.fs.shrinkToEmpty(&di); err != nil {
		return fmt.Errorf("clearing inode `%d`: %w", i.Ino(), err)
	}
	if err := i.store(&di); err != nil {
		return fmt.Errorf("clearing inode `%d`: %w", i.Ino(), err)
	}
	if err := i.fs.cache.SyncAll(); err != nil {
		return fmt.Errorf("clearing inode `%d`: %w", i.Ino(), err)
	}
	return nil
}
