// Package fs lays an easyfs image out on a block device and exposes its
// files and directories as inode handles.
package fs

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/weberc2/easyfs/pkg/alloc"
	"github.com/weberc2/easyfs/pkg/cache"
	"github.com/weberc2/easyfs/pkg/encode"
	"github.com/weberc2/easyfs/pkg/inode"
	"github.com/weberc2/easyfs/pkg/io"
	. "github.com/weberc2/easyfs/pkg/types"
)

// FileSystem owns one image's region layout and allocators. Every inode
// handle holds a pointer back to it, and every structural operation on
// those handles is serialized by its mutex.
type FileSystem struct {
	mutex       sync.Mutex
	device      io.BlockDevice
	cache       *cache.Cache
	view        cache.View
	superblock  Superblock
	inodeBitmap alloc.Bitmap
	dataBitmap  alloc.Bitmap
	logger      *slog.Logger
}

type CreateParams struct {
	Device            io.BlockDevice
	Cache             *cache.Cache
	TotalBlocks       Block
	InodeBitmapBlocks Block

	// VolumeID is generated when zero.
	VolumeID uuid.UUID
	Logger   *slog.Logger
}

type OpenParams struct {
	Device io.BlockDevice
	Cache  *cache.Cache
	Logger *slog.Logger
}

// Create formats `params.Device` and returns the new file system. Every
// block of the image is zeroed, and the root directory is inode 0.
func Create(params CreateParams) (*FileSystem, error) {
	volumeID := params.VolumeID
	if volumeID == uuid.Nil {
		volumeID = uuid.New()
	}
	sb, err := Layout(params.TotalBlocks, params.InodeBitmapBlocks, volumeID)
	if err != nil {
		return nil, fmt.Errorf("creating file system: %w", err)
	}

	fs := newFileSystem(params.Device, params.Cache, params.Logger, &sb)
	for block := Block(0); block < sb.TotalBlocks; block++ {
		if err := fs.view.Modify(block, 0, func(p []byte) {
			clear(p)
		}); err != nil {
			return nil, fmt.Errorf("creating file system: zeroing: %w", err)
		}
	}

	if err := fs.view.Modify(0, 0, func(p []byte) {
		encode.EncodeSuperblock(&sb, (*[BlockSize]byte)(p))
	}); err != nil {
		return nil, fmt.Errorf("creating file system: %w", err)
	}

	ino, err := fs.allocInode()
	if err != nil {
		return nil, fmt.Errorf("creating file system: root: %w", err)
	}
	if ino != InoRoot {
		panic(fmt.Sprintf("root inode allocated as `%d`", ino))
	}
	var root DiskInode
	inode.Initialize(&root, FileTypeDir)
	block, offset := fs.DiskInodePos(InoRoot)
	if err := fs.storeInode(block, offset, &root); err != nil {
		return nil, fmt.Errorf("creating file system: root: %w", err)
	}

	if err := fs.cache.SyncAll(); err != nil {
		return nil, fmt.Errorf("creating file system: %w", err)
	}
	fs.logger.Info(
		"created file system",
		"volume", sb.VolumeID,
		"blocks", sb.TotalBlocks,
		"inodes", fs.inodeBitmap.Limit,
		"dataBlocks", sb.DataAreaBlocks,
	)
	return fs, nil
}

// Open recovers a file system from a device formatted by `Create`.
func Open(params OpenParams) (*FileSystem, error) {
	c := params.Cache
	if c == nil {
		c = cache.New(cache.DefaultCapacity, params.Logger)
	}

	var (
		sb     Superblock
		decErr error
	)
	if err := c.Read(params.Device, 0, 0, func(p []byte) {
		decErr = encode.DecodeSuperblock(&sb, (*[BlockSize]byte)(p))
	}); err != nil {
		return nil, fmt.Errorf("opening file system: %w", err)
	}
	if decErr != nil {
		return nil, fmt.Errorf("opening file system: %w", decErr)
	}

	fs := newFileSystem(params.Device, c, params.Logger, &sb)
	fs.logger.Info(
		"opened file system",
		"volume", sb.VolumeID,
		"blocks", sb.TotalBlocks,
	)
	return fs, nil
}

func newFileSystem(
	device io.BlockDevice,
	c *cache.Cache,
	logger *slog.Logger,
	sb *Superblock,
) *FileSystem {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		c = cache.New(cache.DefaultCapacity, logger)
	}
	return &FileSystem{
		device:     device,
		cache:      c,
		view:       c.View(device),
		superblock: *sb,
		inodeBitmap: alloc.Bitmap{
			Start:  sb.InodeBitmapStart(),
			Blocks: sb.InodeBitmapBlocks,
			Limit:  uint64(sb.InodeBitmapBlocks) * InodesPerBitmapBlock,
		},
		dataBitmap: alloc.Bitmap{
			Start:  sb.DataBitmapStart(),
			Blocks: sb.DataBitmapBlocks,
			Limit:  uint64(sb.DataAreaBlocks),
		},
		logger: logger,
	}
}

func (fs *FileSystem) Superblock() Superblock { return fs.superblock }
func (fs *FileSystem) Device() io.BlockDevice { return fs.device }
func (fs *FileSystem) Cache() *cache.Cache    { return fs.cache }

// Root returns a handle on the root directory.
func (fs *FileSystem) Root() *Inode {
	block, offset := fs.DiskInodePos(InoRoot)
	return &Inode{block: block, offset: offset, fs: fs}
}

// DiskInodePos locates inode `ino`'s slot.
func (fs *FileSystem) DiskInodePos(ino Ino) (Block, Byte) {
	return fs.superblock.InodeAreaStart() + Block(ino/InodesPerBlock),
		Byte(ino%InodesPerBlock) * InodeSize
}

// InoAt is the inverse of `DiskInodePos`.
func (fs *FileSystem) InoAt(block Block, offset Byte) Ino {
	return Ino(block-fs.superblock.InodeAreaStart())*InodesPerBlock +
		Ino(offset/InodeSize)
}

func (fs *FileSystem) AllocInode() (Ino, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	return fs.allocInode()
}

func (fs *FileSystem) DeallocInode(ino Ino) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	return fs.deallocInode(ino)
}

// AllocData returns the absolute index of a free, zeroed data block.
func (fs *FileSystem) AllocData() (Block, error) {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	return fs.allocData()
}

// DeallocData zeroes `block` and returns it to the data bitmap.
func (fs *FileSystem) DeallocData(block Block) error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	return fs.deallocData(block)
}

func (fs *FileSystem) allocInode() (Ino, error) {
	index, err := fs.inodeBitmap.Alloc(fs.view)
	if err != nil {
		if errors.Is(err, alloc.OutOfSpaceErr) {
			fs.logger.Warn("inode bitmap exhausted")
			return 0, fmt.Errorf("allocating inode: %w", OutOfInodesErr)
		}
		return 0, fmt.Errorf("allocating inode: %w", err)
	}
	return Ino(index), nil
}

func (fs *FileSystem) deallocInode(ino Ino) error {
	block, offset := fs.DiskInodePos(ino)
	if err := fs.view.Modify(block, offset, func(p []byte) {
		clear(p[:InodeSize])
	}); err != nil {
		return fmt.Errorf("deallocating inode `%d`: %w", ino, err)
	}
	if err := fs.inodeBitmap.Free(fs.view, uint64(ino)); err != nil {
		return fmt.Errorf("deallocating inode `%d`: %w", ino, err)
	}
	return nil
}

func (fs *FileSystem) allocData() (Block, error) {
	index, err := fs.dataBitmap.Alloc(fs.view)
	if err != nil {
		if errors.Is(err, alloc.OutOfSpaceErr) {
			fs.logger.Warn("data bitmap exhausted")
			return 0, fmt.Errorf("allocating data block: %w", OutOfBlocksErr)
		}
		return 0, fmt.Errorf("allocating data block: %w", err)
	}
	return fs.superblock.DataAreaStart() + Block(index), nil
}

func (fs *FileSystem) deallocData(block Block) error {
	start := fs.superblock.DataAreaStart()
	if block < start || block-start >= fs.superblock.DataAreaBlocks {
		panic(fmt.Sprintf("deallocating block `%d` outside the data area", block))
	}
	if err := fs.view.Modify(block, 0, func(p []byte) {
		clear(p)
	}); err != nil {
		return fmt.Errorf("deallocating data block `%d`: %w", block, err)
	}
	if err := fs.dataBitmap.Free(fs.view, uint64(block-start)); err != nil {
		return fmt.Errorf("deallocating data block `%d`: %w", block, err)
	}
	return nil
}

// Sync writes this file system's dirty cached blocks to its device.
func (fs *FileSystem) Sync() error {
	if err := fs.cache.Sync(fs.device); err != nil {
		return fmt.Errorf("syncing file system: %w", err)
	}
	return nil
}

// Close syncs the file system and evicts its blocks from the cache. The
// device itself stays open.
func (fs *FileSystem) Close() error {
	fs.mutex.Lock()
	defer fs.mutex.Unlock()
	if err := fs.cache.Drop(fs.device); err != nil {
		return fmt.Errorf("closing file system: %w", err)
	}
	return nil
}

func (fs *FileSystem) loadInode(block Block, offset Byte) (DiskInode, error) {
	var (
		di     DiskInode
		decErr error
	)
	if err := fs.view.Read(block, offset, func(p []byte) {
		decErr = encode.DecodeInode(&di, (*[InodeSize]byte)(p))
	}); err != nil {
		return DiskInode{}, fmt.Errorf(
			"loading inode `%d`: %w",
			fs.InoAt(block, offset),
			err,
		)
	}
	if decErr != nil {
		return DiskInode{}, fmt.Errorf(
			"loading inode `%d`: %w",
			fs.InoAt(block, offset),
			decErr,
		)
	}
	return di, nil
}

func (fs *FileSystem) storeInode(block Block, offset Byte, di *DiskInode) error {
	if err := fs.view.Modify(block, offset, func(p []byte) {
		encode.EncodeInode(di, (*[InodeSize]byte)(p))
	}); err != nil {
		return fmt.Errorf(
			"storing inode `%d`: %w",
			fs.InoAt(block, offset),
			err,
		)
	}
	return nil
}

// grow extends `di` to `size` bytes, allocating the blocks it needs. If the
// data area runs out, the blocks taken so far are returned and `di` is left
// as it was.
func (fs *FileSystem) grow(di *DiskInode, size Byte) error {
	if size <= di.Size {
		return nil
	}
	if size > inode.MaxSize {
		return fmt.Errorf(
			"growing to `%d` bytes: limit is `%d`: %w",
			size,
			inode.MaxSize,
			FileTooLargeErr,
		)
	}

	needed := inode.BlocksNeeded(di, size)
	blocks := make([]Block, 0, needed)
	for Block(len(blocks)) < needed {
		block, err := fs.allocData()
		if err != nil {
			if rollbackErr := fs.deallocAll(blocks); rollbackErr != nil {
				err = errors.Join(err, rollbackErr)
			}
			return fmt.Errorf("growing to `%d` bytes: %w", size, err)
		}
		blocks = append(blocks, block)
	}
	if err := inode.IncreaseSize(di, size, blocks, fs.view); err != nil {
		return fmt.Errorf("growing to `%d` bytes: %w", size, err)
	}
	return nil
}

// shrinkToEmpty frees every block `di` owns.
func (fs *FileSystem) shrinkToEmpty(di *DiskInode) error {
	total := inode.TotalBlocks(di.Size)
	blocks, err := inode.ClearSize(di, fs.view)
	if err != nil {
		return err
	}
	if Block(len(blocks)) != total {
		panic(fmt.Sprintf(
			"cleared `%d` blocks; size implies `%d`",
			len(blocks),
			total,
		))
	}
	return fs.deallocAll(blocks)
}

func (fs *FileSystem) deallocAll(blocks []Block) error {
	for _, block := range blocks {
		if err := fs.deallocData(block); err != nil {
			return err
		}
	}
	return nil
}

// writeAt grows `di` as needed and writes `p` at `offset`.
func (fs *FileSystem) writeAt(di *DiskInode, offset Byte, p []byte) (int, error) {
	// checked before adding so the end can't wrap around
	if offset > inode.MaxSize || Byte(len(p)) > inode.MaxSize-offset {
		return 0, fmt.Errorf(
			"writing `%d` bytes at `%d`: limit is `%d`: %w",
			len(p),
			offset,
			inode.MaxSize,
			FileTooLargeErr,
		)
	}
	if err := fs.grow(di, offset+Byte(len(p))); err != nil {
		return 0, err
	}
	return inode.WriteAt(di, offset, p, fs.view)
}
