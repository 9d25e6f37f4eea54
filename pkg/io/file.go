package io

import (
	"errors"
	"fmt"
	"io"
	"os"

	. "github.com/weberc2/easyfs/pkg/types"
)

// FileDevice is a block device over an image file. The image is locked
// for the lifetime of the device so that only one process mutates it.
type FileDevice struct {
	file     *os.File
	blocks   Block
	readOnly bool
}

// CreateFileDevice creates (or truncates) the image at `path` to hold
// exactly `blocks` blocks.
func CreateFileDevice(path string, blocks Block) (*FileDevice, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating image `%s`: %w", path, err)
	}
	if err := lockFile(file); err != nil {
		file.Close()
		return nil, fmt.Errorf("creating image `%s`: %w", path, err)
	}
	if err := file.Truncate(int64(Byte(blocks) * BlockSize)); err != nil {
		unlockFile(file)
		file.Close()
		return nil, fmt.Errorf("creating image `%s`: %w", path, err)
	}
	return &FileDevice{file: file, blocks: blocks}, nil
}

// OpenFileDevice opens an existing image. A read-only device rejects every
// write with `ReadOnlyErr`.
func OpenFileDevice(path string, readOnly bool) (*FileDevice, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("opening image `%s`: %w", path, err)
	}
	if !readOnly {
		if err := lockFile(file); err != nil {
			file.Close()
			return nil, fmt.Errorf("opening image `%s`: %w", path, err)
		}
	}
	info, err := file.Stat()
	if err != nil {
		if !readOnly {
			unlockFile(file)
		}
		file.Close()
		return nil, fmt.Errorf("opening image `%s`: %w", path, err)
	}
	return &FileDevice{
		file:     file,
		blocks:   Block(Byte(info.Size()) / BlockSize),
		readOnly: readOnly,
	}, nil
}

func (dev *FileDevice) Name() string  { return dev.file.Name() }
func (dev *FileDevice) Blocks() Block { return dev.blocks }

func (dev *FileDevice) ReadBlock(block Block, buf []byte) error {
	if err := checkBuffer(block, buf); err != nil {
		return err
	}
	n, err := dev.file.ReadAt(buf, int64(Byte(block)*BlockSize))
	if Byte(n) == BlockSize {
		return nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf(
			"reading image `%s` block `%d`: %w",
			dev.file.Name(),
			block,
			err,
		)
	}
	return shortRead(block, n)
}

func (dev *FileDevice) WriteBlock(block Block, buf []byte) error {
	if err := checkBuffer(block, buf); err != nil {
		return err
	}
	if dev.readOnly {
		return fmt.Errorf(
			"writing image `%s` block `%d`: %w",
			dev.file.Name(),
			block,
			ReadOnlyErr,
		)
	}
	if block >= dev.blocks {
		return shortWrite(block, 0)
	}
	n, err := dev.file.WriteAt(buf, int64(Byte(block)*BlockSize))
	if err != nil {
		return fmt.Errorf(
			"writing image `%s` block `%d`: %w",
			dev.file.Name(),
			block,
			err,
		)
	}
	if Byte(n) != BlockSize {
		return shortWrite(block, n)
	}
	return nil
}

// Sync flushes the image to stable storage.
func (dev *FileDevice) Sync() error {
	if dev.readOnly {
		return nil
	}
	if err := dev.file.Sync(); err != nil {
		return fmt.Errorf("syncing image `%s`: %w", dev.file.Name(), err)
	}
	return nil
}

func (dev *FileDevice) Close() error {
	if !dev.readOnly {
		if err := unlockFile(dev.file); err != nil {
			dev.file.Close()
			return fmt.Errorf("closing image `%s`: %w", dev.file.Name(), err)
		}
	}
	if err := dev.file.Close(); err != nil {
		return fmt.Errorf("closing image `%s`: %w", dev.file.Name(), err)
	}
	return nil
}
