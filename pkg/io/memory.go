package io

import (
	"sync"

	. "github.com/weberc2/easyfs/pkg/types"
)

// MemoryDevice is a fixed-size block device backed by a byte slice.
type MemoryDevice struct {
	mutex sync.RWMutex
	data  []byte
}

func NewMemoryDevice(blocks Block) *MemoryDevice {
	return &MemoryDevice{data: make([]byte, Byte(blocks)*BlockSize)}
}

// NewMemoryDeviceFrom wraps an existing image. Trailing bytes that don't
// fill a whole block are unreachable.
func NewMemoryDeviceFrom(data []byte) *MemoryDevice {
	return &MemoryDevice{data: data}
}

func (dev *MemoryDevice) Blocks() Block {
	dev.mutex.RLock()
	defer dev.mutex.RUnlock()
	return Block(Byte(len(dev.data)) / BlockSize)
}

// Bytes returns the raw image. The caller must not use it concurrently
// with writes.
func (dev *MemoryDevice) Bytes() []byte { return dev.data }

func (dev *MemoryDevice) ReadBlock(block Block, buf []byte) error {
	if err := checkBuffer(block, buf); err != nil {
		return err
	}
	dev.mutex.RLock()
	defer dev.mutex.RUnlock()
	start := Byte(block) * BlockSize
	if start >= Byte(len(dev.data)) {
		return shortRead(block, 0)
	}
	if n := copy(buf, dev.data[start:]); Byte(n) != BlockSize {
		return shortRead(block, n)
	}
	return nil
}

func (dev *MemoryDevice) WriteBlock(block Block, buf []byte) error {
	if err := checkBuffer(block, buf); err != nil {
		return err
	}
	dev.mutex.Lock()
	defer dev.mutex.Unlock()
	start := Byte(block) * BlockSize
	if start >= Byte(len(dev.data)) {
		return shortWrite(block, 0)
	}
	if n := copy(dev.data[start:], buf); Byte(n) != BlockSize {
		return shortWrite(block, n)
	}
	return nil
}
