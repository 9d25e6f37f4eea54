package cache

import (
	"fmt"
	"sync"

	. "github.com/weberc2/easyfs/pkg/types"
)

// CachedBlock is one block's bytes held in memory. Its data is guarded by
// its own mutex; its list links and reference count belong to the cache.
type CachedBlock struct {
	mutex sync.Mutex
	key   key
	data  [BlockSize]byte
	dirty bool

	refs    int
	syncing int
	prev    *CachedBlock
	next    *CachedBlock
}

func (b *CachedBlock) ID() Block { return b.key.block }

func (b *CachedBlock) Read(offset Byte, f func(p []byte)) {
	checkOffset(offset)
	b.mutex.Lock()
	defer b.mutex.Unlock()
	f(b.data[offset:])
}

func (b *CachedBlock) Modify(offset Byte, f func(p []byte)) {
	checkOffset(offset)
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.dirty = true
	f(b.data[offset:])
}

func (b *CachedBlock) Dirty() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.dirty
}

func (b *CachedBlock) sync() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if !b.dirty {
		return nil
	}
	if err := b.key.device.WriteBlock(b.key.block, b.data[:]); err != nil {
		return fmt.Errorf("writing back block `%d`: %w", b.key.block, err)
	}
	b.dirty = false
	return nil
}

func checkOffset(offset Byte) {
	if offset > BlockSize {
		panic(fmt.Sprintf(
			"offset `%d` exceeds the block size `%d`",
			offset,
			BlockSize,
		))
	}
}
