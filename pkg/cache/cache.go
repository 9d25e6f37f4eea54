// Package cache implements a write-back cache of fixed-size blocks shared
// by any number of devices.
//
// Blocks are handed out reference counted; an entry is only evicted once
// nothing references it. Mutations through `Modify` mark the block dirty,
// and dirty blocks reach the device when they are evicted or when the
// cache is synced.
package cache

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/weberc2/easyfs/pkg/io"
	. "github.com/weberc2/easyfs/pkg/types"
)

// DefaultCapacity is the number of blocks a cache holds unless configured
// otherwise.
const DefaultCapacity = 16

const DeviceInUseErr ConstError = "device has referenced blocks"

type key struct {
	device io.BlockDevice
	block  Block
}

type Cache struct {
	mutex    sync.Mutex
	capacity int
	lookup   map[key]*CachedBlock
	logger   *slog.Logger

	// synced is signalled whenever a sync unpins a block.
	synced *sync.Cond

	// head is the most recently used entry, tail the least.
	head *CachedBlock
	tail *CachedBlock
}

// New creates a cache holding at most `capacity` blocks. A nil logger
// means `slog.Default()`.
func New(capacity int, logger *slog.Logger) *Cache {
	if capacity < 1 {
		panic(fmt.Sprintf("block cache capacity must be positive: %d", capacity))
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		capacity: capacity,
		lookup:   make(map[key]*CachedBlock, capacity),
		logger:   logger,
	}
	c.synced = sync.NewCond(&c.mutex)
	return c
}

func (c *Cache) Capacity() int { return c.capacity }

// Len returns the number of cached blocks.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.lookup)
}

// Acquire returns the cached block for `block` on `device`, reading it from
// the device on first access. Every successful call must be paired with a
// `Release`.
func (c *Cache) Acquire(device io.BlockDevice, block Block) (*CachedBlock, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	k := key{device, block}
	for {
		if b, exists := c.lookup[k]; exists {
			b.refs++
			c.unlink(b)
			c.pushFront(b)
			return b, nil
		}
		if len(c.lookup) < c.capacity {
			break
		}
		// evict may wait on a sync and release the lock, so the lookup
		// has to be repeated
		if err := c.evict(); err != nil {
			return nil, fmt.Errorf("acquiring block `%d`: %w", block, err)
		}
	}

	b := &CachedBlock{key: k}
	if err := device.ReadBlock(block, b.data[:]); err != nil {
		return nil, fmt.Errorf("acquiring block `%d`: %w", block, err)
	}
	b.refs = 1
	c.lookup[k] = b
	c.pushFront(b)
	return b, nil
}

func (c *Cache) Release(b *CachedBlock) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if b.refs < 1 {
		panic(fmt.Sprintf("releasing unreferenced block `%d`", b.key.block))
	}
	b.refs--
}

// Read calls `f` with exclusive access to the cached bytes of `block`
// starting at `offset`.
func (c *Cache) Read(
	device io.BlockDevice,
	block Block,
	offset Byte,
	f func(p []byte),
) error {
	b, err := c.Acquire(device, block)
	if err != nil {
		return err
	}
	defer c.Release(b)
	b.Read(offset, f)
	return nil
}

// Modify is like Read but marks the block dirty.
func (c *Cache) Modify(
	device io.BlockDevice,
	block Block,
	offset Byte,
	f func(p []byte),
) error {
	b, err := c.Acquire(device, block)
	if err != nil {
		return err
	}
	defer c.Release(b)
	b.Modify(offset, f)
	return nil
}

// SyncAll writes every dirty block of every device back to its device.
func (c *Cache) SyncAll() error {
	return c.sync(func(key) bool { return true })
}

// Sync writes back the dirty blocks of a single device.
func (c *Cache) Sync(device io.BlockDevice) error {
	return c.sync(func(k key) bool { return k.device == device })
}

// Drop syncs `device` and forgets all of its blocks.
func (c *Cache) Drop(device io.BlockDevice) error {
	if err := c.Sync(device); err != nil {
		return fmt.Errorf("dropping device: %w", err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	for k, b := range c.lookup {
		if k.device != device {
			continue
		}
		if b.refs > 0 {
			return fmt.Errorf(
				"dropping device: block `%d`: %w",
				k.block,
				DeviceInUseErr,
			)
		}
		c.unlink(b)
		delete(c.lookup, k)
	}
	return nil
}

func (c *Cache) sync(match func(key) bool) error {
	c.mutex.Lock()
	var keys []key
	for b := c.head; b != nil; b = b.next {
		if match(b.key) {
			keys = append(keys, b.key)
		}
	}
	c.mutex.Unlock()

	var errs []error
	for _, k := range keys {
		if err := c.syncOne(k); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("syncing block cache: %w", err)
	}
	return nil
}

// syncOne writes back the block under `k`, if it is still cached. The block
// is pinned only while it is written, and the pin is marked as the sync's
// own so that `evict` waits for it rather than giving up.
func (c *Cache) syncOne(k key) error {
	c.mutex.Lock()
	b, exists := c.lookup[k]
	if !exists {
		c.mutex.Unlock()
		return nil
	}
	b.refs++
	b.syncing++
	c.mutex.Unlock()

	err := b.sync()

	c.mutex.Lock()
	b.refs--
	b.syncing--
	c.synced.Broadcast()
	c.mutex.Unlock()
	return err
}

// evict removes the least recently used unreferenced entry, writing it back
// first if it is dirty. If the only references are held by syncs, it waits
// for one of them to finish and returns without evicting. The caller holds
// `c.mutex`.
func (c *Cache) evict() error {
	syncing := false
	for b := c.tail; b != nil; b = b.prev {
		if b.refs > 0 {
			if b.refs == b.syncing {
				syncing = true
			}
			continue
		}
		if err := b.sync(); err != nil {
			return fmt.Errorf("evicting block `%d`: %w", b.key.block, err)
		}
		c.logger.Debug("evicted cached block", "block", b.key.block)
		c.unlink(b)
		delete(c.lookup, b.key)
		return nil
	}
	if syncing {
		c.synced.Wait()
		return nil
	}
	panic(fmt.Sprintf(
		"block cache: all `%d` cached blocks are referenced",
		c.capacity,
	))
}

func (c *Cache) pushFront(b *CachedBlock) {
	b.prev = nil
	b.next = c.head
	if c.head != nil {
		c.head.prev = b
	}
	c.head = b
	if c.tail == nil {
		c.tail = b
	}
}

func (c *Cache) unlink(b *CachedBlock) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		c.head = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		c.tail = b.prev
	}
	b.prev = nil
	b.next = nil
}
