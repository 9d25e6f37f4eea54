package cache

import (
	"github.com/weberc2/easyfs/pkg/io"
	. "github.com/weberc2/easyfs/pkg/types"
)

// View binds a cache to one device.
type View struct {
	cache  *Cache
	device io.BlockDevice
}

func (c *Cache) View(device io.BlockDevice) View {
	return View{cache: c, device: device}
}

func (v View) Sync() error { return v.cache.Sync(v.device) }

func (v View) Read(block Block, offset Byte, f func(p []byte)) error {
	return v.cache.Read(v.device, block, offset, f)
}

func (v View) Modify(block Block, offset Byte, f func(p []byte)) error {
	return v.cache.Modify(v.device, block, offset, f)
}
