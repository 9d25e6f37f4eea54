package io

import (
	"fmt"
	"io"

	. "github.com/weberc2/easyfs/pkg/types"
)

// BlockDevice reads and writes whole blocks. A transfer of fewer than
// `BlockSize` bytes is a device fault and must be reported as an error;
// nothing above this layer retries.
//
// Implementations must be comparable (in practice, pointer types) since
// the block cache keys its entries by device.
type BlockDevice interface {
	ReadBlock(block Block, buf []byte) error
	WriteBlock(block Block, buf []byte) error
}

const (
	BadBufferSizeErr ConstError = "buffer is not exactly one block"
	ReadOnlyErr      ConstError = "device is read-only"
)

func checkBuffer(block Block, buf []byte) error {
	if Byte(len(buf)) != BlockSize {
		return fmt.Errorf(
			"transferring block `%d` with a `%d`-byte buffer: %w",
			block,
			len(buf),
			BadBufferSizeErr,
		)
	}
	return nil
}

func shortRead(block Block, n int) error {
	return fmt.Errorf(
		"reading block `%d`: transferred `%d` of `%d` bytes: %w",
		block,
		n,
		BlockSize,
		io.ErrUnexpectedEOF,
	)
}

func shortWrite(block Block, n int) error {
	return fmt.Errorf(
		"writing block `%d`: transferred `%d` of `%d` bytes: %w",
		block,
		n,
		BlockSize,
		io.ErrShortWrite,
	)
}
