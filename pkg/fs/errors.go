package fs

import (
	"github.com/weberc2/easyfs/pkg/encode"
	. "github.com/weberc2/easyfs/pkg/types"
)

const (
	NotFoundErr        ConstError = "not found"
	ExistsErr          ConstError = "already exists"
	InvalidNameErr     ConstError = "invalid name"
	OutOfInodesErr     ConstError = "out of inodes"
	OutOfBlocksErr     ConstError = "out of data blocks"
	FileTooLargeErr    ConstError = "file too large"
	InvalidGeometryErr ConstError = "invalid geometry"

	NameTooLongErr = encode.NameTooLongErr
)
