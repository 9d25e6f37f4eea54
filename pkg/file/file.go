// Package file wraps inode handles in open files with an access mode and a
// read/write offset.
package file

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/weberc2/easyfs/pkg/fs"
	. "github.com/weberc2/easyfs/pkg/types"
)

const (
	NotReadableErr ConstError = "file not open for reading"
	NotWritableErr ConstError = "file not open for writing"
	IsDirErr       ConstError = "is a directory"
	NotDirErr      ConstError = "not a directory"
	ClosedErr      ConstError = "file already closed"
	InvalidSeekErr ConstError = "invalid seek"
)

// File is an open inode. Reads and writes start at the file's offset and
// advance it; a mutex serializes them.
type File struct {
	mutex    sync.Mutex
	inode    *fs.Inode
	offset   Byte
	readable bool
	writable bool
	closed   bool
}

var (
	_ io.ReadWriteSeeker = (*File)(nil)
	_ io.Closer          = (*File)(nil)
)

func New(inode *fs.Inode, readable, writable bool) *File {
	return &File{inode: inode, readable: readable, writable: writable}
}

// Open opens `path` relative to `dir` (or the root, if `path` is absolute).
// With CREATE, an existing file is truncated and a missing one is created
// in its parent directory. Without it, a missing file is an error and
// TRUNC truncates. Directories may only be opened read-only.
func Open(dir *fs.Inode, path string, flags OpenFlags) (*File, error) {
	readable, writable := flags.ReadWrite()
	start := startOf(dir, path)

	node, err := start.Find(path)
	if err != nil && !(errors.Is(err, fs.NotFoundErr) && flags.Has(CREATE)) {
		return nil, fmt.Errorf("opening `%s`: %w", path, err)
	}

	if node == nil {
		parentPath, name := split(path)
		parent, err := start.Find(parentPath)
		if err != nil {
			return nil, fmt.Errorf("opening `%s`: %w", path, err)
		}
		if isDir, err := parent.IsDir(); err != nil {
			return nil, fmt.Errorf("opening `%s`: %w", path, err)
		} else if !isDir {
			return nil, fmt.Errorf("opening `%s`: %w", path, NotDirErr)
		}
		if node, err = parent.Create(name); err != nil {
			return nil, fmt.Errorf("opening `%s`: %w", path, err)
		}
		return New(node, readable, writable), nil
	}

	isDir, err := node.IsDir()
	if err != nil {
		return nil, fmt.Errorf("opening `%s`: %w", path, err)
	}
	if isDir {
		if writable || flags.Has(CREATE) || flags.Has(TRUNC) {
			return nil, fmt.Errorf("opening `%s` as %s: %w", path, flags, IsDirErr)
		}
		return New(node, readable, writable), nil
	}

	if flags.Has(CREATE) || flags.Has(TRUNC) {
		if err := node.Clear(); err != nil {
			return nil, fmt.Errorf("opening `%s`: %w", path, err)
		}
	}
	return New(node, readable, writable), nil
}

func startOf(dir *fs.Inode, path string) *fs.Inode {
	if strings.HasPrefix(path, "/") {
		return dir.FileSystem().Root()
	}
	return dir
}

// split separates the final component of `path`.
func split(path string) (string, string) {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

func (f *File) Inode() *fs.Inode { return f.inode }
func (f *File) Readable() bool   { return f.readable }
func (f *File) Writable() bool   { return f.writable }

func (f *File) Offset() Byte {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.offset
}

func (f *File) Read(p []byte) (int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.check(f.readable, NotReadableErr); err != nil {
		return 0, err
	}
	n, err := f.inode.ReadAt(f.offset, p)
	f.offset += Byte(n)
	if err != nil {
		return n, fmt.Errorf("reading file: %w", err)
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (f *File) Write(p []byte) (int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.check(f.writable, NotWritableErr); err != nil {
		return 0, err
	}
	n, err := f.inode.WriteAt(f.offset, p)
	f.offset += Byte(n)
	if err != nil {
		return n, fmt.Errorf("writing file: %w", err)
	}
	return n, nil
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.closed {
		return 0, ClosedErr
	}

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(f.offset)
	case io.SeekEnd:
		size, err := f.inode.Size()
		if err != nil {
			return 0, fmt.Errorf("seeking: %w", err)
		}
		base = int64(size)
	default:
		return 0, fmt.Errorf("seeking: whence `%d`: %w", whence, InvalidSeekErr)
	}
	if base+offset < 0 {
		return 0, fmt.Errorf(
			"seeking to `%d`: negative offset: %w",
			base+offset,
			InvalidSeekErr,
		)
	}
	f.offset = Byte(base + offset)
	return base + offset, nil
}

// ReadAll reads from the current offset to the end of the file.
func (f *File) ReadAll() ([]byte, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading whole file: %w", err)
	}
	return data, nil
}

// Close releases the file. Writes are already on the device by the time
// they return, so there is nothing to flush.
func (f *File) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.closed {
		return ClosedErr
	}
	f.closed = true
	return nil
}

func (f *File) check(allowed bool, err error) error {
	if f.closed {
		return ClosedErr
	}
	if !allowed {
		return err
	}
	return nil
}
