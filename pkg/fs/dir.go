package fs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/weberc2/easyfs/pkg/encode"
	"github.com/weberc2/easyfs/pkg/inode"
	. "github.com/weberc2/easyfs/pkg/types"
)

const (
	dot    = "."
	dotdot = ".."
)

// entries decodes every entry in directory `di`.
func (fs *FileSystem) entries(di *DiskInode) ([]DirEntry, error) {
	data := make([]byte, di.Size)
	if _, err := inode.ReadAt(di, 0, data, fs.view); err != nil {
		return nil, fmt.Errorf("reading directory entries: %w", err)
	}
	entries := make([]DirEntry, len(data)/int(DirEntrySize))
	for j := range entries {
		start := Byte(j) * DirEntrySize
		encode.DecodeDirEntry(
			&entries[j],
			(*[DirEntrySize]byte)(data[start:start+DirEntrySize]),
		)
	}
	return entries, nil
}

// lookup finds `name` in directory `di`.
func (fs *FileSystem) lookup(di *DiskInode, name string) (Ino, bool, error) {
	entries, err := fs.entries(di)
	if err != nil {
		return 0, false, err
	}
	for _, entry := range entries {
		if entry.Name == name {
			return entry.Ino, true, nil
		}
	}
	return 0, false, nil
}

// appendEntry grows directory `di` by one entry. The caller stores `di`.
func (fs *FileSystem) appendEntry(di *DiskInode, entry *DirEntry) error {
	var b [DirEntrySize]byte
	if err := encode.EncodeDirEntry(entry, &b); err != nil {
		return err
	}
	if _, err := fs.writeAt(di, di.Size, b[:]); err != nil {
		return fmt.Errorf("appending entry `%s`: %w", entry.Name, err)
	}
	return nil
}

// Entries lists a directory's entries in on-disk order. A file has none.
func (i *Inode) Entries() ([]DirEntry, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	di, err := i.load()
	if err != nil {
		return nil, fmt.Errorf("listing inode `%d`: %w", i.Ino(), err)
	}
	if !di.IsDir() {
		return []DirEntry{}, nil
	}
	entries, err := i.fs.entries(&di)
	if err != nil {
		return nil, fmt.Errorf("listing inode `%d`: %w", i.Ino(), err)
	}
	return entries, nil
}

// Ls lists the names in a directory in on-disk order, "." and ".."
// included. A file lists nothing.
func (i *Inode) Ls() ([]string, error) {
	entries, err := i.Entries()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for j := range entries {
		names[j] = entries[j].Name
	}
	return names, nil
}

// Create makes an empty regular file named `name` in this directory.
func (i *Inode) Create(name string) (*Inode, error) {
	return i.create(name, FileTypeRegular)
}

// CreateDir makes a directory named `name` in this directory. The new
// directory starts with "." and ".." entries.
func (i *Inode) CreateDir(name string) (*Inode, error) {
	return i.create(name, FileTypeDir)
}

func (i *Inode) create(name string, ft FileType) (*Inode, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()

	child, err := i.createLocked(name, ft)
	if err != nil {
		return nil, fmt.Errorf(
			"creating %s `%s` in inode `%d`: %w",
			strings.ToLower(ft.String()),
			name,
			i.Ino(),
			err,
		)
	}
	return child, nil
}

func (i *Inode) createLocked(name string, ft FileType) (*Inode, error) {
	parent, err := i.load()
	if err != nil {
		return nil, err
	}
	if !parent.IsDir() {
		panic(fmt.Sprintf("creating `%s` in file inode `%d`", name, i.Ino()))
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, exists, err := i.fs.lookup(&parent, name); err != nil {
		return nil, err
	} else if exists {
		return nil, ExistsErr
	}

	ino, err := i.fs.allocInode()
	if err != nil {
		return nil, err
	}

	var child DiskInode
	inode.Initialize(&child, ft)
	if ft == FileTypeDir {
		for _, entry := range []DirEntry{
			{Name: dot, Ino: ino},
			{Name: dotdot, Ino: i.Ino()},
		} {
			if err := i.fs.appendEntry(&child, &entry); err != nil {
				return nil, i.fs.rollbackCreate(ino, &child, err)
			}
		}
	}

	if err := i.fs.appendEntry(
		&parent,
		&DirEntry{Name: name, Ino: ino},
	); err != nil {
		return nil, i.fs.rollbackCreate(ino, &child, err)
	}

	c := i.fs.handle(ino)
	if err := c.store(&child); err != nil {
		return nil, err
	}
	if err := i.store(&parent); err != nil {
		return nil, err
	}
	if err := i.fs.cache.SyncAll(); err != nil {
		return nil, err
	}
	return c, nil
}

// rollbackCreate undoes a partial create: it frees the child's blocks and
// its inode, keeping `cause` as the reported error.
func (fs *FileSystem) rollbackCreate(ino Ino, child *DiskInode, cause error) error {
	if err := fs.shrinkToEmpty(child); err != nil {
		return errors.Join(cause, err)
	}
	if err := fs.deallocInode(ino); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// ValidateName checks that `name` can be stored as a single directory
// entry.
func ValidateName(name string) error {
	switch {
	case name == "" || name == dot || name == dotdot:
		return fmt.Errorf("validating name `%s`: %w", name, InvalidNameErr)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("validating name %q: %w", name, InvalidNameErr)
	case len(name) > NameLengthLimit:
		return fmt.Errorf(
			"validating name `%s`: `%d` bytes exceeds `%d`: %w",
			name,
			len(name),
			NameLengthLimit,
			NameTooLongErr,
		)
	}
	return nil
}
