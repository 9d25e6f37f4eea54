package file

import (
	"fmt"

	. "github.com/weberc2/easyfs/pkg/types"
)

type DirentType uint8

const (
	DirentTypeFile DirentType = iota
	DirentTypeDirectory
)

func (dt DirentType) String() string {
	if dt == DirentTypeDirectory {
		return "Directory"
	}
	return "File"
}

type Dirent struct {
	Name string
	Ino  Ino
	Type DirentType
}

// Dirents lists the entries of an open directory with their types. An open
// regular file has none.
func (f *File) Dirents() ([]Dirent, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if err := f.check(f.readable, NotReadableErr); err != nil {
		return nil, err
	}

	entries, err := f.inode.Entries()
	if err != nil {
		return nil, fmt.Errorf("listing directory: %w", err)
	}
	dirents := make([]Dirent, len(entries))
	for i, entry := range entries {
		child, err := f.inode.Find(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("listing directory: `%s`: %w", entry.Name, err)
		}
		isDir, err := child.IsDir()
		if err != nil {
			return nil, fmt.Errorf("listing directory: `%s`: %w", entry.Name, err)
		}
		dirents[i] = Dirent{Name: entry.Name, Ino: entry.Ino}
		if isDir {
			dirents[i].Type = DirentTypeDirectory
		}
	}
	return dirents, nil
}
