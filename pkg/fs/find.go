package fs

import (
	"fmt"
	"strings"
)

// Find resolves a "/"-separated path relative to this inode. Empty and "."
// components are skipped; every other component, ".." included, is looked
// up as a directory entry. The result is a fresh handle.
func (i *Inode) Find(path string) (*Inode, error) {
	i.fs.mutex.Lock()
	defer i.fs.mutex.Unlock()
	found, err := i.find(path)
	if err != nil {
		return nil, fmt.Errorf("finding `%s` from inode `%d`: %w", path, i.Ino(), err)
	}
	return found, nil
}

func (i *Inode) find(path string) (*Inode, error) {
	current := &Inode{block: i.block, offset: i.offset, fs: i.fs}
	for _, name := range strings.Split(path, "/") {
		if name == "" || name == dot {
			continue
		}
		di, err := current.load()
		if err != nil {
			return nil, err
		}
		if !di.IsDir() {
			return nil, fmt.Errorf(
				"`%s`: inode `%d` is a file: %w",
				name,
				current.Ino(),
				NotFoundErr,
			)
		}
		ino, exists, err := i.fs.lookup(&di, name)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("`%s`: %w", name, NotFoundErr)
		}
		current = i.fs.handle(ino)
	}
	return current, nil
}
