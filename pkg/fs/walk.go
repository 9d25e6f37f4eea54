package fs

import (
	"errors"
	"fmt"

	. "github.com/weberc2/easyfs/pkg/types"
)

// SkipDir may be returned by a WalkFunc to skip a directory's children.
const SkipDir ConstError = "skip this directory"

// WalkFunc is called for each inode `Walk` visits with its path relative to
// the walk's start and its on-disk inode.
type WalkFunc func(path string, node *Inode, di *DiskInode) error

// Walk visits `start` and everything below it depth first, in on-disk
// entry order. "." and ".." entries are not followed.
func Walk(start *Inode, fn WalkFunc) error {
	if err := walk("/", start, fn); err != nil && !errors.Is(err, SkipDir) {
		return err
	}
	return nil
}

func walk(path string, node *Inode, fn WalkFunc) error {
	di, err := node.Stat()
	if err != nil {
		return fmt.Errorf("walking `%s`: %w", path, err)
	}
	if err := fn(path, node, &di); err != nil {
		return err
	}
	if !di.IsDir() {
		return nil
	}

	entries, err := node.Entries()
	if err != nil {
		return fmt.Errorf("walking `%s`: %w", path, err)
	}
	for _, entry := range entries {
		if entry.Name == dot || entry.Name == dotdot {
			continue
		}
		child := node.fs.handle(entry.Ino)
		if err := walk(join(path, entry.Name), child, fn); err != nil {
			if errors.Is(err, SkipDir) {
				continue
			}
			return err
		}
	}
	return nil
}

func join(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}
