package file

import (
	"fmt"
	"sync"

	"github.com/weberc2/easyfs/pkg/fs"
)

// Cursor tracks a working directory.
type Cursor struct {
	mutex sync.Mutex
	dir   *fs.Inode
}

func NewCursor(dir *fs.Inode) *Cursor { return &Cursor{dir: dir} }

func (c *Cursor) Dir() *fs.Inode {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.dir
}

// Chdir moves the cursor to `path`, resolved against the current directory
// unless it is absolute. The cursor doesn't move on error.
func (c *Cursor) Chdir(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	dir, err := startOf(c.dir, path).Find(path)
	if err != nil {
		return fmt.Errorf("changing directory: %w", err)
	}
	isDir, err := dir.IsDir()
	if err != nil {
		return fmt.Errorf("changing directory: %w", err)
	}
	if !isDir {
		return fmt.Errorf("changing directory to `%s`: %w", path, NotDirErr)
	}
	c.dir = dir
	return nil
}

// Path is the absolute path of the current directory.
func (c *Cursor) Path() (string, error) {
	return c.Dir().Cwd()
}

func (c *Cursor) Open(path string, flags OpenFlags) (*File, error) {
	return Open(c.Dir(), path, flags)
}
