package fs

import (
	"testing"

	"github.com/weberc2/easyfs/pkg/cache"
	"github.com/weberc2/easyfs/pkg/io"
	. "github.com/weberc2/easyfs/pkg/types"
)

func newTestFileSystem(t *testing.T, blocks Block) (*FileSystem, *io.MemoryDevice) {
	t.Helper()
	dev := io.NewMemoryDevice(blocks)
	fsys, err := Create(CreateParams{
		Device:            dev,
		Cache:             cache.New(cache.DefaultCapacity, nil),
		TotalBlocks:       blocks,
		InodeBitmapBlocks: 1,
	})
	if err != nil {
		t.Fatalf("Create(): unexpected err: %v", err)
	}
	return fsys, dev
}

func mustCreate(t *testing.T, dir *Inode, name string) *Inode {
	t.Helper()
	file, err := dir.Create(name)
	if err != nil {
		t.Fatalf("Inode.Create(%s): unexpected err: %v", name, err)
	}
	return file
}

func mustCreateDir(t *testing.T, dir *Inode, name string) *Inode {
	t.Helper()
	child, err := dir.CreateDir(name)
	if err != nil {
		t.Fatalf("Inode.CreateDir(%s): unexpected err: %v", name, err)
	}
	return child
}

func mustLs(t *testing.T, dir *Inode) []string {
	t.Helper()
	names, err := dir.Ls()
	if err != nil {
		t.Fatalf("Inode.Ls(): unexpected err: %v", err)
	}
	return names
}

func mustStat(t *testing.T, fsys *FileSystem) Stat {
	t.Helper()
	stat, err := fsys.Stat()
	if err != nil {
		t.Fatalf("FileSystem.Stat(): unexpected err: %v", err)
	}
	return stat
}

func expectPanic(t *testing.T, what string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: wanted panic; found none", what)
		}
	}()
	f()
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
