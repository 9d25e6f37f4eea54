// Package testsupport holds fixtures shared by tests across packages.
package testsupport

import (
	"path"
	"sort"
	"strings"
	"testing"

	"github.com/weberc2/easyfs/pkg/cache"
	"github.com/weberc2/easyfs/pkg/fs"
	"github.com/weberc2/easyfs/pkg/io"
)

// ImageBlocks is the size of images built by `NewImage`.
const ImageBlocks = 4096

// NewImage formats an in-memory image and populates it with `files`, keyed
// by absolute path. Intermediate directories are created as needed, and a
// path ending in "/" names an empty directory.
func NewImage(t testing.TB, files map[string]string) (*fs.FileSystem, *io.MemoryDevice) {
	t.Helper()
	dev := io.NewMemoryDevice(ImageBlocks)
	fsys, err := fs.Create(fs.CreateParams{
		Device:            dev,
		Cache:             cache.New(cache.DefaultCapacity, nil),
		TotalBlocks:       ImageBlocks,
		InodeBitmapBlocks: 1,
	})
	if err != nil {
		t.Fatalf("creating test image: %v", err)
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		dir := mkdirAll(t, fsys.Root(), path.Dir(strings.TrimSuffix(p, "/")))
		if strings.HasSuffix(p, "/") {
			mkdirAll(t, dir, path.Base(p))
			continue
		}
		file, err := dir.Create(path.Base(p))
		if err != nil {
			t.Fatalf("creating test file `%s`: %v", p, err)
		}
		if _, err := file.WriteAt(0, []byte(files[p])); err != nil {
			t.Fatalf("writing test file `%s`: %v", p, err)
		}
	}
	return fsys, dev
}

func mkdirAll(t testing.TB, dir *fs.Inode, p string) *fs.Inode {
	t.Helper()
	for _, name := range strings.Split(p, "/") {
		if name == "" || name == "." {
			continue
		}
		next, err := dir.Find(name)
		if err != nil {
			if next, err = dir.CreateDir(name); err != nil {
				t.Fatalf("creating test directory `%s`: %v", p, err)
			}
		}
		dir = next
	}
	return dir
}
