// Package server exposes a read-only HTTP view of a mounted image.
package server

import (
	"bytes"
	"errors"
	"io"

	pz "github.com/weberc2/httpeasy"

	"github.com/weberc2/easyfs/pkg/file"
	"github.com/weberc2/easyfs/pkg/fs"
	. "github.com/weberc2/easyfs/pkg/types"
)

// Server browses `FS`. It never mutates the image.
type Server struct {
	FS *fs.FileSystem
}

type Entry struct {
	Name string `json:"name"`
	Ino  Ino    `json:"ino"`
	Type string `json:"type"`
	Size Byte   `json:"size"`
}

type Listing struct {
	Path    string  `json:"path"`
	Entries []Entry `json:"entries"`
}

type logging struct {
	Message string
	Path    string `json:",omitempty"`
	Error   string `json:",omitempty"`
}

func (s *Server) Routes() []pz.Route {
	return []pz.Route{{
		Method:  "GET",
		Path:    "/api/stat",
		Handler: s.Stat,
	}, {
		Method:  "GET",
		Path:    "/api/ls/{path:.*}",
		Handler: s.Ls,
	}, {
		Method:  "GET",
		Path:    "/api/cat/{path:.*}",
		Handler: s.Cat,
	}}
}

func (s *Server) Stat(r pz.Request) pz.Response {
	stat, err := s.FS.Stat()
	if err != nil {
		return pz.InternalServerError(&logging{
			Message: "stat: reading usage",
			Error:   err.Error(),
		})
	}
	return pz.Ok(pz.JSON(&stat), &logging{Message: "stat"})
}

func (s *Server) Ls(r pz.Request) pz.Response {
	path := "/" + r.Vars["path"]
	f, err := file.Open(s.FS.Root(), path, file.RDONLY)
	if err != nil {
		return failure("ls", path, err)
	}
	defer f.Close()

	listing := Listing{Path: path, Entries: []Entry{}}
	isDir, err := f.Inode().IsDir()
	if err != nil {
		return failure("ls", path, err)
	}
	if !isDir {
		entry, err := entryOf(f.Inode(), path)
		if err != nil {
			return failure("ls", path, err)
		}
		listing.Entries = append(listing.Entries, entry)
		return pz.Ok(pz.JSON(&listing), &logging{Message: "ls", Path: path})
	}

	dirents, err := f.Dirents()
	if err != nil {
		return failure("ls", path, err)
	}
	for _, dirent := range dirents {
		child, err := f.Inode().Find(dirent.Name)
		if err != nil {
			return failure("ls", path, err)
		}
		entry, err := entryOf(child, dirent.Name)
		if err != nil {
			return failure("ls", path, err)
		}
		listing.Entries = append(listing.Entries, entry)
	}
	return pz.Ok(pz.JSON(&listing), &logging{Message: "ls", Path: path})
}

func (s *Server) Cat(r pz.Request) pz.Response {
	path := "/" + r.Vars["path"]
	f, err := file.Open(s.FS.Root(), path, file.RDONLY)
	if err != nil {
		return failure("cat", path, err)
	}
	defer f.Close()

	isDir, err := f.Inode().IsDir()
	if err != nil {
		return failure("cat", path, err)
	}
	if isDir {
		return failure("cat", path, file.IsDirErr)
	}
	data, err := f.ReadAll()
	if err != nil {
		return failure("cat", path, err)
	}
	return pz.Ok(raw(data), &logging{Message: "cat", Path: path})
}

func entryOf(node *fs.Inode, name string) (Entry, error) {
	di, err := node.Stat()
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{
		Name: name,
		Ino:  node.Ino(),
		Type: file.DirentTypeFile.String(),
		Size: di.Size,
	}
	if di.IsDir() {
		entry.Type = file.DirentTypeDirectory.String()
	}
	return entry, nil
}

func raw(data []byte) pz.Serializer {
	return func() (io.WriterTo, error) { return bytes.NewReader(data), nil }
}

func failure(op, path string, err error) pz.Response {
	ctx := logging{Message: op, Path: path, Error: err.Error()}
	switch {
	case errors.Is(err, fs.NotFoundErr):
		return pz.NotFound(pz.Stringf("not found: %s", path), &ctx)
	case errors.Is(err, file.IsDirErr), errors.Is(err, fs.InvalidNameErr):
		return pz.BadRequest(pz.String(err.Error()), &ctx)
	default:
		return pz.InternalServerError(&ctx)
	}
}
