// Package pack builds an image from a directory on the host.
package pack

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"github.com/zeebo/blake3"

	"github.com/weberc2/easyfs/pkg/cache"
	"github.com/weberc2/easyfs/pkg/file"
	"github.com/weberc2/easyfs/pkg/fs"
	eio "github.com/weberc2/easyfs/pkg/io"
	. "github.com/weberc2/easyfs/pkg/types"
)

// DefaultDir is the image directory packed files land in.
const DefaultDir = "bin"

const HashMismatchErr ConstError = "image copy differs from host file"

type Params struct {
	Device            eio.BlockDevice
	Cache             *cache.Cache
	TotalBlocks       Block
	InodeBitmapBlocks Block

	// Source is the host directory whose regular files are packed.
	Source string

	// Dir is the top-level image directory; `DefaultDir` when empty.
	Dir string

	// Slugify rewrites each name with `slug.Make` after its extension is
	// dropped.
	Slugify bool

	Logger *slog.Logger
}

type Report struct {
	Files []PackedFile
	Bytes Byte
}

type PackedFile struct {
	Host     string
	Name     string
	Size     Byte
	Checksum string
}

// Pack formats `params.Device` and copies every regular file directly
// inside `params.Source` into the image's top-level directory, verifying
// each copy by checksum. Files are packed in name order; cancellation is
// checked between files.
func Pack(ctx context.Context, params Params) (*fs.FileSystem, Report, error) {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dirName := params.Dir
	if dirName == "" {
		dirName = DefaultDir
	}

	hostEntries, err := os.ReadDir(params.Source)
	if err != nil {
		return nil, Report{}, fmt.Errorf("packing `%s`: %w", params.Source, err)
	}
	sort.Slice(hostEntries, func(i, j int) bool {
		return hostEntries[i].Name() < hostEntries[j].Name()
	})

	fsys, err := fs.Create(fs.CreateParams{
		Device:            params.Device,
		Cache:             params.Cache,
		TotalBlocks:       params.TotalBlocks,
		InodeBitmapBlocks: params.InodeBitmapBlocks,
		Logger:            logger,
	})
	if err != nil {
		return nil, Report{}, fmt.Errorf("packing `%s`: %w", params.Source, err)
	}
	dir, err := fsys.Root().CreateDir(dirName)
	if err != nil {
		return nil, Report{}, fmt.Errorf("packing `%s`: %w", params.Source, err)
	}

	var (
		report Report
		seen   = map[string]string{}
	)
	for _, entry := range hostEntries {
		if err := ctx.Err(); err != nil {
			return nil, report, fmt.Errorf("packing `%s`: %w", params.Source, err)
		}
		if !entry.Type().IsRegular() {
			logger.Debug("skipping non-regular file", "name", entry.Name())
			continue
		}

		name := ImageName(entry.Name(), params.Slugify)
		if other, exists := seen[name]; exists {
			return nil, report, fmt.Errorf(
				"packing `%s`: `%s` and `%s` both map to `%s`: %w",
				params.Source,
				other,
				entry.Name(),
				name,
				fs.ExistsErr,
			)
		}
		seen[name] = entry.Name()
		host := filepath.Join(params.Source, entry.Name())
		packed, err := packFile(dir, host, name)
		if err != nil {
			return nil, report, fmt.Errorf("packing `%s`: %w", params.Source, err)
		}
		logger.Info(
			"packed file",
			"host", host,
			"name", "/"+dirName+"/"+name,
			"size", packed.Size,
		)
		report.Files = append(report.Files, packed)
		report.Bytes += packed.Size
	}
	return fsys, report, nil
}

// ImageName drops everything from the first "." of a host file name
// (unless the name starts with one) and optionally slugifies the rest.
func ImageName(hostName string, slugify bool) string {
	name := hostName
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if slugify {
		name = slug.Make(name)
	}
	return name
}

func packFile(dir *fs.Inode, host, name string) (PackedFile, error) {
	src, err := os.Open(host)
	if err != nil {
		return PackedFile{}, fmt.Errorf("packing `%s`: %w", host, err)
	}
	defer src.Close()

	dst, err := file.Open(dir, name, file.CREATE|file.WRONLY)
	if err != nil {
		return PackedFile{}, fmt.Errorf("packing `%s` as `%s`: %w", host, name, err)
	}
	defer dst.Close()

	srcHasher := blake3.New()
	n, err := io.Copy(dst, io.TeeReader(src, srcHasher))
	if err != nil {
		return PackedFile{}, fmt.Errorf("packing `%s` as `%s`: %w", host, name, err)
	}

	// hash what actually landed in the image
	dstHasher := blake3.New()
	back, err := file.Open(dir, name, file.RDONLY)
	if err != nil {
		return PackedFile{}, fmt.Errorf("verifying `%s`: %w", name, err)
	}
	defer back.Close()
	if _, err := io.Copy(dstHasher, back); err != nil {
		return PackedFile{}, fmt.Errorf("verifying `%s`: %w", name, err)
	}

	srcSum, dstSum := srcHasher.Sum(nil), dstHasher.Sum(nil)
	if !bytes.Equal(srcSum, dstSum) {
		return PackedFile{}, fmt.Errorf(
			"verifying `%s`: %s (host) != %s (image): %w",
			name,
			hex.EncodeToString(srcSum),
			hex.EncodeToString(dstSum),
			HashMismatchErr,
		)
	}
	return PackedFile{
		Host:     host,
		Name:     name,
		Size:     Byte(n),
		Checksum: hex.EncodeToString(srcSum),
	}, nil
}
