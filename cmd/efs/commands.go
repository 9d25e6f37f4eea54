package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	pz "github.com/weberc2/httpeasy"

	"github.com/weberc2/easyfs/pkg/file"
	"github.com/weberc2/easyfs/pkg/fs"
	"github.com/weberc2/easyfs/pkg/imagestore"
	eio "github.com/weberc2/easyfs/pkg/io"
	"github.com/weberc2/easyfs/pkg/pack"
	"github.com/weberc2/easyfs/pkg/server"
	. "github.com/weberc2/easyfs/pkg/types"
)

func commands(e *env) []*cli.Command {
	return []*cli.Command{{
		Name:  "mkfs",
		Usage: "format a new image",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  "blocks",
				Usage: "the image size in 512-byte blocks. Defaults to totalBlocks from config",
			},
			&cli.UintFlag{
				Name:  "inode-bitmap-blocks",
				Usage: "each inode bitmap block adds 4096 inodes. Defaults to inodeBitmapBlocks from config",
			},
		},
		Action: func(ctx *cli.Context) error {
			blocks, inodeBitmapBlocks := e.geometry(ctx)
			dev, err := eio.CreateFileDevice(e.config.Image, blocks)
			if err != nil {
				return err
			}
			defer dev.Close()

			fsys, err := fs.Create(fs.CreateParams{
				Device:            dev,
				Cache:             e.cache(),
				TotalBlocks:       blocks,
				InodeBitmapBlocks: inodeBitmapBlocks,
				Logger:            e.logger,
			})
			if err != nil {
				return err
			}
			if err := fsys.Close(); err != nil {
				return err
			}
			sb := fsys.Superblock()
			return e.printf(
				"%s: volume %s, %s\n",
				e.config.Image,
				sb.VolumeID,
				humanize.Bytes(uint64(Byte(sb.TotalBlocks)*BlockSize)),
			)
		},
	}, {
		Name:      "pack",
		Usage:     "format a new image holding every file in a host directory",
		ArgsUsage: "SOURCE",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "blocks", Usage: "see mkfs"},
			&cli.UintFlag{Name: "inode-bitmap-blocks", Usage: "see mkfs"},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "the image directory the files land in",
				Value: pack.DefaultDir,
			},
			&cli.BoolFlag{
				Name:  "slugify",
				Usage: "rewrite file names as URL slugs",
			},
		},
		Action: func(ctx *cli.Context) error {
			source := ctx.Args().First()
			if source == "" {
				return fmt.Errorf("pack: missing required argument: SOURCE")
			}
			blocks, inodeBitmapBlocks := e.geometry(ctx)
			dev, err := eio.CreateFileDevice(e.config.Image, blocks)
			if err != nil {
				return err
			}
			defer dev.Close()

			fsys, report, err := pack.Pack(ctx.Context, pack.Params{
				Device:            dev,
				Cache:             e.cache(),
				TotalBlocks:       blocks,
				InodeBitmapBlocks: inodeBitmapBlocks,
				Source:            source,
				Dir:               ctx.String("dir"),
				Slugify:           ctx.Bool("slugify"),
				Logger:            e.logger,
			})
			if err != nil {
				return err
			}
			if err := fsys.Close(); err != nil {
				return err
			}
			for _, f := range report.Files {
				if err := e.printf(
					"%s -> /%s/%s (%s)\n",
					f.Host,
					ctx.String("dir"),
					f.Name,
					humanize.Bytes(uint64(f.Size)),
				); err != nil {
					return err
				}
			}
			return e.printf(
				"packed %d files, %s\n",
				len(report.Files),
				humanize.Bytes(uint64(report.Bytes)),
			)
		},
	}, {
		Name:      "ls",
		Usage:     "list a directory",
		ArgsUsage: "[PATH]",
		Action: e.withImage(true, func(fsys *fs.FileSystem, ctx *cli.Context) error {
			p := argOr(ctx, "/")
			f, err := file.Open(fsys.Root(), p, file.RDONLY)
			if err != nil {
				return err
			}
			defer f.Close()
			dirents, err := f.Dirents()
			if err != nil {
				return err
			}
			for _, dirent := range dirents {
				suffix := ""
				if dirent.Type == file.DirentTypeDirectory {
					suffix = "/"
				}
				if err := e.printf("%s%s\n", dirent.Name, suffix); err != nil {
					return err
				}
			}
			return nil
		}),
	}, {
		Name:      "cat",
		Usage:     "print a file",
		ArgsUsage: "PATH",
		Action: e.withImage(true, func(fsys *fs.FileSystem, ctx *cli.Context) error {
			p, err := arg(ctx, "PATH")
			if err != nil {
				return err
			}
			f, err := file.Open(fsys.Root(), p, file.RDONLY)
			if err != nil {
				return err
			}
			defer f.Close()
			if isDir, err := f.Inode().IsDir(); err != nil {
				return err
			} else if isDir {
				return fmt.Errorf("cat `%s`: %w", p, file.IsDirErr)
			}
			if _, err := io.Copy(e.stdout, f); err != nil {
				return fmt.Errorf("cat `%s`: %w", p, err)
			}
			return nil
		}),
	}, {
		Name:      "put",
		Usage:     "copy a host file into the image, replacing any existing file",
		ArgsUsage: "HOST_PATH IMAGE_PATH",
		Action: e.withImage(false, func(fsys *fs.FileSystem, ctx *cli.Context) error {
			host, dst := ctx.Args().Get(0), ctx.Args().Get(1)
			if host == "" || dst == "" {
				return fmt.Errorf("put: usage: put HOST_PATH IMAGE_PATH")
			}
			src, err := os.Open(host)
			if err != nil {
				return fmt.Errorf("put: %w", err)
			}
			defer src.Close()

			f, err := file.Open(fsys.Root(), dst, file.CREATE|file.WRONLY)
			if err != nil {
				return err
			}
			defer f.Close()
			n, err := io.Copy(f, src)
			if err != nil {
				return fmt.Errorf("put `%s` -> `%s`: %w", host, dst, err)
			}
			e.logger.Info("put file", "host", host, "path", dst, "size", humanize.Bytes(uint64(n)))
			return nil
		}),
	}, {
		Name:      "mkdir",
		Usage:     "create a directory",
		ArgsUsage: "PATH",
		Action: e.withImage(false, func(fsys *fs.FileSystem, ctx *cli.Context) error {
			p, err := arg(ctx, "PATH")
			if err != nil {
				return err
			}
			dir, name := path.Split(path.Clean("/" + p))
			parent, err := fsys.Root().Find(dir)
			if err != nil {
				return fmt.Errorf("mkdir `%s`: %w", p, err)
			}
			if _, err := parent.CreateDir(name); err != nil {
				return fmt.Errorf("mkdir `%s`: %w", p, err)
			}
			return nil
		}),
	}, {
		Name:      "tree",
		Usage:     "print the directory hierarchy",
		ArgsUsage: "[PATH]",
		Action: e.withImage(true, func(fsys *fs.FileSystem, ctx *cli.Context) error {
			node, err := fsys.Root().Find(argOr(ctx, "/"))
			if err != nil {
				return err
			}
			return pack.Tree(e.stdout, node)
		}),
	}, {
		Name:  "stat",
		Usage: "print image geometry and usage",
		Action: e.withImage(true, func(fsys *fs.FileSystem, ctx *cli.Context) error {
			stat, err := fsys.Stat()
			if err != nil {
				return err
			}
			return e.printf(
				"volume:  %s\n"+
					"size:    %s (%d blocks)\n"+
					"inodes:  %d used, %d free\n"+
					"data:    %s used, %s free\n",
				stat.VolumeID,
				humanize.Bytes(uint64(Byte(stat.TotalBlocks)*stat.BlockSize)),
				stat.TotalBlocks,
				stat.UsedInodes,
				stat.FreeInodes(),
				humanize.Bytes(stat.UsedBlocks*uint64(stat.BlockSize)),
				humanize.Bytes(stat.FreeBlocks()*uint64(stat.BlockSize)),
			)
		}),
	}, {
		Name:  "serve",
		Usage: "browse the image over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "the listen address. Defaults to addr from config",
			},
		},
		Action: e.withImage(true, func(fsys *fs.FileSystem, ctx *cli.Context) error {
			addr := e.config.Addr
			if ctx.IsSet("addr") {
				addr = ctx.String("addr")
			}
			srv := server.Server{FS: fsys}
			httpServer := http.Server{
				Addr:    addr,
				Handler: pz.Register(pz.JSONLog(os.Stderr), srv.Routes()...),
			}
			go func() {
				<-ctx.Context.Done()
				httpServer.Close()
			}()
			e.logger.Info("serving image", "image", e.config.Image, "addr", addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}),
	}, {
		Name:  "push",
		Usage: "upload the image to the configured bucket and key",
		Action: func(ctx *cli.Context) error {
			store, err := e.objectStore()
			if err != nil {
				return err
			}
			return imagestore.Push(store, e.config.Bucket, e.config.Key, e.config.Image)
		},
	}, {
		Name:  "pull",
		Usage: "download the image from the configured bucket and key",
		Action: func(ctx *cli.Context) error {
			store, err := e.objectStore()
			if err != nil {
				return err
			}
			return imagestore.Pull(store, e.config.Bucket, e.config.Key, e.config.Image)
		},
	}, {
		Name:      "images",
		Usage:     "list the images in the configured bucket",
		ArgsUsage: "[PREFIX]",
		Action: func(ctx *cli.Context) error {
			if e.config.Bucket == "" {
				return fmt.Errorf("missing required configuration: bucket / EFS_BUCKET")
			}
			s3, err := imagestore.NewS3ObjectStore()
			if err != nil {
				return err
			}
			keys, err := imagestore.List(s3, e.config.Bucket, ctx.Args().First())
			if err != nil {
				return err
			}
			for _, key := range keys {
				if err := e.printf("%s\n", key); err != nil {
					return err
				}
			}
			return nil
		},
	}}
}

func (e *env) geometry(ctx *cli.Context) (Block, Block) {
	blocks, inodeBitmapBlocks := e.config.TotalBlocks, e.config.InodeBitmapBlocks
	if ctx.IsSet("blocks") {
		blocks = Block(ctx.Uint("blocks"))
	}
	if ctx.IsSet("inode-bitmap-blocks") {
		inodeBitmapBlocks = Block(ctx.Uint("inode-bitmap-blocks"))
	}
	return blocks, inodeBitmapBlocks
}

func arg(ctx *cli.Context, name string) (string, error) {
	if v := ctx.Args().First(); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s: missing required argument: %s", ctx.Command.Name, name)
}

func argOr(ctx *cli.Context, fallback string) string {
	if v := ctx.Args().First(); v != "" {
		return v
	}
	return fallback
}
