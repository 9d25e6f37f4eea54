package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/weberc2/easyfs/pkg/cache"
	"github.com/weberc2/easyfs/pkg/config"
	"github.com/weberc2/easyfs/pkg/fs"
	"github.com/weberc2/easyfs/pkg/imagestore"
	eio "github.com/weberc2/easyfs/pkg/io"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer cancel()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// env is the state every command shares once flags and config are loaded.
type env struct {
	config *config.Config
	logger *slog.Logger
	stdout io.Writer
}

func newApp(stdout, stderr io.Writer) *cli.App {
	e := env{stdout: stdout}
	return &cli.App{
		Name:      "efs",
		Usage:     "build, inspect, and ship easy-fs images",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "the YAML config file. Defaults to $EFS_CONFIG_FILE or ~/.config/efs.yaml",
			},
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "the image file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "one of debug, info, warn, error",
			},
		},
		Before: func(ctx *cli.Context) error {
			c, err := config.Load(config.LoadParams{
				ConfigFile: ctx.String("config"),
			})
			if err != nil {
				return err
			}
			if ctx.IsSet("image") {
				c.Image = ctx.String("image")
			}
			if ctx.IsSet("log-level") {
				c.LogLevel = ctx.String("log-level")
			}
			if err := c.Validate(); err != nil {
				return err
			}
			level, err := c.Level()
			if err != nil {
				return err
			}
			e.config = c
			e.logger = newLogger(stderr, level)
			slog.SetDefault(e.logger)
			return nil
		},
		Commands: commands(&e),
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func (e *env) cache() *cache.Cache {
	return cache.New(e.config.CacheCapacity, e.logger)
}

// withImage opens the configured image for the duration of `f`. The file
// system is closed (and therefore synced) before the device.
func (e *env) withImage(
	readOnly bool,
	f func(*fs.FileSystem, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		dev, err := eio.OpenFileDevice(e.config.Image, readOnly)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := dev.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		fsys, err := fs.Open(fs.OpenParams{
			Device: dev,
			Cache:  e.cache(),
			Logger: e.logger,
		})
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := fsys.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
		return f(fsys, ctx)
	}
}

func (e *env) objectStore() (imagestore.ObjectStore, error) {
	if err := e.config.ValidateRemote(); err != nil {
		return nil, err
	}
	s3, err := imagestore.NewS3ObjectStore()
	if err != nil {
		return nil, err
	}
	if e.config.Gzip {
		return &imagestore.GzipObjectStore{ObjectStore: s3}, nil
	}
	return s3, nil
}

func (e *env) printf(format string, v ...interface{}) error {
	if _, err := fmt.Fprintf(e.stdout, format, v...); err != nil {
		return fmt.Errorf("writing to stdout: %w", err)
	}
	return nil
}
