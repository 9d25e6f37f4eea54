package imagestore

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/weberc2/easyfs/pkg/fs"
	eio "github.com/weberc2/easyfs/pkg/io"
)

// Push uploads the image at `path`. The image is locked while it is read so
// no other process writes it mid-upload.
func Push(store ObjectStore, bucket, key, path string) error {
	dev, err := eio.OpenFileDevice(path, false)
	if err != nil {
		return fmt.Errorf("pushing `%s`: %w", path, err)
	}
	defer dev.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("pushing `%s`: %w", path, err)
	}
	defer f.Close()

	if err := store.PutObject(bucket, key, f); err != nil {
		return fmt.Errorf("pushing `%s`: %w", path, err)
	}
	slog.Info("pushed image", "path", path, "bucket", bucket, "key", key)
	return nil
}

// Pull downloads an image to `path`. The download lands next to `path`
// first and only replaces it once it opens as a valid image.
func Pull(store ObjectStore, bucket, key, path string) error {
	body, err := store.GetObject(bucket, key)
	if err != nil {
		return fmt.Errorf("pulling `%s`: %w", path, err)
	}
	defer body.Close()

	tmp := path + ".part"
	complete := false
	defer func() {
		if !complete {
			os.Remove(tmp)
		}
	}()

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("pulling `%s`: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("pulling `%s`: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("pulling `%s`: %w", path, err)
	}

	if err := validate(tmp); err != nil {
		return fmt.Errorf("pulling `%s`: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("pulling `%s`: %w", path, err)
	}
	complete = true
	slog.Info("pulled image", "path", path, "bucket", bucket, "key", key)
	return nil
}

func validate(path string) error {
	dev, err := eio.OpenFileDevice(path, true)
	if err != nil {
		return err
	}
	defer dev.Close()
	if _, err := fs.Open(fs.OpenParams{Device: dev}); err != nil {
		return fmt.Errorf("validating image: %w", err)
	}
	return nil
}

// List returns the keys of the images under `prefix`.
func List(store ObjectStore, bucket, prefix string) ([]string, error) {
	keys, err := store.ListObjects(bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	return keys, nil
}
