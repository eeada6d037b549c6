package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bodgit/wal"
	"go.uber.org/zap"
)

const (
	// Extension is the file extension of WAL textures
	Extension = ".wal"

	numWorkers = 10
)

// isDecodeError reports whether err is down to the contents of a file rather
// than a failure to read it.
func isDecodeError(err error) bool {
	for _, target := range []error{
		wal.ErrTruncatedHeader,
		wal.ErrInvalidDimensions,
		wal.ErrInvalidOffset,
		wal.ErrTruncatedPixelData,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (c *Catalog) findTextures(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			if !strings.EqualFold(filepath.Ext(file), Extension) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return ctx.Err()
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (c *Catalog) textureWorker(ctx context.Context, in <-chan string, added *int64) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := ctx.Err(); err != nil {
				errc <- err
				return
			}
			_, changed, err := c.Add(file)
			if err != nil {
				if !isDecodeError(err) {
					errc <- err
					return
				}
				c.logger.Warn("skipping texture", zap.String("path", file), zap.Error(err))
				continue
			}
			if changed {
				atomic.AddInt64(added, 1)
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	var first error
	for err := range errc {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path adding every WAL texture found and returns how many were
// added or updated; textures already catalogued and unchanged aren't
// counted. Files that can't be decoded are logged and skipped, any other
// error stops the scan.
func (c *Catalog) Scan(ctx context.Context, path string) (int, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := c.findTextures(ctx, dir)
	if err != nil {
		return 0, err
	}
	errcList = append(errcList, errc)

	var added int64
	for i := 0; i < numWorkers; i++ {
		errc, err := c.textureWorker(ctx, files, &added)
		if err != nil {
			return 0, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(cancelFunc, errcList...); err != nil {
		return int(atomic.LoadInt64(&added)), err
	}

	c.logger.Info("scan complete", zap.String("path", dir), zap.Int64("added", added))

	return int(added), nil
}
