// Package fsutil holds the file plumbing shared by the persistence code:
// directories are created on demand and writes replace their target
// atomically.
package fsutil

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/bcdannyboy/optionlab/errs"
)

// WriteAtomic writes through a temp file in the destination directory and
// renames it over path. The temp file is removed on any failure.
func WriteAtomic(ctx context.Context, op, path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.IO(op, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errs.IO(op, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := ctx.Err(); err != nil {
		return errs.IO(op, err)
	}
	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		return errs.IO(op, err)
	}
	if err := bw.Flush(); err != nil {
		return errs.IO(op, err)
	}
	if err := ctx.Err(); err != nil {
		return errs.IO(op, err)
	}
	if err := tmp.Sync(); err != nil {
		return errs.IO(op, err)
	}
	if err := tmp.Close(); err != nil {
		return errs.IO(op, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errs.IO(op, err)
	}
	return nil
}

// ReadFile reads path whole, failing early on a cancelled ctx.
func ReadFile(ctx context.Context, op, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.IO(op, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO(op, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.IO(op, err)
	}
	return data, nil
}
