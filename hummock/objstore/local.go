// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/erigontech/hummock/hummock/herrors"
)

// Local is an ObjectStore backed by the local filesystem, rooted at baseDir.
// It is the single-node/test-facing implementation; a production deployment
// swaps this for an S3/MinIO-backed adapter, which spec.md treats as an
// external collaborator out of core scope.
type Local struct {
	baseDir string
}

// NewLocal returns a Local object store rooted at baseDir. baseDir must
// already exist.
func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

func (l *Local) resolve(path string) string {
	return filepath.Join(l.baseDir, filepath.FromSlash(path))
}

func (l *Local) Upload(_ context.Context, path string, data []byte) error {
	full := l.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return herrors.IO("objstore: mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return herrors.IO("objstore: upload %s: %v", path, err)
	}
	return nil
}

func (l *Local) Read(_ context.Context, path string, r *ByteRange) ([]byte, error) {
	full := l.resolve(path)
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", herrors.ErrNotFound, path)
		}
		return nil, herrors.IO("objstore: open %s: %v", path, err)
	}
	defer f.Close()

	if r == nil {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, herrors.IO("objstore: read %s: %v", path, err)
		}
		return data, nil
	}

	if _, err := f.Seek(r.Offset, io.SeekStart); err != nil {
		return nil, herrors.IO("objstore: seek %s: %v", path, err)
	}

	var data []byte
	if r.Length > 0 {
		data = make([]byte, r.Length)
		n, err := io.ReadFull(f, data)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, herrors.IO("objstore: read %s: %v", path, err)
		}
		if int64(n) != r.Length {
			return nil, &herrors.ShortReadError{
				Path:     path,
				Expected: int(r.Length),
				Found:    n,
				Range:    fmt.Sprintf("[%d,%d)", r.Offset, r.Offset+r.Length),
			}
		}
	} else {
		var err error
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, herrors.IO("objstore: read %s: %v", path, err)
		}
	}
	return data, nil
}

func (l *Local) Readv(ctx context.Context, path string, ranges []ByteRange) ([][]byte, error) {
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		r := r
		data, err := l.Read(ctx, path, &r)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func (l *Local) Metadata(_ context.Context, path string) (Metadata, error) {
	info, err := os.Stat(l.resolve(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Metadata{}, fmt.Errorf("%w: %s", herrors.ErrNotFound, path)
		}
		return Metadata{}, herrors.IO("objstore: stat %s: %v", path, err)
	}
	return Metadata{TotalSize: info.Size()}, nil
}

func (l *Local) Delete(_ context.Context, path string) error {
	err := os.Remove(l.resolve(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return herrors.IO("objstore: delete %s: %v", path, err)
	}
	return nil
}
