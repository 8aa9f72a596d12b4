package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/yksanjo/roblox-world-generator/pkg/scene"
)

// FileStore writes one document per file under <dir>/worlds as
// world_<id>.json, or world_<id>.json.zst when compression is on.
type FileStore struct {
	dir      string
	compress bool
	logger   *log.Logger
}

func NewFileStore(dir string, compress bool, logger *log.Logger) (*FileStore, error) {
	worlds := filepath.Join(dir, "worlds")
	if err := os.MkdirAll(worlds, 0o755); err != nil {
		return nil, fmt.Errorf("creating world directory: %w", err)
	}
	return &FileStore{dir: worlds, compress: compress, logger: logger}, nil
}

func (s *FileStore) path(jobID string, compressed bool) string {
	name := "world_" + jobID + ".json"
	if compressed {
		name += ".zst"
	}
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Save(ctx context.Context, jobID string, doc *scene.Document) (string, error) {
	if err := checkID(jobID); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stamp(doc, jobID)

	path := s.path(jobID, s.compress)
	tmp := path + ".tmp"
	if err := s.write(tmp, doc); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("renaming world file: %w", err)
	}
	// Drop a stale copy in the other encoding so Load never sees two.
	if err := os.Remove(s.path(jobID, !s.compress)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Printf("storage: removing stale world file: %v", err)
	}
	return path, nil
}

func (s *FileStore) write(path string, doc *scene.Document) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating world file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var enc *zstd.Encoder
	if s.compress {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		defer func() {
			if enc != nil {
				_ = enc.Close()
			}
		}()
		w = enc
	}

	bw := bufio.NewWriterSize(w, 256*1024)
	je := json.NewEncoder(bw)
	je.SetIndent("", "  ")
	if err := je.Encode(doc); err != nil {
		return fmt.Errorf("encoding world: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if enc != nil {
		err := enc.Close()
		enc = nil
		if err != nil {
			return fmt.Errorf("closing zstd stream: %w", err)
		}
	}
	return f.Sync()
}

func (s *FileStore) Raw(ctx context.Context, jobID string) ([]byte, error) {
	if err := checkID(jobID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, compressed := range []bool{s.compress, !s.compress} {
		data, err := s.read(s.path(jobID, compressed), compressed)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return data, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
}

func (s *FileStore) read(path string, compressed bool) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !compressed {
		return io.ReadAll(f)
	}
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dec); err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", filepath.Base(path), err)
	}
	return buf.Bytes(), nil
}

func (s *FileStore) Load(ctx context.Context, jobID string) (*scene.Document, error) {
	data, err := s.Raw(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (s *FileStore) Delete(ctx context.Context, jobID string) (bool, error) {
	if err := checkID(jobID); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	deleted := false
	for _, compressed := range []bool{false, true} {
		err := os.Remove(s.path(jobID, compressed))
		switch {
		case err == nil:
			deleted = true
		case !errors.Is(err, fs.ErrNotExist):
			return deleted, fmt.Errorf("deleting world file: %w", err)
		}
	}
	return deleted, nil
}

func (s *FileStore) Close() error { return nil }

func decode(data []byte) (*scene.Document, error) {
	var doc scene.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding world: %w", err)
	}
	return &doc, nil
}
