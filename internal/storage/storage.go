// Package storage persists projected scene documents by job id.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/yksanjo/roblox-world-generator/pkg/scene"
)

var (
	ErrNotFound  = errors.New("world not found")
	ErrInvalidID = errors.New("invalid job id")
)

// Store reads and writes scene documents keyed by job id.
type Store interface {
	// Save stamps doc.Metadata with the job id and save time, writes it, and
	// returns where it was written.
	Save(ctx context.Context, jobID string, doc *scene.Document) (string, error)
	Load(ctx context.Context, jobID string) (*scene.Document, error)
	// Raw returns the stored document as uncompressed JSON.
	Raw(ctx context.Context, jobID string) ([]byte, error)
	Delete(ctx context.Context, jobID string) (bool, error)
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
)

// Options selects and configures a backend.
type Options struct {
	Backend  Backend
	Dir      string
	Compress bool
	Logger   *log.Logger
}

// Open returns the Store described by opts.
func Open(opts Options) (Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("storage: empty directory")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	switch opts.Backend {
	case BackendFile, "":
		return NewFileStore(opts.Dir, opts.Compress, opts.Logger)
	case BackendBadger:
		return NewBadgerStore(opts.Dir, opts.Logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", opts.Backend)
	}
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

func checkID(jobID string) error {
	if !idPattern.MatchString(jobID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, jobID)
	}
	return nil
}

func stamp(doc *scene.Document, jobID string) {
	doc.Metadata.JobID = jobID
	doc.Metadata.SavedAt = time.Now().UTC().Format(time.RFC3339)
}
