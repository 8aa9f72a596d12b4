package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"github.com/yksanjo/roblox-world-generator/pkg/scene"
)

// BadgerStore keeps documents in an embedded badger database under
// <dir>/badger, keyed world/<id>.
type BadgerStore struct {
	db     *badger.DB
	logger *log.Logger
}

func NewBadgerStore(dir string, logger *log.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Join(dir, "badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger: %w", err)
	}
	return &BadgerStore{db: db, logger: logger}, nil
}

func worldKey(jobID string) []byte {
	return []byte("world/" + jobID)
}

func (s *BadgerStore) Save(ctx context.Context, jobID string, doc *scene.Document) (string, error) {
	if err := checkID(jobID); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stamp(doc, jobID)

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding world: %w", err)
	}
	key := worldKey(jobID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return "", fmt.Errorf("writing world: %w", err)
	}
	return "badger:" + string(key), nil
}

func (s *BadgerStore) Raw(ctx context.Context, jobID string) ([]byte, error) {
	if err := checkID(jobID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(worldKey(jobID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading world: %w", err)
	}
	return data, nil
}

func (s *BadgerStore) Load(ctx context.Context, jobID string) (*scene.Document, error) {
	data, err := s.Raw(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func (s *BadgerStore) Delete(ctx context.Context, jobID string) (bool, error) {
	if err := checkID(jobID); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	deleted := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := worldKey(jobID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		deleted = true
		return txn.Delete(key)
	})
	if err != nil {
		return false, fmt.Errorf("deleting world: %w", err)
	}
	return deleted, nil
}

func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Printf("storage: closing badger: %v", err)
		return err
	}
	return nil
}
