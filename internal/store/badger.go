// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package store implements the job.ResultStore and job.HistoryRecorder
// consumed interfaces over BadgerDB: results are immutable blobs keyed
// by an opaque ID, history is a terminal job state appended under a
// time-ordered key.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	goccyjson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/tvprogram/internal/job"
)

const (
	resultKeyPrefix  = "result:"
	historyKeyPrefix = "history:"
)

// ErrResultNotFound is returned by Load for an unknown result ID.
var ErrResultNotFound = errors.New("store: result not found")

// BadgerStore implements job.ResultStore and job.HistoryRecorder using a
// single BadgerDB instance: exported methods each open one short-lived
// transaction.
type BadgerStore struct {
	db *badger.DB
}

// Open opens (creating if absent) a BadgerDB at path.
func Open(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path))
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ job.ResultStore = (*BadgerStore)(nil)
var _ job.ResultReader = (*BadgerStore)(nil)
var _ job.HistoryRecorder = (*BadgerStore)(nil)

// Save persists result under a newly-assigned opaque ID.
func (s *BadgerStore) Save(ctx context.Context, result job.Result) (string, error) {
	id := uuid.NewString()
	data, err := goccyjson.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("store: marshal result: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(resultKeyPrefix+id), data)
	})
	if err != nil {
		return "", fmt.Errorf("store: save result: %w", err)
	}
	return id, nil
}

// Load retrieves a previously-saved result by its opaque ID.
func (s *BadgerStore) Load(ctx context.Context, resultID string) (*job.Result, error) {
	var result job.Result

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(resultKeyPrefix + resultID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrResultNotFound
		}
		if err != nil {
			return fmt.Errorf("store: get result: %w", err)
		}
		return item.Value(func(val []byte) error {
			return goccyjson.Unmarshal(val, &result)
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Record appends a job's terminal state under a time-ordered key so a
// range scan over historyKeyPrefix yields history in completion order.
func (s *BadgerStore) Record(ctx context.Context, state job.State) error {
	data, err := goccyjson.Marshal(state)
	if err != nil {
		return fmt.Errorf("store: marshal history entry: %w", err)
	}

	key := fmt.Sprintf("%s%020d:%s", historyKeyPrefix, time.Now().UnixNano(), state.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}
