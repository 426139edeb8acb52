// Feedwise - Community Feed Ranking and Moderation Engine
// Copyright 2026 D. Halvorsen (dhalvorsen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dhalvorsen/feedwise

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dhalvorsen/feedwise/internal/logging"
)

// Key layout:
//
//	ab:assign:<test>:<user>  -> assignment JSON
//	ab:count:<test>:<variant>:<metric> -> uint64 as decimal string
//	log:<unixnano>:<uuid>    -> LogRecord JSON
const (
	assignPrefix  = "ab:assign:"
	counterPrefix = "ab:count:"
	logPrefix     = "log:"
)

// counterRetries bounds optimistic retries on counter increments.
const counterRetries = 8

// Badger is the persistent store for A/B assignments, metric counters and
// append-only decision logs.
type Badger struct {
	db         *badger.DB
	gcInterval time.Duration
}

// BadgerOptions configures the Badger store.
type BadgerOptions struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory runs without disk persistence.
	InMemory bool

	// GCInterval is how often the value log garbage collector runs in Serve.
	GCInterval time.Duration
}

// OpenBadger opens (or creates) the persistent store.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithLogger(badgerLogger{logging.With().Str("component", "badger").Logger()})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", opts.Path, err)
	}

	gc := opts.GCInterval
	if gc <= 0 {
		gc = 10 * time.Minute
	}

	return &Badger{db: db, gcInterval: gc}, nil
}

// Close closes the underlying database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// CreateAssignment writes a first-time variant assignment. If an assignment
// for (testName, userID) already exists, or a concurrent writer wins the
// race, it returns ErrConflict and the caller should re-read.
func (b *Badger) CreateAssignment(_ context.Context, testName, userID string, value []byte) error {
	key := []byte(assignPrefix + testName + ":" + userID)

	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, value)
	})
	if errors.Is(err, badger.ErrConflict) {
		return ErrConflict
	}
	return err
}

// GetAssignment returns the stored assignment bytes or ErrNotFound.
func (b *Badger) GetAssignment(_ context.Context, testName, userID string) ([]byte, error) {
	key := []byte(assignPrefix + testName + ":" + userID)

	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// IncrCounter atomically increments the metric counter for a test variant
// and returns the new value. Transaction conflicts are retried.
func (b *Badger) IncrCounter(_ context.Context, testName, variant, metric string) (uint64, error) {
	key := []byte(counterPrefix + testName + ":" + variant + ":" + metric)

	var updated uint64
	for attempt := 0; attempt < counterRetries; attempt++ {
		err := b.db.Update(func(txn *badger.Txn) error {
			var current uint64
			item, err := txn.Get(key)
			switch {
			case err == nil:
				val, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				current, err = strconv.ParseUint(string(val), 10, 64)
				if err != nil {
					return fmt.Errorf("corrupt counter %q: %w", key, err)
				}
			case errors.Is(err, badger.ErrKeyNotFound):
				current = 0
			default:
				return err
			}
			updated = current + 1
			return txn.Set(key, []byte(strconv.FormatUint(updated, 10)))
		})
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("increment counter %q: %w", key, ErrConflict)
}

// GetCounter returns the metric counter value, or 0 when unset.
func (b *Badger) GetCounter(_ context.Context, testName, variant, metric string) (uint64, error) {
	key := []byte(counterPrefix + testName + ":" + variant + ":" + metric)

	var out uint64
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		out, err = strconv.ParseUint(string(val), 10, 64)
		return err
	})
	if err != nil {
		return 0, err
	}
	return out, nil
}

// AppendLog appends an audit record. The record's ID and CreatedAt are
// assigned here when unset.
func (b *Badger) AppendLog(_ context.Context, rec *LogRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	key := []byte(fmt.Sprintf("%s%020d:%s", logPrefix, rec.CreatedAt.UnixNano(), rec.ID))
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal log record: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

// RecentLogs returns up to limit log records, newest first.
func (b *Badger) RecentLogs(_ context.Context, limit int) ([]*LogRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var out []*LogRecord
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(logPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts just past the prefix range.
		seek := append([]byte(logPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix([]byte(logPrefix)) && len(out) < limit; it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			rec := &LogRecord{}
			if err := json.Unmarshal(val, rec); err != nil {
				return fmt.Errorf("unmarshal log record: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Serve runs the value log garbage collector until ctx is canceled.
// It implements suture.Service.
func (b *Badger) Serve(ctx context.Context) error {
	logger := logging.With().Str("component", "badger").Logger()
	ticker := time.NewTicker(b.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// ErrNoRewrite means there was nothing to collect.
			if err := b.db.RunValueLogGC(0.5); err != nil &&
				!errors.Is(err, badger.ErrNoRewrite) {
				logger.Warn().Err(err).Msg("badger value log GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (b *Badger) String() string { return "badger-gc" }

// badgerLogger adapts zerolog to badger.Logger.
type badgerLogger struct {
	l zerolog.Logger
}

func (bl badgerLogger) Errorf(format string, args ...interface{}) {
	bl.l.Error().Msgf(format, args...)
}

func (bl badgerLogger) Warningf(format string, args ...interface{}) {
	bl.l.Warn().Msgf(format, args...)
}

func (bl badgerLogger) Infof(format string, args ...interface{}) {
	bl.l.Debug().Msgf(format, args...)
}

func (bl badgerLogger) Debugf(format string, args ...interface{}) {
	bl.l.Debug().Msgf(format, args...)
}
