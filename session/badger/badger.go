// Package badger provides a durable core.SessionStore backed by BadgerDB v4.
// Exchanges are msgpack encoded under per-session, sequence ordered keys.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/hupe1980/chatrouter/core"
	"github.com/hupe1980/chatrouter/logging"
	"github.com/vmihailenco/msgpack/v5"
)

const conflictRetries = 3

// Options configures the Badger session store.
type Options struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string
	// InMemory runs BadgerDB without disk persistence (tests).
	InMemory bool
	// TTL expires exchanges after the given duration. Zero keeps them forever.
	TTL time.Duration
	// Logger receives badger warnings and errors.
	Logger logging.Logger
}

// Store is a SessionStore persisting history in BadgerDB.
type Store struct {
	db   *badger.DB
	opts Options
}

var _ core.SessionStore = (*Store)(nil)

// Open opens (or creates) a Badger session store.
func Open(optFns ...func(o *Options)) (*Store, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger session store: Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{logging.OrNoOp(opts.Logger)})
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, opts: opts}, nil
}

// Session ids are opaque, so keys carry the id length before the id. A
// session's prefix can then never be a prefix of another session's keys.
func sessionKey(kind byte, sessionID string) []byte {
	k := make([]byte, 0, 2+binary.MaxVarintLen64+len(sessionID)+8)
	k = append(k, kind, '/')
	k = binary.AppendUvarint(k, uint64(len(sessionID)))
	return append(k, sessionID...)
}

func historyPrefix(sessionID string) []byte {
	return sessionKey('h', sessionID)
}

func counterKey(sessionID string) []byte {
	return sessionKey('c', sessionID)
}

func exchangeKey(sessionID string, seq uint64) []byte {
	k := historyPrefix(sessionID)
	return binary.BigEndian.AppendUint64(k, seq)
}

// History returns up to limit trailing exchanges, oldest first.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]core.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prefix := historyPrefix(sessionID)
	var out []core.Exchange
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.Reverse = true
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		seek := append(slices.Clone(prefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var ex core.Exchange
			if err := msgpack.Unmarshal(val, &ex); err != nil {
				return fmt.Errorf("decode exchange: %w", err)
			}
			out = append(out, ex)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(out)
	return out, nil
}

// Append stores ex as the next exchange of the session.
func (s *Store) Append(ctx context.Context, sessionID string, ex core.Exchange) error {
	data, err := msgpack.Marshal(ex)
	if err != nil {
		return fmt.Errorf("encode exchange: %w", err)
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			seq, err := nextSeq(txn, sessionID)
			if err != nil {
				return err
			}
			entry := badger.NewEntry(exchangeKey(sessionID, seq), data)
			if s.opts.TTL > 0 {
				entry = entry.WithTTL(s.opts.TTL)
			}
			if err := txn.SetEntry(entry); err != nil {
				return err
			}
			return txn.Set(counterKey(sessionID), binary.BigEndian.AppendUint64(nil, seq))
		})
		if errors.Is(err, badger.ErrConflict) && attempt < conflictRetries {
			continue
		}
		return err
	}
}

func nextSeq(txn *badger.Txn, sessionID string) (uint64, error) {
	item, err := txn.Get(counterKey(sessionID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("corrupt sequence counter for session %q", sessionID)
	}
	return binary.BigEndian.Uint64(val) + 1, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger output to a logging.Logger, suppressing debug
// and info level messages.
type badgerLogger struct{ l logging.Logger }

func (b badgerLogger) Errorf(f string, v ...interface{}) {
	b.l.Error("badger", "detail", fmt.Sprintf(f, v...))
}

func (b badgerLogger) Warningf(f string, v ...interface{}) {
	b.l.Warn("badger", "detail", fmt.Sprintf(f, v...))
}
func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
