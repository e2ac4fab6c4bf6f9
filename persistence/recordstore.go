package persistence

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/d65v/vecbase"
	"github.com/d65v/vecbase/codec"
)

// ErrRecordNotFound is returned by RecordStore.Get for absent ids.
var ErrRecordNotFound = errors.New("record not found")

var (
	recordKeyPrefix = []byte("rec:")
	metaKey         = []byte("meta:store")
)

// Meta is the store configuration kept alongside the records, so a record
// store can be reopened without external configuration.
type Meta struct {
	Dim         int    `json:"dim" msgpack:"dim"`
	Metric      string `json:"metric" msgpack:"metric"`
	MaxElements int    `json:"max_elements" msgpack:"max_elements"`
}

// RecordStoreOptions configures OpenRecordStore.
type RecordStoreOptions struct {
	// InMemory runs badger without disk persistence. Useful for tests.
	InMemory bool

	// Codec encodes record values. Defaults to codec.Default.
	Codec codec.Codec

	// Logger receives badger's own diagnostics. Defaults to a logger that
	// forwards warnings and errors to slog and drops the rest.
	Logger badger.Logger
}

// RecordStore is a badger-backed durable copy of store records. It is an
// incremental alternative to whole-file snapshots: individual records can be
// written and removed as the in-memory store changes.
type RecordStore struct {
	db    *badger.DB
	codec codec.Codec
}

// OpenRecordStore opens (creating if needed) a record store at dir.
func OpenRecordStore(dir string, optFns ...func(o *RecordStoreOptions)) (*RecordStore, error) {
	opts := RecordStoreOptions{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if !opts.InMemory && dir == "" {
		return nil, &StorageError{Op: "open", Path: dir, Err: errors.New("directory required for on-disk mode")}
	}

	dbOpts := badger.DefaultOptions(dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	if opts.Logger != nil {
		dbOpts = dbOpts.WithLogger(opts.Logger)
	} else {
		dbOpts = dbOpts.WithLogger(quietLogger{})
	}

	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, &StorageError{Op: "open", Path: dir, Err: err}
	}
	return &RecordStore{db: db, codec: opts.Codec}, nil
}

func recordKey(id string) []byte {
	return append(append([]byte{}, recordKeyPrefix...), id...)
}

// Put writes one record.
func (s *RecordStore) Put(rec Record) error {
	val, err := s.codec.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), val)
	})
}

// PutBatch writes records through a badger write batch.
func (s *RecordStore) PutBatch(recs []Record) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, rec := range recs {
		val, err := s.codec.Marshal(rec)
		if err != nil {
			return err
		}
		if err := wb.Set(recordKey(rec.ID), val); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Get reads the record stored under id.
func (s *RecordStore) Get(id string) (Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return s.codec.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, ErrRecordNotFound
	}
	return rec, err
}

// Delete removes the record stored under id. Absent ids are a no-op.
func (s *RecordStore) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(recordKey(id))
	})
}

// All iterates every stored record in key order.
func (s *RecordStore) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		err := s.db.View(func(txn *badger.Txn) error {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = recordKeyPrefix
			it := txn.NewIterator(iterOpts)
			defer it.Close()

			for it.Seek(recordKeyPrefix); it.ValidForPrefix(recordKeyPrefix); it.Next() {
				var rec Record
				err := it.Item().Value(func(val []byte) error {
					return s.codec.Unmarshal(val, &rec)
				})
				if !yield(rec, err) {
					return nil
				}
			}
			return nil
		})
		if err != nil {
			yield(Record{}, err)
		}
	}
}

// PutMeta writes the store configuration.
func (s *RecordStore) PutMeta(meta Meta) error {
	val, err := s.codec.Marshal(meta)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey, val)
	})
}

// GetMeta reads the store configuration.
func (s *RecordStore) GetMeta() (Meta, error) {
	var meta Meta
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return s.codec.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Meta{}, ErrRecordNotFound
	}
	return meta, err
}

// Mirror replaces the record store contents with the full state of db.
func (s *RecordStore) Mirror(db *vecbase.VecBase) error {
	cfg := db.Config()
	if err := s.PutMeta(Meta{Dim: cfg.Dim, Metric: cfg.Metric, MaxElements: cfg.MaxElements}); err != nil {
		return err
	}

	recs := make([]Record, 0, db.Len())
	db.Range(func(rec vecbase.VecRecord) bool {
		recs = append(recs, Record{ID: rec.ID, Vector: rec.Vector, Metadata: rec.Metadata})
		return true
	})
	return s.PutBatch(recs)
}

// Restore builds a fresh in-memory store from the record store contents,
// replaying every record through the normal insert path.
func (s *RecordStore) Restore(ctx context.Context, optFns ...vecbase.Option) (*vecbase.VecBase, error) {
	meta, err := s.GetMeta()
	if err != nil {
		return nil, fmt.Errorf("restore meta: %w", err)
	}

	db, err := vecbase.New(vecbase.Config{
		Dim:         meta.Dim,
		Metric:      meta.Metric,
		MaxElements: meta.MaxElements,
	}, optFns...)
	if err != nil {
		return nil, fmt.Errorf("restore config: %w", err)
	}

	for rec, err := range s.All() {
		if err != nil {
			return nil, fmt.Errorf("restore records: %w", err)
		}
		if err := db.Insert(ctx, rec.ID, rec.Vector, rec.Metadata); err != nil {
			return nil, fmt.Errorf("restore record %q: %w", rec.ID, err)
		}
	}
	return db, nil
}

// Close releases the underlying badger database.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// quietLogger forwards badger warnings and errors to slog and drops the
// chatty info/debug output.
type quietLogger struct{}

func (quietLogger) Errorf(f string, v ...any) {
	slog.Error(fmt.Sprintf("badger: "+f, v...))
}

func (quietLogger) Warningf(f string, v ...any) {
	slog.Warn(fmt.Sprintf("badger: "+f, v...))
}

func (quietLogger) Infof(string, ...any)  {}
func (quietLogger) Debugf(string, ...any) {}
