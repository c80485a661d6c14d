package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/orneryd/agego/pkg/cypher"
)

// Key prefixes for BadgerDB storage organization
const (
	prefixPlan = byte(0x01) // plans:fingerprint -> JSON(PlanRecord)
)

// PlanStore persists projection plans in BadgerDB.
//
// Key Structure:
//   - Plans: 0x01 + blake2b-256(query) -> JSON(PlanRecord)
//
// Records carry their query text, so a lookup verifies the stored query
// before returning it.
//
// Thread Safety:
//
//	Safe for concurrent use from multiple goroutines.
type PlanStore struct {
	db     *badger.DB
	mu     sync.RWMutex // Protects closed
	closed bool
	now    func() time.Time
}

// PlanStoreOptions configures the plan store.
type PlanStoreOptions struct {
	// DataDir is the directory for storing data files.
	// Required unless InMemory is set.
	DataDir string

	// InMemory runs BadgerDB in memory-only mode.
	// Useful for testing. Data is not persisted.
	InMemory bool

	// SyncWrites forces fsync after each write.
	SyncWrites bool

	// Logger for BadgerDB internal logging.
	// If nil, BadgerDB logging is silenced.
	Logger badger.Logger
}

// OpenPlanStore opens (or creates) a persistent plan store in dataDir.
func OpenPlanStore(dataDir string) (*PlanStore, error) {
	return OpenPlanStoreWithOptions(PlanStoreOptions{DataDir: dataDir})
}

// OpenPlanStoreInMemory creates an in-memory plan store for testing.
//
// Example:
//
//	store, err := storage.OpenPlanStoreInMemory()
//	if err != nil {
//		t.Fatal(err)
//	}
//	defer store.Close()
func OpenPlanStoreInMemory() (*PlanStore, error) {
	return OpenPlanStoreWithOptions(PlanStoreOptions{InMemory: true})
}

// OpenPlanStoreWithOptions opens a plan store with custom configuration.
//
// Plans are small, so the store always runs with reduced memtable and
// cache sizes.
func OpenPlanStoreWithOptions(opts PlanStoreOptions) (*PlanStore, error) {
	if opts.DataDir == "" && !opts.InMemory {
		return nil, fmt.Errorf("plan store: data directory required")
	}

	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	}

	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}

	if opts.Logger != nil {
		badgerOpts = badgerOpts.WithLogger(opts.Logger)
	} else {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	badgerOpts = badgerOpts.
		WithMemTableSize(8 << 20).      // 8MB instead of 64MB
		WithValueLogFileSize(16 << 20). // 16MB instead of 1GB
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithBlockCacheSize(8 << 20).
		WithIndexCacheSize(4 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &PlanStore{db: db, now: time.Now}, nil
}

// planKey creates a key for storing a plan.
func planKey(fp Fingerprint) []byte {
	key := make([]byte, 0, 1+len(fp))
	key = append(key, prefixPlan)
	return append(key, fp[:]...)
}

func (s *PlanStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStorageClosed
	}
	return nil
}

// Get returns the stored plan record for query, or ErrNotFound.
func (s *PlanStore) Get(query string) (*PlanRecord, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var rec *PlanRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(planKey(FingerprintOf(query)))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decErr error
			rec, decErr = deserializeRecord(val)
			return decErr
		})
	})
	if err != nil {
		return nil, err
	}
	if rec.Query != query {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Put stores plan for query, replacing any previous plan. CreatedAt of an
// existing record is preserved.
func (s *PlanStore) Put(query string, plan cypher.Plan) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	key := planKey(FingerprintOf(query))
	now := s.now().UTC()

	return s.db.Update(func(txn *badger.Txn) error {
		rec := &PlanRecord{Query: query, Plan: plan, CreatedAt: now, UpdatedAt: now}

		item, err := txn.Get(key)
		switch {
		case err == nil:
			_ = item.Value(func(val []byte) error {
				if old, decErr := deserializeRecord(val); decErr == nil && old.Query == query {
					rec.CreatedAt = old.CreatedAt
				}
				return nil
			})
		case err != badger.ErrKeyNotFound:
			return err
		}

		data, err := serializeRecord(rec)
		if err != nil {
			return fmt.Errorf("failed to encode plan: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Delete removes the plan for query. Deleting an absent plan returns
// ErrNotFound.
func (s *PlanStore) Delete(query string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	key := planKey(FingerprintOf(query))
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == badger.ErrKeyNotFound {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// List returns every stored record ordered by query text. Records that fail
// to decode are skipped.
func (s *PlanStore) List() ([]*PlanRecord, error) {
	var records []*PlanRecord
	err := s.Iterate(func(rec *PlanRecord) bool {
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Query < records[j].Query })
	return records, nil
}

// Iterate calls fn for every stored record in key order.
// The callback returns true to continue, false to stop.
func (s *PlanStore) Iterate(fn func(*PlanRecord) bool) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.PrefetchSize = 10
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{prefixPlan}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec *PlanRecord
			err := it.Item().Value(func(val []byte) error {
				var decErr error
				rec, decErr = deserializeRecord(val)
				return decErr
			})
			if err != nil {
				continue // Skip invalid records
			}
			if !fn(rec) {
				break
			}
		}
		return nil
	})
}

// Count returns the number of stored plans.
func (s *PlanStore) Count() (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{prefixPlan}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Clear removes every stored plan and returns how many were removed.
func (s *PlanStore) Clear() (int, error) {
	n, err := s.Count()
	if err != nil {
		return 0, err
	}
	if err := s.db.DropPrefix([]byte{prefixPlan}); err != nil {
		return 0, fmt.Errorf("failed to clear plans: %w", err)
	}
	return n, nil
}

// RunGC runs garbage collection on the BadgerDB value log.
// Nothing to collect, and in-memory mode, are not errors.
func (s *PlanStore) RunGC() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.db.RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite || err == badger.ErrGCInMemoryMode {
		return nil
	}
	return err
}

// Close closes the BadgerDB database. Closing twice is a no-op.
func (s *PlanStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
