package kv

import (
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// rootBucket holds every key in one flat namespace. Prefix/range scanning
// is implemented by this package's own key encoding (see keys.go), not by
// bbolt's nested-bucket hierarchy, so a single bucket is sufficient and
// keeps cursor semantics simple.
var rootBucket = []byte("reddwarf")

// ReadView is a consistent, read-only snapshot of the engine.
type ReadView interface {
	// Get returns ErrNotFound if key is absent.
	Get(key []byte) ([]byte, error)

	// Range invokes fn for every key with the given prefix, in ascending
	// byte order. fn's key/value slices are only valid for the duration
	// of the call — copy them if retained.
	Range(prefix []byte, fn func(key, value []byte) error) error

	// RangeBounded invokes fn for every key k with lo <= k < hi, in
	// ascending order. A nil hi means unbounded above.
	RangeBounded(lo, hi []byte, fn func(key, value []byte) error) error
}

// WriteTxn extends ReadView with mutation within a single bbolt
// read-write transaction; bbolt serializes these so at most one is in
// flight at a time.
type WriteTxn interface {
	ReadView

	Put(key, value []byte) error

	// Delete is a no-op, not an error, if key is absent.
	Delete(key []byte) error
}

// Engine is Reddwarf's embedded key/value store.
type Engine struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt database file at path.
func Open(path string) (*Engine, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: init bucket: %v", ErrIO, err)
	}
	return &Engine{db: db}, nil
}

// Close flushes and closes the underlying database file.
func (e *Engine) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrIO, err)
	}
	return nil
}

// View runs fn against a read-only MVCC snapshot. The snapshot reflects
// every Update that returned before View was called, and none that
// returns after.
func (e *Engine) View(fn func(ReadView) error) error {
	err := e.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket)
		return fn(&txView{b: b})
	})
	return wrapTxErr(err)
}

// Update runs fn inside a single exclusive read-write transaction. If fn
// returns an error the transaction is rolled back and no Put/Delete
// within it is observed by any later View or Update.
func (e *Engine) Update(fn func(WriteTxn) error) error {
	err := e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(rootBucket)
		return fn(&txView{b: b})
	})
	return wrapTxErr(err)
}

func wrapTxErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bolt.ErrDatabaseNotOpen) || errors.Is(err, bolt.ErrInvalid) {
		return fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	return err
}

// txView implements both ReadView and WriteTxn over a live *bolt.Bucket;
// the bucket's own transaction (read-only or read-write) determines
// which operations are legal, enforced by bbolt itself.
type txView struct {
	b *bolt.Bucket
}

func (v *txView) Get(key []byte) ([]byte, error) {
	val := v.b.Get(key)
	if val == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (v *txView) Range(prefix []byte, fn func(key, value []byte) error) error {
	c := v.b.Cursor()
	for k, val := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, val = c.Next() {
		if err := fn(k, val); err != nil {
			return err
		}
	}
	return nil
}

func (v *txView) RangeBounded(lo, hi []byte, fn func(key, value []byte) error) error {
	c := v.b.Cursor()
	for k, val := c.Seek(lo); k != nil && (hi == nil || bytesLess(k, hi)); k, val = c.Next() {
		if err := fn(k, val); err != nil {
			return err
		}
	}
	return nil
}

func (v *txView) Put(key, value []byte) error {
	return v.b.Put(key, value)
}

func (v *txView) Delete(key []byte) error {
	return v.b.Delete(key)
}

func hasPrefix(k, prefix []byte) bool {
	if len(k) < len(prefix) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func bytesLess(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
