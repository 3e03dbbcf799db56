package kvstore

import (
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/photocore/pkg/catalogerr"
)

// Tree names one of the store's named keyspaces.
type Tree []byte

var (
	Users             Tree = []byte("users")
	Emails            Tree = []byte("emails")
	Sessions          Tree = []byte("sessions")
	Files             Tree = []byte("files")
	FileNames         Tree = []byte("file_names")
	Albums            Tree = []byte("albums")
	UserToAlbum       Tree = []byte("user_to_album")
	AlbumToUser       Tree = []byte("album_to_user")
	Inclusions        Tree = []byte("inclusions")
	InclusionsByAlbum Tree = []byte("inclusions_by_album")
	Fragments         Tree = []byte("fragments")
	DeleteJournal     Tree = []byte("delete_journal")
	sequences         Tree = []byte("sequences")
)

// allTrees is created on open so every caller can assume its tree exists
// without special-casing first use.
var allTrees = []Tree{
	Users, Emails, Sessions, Files, FileNames, Albums,
	UserToAlbum, AlbumToUser, Inclusions, InclusionsByAlbum,
	Fragments, DeleteJournal, sequences,
}

// maxRetries bounds the retry loop Update runs a body under. bbolt
// serializes writers itself, so in this implementation a body only ever
// reruns when it explicitly signals a storage conflict.
const maxRetries = 3

// Store wraps a bbolt database and exposes it as named trees plus a
// transaction primitive.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the catalog database file under
// dataDir and ensures every tree exists.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "photocore.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", catalogerr.ErrStorage, dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, t := range allTrees {
			if _, err := tx.CreateBucketIfNotExists(t); err != nil {
				return fmt.Errorf("create bucket %s: %w", t, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", catalogerr.ErrStorage, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a transactional handle that reaches every tree in allTrees.
// Bodies reach buckets only through Tx so every access is visibly
// transaction-bound.
type Tx struct {
	tx *bolt.Tx
}

// Bucket returns the named tree's bucket for this transaction. It panics
// if t was never registered in allTrees — a programmer error, not a
// runtime condition callers should handle.
func (t *Tx) Bucket(tree Tree) *bolt.Bucket {
	b := t.tx.Bucket(tree)
	if b == nil {
		panic(fmt.Sprintf("kvstore: unknown tree %q", tree))
	}
	return b
}

// Put writes value under key in tree.
func (t *Tx) Put(tree Tree, key, value []byte) error {
	if err := t.Bucket(tree).Put(key, value); err != nil {
		return fmt.Errorf("%w: %v", catalogerr.ErrStorage, err)
	}
	return nil
}

// Get reads the value for key in tree, or nil if absent. The returned
// slice is a copy and remains valid after the transaction ends.
func (t *Tx) Get(tree Tree, key []byte) []byte {
	v := t.Bucket(tree).Get(key)
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// Delete removes key from tree. Deleting an absent key is a no-op,
// matching the idempotent-replay discipline the deletion journal relies
// on.
func (t *Tx) Delete(tree Tree, key []byte) error {
	if err := t.Bucket(tree).Delete(key); err != nil {
		return fmt.Errorf("%w: %v", catalogerr.ErrStorage, err)
	}
	return nil
}

// ScanEntry is one key/value pair returned by a prefix scan.
type ScanEntry struct {
	Key   []byte
	Value []byte
}

// ScanPrefix returns every entry in tree whose key starts with prefix,
// in ascending key order. The slice is a snapshot copy and remains
// valid after the transaction ends.
func (t *Tx) ScanPrefix(tree Tree, prefix []byte) []ScanEntry {
	var out []ScanEntry
	c := t.Bucket(tree).Cursor()
	for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
		entry := ScanEntry{Key: append([]byte(nil), k...)}
		if v != nil {
			entry.Value = append([]byte(nil), v...)
		}
		out = append(out, entry)
	}
	return out
}

// ForEach walks every entry in tree in ascending key order, stopping
// early if fn returns an error.
func (t *Tx) ForEach(tree Tree, fn func(key, value []byte) error) error {
	return t.Bucket(tree).ForEach(fn)
}

// NextID returns a fresh monotonic identifier, used by the deletion
// journal to order and address its commands. The counter lives in its
// own dedicated bucket so it is one generator for the whole store, not
// one per tree.
func (t *Tx) NextID() (uint64, error) {
	return t.Bucket(sequences).NextSequence()
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Update runs body inside a read-write transaction touching the store.
// body runs at most maxRetries times in total, rerunning only while it
// returns an error wrapping catalogerr.ErrStorage; any other error (including a sentinel user
// error) aborts immediately without retry. body must not perform
// filesystem or network I/O and must not retain iterators past return.
func (s *Store) Update(body func(*Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = s.db.Update(func(btx *bolt.Tx) error {
			return body(&Tx{tx: btx})
		})
		if lastErr == nil {
			return nil
		}
		if !catalogerr.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// View runs body inside a read-only transaction. Unlike Update it is
// never retried: a read body has nothing to conflict with.
func (s *Store) View(body func(*Tx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return body(&Tx{tx: btx})
	})
}
