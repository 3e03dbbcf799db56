package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/photocore/pkg/catalogerr"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesAllTrees(t *testing.T) {
	s := openTestStore(t)

	err := s.View(func(tx *Tx) error {
		for _, tree := range allTrees {
			tx.Bucket(tree) // panics if missing
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(func(tx *Tx) error {
		return tx.Put(Users, []byte("u1"), []byte(`{"email":"a@b.com"}`))
	})
	require.NoError(t, err)

	var got []byte
	err = s.View(func(tx *Tx) error {
		got = tx.Get(Users, []byte("u1"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, `{"email":"a@b.com"}`, string(got))

	err = s.Update(func(tx *Tx) error {
		return tx.Delete(Users, []byte("u1"))
	})
	require.NoError(t, err)

	err = s.View(func(tx *Tx) error {
		got = tx.Get(Users, []byte("u1"))
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetMissingKeyReturnsNil(t *testing.T) {
	s := openTestStore(t)

	var got []byte
	err := s.View(func(tx *Tx) error {
		got = tx.Get(Users, []byte("missing"))
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScanPrefixOrdersByKey(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(func(tx *Tx) error {
		for _, k := range []string{"alice.b", "alice.a", "bob.c", "alice.c"} {
			if err := tx.Put(FileNames, []byte(k), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var entries []ScanEntry
	err = s.View(func(tx *Tx) error {
		entries = tx.ScanPrefix(FileNames, []byte("alice."))
		return nil
	})
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "alice.a", string(entries[0].Key))
	assert.Equal(t, "alice.b", string(entries[1].Key))
	assert.Equal(t, "alice.c", string(entries[2].Key))
}

func TestScanPrefixExcludesNonMatching(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(func(tx *Tx) error {
		require.NoError(t, tx.Put(Inclusions, []byte("f1.a1"), nil))
		require.NoError(t, tx.Put(Inclusions, []byte("f10.a1"), nil))
		require.NoError(t, tx.Put(Inclusions, []byte("f2.a1"), nil))
		return nil
	})
	require.NoError(t, err)

	var entries []ScanEntry
	err = s.View(func(tx *Tx) error {
		entries = tx.ScanPrefix(Inclusions, []byte("f1."))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f1.a1", string(entries[0].Key))
}

func TestNextIDIsMonotonic(t *testing.T) {
	s := openTestStore(t)

	var ids []uint64
	err := s.Update(func(tx *Tx) error {
		for i := 0; i < 5; i++ {
			id, err := tx.NextID()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)

	for i := 1; i < len(ids); i++ {
		assert.Greater(t, ids[i], ids[i-1])
	}
}

func TestUpdateAbortsWithoutRetryOnSentinelError(t *testing.T) {
	s := openTestStore(t)

	attempts := 0
	err := s.Update(func(tx *Tx) error {
		attempts++
		return catalogerr.ErrNotFound
	})

	assert.ErrorIs(t, err, catalogerr.ErrNotFound)
	assert.Equal(t, 1, attempts)
}

func TestUpdateRetriesOnStorageError(t *testing.T) {
	s := openTestStore(t)

	attempts := 0
	err := s.Update(func(tx *Tx) error {
		attempts++
		if attempts < maxRetries {
			return catalogerr.ErrStorage
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, maxRetries, attempts)
}

func TestBucketPanicsOnUnknownTree(t *testing.T) {
	s := openTestStore(t)

	assert.Panics(t, func() {
		_ = s.View(func(tx *Tx) error {
			tx.Bucket(Tree([]byte("not_a_real_tree")))
			return nil
		})
	})
}
