package fragment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/wire"
)

func newTestAlbum() *wire.Album {
	return &wire.Album{
		Description: wire.AlbumDescription{Name: "album_name", TimeZone: "Asia/Kolkata"},
	}
}

func dummyFile(owner string, num int32, ts int64) wire.File {
	return wire.File{
		OwnerID: owner,
		Width:   40 + 2*num,
		Height:  41 + 2*num,
		Metadata: wire.FileMetadata{
			LastModified: ts,
			Name:         "name",
			Mime:         "*/*",
		},
	}
}

func TestEmptyAlbumHasOneTopFragment(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	err = s.Update(func(tx *kvstore.Tx) error {
		_, err := Empty(tx, "a")
		return err
	})
	require.NoError(t, err)

	var entries []kvstore.ScanEntry
	err = s.View(func(tx *kvstore.Tx) error {
		entries = tx.ScanPrefix(kvstore.Fragments, wire.FragmentPrefix("a"))
		return nil
	})
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, wire.FragmentKey("a", 0), entries[0].Key)
	assert.Equal(t, "[]", string(entries[0].Value))
}

func TestEngineAddTwoFilesSameDay(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	album := newTestAlbum()
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		_, err := Empty(tx, "a")
		return err
	}))

	id0 := dummyFile("u0", 0, 0)
	id1 := dummyFile("u0", 1, 0)

	err = s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		if err := e.Add("id_0", id0); err != nil {
			return err
		}
		// Adding the same file twice must not duplicate the entry.
		if err := e.Add("id_0", id0); err != nil {
			return err
		}
		if err := e.Add("id_1", id1); err != nil {
			return err
		}
		return e.Commit()
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2, album.FragmentHead)
	assert.EqualValues(t, 2, album.Length)

	var sectionBytes, topBytes []byte
	err = s.View(func(tx *kvstore.Tx) error {
		sectionBytes = tx.Get(kvstore.Fragments, wire.FragmentKey("a", 1))
		topBytes = tx.Get(kvstore.Fragments, wire.FragmentKey("a", 2))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, `[[0,"id_0",40,41],[0,"id_1",42,43]]`, string(sectionBytes))

	var top wire.Top
	require.NoError(t, json.Unmarshal(topBytes, &top))
	require.Len(t, top.Entries, 1)
	assert.EqualValues(t, 1, top.Entries[0].FragmentID)
	assert.EqualValues(t, 2, top.Entries[0].Length)
}

func TestEngineRemoveOneLeavesOther(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	album := newTestAlbum()
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		_, err := Empty(tx, "a")
		return err
	}))

	id0 := dummyFile("u0", 0, 0)
	id1 := dummyFile("u0", 1, 0)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		if err := e.Add("id_0", id0); err != nil {
			return err
		}
		if err := e.Add("id_1", id1); err != nil {
			return err
		}
		return e.Commit()
	}))

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		if err := e.Remove("id_0", id0); err != nil {
			return err
		}
		return e.Commit()
	}))

	assert.EqualValues(t, 4, album.FragmentHead)
	assert.EqualValues(t, 1, album.Length)

	var sectionBytes []byte
	err = s.View(func(tx *kvstore.Tx) error {
		sectionBytes = tx.Get(kvstore.Fragments, wire.FragmentKey("a", 3))
		// old fragments 1 and 2 must be gone
		assert.Nil(t, tx.Get(kvstore.Fragments, wire.FragmentKey("a", 1)))
		assert.Nil(t, tx.Get(kvstore.Fragments, wire.FragmentKey("a", 2)))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, `[[0,"id_1",42,43]]`, string(sectionBytes))
}

func TestEngineRemoveRemainingDeletesEmptySection(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	album := newTestAlbum()
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		_, err := Empty(tx, "a")
		return err
	}))

	id0 := dummyFile("u0", 0, 0)
	id1 := dummyFile("u0", 1, 0)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		require.NoError(t, e.Add("id_0", id0))
		require.NoError(t, e.Add("id_1", id1))
		return e.Commit()
	}))
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		require.NoError(t, e.Remove("id_0", id0))
		return e.Commit()
	}))

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		// Removing an already-removed file is a no-op.
		require.NoError(t, e.Remove("id_0", id0))
		require.NoError(t, e.Remove("id_1", id1))
		return e.Commit()
	}))

	assert.EqualValues(t, 5, album.FragmentHead)
	assert.EqualValues(t, 0, album.Length)
	assert.Nil(t, album.DateRange)

	var topBytes []byte
	err = s.View(func(tx *kvstore.Tx) error {
		topBytes = tx.Get(kvstore.Fragments, wire.FragmentKey("a", 5))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(topBytes))
}

func TestEngineCommitNoopWhenNothingStaged(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	album := newTestAlbum()
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		_, err := Empty(tx, "a")
		return err
	}))
	firstUpdate := album.LastUpdate

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		return e.Commit()
	}))

	assert.EqualValues(t, 0, album.FragmentHead)
	assert.EqualValues(t, 0, album.Length)
	assert.Equal(t, firstUpdate, album.LastUpdate)
}

func TestEngineRebucketPreservesTotalCount(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	album := newTestAlbum() // Asia/Kolkata
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		_, err := Empty(tx, "a")
		return err
	}))

	// Two files land on one UTC day but split across two Kolkata days
	// (UTC+5:30), one file sits squarely in a later day.
	files := map[string]wire.File{
		"id_0": dummyFile("u0", 0, 18*3600),        // 18:00 UTC day 0
		"id_1": dummyFile("u0", 1, 19*3600),        // 19:00 UTC day 0
		"id_2": dummyFile("u0", 2, 2*86400+3*3600), // day 2
	}

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		for id, f := range files {
			if err := e.Add(id, f); err != nil {
				return err
			}
		}
		return e.Commit()
	}))
	require.EqualValues(t, 3, album.Length)

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		e, err := Open(tx, "a", album)
		if err != nil {
			return err
		}
		ids, err := e.ListFileIDs()
		if err != nil {
			return err
		}
		require.Len(t, ids, 3)

		if err := e.ClearAll(); err != nil {
			return err
		}

		album.Description.TimeZone = "UTC"
		for id, f := range files {
			if err := e.Add(id, f); err != nil {
				return err
			}
		}
		return e.Commit()
	}))

	assert.EqualValues(t, 3, album.Length)
	require.NotNil(t, album.DateRange)
}
