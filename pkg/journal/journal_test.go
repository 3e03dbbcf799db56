package journal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/photocore/pkg/fragment"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/wire"
)

func putJSON(t *testing.T, tx *kvstore.Tx, tree kvstore.Tree, key []byte, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, tx.Put(tree, key, data))
}

func TestHandleAlbumRemovesACLFragmentsAndInclusions(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const albumID, ownerID, readerID, fileID = "album1", "user1", "user2", "file1"

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		album := &wire.Album{Description: wire.AlbumDescription{Name: "a", TimeZone: "UTC"}}
		if _, err := fragment.Empty(tx, albumID); err != nil {
			return err
		}
		putJSON(t, tx, kvstore.Albums, []byte(albumID), album)
		putJSON(t, tx, kvstore.UserToAlbum, wire.CompositeKey(ownerID, albumID), wire.RoleOwner)
		putJSON(t, tx, kvstore.UserToAlbum, wire.CompositeKey(readerID, albumID), wire.RoleReader)
		require.NoError(t, tx.Put(kvstore.AlbumToUser, wire.CompositeKey(albumID, ownerID), []byte{}))
		require.NoError(t, tx.Put(kvstore.AlbumToUser, wire.CompositeKey(albumID, readerID), []byte{}))
		require.NoError(t, tx.Put(kvstore.Inclusions, wire.CompositeKey(fileID, albumID), []byte{}))
		require.NoError(t, tx.Put(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID), []byte{}))
		return nil
	}))

	j := New(s, nil)
	cmd, err := wire.NewAlbumDelete(albumID)
	require.NoError(t, err)
	_, err = j.Run(cmd)
	require.NoError(t, err)

	require.NoError(t, s.View(func(tx *kvstore.Tx) error {
		assert.Nil(t, tx.Get(kvstore.Albums, []byte(albumID)))
		assert.Nil(t, tx.Get(kvstore.UserToAlbum, wire.CompositeKey(ownerID, albumID)))
		assert.Nil(t, tx.Get(kvstore.UserToAlbum, wire.CompositeKey(readerID, albumID)))
		assert.Empty(t, tx.ScanPrefix(kvstore.AlbumToUser, append([]byte(albumID), '.')))
		assert.Empty(t, tx.ScanPrefix(kvstore.Fragments, wire.FragmentPrefix(albumID)))
		assert.Nil(t, tx.Get(kvstore.Inclusions, wire.CompositeKey(fileID, albumID)))
		assert.Nil(t, tx.Get(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID)))
		assert.Empty(t, tx.ScanPrefix(kvstore.DeleteJournal, nil))
		return nil
	}))
}

func TestHandleFileRemovesFromEveryIncludedAlbum(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const albumID, fileID, ownerID = "album1", "file1", "user1"
	file := wire.File{
		OwnerID: ownerID,
		Width:   10,
		Height:  20,
		Metadata: wire.FileMetadata{
			LastModified: 0,
			Name:         "pic.jpg",
			Mime:         "image/jpeg",
		},
	}

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		if _, err := fragment.Empty(tx, albumID); err != nil {
			return err
		}
		album := &wire.Album{Description: wire.AlbumDescription{Name: "a", TimeZone: "UTC"}}
		eng, err := fragment.Open(tx, albumID, album)
		if err != nil {
			return err
		}
		if err := eng.Add(fileID, file); err != nil {
			return err
		}
		if err := eng.Commit(); err != nil {
			return err
		}
		putJSON(t, tx, kvstore.Albums, []byte(albumID), album)
		putJSON(t, tx, kvstore.Files, []byte(fileID), file)
		require.NoError(t, tx.Put(kvstore.FileNames, wire.CompositeKey(ownerID, "pic.jpg"), []byte(fileID)))
		require.NoError(t, tx.Put(kvstore.Inclusions, wire.CompositeKey(fileID, albumID), []byte{}))
		require.NoError(t, tx.Put(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID), []byte{}))
		return nil
	}))

	j := New(s, nil)
	cmd, err := wire.NewFileDelete(fileID, file)
	require.NoError(t, err)
	_, err = j.Run(cmd)
	require.NoError(t, err)

	require.NoError(t, s.View(func(tx *kvstore.Tx) error {
		assert.Nil(t, tx.Get(kvstore.Files, []byte(fileID)))
		assert.Nil(t, tx.Get(kvstore.FileNames, wire.CompositeKey(ownerID, "pic.jpg")))
		assert.Nil(t, tx.Get(kvstore.Inclusions, wire.CompositeKey(fileID, albumID)))
		assert.Nil(t, tx.Get(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID)))

		albumBytes := tx.Get(kvstore.Albums, []byte(albumID))
		require.NotNil(t, albumBytes)
		var album wire.Album
		require.NoError(t, json.Unmarshal(albumBytes, &album))
		assert.EqualValues(t, 0, album.Length)
		return nil
	}))
}

func TestHandleFileCallsRemoveDerivatives(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const fileID, ownerID = "file1", "user1"
	file := wire.File{OwnerID: ownerID, Metadata: wire.FileMetadata{Name: "x.jpg"}}

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		putJSON(t, tx, kvstore.Files, []byte(fileID), file)
		return tx.Put(kvstore.FileNames, wire.CompositeKey(ownerID, "x.jpg"), []byte(fileID))
	}))

	var removed string
	j := New(s, func(id string) { removed = id })
	cmd, err := wire.NewFileDelete(fileID, file)
	require.NoError(t, err)
	_, err = j.Run(cmd)
	require.NoError(t, err)

	assert.Equal(t, fileID, removed)
}

func TestHandleUserCascadesOwnedAlbumsAndFiles(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const userID, email, albumID, fileID = "user1", "u@example.com", "album1", "file1"
	file := wire.File{OwnerID: userID, Metadata: wire.FileMetadata{Name: "x.jpg"}}

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		putJSON(t, tx, kvstore.Users, []byte(userID), wire.User{Email: email, PasswordHash: "hash"})
		require.NoError(t, tx.Put(kvstore.Emails, []byte(email), []byte(userID)))
		require.NoError(t, tx.Put(kvstore.Sessions, wire.CompositeKey(userID, "sessionkey"), []byte{}))

		if _, err := fragment.Empty(tx, albumID); err != nil {
			return err
		}
		album := &wire.Album{Description: wire.AlbumDescription{Name: "a", TimeZone: "UTC"}}
		putJSON(t, tx, kvstore.Albums, []byte(albumID), album)
		putJSON(t, tx, kvstore.UserToAlbum, wire.CompositeKey(userID, albumID), wire.RoleOwner)
		require.NoError(t, tx.Put(kvstore.AlbumToUser, wire.CompositeKey(albumID, userID), []byte{}))

		putJSON(t, tx, kvstore.Files, []byte(fileID), file)
		require.NoError(t, tx.Put(kvstore.FileNames, wire.CompositeKey(userID, "x.jpg"), []byte(fileID)))
		return nil
	}))

	j := New(s, nil)
	cmd, err := wire.NewUserDelete(userID)
	require.NoError(t, err)
	_, err = j.Run(cmd)
	require.NoError(t, err)

	require.NoError(t, s.View(func(tx *kvstore.Tx) error {
		assert.Nil(t, tx.Get(kvstore.Users, []byte(userID)))
		assert.Nil(t, tx.Get(kvstore.Emails, []byte(email)))
		assert.Empty(t, tx.ScanPrefix(kvstore.Sessions, append([]byte(userID), '.')))
		assert.Nil(t, tx.Get(kvstore.Albums, []byte(albumID)))
		assert.Nil(t, tx.Get(kvstore.Files, []byte(fileID)))
		assert.Empty(t, tx.ScanPrefix(kvstore.DeleteJournal, nil))
		return nil
	}))
}

func TestHandleUserDoesNotCascadeAlbumsOnlySharedWithUser(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const ownerID, readerID, albumID = "owner1", "reader1", "album1"

	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		if _, err := fragment.Empty(tx, albumID); err != nil {
			return err
		}
		album := &wire.Album{Description: wire.AlbumDescription{Name: "a", TimeZone: "UTC"}}
		putJSON(t, tx, kvstore.Albums, []byte(albumID), album)
		putJSON(t, tx, kvstore.UserToAlbum, wire.CompositeKey(ownerID, albumID), wire.RoleOwner)
		putJSON(t, tx, kvstore.UserToAlbum, wire.CompositeKey(readerID, albumID), wire.RoleReader)
		require.NoError(t, tx.Put(kvstore.AlbumToUser, wire.CompositeKey(albumID, ownerID), []byte{}))
		require.NoError(t, tx.Put(kvstore.AlbumToUser, wire.CompositeKey(albumID, readerID), []byte{}))
		return nil
	}))

	j := New(s, nil)
	cmd, err := wire.NewUserDelete(readerID)
	require.NoError(t, err)
	_, err = j.Run(cmd)
	require.NoError(t, err)

	require.NoError(t, s.View(func(tx *kvstore.Tx) error {
		assert.NotNil(t, tx.Get(kvstore.Albums, []byte(albumID)))
		assert.NotNil(t, tx.Get(kvstore.UserToAlbum, wire.CompositeKey(ownerID, albumID)))
		assert.Nil(t, tx.Get(kvstore.UserToAlbum, wire.CompositeKey(readerID, albumID)))
		return nil
	}))
}

func TestRestoreReplaysJournaledCommand(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const albumID = "album1"
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		if _, err := fragment.Empty(tx, albumID); err != nil {
			return err
		}
		album := &wire.Album{Description: wire.AlbumDescription{Name: "a", TimeZone: "UTC"}}
		putJSON(t, tx, kvstore.Albums, []byte(albumID), album)
		return nil
	}))

	// Simulate a crash: the command was journaled but finish() never ran.
	cmd, err := wire.NewAlbumDelete(albumID)
	require.NoError(t, err)
	data, err := json.Marshal(cmd)
	require.NoError(t, err)
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		id, err := tx.NextID()
		if err != nil {
			return err
		}
		return tx.Put(kvstore.DeleteJournal, journalKey(id), data)
	}))

	j := New(s, nil)
	require.NoError(t, j.Restore())

	require.NoError(t, s.View(func(tx *kvstore.Tx) error {
		assert.Nil(t, tx.Get(kvstore.Albums, []byte(albumID)))
		assert.Empty(t, tx.ScanPrefix(kvstore.DeleteJournal, nil))
		return nil
	}))
}
