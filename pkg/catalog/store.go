package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/journal"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/wire"
)

// outcomeLabel is the "outcome" label value metrics.AlbumMutationsTotal
// and metrics.UploadCommitsTotal record against.
func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Store is the Album/File/Permission store: the public surface a
// request handler calls after it has already resolved
// (user_id, session_key, album_id, payload) from an incoming request.
// Every method that takes a session key authenticates it first
// (CreateUser and Login take none). Most methods run their body inside
// one pkg/kvstore transaction; Login uses a read and then a write
// transaction, and DeleteAlbum and DeleteUser check access in one
// transaction before handing the cascade to the deletion journal.
// Errors are catalogerr-classified for a transport layer to map to a
// status code.
type Store struct {
	kv      *kvstore.Store
	journal *journal.Journal
}

// New returns a Store over kv, dispatching cascading deletes through j.
func New(kv *kvstore.Store, j *journal.Journal) *Store {
	return &Store{kv: kv, journal: j}
}

func getUser(tx *kvstore.Tx, userID string) (wire.User, error) {
	raw := tx.Get(kvstore.Users, []byte(userID))
	if raw == nil {
		return wire.User{}, fmt.Errorf("%w: user %s", catalogerr.ErrNotFound, userID)
	}
	var u wire.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return wire.User{}, fmt.Errorf("%w: user %s: %v", catalogerr.ErrSerialization, userID, err)
	}
	return u, nil
}

func getAlbum(tx *kvstore.Tx, albumID string) (wire.Album, error) {
	raw := tx.Get(kvstore.Albums, []byte(albumID))
	if raw == nil {
		return wire.Album{}, fmt.Errorf("%w: album %s", catalogerr.ErrNotFound, albumID)
	}
	var a wire.Album
	if err := json.Unmarshal(raw, &a); err != nil {
		return wire.Album{}, fmt.Errorf("%w: album %s: %v", catalogerr.ErrSerialization, albumID, err)
	}
	return a, nil
}

func putAlbum(tx *kvstore.Tx, albumID string, album wire.Album) error {
	data, err := json.Marshal(album)
	if err != nil {
		return fmt.Errorf("%w: album %s: %v", catalogerr.ErrSerialization, albumID, err)
	}
	return tx.Put(kvstore.Albums, []byte(albumID), data)
}

func getFile(tx *kvstore.Tx, fileID string) (wire.File, error) {
	raw := tx.Get(kvstore.Files, []byte(fileID))
	if raw == nil {
		return wire.File{}, fmt.Errorf("%w: file %s", catalogerr.ErrNotFound, fileID)
	}
	var f wire.File
	if err := json.Unmarshal(raw, &f); err != nil {
		return wire.File{}, fmt.Errorf("%w: file %s: %v", catalogerr.ErrSerialization, fileID, err)
	}
	return f, nil
}

// roleOf returns the caller's role on albumID, or catalogerr.ErrUnauthorized
// if userID is not a member of the album's ACL at all: authorization is
// by presence in user_to_album, everywhere a role lookup is needed.
func roleOf(tx *kvstore.Tx, userID, albumID string) (wire.Role, error) {
	raw := tx.Get(kvstore.UserToAlbum, wire.CompositeKey(userID, albumID))
	if raw == nil {
		return "", fmt.Errorf("%w: no access to album %s", catalogerr.ErrUnauthorized, albumID)
	}
	var role wire.Role
	if err := json.Unmarshal(raw, &role); err != nil {
		return "", fmt.Errorf("%w: role for %s.%s: %v", catalogerr.ErrSerialization, userID, albumID, err)
	}
	return role, nil
}

// requireWritable is roleOf plus the CanWrite check every mutating
// album operation shares.
func requireWritable(tx *kvstore.Tx, userID, albumID string) (wire.Role, error) {
	role, err := roleOf(tx, userID, albumID)
	if err != nil {
		return "", err
	}
	if !role.CanWrite() {
		return "", fmt.Errorf("%w: role %s cannot write album %s", catalogerr.ErrUnauthorized, role, albumID)
	}
	return role, nil
}
