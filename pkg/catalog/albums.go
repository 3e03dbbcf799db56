package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cuemby/photocore/pkg/auth"
	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/fragment"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/metrics"
	"github.com/cuemby/photocore/pkg/tz"
	"github.com/cuemby/photocore/pkg/wire"
)

// MetadataFragmentID is the fragment-id sentinel ServeFragment accepts
// for "give me the album record, not a Section/Top blob".
const MetadataFragmentID = "metadata"

// CreateAlbum allocates a fresh album, initializes its Fragment Engine
// to an empty Top, and grants the creator Role Owner, mirrored in both
// ACL trees.
func (s *Store) CreateAlbum(key string, desc wire.AlbumDescription) (albumID string, err error) {
	defer func() { metrics.AlbumMutationsTotal.WithLabelValues("create", outcomeLabel(err)).Inc() }()

	if !tz.ValidZone(desc.TimeZone) {
		return "", fmt.Errorf("%w: unknown time zone %q", catalogerr.ErrBadRequest, desc.TimeZone)
	}

	err = s.kv.Update(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}
		if _, getErr := getUser(tx, userID); getErr != nil {
			return getErr
		}

		id, genErr := auth.NewID(wire.AlbumIDBytes)
		if genErr != nil {
			return genErr
		}
		albumID = id

		head, emptyErr := fragment.Empty(tx, albumID)
		if emptyErr != nil {
			return emptyErr
		}

		album := wire.Album{Description: desc, FragmentHead: head}
		if err := putAlbum(tx, albumID, album); err != nil {
			return err
		}

		roleData, marshalErr := json.Marshal(wire.RoleOwner)
		if marshalErr != nil {
			return fmt.Errorf("%w: %v", catalogerr.ErrSerialization, marshalErr)
		}
		if err := tx.Put(kvstore.UserToAlbum, wire.CompositeKey(userID, albumID), roleData); err != nil {
			return err
		}
		return tx.Put(kvstore.AlbumToUser, wire.CompositeKey(albumID, userID), []byte{})
	})
	return albumID, err
}

// UpdateAlbum requires a writable role and applies desc. When
// desc.TimeZone differs from the album's current zone, it rebuckets:
// every file id is read out of the Engine, every Section is cleared,
// and every file is re-added under the new zone, all inside one
// transaction.
func (s *Store) UpdateAlbum(key, albumID string, desc wire.AlbumDescription) (err error) {
	defer func() { metrics.AlbumMutationsTotal.WithLabelValues("update", outcomeLabel(err)).Inc() }()

	if !tz.ValidZone(desc.TimeZone) {
		return fmt.Errorf("%w: unknown time zone %q", catalogerr.ErrBadRequest, desc.TimeZone)
	}

	return s.kv.Update(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}
		if _, err := requireWritable(tx, userID, albumID); err != nil {
			return err
		}

		album, err := getAlbum(tx, albumID)
		if err != nil {
			return err
		}

		rebucket := desc.TimeZone != album.Description.TimeZone
		album.Description = desc

		eng, err := fragment.Open(tx, albumID, &album)
		if err != nil {
			return err
		}

		if rebucket {
			fileIDs, listErr := eng.ListFileIDs()
			if listErr != nil {
				return listErr
			}
			if err := eng.ClearAll(); err != nil {
				return err
			}
			for _, fileID := range fileIDs {
				file, getErr := getFile(tx, fileID)
				if getErr != nil {
					return getErr
				}
				if err := eng.Add(fileID, file); err != nil {
					return err
				}
			}
		}

		if err := eng.Commit(); err != nil {
			return err
		}
		return putAlbum(tx, albumID, album)
	})
}

// AlbumAndRole pairs an album record with the caller's role, the shape
// ListAlbums returns per entry.
type AlbumAndRole struct {
	Album wire.Album
	Role  wire.Role
}

// ListAlbums scans user_to_album by the caller's user id prefix.
func (s *Store) ListAlbums(key string) (map[string]AlbumAndRole, error) {
	result := make(map[string]AlbumAndRole)
	err := s.kv.View(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}

		prefix := append([]byte(userID), '.')
		for _, e := range tx.ScanPrefix(kvstore.UserToAlbum, prefix) {
			_, albumID, ok := wire.SplitComposite(e.Key)
			if !ok {
				continue
			}
			var role wire.Role
			if err := json.Unmarshal(e.Value, &role); err != nil {
				return fmt.Errorf("%w: role for %s: %v", catalogerr.ErrSerialization, e.Key, err)
			}
			album, getErr := getAlbum(tx, albumID)
			if getErr != nil {
				return getErr
			}
			result[albumID] = AlbumAndRole{Album: album, Role: role}
		}
		return nil
	})
	return result, err
}

// AddFiles requires a writable role. Every file must exist and be owned
// by the caller; each is staged into the Engine and its inclusion edges
// are written, all committing atomically with the Engine.
func (s *Store) AddFiles(key, albumID string, fileIDs []string) (err error) {
	defer func() { metrics.AlbumMutationsTotal.WithLabelValues("add_files", outcomeLabel(err)).Inc() }()

	return s.kv.Update(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}
		if _, err := requireWritable(tx, userID, albumID); err != nil {
			return err
		}

		album, err := getAlbum(tx, albumID)
		if err != nil {
			return err
		}

		eng, err := fragment.Open(tx, albumID, &album)
		if err != nil {
			return err
		}

		for _, fileID := range fileIDs {
			file, getErr := getFile(tx, fileID)
			if getErr != nil {
				return getErr
			}
			if file.OwnerID != userID {
				return fmt.Errorf("%w: file %s not owned by caller", catalogerr.ErrUnauthorized, fileID)
			}
			if err := eng.Add(fileID, file); err != nil {
				return err
			}
			if err := tx.Put(kvstore.Inclusions, wire.CompositeKey(fileID, albumID), []byte{}); err != nil {
				return err
			}
			if err := tx.Put(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID), []byte{}); err != nil {
				return err
			}
		}

		if err := eng.Commit(); err != nil {
			return err
		}
		return putAlbum(tx, albumID, album)
	})
}

// RemoveFiles requires a writable role. Each file is removed from the
// Engine and its inclusion edges cleared, committing atomically with
// the Engine.
func (s *Store) RemoveFiles(key, albumID string, fileIDs []string) (err error) {
	defer func() { metrics.AlbumMutationsTotal.WithLabelValues("remove_files", outcomeLabel(err)).Inc() }()

	return s.kv.Update(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}
		if _, err := requireWritable(tx, userID, albumID); err != nil {
			return err
		}

		album, err := getAlbum(tx, albumID)
		if err != nil {
			return err
		}

		eng, err := fragment.Open(tx, albumID, &album)
		if err != nil {
			return err
		}

		for _, fileID := range fileIDs {
			file, getErr := getFile(tx, fileID)
			if getErr != nil {
				return getErr
			}
			if err := eng.Remove(fileID, file); err != nil {
				return err
			}
			if err := tx.Delete(kvstore.Inclusions, wire.CompositeKey(fileID, albumID)); err != nil {
				return err
			}
			if err := tx.Delete(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID)); err != nil {
				return err
			}
		}

		if err := eng.Commit(); err != nil {
			return err
		}
		return putAlbum(tx, albumID, album)
	})
}

// ShareAlbum requires a writable role. Role Owner may never be granted
// through this call, and an existing Owner may never be overwritten by
// it.
func (s *Store) ShareAlbum(key, albumID, targetEmail string, role wire.Role) (err error) {
	defer func() { metrics.AlbumMutationsTotal.WithLabelValues("share", outcomeLabel(err)).Inc() }()

	if role == wire.RoleOwner {
		return fmt.Errorf("%w: cannot grant owner role via share", catalogerr.ErrBadRequest)
	}

	return s.kv.Update(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}
		if _, err := requireWritable(tx, userID, albumID); err != nil {
			return err
		}

		targetID := tx.Get(kvstore.Emails, []byte(targetEmail))
		if targetID == nil {
			return fmt.Errorf("%w: %s", catalogerr.ErrNotFound, targetEmail)
		}

		if existing, err := roleOf(tx, string(targetID), albumID); err == nil && existing == wire.RoleOwner {
			return fmt.Errorf("%w: cannot overwrite album owner", catalogerr.ErrBadRequest)
		}

		roleData, err := json.Marshal(role)
		if err != nil {
			return fmt.Errorf("%w: %v", catalogerr.ErrSerialization, err)
		}
		if err := tx.Put(kvstore.UserToAlbum, wire.CompositeKey(string(targetID), albumID), roleData); err != nil {
			return err
		}
		return tx.Put(kvstore.AlbumToUser, wire.CompositeKey(albumID, string(targetID)), []byte{})
	})
}

// UnshareAlbum removes targetEmail's access to albumID. The caller may
// always unshare themselves; unsharing anyone else requires a writable
// role. Owner can never be removed. When a non-owner loses access,
// every file they contributed is removed from the album in the same
// transaction: an album never contains files by a user who cannot see
// it.
func (s *Store) UnshareAlbum(key, albumID, targetEmail string) (err error) {
	defer func() { metrics.AlbumMutationsTotal.WithLabelValues("unshare", outcomeLabel(err)).Inc() }()

	return s.kv.Update(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}

		targetID := tx.Get(kvstore.Emails, []byte(targetEmail))
		if targetID == nil {
			return fmt.Errorf("%w: %s", catalogerr.ErrNotFound, targetEmail)
		}
		targetUserID := string(targetID)

		if targetUserID != userID {
			if _, err := requireWritable(tx, userID, albumID); err != nil {
				return err
			}
		}

		targetRole, err := roleOf(tx, targetUserID, albumID)
		if err != nil {
			return err
		}
		if targetRole == wire.RoleOwner {
			return fmt.Errorf("%w: cannot remove album owner", catalogerr.ErrBadRequest)
		}

		album, err := getAlbum(tx, albumID)
		if err != nil {
			return err
		}
		eng, err := fragment.Open(tx, albumID, &album)
		if err != nil {
			return err
		}

		fileIDs, err := eng.ListFileIDs()
		if err != nil {
			return err
		}
		for _, fileID := range fileIDs {
			file, getErr := getFile(tx, fileID)
			if getErr != nil {
				return getErr
			}
			if file.OwnerID != targetUserID {
				continue
			}
			if err := eng.Remove(fileID, file); err != nil {
				return err
			}
			if err := tx.Delete(kvstore.Inclusions, wire.CompositeKey(fileID, albumID)); err != nil {
				return err
			}
			if err := tx.Delete(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID)); err != nil {
				return err
			}
		}

		if err := eng.Commit(); err != nil {
			return err
		}
		if err := putAlbum(tx, albumID, album); err != nil {
			return err
		}

		if err := tx.Delete(kvstore.UserToAlbum, wire.CompositeKey(targetUserID, albumID)); err != nil {
			return err
		}
		return tx.Delete(kvstore.AlbumToUser, wire.CompositeKey(albumID, targetUserID))
	})
}

// ListShares returns every (email, user id, role) triple on albumID.
// The caller must themselves have some role on the album.
func (s *Store) ListShares(key, albumID string) ([]wire.ShareEntry, error) {
	var entries []wire.ShareEntry
	err := s.kv.View(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}
		if _, err := roleOf(tx, userID, albumID); err != nil {
			return err
		}

		prefix := append([]byte(albumID), '.')
		for _, e := range tx.ScanPrefix(kvstore.AlbumToUser, prefix) {
			_, memberID, ok := wire.SplitComposite(e.Key)
			if !ok {
				continue
			}
			role, err := roleOf(tx, memberID, albumID)
			if err != nil {
				return err
			}
			member, err := getUser(tx, memberID)
			if err != nil {
				return err
			}
			entries = append(entries, wire.ShareEntry{Email: member.Email, UserID: memberID, Role: role})
		}
		return nil
	})
	return entries, err
}

// ServeFragment returns the raw bytes of one fragment, or — when
// fragmentIDOrMetadata is MetadataFragmentID — the album record with
// the caller's role attached. Authorization is by presence in
// user_to_album.
func (s *Store) ServeFragment(key, albumID, fragmentIDOrMetadata string) ([]byte, error) {
	var data []byte
	err := s.kv.View(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}
		role, err := roleOf(tx, userID, albumID)
		if err != nil {
			return err
		}

		if fragmentIDOrMetadata == MetadataFragmentID {
			album, err := getAlbum(tx, albumID)
			if err != nil {
				return err
			}
			marshaled, marshalErr := json.Marshal(wire.AlbumWithRole{Album: album, Role: role})
			if marshalErr != nil {
				return fmt.Errorf("%w: %v", catalogerr.ErrSerialization, marshalErr)
			}
			data = marshaled
			return nil
		}

		fragmentID, err := strconv.ParseUint(fragmentIDOrMetadata, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: malformed fragment id %q", catalogerr.ErrBadRequest, fragmentIDOrMetadata)
		}
		raw := tx.Get(kvstore.Fragments, wire.FragmentKey(albumID, fragmentID))
		if raw == nil {
			return fmt.Errorf("%w: fragment %s.%d", catalogerr.ErrNotFound, albumID, fragmentID)
		}
		data = raw
		return nil
	})
	return data, err
}

// DeleteAlbum requires Role Owner and cascades through the deletion
// journal.
func (s *Store) DeleteAlbum(key, albumID string) (err error) {
	defer func() { metrics.AlbumMutationsTotal.WithLabelValues("delete", outcomeLabel(err)).Inc() }()

	if err := s.kv.View(func(tx *kvstore.Tx) error {
		userID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}
		role, err := roleOf(tx, userID, albumID)
		if err != nil {
			return err
		}
		if role != wire.RoleOwner {
			return fmt.Errorf("%w: only the owner may delete an album", catalogerr.ErrUnauthorized)
		}
		return nil
	}); err != nil {
		return err
	}

	cmd, err := wire.NewAlbumDelete(albumID)
	if err != nil {
		return err
	}
	_, err = s.journal.Run(cmd)
	return err
}
