package journal

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/fragment"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/wire"
)

// handleAlbum removes an album and every resource that references it:
// the album record, both directions of its ACL edges, every fragment,
// and both directions of its inclusion edges. The inclusion scan walks
// inclusions_by_album (the album-id-first mirror tree); the inclusions
// tree itself is keyed file-id-first and cannot be prefixed by album.
func (j *Journal) handleAlbum(albumID string) error {
	return j.store.Update(func(tx *kvstore.Tx) error {
		if err := tx.Delete(kvstore.Albums, []byte(albumID)); err != nil {
			return err
		}

		prefix := append([]byte(albumID), '.')

		for _, e := range tx.ScanPrefix(kvstore.AlbumToUser, prefix) {
			_, userID, ok := wire.SplitComposite(e.Key)
			if !ok {
				continue
			}
			if err := tx.Delete(kvstore.AlbumToUser, e.Key); err != nil {
				return err
			}
			if err := tx.Delete(kvstore.UserToAlbum, wire.CompositeKey(userID, albumID)); err != nil {
				return err
			}
		}

		for _, e := range tx.ScanPrefix(kvstore.Fragments, wire.FragmentPrefix(albumID)) {
			if err := tx.Delete(kvstore.Fragments, e.Key); err != nil {
				return err
			}
		}

		for _, e := range tx.ScanPrefix(kvstore.InclusionsByAlbum, prefix) {
			_, fileID, ok := wire.SplitComposite(e.Key)
			if !ok {
				continue
			}
			if err := tx.Delete(kvstore.InclusionsByAlbum, e.Key); err != nil {
				return err
			}
			if err := tx.Delete(kvstore.Inclusions, wire.CompositeKey(fileID, albumID)); err != nil {
				return err
			}
		}

		return nil
	})
}

// handleFile removes a file's catalog record and name, pulls it out of
// every album that still includes it (committing the Fragment Engine so
// each album's summary reflects the removal), and then asks
// removeDerivatives to best-effort clean up the on-disk derivatives.
// Engine.Remove is idempotent, so replaying this handler after a crash
// reproduces the same album state.
func (j *Journal) handleFile(fileID string, file wire.File) error {
	err := j.store.Update(func(tx *kvstore.Tx) error {
		if err := tx.Delete(kvstore.Files, []byte(fileID)); err != nil {
			return err
		}
		if err := tx.Delete(kvstore.FileNames, wire.CompositeKey(file.OwnerID, file.Metadata.Name)); err != nil {
			return err
		}

		prefix := append([]byte(fileID), '.')
		for _, e := range tx.ScanPrefix(kvstore.Inclusions, prefix) {
			_, albumID, ok := wire.SplitComposite(e.Key)
			if !ok {
				continue
			}

			albumBytes := tx.Get(kvstore.Albums, []byte(albumID))
			if albumBytes == nil {
				// Album already gone: there is no Engine to update, so
				// only the stale inclusion edges in both trees are dropped.
				if err := tx.Delete(kvstore.Inclusions, e.Key); err != nil {
					return err
				}
				if err := tx.Delete(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID)); err != nil {
					return err
				}
				continue
			}

			var album wire.Album
			if err := json.Unmarshal(albumBytes, &album); err != nil {
				return fmt.Errorf("%w: album %s: %v", catalogerr.ErrSerialization, albumID, err)
			}

			eng, err := fragment.Open(tx, albumID, &album)
			if err != nil {
				return err
			}
			if err := eng.Remove(fileID, file); err != nil {
				return err
			}
			if err := eng.Commit(); err != nil {
				return err
			}

			updated, err := json.Marshal(album)
			if err != nil {
				return fmt.Errorf("%w: %v", catalogerr.ErrSerialization, err)
			}
			if err := tx.Put(kvstore.Albums, []byte(albumID), updated); err != nil {
				return err
			}

			if err := tx.Delete(kvstore.Inclusions, e.Key); err != nil {
				return err
			}
			if err := tx.Delete(kvstore.InclusionsByAlbum, wire.CompositeKey(albumID, fileID)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	j.removeDerivatives(fileID)
	return nil
}

// handleUser removes a user's account and sessions, then cascades: every
// album the user owns is deleted via a nested Album command, and every
// file the user owns is deleted via a nested File command. Both nested
// commands are journaled through Run before they execute, so a crash
// partway through the cascade leaves a resumable trail.
//
// Only albums where the user holds Role Owner are cascaded — shared
// albums survive, minus the deleted user's files once their File
// commands run, and minus the user's own ACL edges. Owned files are
// enumerated via file_names (owner_id '.' name -> file_id).
func (j *Journal) handleUser(userID string) error {
	var email string
	err := j.store.Update(func(tx *kvstore.Tx) error {
		userBytes := tx.Get(kvstore.Users, []byte(userID))
		if userBytes != nil {
			var user wire.User
			if err := json.Unmarshal(userBytes, &user); err != nil {
				return fmt.Errorf("%w: user %s: %v", catalogerr.ErrSerialization, userID, err)
			}
			email = user.Email
			if err := tx.Delete(kvstore.Emails, []byte(email)); err != nil {
				return err
			}
		}
		if err := tx.Delete(kvstore.Users, []byte(userID)); err != nil {
			return err
		}

		sessionPrefix := append([]byte(userID), '.')
		for _, e := range tx.ScanPrefix(kvstore.Sessions, sessionPrefix) {
			if err := tx.Delete(kvstore.Sessions, e.Key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	var ownedAlbums, memberAlbums []string
	if err := j.store.View(func(tx *kvstore.Tx) error {
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
			if role == wire.RoleOwner {
				ownedAlbums = append(ownedAlbums, albumID)
			} else {
				memberAlbums = append(memberAlbums, albumID)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for _, albumID := range ownedAlbums {
		cmd, err := wire.NewAlbumDelete(albumID)
		if err != nil {
			return err
		}
		if _, err := j.Run(cmd); err != nil {
			return err
		}
	}

	// Shared albums survive the user, but their ACL edges must not point
	// at a dead account. The user's files are pulled out of these albums
	// by the File commands below, so only the edges need clearing here.
	if err := j.store.Update(func(tx *kvstore.Tx) error {
		for _, albumID := range memberAlbums {
			if err := tx.Delete(kvstore.UserToAlbum, wire.CompositeKey(userID, albumID)); err != nil {
				return err
			}
			if err := tx.Delete(kvstore.AlbumToUser, wire.CompositeKey(albumID, userID)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	var ownedFiles []ownedFile
	if err := j.store.View(func(tx *kvstore.Tx) error {
		prefix := append([]byte(userID), '.')
		for _, e := range tx.ScanPrefix(kvstore.FileNames, prefix) {
			fileID := string(e.Value)
			fileBytes := tx.Get(kvstore.Files, []byte(fileID))
			if fileBytes == nil {
				continue
			}
			var file wire.File
			if err := json.Unmarshal(fileBytes, &file); err != nil {
				return fmt.Errorf("%w: file %s: %v", catalogerr.ErrSerialization, fileID, err)
			}
			ownedFiles = append(ownedFiles, ownedFile{id: fileID, file: file})
		}
		return nil
	}); err != nil {
		return err
	}

	for _, of := range ownedFiles {
		cmd, err := wire.NewFileDelete(of.id, of.file)
		if err != nil {
			return err
		}
		if _, err := j.Run(cmd); err != nil {
			return err
		}
	}

	return nil
}

type ownedFile struct {
	id   string
	file wire.File
}
