package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/cuemby/photocore/pkg/auth"
	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/metrics"
	"github.com/cuemby/photocore/pkg/wire"
)

// UploadFile inserts a file record and its (owner, name) uniqueness
// index entry in one transaction. The actual
// pixel work (deriving width/height and the on-disk medium/small
// copies) is an external collaborator's job by the time this runs — see
// pkg/upload for the two-phase orchestration that calls this after
// staging those derivatives.
func (s *Store) UploadFile(key string, metadata wire.FileMetadata, width, height int32) (fileID string, err error) {
	err = s.kv.Update(func(tx *kvstore.Tx) error {
		ownerID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}

		nameKey := wire.CompositeKey(ownerID, metadata.Name)
		if tx.Get(kvstore.FileNames, nameKey) != nil {
			return fmt.Errorf("%w: %s", catalogerr.ErrFileExists, metadata.Name)
		}

		id, genErr := auth.NewID(wire.FileIDBytes)
		if genErr != nil {
			return genErr
		}
		fileID = id

		file := wire.File{OwnerID: ownerID, Width: width, Height: height, Metadata: metadata}
		data, marshalErr := json.Marshal(file)
		if marshalErr != nil {
			return fmt.Errorf("%w: %v", catalogerr.ErrSerialization, marshalErr)
		}
		if err := tx.Put(kvstore.Files, []byte(fileID), data); err != nil {
			return err
		}
		return tx.Put(kvstore.FileNames, nameKey, []byte(fileID))
	})
	if err == nil {
		metrics.FilesUploadedTotal.Inc()
	}
	return fileID, err
}

// ListFiles prefix-scans an owner's file_names index. skip and length
// apply after the prefix filter, in key order.
func (s *Store) ListFiles(key, namePrefix string, skip, length int) ([]wire.FileListEntry, error) {
	var entries []wire.FileListEntry
	err := s.kv.View(func(tx *kvstore.Tx) error {
		ownerID, authErr := auth.Authenticate(tx, key)
		if authErr != nil {
			return authErr
		}

		scanPrefix := wire.CompositeKey(ownerID, namePrefix)
		ownerPrefixLen := len(ownerID) + 1

		matches := tx.ScanPrefix(kvstore.FileNames, scanPrefix)
		for i, e := range matches {
			if i < skip {
				continue
			}
			if length > 0 && len(entries) >= length {
				break
			}
			entries = append(entries, wire.FileListEntry{
				Name:   string(e.Key[ownerPrefixLen:]),
				FileID: string(e.Value),
			})
		}
		return nil
	})
	return entries, err
}
