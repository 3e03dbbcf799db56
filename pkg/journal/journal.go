package journal

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/log"
	"github.com/cuemby/photocore/pkg/metrics"
	"github.com/cuemby/photocore/pkg/wire"
)

// RemoveDerivatives is called, best-effort, after a File command's
// catalog-side cleanup commits, to delete the on-disk upload/medium/small
// derivatives for fileID. pkg/upload supplies the real implementation;
// tests may pass a no-op.
type RemoveDerivatives func(fileID string)

// Journal runs DeleteCommands against store, journaling each one first so
// a crash mid-cascade is resumable by Restore.
type Journal struct {
	store             *kvstore.Store
	removeDerivatives RemoveDerivatives
}

// New returns a Journal over store. removeDerivatives may be nil, in
// which case file derivative cleanup is skipped (used by tests that only
// care about catalog-side state).
func New(store *kvstore.Store, removeDerivatives RemoveDerivatives) *Journal {
	if removeDerivatives == nil {
		removeDerivatives = func(string) {}
	}
	return &Journal{store: store, removeDerivatives: removeDerivatives}
}

// Run journals cmd, then runs it to completion, removing the journal
// entry only once every step succeeds. On success it returns the
// journal id the command ran under (useful for tests and logging).
func (j *Journal) Run(cmd wire.DeleteCommand) (uint64, error) {
	correlationID := uuid.NewString()
	cmdID, err := j.enqueue(cmd)
	if err != nil {
		return 0, err
	}
	cmdLogger := log.WithCmdID(cmdID)
	cmdLogger.Debug().Str("correlation_id", correlationID).Str("kind", cmd.Kind).Msg("delete command enqueued")
	return cmdID, j.finish(cmdID, cmd, "run")
}

// Restore iterates every journaled command in the order it was recorded
// and finishes it. Called once at startup, after pkg/kvstore.Open and
// before anything else touches the store.
func (j *Journal) Restore() error {
	var entries []kvstore.ScanEntry
	if err := j.store.View(func(tx *kvstore.Tx) error {
		entries = tx.ScanPrefix(kvstore.DeleteJournal, nil)
		return nil
	}); err != nil {
		return err
	}

	// These commands were journaled by a previous process, so this
	// process's in-memory JournalDepth gauge has not counted them yet;
	// rehydrate it before finish starts decrementing per command.
	metrics.JournalDepth.Add(float64(len(entries)))

	for _, entry := range entries {
		cmdID := binary.BigEndian.Uint64(entry.Key)
		var cmd wire.DeleteCommand
		if err := json.Unmarshal(entry.Value, &cmd); err != nil {
			return fmt.Errorf("%w: journal entry %d: %v", catalogerr.ErrSerialization, cmdID, err)
		}
		cmdLogger := log.WithCmdID(cmdID)
		cmdLogger.Warn().Msg("replaying deletion journal command from previous run")
		if err := j.finish(cmdID, cmd, "restore"); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) enqueue(cmd wire.DeleteCommand) (uint64, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", catalogerr.ErrSerialization, err)
	}

	var cmdID uint64
	err = j.store.Update(func(tx *kvstore.Tx) error {
		id, err := tx.NextID()
		if err != nil {
			return err
		}
		cmdID = id
		return tx.Put(kvstore.DeleteJournal, journalKey(cmdID), data)
	})
	if err == nil {
		metrics.JournalDepth.Inc()
	}
	return cmdID, err
}

func (j *Journal) finish(cmdID uint64, cmd wire.DeleteCommand, trigger string) error {
	cmdLog := log.WithCmdID(cmdID)

	var err error
	switch cmd.Kind {
	case wire.CmdAlbum:
		var payload wire.AlbumDeletePayload
		if payload, err = cmd.DecodeAlbum(); err == nil {
			err = j.handleAlbum(payload.AlbumID)
		}
	case wire.CmdFile:
		var payload wire.FileDeletePayload
		if payload, err = cmd.DecodeFile(); err == nil {
			err = j.handleFile(payload.FileID, payload.File)
		}
	case wire.CmdUser:
		var payload wire.UserDeletePayload
		if payload, err = cmd.DecodeUser(); err == nil {
			err = j.handleUser(payload.UserID)
		}
	default:
		err = fmt.Errorf("%w: unknown delete command kind %q", catalogerr.ErrBadRequest, cmd.Kind)
	}
	if err != nil {
		cmdLog.Error().Err(err).Str("kind", cmd.Kind).Msg("delete command failed")
		return err
	}

	if err := j.store.Update(func(tx *kvstore.Tx) error {
		return tx.Delete(kvstore.DeleteJournal, journalKey(cmdID))
	}); err != nil {
		return err
	}
	metrics.JournalDepth.Dec()
	metrics.JournalCommandsTotal.WithLabelValues(trigger).Inc()
	cmdLog.Info().Str("kind", cmd.Kind).Msg("delete command finished")
	return nil
}

func journalKey(id uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], id)
	return key[:]
}
