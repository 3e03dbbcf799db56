// Package upload orchestrates the two-phase dance between on-disk
// derivative files and the catalog: image derivation runs first (an
// external collaborator, writing into a staging area this package hands
// out), and only once that succeeds does a transaction commit the
// catalog record. Commit leaves staged files in place when it fails;
// the cleanup func Stage returns removes them best-effort.
//
// The layout is one base directory holding one subdirectory per
// concern: upload, medium, small (the three served derivative
// qualities) and temp (pre-commit staging). Removal tolerates an
// already-missing path.
package upload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cuemby/photocore/pkg/catalog"
	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/log"
	"github.com/cuemby/photocore/pkg/metrics"
	"github.com/cuemby/photocore/pkg/wire"
)

// Quality names the three served derivative directories.
type Quality string

const (
	QualityLarge  Quality = "upload"
	QualityMedium Quality = "medium"
	QualitySmall  Quality = "small"
)

var qualities = []Quality{QualityLarge, QualityMedium, QualitySmall}

// tempDir is the pre-commit staging subdirectory name.
const tempDir = "temp"

// Paths names the on-disk location of one upload's three derivatives
// while they're staged in temp/, keyed by a random staging id rather
// than the eventual file id (which doesn't exist until the catalog
// transaction commits).
type Paths struct {
	Large  string
	Medium string
	Small  string
}

// Manager owns the four image subdirectories beneath a base directory
// and the derivative file naming convention within them.
type Manager struct {
	base string
	log  zerolog.Logger
}

// New ensures base and its four subdirectories exist.
func New(base string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Join(base, tempDir), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %v", catalogerr.ErrIO, err)
	}
	for _, q := range qualities {
		if err := os.MkdirAll(filepath.Join(base, string(q)), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create %s dir: %v", catalogerr.ErrIO, q, err)
		}
	}
	return &Manager{base: base, log: log.WithComponent("upload")}, nil
}

// Stage returns the three temp-directory paths a derivation
// collaborator should write to for stagingID, and a cleanup func that
// best-effort removes whichever of them exist. Callers invoke cleanup
// themselves if derivation or the subsequent Commit fails.
func (m *Manager) Stage(stagingID string) (Paths, func()) {
	paths := Paths{
		Large:  filepath.Join(m.base, tempDir, stagingID+"-large"),
		Medium: filepath.Join(m.base, tempDir, stagingID+"-medium"),
		Small:  filepath.Join(m.base, tempDir, stagingID+"-small"),
	}
	cleanup := func() {
		for _, p := range []string{paths.Large, paths.Medium, paths.Small} {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				m.log.Warn().Str("path", p).Err(err).Msg("failed to remove staged derivative")
			}
		}
	}
	return paths, cleanup
}

// Commit inserts the catalog record via cat.UploadFile and, only once
// that succeeds, renames staged's three files into their permanent
// per-quality location named by the freshly assigned file id. If
// UploadFile fails, staged is left for the caller to clean up (the
// catalog transaction never ran, so nothing needs to be undone there).
// If the rename step fails partway, whatever was already moved stays —
// SweepOrphans and the File deletion journal handler both tolerate a
// derivative existing without role in any further catalog entry.
func (m *Manager) Commit(cat *catalog.Store, key string, metadata wire.FileMetadata, width, height int32, staged Paths) (fileID string, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.UploadCommitsTotal.WithLabelValues(outcome).Inc()
	}()

	fileID, err = cat.UploadFile(key, metadata, width, height)
	if err != nil {
		return "", err
	}

	moves := []struct {
		quality Quality
		from    string
	}{
		{QualityLarge, staged.Large},
		{QualityMedium, staged.Medium},
		{QualitySmall, staged.Small},
	}
	for _, mv := range moves {
		to := m.Path(mv.quality, fileID)
		if err := os.Rename(mv.from, to); err != nil {
			m.log.Error().Str("file_id", fileID).Err(err).Msg("failed to place derivative")
		}
	}
	return fileID, nil
}

// Path returns the on-disk location of fileID's derivative at quality.
func (m *Manager) Path(quality Quality, fileID string) string {
	return filepath.Join(m.base, string(quality), fileID)
}

// RemoveDerivatives best-effort deletes fileID's three derivatives. It
// matches journal.RemoveDerivatives's signature so a Manager can be
// wired directly into journal.New; missing files are ignored.
func (m *Manager) RemoveDerivatives(fileID string) {
	for _, q := range qualities {
		p := m.Path(q, fileID)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.log.Warn().Str("path", p).Err(err).Msg("failed to remove derivative")
		}
	}
}

// SweepOrphans removes every file under each of the three derivative
// directories whose name is not a live key in the files tree. Run once
// at startup, after journal.Restore.
func (m *Manager) SweepOrphans(store *kvstore.Store) error {
	var live map[string]struct{}
	if err := store.View(func(tx *kvstore.Tx) error {
		live = make(map[string]struct{})
		return tx.ForEach(kvstore.Files, func(key, _ []byte) error {
			live[string(key)] = struct{}{}
			return nil
		})
	}); err != nil {
		return err
	}

	for _, q := range qualities {
		dir := filepath.Join(m.base, string(q))
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", catalogerr.ErrIO, dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if _, ok := live[entry.Name()]; ok {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				m.log.Warn().Str("path", path).Err(err).Msg("failed to sweep orphan derivative")
				continue
			}
			metrics.UploadOrphansSweptTotal.Inc()
			m.log.Info().Str("path", path).Msg("swept orphan derivative")
		}
	}
	return nil
}
