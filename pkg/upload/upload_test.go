package upload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/photocore/pkg/catalog"
	"github.com/cuemby/photocore/pkg/journal"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/wire"
)

func TestNewCreatesDirectoryLayout(t *testing.T) {
	base := t.TempDir()
	m, err := New(base)
	require.NoError(t, err)
	_ = m

	for _, dir := range []string{"upload", "medium", "small", "temp"} {
		info, err := os.Stat(filepath.Join(base, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestCommitPlacesDerivativesAtFileID(t *testing.T) {
	base := t.TempDir()
	m, err := New(base)
	require.NoError(t, err)

	kv, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()
	cat := catalog.New(kv, journal.New(kv, nil))

	userID, err := cat.CreateUser("a@example.com", "password1234")
	require.NoError(t, err)
	key, err := cat.Login("a@example.com", "password1234")
	require.NoError(t, err)
	_ = userID

	staged, cleanup := m.Stage("staging-1")
	for _, p := range []string{staged.Large, staged.Medium, staged.Small} {
		require.NoError(t, os.WriteFile(p, []byte("pixels"), 0o644))
	}

	fileID, err := m.Commit(cat, key, wire.FileMetadata{LastModified: 0, Name: "a.jpg", Mime: "image/jpeg"}, 10, 20, staged)
	require.NoError(t, err)

	for _, q := range []Quality{QualityLarge, QualityMedium, QualitySmall} {
		data, err := os.ReadFile(m.Path(q, fileID))
		require.NoError(t, err)
		assert.Equal(t, "pixels", string(data))
	}

	for _, p := range []string{staged.Large, staged.Medium, staged.Small} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err))
	}
	cleanup()
}

func TestSweepOrphansRemovesUntrackedFiles(t *testing.T) {
	base := t.TempDir()
	m, err := New(base)
	require.NoError(t, err)

	kv, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, os.WriteFile(m.Path(QualityLarge, "orphan"), []byte("x"), 0o644))
	require.NoError(t, kv.Update(func(tx *kvstore.Tx) error {
		return tx.Put(kvstore.Files, []byte("tracked"), []byte("{}"))
	}))
	require.NoError(t, os.WriteFile(m.Path(QualityLarge, "tracked"), []byte("x"), 0o644))

	require.NoError(t, m.SweepOrphans(kv))

	_, err = os.Stat(m.Path(QualityLarge, "orphan"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(m.Path(QualityLarge, "tracked"))
	assert.NoError(t, err)
}
