package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/photocore/pkg/kvstore"
)

func TestSplitSessionKeyParsesUserAndRandom(t *testing.T) {
	userID, random, err := SplitSessionKey("user123.randomsuffix")
	require.NoError(t, err)
	assert.Equal(t, "user123", userID)
	assert.Equal(t, "randomsuffix", random)
}

func TestSplitSessionKeyRejectsMissingDot(t *testing.T) {
	_, _, err := SplitSessionKey("nodothere")
	assert.Error(t, err)
}

func TestAuthenticateResolvesExistingSession(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	const key = "user123.randomsuffix"
	require.NoError(t, s.Update(func(tx *kvstore.Tx) error {
		return tx.Put(kvstore.Sessions, []byte(key), []byte{})
	}))

	var userID string
	err = s.View(func(tx *kvstore.Tx) error {
		var err error
		userID, err = Authenticate(tx, key)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "user123", userID)
}

func TestAuthenticateRejectsUnknownSession(t *testing.T) {
	s, err := kvstore.Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	err = s.View(func(tx *kvstore.Tx) error {
		_, err := Authenticate(tx, "user123.never-logged-in")
		return err
	})
	assert.Error(t, err)
}
