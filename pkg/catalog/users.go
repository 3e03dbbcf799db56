package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cuemby/photocore/pkg/auth"
	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/kvstore"
	"github.com/cuemby/photocore/pkg/wire"
)

// sessionKeyPrefixLen is how much of a session's random suffix
// ListSessions exposes, enough for a "log out other devices" list
// without ever echoing a live key back.
const sessionKeyPrefixLen = 8

// CreateUser registers a new account. The email index and the user
// record are written in one transaction so emails[email] and
// users[user_id] can never diverge.
func (s *Store) CreateUser(email, password string) (userID string, err error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	err = s.kv.Update(func(tx *kvstore.Tx) error {
		if tx.Get(kvstore.Emails, []byte(email)) != nil {
			return fmt.Errorf("%w: %s", catalogerr.ErrEmailTaken, email)
		}

		id, genErr := auth.NewID(wire.UserIDBytes)
		if genErr != nil {
			return genErr
		}
		userID = id

		user := wire.User{Email: email, PasswordHash: hash}
		data, marshalErr := json.Marshal(user)
		if marshalErr != nil {
			return fmt.Errorf("%w: %v", catalogerr.ErrSerialization, marshalErr)
		}
		if err := tx.Put(kvstore.Users, []byte(userID), data); err != nil {
			return err
		}
		return tx.Put(kvstore.Emails, []byte(email), []byte(userID))
	})
	return userID, err
}

// Login verifies email/password and mints a fresh session key of the
// form "user_id.random".
func (s *Store) Login(email, password string) (key string, err error) {
	var userID string
	var user wire.User

	if viewErr := s.kv.View(func(tx *kvstore.Tx) error {
		raw := tx.Get(kvstore.Emails, []byte(email))
		if raw == nil {
			return fmt.Errorf("%w: unknown email", catalogerr.ErrUnauthorized)
		}
		userID = string(raw)
		u, getErr := getUser(tx, userID)
		if getErr != nil {
			return getErr
		}
		user = u
		return nil
	}); viewErr != nil {
		return "", viewErr
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return "", err
	}

	random, err := auth.NewID(wire.SessionKeyBytes)
	if err != nil {
		return "", err
	}
	key = userID + "." + random

	err = s.kv.Update(func(tx *kvstore.Tx) error {
		return tx.Put(kvstore.Sessions, []byte(key), []byte{})
	})
	return key, err
}

// Logout removes every session whose key starts with targetPrefix. The
// caller must own targetPrefix (it must itself be prefixed by the
// authenticated user id): a client logs out one
// device by passing its full key, or every device sharing a prefix
// ListSessions previously returned.
func (s *Store) Logout(key, targetPrefix string) error {
	return s.kv.Update(func(tx *kvstore.Tx) error {
		userID, err := auth.Authenticate(tx, key)
		if err != nil {
			return err
		}
		if !strings.HasPrefix(targetPrefix, userID+".") {
			return fmt.Errorf("%w: prefix does not belong to caller", catalogerr.ErrUnauthorized)
		}
		for _, e := range tx.ScanPrefix(kvstore.Sessions, []byte(targetPrefix)) {
			if err := tx.Delete(kvstore.Sessions, e.Key); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListSessions returns a redacted key prefix per active session of the
// authenticated user.
func (s *Store) ListSessions(key string) ([]wire.SessionEntry, error) {
	var entries []wire.SessionEntry
	err := s.kv.View(func(tx *kvstore.Tx) error {
		userID, err := auth.Authenticate(tx, key)
		if err != nil {
			return err
		}
		prefix := append([]byte(userID), '.')
		for _, e := range tx.ScanPrefix(kvstore.Sessions, prefix) {
			_, random, ok := wire.SplitComposite(e.Key)
			if !ok {
				continue
			}
			if len(random) > sessionKeyPrefixLen {
				random = random[:sessionKeyPrefixLen]
			}
			entries = append(entries, wire.SessionEntry{KeyPrefix: userID + "." + random})
		}
		return nil
	})
	return entries, err
}

// DeleteUser cascades the caller's own account through the deletion
// journal: the user row, every session, every owned album, and every
// owned file.
func (s *Store) DeleteUser(key string) error {
	var userID string
	if err := s.kv.View(func(tx *kvstore.Tx) error {
		uid, err := auth.Authenticate(tx, key)
		userID = uid
		return err
	}); err != nil {
		return err
	}

	cmd, err := wire.NewUserDelete(userID)
	if err != nil {
		return err
	}
	_, err = s.journal.Run(cmd)
	return err
}
