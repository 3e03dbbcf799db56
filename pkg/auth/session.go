package auth

import (
	"fmt"
	"strings"

	"github.com/cuemby/photocore/pkg/catalogerr"
	"github.com/cuemby/photocore/pkg/kvstore"
)

// SplitSessionKey splits a session key of the form "user_id.random" on
// its first '.' into the two parts.
func SplitSessionKey(key string) (userID, random string, err error) {
	userID, random, ok := strings.Cut(key, ".")
	if !ok {
		return "", "", fmt.Errorf("%w: malformed session key", catalogerr.ErrBadRequest)
	}
	return userID, random, nil
}

// Authenticate resolves key to the user id that owns it, failing unless
// the exact key is present in the sessions tree. It is the single choke
// point every public pkg/catalog method runs its caller's key through
// before touching any other tree.
func Authenticate(tx *kvstore.Tx, key string) (userID string, err error) {
	userID, _, err = SplitSessionKey(key)
	if err != nil {
		return "", err
	}
	if tx.Get(kvstore.Sessions, []byte(key)) == nil {
		return "", fmt.Errorf("%w: session not found", catalogerr.ErrUnauthorized)
	}
	return userID, nil
}
