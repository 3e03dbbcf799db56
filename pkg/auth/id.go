package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/cuemby/photocore/pkg/catalogerr"
)

// NewID returns a fresh random, URL-safe identifier: n random bytes
// base64url-encoded with no padding. The alphabet never contains '.',
// so ids are safe inside '.'-separated composite keys.
func NewID(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: generate id: %v", catalogerr.ErrStorage, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
