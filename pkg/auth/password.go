package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/cuemby/photocore/pkg/catalogerr"
)

// argon2id parameters: time cost 1, 64 MiB, four lanes.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 32
)

// HashPassword salts and hashes password with argon2id, encoding the
// result as a self-describing PHC-style string so the parameters travel
// with the hash (the same reason the original wraps argon2::hash_encoded
// rather than storing the raw digest).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: generate salt: %v", catalogerr.ErrStorage, err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
	return encoded, nil
}

// VerifyPassword reports whether password matches encoded, a hash
// produced by HashPassword. It returns catalogerr.ErrUnauthorized (not a
// plain false) on mismatch, so the common err != nil check at every call
// site behaves the same as a storage error would.
func VerifyPassword(encoded, password string) error {
	var version, memory, time int
	var threads int
	var saltB64, hashB64 string

	_, err := fmt.Sscanf(encoded, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		&version, &memory, &time, &threads, &saltB64)
	if err != nil {
		return fmt.Errorf("%w: malformed password hash", catalogerr.ErrUnauthorized)
	}

	// Sscanf's %s consumes through the end of the string, so saltB64
	// still holds both base64 segments and needs splitting on the '$'
	// between them.
	parts := splitLast(saltB64)
	if parts == nil {
		return fmt.Errorf("%w: malformed password hash", catalogerr.ErrUnauthorized)
	}
	saltB64, hashB64 = parts[0], parts[1]

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return fmt.Errorf("%w: malformed password hash salt", catalogerr.ErrUnauthorized)
	}
	want, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return fmt.Errorf("%w: malformed password hash digest", catalogerr.ErrUnauthorized)
	}

	got := argon2.IDKey([]byte(password), salt, uint32(time), uint32(memory), uint8(threads), uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return fmt.Errorf("%w: password mismatch", catalogerr.ErrUnauthorized)
	}
	return nil
}

// splitLast splits s on the last '$' into its two surrounding segments.
func splitLast(s string) []string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '$' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return nil
}
