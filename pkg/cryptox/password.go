package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrPasswordMismatch is returned when a secret does not match its stored hash.
	ErrPasswordMismatch = errors.New("password does not match")

	ErrInvalidHash = errors.New("invalid argon2id hash")
)

// argon2id parameters for newly written hashes. Stored hashes carry their
// own parameters, so raising these does not invalidate existing users.
const (
	argonMemory  = 19 * 1024 // KiB
	argonTime    = 2
	argonThreads = 1
	argonKeyLen  = 32
	argonSaltLen = 16
)

// phc is a decoded $argon2id$v=19$m=..,t=..,p=..$salt$key string.
type phc struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (h phc) String() string {
	enc := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		enc.EncodeToString(h.salt), enc.EncodeToString(h.key))
}

func parsePHC(s string) (phc, error) {
	var h phc

	// "", "argon2id", "v=19", params, salt, key
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return h, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return h, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, parts[2])
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.threads); err != nil {
		return h, fmt.Errorf("%w: parameters: %v", ErrInvalidHash, err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(h.key) == 0 {
		return h, fmt.Errorf("%w: key", ErrInvalidHash)
	}
	return h, nil
}

// HashPassword returns a peppered argon2id hash in PHC form. Client
// secrets are hashed the same way.
func HashPassword(password string) (string, error) {
	pep, err := GetPepper()
	if err != nil {
		return "", err
	}

	h := phc{
		memory:  argonMemory,
		time:    argonTime,
		threads: argonThreads,
		salt:    make([]byte, argonSaltLen),
	}
	if _, err := rand.Read(h.salt); err != nil {
		return "", err
	}
	h.key = argon2.IDKey([]byte(password+pep), h.salt, h.time, h.memory, h.threads, argonKeyLen)
	return h.String(), nil
}

// VerifyPassword checks password against a hash produced by HashPassword,
// in constant time with respect to the derived key.
func VerifyPassword(password, encoded string) error {
	pep, err := GetPepper()
	if err != nil {
		return err
	}

	h, err := parsePHC(encoded)
	if err != nil {
		return err
	}

	keyLen := uint32(len(h.key)) // #nosec G115 -- decoded from a short base64 field
	got := argon2.IDKey([]byte(password+pep), h.salt, h.time, h.memory, h.threads, keyLen)
	if subtle.ConstantTimeCompare(got, h.key) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
