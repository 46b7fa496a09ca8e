package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/urbancart/urbancart-backend/pkg/config"
)

// ErrInvalidHash signals a stored password hash in no format we know.
var ErrInvalidHash = errors.New("unrecognised password hash")

const (
	argonPrefix       = "$argon2id$"
	djangoPBKDF2      = "pbkdf2_sha256"
	minPasswordLength = 8
)

// argonParams are the Argon2id settings encoded into every hash.
type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	saltLen uint32
	keyLen  uint32
}

func argonFromConfig(cfg config.PasswordConfig) argonParams {
	return argonParams{
		memory:  clamp(cfg.ArgonMemoryKB, 8, 512*1024),
		time:    clamp(cfg.ArgonTime, 1, 10),
		threads: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		saltLen: clamp(cfg.ArgonSaltLen, 8, 64),
		keyLen:  clamp(cfg.ArgonKeyLen, 16, 64),
	}
}

// HashPassword returns an Argon2id hash in the PHC string format.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	p := argonFromConfig(cfg)
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix, argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword checks password against a stored hash. Argon2id hashes and
// the pbkdf2_sha256 hashes of accounts imported from the old storefront are
// both accepted.
func VerifyPassword(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argonPrefix):
		p, salt, want, err := parseArgon(encoded)
		if err != nil {
			return false, err
		}
		got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
		return subtle.ConstantTimeCompare(want, got) == 1, nil
	case strings.HasPrefix(encoded, djangoPBKDF2+"$"):
		return verifyPBKDF2(password, encoded)
	default:
		return false, ErrInvalidHash
	}
}

// NeedsRehash reports whether encoded should be replaced by a fresh
// HashPassword result: legacy formats, or Argon2id with other parameters.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	if !strings.HasPrefix(encoded, argonPrefix) {
		return true
	}
	got, salt, _, err := parseArgon(encoded)
	if err != nil {
		return true
	}
	want := argonFromConfig(cfg)
	got.saltLen = uint32(len(salt))
	return got != want
}

// parseArgon reads "$argon2id$v=19$m=..,t=..,p=..$salt$key".
func parseArgon(encoded string) (argonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return argonParams{}, nil, nil, ErrInvalidHash
	}

	var p argonParams
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return argonParams{}, nil, nil, ErrInvalidHash
		}
		bits := 32
		if k == "p" {
			bits = 8
		}
		n, err := strconv.ParseUint(v, 10, bits)
		if err != nil {
			return argonParams{}, nil, nil, ErrInvalidHash
		}
		switch k {
		case "m":
			p.memory = uint32(n)
		case "t":
			p.time = uint32(n)
		case "p":
			p.threads = uint8(n)
		}
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return argonParams{}, nil, nil, ErrInvalidHash
	}
	p.keyLen = uint32(len(key))
	return p, salt, key, nil
}

// verifyPBKDF2 checks Django's "pbkdf2_sha256$<iterations>$<salt>$<b64 key>".
func verifyPBKDF2(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 {
		return false, ErrInvalidHash
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false, ErrInvalidHash
	}
	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false, ErrInvalidHash
	}
	got := pbkdf2.Key([]byte(password), []byte(parts[2]), iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

func clamp(value, lo, hi int) uint32 {
	return uint32(min(max(value, lo), hi))
}

// ValidatePasswordStrength enforces the account password policy: at least
// eight characters with at least one letter and one digit.
func ValidatePasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		hasLetter = hasLetter || unicode.IsLetter(r)
		hasDigit = hasDigit || unicode.IsDigit(r)
	}
	if !hasLetter {
		return errors.New("password cannot be entirely numeric")
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}
	return nil
}
