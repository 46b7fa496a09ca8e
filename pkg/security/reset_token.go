package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidResetToken covers malformed, forged and expired reset tokens alike.
var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// ResetSubject is the user state a reset token is bound to. Changing the
// password hash (or logging in) invalidates every outstanding token.
type ResetSubject struct {
	UserID       uuid.UUID
	PasswordHash string
	LastLoginAt  *time.Time
}

// ResetTokens mints and checks password reset tokens of the form
// "<issued-at base36>-<hex hmac>".
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewResetTokens(secret string, ttl time.Duration) (*ResetTokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("reset token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("reset token ttl must be positive")
	}
	return &ResetTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Make returns a token for subject issued at the current time.
func (r *ResetTokens) Make(subject ResetSubject) string {
	return r.makeAt(subject, r.now().Unix())
}

// Check validates token against the subject's current state.
func (r *ResetTokens) Check(subject ResetSubject, token string) error {
	tsPart, _, ok := strings.Cut(token, "-")
	if !ok || tsPart == "" {
		return ErrInvalidResetToken
	}
	issuedAt, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return ErrInvalidResetToken
	}
	expected := r.makeAt(subject, issuedAt)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrInvalidResetToken
	}
	age := r.now().Sub(time.Unix(issuedAt, 0))
	if age < 0 || age > r.ttl {
		return ErrInvalidResetToken
	}
	return nil
}

func (r *ResetTokens) makeAt(subject ResetSubject, issuedAt int64) string {
	lastLogin := ""
	if subject.LastLoginAt != nil {
		lastLogin = strconv.FormatInt(subject.LastLoginAt.UTC().Unix(), 10)
	}
	mac := hmac.New(sha256.New, r.secret)
	mac.Write([]byte(strings.Join([]string{
		subject.UserID.String(),
		strconv.FormatInt(issuedAt, 10),
		subject.PasswordHash,
		lastLogin,
	}, "|")))
	return strconv.FormatInt(issuedAt, 36) + "-" + hex.EncodeToString(mac.Sum(nil))
}

// EncodeUID renders a user id for use in reset links.
func EncodeUID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// DecodeUID reverses EncodeUID.
func DecodeUID(uid string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(uid), "="))
	if err != nil {
		return uuid.Nil, ErrInvalidResetToken
	}
	id, err := uuid.ParseBytes(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidResetToken
	}
	return id, nil
}
