package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbancart/urbancart-backend/internal/users"
	pkgAuth "github.com/urbancart/urbancart-backend/pkg/auth"
	"github.com/urbancart/urbancart-backend/pkg/auth/session"
	"github.com/urbancart/urbancart-backend/pkg/config"
	"github.com/urbancart/urbancart-backend/pkg/db/dbtest"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
	pkgerrors "github.com/urbancart/urbancart-backend/pkg/errors"
	"github.com/urbancart/urbancart-backend/pkg/security"
	"golang.org/x/crypto/pbkdf2"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]string
	owners   map[string]uuid.UUID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]string{}, owners: map[string]uuid.UUID{}}
}

func (f *fakeSessions) Generate(_ context.Context, userID uuid.UUID, accessID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "refresh-" + accessID
	f.sessions[accessID] = token
	f.owners[accessID] = userID
	return token, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, userID uuid.UUID, oldAccessID, provided string) (string, string, error) {
	f.mu.Lock()
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored != provided || f.owners[oldAccessID] != userID {
		f.mu.Unlock()
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	delete(f.owners, oldAccessID)
	f.mu.Unlock()

	newID := session.NewAccessID()
	token, err := f.Generate(ctx, userID, newID)
	return newID, token, err
}

func (f *fakeSessions) Revoke(_ context.Context, _ uuid.UUID, accessID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, accessID)
	delete(f.owners, accessID)
	return nil
}

func (f *fakeSessions) RevokeAll(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, owner := range f.owners {
		if owner == userID {
			delete(f.sessions, id)
			delete(f.owners, id)
		}
	}
	return nil
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeNotifier struct {
	links []string
	err   error
}

func (f *fakeNotifier) PasswordReset(_ context.Context, _ *models.User, link string, _ time.Duration) error {
	f.links = append(f.links, link)
	return f.err
}

type fixture struct {
	svc      Service
	repo     *users.Repository
	sessions *fakeSessions
	notifier *fakeNotifier
	jwtCfg   config.JWTConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.New(t)
	repo := users.NewRepository(client.DB())
	sessions := newFakeSessions()
	notifier := &fakeNotifier{}
	resetTokens, err := security.NewResetTokens("reset-secret", time.Hour)
	require.NoError(t, err)

	jwtCfg := config.JWTConfig{Secret: "secret", Issuer: "urbancart", AccessTTLMinutes: 15, RefreshTTLMinutes: 1440}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		ResetTokens:    resetTokens,
		Notifier:       notifier,
		JWTConfig:      jwtCfg,
		PasswordConfig: config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32},
		ResetTTL:       time.Hour,
		SiteURL:        "https://shop.example.com/",
	})
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, sessions: sessions, notifier: notifier, jwtCfg: jwtCfg}
}

func (f *fixture) register(t *testing.T, username, email string) *RegisterResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    email,
		Password: "secret123",
	})
	require.NoError(t, err)
	return resp
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	resp := f.register(t, "asha", "Asha@Example.com")

	assert.Equal(t, registeredMessage, resp.Message)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := pkgAuth.ParseAccessToken(f.jwtCfg, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.False(t, claims.IsSuperuser)

	stored, err := f.repo.FindByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", stored.Email)
}

func TestRegisterRejects(t *testing.T) {
	f := newFixture(t)
	f.register(t, "asha", "asha@example.com")

	cases := []struct {
		name    string
		req     RegisterRequest
		code    pkgerrors.Code
		message string
	}{
		{
			name:    "duplicate email",
			req:     RegisterRequest{Username: "other", Email: "ASHA@example.com", Password: "secret123"},
			code:    pkgerrors.CodeConflict,
			message: "A user with that email already exists.",
		},
		{
			name:    "duplicate username",
			req:     RegisterRequest{Username: "asha", Email: "new@example.com", Password: "secret123"},
			code:    pkgerrors.CodeConflict,
			message: "A user with that username already exists.",
		},
		{
			name: "numeric password",
			req:  RegisterRequest{Username: "nums", Email: "nums@example.com", Password: "12345678"},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "short password",
			req:  RegisterRequest{Username: "short", Email: "short@example.com", Password: "ab1"},
			code: pkgerrors.CodeValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
			if tc.message != "" {
				assert.Equal(t, tc.message, pkgerrors.As(err).Message())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.register(t, "asha", "asha@example.com")

	t.Run("success", func(t *testing.T) {
		resp, err := f.svc.Login(context.Background(), LoginRequest{Email: "ASHA@example.com", Password: "secret123"})
		require.NoError(t, err)
		require.NotNil(t, resp.User)
		assert.Equal(t, "asha", resp.User.Username)
		assert.NotEmpty(t, resp.AccessToken)

		stored, err := f.repo.FindByEmail(context.Background(), "asha@example.com")
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})

	for _, req := range []LoginRequest{
		{Email: "asha@example.com", Password: "wrong-pass1"},
		{Email: "nobody@example.com", Password: "secret123"},
	} {
		_, err := f.svc.Login(context.Background(), req)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
		assert.Equal(t, invalidCredentialsMessage, pkgerrors.As(err).Message())
	}
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "asha", "asha@example.com")

	// pbkdf2_sha256, 1000 iterations, salt "legacysalt", password "secret123"
	key := pbkdf2.Key([]byte("secret123"), []byte("legacysalt"), 1000, sha256.Size, sha256.New)
	legacy := "pbkdf2_sha256$1000$legacysalt$" + base64.StdEncoding.EncodeToString(key)
	require.NoError(t, f.repo.UpdatePassword(context.Background(), reg.UserID, legacy))

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)

	stored, err := f.repo.FindByID(context.Background(), reg.UserID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"), stored.PasswordHash)

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
}

func TestRefreshRotatesSession(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "asha", "asha@example.com")

	pair, err := f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  reg.AccessToken,
		RefreshToken: reg.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, reg.AccessToken, pair.AccessToken)

	oldClaims, err := pkgAuth.ParseAccessToken(f.jwtCfg, reg.AccessToken)
	require.NoError(t, err)
	newClaims, err := pkgAuth.ParseAccessToken(f.jwtCfg, pair.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.ID, newClaims.ID)

	// the old pair is spent
	_, err = f.svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  reg.AccessToken,
		RefreshToken: reg.RefreshToken,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestRefreshRejectsGarbage(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Refresh(context.Background(), RefreshRequest{AccessToken: "nope", RefreshToken: "nope"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = f.svc.Refresh(context.Background(), RefreshRequest{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLogoutAndDeleteAccount(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "asha", "asha@example.com")
	claims, err := pkgAuth.ParseAccessToken(f.jwtCfg, reg.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), reg.UserID, claims.ID))
	assert.Equal(t, 0, f.sessions.count())

	_, err = f.svc.Login(context.Background(), LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteAccount(context.Background(), reg.UserID))
	assert.Equal(t, 0, f.sessions.count())

	err = f.svc.DeleteAccount(context.Background(), reg.UserID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func parseResetLink(t *testing.T, link string) (uid, token string) {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	require.Len(t, parts, 3)
	require.Equal(t, "reset-password", parts[0])
	return parts[1], parts[2]
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "asha", "asha@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, PasswordResetRequest{Email: "asha@example.com"}))
	require.Len(t, f.notifier.links, 1)
	assert.True(t, strings.HasPrefix(f.notifier.links[0], "https://shop.example.com/reset-password/"))
	uid, token := parseResetLink(t, f.notifier.links[0])

	t.Run("mismatched passwords", func(t *testing.T) {
		err := f.svc.ConfirmPasswordReset(ctx, PasswordResetConfirm{
			UID: uid, Token: token, NewPassword: "newpass123", ConfirmPassword: "newpass124",
		})
		require.Error(t, err)
		assert.Equal(t, passwordMismatchMessage, pkgerrors.As(err).Message())
	})

	t.Run("bad token", func(t *testing.T) {
		err := f.svc.ConfirmPasswordReset(ctx, PasswordResetConfirm{
			UID: uid, Token: "abc-def", NewPassword: "newpass123", ConfirmPassword: "newpass123",
		})
		require.Error(t, err)
		assert.Equal(t, invalidResetLinkMessage, pkgerrors.As(err).Message())
	})

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, PasswordResetConfirm{
		UID: uid, Token: token, NewPassword: "newpass123", ConfirmPassword: "newpass123",
	}))
	assert.Equal(t, 0, f.sessions.count(), "sessions revoked")

	_, err := f.svc.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "newpass123"})
	require.NoError(t, err)

	t.Run("token issued before the change is rejected", func(t *testing.T) {
		err := f.svc.ConfirmPasswordReset(ctx, PasswordResetConfirm{
			UID: uid, Token: token, NewPassword: "another123", ConfirmPassword: "another123",
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		assert.Equal(t, invalidResetLinkMessage, pkgerrors.As(err).Message())
	})

	assert.Equal(t, security.EncodeUID(reg.UserID), uid)
}

func TestPasswordResetRequestIsSilent(t *testing.T) {
	f := newFixture(t)
	f.register(t, "asha", "asha@example.com")

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: "ghost@example.com"}))
	assert.Empty(t, f.notifier.links)

	f.notifier.err = errors.New("smtp down")
	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: "asha@example.com"}))
	assert.Len(t, f.notifier.links, 1)
}
