package auth

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunaplata/joyeria-backend/internal/users"
	pkgAuth "github.com/lunaplata/joyeria-backend/pkg/auth"
	"github.com/lunaplata/joyeria-backend/pkg/auth/session"
	"github.com/lunaplata/joyeria-backend/pkg/config"
	"github.com/lunaplata/joyeria-backend/pkg/db/dbtest"
	"github.com/lunaplata/joyeria-backend/pkg/db/models"
	"github.com/lunaplata/joyeria-backend/pkg/enums"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/security"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]session.Session{}}
}

func (f *fakeSessions) Start(_ context.Context, userID uuid.UUID, role enums.UserRole) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := session.Session{AccessID: uuid.NewString(), RefreshToken: uuid.NewString(), UserID: userID, Role: role}
	f.sessions[sess.AccessID] = sess
	return sess, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, oldAccessID, provided string) (session.Session, error) {
	f.mu.Lock()
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored.RefreshToken != provided {
		f.mu.Unlock()
		return session.Session{}, session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	f.mu.Unlock()
	return f.Start(ctx, stored.UserID, stored.Role)
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, accessID)
	return nil
}

var (
	testJWT = config.JWTConfig{Secret: "secret", Issuer: "joyeria", ExpirationMinutes: 15}
	testPwd = config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
)

func newTestService(t *testing.T) (Service, *users.Repository, *fakeSessions) {
	t.Helper()
	client := dbtest.Open(t, &models.User{})
	repo := users.NewRepository(client.DB())
	sessions := newFakeSessions()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
		PasswordConfig: testPwd,
	})
	require.NoError(t, err)
	return svc, repo, sessions
}

func seedUser(t *testing.T, repo *users.Repository, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPwd)
	require.NoError(t, err)
	user, err := repo.Create(context.Background(), users.CreateUserDTO{Email: email, PasswordHash: hash, Name: "Seed", Role: role})
	require.NoError(t, err)
	return user
}

func TestRegisterIssuesCustomerTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Name: "Lucía", Email: "Lucia@Example.com", Password: "plata925x"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleCustomer, resp.Role)
	require.NotNil(t, resp.User)
	assert.Equal(t, "lucia@example.com", resp.User.Email)

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Otra", Email: "lucia@example.com", Password: "plata925x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.Register(ctx, RegisterRequest{Name: "Weak", Email: "weak@example.com", Password: "short"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLoginSeparatesPortals(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, repo, "cliente@example.com", "anillo123", enums.UserRoleCustomer)
	seedUser(t, repo, "admin@example.com", "collar123", enums.UserRoleAdmin)

	resp, err := svc.Login(ctx, LoginRequest{Email: "cliente@example.com", Password: "anillo123"})
	require.NoError(t, err)
	assert.NotNil(t, resp.User.LastLoginAt)

	_, err = svc.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "collar123"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	admin, err := svc.AdminLogin(ctx, LoginRequest{Email: "admin@example.com", Password: "collar123"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, admin.Role)

	_, err = svc.AdminLogin(ctx, LoginRequest{Email: "cliente@example.com", Password: "anillo123"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "cliente@example.com", Password: "wrong-pass1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "anillo123"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestGuestRefreshAndLogout(t *testing.T) {
	svc, _, sessions := newTestService(t)
	ctx := context.Background()

	guest, err := svc.Guest(ctx)
	require.NoError(t, err)
	require.NotNil(t, guest.GuestID)
	assert.Equal(t, enums.UserRoleGuest, guest.Role)

	rotated, err := svc.Refresh(ctx, guest.AccessToken, guest.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, rotated.GuestID)
	assert.Equal(t, *guest.GuestID, *rotated.GuestID)
	assert.NotEqual(t, guest.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(ctx, guest.AccessToken, guest.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	claims, err := pkgAuth.ParseAccessToken(testJWT, rotated.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims.ID))
	assert.Empty(t, sessions.sessions)
}

func TestRefreshCustomerReloadsUser(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	seedUser(t, repo, "ana@example.com", "pendiente1", enums.UserRoleCustomer)

	login, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "pendiente1"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, refreshed.User)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
	assert.Nil(t, refreshed.GuestID)

	_, err = svc.Refresh(ctx, "garbage", login.RefreshToken)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
