package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apigate/apigate-backend/internal/config"
	"github.com/apigate/apigate-backend/internal/dto"
	"github.com/apigate/apigate-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestConfig(mailerURL string) *config.Config {
	return &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
		MailerURL:        mailerURL,
		FrontendURL:      "http://localhost:3000",
		UpstreamTimeout:  5 * time.Second,
	}
}

func TestRegisterVerifyLogin(t *testing.T) {
	db := newTestDB(t)
	mailerSrv := newMailerStub(t)
	cfg := authTestConfig(mailerSrv.URL)
	s := NewAuthService(db, cfg, NewMailerService(cfg))

	user, err := s.Register(&dto.RegisterRequest{Email: "a@b.com", Name: "A", Password: "password123"})
	require.NoError(t, err)
	assert.False(t, user.Verified)

	// Unverified accounts cannot log in yet.
	_, err = s.Login(&dto.LoginRequest{Email: "a@b.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrNotVerified)

	var stored models.User
	require.NoError(t, db.First(&stored, "email = ?", "a@b.com").Error)
	require.NotEmpty(t, stored.VerifyToken)
	require.NoError(t, s.Verify(stored.VerifyToken))

	resp, err := s.Login(&dto.LoginRequest{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	_, err = s.Login(&dto.LoginRequest{Email: "a@b.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRollsBackOnMailFailure(t *testing.T) {
	db := newTestDB(t)
	mailerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer mailerSrv.Close()

	cfg := authTestConfig(mailerSrv.URL)
	s := NewAuthService(db, cfg, NewMailerService(cfg))

	_, err := s.Register(&dto.RegisterRequest{Email: "a@b.com", Name: "A", Password: "password123"})
	require.Error(t, err)

	// An unverifiable account must not linger.
	var count int64
	db.Model(&models.User{}).Where("email = ?", "a@b.com").Count(&count)
	assert.Zero(t, count)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	mailerSrv := newMailerStub(t)
	cfg := authTestConfig(mailerSrv.URL)
	s := NewAuthService(db, cfg, NewMailerService(cfg))

	_, err := s.Register(&dto.RegisterRequest{Email: "a@b.com", Name: "A", Password: "password123"})
	require.NoError(t, err)

	_, err = s.Register(&dto.RegisterRequest{Email: "a@b.com", Name: "B", Password: "password456"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRefreshRotatesToken(t *testing.T) {
	db := newTestDB(t)
	mailerSrv := newMailerStub(t)
	cfg := authTestConfig(mailerSrv.URL)
	s := NewAuthService(db, cfg, NewMailerService(cfg))

	_, err := s.Register(&dto.RegisterRequest{Email: "a@b.com", Name: "A", Password: "password123"})
	require.NoError(t, err)
	var stored models.User
	require.NoError(t, db.First(&stored, "email = ?", "a@b.com").Error)
	require.NoError(t, s.Verify(stored.VerifyToken))

	login, err := s.Login(&dto.LoginRequest{Email: "a@b.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := s.Refresh(&dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The consumed refresh token is revoked.
	_, err = s.Refresh(&dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyUnknownToken(t *testing.T) {
	db := newTestDB(t)
	mailerSrv := newMailerStub(t)
	cfg := authTestConfig(mailerSrv.URL)
	s := NewAuthService(db, cfg, NewMailerService(cfg))

	assert.ErrorIs(t, s.Verify("nope"), ErrInvalidToken)
}
