package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apigate/apigate-backend/internal/config"
	"github.com/apigate/apigate-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig(tokenURL, mailerURL string) *config.Config {
	return &config.Config{
		TokenServiceURL: tokenURL,
		MailerURL:       mailerURL,
		UpstreamTimeout: 5 * time.Second,
	}
}

func newMailerStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seedUserAndSubscription(t *testing.T, db *gorm.DB) (*models.User, *models.Subscription) {
	t.Helper()
	plans := NewPlanService(db)
	subs := NewSubscriptionService(db)

	plan := createPlan(t, plans, "Pro", "pro", 200, 2000)
	user := models.User{ID: uuid.New(), Email: "user@example.com", Name: "User", Password: "x", Verified: true}
	require.NoError(t, db.Create(&user).Error)

	sub, err := subs.Subscribe(user.ID, plan.ID, models.BillingAnnual)
	require.NoError(t, err)
	return &user, sub
}

func TestMintSendsUserPlanExpiry(t *testing.T) {
	db := newTestDB(t)

	var got createTokenRequest
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/create_user_token", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(createTokenResponse{AccessToken: "tok-abc", Plan: got.Plan})
	}))
	defer tokenSrv.Close()
	mailerSrv := newMailerStub(t)

	cfg := testConfig(tokenSrv.URL, mailerSrv.URL)
	subs := NewSubscriptionService(db)
	s := NewTokenService(db, cfg, subs, NewMailerService(cfg))

	userID := uuid.New()
	expiry := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	token, err := s.Mint(userID, "Pro", expiry)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, userID.String(), got.ID)
	assert.Equal(t, "Pro", got.Plan)
	assert.Equal(t, "2026-10-01T00:00:00Z", got.ExpiresAt)

	// Only metadata is recorded locally, never the raw token.
	var meta models.UpstreamTokenMeta
	require.NoError(t, db.First(&meta, "user_id = ?", userID).Error)
	assert.Equal(t, "Pro", meta.Plan)
	assert.Equal(t, expiry.Unix(), meta.ExpiresAt.Unix())
}

func TestMintUpstreamError(t *testing.T) {
	db := newTestDB(t)

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer tokenSrv.Close()
	mailerSrv := newMailerStub(t)

	cfg := testConfig(tokenSrv.URL, mailerSrv.URL)
	subs := NewSubscriptionService(db)
	s := NewTokenService(db, cfg, subs, NewMailerService(cfg))

	_, err := s.Mint(uuid.New(), "Pro", time.Now().UTC())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	var count int64
	db.Model(&models.UpstreamTokenMeta{}).Count(&count)
	assert.Zero(t, count)
}

func TestMintUnreachableService(t *testing.T) {
	db := newTestDB(t)

	cfg := testConfig("http://127.0.0.1:1", "http://127.0.0.1:1")
	subs := NewSubscriptionService(db)
	s := NewTokenService(db, cfg, subs, NewMailerService(cfg))

	_, err := s.Mint(uuid.New(), "Pro", time.Now().UTC())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestRegenerateKeepsExpiry(t *testing.T) {
	db := newTestDB(t)

	var minted []createTokenRequest
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		minted = append(minted, req)
		json.NewEncoder(w).Encode(createTokenResponse{AccessToken: "tok-" + req.ExpiresAt, Plan: req.Plan})
	}))
	defer tokenSrv.Close()
	mailerSrv := newMailerStub(t)

	cfg := testConfig(tokenSrv.URL, mailerSrv.URL)
	subs := NewSubscriptionService(db)
	s := NewTokenService(db, cfg, subs, NewMailerService(cfg))

	user, sub := seedUserAndSubscription(t, db)

	_, err := s.Regenerate(user.ID)
	require.NoError(t, err)
	_, err = s.Regenerate(user.ID)
	require.NoError(t, err)

	// Rotating a token must never extend its validity window.
	require.Len(t, minted, 2)
	assert.Equal(t, minted[0].ExpiresAt, minted[1].ExpiresAt)
	assert.Equal(t, sub.ExpiresAt.UTC().Format(time.RFC3339), minted[0].ExpiresAt)
}

func TestRegenerateWithoutActiveSubscription(t *testing.T) {
	db := newTestDB(t)
	mailerSrv := newMailerStub(t)

	cfg := testConfig("http://127.0.0.1:1", mailerSrv.URL)
	subs := NewSubscriptionService(db)
	s := NewTokenService(db, cfg, subs, NewMailerService(cfg))

	_, err := s.Regenerate(uuid.New())
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestUpdateStatus(t *testing.T) {
	db := newTestDB(t)

	var got updateTokenRequest
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/update_user_token", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer tokenSrv.Close()
	mailerSrv := newMailerStub(t)

	cfg := testConfig(tokenSrv.URL, mailerSrv.URL)
	subs := NewSubscriptionService(db)
	s := NewTokenService(db, cfg, subs, NewMailerService(cfg))

	userID := uuid.New()
	require.NoError(t, s.UpdateStatus(userID, "revoked"))
	assert.Equal(t, userID.String(), got.ID)
	assert.Equal(t, "revoked", got.Status)
}

func TestMintAndDeliverSurvivesMailFailure(t *testing.T) {
	db := newTestDB(t)

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(createTokenResponse{AccessToken: "tok-abc", Plan: "Pro"})
	}))
	defer tokenSrv.Close()

	mailerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "smtp down", http.StatusBadGateway)
	}))
	defer mailerSrv.Close()

	cfg := testConfig(tokenSrv.URL, mailerSrv.URL)
	subs := NewSubscriptionService(db)
	s := NewTokenService(db, cfg, subs, NewMailerService(cfg))

	user := models.User{ID: uuid.New(), Email: "user@example.com", Name: "User", Password: "x"}
	require.NoError(t, db.Create(&user).Error)

	// The token already exists upstream; a failed mail must not fail the mint.
	token, err := s.MintAndDeliver(&user, "Pro", time.Now().UTC().AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}
