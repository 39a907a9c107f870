package services

import (
	"context"
	"testing"
	"time"

	"github.com/civicpulse/pulse-backend/internal/config"
	"github.com/civicpulse/pulse-backend/internal/database/dbtest"
	"github.com/civicpulse/pulse-backend/internal/dto"
	"github.com/civicpulse/pulse-backend/internal/models"
	"github.com/civicpulse/pulse-backend/internal/reputation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegistration(t *testing.T) {
	valid := dto.RegisterRequest{Username: "asha_k", Email: "asha@example.test", Password: "long-enough"}

	cases := []struct {
		name   string
		mutate func(r *dto.RegisterRequest)
		ok     bool
	}{
		{"valid", func(*dto.RegisterRequest) {}, true},
		{"valid with phone", func(r *dto.RegisterRequest) { r.PhoneNumber = "+919812345678" }, true},
		{"short username", func(r *dto.RegisterRequest) { r.Username = "ab" }, false},
		{"username with space", func(r *dto.RegisterRequest) { r.Username = "asha k" }, false},
		{"missing email", func(r *dto.RegisterRequest) { r.Email = "" }, false},
		{"short password", func(r *dto.RegisterRequest) { r.Password = "short" }, false},
		{"local phone", func(r *dto.RegisterRequest) { r.PhoneNumber = "09812345678" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := validateRegistration(&req)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRegistration)
			}
		})
	}
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := dbtest.DB(t)
	cfg := &config.Config{JWTSecret: "test-secret", JWTAccessExpiry: time.Minute, JWTRefreshExpiry: time.Hour}
	return NewAuthService(db, cfg, reputation.NewLedger(db, nil))
}

func cleanupUser(t *testing.T, s *AuthService, id uuid.UUID) {
	t.Cleanup(func() {
		s.db.Where("user_id = ?", id).Delete(&models.RefreshToken{})
		s.db.Where("user_id = ?", id).Delete(&models.Profile{})
		s.db.Unscoped().Delete(&models.User{}, "id = ?", id)
	})
}

func TestRegisterLoginRefresh(t *testing.T) {
	s := newAuthService(t)
	ctx := context.Background()
	name := "auth_" + uuid.NewString()[:8]

	resp, err := s.Register(ctx, &dto.RegisterRequest{
		Username: name, Email: name + "@Example.test", Password: "correct-horse",
	})
	require.NoError(t, err)
	cleanupUser(t, s, resp.User.ID)
	assert.Equal(t, name+"@example.test", resp.User.Email)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, name, claims["username"])

	me, err := s.Me(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, me.Points)
	assert.Equal(t, models.DefaultLevel, me.Level)

	_, err = s.Register(ctx, &dto.RegisterRequest{Username: name + "x", Email: name + "@example.test", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrEmailTaken)
	_, err = s.Register(ctx, &dto.RegisterRequest{Username: name, Email: "other_" + name + "@example.test", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = s.Login(ctx, &dto.LoginRequest{Email: name + "@example.test", Password: "wrong-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	login, err := s.Login(ctx, &dto.LoginRequest{Email: name + "@example.test", Password: "correct-horse"})
	require.NoError(t, err)

	rotated, err := s.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The rotated-out token is single use.
	_, err = s.Refresh(ctx, &dto.RefreshRequest{RefreshToken: login.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, s.Logout(ctx, &dto.LogoutRequest{RefreshToken: rotated.RefreshToken}))
	_, err = s.Refresh(ctx, &dto.RefreshRequest{RefreshToken: rotated.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
