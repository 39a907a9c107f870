package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicpulse/pulse-backend/internal/dto"
	"github.com/civicpulse/pulse-backend/internal/reputation"
	"github.com/civicpulse/pulse-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfiles map[uuid.UUID]dto.ProfileResponse

func (f fakeProfiles) Me(_ context.Context, userID uuid.UUID) (*dto.ProfileResponse, error) {
	p, ok := f[userID]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return &p, nil
}

type fakeBoard struct {
	standings []reputation.Standing
	gotLimit  int
	err       error
}

func (f *fakeBoard) Leaderboard(_ context.Context, limit int) ([]reputation.Standing, error) {
	f.gotLimit = limit
	return f.standings, f.err
}

func withUser(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"sub": userID.String()}})
		return c.Next()
	}
}

func TestProfileMe(t *testing.T) {
	known := uuid.New()
	h := NewProfileHandler(fakeProfiles{known: {Username: "asha", Points: 40, Level: "Citizen"}}, &fakeBoard{})

	app := fiber.New()
	app.Get("/me", withUser(known), h.Me)
	app.Get("/stranger", withUser(uuid.New()), h.Me)
	app.Get("/anon", h.Me)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body dto.ProfileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, dto.ProfileResponse{Username: "asha", Points: 40, Level: "Citizen"}, body)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/stranger", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/anon", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLeaderboard(t *testing.T) {
	board := &fakeBoard{standings: []reputation.Standing{
		{Username: "asha", Points: 120, Level: "Citizen"},
		{Username: "ravi", Points: 90, Level: "Citizen"},
	}}
	h := NewProfileHandler(fakeProfiles{}, board)
	app := fiber.New()
	app.Get("/leaderboard", h.Leaderboard)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, board.gotLimit)

	var body dto.LeaderboardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "asha", body.Data[0].Username)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/leaderboard?limit=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, reputation.DefaultLeaderboardSize, board.gotLimit)

	board.err = errors.New("db down")
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/leaderboard", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", NewHealthHandler(func(context.Context) error { return nil }).Check)
	app.Get("/down", NewHealthHandler(func(context.Context) error { return errors.New("refused") }).Check)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	var body dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.DB)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/down", nil))
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.Contains(t, body.DB, "refused")
}
