package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/civicpulse/pulse-backend/internal/dto"
	"github.com/civicpulse/pulse-backend/internal/middleware"
	"github.com/civicpulse/pulse-backend/internal/reputation"
	"github.com/civicpulse/pulse-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProfileReader interface {
	Me(ctx context.Context, userID uuid.UUID) (*dto.ProfileResponse, error)
}

type LeaderboardReader interface {
	Leaderboard(ctx context.Context, limit int) ([]reputation.Standing, error)
}

type ProfileHandler struct {
	profiles    ProfileReader
	leaderboard LeaderboardReader
}

func NewProfileHandler(profiles ProfileReader, leaderboard LeaderboardReader) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, leaderboard: leaderboard}
}

func (h *ProfileHandler) Me(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	profile, err := h.profiles.Me(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch profile",
		})
	}
	return c.JSON(profile)
}

// Leaderboard is public. Bad or missing limits fall back to the default size.
func (h *ProfileHandler) Leaderboard(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = reputation.DefaultLeaderboardSize
	}

	standings, err := h.leaderboard.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch leaderboard",
		})
	}

	resp := dto.LeaderboardResponse{Data: make([]dto.ProfileResponse, 0, len(standings))}
	for _, s := range standings {
		resp.Data = append(resp.Data, dto.ProfileResponse{Username: s.Username, Points: s.Points, Level: s.Level})
	}
	return c.JSON(resp)
}
