package missions

import (
	"errors"
	"io"
	"strconv"

	"github.com/civicpulse/pulse-backend/internal/dto"
	"github.com/civicpulse/pulse-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MissionHandler struct {
	service *Service
}

func NewMissionHandler(service *Service) *MissionHandler {
	return &MissionHandler{service: service}
}

func (h *MissionHandler) List(c *fiber.Ctx) error {
	missions, err := h.service.ListMissions(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch missions"})
	}
	return c.JSON(fiber.Map{"data": missions})
}

func (h *MissionHandler) Mine(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	enrollments, err := h.service.ListEnrollments(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch missions"})
	}
	return c.JSON(fiber.Map{"data": enrollments})
}

func (h *MissionHandler) Join(c *fiber.Ctx) error {
	userID, missionID, err := ids(c)
	if err != nil {
		return err
	}

	result, err := h.service.Join(c.UserContext(), userID, missionID)
	if err != nil {
		return writeError(c, err)
	}
	if result.Status == JoinStatusJoined {
		return c.Status(fiber.StatusCreated).JSON(result)
	}
	return c.JSON(result)
}

func (h *MissionHandler) SubmitProof(c *fiber.Ctx) error {
	userID, missionID, err := ids(c)
	if err != nil {
		return err
	}

	var image []byte
	if file, ferr := c.FormFile("image"); ferr == nil {
		f, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to read image"})
		}
		defer f.Close()

		if image, err = io.ReadAll(f); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to read image data"})
		}
	}

	result, err := h.service.SubmitProof(c.UserContext(), userID, missionID, image)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// --- admin ---

func (h *MissionHandler) AdminCreate(c *fiber.Ctx) error {
	var req MissionInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	mission, err := h.service.CreateMission(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mission)
}

func (h *MissionHandler) AdminUpdate(c *fiber.Ctx) error {
	missionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid mission ID"})
	}

	var req MissionPatch
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	mission, err := h.service.UpdateMission(c.UserContext(), missionID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(mission)
}

func (h *MissionHandler) AdminProofs(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	proofs, total, err := h.service.ListPendingProofs(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ProofListResponse{Data: proofs, TotalCount: total})
}

func (h *MissionHandler) AdminProofImage(c *fiber.Ctx) error {
	enrollmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid enrollment ID"})
	}

	data, contentType, err := h.service.ProofImage(c.UserContext(), enrollmentID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(data)
}

func (h *MissionHandler) AdminApprove(c *fiber.Ctx) error {
	enrollmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid enrollment ID"})
	}

	result, err := h.service.ApproveProof(c.UserContext(), enrollmentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

func ids(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID")
	}
	missionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid mission ID")
	}
	return userID, missionID, nil
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrMissionNotFound), errors.Is(err, ErrEnrollmentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrNotEnrolled), errors.Is(err, ErrMissingEvidence), errors.Is(err, ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrDuplicateMission), errors.Is(err, ErrAlreadyCompleted):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Internal server error"})
}
