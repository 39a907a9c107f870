package reports

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/civicpulse/pulse-backend/internal/dto"
	"github.com/civicpulse/pulse-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	service *Service
}

func NewReportHandler(service *Service) *ReportHandler {
	return &ReportHandler{service: service}
}

func (h *ReportHandler) Create(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	in := SubmitInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
		City:        c.FormValue("city"),
	}
	if in.Latitude, err = parseCoordinate(c.FormValue("latitude")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid latitude"})
	}
	if in.Longitude, err = parseCoordinate(c.FormValue("longitude")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid longitude"})
	}

	// The image is optional; a missing part is not an error.
	if file, ferr := c.FormFile("image"); ferr == nil {
		f, err := file.Open()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to read image"})
		}
		defer f.Close()

		if in.Image, err = io.ReadAll(f); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to read image data"})
		}
	}

	report, err := h.service.Submit(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *ReportHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	reports, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch reports"})
	}
	return c.JSON(ReportListResponse{Data: reports, TotalCount: int64(len(reports))})
}

func (h *ReportHandler) Get(c *fiber.Ctx) error {
	userID, reportID, err := ids(c)
	if err != nil {
		return err
	}

	report, err := h.service.Get(c.UserContext(), userID, reportID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) Update(c *fiber.Ctx) error {
	userID, reportID, err := ids(c)
	if err != nil {
		return err
	}

	var req UpdateInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	report, err := h.service.Update(c.UserContext(), userID, reportID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) Delete(c *fiber.Ctx) error {
	userID, reportID, err := ids(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), userID, reportID); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ReportHandler) Image(c *fiber.Ctx) error {
	userID, reportID, err := ids(c)
	if err != nil {
		return err
	}

	data, contentType, err := h.service.Image(c.UserContext(), userID, reportID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=3600")
	return c.Send(data)
}

// --- admin ---

func (h *ReportHandler) AdminList(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	reports, total, err := h.service.ListForReview(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ReportListResponse{Data: reports, TotalCount: total})
}

func (h *ReportHandler) AdminExport(c *fiber.Ctx) error {
	data, err := h.service.ExportCSV(c.UserContext(), c.Query("status"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="reports.csv"`)
	return c.Send(data)
}

func (h *ReportHandler) AdminVerify(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid report ID"})
	}
	// Token-header admins have no user id.
	adminID, _ := middleware.GetUserID(c)

	report, err := h.service.Verify(c.UserContext(), reportID, adminID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) AdminResolve(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid report ID"})
	}
	adminID, _ := middleware.GetUserID(c)

	report, err := h.service.Resolve(c.UserContext(), reportID, adminID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// ids returns the caller and the :id param as *fiber.Error values the app error handler renders.
func ids(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID")
	}
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid report ID")
	}
	return userID, reportID, nil
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Report not found"})
	case errors.Is(err, ErrNoEvidence):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	case errors.Is(err, ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Internal server error"})
}

func parseCoordinate(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
