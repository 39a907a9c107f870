package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/civicpulse/pulse-backend/internal/evidence"
	"github.com/civicpulse/pulse-backend/internal/notify"
	"github.com/civicpulse/pulse-backend/internal/reputation"
	"github.com/civicpulse/pulse-backend/internal/services"
	"github.com/civicpulse/pulse-backend/internal/verification"
	"github.com/google/uuid"
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrInvalidInput      = errors.New("invalid report")
	ErrInvalidTransition = errors.New("report cannot move to that status")
	ErrNoEvidence        = errors.New("report has no image")
)

type Service struct {
	store         Store
	classifier    verification.Classifier
	evidence      evidence.Store
	ledger        reputation.Awarder
	notifier      notify.Notifier
	filter        *services.ContentFilter
	points        int
	maxImageBytes int
	now           func() time.Time
}

type ServiceConfig struct {
	ReportPoints  int
	MaxImageBytes int
}

func NewService(store Store, classifier verification.Classifier, ev evidence.Store, ledger reputation.Awarder,
	notifier notify.Notifier, filter *services.ContentFilter, cfg ServiceConfig) *Service {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Service{
		store:         store,
		classifier:    classifier,
		evidence:      ev,
		ledger:        ledger,
		notifier:      notifier,
		filter:        filter,
		points:        cfg.ReportPoints,
		maxImageBytes: cfg.MaxImageBytes,
		now:           time.Now,
	}
}

// Submit verifies the evidence, persists the report with its decided status, then awards
// points and notifies. Only the persist step can fail the submission.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, in SubmitInput) (*Report, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.City = strings.TrimSpace(in.City)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Category == "" {
		in.Category = defaultCategory
	}

	if err := s.validate(in.Title, in.Description, in.Category, in.City, in.Latitude, in.Longitude); err != nil {
		return nil, err
	}

	hasImage := len(in.Image) > 0
	var obj evidence.Object
	if hasImage {
		if s.maxImageBytes > 0 && len(in.Image) > s.maxImageBytes {
			return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, s.maxImageBytes)
		}
		var err error
		obj, err = s.evidence.Put(ctx, in.Image)
		if err != nil {
			if errors.Is(err, evidence.ErrNotImage) || errors.Is(err, evidence.ErrEmpty) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			return nil, fmt.Errorf("failed to store evidence: %w", err)
		}
	}

	var verdict verification.Verdict
	if hasImage {
		verdict = s.classifier.Classify(ctx, in.Image, claimText(in.Title, in.Description))
	}
	outcome := verification.DecideReport(verdict, hasImage)

	report := &Report{
		ID:           uuid.New(),
		UserID:       userID,
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		City:         in.City,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Status:       ReportStatus(outcome),
		AIAnalysis:   &outcome.Reason,
		AIConfidence: outcome.Confidence,
	}
	if hasImage {
		report.ImageRef = &obj.Ref
	}

	if err := s.store.CreateReport(ctx, report); err != nil {
		if obj.Created {
			if derr := s.evidence.Delete(context.WithoutCancel(ctx), obj.Ref); derr != nil {
				slog.Warn("failed to remove orphaned evidence", "ref", obj.Ref, "error", derr)
			}
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	if verdict.Failed() {
		slog.Warn("report routed to review after classifier failure", "report_id", report.ID.String(), "error", verdict.Err)
	}
	slog.Info("report submitted", "report_id", report.ID.String(), "user_id", userID.String(), "status", report.Status, "confidence", report.AIConfidence)

	s.awardSubmission(ctx, report)
	s.notifySubmission(ctx, report)
	return report, nil
}

// awardSubmission never fails the submission. Failures land in system_logs with the
// report id so the award can be replayed.
func (s *Service) awardSubmission(ctx context.Context, r *Report) {
	if s.points <= 0 || s.ledger == nil {
		return
	}
	if _, err := s.ledger.Award(ctx, r.UserID, s.points); err != nil {
		slog.Error("report points award failed",
			"action", "award_report_points",
			"user_id", r.UserID.String(),
			"report_id", r.ID.String(),
			"points", s.points,
			"error", err,
		)
	}
}

func (s *Service) notifySubmission(ctx context.Context, r *Report) {
	n := notify.ReportNotice{
		ReportID: r.ID.String(),
		Title:    r.Title,
		City:     r.City,
		Status:   r.Status,
	}
	if sub, err := s.store.Submitter(ctx, r.UserID); err != nil {
		slog.Warn("submitter lookup failed", "user_id", r.UserID.String(), "error", err)
	} else {
		n.Username = sub.Username
		n.SubmitterPhone = sub.Phone
	}
	s.notifier.ReportSubmitted(ctx, n)
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Report, error) {
	return s.store.ListByUser(ctx, userID)
}

// Get returns the report only to its owner; other users see ErrReportNotFound.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Report, error) {
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, ErrReportNotFound
	}
	return r, nil
}

// Update edits descriptive fields. Status and AI fields are never re-evaluated on edit.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, in UpdateInput) (*Report, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		r.Title = strings.TrimSpace(*in.Title)
		fields["title"] = r.Title
	}
	if in.Description != nil {
		r.Description = strings.TrimSpace(*in.Description)
		fields["description"] = r.Description
	}
	if in.Category != nil {
		r.Category = strings.ToLower(strings.TrimSpace(*in.Category))
		if r.Category == "" {
			r.Category = defaultCategory
		}
		fields["category"] = r.Category
	}
	if in.City != nil {
		r.City = strings.TrimSpace(*in.City)
		fields["city"] = r.City
	}
	if in.Latitude != nil {
		r.Latitude = in.Latitude
		fields["latitude"] = *in.Latitude
	}
	if in.Longitude != nil {
		r.Longitude = in.Longitude
		fields["longitude"] = *in.Longitude
	}
	if len(fields) == 0 {
		return r, nil
	}

	if err := s.validate(r.Title, r.Description, r.Category, r.City, r.Latitude, r.Longitude); err != nil {
		return nil, err
	}
	if err := s.store.UpdateOwned(ctx, userID, id, fields); err != nil {
		return nil, err
	}
	return s.store.GetReport(ctx, id)
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.DeleteOwned(ctx, userID, id)
}

// Image returns the owner's evidence photo and its content type.
func (s *Service) Image(ctx context.Context, userID, id uuid.UUID) ([]byte, string, error) {
	r, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}
	if r.ImageRef == nil {
		return nil, "", ErrNoEvidence
	}
	data, err := s.evidence.Get(ctx, *r.ImageRef)
	if err != nil {
		if errors.Is(err, evidence.ErrNotFound) {
			return nil, "", ErrNoEvidence
		}
		return nil, "", err
	}
	contentType, err := evidence.SniffImage(data)
	if err != nil {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// --- admin ---

func (s *Service) ListForReview(ctx context.Context, status string, limit, offset int) ([]Report, int64, error) {
	switch status {
	case "", StatusPending, StatusVerified, StatusResolved:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListByStatus(ctx, status, limit, offset)
}

// Verify is the manual review path for reports the classifier left pending.
func (s *Service) Verify(ctx context.Context, id, adminID uuid.UUID) (*Report, error) {
	fields := map[string]interface{}{"status": StatusVerified}
	if adminID != uuid.Nil {
		fields["reviewed_by"] = adminID
	}
	return s.transition(ctx, id, []string{StatusPending}, fields)
}

func (s *Service) Resolve(ctx context.Context, id, adminID uuid.UUID) (*Report, error) {
	fields := map[string]interface{}{
		"status":      StatusResolved,
		"resolved_at": s.now().UTC(),
	}
	if adminID != uuid.Nil {
		fields["resolved_by"] = adminID
	}
	return s.transition(ctx, id, []string{StatusPending, StatusVerified}, fields)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from []string, fields map[string]interface{}) (*Report, error) {
	ok, err := s.store.Transition(ctx, id, from, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update report: %w", err)
	}

	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: report is %s", ErrInvalidTransition, r.Status)
	}
	slog.Info("report status changed", "report_id", id.String(), "status", r.Status)
	return r, nil
}

func (s *Service) validate(title, description, category, city string, lat, lng *float64) error {
	switch {
	case title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case len([]rune(title)) > maxTitleLen:
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, maxTitleLen)
	case description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	case len([]rune(description)) > maxDescriptionLen:
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxDescriptionLen)
	case len([]rune(city)) > maxCityLen:
		return fmt.Errorf("%w: city must be at most %d characters", ErrInvalidInput, maxCityLen)
	case len([]rune(category)) > maxCategoryLen:
		return fmt.Errorf("%w: category must be at most %d characters", ErrInvalidInput, maxCategoryLen)
	}

	if (lat == nil) != (lng == nil) {
		return fmt.Errorf("%w: latitude and longitude must be given together", ErrInvalidInput)
	}
	if lat != nil {
		if math.IsNaN(*lat) || *lat < -90 || *lat > 90 {
			return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidInput)
		}
		if math.IsNaN(*lng) || *lng < -180 || *lng > 180 {
			return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidInput)
		}
	}

	if s.filter != nil {
		for _, text := range []string{title, description} {
			if ok, reason := s.filter.Check(text); !ok {
				return fmt.Errorf("%w: %s", ErrInvalidInput, s.filter.RejectionMessage(reason))
			}
		}
	}
	return nil
}

func claimText(title, description string) string {
	return title + ". " + description
}
