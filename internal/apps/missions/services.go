package missions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/civicpulse/pulse-backend/internal/evidence"
	"github.com/civicpulse/pulse-backend/internal/verification"
	"github.com/google/uuid"
)

var (
	ErrMissionNotFound    = errors.New("mission not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrNotEnrolled        = errors.New("join the mission before submitting proof")
	ErrMissingEvidence    = errors.New("proof image is required")
	ErrInvalidInput       = errors.New("invalid mission")
	ErrDuplicateMission   = errors.New("a mission with that title already exists")
	ErrAlreadyCompleted   = errors.New("mission already completed")
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 2000
	maxIconLength        = 50
	alreadyCompleted     = "Mission already completed"
)

type Service struct {
	store         Store
	classifier    verification.Classifier
	evidence      evidence.Store
	maxImageBytes int
	now           func() time.Time
}

func NewService(store Store, classifier verification.Classifier, ev evidence.Store, maxImageBytes int) *Service {
	return &Service{
		store:         store,
		classifier:    classifier,
		evidence:      ev,
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

func (s *Service) ListMissions(ctx context.Context) ([]Mission, error) {
	return s.store.ListMissions(ctx)
}

func (s *Service) ListEnrollments(ctx context.Context, userID uuid.UUID) ([]UserMission, error) {
	return s.store.ListEnrollments(ctx, userID)
}

// Join enrolls the user once. A repeat or concurrent join returns the existing enrollment.
func (s *Service) Join(ctx context.Context, userID, missionID uuid.UUID) (*JoinResult, error) {
	if _, err := s.store.GetMission(ctx, missionID); err != nil {
		return nil, err
	}

	e := &UserMission{
		ID:          uuid.New(),
		UserID:      userID,
		MissionID:   missionID,
		Status:      StatusPending,
		SubmittedAt: s.now(),
	}
	created, err := s.store.Enroll(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("failed to join mission: %w", err)
	}
	if created {
		return &JoinResult{Status: JoinStatusJoined, Enrollment: e}, nil
	}

	existing, err := s.store.GetEnrollment(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}
	return &JoinResult{Status: JoinStatusAlreadyJoined, Enrollment: existing}, nil
}

// SubmitProof verifies a photo against the mission description. An approved proof completes
// the enrollment and awards the reward exactly once; a rejected one can be retried.
func (s *Service) SubmitProof(ctx context.Context, userID, missionID uuid.UUID, image []byte) (*ProofResult, error) {
	mission, err := s.store.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.store.GetEnrollment(ctx, userID, missionID)
	if err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, ErrMissingEvidence
	}
	if enrollment.Status == StatusCompleted {
		return completedResult(enrollment.AIConfidence), nil
	}

	if s.maxImageBytes > 0 && len(image) > s.maxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, s.maxImageBytes)
	}
	obj, err := s.evidence.Put(ctx, image)
	if err != nil {
		if errors.Is(err, evidence.ErrNotImage) || errors.Is(err, evidence.ErrEmpty) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("failed to store proof: %w", err)
	}

	verdict := s.classifier.Classify(ctx, image, mission.Description)
	outcome := verification.DecideMission(verdict, true)

	ref := obj.Ref
	reason := outcome.Reason
	fields := map[string]interface{}{
		"proof_ref":     ref,
		"ai_analysis":   reason,
		"ai_confidence": outcome.Confidence,
	}

	status := MissionStatus(outcome)
	if status == StatusCompleted {
		fields["status"] = StatusCompleted
		fields["completed_at"] = s.now()

		done, err := s.store.Complete(ctx, enrollment, fields, mission.PointsReward)
		if err != nil {
			return nil, fmt.Errorf("failed to complete mission: %w", err)
		}
		if !done {
			// Another submission completed it first.
			return completedResult(outcome.Confidence), nil
		}

		slog.Info("mission completed",
			"user_id", userID, "mission_id", missionID, "confidence", outcome.Confidence, "points", mission.PointsReward)
		return &ProofResult{
			Status:     StatusCompleted,
			Reason:     reason,
			Confidence: outcome.Confidence,
			Awarded:    mission.PointsReward,
		}, nil
	}

	recorded, err := s.store.RecordAttempt(ctx, enrollment.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to record proof: %w", err)
	}
	if !recorded {
		return completedResult(outcome.Confidence), nil
	}
	return &ProofResult{
		Status:     StatusPending,
		Reason:     reason,
		Confidence: outcome.Confidence,
	}, nil
}

func completedResult(confidence int) *ProofResult {
	return &ProofResult{Status: StatusCompleted, Reason: alreadyCompleted, Confidence: confidence}
}

// ProofImage returns the latest proof photo of an enrollment.
func (s *Service) ProofImage(ctx context.Context, enrollmentID uuid.UUID) ([]byte, string, error) {
	e, err := s.store.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, "", err
	}
	if e.ProofRef == nil {
		return nil, "", ErrMissingEvidence
	}
	data, err := s.evidence.Get(ctx, *e.ProofRef)
	if err != nil {
		if errors.Is(err, evidence.ErrNotFound) {
			return nil, "", ErrMissingEvidence
		}
		return nil, "", err
	}
	ct, err := evidence.SniffImage(data)
	if err != nil {
		return nil, "", err
	}
	return data, ct, nil
}

// --- admin ---

func (s *Service) CreateMission(ctx context.Context, in MissionInput) (*Mission, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Icon = strings.TrimSpace(in.Icon)
	if err := validateMission(in.Title, in.Description, in.Icon, in.PointsReward); err != nil {
		return nil, err
	}

	m := &Mission{
		ID:           uuid.New(),
		Title:        in.Title,
		Description:  in.Description,
		PointsReward: in.PointsReward,
		Icon:         in.Icon,
	}
	if err := s.store.CreateMission(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) UpdateMission(ctx context.Context, id uuid.UUID, patch MissionPatch) (*Mission, error) {
	current, err := s.store.GetMission(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Title != nil {
		current.Title = strings.TrimSpace(*patch.Title)
		fields["title"] = current.Title
	}
	if patch.Description != nil {
		current.Description = strings.TrimSpace(*patch.Description)
		fields["description"] = current.Description
	}
	if patch.PointsReward != nil {
		current.PointsReward = *patch.PointsReward
		fields["points_reward"] = current.PointsReward
	}
	if patch.Icon != nil {
		current.Icon = strings.TrimSpace(*patch.Icon)
		fields["icon"] = current.Icon
	}
	if len(fields) == 0 {
		return current, nil
	}
	if err := validateMission(current.Title, current.Description, current.Icon, current.PointsReward); err != nil {
		return nil, err
	}

	if err := s.store.UpdateMission(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.store.GetMission(ctx, id)
}

func (s *Service) ListPendingProofs(ctx context.Context, limit, offset int) ([]UserMission, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListPendingProofs(ctx, limit, offset)
}

// ApproveProof completes a pending enrollment on an admin's word, through the same
// guarded transition as an automatic approval.
func (s *Service) ApproveProof(ctx context.Context, enrollmentID uuid.UUID) (*ApproveResult, error) {
	e, err := s.store.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if e.Status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if e.ProofRef == nil {
		return nil, ErrMissingEvidence
	}
	mission, err := s.store.GetMission(ctx, e.MissionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	done, err := s.store.Complete(ctx, e, map[string]interface{}{
		"status":       StatusCompleted,
		"completed_at": now,
	}, mission.PointsReward)
	if err != nil {
		return nil, fmt.Errorf("failed to approve proof: %w", err)
	}
	if !done {
		return nil, ErrAlreadyCompleted
	}

	slog.Info("mission proof approved by admin", "enrollment_id", e.ID, "user_id", e.UserID, "points", mission.PointsReward)
	updated, err := s.store.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	return &ApproveResult{Enrollment: updated, Awarded: mission.PointsReward}, nil
}

// Seed inserts the default catalog. Titles already present are left alone.
func (s *Service) Seed(ctx context.Context) error {
	catalog := defaultMissions()
	for i := range catalog {
		catalog[i].ID = uuid.New()
	}
	inserted, err := s.store.SeedMissions(ctx, catalog)
	if err != nil {
		return fmt.Errorf("failed to seed missions: %w", err)
	}
	if inserted > 0 {
		slog.Info("default missions seeded", "count", inserted)
	}
	return nil
}

func validateMission(title, description, icon string, points int) error {
	switch {
	case title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case len(title) > maxTitleLength:
		return fmt.Errorf("%w: title must be at most %d characters", ErrInvalidInput, maxTitleLength)
	case description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	case len(description) > maxDescriptionLength:
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, maxDescriptionLength)
	case len(icon) > maxIconLength:
		return fmt.Errorf("%w: icon must be at most %d characters", ErrInvalidInput, maxIconLength)
	case points <= 0:
		return fmt.Errorf("%w: points_reward must be positive", ErrInvalidInput)
	}
	return nil
}
