package missions

import (
	"context"
	"errors"

	"github.com/civicpulse/pulse-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence the mission service needs.
type Store interface {
	ListMissions(ctx context.Context) ([]Mission, error)
	GetMission(ctx context.Context, id uuid.UUID) (*Mission, error)
	CreateMission(ctx context.Context, m *Mission) error
	UpdateMission(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	SeedMissions(ctx context.Context, missions []Mission) (int64, error)

	// Enroll inserts e unless the (user, mission) pair already exists.
	Enroll(ctx context.Context, e *UserMission) (bool, error)
	GetEnrollment(ctx context.Context, userID, missionID uuid.UUID) (*UserMission, error)
	GetEnrollmentByID(ctx context.Context, id uuid.UUID) (*UserMission, error)
	ListEnrollments(ctx context.Context, userID uuid.UUID) ([]UserMission, error)
	ListPendingProofs(ctx context.Context, limit, offset int) ([]UserMission, int64, error)

	// RecordAttempt stores a rejected proof while the enrollment is still pending.
	RecordAttempt(ctx context.Context, enrollmentID uuid.UUID, fields map[string]interface{}) (bool, error)
	// Complete moves a pending enrollment to completed and awards points in one transaction.
	// It reports false, without awarding, when the enrollment was not pending.
	Complete(ctx context.Context, e *UserMission, fields map[string]interface{}, points int) (bool, error)
}

// TxLedger awards points inside a caller-owned transaction.
type TxLedger interface {
	AwardTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, delta int) (*models.Profile, error)
	Invalidate(ctx context.Context)
}

type gormStore struct {
	db     *gorm.DB
	ledger TxLedger
}

func NewGormStore(db *gorm.DB, ledger TxLedger) Store {
	return &gormStore{db: db, ledger: ledger}
}

func (s *gormStore) ListMissions(ctx context.Context) ([]Mission, error) {
	missions := []Mission{}
	err := s.db.WithContext(ctx).Order("points_reward ASC, title ASC").Find(&missions).Error
	return missions, err
}

func (s *gormStore) GetMission(ctx context.Context, id uuid.UUID) (*Mission, error) {
	var m Mission
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMissionNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) CreateMission(ctx context.Context, m *Mission) error {
	err := s.db.WithContext(ctx).Create(m).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateMission
	}
	return err
}

func (s *gormStore) UpdateMission(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&Mission{}).Where("id = ?", id).Updates(fields)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicateMission
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMissionNotFound
	}
	return nil
}

func (s *gormStore) SeedMissions(ctx context.Context, missions []Mission) (int64, error) {
	if len(missions) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoNothing: true,
	}).Create(&missions)
	return result.RowsAffected, result.Error
}

func (s *gormStore) Enroll(ctx context.Context, e *UserMission) (bool, error) {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "mission_id"}},
		DoNothing: true,
	}).Create(e)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *gormStore) GetEnrollment(ctx context.Context, userID, missionID uuid.UUID) (*UserMission, error) {
	var e UserMission
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND mission_id = ?", userID, missionID).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) GetEnrollmentByID(ctx context.Context, id uuid.UUID) (*UserMission, error) {
	var e UserMission
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) ListEnrollments(ctx context.Context, userID uuid.UUID) ([]UserMission, error) {
	enrollments := []UserMission{}
	err := s.db.WithContext(ctx).
		Preload("Mission").
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (s *gormStore) ListPendingProofs(ctx context.Context, limit, offset int) ([]UserMission, int64, error) {
	var total int64
	enrollments := []UserMission{}

	query := s.db.WithContext(ctx).Model(&UserMission{}).
		Where("status = ? AND proof_ref IS NOT NULL", StatusPending)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Mission").
		Order("updated_at ASC").
		Limit(limit).Offset(offset).
		Find(&enrollments).Error
	if err != nil {
		return nil, 0, err
	}
	return enrollments, total, nil
}

func (s *gormStore) RecordAttempt(ctx context.Context, enrollmentID uuid.UUID, fields map[string]interface{}) (bool, error) {
	result := s.db.WithContext(ctx).Model(&UserMission{}).
		Where("id = ? AND status = ?", enrollmentID, StatusPending).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *gormStore) Complete(ctx context.Context, e *UserMission, fields map[string]interface{}, points int) (bool, error) {
	completed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&UserMission{}).
			Where("id = ? AND status = ?", e.ID, StatusPending).
			Updates(fields)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}

		if _, err := s.ledger.AwardTx(ctx, tx, e.UserID, points); err != nil {
			return err
		}
		completed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if completed {
		s.ledger.Invalidate(ctx)
	}
	return completed, nil
}
