package reports

import (
	"context"
	"errors"

	"github.com/civicpulse/pulse-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the persistence the report service needs.
type Store interface {
	CreateReport(ctx context.Context, r *Report) error
	GetReport(ctx context.Context, id uuid.UUID) (*Report, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Report, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]Report, int64, error)
	UpdateOwned(ctx context.Context, userID, id uuid.UUID, fields map[string]interface{}) error
	DeleteOwned(ctx context.Context, userID, id uuid.UUID) error
	// Transition applies fields only while the report is in one of the from statuses.
	Transition(ctx context.Context, id uuid.UUID, from []string, fields map[string]interface{}) (bool, error)
	Submitter(ctx context.Context, userID uuid.UUID) (Submitter, error)
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) CreateReport(ctx context.Context, r *Report) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *gormStore) GetReport(ctx context.Context, id uuid.UUID) (*Report, error) {
	var r Report
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Report, error) {
	reports := []Report{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reports).Error
	return reports, err
}

func (s *gormStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]Report, int64, error) {
	var total int64
	reports := []Report{}

	query := s.db.WithContext(ctx).Model(&Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *gormStore) UpdateOwned(ctx context.Context, userID, id uuid.UUID, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&Report{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *gormStore) DeleteOwned(ctx context.Context, userID, id uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Report{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *gormStore) Transition(ctx context.Context, id uuid.UUID, from []string, fields map[string]interface{}) (bool, error) {
	result := s.db.WithContext(ctx).Model(&Report{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *gormStore) Submitter(ctx context.Context, userID uuid.UUID) (Submitter, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Select("username", "phone_number").First(&u, "id = ?", userID).Error; err != nil {
		return Submitter{}, err
	}
	sub := Submitter{Username: u.Username}
	if u.PhoneNumber != nil {
		sub.Phone = *u.PhoneNumber
	}
	return sub, nil
}
