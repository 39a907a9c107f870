package reports

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/civicpulse/pulse-backend/internal/models"
	"github.com/civicpulse/pulse-backend/internal/notify"
	"github.com/google/uuid"
)

type memStore struct {
	mu         sync.Mutex
	reports    map[uuid.UUID]*Report
	submitters map[uuid.UUID]Submitter
	createErr  error
	order      int
}

func newMemStore() *memStore {
	return &memStore{reports: map[uuid.UUID]*Report{}, submitters: map[uuid.UUID]Submitter{}}
}

func (m *memStore) CreateReport(_ context.Context, r *Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.order++
	cp := *r
	cp.CreatedAt = cp.CreatedAt.AddDate(0, 0, m.order)
	m.reports[r.ID] = &cp
	return nil
}

func (m *memStore) GetReport(_ context.Context, id uuid.UUID) (*Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Report{}
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) ListByStatus(_ context.Context, status string, limit, offset int) ([]Report, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Report{}
	for _, r := range m.reports {
		if status == "" || r.Status == status {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memStore) UpdateOwned(_ context.Context, userID, id uuid.UUID, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.UserID != userID {
		return ErrReportNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			r.Title = v.(string)
		case "description":
			r.Description = v.(string)
		case "category":
			r.Category = v.(string)
		case "city":
			r.City = v.(string)
		case "latitude":
			f := v.(float64)
			r.Latitude = &f
		case "longitude":
			f := v.(float64)
			r.Longitude = &f
		default:
			return errors.New("unexpected field " + k)
		}
	}
	return nil
}

func (m *memStore) DeleteOwned(_ context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.UserID != userID {
		return ErrReportNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *memStore) Transition(_ context.Context, id uuid.UUID, from []string, fields map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if r.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	r.Status = fields["status"].(string)
	if v, ok := fields["reviewed_by"].(uuid.UUID); ok {
		r.ReviewedBy = &v
	}
	if v, ok := fields["resolved_by"].(uuid.UUID); ok {
		r.ResolvedBy = &v
	}
	return true, nil
}

func (m *memStore) Submitter(_ context.Context, userID uuid.UUID) (Submitter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submitters[userID]
	if !ok {
		return Submitter{}, errors.New("no such user")
	}
	return s, nil
}

type fakeLedger struct {
	mu     sync.Mutex
	awards map[uuid.UUID]int
	err    error
}

func (f *fakeLedger) Award(_ context.Context, userID uuid.UUID, delta int) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.awards == nil {
		f.awards = map[uuid.UUID]int{}
	}
	f.awards[userID] += delta
	return &models.Profile{UserID: userID, Points: f.awards[userID]}, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notify.ReportNotice
}

func (f *fakeNotifier) ReportSubmitted(_ context.Context, n notify.ReportNotice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
}
