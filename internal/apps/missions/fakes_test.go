package missions

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type pair struct{ user, mission uuid.UUID }

// memStore mirrors the conditional semantics of the gorm store under a single lock.
type memStore struct {
	mu          sync.Mutex
	missions    map[uuid.UUID]*Mission
	enrollments map[uuid.UUID]*UserMission
	byPair      map[pair]uuid.UUID
	awards      map[uuid.UUID]int
	completeErr error
}

func newMemStore() *memStore {
	return &memStore{
		missions:    map[uuid.UUID]*Mission{},
		enrollments: map[uuid.UUID]*UserMission{},
		byPair:      map[pair]uuid.UUID{},
		awards:      map[uuid.UUID]int{},
	}
}

func (m *memStore) addMission(title string, points int) *Mission {
	m.mu.Lock()
	defer m.mu.Unlock()
	mission := &Mission{ID: uuid.New(), Title: title, Description: title + " description", PointsReward: points}
	m.missions[mission.ID] = mission
	return mission
}

func (m *memStore) enrollment(userID, missionID uuid.UUID) *UserMission {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPair[pair{userID, missionID}]
	if !ok {
		return nil
	}
	cp := *m.enrollments[id]
	return &cp
}

func (m *memStore) awarded(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.awards[userID]
}

func (m *memStore) ListMissions(context.Context) ([]Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Mission{}
	for _, mission := range m.missions {
		out = append(out, *mission)
	}
	return out, nil
}

func (m *memStore) GetMission(_ context.Context, id uuid.UUID) (*Mission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mission, ok := m.missions[id]
	if !ok {
		return nil, ErrMissionNotFound
	}
	cp := *mission
	return &cp, nil
}

func (m *memStore) CreateMission(_ context.Context, mission *Mission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.missions {
		if existing.Title == mission.Title {
			return ErrDuplicateMission
		}
	}
	cp := *mission
	m.missions[mission.ID] = &cp
	return nil
}

func (m *memStore) UpdateMission(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mission, ok := m.missions[id]
	if !ok {
		return ErrMissionNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			mission.Title = v.(string)
		case "description":
			mission.Description = v.(string)
		case "points_reward":
			mission.PointsReward = v.(int)
		case "icon":
			mission.Icon = v.(string)
		default:
			return errors.New("unexpected field " + k)
		}
	}
	return nil
}

func (m *memStore) SeedMissions(_ context.Context, missions []Mission) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var inserted int64
next:
	for _, mission := range missions {
		for _, existing := range m.missions {
			if existing.Title == mission.Title {
				continue next
			}
		}
		cp := mission
		m.missions[cp.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (m *memStore) Enroll(_ context.Context, e *UserMission) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pair{e.UserID, e.MissionID}
	if _, ok := m.byPair[key]; ok {
		return false, nil
	}
	cp := *e
	m.enrollments[e.ID] = &cp
	m.byPair[key] = e.ID
	return true, nil
}

func (m *memStore) GetEnrollment(_ context.Context, userID, missionID uuid.UUID) (*UserMission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byPair[pair{userID, missionID}]
	if !ok {
		return nil, ErrNotEnrolled
	}
	cp := *m.enrollments[id]
	return &cp, nil
}

func (m *memStore) GetEnrollmentByID(_ context.Context, id uuid.UUID) (*UserMission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return nil, ErrEnrollmentNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) ListEnrollments(_ context.Context, userID uuid.UUID) ([]UserMission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []UserMission{}
	for _, e := range m.enrollments {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memStore) ListPendingProofs(_ context.Context, limit, offset int) ([]UserMission, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []UserMission{}
	for _, e := range m.enrollments {
		if e.Status == StatusPending && e.ProofRef != nil {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memStore) RecordAttempt(_ context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok || e.Status != StatusPending {
		return false, nil
	}
	return true, apply(e, fields)
}

func (m *memStore) Complete(_ context.Context, e *UserMission, fields map[string]interface{}, points int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return false, m.completeErr
	}
	current, ok := m.enrollments[e.ID]
	if !ok || current.Status != StatusPending {
		return false, nil
	}
	if err := apply(current, fields); err != nil {
		return false, err
	}
	m.awards[current.UserID] += points
	return true, nil
}

func apply(e *UserMission, fields map[string]interface{}) error {
	for k, v := range fields {
		switch k {
		case "status":
			e.Status = v.(string)
		case "proof_ref":
			ref := v.(string)
			e.ProofRef = &ref
		case "ai_analysis":
			analysis := v.(string)
			e.AIAnalysis = &analysis
		case "ai_confidence":
			e.AIConfidence = v.(int)
		case "completed_at":
			t := v.(time.Time)
			e.CompletedAt = &t
		default:
			return errors.New("unexpected field " + k)
		}
	}
	return nil
}
