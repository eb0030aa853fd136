package stubapi

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"clinic/internal/common"
	"clinic/internal/domain/model"

	"github.com/google/uuid"
)

type userRecord struct {
	model.User
	HashedPassword string
}

type patientRecord struct {
	model.Patient
	CreatedBy string
	UpdatedBy string
}

// Store is the stub's in-memory state. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*userRecord
	byName   map[string]string
	patients map[string]*patientRecord
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*userRecord),
		byName:   make(map[string]string),
		patients: make(map[string]*patientRecord),
		now:      time.Now,
	}
}

// SetClock replaces the time source used for created/updated stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) CreateUser(username, hashedPassword string, role model.Role) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[username]; taken {
		return model.User{}, fmt.Errorf("username %q already exists: %w", username, common.ErrConflict)
	}
	u := &userRecord{
		User:           model.User{ID: uuid.NewString(), Username: username, Role: role},
		HashedPassword: hashedPassword,
	}
	s.users[u.ID] = u
	s.byName[username] = u.ID
	return u.User, nil
}

func (s *Store) FindUserByUsername(username string) (model.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[username]
	if !ok {
		return model.User{}, "", common.ErrNotFound
	}
	u := s.users[id]
	return u.User, u.HashedPassword, nil
}

func (s *Store) FindUserByID(id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, common.ErrNotFound
	}
	return u.User, nil
}

func (s *Store) CreatePatient(req model.AddPatientRequest, by string) model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := model.NewTimestamp(s.now())
	p := &patientRecord{
		Patient: model.Patient{
			ID:        uuid.NewString(),
			Name:      req.Name,
			Age:       req.Age,
			Gender:    req.Gender,
			Address:   req.Address,
			Phone:     req.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		},
		CreatedBy: by,
		UpdatedBy: by,
	}
	s.patients[p.ID] = p
	return p.Patient
}

// ListPatients returns patients in insertion-independent id order; the
// client is responsible for presentation order.
func (s *Store) ListPatients() []model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, p.Patient)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) GetPatient(id string) (model.PatientDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return model.PatientDetail{}, fmt.Errorf("patient %s: %w", id, common.ErrNotFound)
	}
	detail := model.PatientDetail{Patient: p.Patient}
	if u, ok := s.users[p.CreatedBy]; ok {
		detail.CreatedBy = u.User
	}
	if u, ok := s.users[p.UpdatedBy]; ok {
		detail.UpdatedBy = u.User
	}
	return detail, nil
}

// UpdatePatient applies only the non-nil fields of req.
func (s *Store) UpdatePatient(id string, req model.UpdatePatientRequest, by string) (model.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		return model.Patient{}, fmt.Errorf("patient %s: %w", id, common.ErrNotFound)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}
	if req.MedicalNotes != nil {
		p.MedicalNotes = *req.MedicalNotes
	}
	p.UpdatedAt = s.touch(p.CreatedAt)
	p.UpdatedBy = by
	return p.Patient, nil
}

func (s *Store) UpdatePatientNotes(id, notes, by string) (model.Patient, error) {
	return s.UpdatePatient(id, model.UpdatePatientRequest{MedicalNotes: &notes}, by)
}

func (s *Store) DeletePatient(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[id]; !ok {
		return fmt.Errorf("patient %s: %w", id, common.ErrNotFound)
	}
	delete(s.patients, id)
	return nil
}

// touch returns the current time, never earlier than createdAt.
func (s *Store) touch(createdAt model.Timestamp) model.Timestamp {
	now := model.NewTimestamp(s.now())
	if now.Before(createdAt.Time) {
		return createdAt
	}
	return now
}

// insertPatient stores a fully formed record; used for seeding.
func (s *Store) insertPatient(p model.Patient, createdBy, updatedBy string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = &patientRecord{Patient: p, CreatedBy: createdBy, UpdatedBy: updatedBy}
}
