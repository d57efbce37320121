package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

// PatientRepository keeps patient records in memory. Ids increase
// monotonically and are never reused.
type PatientRepository struct {
	mu       sync.RWMutex
	patients map[int64]domain.Patient
	nextID   int64
}

func NewPatientRepository() *PatientRepository {
	return &PatientRepository{patients: make(map[int64]domain.Patient), nextID: 1}
}

// List returns every record ordered by id.
func (r *PatientRepository) List(_ context.Context) ([]domain.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PatientRepository) FindByID(_ context.Context, id int64) (*domain.Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (r *PatientRepository) Create(_ context.Context, fields domain.PatientFields, at time.Time) (*domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := domain.Patient{
		ID:            r.nextID,
		PatientFields: fields.Clone(),
		CreatedAt:     domain.NewTimestamp(at),
	}
	r.nextID++
	r.patients[p.ID] = p

	out := p.Clone()
	return &out, nil
}

// Update overlays the non-nil fields onto the stored record.
func (r *PatientRepository) Update(_ context.Context, id int64, fields domain.PatientFields, at time.Time) (*domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, domain.ErrPatientNotFound
	}
	p.PatientFields = p.PatientFields.Apply(fields)
	ts := domain.NewTimestamp(at)
	p.UpdatedAt = &ts
	r.patients[id] = p

	out := p.Clone()
	return &out, nil
}

func (r *PatientRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[id]; !ok {
		return domain.ErrPatientNotFound
	}
	delete(r.patients, id)
	return nil
}

var _ ports.PatientRepository = (*PatientRepository)(nil)
