package service

import (
	"context"
	"time"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

// PatientService is the stub server's patient registry. It stamps records
// and otherwise defers to the repository.
type PatientService struct {
	repo ports.PatientRepository
	now  func() time.Time
}

func NewPatientService(repo ports.PatientRepository) *PatientService {
	return &PatientService{repo: repo, now: time.Now}
}

func (s *PatientService) List(ctx context.Context) ([]domain.Patient, error) {
	return s.repo.List(ctx)
}

func (s *PatientService) Get(ctx context.Context, id int64) (*domain.Patient, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PatientService) Create(ctx context.Context, fields domain.PatientFields) (*domain.Patient, error) {
	return s.repo.Create(ctx, fields, s.now().UTC())
}

func (s *PatientService) Update(ctx context.Context, id int64, fields domain.PatientFields) (*domain.Patient, error) {
	return s.repo.Update(ctx, id, fields, s.now().UTC())
}

func (s *PatientService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

var _ ports.PatientService = (*PatientService)(nil)
