package ports

import (
	"context"
	"time"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
)

// The interfaces below are the server side of the clinic API, implemented
// by the in-process stub server.

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, acct *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error
}

// PatientRepository persists patient records. Ids are assigned on Create.
type PatientRepository interface {
	List(ctx context.Context) ([]domain.Patient, error)
	FindByID(ctx context.Context, id int64) (*domain.Patient, error)
	Create(ctx context.Context, fields domain.PatientFields, at time.Time) (*domain.Patient, error)
	Update(ctx context.Context, id int64, fields domain.PatientFields, at time.Time) (*domain.Patient, error)
	Delete(ctx context.Context, id int64) error
}

type AuthService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.Token, error)
	Me(ctx context.Context, userID int64) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, current, next string) error
}

type PatientService interface {
	List(ctx context.Context) ([]domain.Patient, error)
	Get(ctx context.Context, id int64) (*domain.Patient, error)
	Create(ctx context.Context, fields domain.PatientFields) (*domain.Patient, error)
	Update(ctx context.Context, id int64, fields domain.PatientFields) (*domain.Patient, error)
	Delete(ctx context.Context, id int64) error
}

// Assistant answers chat questions.
type Assistant interface {
	Reply(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
}
