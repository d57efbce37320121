package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Account{User: domain.User{Email: "a@x.com"}, PasswordHash: "h"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected id 1, got %d", created.ID)
	}

	if _, err := repo.Create(ctx, &domain.Account{User: domain.User{Email: "a@x.com"}}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil || byEmail.ID != 1 || byEmail.PasswordHash != "h" {
		t.Fatalf("FindByEmail: %+v %v", byEmail, err)
	}
	if _, err := repo.FindByID(ctx, 9); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	created, _ := repo.Create(ctx, &domain.Account{User: domain.User{Email: "a@x.com"}, PasswordHash: "old"})

	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.UpdatePassword(ctx, created.ID, "new", at); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}
	got, _ := repo.FindByID(ctx, created.ID)
	if got.PasswordHash != "new" || got.UpdatedAt == nil || !got.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected account %+v", got)
	}
	if err := repo.UpdatePassword(ctx, 42, "x", at); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestPatientRepository_Lifecycle(t *testing.T) {
	repo := NewPatientRepository()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	a, _ := repo.Create(ctx, domain.PatientFields{FirstName: domain.String("Ann")}, now)
	b, _ := repo.Create(ctx, domain.PatientFields{FirstName: domain.String("Bob")}, now)
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", a.ID, b.ID)
	}

	updated, err := repo.Update(ctx, 1, domain.PatientFields{Phone: domain.String("555")}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if domain.Deref(updated.FirstName) != "Ann" || domain.Deref(updated.Phone) != "555" || updated.UpdatedAt == nil {
		t.Fatalf("expected partial update, got %+v", updated)
	}

	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, 1); !errors.Is(err, domain.ErrPatientNotFound) {
		t.Fatalf("expected ErrPatientNotFound, got %v", err)
	}

	c, _ := repo.Create(ctx, domain.PatientFields{FirstName: domain.String("Cy")}, now)
	if c.ID != 3 {
		t.Fatalf("ids must not be reused, got %d", c.ID)
	}

	list, _ := repo.List(ctx)
	if len(list) != 2 || list[0].ID != 2 || list[1].ID != 3 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPatientRepository_ReturnsCopies(t *testing.T) {
	repo := NewPatientRepository()
	ctx := context.Background()
	created, _ := repo.Create(ctx, domain.PatientFields{FirstName: domain.String("Ann")}, time.Now())

	*created.FirstName = "Mallory"

	got, _ := repo.FindByID(ctx, created.ID)
	if domain.Deref(got.FirstName) != "Ann" {
		t.Fatalf("stored record was mutated through a returned pointer")
	}
}
