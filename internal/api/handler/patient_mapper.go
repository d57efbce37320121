package handler

import (
	"github.com/clinicdesk/clinic-client/internal/core/domain"
)

// --- Request → Service input ---

func (r createPatientRequest) fields() domain.PatientFields {
	return domain.PatientFields{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		Phone:            r.Phone,
		DateOfBirth:      r.DateOfBirth,
		Address:          r.Address,
		MedicalHistory:   r.MedicalHistory,
		DentalHistory:    r.DentalHistory,
		Allergies:        r.Allergies,
		EmergencyContact: r.EmergencyContact,
	}
}

func (r updatePatientRequest) fields() domain.PatientFields {
	return domain.PatientFields{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Email:            r.Email,
		Phone:            r.Phone,
		DateOfBirth:      r.DateOfBirth,
		Address:          r.Address,
		MedicalHistory:   r.MedicalHistory,
		DentalHistory:    r.DentalHistory,
		Allergies:        r.Allergies,
		EmergencyContact: r.EmergencyContact,
	}
}

func (r chatRequest) toDomain() domain.ChatRequest {
	return domain.ChatRequest{
		Message:        r.Message,
		PatientContext: r.PatientContext,
		Timestamp:      r.Timestamp,
	}
}
