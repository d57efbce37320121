package handler

// --- Auth ---

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Patients ---

type createPatientRequest struct {
	FirstName        *string `json:"first_name" validate:"required,min=1,max=100"`
	LastName         *string `json:"last_name" validate:"required,min=1,max=100"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Phone            *string `json:"phone" validate:"omitempty,max=32"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address          *string `json:"address"`
	MedicalHistory   *string `json:"medical_history"`
	DentalHistory    *string `json:"dental_history"`
	Allergies        *string `json:"allergies"`
	EmergencyContact *string `json:"emergency_contact"`
}

// updatePatientRequest carries only the fields being changed.
type updatePatientRequest struct {
	FirstName        *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName         *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Phone            *string `json:"phone" validate:"omitempty,max=32"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address          *string `json:"address"`
	MedicalHistory   *string `json:"medical_history"`
	DentalHistory    *string `json:"dental_history"`
	Allergies        *string `json:"allergies"`
	EmergencyContact *string `json:"emergency_contact"`
}

// --- Chat ---

type chatRequest struct {
	Message        string `json:"message" validate:"required"`
	PatientContext string `json:"patient_context"`
	Timestamp      string `json:"timestamp"`
}
