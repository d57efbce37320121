package domain

// CollectionPatients is the cache collection name for patient records.
const CollectionPatients = "patients"

// PatientFields holds the editable patient attributes. Every field is
// optional so the same type serves create payloads and partial updates.
// It deliberately carries no id: ids are assigned by the server.
type PatientFields struct {
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	Address          *string `json:"address,omitempty"`
	MedicalHistory   *string `json:"medical_history,omitempty"`
	DentalHistory    *string `json:"dental_history,omitempty"`
	Allergies        *string `json:"allergies,omitempty"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`
}

// Patient is the server-owned patient record. The client holds a
// transient, possibly stale copy and never changes ID.
type Patient struct {
	ID int64 `json:"id"`
	PatientFields
	CreatedAt Timestamp  `json:"created_at"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`
}

// EntityID returns the server-assigned id.
func (p Patient) EntityID() int64 { return p.ID }

// Clone returns a deep copy of p.
func (p Patient) Clone() Patient {
	p.PatientFields = p.PatientFields.Clone()
	if p.UpdatedAt != nil {
		ts := *p.UpdatedAt
		p.UpdatedAt = &ts
	}
	return p
}

// FullName joins first and last name, skipping absent parts.
func (p Patient) FullName() string {
	first, last := Deref(p.FirstName), Deref(p.LastName)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

// Clone returns a copy of f that shares no pointers with it.
func (f PatientFields) Clone() PatientFields {
	return PatientFields{}.Apply(f)
}

// Apply overlays the non-nil fields of patch onto f and returns the result.
func (f PatientFields) Apply(patch PatientFields) PatientFields {
	out := f
	set := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	set(&out.FirstName, patch.FirstName)
	set(&out.LastName, patch.LastName)
	set(&out.Email, patch.Email)
	set(&out.Phone, patch.Phone)
	set(&out.DateOfBirth, patch.DateOfBirth)
	set(&out.Address, patch.Address)
	set(&out.MedicalHistory, patch.MedicalHistory)
	set(&out.DentalHistory, patch.DentalHistory)
	set(&out.Allergies, patch.Allergies)
	set(&out.EmergencyContact, patch.EmergencyContact)
	return out
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Deref returns *s or "" when s is nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
