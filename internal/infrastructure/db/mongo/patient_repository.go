package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

const collectionPatients = "patients"

type PatientRepository struct {
	col *mongo.Collection
	seq sequence
}

func NewPatientRepository(db *mongo.Database) *PatientRepository {
	return &PatientRepository{col: db.Collection(collectionPatients), seq: newSequence(db, collectionPatients)}
}

// patientDoc stores absent fields as missing keys so a record round-trips
// with the same nil/non-nil shape.
type patientDoc struct {
	ID               int64      `bson:"_id"`
	FirstName        *string    `bson:"first_name,omitempty"`
	LastName         *string    `bson:"last_name,omitempty"`
	Email            *string    `bson:"email,omitempty"`
	Phone            *string    `bson:"phone,omitempty"`
	DateOfBirth      *string    `bson:"date_of_birth,omitempty"`
	Address          *string    `bson:"address,omitempty"`
	MedicalHistory   *string    `bson:"medical_history,omitempty"`
	DentalHistory    *string    `bson:"dental_history,omitempty"`
	Allergies        *string    `bson:"allergies,omitempty"`
	EmergencyContact *string    `bson:"emergency_contact,omitempty"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        *time.Time `bson:"updated_at,omitempty"`
}

func newPatientDoc(id int64, f domain.PatientFields, at time.Time) patientDoc {
	return patientDoc{
		ID:               id,
		FirstName:        f.FirstName,
		LastName:         f.LastName,
		Email:            f.Email,
		Phone:            f.Phone,
		DateOfBirth:      f.DateOfBirth,
		Address:          f.Address,
		MedicalHistory:   f.MedicalHistory,
		DentalHistory:    f.DentalHistory,
		Allergies:        f.Allergies,
		EmergencyContact: f.EmergencyContact,
		CreatedAt:        at.UTC(),
	}
}

func (d patientDoc) toDomain() domain.Patient {
	p := domain.Patient{
		ID: d.ID,
		PatientFields: domain.PatientFields{
			FirstName:        d.FirstName,
			LastName:         d.LastName,
			Email:            d.Email,
			Phone:            d.Phone,
			DateOfBirth:      d.DateOfBirth,
			Address:          d.Address,
			MedicalHistory:   d.MedicalHistory,
			DentalHistory:    d.DentalHistory,
			Allergies:        d.Allergies,
			EmergencyContact: d.EmergencyContact,
		},
		CreatedAt: domain.NewTimestamp(d.CreatedAt),
	}
	if d.UpdatedAt != nil {
		ts := domain.NewTimestamp(*d.UpdatedAt)
		p.UpdatedAt = &ts
	}
	return p
}

// setFields builds the $set document of a partial update: only the
// non-nil fields plus the update time.
func setFields(f domain.PatientFields, at time.Time) bson.M {
	set := bson.M{"updated_at": at.UTC()}
	put := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	put("first_name", f.FirstName)
	put("last_name", f.LastName)
	put("email", f.Email)
	put("phone", f.Phone)
	put("date_of_birth", f.DateOfBirth)
	put("address", f.Address)
	put("medical_history", f.MedicalHistory)
	put("dental_history", f.DentalHistory)
	put("allergies", f.Allergies)
	put("emergency_contact", f.EmergencyContact)
	return set
}

// List returns every record ordered by id.
func (r *PatientRepository) List(ctx context.Context) ([]domain.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	var docs []patientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}

	out := make([]domain.Patient, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id int64) (*domain.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc patientDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *PatientRepository) Create(ctx context.Context, fields domain.PatientFields, at time.Time) (*domain.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.seq.next(ctx)
	if err != nil {
		return nil, err
	}
	doc := newPatientDoc(id, fields, at)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert patient: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

// Update overlays the non-nil fields onto the stored record.
func (r *PatientRepository) Update(ctx context.Context, id int64, fields domain.PatientFields, at time.Time) (*domain.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc patientDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": setFields(fields, at)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (r *PatientRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

var _ ports.PatientRepository = (*PatientRepository)(nil)
