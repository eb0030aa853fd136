package stubapi

import (
	"fmt"
	"time"

	"clinic/internal/common/security"
	"clinic/internal/domain/model"

	"github.com/google/uuid"
)

// Demo accounts created by Seed. Password for both is DemoPassword.
const (
	DemoReceptionist = "reception"
	DemoDoctor       = "drjohnson"
	DemoPassword     = "password"
)

type seedPatient struct {
	name      string
	age       int
	gender    model.Gender
	address   string
	phone     string
	notes     string
	createdAt string
	updatedAt string
}

var demoPatients = []seedPatient{
	{"John Smith", 45, model.GenderMale, "123 Main St, Anytown, CA 12345", "(555) 123-4567",
		"Patient has a history of hypertension. Regular check-ups recommended every 3 months.",
		"2023-01-15T09:30:00Z", "2023-03-20T14:15:00Z"},
	{"Sarah Johnson", 32, model.GenderFemale, "456 Oak Ave, Somewhere, NY 67890", "(555) 987-6543",
		"Patient is allergic to penicillin. Has asthma that is well-controlled with current medication.",
		"2023-02-10T11:45:00Z", "2023-04-05T10:20:00Z"},
	{"Michael Brown", 58, model.GenderMale, "789 Pine Rd, Elsewhere, TX 54321", "(555) 456-7890",
		"Patient has type 2 diabetes. Needs regular monitoring of blood glucose levels.",
		"2023-01-20T13:15:00Z", "2023-03-25T16:30:00Z"},
	{"Emily Davis", 27, model.GenderFemale, "321 Maple Dr, Nowhere, FL 98765", "(555) 789-0123",
		"Patient has mild anxiety. Responds well to current treatment plan.",
		"2023-02-25T10:00:00Z", "2023-04-10T09:45:00Z"},
	{"Robert Wilson", 63, model.GenderMale, "654 Cedar Ln, Anywhere, WA 13579", "(555) 321-6540",
		"Patient recovering from knee replacement surgery. Physical therapy ongoing.",
		"2023-01-05T15:30:00Z", "2023-03-15T11:20:00Z"},
}

// Seed adds two demo accounts and a handful of patients.
func Seed(store *Store) error {
	hashed, err := security.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("stubapi.Seed: %w", err)
	}
	reception, err := store.CreateUser(DemoReceptionist, hashed, model.RoleReceptionist)
	if err != nil {
		return fmt.Errorf("stubapi.Seed: %w", err)
	}
	doctor, err := store.CreateUser(DemoDoctor, hashed, model.RoleDoctor)
	if err != nil {
		return fmt.Errorf("stubapi.Seed: %w", err)
	}

	for _, sp := range demoPatients {
		created, err := time.Parse(time.RFC3339, sp.createdAt)
		if err != nil {
			return fmt.Errorf("stubapi.Seed: %w", err)
		}
		updated, err := time.Parse(time.RFC3339, sp.updatedAt)
		if err != nil {
			return fmt.Errorf("stubapi.Seed: %w", err)
		}
		store.insertPatient(model.Patient{
			ID:           uuid.NewString(),
			Name:         sp.name,
			Age:          sp.age,
			Gender:       sp.gender,
			Address:      sp.address,
			Phone:        sp.phone,
			MedicalNotes: sp.notes,
			CreatedAt:    model.NewTimestamp(created),
			UpdatedAt:    model.NewTimestamp(updated),
		}, reception.ID, doctor.ID)
	}
	return nil
}
