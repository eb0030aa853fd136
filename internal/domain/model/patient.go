package model

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

type Patient struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Gender       Gender    `json:"gender"`
	Address      string    `json:"address,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	MedicalNotes string    `json:"medicalNotes"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
}

type PatientDetail struct {
	Patient
	CreatedBy User `json:"createdBy"`
	UpdatedBy User `json:"updatedBy"`
}

// AddPatientRequest excludes server-assigned fields; medical notes are not
// settable at creation.
type AddPatientRequest struct {
	Name    string `json:"name" validate:"required,min=3,max=50"`
	Age     int    `json:"age" validate:"required,min=1,max=120"`
	Gender  Gender `json:"gender" validate:"required,oneof=Male Female"`
	Address string `json:"address,omitempty" validate:"max=200"`
	Phone   string `json:"phone,omitempty" validate:"max=30"`
}

type AddPatientResponse struct {
	ID        string    `json:"id"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt Timestamp `json:"createdAt"`
}

// UpdatePatientRequest is a partial update: nil fields are left untouched
// server-side.
type UpdatePatientRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=3,max=50"`
	Age          *int    `json:"age,omitempty" validate:"omitempty,min=1,max=120"`
	Gender       *Gender `json:"gender,omitempty" validate:"omitempty,oneof=Male Female"`
	Address      *string `json:"address,omitempty" validate:"omitempty,max=200"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	MedicalNotes *string `json:"medicalNotes,omitempty"`
}

func (r UpdatePatientRequest) Empty() bool {
	return r.Name == nil && r.Age == nil && r.Gender == nil &&
		r.Address == nil && r.Phone == nil && r.MedicalNotes == nil
}

type UpdatePatientNotesRequest struct {
	MedicalNotes string `json:"medicalNotes"`
}

type UpdatePatientResponse struct {
	ID        string    `json:"id"`
	UpdatedBy string    `json:"updatedBy"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

type DeletePatientResponse struct {
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
