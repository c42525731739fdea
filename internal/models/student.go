package models

import "time"

// DocumentType identifies the kind of identity document a student carries.
type DocumentType string

const (
	// DocumentTypeDNI is the national identity card (exactly 8 digits).
	DocumentTypeDNI DocumentType = "DNI"
	// DocumentTypeCE is the foreign residency card (9 to 12 digits).
	DocumentTypeCE DocumentType = "CE"
)

// Gender codes used on the wire.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Student represents a learner registered with an institution. Students are
// never hard-deleted: Status flips to "I" and back.
type Student struct {
	ID             string       `db:"id" json:"id"`
	InstitutionID  string       `db:"institution_id" json:"institutionId"`
	FirstName      string       `db:"first_name" json:"firstName"`
	LastName       string       `db:"last_name" json:"lastName"`
	DocumentType   DocumentType `db:"document_type" json:"documentType"`
	DocumentNumber string       `db:"document_number" json:"documentNumber"`
	Gender         Gender       `db:"gender" json:"gender"`
	BirthDate      DateOnly     `db:"birth_date" json:"birthDate"`
	Address        string       `db:"address" json:"address"`
	Phone          string       `db:"phone" json:"phone"`
	Email          string       `db:"email" json:"email"`
	NameQR         string       `db:"name_qr" json:"nameQr"`
	Status         Status       `db:"status" json:"status"`
	CreatedAt      time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updatedAt"`
}

// DisplayName is the label shown in list rows.
func (s Student) DisplayName() string {
	return s.FirstName + " " + s.LastName
}

// QRLabel derives the scannable label embedded in the record. It must be
// recomputed from the current first name, last name and document number on
// every write or it goes stale.
func QRLabel(firstName, lastName, documentNumber string) string {
	return firstName + "_" + lastName + "_" + documentNumber
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	InstitutionID string
	Status        Status
	Gender        Gender
	DocumentType  DocumentType
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
