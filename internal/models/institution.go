package models

import "time"

// Institution is read-only reference data served by a separate origin. Field
// names follow that service's snake_case contract.
type Institution struct {
	InstitutionID    string     `json:"institution_id"`
	GroupID          string     `json:"group_id"`
	InstitutionName  string     `json:"institution_name"`
	CodeName         string     `json:"code_name"`
	InstitutionLogo  string     `json:"institution_logo"`
	ModularCode      string     `json:"modular_code"`
	InstitutionColor string     `json:"institution_color"`
	Address          string     `json:"address"`
	ContactEmail     string     `json:"contact_email"`
	ContactPhone     string     `json:"contact_phone"`
	Status           string     `json:"status"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}
