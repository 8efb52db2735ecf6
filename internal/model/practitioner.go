package model

import (
	"github.com/google/uuid"
)

type Specialty string

const (
	SpecialtyGeneralist    Specialty = "GENERALIST"
	SpecialtyCardiology    Specialty = "CARDIOLOGY"
	SpecialtyDermatology   Specialty = "DERMATOLOGY"
	SpecialtyNeurology     Specialty = "NEUROLOGY"
	SpecialtyPediatrics    Specialty = "PEDIATRICS"
	SpecialtyGynecology    Specialty = "GYNECOLOGY"
	SpecialtyOphthalmology Specialty = "OPHTHALMOLOGY"
	SpecialtyENT           Specialty = "ENT"
	SpecialtyPsychiatry    Specialty = "PSYCHIATRY"
	SpecialtyRadiology     Specialty = "RADIOLOGY"
	SpecialtySurgery       Specialty = "SURGERY"
	SpecialtyAnesthesia    Specialty = "ANESTHESIA"
	SpecialtyDentistry     Specialty = "DENTISTRY"
)

// DefaultConsultationMinutes applies when a practitioner has no default of
// their own.
const DefaultConsultationMinutes = 30

// Practitioner is created at registration, outside the scheduling engine.
// Scheduling only reads it and toggles Active.
type Practitioner struct {
	Base
	FirstName              string    `db:"first_name" json:"first_name"`
	LastName               string    `db:"last_name" json:"last_name"`
	Specialty              Specialty `db:"specialty" json:"specialty"`
	Active                 bool      `db:"active" json:"active"`
	DefaultDurationMinutes int       `db:"default_duration_minutes" json:"default_duration_minutes"`
	Tariff                 *float64  `db:"tariff" json:"tariff,omitempty"`
}

func (p *Practitioner) DisplayName() string {
	return "Dr. " + p.FirstName + " " + p.LastName
}

// ConsultationMinutes returns the practitioner's default duration, falling
// back to DefaultConsultationMinutes.
func (p *Practitioner) ConsultationMinutes() int {
	if p.DefaultDurationMinutes > 0 {
		return p.DefaultDurationMinutes
	}
	return DefaultConsultationMinutes
}

// Patient is resolved through the identity lookup for display and
// notification purposes only.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email,omitempty"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
}

func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}
