package model

import "time"

// Role identifies which kind of principal a session is bound to.
type Role int

const (
	RoleNone Role = iota
	RoleCaregiver
	RolePatient
)

func (r Role) String() string {
	switch r {
	case RoleCaregiver:
		return "caregiver"
	case RolePatient:
		return "patient"
	}
	return "none"
}

// Session is the acting principal for the current interaction. It is an
// explicit value passed into every engine call; at most one principal is
// bound at a time.
type Session struct {
	Role     Role
	Username string
}

func (s Session) Active() bool { return s.Role != RoleNone }

type Patient struct {
	Username string
	Salt     []byte
	Hash     []byte
}

type Caregiver struct {
	Username string
	Salt     []byte
	Hash     []byte
}

type Vaccine struct {
	Name  string
	Doses int
}

// Availability is a (date, caregiver) slot; its existence means the
// caregiver is bookable that day.
type Availability struct {
	Date              time.Time
	CaregiverUsername string
}

type Appointment struct {
	ID                int
	CaregiverUsername string
	VaccineName       string
	Date              time.Time
	PatientUsername   string
}
