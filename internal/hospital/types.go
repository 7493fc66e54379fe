// Package hospital provides the patient and roster data model.
// See design doc Section 4.
package hospital

import (
	"time"

	"github.com/hansalabs/wardsim/internal/ontology"
)

// AgentID is the shared identifier space for roster entities and
// patients. The roster claims IDs 0..size-1 at init; patient IDs
// continue from roster size, strictly increasing.
type AgentID uint64

// Role distinguishes roster entities. Wards share the roster space with
// staff so every assignable entity has one ID.
type Role uint8

const (
	RoleDoctor Role = iota
	RoleNurse
	RoleWard
)

// String returns the lowercase role noun.
func (r Role) String() string {
	switch r {
	case RoleDoctor:
		return "doctor"
	case RoleNurse:
		return "nurse"
	case RoleWard:
		return "ward"
	default:
		return "unknown"
	}
}

// RosterEntry is one immutable roster member, created at init.
type RosterEntry struct {
	ID   AgentID `json:"id"`
	Role Role    `json:"role"`
	Name string  `json:"name"`
}

// Patient is one admitted patient and the outcome of its single
// admission step. The four attribute fields are written exactly once,
// during admission; each carries either a resolved entity name or the
// not-found sentinel through its Resolution.
type Patient struct {
	ID      AgentID `json:"id"`
	MRN     string  `json:"mrn"` // Medical record number, assigned at admission.
	Disease string  `json:"disease"`

	Treatment ontology.Resolution `json:"treatment"`
	Doctor    ontology.Resolution `json:"doctor"`
	Nurse     ontology.Resolution `json:"nurse"`
	Ward      ontology.Resolution `json:"ward"`

	AdmittedStep int       `json:"admitted_step"`
	AdmittedAt   time.Time `json:"admitted_at"`
}

// FullyResolved reports whether all four attributes resolved to names.
func (p *Patient) FullyResolved() bool {
	return p.Treatment.Found && p.Doctor.Found && p.Nurse.Found && p.Ward.Found
}
