// Roster construction — the fixed staff and ward lists created once at
// startup, immutable thereafter.
package hospital

import (
	"fmt"
	"math/rand"
)

// Roster holds the fixed rosters for a run. Doctors take IDs 0..d-1,
// nurses the next n, wards the next w.
type Roster struct {
	Doctors []RosterEntry
	Nurses  []RosterEntry
	Wards   []RosterEntry
}

// OnCallDraw is one random roster pick per step. The draw is recorded
// for the run log and never applied to a patient; assignments come from
// the fact set.
type OnCallDraw struct {
	Doctor RosterEntry `json:"doctor"`
	Nurse  RosterEntry `json:"nurse"`
	Ward   RosterEntry `json:"ward"`
}

// BuildRoster creates the roster: doctors, then nurses, then wards,
// IDs assigned in that order starting at 0. Counts must be positive;
// config validation enforces that before this runs.
func BuildRoster(doctors, nurses, wards int) *Roster {
	r := &Roster{
		Doctors: make([]RosterEntry, 0, doctors),
		Nurses:  make([]RosterEntry, 0, nurses),
		Wards:   make([]RosterEntry, 0, wards),
	}

	id := AgentID(0)
	for i := 0; i < doctors; i++ {
		r.Doctors = append(r.Doctors, RosterEntry{
			ID:   id,
			Role: RoleDoctor,
			Name: "Dr. " + poolName(doctorNames, i),
		})
		id++
	}
	for i := 0; i < nurses; i++ {
		r.Nurses = append(r.Nurses, RosterEntry{
			ID:   id,
			Role: RoleNurse,
			Name: "Nurse " + poolName(nurseNames, i),
		})
		id++
	}
	for i := 0; i < wards; i++ {
		r.Wards = append(r.Wards, RosterEntry{
			ID:   id,
			Role: RoleWard,
			Name: poolName(wardNames, i),
		})
		id++
	}
	return r
}

// Size returns the total roster entity count. Patient IDs start here.
func (r *Roster) Size() int {
	return len(r.Doctors) + len(r.Nurses) + len(r.Wards)
}

// All returns every roster member in ID order.
func (r *Roster) All() []RosterEntry {
	all := make([]RosterEntry, 0, r.Size())
	all = append(all, r.Doctors...)
	all = append(all, r.Nurses...)
	all = append(all, r.Wards...)
	return all
}

// DrawOnCall picks one doctor, one nurse, and one ward uniformly at
// random, in that order, from the rng's stream.
func (r *Roster) DrawOnCall(rng *rand.Rand) OnCallDraw {
	return OnCallDraw{
		Doctor: r.Doctors[rng.Intn(len(r.Doctors))],
		Nurse:  r.Nurses[rng.Intn(len(r.Nurses))],
		Ward:   r.Wards[rng.Intn(len(r.Wards))],
	}
}

// poolName cycles a name pool, numbering repeats past the first pass.
func poolName(pool []string, i int) string {
	name := pool[i%len(pool)]
	if cycle := i / len(pool); cycle > 0 {
		name = fmt.Sprintf("%s %d", name, cycle+1)
	}
	return name
}

// Name pools for roster generation.
var doctorNames = []string{
	"Voss", "Holloway", "Mercer", "Ashford", "Caldwell", "Thatcher",
	"Blackwood", "Farrow", "Wyatt", "Harper", "Cross", "Ward",
}

var nurseNames = []string{
	"Astrid", "Petra", "Brenna", "Johanna", "Greta", "Helene",
	"Iris", "Dagny", "Cora", "Willa", "Senna", "Thea",
}

var wardNames = []string{
	"General Ward", "Respiratory Ward", "Orthopedic Ward",
	"Surgical Ward", "Recovery Ward", "Isolation Ward",
}
