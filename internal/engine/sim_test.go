package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hansalabs/wardsim/internal/hospital"
	"github.com/hansalabs/wardsim/internal/ontology"
)

var testWheel = []string{"influenza", "pneumonia", "fracture", "migraine"}

func testKB(t *testing.T) *ontology.KB {
	t.Helper()
	kb, err := ontology.LoadSource("embedded", strings.NewReader(ontology.DefaultSource()))
	require.NoError(t, err)
	return kb
}

type recorder struct {
	steps     []int
	arrivals  []hospital.AgentID
	records   []hospital.AgentID
	summaries int
}

func (r *recorder) StepStart(step, total int)       { r.steps = append(r.steps, step) }
func (r *recorder) Arrival(p *hospital.Patient)     { r.arrivals = append(r.arrivals, p.ID) }
func (r *recorder) Record(p *hospital.Patient)      { r.records = append(r.records, p.ID) }
func (r *recorder) Summary(*Simulation)             { r.summaries++ }

func TestRunProducesExactlyNPatients(t *testing.T) {
	kb := testKB(t)
	roster := hospital.BuildRoster(3, 2, 2)

	sim := NewSimulation(kb, roster, testWheel, 3, 42, nil)
	sim.Run()

	require.Len(t, sim.Patients, 3)
	assert.Equal(t, 3, sim.Stats.Admitted)
	assert.Equal(t, 3, sim.LastStep)
	for _, p := range sim.Patients {
		assert.Contains(t, testWheel, p.Disease)
	}
}

func TestRunIDsStrictlyIncreasingFromRosterSize(t *testing.T) {
	kb := testKB(t)
	roster := hospital.BuildRoster(3, 2, 2)

	sim := NewSimulation(kb, roster, testWheel, 5, 7, nil)
	sim.Run()

	require.Len(t, sim.Patients, 5)
	assert.Equal(t, hospital.AgentID(7), sim.Patients[0].ID)
	for i := 1; i < len(sim.Patients); i++ {
		assert.Greater(t, sim.Patients[i].ID, sim.Patients[i-1].ID)
	}
	assert.Equal(t, sim.Patients[2], sim.PatientIndex[sim.Patients[2].ID])
}

func TestRunResolvesChain(t *testing.T) {
	kb := testKB(t)
	roster := hospital.BuildRoster(3, 2, 2)

	sim := NewSimulation(kb, roster, []string{"influenza"}, 3, 1, nil)
	sim.Run()

	for _, p := range sim.Patients {
		require.True(t, p.FullyResolved())
		assert.Equal(t, "antiviral_course", p.Treatment.Object)
		assert.Equal(t, "dr_voss", p.Doctor.Object)
		assert.Equal(t, "nurse_astrid", p.Nurse.Object)
		assert.Equal(t, "general_ward", p.Ward.Object)

		// Each attribute was resolved against the chain, not the roster.
		assert.Equal(t, p.Disease, p.Treatment.Subject)
		assert.Equal(t, p.Treatment.Object, p.Doctor.Subject)
		assert.Equal(t, p.Doctor.Object, p.Nurse.Subject)
		assert.Equal(t, p.Disease, p.Ward.Subject)
	}
	assert.Equal(t, 3, sim.Stats.ResolvedFull)
}

func TestRunUnknownDiseaseYieldsSentinels(t *testing.T) {
	kb := testKB(t)
	roster := hospital.BuildRoster(3, 2, 2)

	sim := NewSimulation(kb, roster, []string{"rabies"}, 4, 2, nil)
	sim.Run()

	for _, p := range sim.Patients {
		assert.False(t, p.Treatment.Found)
		assert.False(t, p.Doctor.Found)
		assert.False(t, p.Nurse.Found)
		assert.False(t, p.Ward.Found)
		assert.Equal(t, "no treatment on record", p.Treatment.String())
	}
	assert.Equal(t, 0, sim.Stats.ResolvedFull)
	assert.Equal(t, 4, sim.Stats.UnresolvedTreatment)
	assert.Equal(t, 4, sim.Stats.UnresolvedDoctor)
	assert.Equal(t, 4, sim.Stats.UnresolvedNurse)
	assert.Equal(t, 4, sim.Stats.UnresolvedWard)
}

func TestRunOnCallDrawIsInert(t *testing.T) {
	kb := testKB(t)
	roster := hospital.BuildRoster(3, 2, 2)

	sim := NewSimulation(kb, roster, []string{"pneumonia"}, 6, 9, nil)
	sim.Run()

	rosterNames := make(map[string]struct{})
	for _, e := range roster.All() {
		rosterNames[e.Name] = struct{}{}
	}

	oncall := 0
	for _, e := range sim.Events {
		if e.Category == "oncall" {
			oncall++
		}
	}
	assert.Equal(t, 6, oncall, "every step records its draw")

	// Assignments come from the fact set, never from the drawn roster
	// member: fact-set doctors are entity names, roster names are not.
	for _, p := range sim.Patients {
		assert.Equal(t, "dr_holloway", p.Doctor.Object)
		_, fromRoster := rosterNames[p.Doctor.Object]
		assert.False(t, fromRoster)
	}
}

func TestRunDeterministicUnderSeed(t *testing.T) {
	kb := testKB(t)

	a := NewSimulation(kb, hospital.BuildRoster(3, 2, 2), testWheel, 10, 123, nil)
	b := NewSimulation(kb, hospital.BuildRoster(3, 2, 2), testWheel, 10, 123, nil)
	a.Run()
	b.Run()

	require.Len(t, b.Patients, len(a.Patients))
	for i := range a.Patients {
		assert.Equal(t, a.Patients[i].Disease, b.Patients[i].Disease)
		assert.Equal(t, a.Patients[i].ID, b.Patients[i].ID)
	}

	require.Len(t, b.Events, len(a.Events))
	for i := range a.Events {
		assert.Equal(t, a.Events[i], b.Events[i])
	}
}

func TestRunReporterSequence(t *testing.T) {
	kb := testKB(t)
	rec := &recorder{}

	sim := NewSimulation(kb, hospital.BuildRoster(3, 2, 2), testWheel, 3, 5, rec)
	sim.Run()

	assert.Equal(t, []int{1, 2, 3}, rec.steps)
	assert.Equal(t, []hospital.AgentID{7, 8, 9}, rec.arrivals)
	assert.Equal(t, rec.arrivals, rec.records)
	assert.Equal(t, 1, rec.summaries)
	assert.False(t, sim.StartedAt.IsZero())
	assert.False(t, sim.FinishedAt.IsZero())
	assert.GreaterOrEqual(t, sim.Elapsed(), time.Duration(0))
}

func TestRunZeroSteps(t *testing.T) {
	kb := testKB(t)

	sim := NewSimulation(kb, hospital.BuildRoster(3, 2, 2), testWheel, 0, 1, nil)
	sim.Run()

	assert.Empty(t, sim.Patients)
	assert.Equal(t, 0, sim.Stats.Admitted)
	assert.Equal(t, 0, sim.LastStep)
}
