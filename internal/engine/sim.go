// Package engine provides the fixed-count admission loop.
// See design doc Section 5.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/hansalabs/wardsim/internal/hospital"
	"github.com/hansalabs/wardsim/internal/ontology"
)

// Reporter receives human-readable progress as a run unfolds. The
// console reporter implements it; tests substitute a recorder.
type Reporter interface {
	StepStart(step, total int)
	Arrival(p *hospital.Patient)
	Record(p *hospital.Patient)
	Summary(sim *Simulation)
}

// Event is a notable occurrence in a run.
type Event struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
	Category    string `json:"category"` // "admission", "oncall", "unresolved"
}

// SimStats tracks aggregate run statistics.
type SimStats struct {
	Admitted            int `json:"admitted"`
	ResolvedFull        int `json:"resolved_full"` // All four attributes resolved.
	UnresolvedTreatment int `json:"unresolved_treatment"`
	UnresolvedDoctor    int `json:"unresolved_doctor"`
	UnresolvedNurse     int `json:"unresolved_nurse"`
	UnresolvedWard      int `json:"unresolved_ward"`
}

// Simulation holds one run's state and wires the systems together. The
// loop is single-threaded and fully sequential; after Run returns, the
// state is never written again and is safe for concurrent reads.
type Simulation struct {
	KB     *ontology.KB
	Roster *hospital.Roster

	Patients     []*hospital.Patient
	PatientIndex map[hospital.AgentID]*hospital.Patient
	Events       []Event
	Stats        SimStats

	RunID    string
	Seed     int64
	Steps    int
	LastStep int

	StartedAt  time.Time
	FinishedAt time.Time

	admitter *hospital.Admitter
	rng      *rand.Rand
	reporter Reporter
}

// NewSimulation builds a run over an immutable KB and roster. The wheel
// is the fixed disease set sampled each step; seed drives every random
// draw; rep may be nil for a silent run.
func NewSimulation(kb *ontology.KB, roster *hospital.Roster, wheel []string, steps int, seed int64, rep Reporter) *Simulation {
	if rep == nil {
		rep = noopReporter{}
	}
	rng := rand.New(rand.NewSource(seed))
	return &Simulation{
		KB:           kb,
		Roster:       roster,
		PatientIndex: make(map[hospital.AgentID]*hospital.Patient),
		RunID:        uuid.NewString(),
		Seed:         seed,
		Steps:        steps,
		admitter:     hospital.NewAdmitter(rng, hospital.AgentID(roster.Size()), wheel),
		rng:          rng,
		reporter:     rep,
	}
}

// Run executes the configured number of steps sequentially, then
// reports the summary. No state carries between steps except the
// patient ID counter.
func (s *Simulation) Run() {
	s.StartedAt = time.Now().UTC()
	slog.Info("run started",
		"run_id", s.RunID,
		"steps", s.Steps,
		"seed", s.Seed,
		"roster", s.Roster.Size(),
		"fact_source", s.KB.Source(),
	)

	for step := 1; step <= s.Steps; step++ {
		s.step(step)
	}

	s.FinishedAt = time.Now().UTC()
	slog.Info("run complete",
		"run_id", s.RunID,
		"admitted", s.Stats.Admitted,
		"resolved_full", s.Stats.ResolvedFull,
		"unresolved_treatment", s.Stats.UnresolvedTreatment,
		"unresolved_doctor", s.Stats.UnresolvedDoctor,
		"unresolved_nurse", s.Stats.UnresolvedNurse,
		"unresolved_ward", s.Stats.UnresolvedWard,
		"elapsed", s.Elapsed(),
	)
	s.reporter.Summary(s)
}

// Elapsed returns the wall time the run took.
func (s *Simulation) Elapsed() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// step admits one patient, draws the on-call roster, resolves the four
// attributes, and records the outcome.
func (s *Simulation) step(step int) {
	s.LastStep = step
	s.reporter.StepStart(step, s.Steps)

	p := s.admitter.Admit(step)
	s.reporter.Arrival(p)
	s.Events = append(s.Events, Event{
		Step:        step,
		Description: fmt.Sprintf("patient %d admitted with %s", p.ID, p.Disease),
		Category:    "admission",
	})

	// On-call draw: recorded for the log, never applied. The patient's
	// actual assignments come from the fact set below.
	draw := s.Roster.DrawOnCall(s.rng)
	s.Events = append(s.Events, Event{
		Step:        step,
		Description: fmt.Sprintf("on call: %s, %s, %s", draw.Doctor.Name, draw.Nurse.Name, draw.Ward.Name),
		Category:    "oncall",
	})
	slog.Debug("on-call draw",
		"step", step,
		"doctor", draw.Doctor.Name,
		"nurse", draw.Nurse.Name,
		"ward", draw.Ward.Name,
	)

	// Attribute resolution: disease -> treatment -> doctor -> nurse,
	// plus disease -> ward. Set once, never retried.
	p.Treatment = s.KB.Resolve(ontology.RelTreatment, p.Disease)
	p.Doctor = s.KB.Resolve(ontology.RelDoctor, p.Treatment.Object)
	p.Nurse = s.KB.Resolve(ontology.RelNurse, p.Doctor.Object)
	p.Ward = s.KB.Resolve(ontology.RelWard, p.Disease)
	s.noteUnresolved(step, p)

	s.Patients = append(s.Patients, p)
	s.PatientIndex[p.ID] = p
	s.Stats.Admitted++
	if p.FullyResolved() {
		s.Stats.ResolvedFull++
	}

	s.reporter.Record(p)
}

func (s *Simulation) noteUnresolved(step int, p *hospital.Patient) {
	for _, res := range []ontology.Resolution{p.Treatment, p.Doctor, p.Nurse, p.Ward} {
		if res.Found {
			continue
		}
		switch res.Relation {
		case ontology.RelTreatment:
			s.Stats.UnresolvedTreatment++
		case ontology.RelDoctor:
			s.Stats.UnresolvedDoctor++
		case ontology.RelNurse:
			s.Stats.UnresolvedNurse++
		case ontology.RelWard:
			s.Stats.UnresolvedWard++
		}
		s.Events = append(s.Events, Event{
			Step:        step,
			Description: fmt.Sprintf("patient %d: %s", p.ID, res.Sentinel()),
			Category:    "unresolved",
		})
		slog.Warn("lookup unresolved",
			"step", step,
			"patient", p.ID,
			"relation", res.Relation.String(),
			"subject", res.Subject,
		)
	}
}

type noopReporter struct{}

func (noopReporter) StepStart(int, int)        {}
func (noopReporter) Arrival(*hospital.Patient) {}
func (noopReporter) Record(*hospital.Patient)  {}
func (noopReporter) Summary(*Simulation)       {}
