// Package report renders a run as line-oriented text.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hansalabs/wardsim/internal/engine"
	"github.com/hansalabs/wardsim/internal/hospital"
	"github.com/hansalabs/wardsim/internal/ontology"
)

// Console writes the admission report to w as the run unfolds. It
// implements engine.Reporter.
type Console struct {
	w io.Writer
}

// NewConsole returns a reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// StepStart prints the step banner.
func (c *Console) StepStart(step, total int) {
	fmt.Fprintf(c.w, "\n=== Step %d ===\n", step)
}

// Arrival prints the admission line.
func (c *Console) Arrival(p *hospital.Patient) {
	fmt.Fprintf(c.w, "New Patient %d arrives with disease: %s\n", p.ID, displayName(p.Disease))
}

// Record prints the patient's resolved care record. Unresolved
// attributes print their sentinel text.
func (c *Console) Record(p *hospital.Patient) {
	fmt.Fprintf(c.w, "Patient %d treated for %s:\n", p.ID, displayName(p.Disease))
	fmt.Fprintf(c.w, "  - Treatment: %s\n", attribute(p.Treatment))
	fmt.Fprintf(c.w, "  - Doctor: %s\n", attribute(p.Doctor))
	fmt.Fprintf(c.w, "  - Nurse: %s\n", attribute(p.Nurse))
	fmt.Fprintf(c.w, "  - Ward: %s\n", attribute(p.Ward))
}

// Summary prints the run totals.
func (c *Console) Summary(sim *engine.Simulation) {
	unresolved := sim.Stats.UnresolvedTreatment + sim.Stats.UnresolvedDoctor +
		sim.Stats.UnresolvedNurse + sim.Stats.UnresolvedWard

	fmt.Fprintf(c.w, "\n--- Run complete ---\n")
	fmt.Fprintf(c.w, "Admitted: %s patients (%s fully resolved)\n",
		humanize.Comma(int64(sim.Stats.Admitted)),
		humanize.Comma(int64(sim.Stats.ResolvedFull)),
	)
	fmt.Fprintf(c.w, "Unresolved lookups: %s\n", humanize.Comma(int64(unresolved)))
	fmt.Fprintf(c.w, "Fact set: %s (%s facts)\n",
		sim.KB.Source(), humanize.Comma(int64(sim.KB.FactCount())))
	fmt.Fprintf(c.w, "Elapsed: %s\n", sim.Elapsed().Round(time.Microsecond))
}

func attribute(res ontology.Resolution) string {
	if !res.Found {
		return res.Sentinel()
	}
	return displayName(res.Object)
}

// displayName turns an entity name into report text: underscores become
// spaces and each word is capitalized. Raw entity names stay raw in the
// API and the admissions log.
func displayName(entity string) string {
	words := strings.Split(entity, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
