// Patient admission — issues identifiers, draws diseases, stamps record
// numbers.
package hospital

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Admitter creates patients for a run. It shares the run RNG with the
// engine so seeded runs replay the same stream, and owns the monotonic
// patient ID counter.
type Admitter struct {
	rng    *rand.Rand
	nextID AgentID
	wheel  []string
}

// NewAdmitter creates an admitter issuing IDs from firstID upward.
// The wheel is the fixed disease set sampled uniformly per admission
// and must be non-empty.
func NewAdmitter(rng *rand.Rand, firstID AgentID, wheel []string) *Admitter {
	return &Admitter{
		rng:    rng,
		nextID: firstID,
		wheel:  append([]string(nil), wheel...),
	}
}

// NextID returns the ID the next admission will receive.
func (a *Admitter) NextID() AgentID {
	return a.nextID
}

// Admit creates one patient with a disease drawn uniformly from the
// wheel. The attribute fields are left for the engine to set, once,
// during the same step.
func (a *Admitter) Admit(step int) *Patient {
	id := a.nextID
	a.nextID++

	return &Patient{
		ID:           id,
		MRN:          uuid.NewString(),
		Disease:      a.wheel[a.rng.Intn(len(a.wheel))],
		AdmittedStep: step,
		AdmittedAt:   time.Now().UTC(),
	}
}
