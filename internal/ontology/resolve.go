// Relation kinds and the typed lookup result.
// See design doc Section 3.
package ontology

import "fmt"

// Relation identifies one of the base links in the fact set.
type Relation uint8

const (
	RelTreatment Relation = iota // disease -> treatment
	RelDoctor                    // treatment -> doctor
	RelNurse                     // doctor -> nurse
	RelWard                      // disease -> ward
)

// Relations lists every base relation in resolution order.
var Relations = [...]Relation{RelTreatment, RelDoctor, RelNurse, RelWard}

// Predicate returns the fact-set predicate name for the relation.
func (r Relation) Predicate() string {
	switch r {
	case RelTreatment:
		return "has_treatment"
	case RelDoctor:
		return "assigned_to"
	case RelNurse:
		return "has_nurse"
	case RelWard:
		return "has_ward"
	default:
		return "unknown"
	}
}

// String returns the attribute noun the relation resolves to.
func (r Relation) String() string {
	switch r {
	case RelTreatment:
		return "treatment"
	case RelDoctor:
		return "doctor"
	case RelNurse:
		return "nurse"
	case RelWard:
		return "ward"
	default:
		return "unknown"
	}
}

func (r Relation) valid() bool {
	return r <= RelWard
}

// ParseRelation maps an attribute noun or a predicate name to its Relation.
func ParseRelation(s string) (Relation, bool) {
	switch s {
	case "treatment", "has_treatment":
		return RelTreatment, true
	case "doctor", "assigned_to":
		return RelDoctor, true
	case "nurse", "has_nurse":
		return RelNurse, true
	case "ward", "has_ward":
		return RelWard, true
	}
	return 0, false
}

// Resolution is the outcome of one lookup. Object is set only when Found.
// Err records why a lookup could not be performed at all (unknown
// relation, blank subject); absence of a matching fact leaves Err nil.
// Either way the caller reports the sentinel and continues — a Resolution
// never fails the run.
type Resolution struct {
	Relation Relation `json:"relation"`
	Subject  string   `json:"subject"`
	Object   string   `json:"object,omitempty"`
	Found    bool     `json:"found"`
	Err      error    `json:"-"`
}

// Sentinel returns the "not found" text for the relation.
func (r Resolution) Sentinel() string {
	return "no " + r.Relation.String() + " on record"
}

// String returns the resolved object name, or the sentinel when absent.
func (r Resolution) String() string {
	if r.Found {
		return r.Object
	}
	return r.Sentinel()
}

// Resolve returns the first object related to subject under rel. Multiple
// matching facts tie-break arbitrarily at load time; repeated calls on the
// same KB always return the same object. Absence and malformed input both
// come back as a not-found Resolution — Resolve never panics.
func (kb *KB) Resolve(rel Relation, subject string) Resolution {
	res := Resolution{Relation: rel, Subject: subject}
	if !rel.valid() {
		res.Err = fmt.Errorf("unknown relation %d", uint8(rel))
		return res
	}
	if subject == "" {
		res.Err = fmt.Errorf("blank subject for %s lookup", rel)
		return res
	}
	obj, ok := kb.index[indexKey{rel: rel, subject: subject}]
	if !ok {
		return res
	}
	res.Object = obj
	res.Found = true
	return res
}
