// Package ontology loads the hospital fact set and resolves the
// relations that drive admission decisions.
// See design doc Sections 2 and 3.
package ontology

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// derivedFactLimit caps rule evaluation so a malformed fact file cannot
// run away during load.
const derivedFactLimit = 100000

//go:embed hospital.mg
var defaultSource string

// DefaultSource returns the fact set compiled into the binary.
func DefaultSource() string {
	return defaultSource
}

// KB is the immutable fact set backing all lookups. Built once by Load;
// safe for unsynchronized concurrent reads afterward.
type KB struct {
	source    string
	factCount int
	index     map[indexKey]string
	store     factstore.FactStore
	careTeams []CareTeam
	diseases  []string
}

type indexKey struct {
	rel     Relation
	subject string
}

// CareTeam is one derived care_team(Disease, Doctor, Nurse) row. Rows
// exist only where the full treatment chain resolves.
type CareTeam struct {
	Disease string `json:"disease"`
	Doctor  string `json:"doctor"`
	Nurse   string `json:"nurse"`
}

// FactPair is one base-relation fact in entity form.
type FactPair struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
}

// Load reads and evaluates the fact-set file at path. An empty path loads
// the embedded default through the same pipeline. Any read, parse,
// analysis, or evaluation failure comes back as an error; callers treat
// that as fatal before the first simulation step.
func Load(path string) (*KB, error) {
	if path == "" {
		return LoadSource("embedded", strings.NewReader(defaultSource))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fact set: %w", err)
	}
	defer f.Close()
	return LoadSource(path, f)
}

// LoadSource parses and evaluates a fact set read from r. The name is
// used for error messages and KB.Source only.
func LoadSource(name string, r io.Reader) (*KB, error) {
	unit, err := parse.Unit(r)
	if err != nil {
		return nil, fmt.Errorf("parse fact set %s: %w", name, err)
	}

	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze fact set %s: %w", name, err)
	}

	store := factstore.NewSimpleInMemoryStore()
	stats, err := engine.EvalProgramWithStats(info, store,
		engine.WithCreatedFactLimit(derivedFactLimit))
	if err != nil {
		return nil, fmt.Errorf("evaluate fact set %s: %w", name, err)
	}

	kb := &KB{
		source: name,
		store:  store,
		index:  make(map[indexKey]string),
	}
	kb.buildIndex()
	kb.collectCareTeams()
	kb.collectDiseases()
	kb.factCount = store.EstimateFactCount()

	slog.Debug("fact set loaded",
		"source", name,
		"facts", kb.factCount,
		"diseases", len(kb.diseases),
		"strata", len(stats.Strata),
	)
	return kb, nil
}

// Source returns the path the KB was loaded from, or "embedded".
func (kb *KB) Source() string {
	return kb.source
}

// FactCount returns the number of stored facts, derived rows included.
func (kb *KB) FactCount() int {
	return kb.factCount
}

// Diseases returns every disease appearing as a subject of has_treatment
// or has_ward, sorted.
func (kb *KB) Diseases() []string {
	return append([]string(nil), kb.diseases...)
}

// CareTeams returns all derived care-team rows, sorted by disease.
func (kb *KB) CareTeams() []CareTeam {
	return append([]CareTeam(nil), kb.careTeams...)
}

// CareTeamFor returns the first derived care team for a disease.
func (kb *KB) CareTeamFor(disease string) (CareTeam, bool) {
	for _, ct := range kb.careTeams {
		if ct.Disease == disease {
			return ct, true
		}
	}
	return CareTeam{}, false
}

// Facts returns every base fact of the relation, sorted by subject.
func (kb *KB) Facts(rel Relation) []FactPair {
	pred := ast.PredicateSym{Symbol: rel.Predicate(), Arity: 2}
	var pairs []FactPair
	kb.store.GetFacts(ast.NewQuery(pred), func(a ast.Atom) error {
		if len(a.Args) != 2 {
			return nil
		}
		pairs = append(pairs, FactPair{
			Subject: entityName(a.Args[0]),
			Object:  entityName(a.Args[1]),
		})
		return nil
	})
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Subject != pairs[j].Subject {
			return pairs[i].Subject < pairs[j].Subject
		}
		return pairs[i].Object < pairs[j].Object
	})
	return pairs
}

// buildIndex walks the evaluated store once and keeps the first object
// seen per (relation, subject). All later lookups hit this map only.
func (kb *KB) buildIndex() {
	for _, rel := range Relations {
		pred := ast.PredicateSym{Symbol: rel.Predicate(), Arity: 2}
		kb.store.GetFacts(ast.NewQuery(pred), func(a ast.Atom) error {
			if len(a.Args) != 2 {
				return nil
			}
			key := indexKey{rel: rel, subject: entityName(a.Args[0])}
			if _, dup := kb.index[key]; !dup {
				kb.index[key] = entityName(a.Args[1])
			}
			return nil
		})
	}
}

func (kb *KB) collectCareTeams() {
	pred := ast.PredicateSym{Symbol: "care_team", Arity: 3}
	kb.store.GetFacts(ast.NewQuery(pred), func(a ast.Atom) error {
		if len(a.Args) != 3 {
			return nil
		}
		kb.careTeams = append(kb.careTeams, CareTeam{
			Disease: entityName(a.Args[0]),
			Doctor:  entityName(a.Args[1]),
			Nurse:   entityName(a.Args[2]),
		})
		return nil
	})
	sort.Slice(kb.careTeams, func(i, j int) bool {
		if kb.careTeams[i].Disease != kb.careTeams[j].Disease {
			return kb.careTeams[i].Disease < kb.careTeams[j].Disease
		}
		return kb.careTeams[i].Doctor < kb.careTeams[j].Doctor
	})
}

func (kb *KB) collectDiseases() {
	seen := make(map[string]struct{})
	for key := range kb.index {
		if key.rel == RelTreatment || key.rel == RelWard {
			seen[key.subject] = struct{}{}
		}
	}
	kb.diseases = make([]string, 0, len(seen))
	for d := range seen {
		kb.diseases = append(kb.diseases, d)
	}
	sort.Strings(kb.diseases)
}

// entityName converts a fact argument to plain entity form: name
// constants drop the leading slash, strings pass through unchanged.
func entityName(term ast.BaseTerm) string {
	c, ok := term.(ast.Constant)
	if !ok {
		return term.String()
	}
	switch c.Type {
	case ast.NameType:
		return strings.TrimPrefix(c.Symbol, "/")
	case ast.StringType:
		return c.Symbol
	case ast.NumberType:
		return strconv.FormatInt(c.NumValue, 10)
	default:
		return c.String()
	}
}
