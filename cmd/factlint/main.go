// Command factlint checks a fact set for holes before it is used in a
// run: wheel diseases without a treatment or ward, treatments without a
// doctor, and doctors without a nurse all make admissions resolve to
// sentinels, which is usually a fact-file mistake rather than intent.
// It also flags assigned doctors absent from a roster of the configured
// size; the simulator itself never checks that.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hansalabs/wardsim/internal/config"
	"github.com/hansalabs/wardsim/internal/hospital"
	"github.com/hansalabs/wardsim/internal/ontology"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	cfgPath := flag.String("config", "wardsim.yaml", "config file supplying the disease wheel")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(2)
	}

	factsPath := cfg.Run.FactsPath
	if flag.NArg() > 0 {
		factsPath = flag.Arg(0)
	}

	kb, err := ontology.Load(factsPath)
	if err != nil {
		slog.Error("fact set load failed", "error", err)
		os.Exit(2)
	}

	roster := hospital.BuildRoster(cfg.Roster.Doctors, cfg.Roster.Nurses, cfg.Roster.Wards)
	problems := lint(kb, cfg.Run.DiseaseWheel, roster)
	for _, p := range problems {
		fmt.Println(p)
	}

	if len(problems) > 0 {
		fmt.Printf("%d problems in %s\n", len(problems), kb.Source())
		os.Exit(1)
	}
	fmt.Printf("%s: %d facts, no problems\n", kb.Source(), kb.FactCount())
}

// lint walks the resolution chain for every wheel disease and then
// checks the fact set itself for dangling links and for assigned
// doctors the roster does not carry.
func lint(kb *ontology.KB, wheel []string, roster *hospital.Roster) []string {
	var problems []string

	for _, disease := range wheel {
		t := kb.Resolve(ontology.RelTreatment, disease)
		if !t.Found {
			problems = append(problems, fmt.Sprintf("wheel disease %q has no treatment", disease))
		}
		if w := kb.Resolve(ontology.RelWard, disease); !w.Found {
			problems = append(problems, fmt.Sprintf("wheel disease %q has no ward", disease))
		}
	}

	onRoster := make(map[string]bool, len(roster.Doctors))
	for _, d := range roster.Doctors {
		onRoster[entityForm(d.Name)] = true
	}

	// Dangling links anywhere in the fact set, wheel or not. Objects
	// repeat across facts, so report each one once.
	seen := make(map[string]bool)
	for _, pair := range kb.Facts(ontology.RelTreatment) {
		if seen["t:"+pair.Object] {
			continue
		}
		seen["t:"+pair.Object] = true
		if doc := kb.Resolve(ontology.RelDoctor, pair.Object); !doc.Found {
			problems = append(problems, fmt.Sprintf("treatment %q has no doctor", pair.Object))
		}
	}
	for _, pair := range kb.Facts(ontology.RelDoctor) {
		if seen["d:"+pair.Object] {
			continue
		}
		seen["d:"+pair.Object] = true
		if n := kb.Resolve(ontology.RelNurse, pair.Object); !n.Found {
			problems = append(problems, fmt.Sprintf("doctor %q has no nurse", pair.Object))
		}
		if !onRoster[pair.Object] {
			problems = append(problems, fmt.Sprintf("doctor %q is not on the %d-doctor roster", pair.Object, len(roster.Doctors)))
		}
	}

	return problems
}

// entityForm lowers a roster display name to fact-set entity form:
// "Dr. Voss" -> dr_voss.
func entityForm(name string) string {
	s := strings.ToLower(strings.ReplaceAll(name, ".", ""))
	return strings.ReplaceAll(s, " ", "_")
}
