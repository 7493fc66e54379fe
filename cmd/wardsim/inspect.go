package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hansalabs/wardsim/internal/ontology"
	"github.com/hansalabs/wardsim/internal/persistence"
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Load the fact set and print its contents",
	Run:   showFacts,
}

var (
	factsWrite string

	historyRun   string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the admissions log",
	Run:   showHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the wardsim version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wardsim %s\n", version)
	},
}

func init() {
	factsCmd.Flags().StringVar(&factsWrite, "write", "", "Write the embedded default fact set to a file and exit")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show admissions for a specific run ID")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
}

func showFacts(cmd *cobra.Command, args []string) {
	// --write dumps the embedded default as a starting point for a
	// custom fact file.
	if factsWrite != "" {
		if err := os.WriteFile(factsWrite, []byte(ontology.DefaultSource()), 0644); err != nil {
			slog.Error("fact set write failed", "error", err, "path", factsWrite)
			os.Exit(1)
		}
		fmt.Printf("Wrote embedded fact set to %s\n", factsWrite)
		return
	}

	kb, err := ontology.Load(cfg.Run.FactsPath)
	if err != nil {
		slog.Error("fact set load failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Fact set: %s (%d facts)\n", kb.Source(), kb.FactCount())
	for _, rel := range ontology.Relations {
		pairs := kb.Facts(rel)
		fmt.Printf("\n%s (%d):\n", rel.Predicate(), len(pairs))
		for _, p := range pairs {
			fmt.Printf("  %s -> %s\n", p.Subject, p.Object)
		}
	}

	teams := kb.CareTeams()
	fmt.Printf("\ncare_team (%d derived):\n", len(teams))
	for _, ct := range teams {
		fmt.Printf("  %s: %s with %s\n", ct.Disease, ct.Doctor, ct.Nurse)
	}
}

func showHistory(cmd *cobra.Command, args []string) {
	if cfg.Storage.Disabled {
		fmt.Println("Admissions log disabled.")
		return
	}

	db, err := persistence.Open(cfg.Storage.DatabasePath)
	if err != nil {
		slog.Error("failed to open admissions log", "error", err, "path", cfg.Storage.DatabasePath)
		os.Exit(1)
	}
	defer db.Close()

	if historyRun != "" {
		showRunAdmissions(db, historyRun)
		return
	}

	if last, err := db.GetMeta("last_run_id"); err == nil {
		fmt.Printf("Last run: %s\n\n", last)
	}

	runs, err := db.RecentRuns(historyLimit)
	if err != nil {
		slog.Error("failed to query runs", "error", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	for _, r := range runs {
		started := r.StartedAt
		if ts, err := time.Parse(time.RFC3339, r.StartedAt); err == nil {
			started = humanize.Time(ts)
		}
		fmt.Printf("%s  %s  seed=%d steps=%d admitted=%d resolved=%d\n",
			r.RunID, started, r.Seed, r.Steps, r.Admitted, r.ResolvedFull)
	}
}

func showRunAdmissions(db *persistence.DB, runID string) {
	rows, err := db.AdmissionsForRun(runID)
	if err != nil {
		slog.Error("failed to query admissions", "error", err, "run_id", runID)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Printf("No admissions recorded for run %s.\n", runID)
		return
	}

	for _, a := range rows {
		fmt.Printf("patient %d  step %d  %s -> %s / %s / %s / %s\n",
			a.PatientID, a.Step, a.Disease,
			orDash(a.Treatment), orDash(a.Doctor), orDash(a.Nurse), orDash(a.Ward))
	}
}

// orDash substitutes a dash for attributes that never resolved.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
