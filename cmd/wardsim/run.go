package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hansalabs/wardsim/internal/api"
	"github.com/hansalabs/wardsim/internal/engine"
	"github.com/hansalabs/wardsim/internal/entropy"
	"github.com/hansalabs/wardsim/internal/hospital"
	"github.com/hansalabs/wardsim/internal/ontology"
	"github.com/hansalabs/wardsim/internal/persistence"
	"github.com/hansalabs/wardsim/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the admission loop and print the report",
	Run:   runSimulation,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admission loop, then serve the results over HTTP",
	Run:   runServe,
}

func runSimulation(cmd *cobra.Command, args []string) {
	sim := buildAndRun()

	if db := openStorage(); db != nil {
		defer db.Close()
		if err := db.SaveRun(sim, cfg.Facility); err != nil {
			slog.Error("admissions log save failed", "error", err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) {
	sim := buildAndRun()

	db := openStorage()
	if db != nil {
		defer db.Close()
		if err := db.SaveRun(sim, cfg.Facility); err != nil {
			slog.Error("admissions log save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	srv := &api.Server{Sim: sim, DB: db, Facility: cfg.Facility, Addr: cfg.API.ListenAddr}
	srv.Start()

	fmt.Printf("\n%s: run %s complete, %d patients admitted.\n",
		cfg.Facility, sim.RunID, sim.Stats.Admitted)
	fmt.Printf("API: http://localhost%s/api/v1/status\n", cfg.API.ListenAddr)
	fmt.Println("Serving results... (Ctrl+C to stop)")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}

// buildAndRun loads the fact set, assembles the run, and executes it.
// A fact set that fails to load is fatal before any patient is
// admitted.
func buildAndRun() *engine.Simulation {
	// ── Fact set ──────────────────────────────────────────────────────
	kb, err := ontology.Load(cfg.Run.FactsPath)
	if err != nil {
		slog.Error("fact set load failed", "error", err)
		os.Exit(1)
	}
	slog.Info("fact set loaded", "source", kb.Source(), "facts", kb.FactCount())

	// ── Seed ──────────────────────────────────────────────────────────
	seed := cfg.Run.Seed
	if seed == 0 {
		seed = entropy.NewClient(os.Getenv("WARDSIM_RANDOM_ORG_KEY")).Seed()
		slog.Info("fresh seed drawn", "seed", seed)
	}

	// ── Roster ────────────────────────────────────────────────────────
	roster := hospital.BuildRoster(cfg.Roster.Doctors, cfg.Roster.Nurses, cfg.Roster.Wards)
	slog.Info("roster built",
		"doctors", cfg.Roster.Doctors,
		"nurses", cfg.Roster.Nurses,
		"wards", cfg.Roster.Wards,
	)

	sim := engine.NewSimulation(kb, roster, cfg.Run.DiseaseWheel, cfg.Run.Steps, seed,
		report.NewConsole(os.Stdout))
	sim.Run()
	return sim
}

// openStorage opens the admissions log, or returns nil when disabled.
func openStorage() *persistence.DB {
	if cfg.Storage.Disabled {
		slog.Info("admissions log disabled")
		return nil
	}

	if dir := filepath.Dir(cfg.Storage.DatabasePath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.Storage.DatabasePath)
	if err != nil {
		slog.Error("failed to open admissions log", "error", err, "path", cfg.Storage.DatabasePath)
		os.Exit(1)
	}
	slog.Info("admissions log opened", "path", cfg.Storage.DatabasePath)
	return db
}
