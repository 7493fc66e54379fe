// Command wardsim runs the Halvard General admission simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hansalabs/wardsim/internal/config"
)

const version = "0.2.0"

var (
	// Global flags
	cfgPath    string
	flagFacts  string
	flagDB     string
	flagListen string
	flagSteps  int
	flagSeed   int64
	flagNoDB   bool
	verbose    bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wardsim",
	Short: "wardsim - ontology-driven hospital admission simulation",
	Long: `wardsim admits a fixed number of patients to a simulated hospital and
resolves each one's care chain against a loaded fact set: the disease
names a treatment, the treatment names a doctor, the doctor names a
nurse, and the disease names a ward.

The fact set is immutable for the life of a run. Lookups that find no
fact report a sentinel and never stop the run; a fact set that fails to
load stops the program before the first admission.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		setupLogging(cfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "wardsim.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&flagFacts, "facts", "", "Fact set file (default: embedded fact set)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Admissions log database path")
	rootCmd.PersistentFlags().BoolVar(&flagNoDB, "no-db", false, "Disable the admissions log")
	rootCmd.PersistentFlags().IntVar(&flagSteps, "steps", 0, "Number of admission steps")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Run seed (0 = draw a fresh seed)")
	rootCmd.PersistentFlags().StringVar(&flagListen, "listen", "", "API listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// applyFlagOverrides lets explicit flags beat both the config file and
// environment overrides.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("facts") {
		cfg.Run.FactsPath = flagFacts
	}
	if f.Changed("db") {
		cfg.Storage.DatabasePath = flagDB
	}
	if f.Changed("no-db") {
		cfg.Storage.Disabled = flagNoDB
	}
	if f.Changed("steps") {
		cfg.Run.Steps = flagSteps
	}
	if f.Changed("seed") {
		cfg.Run.Seed = flagSeed
	}
	if f.Changed("listen") {
		cfg.API.ListenAddr = flagListen
	}
}

// setupLogging routes logs to stderr; stdout carries the admission
// report.
func setupLogging(cfg *config.Config) {
	level := cfg.LogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
