// Package persistence provides SQLite-based admissions log storage.
// See design doc Section 6.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/hansalabs/wardsim/internal/engine"
	"github.com/hansalabs/wardsim/internal/hospital"
)

// DB wraps a SQLite connection for the admissions log.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		facility TEXT NOT NULL,
		seed INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		admitted INTEGER NOT NULL,
		resolved_full INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS admissions (
		run_id TEXT NOT NULL,
		patient_id INTEGER NOT NULL,
		mrn TEXT NOT NULL,
		disease TEXT NOT NULL,
		treatment TEXT NOT NULL,
		doctor TEXT NOT NULL,
		nurse TEXT NOT NULL,
		ward TEXT NOT NULL,
		step INTEGER NOT NULL,
		admitted_at TEXT NOT NULL,
		PRIMARY KEY (run_id, patient_id)
	);

	CREATE TABLE IF NOT EXISTS run_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ward_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_admissions_run ON admissions(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunRow is a stored run summary.
type RunRow struct {
	RunID        string `db:"run_id" json:"run_id"`
	Facility     string `db:"facility" json:"facility"`
	Seed         int64  `db:"seed" json:"seed"`
	Steps        int    `db:"steps" json:"steps"`
	Admitted     int    `db:"admitted" json:"admitted"`
	ResolvedFull int    `db:"resolved_full" json:"resolved_full"`
	StartedAt    string `db:"started_at" json:"started_at"`
	FinishedAt   string `db:"finished_at" json:"finished_at"`
}

// AdmissionRow is a stored admission record. Unresolved attributes are
// stored as empty strings.
type AdmissionRow struct {
	RunID      string `db:"run_id" json:"run_id"`
	PatientID  uint64 `db:"patient_id" json:"patient_id"`
	MRN        string `db:"mrn" json:"mrn"`
	Disease    string `db:"disease" json:"disease"`
	Treatment  string `db:"treatment" json:"treatment"`
	Doctor     string `db:"doctor" json:"doctor"`
	Nurse      string `db:"nurse" json:"nurse"`
	Ward       string `db:"ward" json:"ward"`
	Step       int    `db:"step" json:"step"`
	AdmittedAt string `db:"admitted_at" json:"admitted_at"`
}

// SaveRunSummary upserts the run summary row.
func (db *DB) SaveRunSummary(row RunRow) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO runs
		(run_id, facility, seed, steps, admitted, resolved_full, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Facility, row.Seed, row.Steps,
		row.Admitted, row.ResolvedFull, row.StartedAt, row.FinishedAt,
	)
	return err
}

// SaveAdmissions writes a run's admission records (full replace for the run).
func (db *DB) SaveAdmissions(runID string, patients []*hospital.Patient) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM admissions WHERE run_id = ?", runID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO admissions
		(run_id, patient_id, mrn, disease, treatment, doctor, nurse, ward, step, admitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range patients {
		_, err := stmt.Exec(
			runID, p.ID, p.MRN, p.Disease,
			p.Treatment.Object, p.Doctor.Object, p.Nurse.Object, p.Ward.Object,
			p.AdmittedStep, p.AdmittedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert admission %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// SaveRunEvents writes a run's event log (full replace for the run).
func (db *DB) SaveRunEvents(runID string, events []engine.Event) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM run_events WHERE run_id = ?", runID); err != nil {
		return err
	}

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO run_events (run_id, step, description, category) VALUES (?, ?, ?, ?)",
			runID, e.Step, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveMeta stores a key-value pair in ward metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO ward_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM ward_meta WHERE key = ?", key)
	return value, err
}

// SaveRun performs a full save of a completed run.
func (db *DB) SaveRun(sim *engine.Simulation, facility string) error {
	slog.Info("saving run", "run_id", sim.RunID, "admissions", len(sim.Patients))

	row := RunRow{
		RunID:        sim.RunID,
		Facility:     facility,
		Seed:         sim.Seed,
		Steps:        sim.Steps,
		Admitted:     sim.Stats.Admitted,
		ResolvedFull: sim.Stats.ResolvedFull,
		StartedAt:    sim.StartedAt.Format(time.RFC3339),
		FinishedAt:   sim.FinishedAt.Format(time.RFC3339),
	}
	if err := db.SaveRunSummary(row); err != nil {
		return fmt.Errorf("save run summary: %w", err)
	}
	if err := db.SaveAdmissions(sim.RunID, sim.Patients); err != nil {
		return fmt.Errorf("save admissions: %w", err)
	}
	if err := db.SaveRunEvents(sim.RunID, sim.Events); err != nil {
		return fmt.Errorf("save run events: %w", err)
	}
	if err := db.SaveMeta("last_run_id", sim.RunID); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Info("run saved")
	return nil
}

// RecentRuns returns the most recent N run summaries.
func (db *DB) RecentRuns(limit int) ([]RunRow, error) {
	var rows []RunRow
	err := db.conn.Select(&rows,
		"SELECT * FROM runs ORDER BY started_at DESC, run_id LIMIT ?",
		limit,
	)
	return rows, err
}

// AdmissionsForRun returns a run's admission records in admission order.
func (db *DB) AdmissionsForRun(runID string) ([]AdmissionRow, error) {
	var rows []AdmissionRow
	err := db.conn.Select(&rows,
		"SELECT * FROM admissions WHERE run_id = ? ORDER BY patient_id",
		runID,
	)
	return rows, err
}
