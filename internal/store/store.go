// Package store archives completed runs in SQLite so they can be listed and
// reloaded without recomputing.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/exotransit/chordgrid/internal/timeutil"
	"github.com/exotransit/chordgrid/internal/transit"
)

// timeFormat is fixed-width so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store is a run archive backed by a SQLite database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// RunRecord is the stored summary of one run.
type RunRecord struct {
	ID                 string
	Name               string
	CreatedAt          time.Time
	Nesting            string
	Shape              transit.Shape
	MaxDecreasePercent float64
	MinDecreasePercent float64
	TauPhaseIndex      *int
}

// Open opens (creating if needed) the archive at path and migrates it to the
// latest schema. A nil clock uses the real clock.
func Open(path string, clock timeutil.Clock) (*Store, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &Store{db: db, clock: clock}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// connectionPragmas are applied by the driver to every pooled connection.
var connectionPragmas = []string{
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"journal_mode(WAL)",
}

// dsn builds the modernc DSN for path with connectionPragmas attached.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range connectionPragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores the summary and light curve of res under a new run ID.
func (s *Store) SaveRun(ctx context.Context, name string, res *transit.Result) (RunRecord, error) {
	if res == nil || res.Reduction == nil || res.Reduction.LightCurve == nil {
		return RunRecord{}, fmt.Errorf("save run: result is empty")
	}
	sum := res.Summary()
	rec := RunRecord{
		ID:                 uuid.NewString(),
		Name:               name,
		CreatedAt:          s.clock.Now().UTC(),
		Nesting:            transit.GridNesting,
		Shape:              res.Shape,
		MaxDecreasePercent: sum.MaxDecreasePercent,
		MinDecreasePercent: sum.MinDecreasePercent,
	}
	if res.Reduction.Tau != nil {
		idx := res.Reduction.Tau.PhaseIndex
		rec.TauPhaseIndex = &idx
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RunRecord{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, name, created_at, nesting, phase_count, rho_count, phi_count,
			wavelength_count, max_decrease_pct, min_decrease_pct, tau_phase_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.CreatedAt.Format(timeFormat), rec.Nesting,
		rec.Shape.PhaseCount, rec.Shape.RhoCount, rec.Shape.PhiCount, rec.Shape.WavelengthCount,
		rec.MaxDecreasePercent, rec.MinDecreasePercent, nullableInt(rec.TauPhaseIndex))
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lightcurve (run_id, phase_index, wavelength_index, orbphase_rad, wavelength_cm, value, benchmark)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return RunRecord{}, err
	}
	defer stmt.Close()

	lc, bench := res.Reduction.LightCurve, res.Reduction.Benchmark
	for p := 0; p < lc.PhaseCount; p++ {
		for w := 0; w < lc.WavelengthCount; w++ {
			var b sql.NullFloat64
			if bench != nil {
				b = sql.NullFloat64{Float64: bench.At(p, w), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, rec.ID, p, w,
				res.Axes.Orbphase.At(p), res.Axes.Wavelength.At(w), lc.At(p, w), b); err != nil {
				return RunRecord{}, fmt.Errorf("insert light curve (%d, %d): %w", p, w, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

const runColumns = `run_id, name, created_at, nesting, phase_count, rho_count, phi_count,
	wavelength_count, max_decrease_pct, min_decrease_pct, tau_phase_index`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		rec     RunRecord
		created string
		tau     sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.Name, &created, &rec.Nesting,
		&rec.Shape.PhaseCount, &rec.Shape.RhoCount, &rec.Shape.PhiCount, &rec.Shape.WavelengthCount,
		&rec.MaxDecreasePercent, &rec.MinDecreasePercent, &tau)
	if err != nil {
		return RunRecord{}, err
	}
	rec.CreatedAt, err = time.Parse(timeFormat, created)
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s: bad created_at %q: %w", rec.ID, created, err)
	}
	if tau.Valid {
		idx := int(tau.Int64)
		rec.TauPhaseIndex = &idx
	}
	return rec, nil
}

// ListRuns returns every stored run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetRun returns one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	rec, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return rec, err
}

// LoadLightCurve rebuilds the stored light curve of a run, and its benchmark
// when one was stored.
func (s *Store) LoadLightCurve(ctx context.Context, id string) (lc, bench *transit.LightCurve, err error) {
	rec, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	phases, wavelengths := rec.Shape.PhaseCount, rec.Shape.WavelengthCount
	lc = &transit.LightCurve{PhaseCount: phases, WavelengthCount: wavelengths, Values: make([]float64, phases*wavelengths)}
	benchValues := make([]float64, phases*wavelengths)
	hasBench := false

	rows, err := s.db.QueryContext(ctx, `
		SELECT phase_index, wavelength_index, value, benchmark
		FROM lightcurve WHERE run_id = ?`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var (
			p, w int
			v    float64
			b    sql.NullFloat64
		)
		if err := rows.Scan(&p, &w, &v, &b); err != nil {
			return nil, nil, err
		}
		if p < 0 || p >= phases || w < 0 || w >= wavelengths {
			return nil, nil, fmt.Errorf("run %s: light-curve cell (%d, %d) outside %dx%d", id, p, w, phases, wavelengths)
		}
		lc.Values[p*wavelengths+w] = v
		if b.Valid {
			benchValues[p*wavelengths+w] = b.Float64
			hasBench = true
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if n != phases*wavelengths {
		return nil, nil, &transit.ShapeMismatchError{What: "stored light curve", Want: phases * wavelengths, Got: n}
	}
	if hasBench {
		bench = &transit.LightCurve{PhaseCount: phases, WavelengthCount: wavelengths, Values: benchValues}
	}
	return lc, bench, nil
}

// DeleteRun removes a run and its light curve.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lightcurve WHERE run_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return tx.Commit()
}
