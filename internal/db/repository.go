package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// InsertRun persists a run summary and returns its id.
func (r *Repository) InsertRun(ctx context.Context, run Run) (uuid.UUID, error) {
	id := run.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO runs (id, workflow, model_name, ci_label, pue, window_width_ms,
		                   energy, energy_pue, memory_energy, memory_energy_pue,
		                   emissions, water_footprint, land_footprint, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		id, run.Workflow, run.ModelName, run.CILabel, run.PUE, run.WindowWidthMS,
		run.Energy, run.EnergyPUE, run.MemoryEnergy, run.MemoryEnergyPUE,
		run.Emissions, run.WaterFootprint, run.LandFootprint, time.Now().UTC())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// InsertTaskFootprints persists the merged per-task records of a run.
func (r *Repository) InsertTaskFootprints(ctx context.Context, runID uuid.UUID, records []TaskFootprint) error {
	for _, rec := range records {
		_, err := r.db.Exec(ctx,
			`INSERT INTO task_footprints (run_id, task_id, name, start_ms, end_ms,
			                              cpu_count, avg_cpu_usage, memory, hostname,
			                              energy, average_co2e, avg_ci, water, land)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			runID, rec.TaskID, rec.Name, rec.Start, rec.End,
			rec.CPUCount, rec.AvgCPUUsage, rec.Memory, rec.Hostname,
			rec.Energy, rec.AverageCO2e, rec.AvgCI, rec.Water, rec.Land)
		if err != nil {
			return fmt.Errorf("failed to insert task footprint %s: %w", rec.TaskID, err)
		}
	}
	return nil
}

// InsertHostStatic persists the per-host static energy map of a run.
func (r *Repository) InsertHostStatic(ctx context.Context, runID uuid.UUID, static map[string]float64) error {
	for host, energy := range static {
		_, err := r.db.Exec(ctx,
			`INSERT INTO host_static_energy (run_id, hostname, energy)
			 VALUES ($1, $2, $3)`,
			runID, host, energy)
		if err != nil {
			return fmt.Errorf("failed to insert static energy for host %s: %w", host, err)
		}
	}
	return nil
}

// QueryRuns lists persisted run summaries, newest first.
func (r *Repository) QueryRuns(ctx context.Context, workflow string, start, end time.Time, limit, offset int) ([]Run, int, error) {
	query := `
		SELECT id, workflow, model_name, ci_label, pue, window_width_ms,
		       energy, energy_pue, memory_energy, memory_energy_pue,
		       emissions, water_footprint, land_footprint, created_at
		FROM runs
		WHERE created_at BETWEEN $1 AND $2`
	args := []interface{}{start, end}
	if workflow != "" {
		query += fmt.Sprintf(" AND workflow = $%d", len(args)+1)
		args = append(args, workflow)
	}
	countQuery := "SELECT COUNT(*) FROM (" + query + ") q"

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID, &run.Workflow, &run.ModelName, &run.CILabel, &run.PUE, &run.WindowWidthMS,
			&run.Energy, &run.EnergyPUE, &run.MemoryEnergy, &run.MemoryEnergyPUE,
			&run.Emissions, &run.WaterFootprint, &run.LandFootprint, &run.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, total, nil
}

// QueryTaskFootprints lists the merged per-task records of one run.
func (r *Repository) QueryTaskFootprints(ctx context.Context, runID uuid.UUID, limit, offset int) ([]TaskFootprint, int, error) {
	var total int
	if err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM task_footprints WHERE run_id = $1", runID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count task footprints: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT run_id, task_id, name, start_ms, end_ms, cpu_count, avg_cpu_usage,
		        memory, hostname, energy, average_co2e, avg_ci, water, land
		 FROM task_footprints
		 WHERE run_id = $1
		 ORDER BY average_co2e DESC
		 LIMIT $2 OFFSET $3`,
		runID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query task footprints: %w", err)
	}
	defer rows.Close()

	var records []TaskFootprint
	for rows.Next() {
		var rec TaskFootprint
		if err := rows.Scan(
			&rec.RunID, &rec.TaskID, &rec.Name, &rec.Start, &rec.End,
			&rec.CPUCount, &rec.AvgCPUUsage, &rec.Memory, &rec.Hostname,
			&rec.Energy, &rec.AverageCO2e, &rec.AvgCI, &rec.Water, &rec.Land,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan task footprint row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return records, total, nil
}
