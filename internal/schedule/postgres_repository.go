package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traininduction/traininduction/internal/scoring"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL schedule repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectEntries = `
	SELECT
		id, train_id, station, route, service_date, service_time,
		score, breakdown, conflicts, recommendation, status, created_at
	FROM schedules
`

// Create stores a new entry.
func (r *PostgresRepository) Create(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO schedules (
			id, train_id, station, route, service_date, service_time,
			score, breakdown, conflicts, recommendation, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	conflicts := e.Conflicts
	if conflicts == nil {
		conflicts = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.TrainID,
		e.Station,
		e.Route,
		e.Date.In(time.UTC),
		e.Time,
		e.Score,
		e.Breakdown,
		conflicts,
		e.Recommendation.Code(),
		string(e.Status),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule %s: %w", e.ID, err)
	}
	return nil
}

// Get retrieves an entry by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Entry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx, selectEntries+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return e, nil
}

// List returns entries in creation order.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]*Entry, error) {
	var (
		where []string
		args  []any
	)
	if opts.TrainID != "" {
		args = append(args, opts.TrainID)
		where = append(where, fmt.Sprintf("train_id = $%d", len(args)))
	}
	if !opts.Date.IsZero() {
		args = append(args, opts.Date.In(time.UTC))
		where = append(where, fmt.Sprintf("service_date = $%d", len(args)))
	}

	query := selectEntries
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// scanEntry scans an entry from a query result.
func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		e           Entry
		serviceDate time.Time
		recCode     string
		status      string
	)

	err := row.Scan(
		&e.ID,
		&e.TrainID,
		&e.Station,
		&e.Route,
		&serviceDate,
		&e.Time,
		&e.Score,
		&e.Breakdown,
		&e.Conflicts,
		&recCode,
		&status,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Date = civil.DateOf(serviceDate)
	e.Status = Status(status)
	rec, err := scoring.ParseRecommendation(recCode)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", e.ID, err)
	}
	e.Recommendation = rec

	return &e, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
