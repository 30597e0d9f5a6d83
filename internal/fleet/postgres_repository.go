package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/traininduction/traininduction/internal/scoring"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// Certificates are stored as an ordered JSONB array so that conflict
// reporting follows the order they were recorded in.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL fleet repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// certificateRow is the JSONB shape of one certificate.
type certificateRow struct {
	Category  string `json:"category"`
	ExpiresOn string `json:"expiresOn"`
}

const selectTrains = `
	SELECT
		id, set_size, certificates, job_cards, open_job_cards,
		advertiser, required_hours, completed_hours,
		current_mileage, target_mileage, last_cleaned,
		stabling_bay, in_maintenance_hold
	FROM trains
`

// List returns every train ordered by fleet position.
func (r *PostgresRepository) List(ctx context.Context) ([]scoring.TrainRecord, error) {
	rows, err := r.pool.Query(ctx, selectTrains+` ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trains []scoring.TrainRecord
	for rows.Next() {
		t, err := scanTrain(rows)
		if err != nil {
			return nil, err
		}
		trains = append(trains, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trains, nil
}

// Get retrieves a train by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*scoring.TrainRecord, error) {
	t, err := scanTrain(r.pool.QueryRow(ctx, selectTrains+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainNotFound
		}
		return nil, err
	}
	return t, nil
}

// scanTrain scans a train from a query result.
func scanTrain(row pgx.Row) (*scoring.TrainRecord, error) {
	var (
		t           scoring.TrainRecord
		certs       []certificateRow
		advertiser  *string
		required    *float64
		completed   *float64
		lastCleaned *time.Time
	)

	err := row.Scan(
		&t.ID,
		&t.SetSize,
		&certs,
		&t.JobCards,
		&t.OpenJobCards,
		&advertiser,
		&required,
		&completed,
		&t.CurrentMileage,
		&t.TargetMileage,
		&lastCleaned,
		&t.StablingBay,
		&t.InMaintenanceHold,
	)
	if err != nil {
		return nil, err
	}

	for _, c := range certs {
		// An unparseable stored date is kept as the zero Date; the engine
		// reports it as malformed for this train only.
		expires, _ := civil.ParseDate(c.ExpiresOn)
		t.Certificates = append(t.Certificates, scoring.Certificate{Category: c.Category, Expires: expires})
	}
	if advertiser != nil {
		t.Branding = &scoring.BrandingContract{Advertiser: *advertiser}
		if required != nil {
			t.Branding.RequiredHours = *required
		}
		if completed != nil {
			t.Branding.CompletedHours = *completed
		}
	}
	if lastCleaned != nil {
		t.LastCleaned = civil.DateOf(*lastCleaned)
	}

	return &t, nil
}

// Upsert creates or replaces a train.
func (r *PostgresRepository) Upsert(ctx context.Context, t *scoring.TrainRecord) error {
	certs := make([]certificateRow, 0, len(t.Certificates))
	for _, c := range t.Certificates {
		certs = append(certs, certificateRow{Category: c.Category, ExpiresOn: scoring.FormatDate(c.Expires)})
	}

	var (
		advertiser *string
		required   *float64
		completed  *float64
	)
	if t.Branding != nil {
		advertiser = &t.Branding.Advertiser
		required = &t.Branding.RequiredHours
		completed = &t.Branding.CompletedHours
	}

	var lastCleaned *time.Time
	if !t.LastCleaned.IsZero() {
		lc := t.LastCleaned.In(time.UTC)
		lastCleaned = &lc
	}

	jobCards := t.JobCards
	if jobCards == nil {
		jobCards = []string{}
	}

	query := `
		INSERT INTO trains (
			id, set_size, certificates, job_cards, open_job_cards,
			advertiser, required_hours, completed_hours,
			current_mileage, target_mileage, last_cleaned,
			stabling_bay, in_maintenance_hold, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (id) DO UPDATE SET
			set_size = EXCLUDED.set_size,
			certificates = EXCLUDED.certificates,
			job_cards = EXCLUDED.job_cards,
			open_job_cards = EXCLUDED.open_job_cards,
			advertiser = EXCLUDED.advertiser,
			required_hours = EXCLUDED.required_hours,
			completed_hours = EXCLUDED.completed_hours,
			current_mileage = EXCLUDED.current_mileage,
			target_mileage = EXCLUDED.target_mileage,
			last_cleaned = EXCLUDED.last_cleaned,
			stabling_bay = EXCLUDED.stabling_bay,
			in_maintenance_hold = EXCLUDED.in_maintenance_hold,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.SetSize,
		certs,
		jobCards,
		t.OpenJobCards,
		advertiser,
		required,
		completed,
		t.CurrentMileage,
		t.TargetMileage,
		lastCleaned,
		t.StablingBay,
		t.InMaintenanceHold,
	)
	if err != nil {
		return fmt.Errorf("upsert train %s: %w", t.ID, err)
	}
	return nil
}

// Ping verifies the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
