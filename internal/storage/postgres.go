package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"casperdash/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS deploys (
		deploy_hash   TEXT PRIMARY KEY,
		chain_name    TEXT NOT NULL,
		contract_hash TEXT NOT NULL DEFAULT '',
		entry_point   TEXT NOT NULL,
		sender        TEXT NOT NULL,
		payment_motes NUMERIC(78, 0),
		cost          NUMERIC(78, 0),
		status        TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		block_hash    TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS deploys_sender_idx ON deploys (sender, created_at DESC);
	CREATE INDEX IF NOT EXISTS deploys_status_idx ON deploys (status);
`

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}
	if err := r.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// EnsureSchema creates the deploys table when missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveDeploy inserts a deploy record, replacing the status of an existing one
func (r *PostgresRepository) SaveDeploy(ctx context.Context, rec *models.DeployRecord) error {
	query := `
		INSERT INTO deploys (
			deploy_hash, chain_name, contract_hash, entry_point, sender,
			payment_motes, cost, status, error_message, block_hash,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::NUMERIC, NULLIF($7, '')::NUMERIC, $8, $9, $10, $11, $12)
		ON CONFLICT (deploy_hash) DO UPDATE SET
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		rec.DeployHash,
		rec.ChainName,
		rec.ContractHash,
		rec.EntryPoint,
		rec.Sender,
		rec.PaymentMotes,
		rec.Cost,
		string(rec.Status),
		rec.ErrorMessage,
		rec.BlockHash,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save deploy: %w", err)
	}
	return nil
}

// UpdateDeployStatus records a status change observed by the poller
func (r *PostgresRepository) UpdateDeployStatus(ctx context.Context, o models.DeployOutcome) error {
	query := `
		UPDATE deploys SET
			status = $2,
			error_message = $3,
			block_hash = COALESCE(NULLIF($4, ''), block_hash),
			cost = COALESCE(NULLIF($5, '')::NUMERIC, cost),
			updated_at = $6
		WHERE deploy_hash = $1
	`

	tag, err := r.pool.Exec(ctx, query, o.DeployHash, string(o.Status), o.ErrorMessage, o.BlockHash, o.Cost, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update deploy status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, o.DeployHash)
	}
	return nil
}

const postgresSelect = `
	SELECT
		deploy_hash, chain_name, contract_hash, entry_point, sender,
		COALESCE(payment_motes::TEXT, ''), COALESCE(cost::TEXT, ''),
		status, error_message, block_hash, created_at, updated_at
	FROM deploys
`

// GetDeploy retrieves a deploy record by hash
func (r *PostgresRepository) GetDeploy(ctx context.Context, deployHash string) (*models.DeployRecord, error) {
	rec, err := scanDeploy(r.pool.QueryRow(ctx, postgresSelect+` WHERE deploy_hash = $1`, deployHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, deployHash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deploy: %w", err)
	}
	return rec, nil
}

// ListDeploys lists deploy records, newest first
func (r *PostgresRepository) ListDeploys(ctx context.Context, f DeployFilter) ([]*models.DeployRecord, error) {
	query := postgresSelect + `
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR sender = $2)
		ORDER BY created_at DESC, deploy_hash
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, string(f.Status), f.Sender, f.limit(), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list deploys: %w", err)
	}
	defer rows.Close()

	var records []*models.DeployRecord
	for rows.Next() {
		rec, err := scanDeploy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deploy: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deploys: %w", err)
	}
	return records, nil
}

// Ping checks if the database connection is alive
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	slog.Info("Closing database connection pool")
	r.pool.Close()
	return nil
}

// row is satisfied by pgx.Row, pgx.Rows and *sql.Row, *sql.Rows
type row interface {
	Scan(dest ...any) error
}

func scanDeploy(s row) (*models.DeployRecord, error) {
	var rec models.DeployRecord
	var status string
	err := s.Scan(
		&rec.DeployHash,
		&rec.ChainName,
		&rec.ContractHash,
		&rec.EntryPoint,
		&rec.Sender,
		&rec.PaymentMotes,
		&rec.Cost,
		&status,
		&rec.ErrorMessage,
		&rec.BlockHash,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = models.DeployStatus(status)
	return &rec, nil
}
