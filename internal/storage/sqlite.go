package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"casperdash/internal/models"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS deploys (
		deploy_hash   TEXT PRIMARY KEY,
		chain_name    TEXT NOT NULL,
		contract_hash TEXT NOT NULL DEFAULT '',
		entry_point   TEXT NOT NULL,
		sender        TEXT NOT NULL,
		payment_motes TEXT NOT NULL DEFAULT '',
		cost          TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		block_hash    TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS deploys_sender_idx ON deploys (sender, created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS deploys_status_idx ON deploys (status);`,
}

// SQLiteRepository implements the Repository interface on a local SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (and creates) the database at path. ":memory:"
// gives a private in-memory database.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	r := &SQLiteRepository{db: db}
	if err := r.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// EnsureSchema applies pragmas and creates the deploys table when missing
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	stmts := append([]string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}, sqliteSchema...)
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) SaveDeploy(ctx context.Context, rec *models.DeployRecord) error {
	query := `
		INSERT INTO deploys (
			deploy_hash, chain_name, contract_hash, entry_point, sender,
			payment_motes, cost, status, error_message, block_hash,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (deploy_hash) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
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
		rec.CreatedAt.UTC().Format(timeLayout),
		rec.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save deploy: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateDeployStatus(ctx context.Context, o models.DeployOutcome) error {
	query := `
		UPDATE deploys SET
			status = ?,
			error_message = ?,
			block_hash = CASE WHEN ? = '' THEN block_hash ELSE ? END,
			cost = CASE WHEN ? = '' THEN cost ELSE ? END,
			updated_at = ?
		WHERE deploy_hash = ?
	`

	res, err := r.db.ExecContext(ctx, query,
		string(o.Status),
		o.ErrorMessage,
		o.BlockHash, o.BlockHash,
		o.Cost, o.Cost,
		time.Now().UTC().Format(timeLayout),
		o.DeployHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update deploy status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update deploy status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, o.DeployHash)
	}
	return nil
}

const sqliteSelect = `
	SELECT
		deploy_hash, chain_name, contract_hash, entry_point, sender,
		payment_motes, cost, status, error_message, block_hash,
		created_at, updated_at
	FROM deploys
`

func (r *SQLiteRepository) GetDeploy(ctx context.Context, deployHash string) (*models.DeployRecord, error) {
	rec, err := scanSQLiteDeploy(r.db.QueryRowContext(ctx, sqliteSelect+` WHERE deploy_hash = ?`, deployHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, deployHash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deploy: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListDeploys(ctx context.Context, f DeployFilter) ([]*models.DeployRecord, error) {
	query := sqliteSelect + `
		WHERE (?1 = '' OR status = ?1) AND (?2 = '' OR sender = ?2)
		ORDER BY created_at DESC, deploy_hash
		LIMIT ?3 OFFSET ?4
	`

	rows, err := r.db.QueryContext(ctx, query, string(f.Status), f.Sender, f.limit(), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list deploys: %w", err)
	}
	defer rows.Close()

	var records []*models.DeployRecord
	for rows.Next() {
		rec, err := scanSQLiteDeploy(rows)
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

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanSQLiteDeploy(s row) (*models.DeployRecord, error) {
	var rec models.DeployRecord
	var status, created, updated string
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
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = models.DeployStatus(status)
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	return &rec, nil
}
