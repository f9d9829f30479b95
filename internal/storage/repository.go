package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"casperdash/internal/models"
)

var ErrNotFound = errors.New("deploy not found")

// DeployFilter narrows ListDeploys. Zero values match everything.
type DeployFilter struct {
	Status models.DeployStatus
	Sender string
	Limit  int
	Offset int
}

const defaultListLimit = 50

func (f DeployFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 500 {
		return defaultListLimit
	}
	return f.Limit
}

// Repository defines the interface for all storage operations
type Repository interface {
	// Deploy records
	SaveDeploy(ctx context.Context, record *models.DeployRecord) error
	UpdateDeployStatus(ctx context.Context, outcome models.DeployOutcome) error
	GetDeploy(ctx context.Context, deployHash string) (*models.DeployRecord, error)
	ListDeploys(ctx context.Context, filter DeployFilter) ([]*models.DeployRecord, error)

	// Health & Maintenance
	Ping(ctx context.Context) error
	Close() error
}

// Open picks the backend from the URL scheme: postgres:// and postgresql://
// use PostgreSQL, anything else is a SQLite path (an optional "sqlite://"
// prefix is stripped).
func Open(ctx context.Context, databaseURL string) (Repository, error) {
	switch {
	case databaseURL == "":
		return nil, fmt.Errorf("empty database url")
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresRepository(ctx, databaseURL)
	default:
		return NewSQLiteRepository(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	}
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
)
