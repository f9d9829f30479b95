package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"casperdash/internal/models"

	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "deploys.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func record(hash, sender string, status models.DeployStatus, at time.Time) *models.DeployRecord {
	return &models.DeployRecord{
		DeployHash:   hash,
		ChainName:    "casper-test",
		ContractHash: "0a0a",
		EntryPoint:   "mint",
		Sender:       sender,
		PaymentMotes: "5000000000",
		Status:       status,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

func TestSQLiteRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, r.SaveDeploy(ctx, record("aa", "01ff", models.DeployPending, at)))

	got, err := r.GetDeploy(ctx, "aa")
	require.NoError(t, err)
	require.Equal(t, "mint", got.EntryPoint)
	require.Equal(t, "5000000000", got.PaymentMotes)
	require.Equal(t, models.DeployPending, got.Status)
	require.True(t, at.Equal(got.CreatedAt))

	_, err = r.GetDeploy(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	require.NoError(t, r.SaveDeploy(ctx, record("aa", "01ff", models.DeployPending, time.Now())))

	require.NoError(t, r.UpdateDeployStatus(ctx, models.DeployOutcome{
		DeployHash: "aa", Status: models.DeploySucceeded, BlockHash: "bb", Cost: "123",
	}))
	require.NoError(t, r.UpdateDeployStatus(ctx, models.DeployOutcome{
		DeployHash: "aa", Status: models.DeployFailed, ErrorMessage: "User error: 1",
	}))

	got, err := r.GetDeploy(ctx, "aa")
	require.NoError(t, err)
	require.Equal(t, models.DeployFailed, got.Status)
	require.Equal(t, "User error: 1", got.ErrorMessage)
	require.Equal(t, "bb", got.BlockHash)
	require.Equal(t, "123", got.Cost)

	err = r.UpdateDeployStatus(ctx, models.DeployOutcome{DeployHash: "zz", Status: models.DeployFailed})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRepository_SaveTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	at := time.Now()

	require.NoError(t, r.SaveDeploy(ctx, record("aa", "01ff", models.DeployRejected, at)))
	require.NoError(t, r.SaveDeploy(ctx, record("aa", "01ff", models.DeployPending, at)))

	all, err := r.ListDeploys(ctx, DeployFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, models.DeployPending, all[0].Status)
}

func TestSQLiteRepository_ListDeploys(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.SaveDeploy(ctx, record("a1", "alice", models.DeploySucceeded, base)))
	require.NoError(t, r.SaveDeploy(ctx, record("a2", "alice", models.DeployFailed, base.Add(time.Minute))))
	require.NoError(t, r.SaveDeploy(ctx, record("b1", "bob", models.DeploySucceeded, base.Add(2*time.Minute))))

	all, err := r.ListDeploys(ctx, DeployFilter{})
	require.NoError(t, err)
	require.Equal(t, []string{"b1", "a2", "a1"}, hashes(all))

	alice, err := r.ListDeploys(ctx, DeployFilter{Sender: "alice"})
	require.NoError(t, err)
	require.Equal(t, []string{"a2", "a1"}, hashes(alice))

	ok, err := r.ListDeploys(ctx, DeployFilter{Status: models.DeploySucceeded, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"b1"}, hashes(ok))

	page, err := r.ListDeploys(ctx, DeployFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"a1"}, hashes(page))
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "nested", "db.sqlite"))
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Ping(ctx))
	require.IsType(t, &SQLiteRepository{}, repo)

	_, err = Open(ctx, "")
	require.Error(t, err)
}

func hashes(records []*models.DeployRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.DeployHash
	}
	return out
}
