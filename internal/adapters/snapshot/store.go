package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/repositories"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/clients/postgres"
	redisclient "github.com/zatekoja/Medicalqueryreview/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Medicalqueryreview/internal/infrastructure/clients/sqlite"
	"github.com/zatekoja/Medicalqueryreview/pkg/config"
)

// ErrNoHistory is returned by History on backends that keep only the latest snapshot
var ErrNoHistory = errors.New("snapshot backend keeps no history")

// Store is an opened snapshot backend together with the connections it owns
type Store struct {
	repositories.SnapshotRepository
	backend string
	sql     *SQLAdapter
	closers []func() error
}

// Open connects the backend named by cfg.Snapshot.Backend
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	store := &Store{backend: cfg.Snapshot.Backend}

	switch cfg.Snapshot.Backend {
	case config.SnapshotBackendFile:
		store.SnapshotRepository = NewFileAdapter(cfg.Snapshot.FilePath)

	case config.SnapshotBackendRedis:
		client, err := redisclient.NewClient(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, client.Close)
		store.SnapshotRepository = NewRedisAdapter(client, cfg.Snapshot.RedisKey)

	case config.SnapshotBackendPostgres:
		client, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, client.Close)
		if err := store.useSQL(ctx, client.DB(), DialectPostgres, cfg.Snapshot.Retain); err != nil {
			store.Close()
			return nil, err
		}

	case config.SnapshotBackendSQLite:
		client, err := sqlite.NewClient(&cfg.SQLite)
		if err != nil {
			return nil, err
		}
		store.closers = append(store.closers, client.Close)
		if err := store.useSQL(ctx, client.DB(), DialectSQLite, cfg.Snapshot.Retain); err != nil {
			store.Close()
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}

	return store, nil
}

func (s *Store) useSQL(ctx context.Context, conn *sql.DB, dialect string, retain int) error {
	adapter, err := NewSQLAdapter(conn, dialect, retain)
	if err != nil {
		return err
	}
	if err := adapter.EnsureSchema(ctx); err != nil {
		return err
	}
	s.sql = adapter
	s.SnapshotRepository = adapter
	return nil
}

// Backend names the configured backend
func (s *Store) Backend() string {
	return s.backend
}

// History lists stored snapshots, newest first. Only SQL backends keep history.
func (s *Store) History(ctx context.Context) ([]SnapshotRow, error) {
	if s.sql == nil {
		return nil, ErrNoHistory
	}
	return s.sql.History(ctx)
}

// Close releases every connection the store opened
func (s *Store) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
