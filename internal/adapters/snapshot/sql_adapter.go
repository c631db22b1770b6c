package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
)

const snapshotTable = "state_snapshots"

// SQL dialects supported by SQLAdapter
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

var schemas = map[string]string{
	DialectPostgres: `CREATE TABLE IF NOT EXISTS state_snapshots (
	id BIGSERIAL PRIMARY KEY,
	version INTEGER NOT NULL,
	taken_at TIMESTAMPTZ NOT NULL,
	payload TEXT NOT NULL
)`,
	DialectSQLite: `CREATE TABLE IF NOT EXISTS state_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version INTEGER NOT NULL,
	taken_at TIMESTAMP NOT NULL,
	payload TEXT NOT NULL
)`,
}

// SQLAdapter keeps a bounded history of snapshots in a SQL table.
// Load always returns the newest row.
type SQLAdapter struct {
	conn    *sql.DB
	db      *goqu.Database
	dialect string
	retain  int
}

// NewSQLAdapter creates a snapshot store over conn. retain bounds the number of rows kept;
// values below 1 keep only the latest snapshot.
func NewSQLAdapter(conn *sql.DB, dialect string, retain int) (*SQLAdapter, error) {
	if _, ok := schemas[dialect]; !ok {
		return nil, fmt.Errorf("unsupported snapshot dialect %q", dialect)
	}
	if retain < 1 {
		retain = 1
	}
	return &SQLAdapter{
		conn:    conn,
		db:      goqu.New(dialect, conn),
		dialect: dialect,
		retain:  retain,
	}, nil
}

// EnsureSchema creates the snapshot table when it does not exist
func (a *SQLAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.conn.ExecContext(ctx, schemas[a.dialect]); err != nil {
		return apperrors.NewInternalError("failed to create snapshot table", err)
	}
	return nil
}

// Save inserts the snapshot and prunes rows beyond the retention limit in one transaction
func (a *SQLAdapter) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	if snapshot == nil {
		return apperrors.NewInternalError("snapshot is nil", fmt.Errorf("snapshot is nil"))
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return apperrors.NewInternalError("failed to encode snapshot", err)
	}

	insertQuery, args, err := a.db.Insert(snapshotTable).Rows(goqu.Record{
		"version":  snapshot.Version,
		"taken_at": snapshot.TakenAt.UTC(),
		"payload":  string(payload),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build snapshot insert query", err)
	}

	keep := a.db.From(snapshotTable).
		Select("id").
		Order(goqu.C("id").Desc()).
		Limit(uint(a.retain))
	pruneQuery, pruneArgs, err := a.db.Delete(snapshotTable).
		Where(goqu.C("id").NotIn(keep)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build snapshot prune query", err)
	}

	tx, err := a.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to begin snapshot transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
		return apperrors.NewInternalError("failed to insert snapshot", err)
	}
	if _, err := tx.ExecContext(ctx, pruneQuery, pruneArgs...); err != nil {
		return apperrors.NewInternalError("failed to prune old snapshots", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit snapshot", err)
	}
	return nil
}

// Load returns the newest snapshot, or nil when the table is empty
func (a *SQLAdapter) Load(ctx context.Context) (*entities.Snapshot, error) {
	query, args, err := a.db.From(snapshotTable).
		Select("payload").
		Order(goqu.C("id").Desc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build snapshot query", err)
	}

	var payload string
	err = a.conn.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load snapshot", err)
	}
	return decode([]byte(payload))
}

// History lists stored snapshot versions and timestamps, newest first
func (a *SQLAdapter) History(ctx context.Context) ([]SnapshotRow, error) {
	query, args, err := a.db.From(snapshotTable).
		Select("id", "version", "taken_at").
		Order(goqu.C("id").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build snapshot history query", err)
	}

	rows, err := a.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list snapshots", err)
	}
	defer rows.Close()

	var history []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		if err := rows.Scan(&row.ID, &row.Version, &row.TakenAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan snapshot row", err)
		}
		history = append(history, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to list snapshots", err)
	}
	return history, nil
}

// Ping verifies the connection to the database
func (a *SQLAdapter) Ping(ctx context.Context) error {
	return a.conn.PingContext(ctx)
}
