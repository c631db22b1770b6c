package snapshot_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Medicalqueryreview/internal/adapters/snapshot"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	redisclient "github.com/zatekoja/Medicalqueryreview/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Medicalqueryreview/pkg/config"
)

func sampleSnapshot() *entities.Snapshot {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &entities.Snapshot{
		Version: entities.SnapshotVersion,
		TakenAt: now,
		Patients: []entities.PatientEntry{{
			ID: "patient_1",
			Record: entities.Patient{
				ID:               "patient_1",
				Name:             "Sarah",
				Condition:        "asthma",
				AssignedDoctorID: entities.StringPtr("doctor_1"),
				IsActive:         true,
			},
		}},
		Doctors: []entities.DoctorEntry{{
			ID:     "doctor_1",
			Record: entities.Doctor{ID: "doctor_1", Name: "Dr. Lee", Specialization: "pulmonology"},
		}},
		Queries: []entities.QueryEntry{{
			ID: "query_1",
			Record: entities.MedicalQuery{
				ID:        "query_1",
				PatientID: "patient_1",
				Title:     "Inhaler",
				Status:    entities.QueryStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			},
		}},
		Counters: entities.Counters{Patient: 1, Doctor: 1, Query: 1},
	}
}

func TestFileAdapter_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "snapshot.json")
	store := snapshot.NewFileAdapter(path)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
	require.NoError(t, store.Ping(ctx))

	want := sampleSnapshot()
	require.NoError(t, store.Save(ctx, want))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	want.Counters.Query = 5
	require.NoError(t, store.Save(ctx, want))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), loaded.Counters.Query)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileAdapter_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := snapshot.NewFileAdapter(path).Load(context.Background())
	assert.Error(t, err)
}

func newMockAdapter(t *testing.T, retain int) (*snapshot.SQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter, err := snapshot.NewSQLAdapter(db, snapshot.DialectPostgres, retain)
	require.NoError(t, err)
	return adapter, mock
}

func TestSQLAdapter_Save(t *testing.T) {
	adapter, mock := newMockAdapter(t, 3)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "state_snapshots" ("payload", "taken_at", "version")`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM "state_snapshots" WHERE .*NOT IN \(SELECT "id" FROM "state_snapshots" ORDER BY "id" DESC LIMIT 3\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, adapter.Save(context.Background(), sampleSnapshot()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAdapter_SaveRollsBackOnFailure(t *testing.T) {
	adapter, mock := newMockAdapter(t, 3)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "state_snapshots"`)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := adapter.Save(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLAdapter_Load(t *testing.T) {
	ctx := context.Background()
	loadQuery := regexp.QuoteMeta(`SELECT "payload" FROM "state_snapshots" ORDER BY "id" DESC LIMIT 1`)

	t.Run("latest snapshot", func(t *testing.T) {
		adapter, mock := newMockAdapter(t, 3)
		want := sampleSnapshot()
		payload := `{"version":1,"taken_at":"2026-03-01T09:00:00Z","patients":[{"id":"patient_1","record":{"id":"patient_1","name":"Sarah","condition":"asthma","email":"","assigned_doctor_id":"doctor_1","is_active":true}}],"doctors":[{"id":"doctor_1","record":{"id":"doctor_1","name":"Dr. Lee","specialization":"pulmonology"}}],"queries":[{"id":"query_1","record":{"id":"query_1","patient_id":"patient_1","title":"Inhaler","description":"","status":"pending","created_at":"2026-03-01T09:00:00Z","updated_at":"2026-03-01T09:00:00Z"}}],"counters":{"patient":1,"doctor":1,"query":1}}`
		mock.ExpectQuery(loadQuery).WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(payload))

		got, err := adapter.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty table", func(t *testing.T) {
		adapter, mock := newMockAdapter(t, 3)
		mock.ExpectQuery(loadQuery).WillReturnError(sql.ErrNoRows)

		got, err := adapter.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSQLAdapter_RejectsUnknownDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = snapshot.NewSQLAdapter(db, "mysql", 3)
	assert.Error(t, err)
}

func TestSQLAdapter_SQLiteRetention(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()

	adapter, err := snapshot.NewSQLAdapter(db, snapshot.DialectSQLite, 2)
	require.NoError(t, err)
	require.NoError(t, adapter.EnsureSchema(ctx))

	s := sampleSnapshot()
	for i := uint64(1); i <= 4; i++ {
		s.Counters.Query = i
		require.NoError(t, adapter.Save(ctx, s))
	}

	history, err := adapter.History(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	latest, err := adapter.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), latest.Counters.Query)
}

func TestRedisAdapter_SaveAndLoad(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("Requires Redis connection")
	}
	ctx := context.Background()

	cfg, err := config.Load()
	require.NoError(t, err)
	client, err := redisclient.NewClient(&cfg.Redis)
	require.NoError(t, err)
	defer client.Close()

	key := "medqueries:test:" + t.Name()
	store := snapshot.NewRedisAdapter(client, key)
	defer client.Client().Del(ctx, key)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	want := sampleSnapshot()
	require.NoError(t, store.Save(ctx, want))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)
}
