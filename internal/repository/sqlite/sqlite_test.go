package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanwatch/internal/domain"
	"lanwatch/internal/repository"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestTimeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))
	got, err := parseTime(formatTime(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
	assert.Equal(t, time.UTC, got.Location())

	// Lexical order must follow time order
	assert.Less(t, formatTime(base), formatTime(base.Add(time.Nanosecond)))
	assert.Less(t, formatTime(base.Add(999*time.Millisecond)), formatTime(base.Add(time.Second)))

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestStringToNull(t *testing.T) {
	assert.False(t, stringToNull("").Valid)
	ns := stringToNull("x")
	assert.True(t, ns.Valid)
	assert.Equal(t, "x", nullToString(ns))
	assert.Equal(t, "", nullToString(stringToNull("")))
}

func TestUpsertDevice(t *testing.T) {
	ctx := context.Background()

	t.Run("insert sets first and last seen", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "aa:bb", Hostname: "laptop", IP: "10.0.0.2"}, base))

		d, err := repo.GetDevice(ctx, "aa:bb")
		require.NoError(t, err)
		assert.Equal(t, "laptop", d.Hostname)
		assert.Equal(t, "10.0.0.2", d.IP)
		assert.True(t, d.FirstSeen.Equal(base))
		assert.True(t, d.LastSeen.Equal(base))
	})

	t.Run("update keeps first seen and advances last seen", func(t *testing.T) {
		repo := newTestRepo(t)
		rec := domain.Record{MAC: "aa:bb", Hostname: "laptop"}
		require.NoError(t, repo.UpsertDevice(ctx, rec, base))
		require.NoError(t, repo.UpsertDevice(ctx, rec, base.Add(time.Minute)))

		d, err := repo.GetDevice(ctx, "aa:bb")
		require.NoError(t, err)
		assert.True(t, d.FirstSeen.Equal(base))
		assert.True(t, d.LastSeen.Equal(base.Add(time.Minute)))
	})

	t.Run("last seen never moves backwards", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "aa:bb"}, base.Add(time.Hour)))
		require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "aa:bb"}, base))

		d, err := repo.GetDevice(ctx, "aa:bb")
		require.NoError(t, err)
		assert.True(t, d.LastSeen.Equal(base.Add(time.Hour)))
		assert.False(t, d.FirstSeen.After(d.LastSeen))
	})

	t.Run("empty fields keep stored values", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.UpsertDevice(ctx, domain.Record{
			MAC: "aa:bb", Hostname: "laptop", APMAC: "11:22", SwitchMAC: "33:44", IP: "10.0.0.2",
		}, base))
		require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "aa:bb"}, base.Add(time.Second)))

		d, err := repo.GetDevice(ctx, "aa:bb")
		require.NoError(t, err)
		assert.Equal(t, "laptop", d.Hostname)
		assert.Equal(t, "11:22", d.APMAC)
		assert.Equal(t, "33:44", d.SwitchMAC)
		assert.Equal(t, "10.0.0.2", d.IP)
	})

	t.Run("non-empty fields replace stored values", func(t *testing.T) {
		repo := newTestRepo(t)
		require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "aa:bb", Hostname: "old", APMAC: "11:22"}, base))
		require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "aa:bb", Hostname: "new", APMAC: "55:66"}, base.Add(time.Second)))

		d, err := repo.GetDevice(ctx, "aa:bb")
		require.NoError(t, err)
		assert.Equal(t, "new", d.Hostname)
		assert.Equal(t, "55:66", d.APMAC)
	})

	t.Run("rejects empty mac", func(t *testing.T) {
		repo := newTestRepo(t)
		assert.Error(t, repo.UpsertDevice(ctx, domain.Record{}, base))
	})
}

func TestUpsertDeviceStorageError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewWithDB(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO devices")).
		WithArgs("aa:bb", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))

	err = repo.UpsertDevice(context.Background(), domain.Record{MAC: "aa:bb"}, base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDevicesListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "cc:dd"}, base))
	require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "aa:bb"}, base))
	require.NoError(t, repo.SetLabel(ctx, "aa:bb", "Office laptop"))

	devices, err := repo.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "aa:bb", devices[0].MAC)
	assert.Equal(t, "Office laptop", devices[0].Label)
	assert.Equal(t, "cc:dd", devices[1].MAC)

	require.NoError(t, repo.DeleteDevice(ctx, "aa:bb"))
	_, err = repo.GetDevice(ctx, "aa:bb")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Label goes with the device
	_, err = repo.GetLabel(ctx, "aa:bb")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteDevice(ctx, "aa:bb"), repository.ErrNotFound)
}

func TestLabels(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	assert.ErrorIs(t, repo.SetLabel(ctx, "ff:ff", "unknown device"), repository.ErrNotFound)

	require.NoError(t, repo.UpsertDevice(ctx, domain.Record{MAC: "aa:bb"}, base))
	require.NoError(t, repo.SetLabel(ctx, "aa:bb", "first"))
	require.NoError(t, repo.SetLabel(ctx, "aa:bb", "second"))

	l, err := repo.GetLabel(ctx, "aa:bb")
	require.NoError(t, err)
	assert.Equal(t, "second", l.Label)

	labels, err := repo.ListLabels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Label{{MAC: "aa:bb", Label: "second"}}, labels)

	require.NoError(t, repo.DeleteLabel(ctx, "aa:bb"))
	assert.ErrorIs(t, repo.DeleteLabel(ctx, "aa:bb"), repository.ErrNotFound)

	// Device survives label removal
	_, err = repo.GetDevice(ctx, "aa:bb")
	assert.NoError(t, err)
}

func TestSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	graphs := []string{
		`{"nodes":[],"edges":[]}`,
		`{"nodes":[{"id":"a","label":"a"}],"edges":[]}`,
		`{"nodes":[{"id":"a","label":"a"},{"id":"b","label":"b"}],"edges":[{"source":"a","target":"b"}]}`,
	}

	var ids []int64
	for i, g := range graphs {
		id, err := repo.AppendSnapshot(ctx, base.Add(time.Duration(i)*time.Minute), []byte(g))
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Less(t, ids[0], ids[1])
	assert.Less(t, ids[1], ids[2])

	t.Run("get returns stored bytes", func(t *testing.T) {
		for i, id := range ids {
			s, err := repo.GetSnapshot(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, graphs[i], string(s.GraphJSON))
			assert.True(t, s.Timestamp.Equal(base.Add(time.Duration(i)*time.Minute)))
		}
		_, err := repo.GetSnapshot(ctx, 9999)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("latest is newest first", func(t *testing.T) {
		latest, err := repo.LatestSnapshots(ctx, 2)
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, ids[2], latest[0].ID)
		assert.Equal(t, ids[1], latest[1].ID)

		none, err := repo.LatestSnapshots(ctx, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("at returns first snapshot at or after", func(t *testing.T) {
		s, err := repo.SnapshotAt(ctx, base.Add(30*time.Second))
		require.NoError(t, err)
		assert.Equal(t, ids[1], s.ID)

		s, err = repo.SnapshotAt(ctx, base.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, ids[1], s.ID)

		_, err = repo.SnapshotAt(ctx, base.Add(time.Hour))
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("snapshots cannot be changed", func(t *testing.T) {
		_, err := repo.db.ExecContext(ctx, `UPDATE topology_snapshots SET graph_json = '{}' WHERE id = ?`, ids[0])
		assert.Error(t, err)
		_, err = repo.db.ExecContext(ctx, `DELETE FROM topology_snapshots WHERE id = ?`, ids[0])
		assert.Error(t, err)

		s, err := repo.GetSnapshot(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, graphs[0], string(s.GraphJSON))
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.migrate())
}
