package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/estimator/internal/core/db"
	"github.com/solatis/estimator/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.MemoryURL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(ctx, conn))

	q, err := db.LoadQueries(conn)
	require.NoError(t, err)
	return NewStore(q)
}

// tick returns a clock advancing one millisecond per call.
func tick(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "", want: StatusDraft},
		{in: "draft", want: StatusDraft},
		{in: "final", want: StatusFinal},
		{in: "archived", wantErr: true},
		{in: "FINAL", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if tt.wantErr {
			assert.True(t, eris.Is(err, types.ErrInvalidStatus), tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestStore_Projects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.CreateProject(ctx, "tenant-a", "Office fit-out")
	require.NoError(t, err)
	_, err = types.ParseProjectID(string(p.ProjectID))
	require.NoError(t, err)

	got, err := s.GetProject(ctx, "tenant-a", p.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "Office fit-out", got.Name)
	assert.True(t, p.CreatedAt.Equal(got.CreatedAt))

	_, err = s.GetProject(ctx, "tenant-b", p.ProjectID)
	assert.True(t, eris.Is(err, types.ErrProjectNotFound))
}

func TestStore_Snapshots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.now = tick(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	p, err := s.CreateProject(ctx, "tenant-a", "Mall unit")
	require.NoError(t, err)

	first, err := s.CreateSnapshot(ctx, "tenant-a", p.ProjectID, StatusDraft, map[string]any{
		"work_type":   "repair",
		"client_type": nil,
		"mall_areas":  []any{},
	})
	require.NoError(t, err)
	second, err := s.CreateSnapshot(ctx, "tenant-a", p.ProjectID, StatusFinal, map[string]any{"work_type": "construction"})
	require.NoError(t, err)

	list, err := s.ListSnapshots(ctx, "tenant-a", p.ProjectID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, first.SnapshotID, list[0].SnapshotID)
	assert.Equal(t, StatusDraft, list[0].Status)
	assert.Equal(t, map[string]any{"work_type": "repair", "client_type": nil, "mall_areas": []any{}}, list[0].Intake)
	assert.True(t, first.CreatedAt.Equal(list[0].CreatedAt))

	assert.Equal(t, second.SnapshotID, list[1].SnapshotID)
	assert.Equal(t, StatusFinal, list[1].Status)
}

func TestStore_EmptyProject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.CreateProject(ctx, "tenant-a", "Empty")
	require.NoError(t, err)

	list, err := s.ListSnapshots(ctx, "tenant-a", p.ProjectID)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.CreateProject(ctx, "tenant-a", "Private")
	require.NoError(t, err)

	_, err = s.CreateSnapshot(ctx, "tenant-b", p.ProjectID, StatusDraft, map[string]any{})
	assert.True(t, eris.Is(err, types.ErrProjectNotFound))

	_, err = s.ListSnapshots(ctx, "tenant-b", p.ProjectID)
	assert.True(t, eris.Is(err, types.ErrProjectNotFound))
}
