package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/estimator/internal/catalog"
	"github.com/solatis/estimator/internal/core/db"
	"github.com/solatis/estimator/internal/core/metrics"
	"github.com/solatis/estimator/internal/snapshot"
	"github.com/solatis/estimator/internal/types"
)

const moscowLocationID = "0190f0a4-9a3e-7c11-8a8c-3f2b1c0d9e77"

func defaultCache() *catalog.Cache {
	return catalog.NewCache(func() (*catalog.Catalog, error) {
		return catalog.Load(context.Background(), catalog.Options{})
	})
}

func newTestService(t *testing.T) (*Service, *metrics.Metrics) {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.MemoryURL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(ctx, conn))
	q, err := db.LoadQueries(conn)
	require.NoError(t, err)

	m := metrics.New(nil)
	return New(Config{
		Catalog: defaultCache(),
		Store:   snapshot.NewStore(q),
		Metrics: m,
	}), m
}

func moscowPlace() map[string]any {
	return map[string]any{
		"location_id":  moscowLocationID,
		"country_iso2": "RU",
		"city":         "Moscow",
		"source":       "manual",
	}
}

func validIntake() map[string]any {
	return map[string]any{
		"selected_place":  moscowPlace(),
		"work_type":       "repair",
		"work_for":        "third_party",
		"client_type":     "company",
		"work_class":      "business",
		"work_location":   "outside",
		"object_category": "residential",
		"access_logistics": map[string]any{
			"vehicle_access_allowed": true,
			"unloading_distance_m":   20,
			"vehicle_max_height_m":   3.5,
			"vehicle_max_weight_t":   12,
		},
	}
}

func TestNormalizePayload(t *testing.T) {
	s, _ := newTestService(t)
	payload := map[string]any{"selected_place": moscowPlace()}

	got, err := s.NormalizePayload(payload)
	require.NoError(t, err)

	assert.Equal(t, "v1.1", got["intake_version"])
	assert.Equal(t, "ru_moscow_v1", got["location_profile_id"])
	place := got["selected_place"].(map[string]any)
	assert.Contains(t, place, "admin_level_1")
	assert.Nil(t, place["admin_level_1"])

	// input untouched
	assert.NotContains(t, payload, "intake_version")
	assert.NotContains(t, payload, "location_profile_id")
}

func TestNormalizePayload_KeepsExplicitValues(t *testing.T) {
	s, _ := newTestService(t)

	got, err := s.NormalizePayload(map[string]any{
		"intake_version":      "v1.0",
		"location_profile_id": "ru_spb_v1",
		"selected_place":      moscowPlace(),
	})
	require.NoError(t, err)
	assert.Equal(t, "v1.0", got["intake_version"])
	assert.Equal(t, "ru_spb_v1", got["location_profile_id"])
}

func TestNormalizePayload_IncompletePlace(t *testing.T) {
	s, _ := newTestService(t)
	partial := map[string]any{"city": "Moscow", "country_iso2": "RU"}

	got, err := s.NormalizePayload(map[string]any{"selected_place": partial})
	require.NoError(t, err)
	assert.Equal(t, types.GlobalProfileID, got["location_profile_id"])
	assert.Equal(t, partial, got["selected_place"])
}

func TestNormalizePayload_InvalidPlace(t *testing.T) {
	s, _ := newTestService(t)
	place := moscowPlace()
	place["source"] = "carrier_pigeon"

	_, err := s.NormalizePayload(map[string]any{"selected_place": place})
	assert.True(t, eris.Is(err, types.ErrInvalidIntake))
}

func TestEvaluateRules(t *testing.T) {
	s, m := newTestService(t)

	ev, err := s.EvaluateRules(context.Background(), map[string]any{
		"work_for":      "third_party",
		"work_location": "outside",
	})
	require.NoError(t, err)

	assert.Equal(t, types.GlobalProfileID, ev.Profile.ProfileID)
	assert.Contains(t, ev.Rules.VisibleFields, "client_type")
	assert.Contains(t, ev.Rules.VisibleFields, "access_logistics.vehicle_max_height_m")
	assert.Contains(t, ev.Rules.VisibleFields, "cost_responsibility.payer_materials")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues(types.GlobalProfileID, ShapeRaw)))
}

func TestEvaluateRules_UnknownProfile(t *testing.T) {
	s, m := newTestService(t)

	_, err := s.EvaluateRules(context.Background(), map[string]any{"location_profile_id": "atlantis_v1"})
	assert.True(t, eris.Is(err, types.ErrProfileNotFound))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationFailures.WithLabelValues("not_found")))
}

func TestEvaluateIntake(t *testing.T) {
	s, m := newTestService(t)

	ev, err := s.EvaluateIntake(context.Background(), validIntake())
	require.NoError(t, err)

	assert.Equal(t, "ru_moscow_v1", ev.Profile.ProfileID)
	assert.Equal(t, "ru_moscow_v1", ev.Intake["location_profile_id"])
	assert.Contains(t, ev.Rules.VisibleFields, "time_windows.work_time_start")
	assert.Contains(t, ev.Rules.RequiredFields, "client_type")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Evaluations.WithLabelValues("ru_moscow_v1", ShapeValidated)))
}

func TestEvaluateIntake_SelfWithClientType(t *testing.T) {
	s, m := newTestService(t)
	payload := validIntake()
	payload["work_for"] = "self"

	_, err := s.EvaluateIntake(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, eris.Is(err, types.ErrInvalidIntake))
	assert.Contains(t, err.Error(), "client_type must not be set when work_for=self")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EvaluationFailures.WithLabelValues("invalid_intake")))
}

func TestResolveProfile(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	p, err := s.ResolveProfile(ctx, moscowPlace())
	require.NoError(t, err)
	assert.Equal(t, "ru_moscow_v1", p.ProfileID)

	p, err = s.ResolveProfile(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, types.GlobalProfileID, p.ProfileID)
}

func TestSnapshots(t *testing.T) {
	s, m := newTestService(t)
	ctx := context.Background()

	project, err := s.CreateProject(ctx, "tenant-a", "Facade repair")
	require.NoError(t, err)
	pid := string(project.ProjectID)

	draft, err := s.CreateSnapshot(ctx, "tenant-a", pid, validIntake(), "")
	require.NoError(t, err)
	assert.Equal(t, snapshot.StatusDraft, draft.Status)
	assert.Equal(t, "ru_moscow_v1", draft.Intake["location_profile_id"])
	assert.Contains(t, draft.Intake, "cost_responsibility")

	final, err := s.CreateSnapshot(ctx, "tenant-a", pid, validIntake(), "final")
	require.NoError(t, err)

	list, err := s.ListSnapshots(ctx, "tenant-a", pid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, draft.SnapshotID, list[0].SnapshotID)
	assert.Equal(t, final.SnapshotID, list[1].SnapshotID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsCreated.WithLabelValues("draft")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsCreated.WithLabelValues("final")))
}

func TestSnapshots_Errors(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	project, err := s.CreateProject(ctx, "tenant-a", "Flat")
	require.NoError(t, err)
	pid := string(project.ProjectID)

	_, err = s.CreateSnapshot(ctx, "tenant-a", pid, validIntake(), "archived")
	assert.True(t, eris.Is(err, types.ErrInvalidStatus))

	_, err = s.CreateSnapshot(ctx, "tenant-a", "not-a-uuid", validIntake(), "draft")
	assert.True(t, eris.Is(err, types.ErrProjectNotFound))

	_, err = s.CreateSnapshot(ctx, "tenant-b", pid, validIntake(), "draft")
	assert.True(t, eris.Is(err, types.ErrProjectNotFound))

	incomplete := validIntake()
	delete(incomplete, "access_logistics")
	_, err = s.CreateSnapshot(ctx, "tenant-a", pid, incomplete, "draft")
	assert.True(t, eris.Is(err, types.ErrInvalidIntake))

	_, err = s.ListSnapshots(ctx, "tenant-b", pid)
	assert.True(t, eris.Is(err, types.ErrProjectNotFound))
}

func TestNoStore(t *testing.T) {
	s := New(Config{Catalog: defaultCache()})
	ctx := context.Background()

	_, err := s.CreateProject(ctx, "t", "p")
	assert.Same(t, ErrNoStore, err)
	_, err = s.ListSnapshots(ctx, "t", string(types.NewProjectID()))
	assert.Same(t, ErrNoStore, err)
}

func TestCatalogFailure(t *testing.T) {
	boom := errors.New("broken rules")
	s := New(Config{Catalog: catalog.NewCache(func() (*catalog.Catalog, error) { return nil, boom })})

	_, err := s.EvaluateRules(context.Background(), map[string]any{})
	assert.Same(t, boom, err)
	assert.Equal(t, "config", FailureReason(err))
}
