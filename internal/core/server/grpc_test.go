package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/estimator/internal/catalog"
	"github.com/solatis/estimator/internal/core/api"
	"github.com/solatis/estimator/internal/core/auth"
	"github.com/solatis/estimator/internal/core/config"
	"github.com/solatis/estimator/internal/core/db"
	"github.com/solatis/estimator/internal/service"
	"github.com/solatis/estimator/internal/snapshot"
)

const testAPIKey = "test-key"

type harness struct {
	conn   *grpc.ClientConn
	client *api.IntakeClient
}

func startServer(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, db.MemoryURL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.MigrateUp(ctx, conn))
	q, err := db.LoadQueries(conn)
	require.NoError(t, err)

	svc := service.New(service.Config{
		Catalog: catalog.NewCache(func() (*catalog.Catalog, error) {
			return catalog.Load(ctx, catalog.Options{})
		}),
		Store: snapshot.NewStore(q),
	})
	intake, err := api.NewIntakeService(svc, nil)
	require.NoError(t, err)
	authenticator, err := auth.NewAuthenticator(map[string]string{testAPIKey: "tenant-a"}, false)
	require.NoError(t, err)

	cfg := config.Default().Server
	cfg.RequestTimeout = 5 * time.Second
	srv, err := NewGRPCServer(cfg, intake, authenticator, nil)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { cc.Close() })

	return &harness{conn: cc, client: api.NewIntakeClient(cc)}
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), auth.APIKeyHeader, testAPIKey)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func TestGRPC_Health(t *testing.T) {
	h := startServer(t)

	resp, err := grpc_health_v1.NewHealthClient(h.conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{
		Service: api.ServiceName,
	})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}

func TestGRPC_Unauthenticated(t *testing.T) {
	h := startServer(t)

	_, err := h.client.EvaluateRules(context.Background(), mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPC_EvaluateRules(t *testing.T) {
	h := startServer(t)

	resp, err := h.client.EvaluateRules(authed(), mustStruct(t, map[string]any{
		"intake": map[string]any{
			"work_for":      "third_party",
			"work_location": "outside",
		},
	}))
	require.NoError(t, err)

	out := resp.AsMap()
	rules := out["rules"].(map[string]any)
	visible := stringList(rules["visible_fields"])
	assert.Contains(t, visible, "client_type")
	assert.Contains(t, visible, "access_logistics.vehicle_max_height_m")
	assert.Contains(t, visible, "cost_responsibility.payer_materials")

	profile := out["location_profile"].(map[string]any)
	assert.Equal(t, "global_default_v1", profile["profile_id"])
	assert.Equal(t, "v1.1", out["intake"].(map[string]any)["intake_version"])

	defaults := rules["applied_defaults"].([]any)
	require.Len(t, defaults, 2)
	assert.Equal(t, "cleanup_waste.cleanup_end_of_shift_required", defaults[0].(map[string]any)["field"])
}

func TestGRPC_EvaluateRules_Errors(t *testing.T) {
	h := startServer(t)

	_, err := h.client.EvaluateRules(authed(), mustStruct(t, map[string]any{
		"intake": map[string]any{"location_profile_id": "atlantis_v1"},
	}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.EvaluateRules(authed(), mustStruct(t, map[string]any{
		"strict": true,
		"intake": map[string]any{"work_for": "self", "client_type": "company"},
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.EvaluateRules(authed(), mustStruct(t, map[string]any{"intake": "not an object"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_ResolveProfile(t *testing.T) {
	h := startServer(t)

	resp, err := h.client.ResolveProfile(authed(), mustStruct(t, map[string]any{
		"selected_place": map[string]any{
			"location_id":  "0190f0a4-9a3e-7c11-8a8c-3f2b1c0d9e77",
			"country_iso2": "RU",
			"city":         "Saint Petersburg",
			"source":       "map_provider",
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "ru_spb_v1", resp.AsMap()["location_profile_id"])

	resp, err = h.client.ResolveProfile(authed(), mustStruct(t, map[string]any{"selected_place": nil}))
	require.NoError(t, err)
	assert.Equal(t, "global_default_v1", resp.AsMap()["location_profile_id"])
}

func TestGRPC_Snapshots(t *testing.T) {
	h := startServer(t)
	ctx := authed()

	project, err := h.client.CreateProject(ctx, mustStruct(t, map[string]any{"name": "Warehouse roof"}))
	require.NoError(t, err)
	projectID := project.AsMap()["project_id"].(string)

	intake := map[string]any{
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
	snap, err := h.client.CreateSnapshot(ctx, mustStruct(t, map[string]any{
		"project_id": projectID,
		"intake":     intake,
		"status":     "final",
	}))
	require.NoError(t, err)
	assert.Equal(t, "final", snap.AsMap()["status"])

	list, err := h.client.ListSnapshots(ctx, mustStruct(t, map[string]any{"project_id": projectID}))
	require.NoError(t, err)
	items := list.AsMap()["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, snap.AsMap()["snapshot_id"], items[0].(map[string]any)["snapshot_id"])

	_, err = h.client.CreateSnapshot(ctx, mustStruct(t, map[string]any{
		"project_id": projectID,
		"intake":     intake,
		"status":     "archived",
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.ListSnapshots(ctx, mustStruct(t, map[string]any{"project_id": "0190f0a4-9a3e-7c11-8a8c-000000000000"}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.ListSnapshots(ctx, mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
