package api

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/estimator/internal/catalog"
	"github.com/solatis/estimator/internal/core/auth"
	"github.com/solatis/estimator/internal/service"
	"github.com/solatis/estimator/internal/types"
)

func newTestIntakeService(t *testing.T) *IntakeService {
	t.Helper()
	svc := service.New(service.Config{
		Catalog: catalog.NewCache(func() (*catalog.Catalog, error) {
			return catalog.Load(context.Background(), catalog.Options{})
		}),
	})
	s, err := NewIntakeService(svc, nil)
	if err != nil {
		t.Fatalf("NewIntakeService() error = %v, want nil", err)
	}
	return s
}

func request(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct() error = %v, want nil", err)
	}
	return s
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "invalid intake", err: eris.Wrap(types.ErrInvalidIntake, "work_for"), want: codes.InvalidArgument},
		{name: "invalid status", err: types.ErrInvalidStatus, want: codes.InvalidArgument},
		{name: "bad request", err: eris.Wrap(errBadRequest, "intake must be an object"), want: codes.InvalidArgument},
		{name: "unknown profile", err: eris.Wrapf(types.ErrProfileNotFound, "%q", "x"), want: codes.NotFound},
		{name: "unknown project", err: types.ErrProjectNotFound, want: codes.NotFound},
		{name: "no store", err: service.ErrNoStore, want: codes.Unavailable},
		{name: "deadline", err: eris.Wrap(context.DeadlineExceeded, "select"), want: codes.DeadlineExceeded},
		{name: "canceled", err: context.Canceled, want: codes.Canceled},
		{name: "bad document", err: eris.Wrap(types.ErrInvalidDocument, "rules"), want: codes.Internal},
		{name: "missing global", err: types.ErrMissingGlobalProfile, want: codes.Internal},
		{name: "group too deep", err: types.ErrGroupTooDeep, want: codes.Internal},
		{name: "too many in values", err: types.ErrTooManyInValues, want: codes.Internal},
		{name: "unclassified", err: eris.New("disk on fire"), want: codes.Unknown},
		{name: "already a status", err: status.Error(codes.PermissionDenied, "no"), want: codes.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := status.Code(toStatus(tt.err, codes.Unknown)); got != tt.want {
				t.Errorf("toStatus() code = %v, want %v", got, tt.want)
			}
		})
	}

	if toStatus(nil, codes.Internal) != nil {
		t.Error("toStatus(nil) != nil")
	}
}

func TestEvaluateRules_DefaultsEmptyIntake(t *testing.T) {
	s := newTestIntakeService(t)

	resp, err := s.EvaluateRules(context.Background(), request(t, map[string]any{}))
	if err != nil {
		t.Fatalf("EvaluateRules() error = %v, want nil", err)
	}
	out := resp.AsMap()
	if got := out["location_profile"].(map[string]any)["profile_id"]; got != types.GlobalProfileID {
		t.Errorf("profile_id = %v, want %v", got, types.GlobalProfileID)
	}
	if got := out["intake"].(map[string]any)["intake_version"]; got != "v1.1" {
		t.Errorf("intake_version = %v, want v1.1", got)
	}
}

func TestEvaluateRules_StrictRejectsPartialIntake(t *testing.T) {
	s := newTestIntakeService(t)

	_, err := s.EvaluateRules(context.Background(), request(t, map[string]any{
		"strict": true,
		"intake": map[string]any{"work_for": "third_party"},
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestResolveProfile_Moscow(t *testing.T) {
	s := newTestIntakeService(t)

	resp, err := s.ResolveProfile(context.Background(), request(t, map[string]any{
		"selected_place": map[string]any{
			"location_id":  "0190f0a4-9a3e-7c11-8a8c-3f2b1c0d9e77",
			"country_iso2": "RU",
			"city":         "Moscow",
			"source":       "manual",
		},
	}))
	if err != nil {
		t.Fatalf("ResolveProfile() error = %v, want nil", err)
	}
	if got := resp.AsMap()["location_profile_id"]; got != "ru_moscow_v1" {
		t.Errorf("location_profile_id = %v, want ru_moscow_v1", got)
	}
}

func TestSnapshotHandlers(t *testing.T) {
	s := newTestIntakeService(t)

	_, err := s.CreateProject(context.Background(), request(t, map[string]any{"name": "x"}))
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("CreateProject() without tenant code = %v, want %v", status.Code(err), codes.Unauthenticated)
	}

	ctx := auth.WithTenantID(context.Background(), "tenant-a")

	_, err = s.CreateProject(ctx, request(t, map[string]any{}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("CreateProject() without name code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}

	// no store configured
	_, err = s.CreateProject(ctx, request(t, map[string]any{"name": "x"}))
	if status.Code(err) != codes.Unavailable {
		t.Errorf("CreateProject() code = %v, want %v", status.Code(err), codes.Unavailable)
	}
	_, err = s.ListSnapshots(ctx, request(t, map[string]any{"project_id": "p"}))
	if status.Code(err) != codes.Unavailable {
		t.Errorf("ListSnapshots() code = %v, want %v", status.Code(err), codes.Unavailable)
	}
	_, err = s.CreateSnapshot(ctx, request(t, map[string]any{"project_id": "p", "intake": "x"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("CreateSnapshot() code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestNewIntakeService_NilService(t *testing.T) {
	if _, err := NewIntakeService(nil, nil); err == nil {
		t.Error("NewIntakeService(nil) error = nil, want error")
	}
}
