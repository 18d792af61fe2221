// Package api implements the estimator.intake.v1.IntakeService gRPC service.
//
// Requests and responses are google.protobuf.Struct values carrying the same
// JSON objects the intake contracts define, so the service needs no
// generated message types. Handlers only translate envelopes and errors; the
// use cases live in the service package.
package api

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/estimator/internal/core/auth"
	"github.com/solatis/estimator/internal/service"
)

// IntakeService implements IntakeServer.
type IntakeService struct {
	svc    *service.Service
	logger *zap.Logger
}

// NewIntakeService creates the gRPC service over svc.
func NewIntakeService(svc *service.Service, logger *zap.Logger) (*IntakeService, error) {
	if svc == nil {
		return nil, eris.New("svc cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{svc: svc, logger: logger}, nil
}

var _ IntakeServer = (*IntakeService)(nil)

// EvaluateRules handles {"intake": {...}, "strict": bool}. Strict requests
// must carry a complete, valid intake.
func (s *IntakeService) EvaluateRules(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := req.AsMap()
	payload, err := objectField(in, "intake")
	if err != nil {
		return nil, toStatus(err, codes.Internal)
	}
	strict, _ := in["strict"].(bool)

	var ev *service.Evaluation
	if strict {
		ev, err = s.svc.EvaluateIntake(ctx, payload)
	} else {
		ev, err = s.svc.EvaluateRules(ctx, payload)
	}
	if err != nil {
		return nil, toStatus(err, codes.Internal)
	}

	return toStruct(map[string]any{
		"intake":           ev.Intake,
		"rules":            ev.Rules,
		"location_profile": ev.Profile,
	})
}

// ResolveProfile handles {"selected_place": {...} | null}.
func (s *IntakeService) ResolveProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	profile, err := s.svc.ResolveProfile(ctx, req.AsMap()["selected_place"])
	if err != nil {
		return nil, toStatus(err, codes.Internal)
	}
	return toStruct(map[string]any{
		"location_profile_id": profile.ProfileID,
		"location_profile":    profile,
	})
}

// CreateProject handles {"name": "..."}.
func (s *IntakeService) CreateProject(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	name, err := stringField(req.AsMap(), "name")
	if err != nil {
		return nil, toStatus(err, codes.Unavailable)
	}

	p, err := s.svc.CreateProject(ctx, tenantID, name)
	if err != nil {
		return nil, toStatus(err, codes.Unavailable)
	}
	return toStruct(p)
}

// CreateSnapshot handles {"project_id": "...", "intake": {...}, "status": "draft"|"final"}.
func (s *IntakeService) CreateSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	in := req.AsMap()
	projectID, err := stringField(in, "project_id")
	if err != nil {
		return nil, toStatus(err, codes.Unavailable)
	}
	payload, err := objectField(in, "intake")
	if err != nil {
		return nil, toStatus(err, codes.Unavailable)
	}
	statusValue, _ := in["status"].(string)

	snap, err := s.svc.CreateSnapshot(ctx, tenantID, projectID, payload, statusValue)
	if err != nil {
		s.logger.Warn("create snapshot failed", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, toStatus(err, codes.Unavailable)
	}
	return toStruct(snap)
}

// ListSnapshots handles {"project_id": "..."} and returns {"items": [...]}.
func (s *IntakeService) ListSnapshots(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	projectID, err := stringField(req.AsMap(), "project_id")
	if err != nil {
		return nil, toStatus(err, codes.Unavailable)
	}

	items, err := s.svc.ListSnapshots(ctx, tenantID, projectID)
	if err != nil {
		return nil, toStatus(err, codes.Unavailable)
	}
	return toStruct(map[string]any{"items": items})
}

func tenant(ctx context.Context) (string, error) {
	tenantID := auth.TenantIDFromContext(ctx)
	if tenantID == "" {
		return "", status.Error(codes.Unauthenticated, "tenant required")
	}
	return tenantID, nil
}

// objectField returns in[key] as an object. Absent or null means empty.
func objectField(in map[string]any, key string) (map[string]any, error) {
	switch v := in[key].(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, eris.Wrapf(errBadRequest, "%s must be an object", key)
	}
}

func stringField(in map[string]any, key string) (string, error) {
	v, ok := in[key].(string)
	if !ok || v == "" {
		return "", eris.Wrapf(errBadRequest, "%s is required", key)
	}
	return v, nil
}

// toStruct converts a JSON-marshalable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
