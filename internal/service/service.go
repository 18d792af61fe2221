// Package service orchestrates intake use cases: payload normalization,
// profile resolution, rules evaluation and snapshot persistence.
//
// It sits between transports (gRPC, CLI) and the pure packages. The catalog
// is obtained through a catalog.Cache, so a failed configuration load is
// reported on every call instead of crashing the process.
package service

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/solatis/estimator/internal/catalog"
	"github.com/solatis/estimator/internal/core/metrics"
	"github.com/solatis/estimator/internal/intake"
	"github.com/solatis/estimator/internal/rules"
	"github.com/solatis/estimator/internal/snapshot"
	"github.com/solatis/estimator/internal/types"
)

// ErrNoStore indicates a snapshot operation on a service built without a store.
var ErrNoStore = eris.New("snapshot store is not configured")

// Input shapes reported in metrics.
const (
	ShapeRaw       = "raw"
	ShapeValidated = "validated"
)

// Config holds the service dependencies. Store, Logger and Metrics are optional.
type Config struct {
	Catalog *catalog.Cache
	Store   *snapshot.Store
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Service implements the intake use cases. Safe for concurrent use.
type Service struct {
	catalog *catalog.Cache
	store   *snapshot.Store
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Evaluation is the result of evaluating one intake payload.
type Evaluation struct {
	Intake  map[string]any
	Profile *types.LocationProfile
	Rules   *types.RulesOutput
}

// New creates a Service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog: cfg.Catalog,
		store:   cfg.Store,
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// NormalizePayload prepares a draft payload for evaluation. The input map is
// not modified. A complete selected_place is validated and rewritten in full
// form, intake_version defaults to v1.1 when absent, and an empty
// location_profile_id is filled from the resolved profile.
func (s *Service) NormalizePayload(payload map[string]any) (map[string]any, error) {
	cat, err := s.catalog.Get()
	if err != nil {
		return nil, err
	}
	return normalize(cat, payload)
}

func normalize(cat *catalog.Catalog, payload map[string]any) (map[string]any, error) {
	data := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		data[k] = v
	}

	place, err := intake.ParsePlace(data["selected_place"])
	if err != nil {
		return nil, err
	}
	if place != nil {
		dump, err := place.Data()
		if err != nil {
			return nil, err
		}
		data["selected_place"] = dump
	}

	if _, ok := data["intake_version"]; !ok {
		data["intake_version"] = string(intake.DefaultVersion)
	}
	if id, _ := data["location_profile_id"].(string); id == "" {
		data["location_profile_id"] = cat.Resolver.Resolve(place)
	}
	return data, nil
}

// ResolveProfile returns the profile for a raw selected_place. An absent or
// incomplete place resolves to the global default.
func (s *Service) ResolveProfile(ctx context.Context, rawPlace any) (*types.LocationProfile, error) {
	cat, err := s.catalog.Get()
	if err != nil {
		return nil, err
	}
	place, err := intake.ParsePlace(rawPlace)
	if err != nil {
		return nil, err
	}
	return cat.Profile(cat.Resolver.Resolve(place))
}

// EvaluateRules normalizes a possibly partial payload and evaluates it
// without enforcing intake invariants.
func (s *Service) EvaluateRules(ctx context.Context, payload map[string]any) (*Evaluation, error) {
	start := time.Now()

	cat, err := s.catalog.Get()
	if err != nil {
		return nil, s.fail(err)
	}
	normalized, err := normalize(cat, payload)
	if err != nil {
		return nil, s.fail(err)
	}
	profile, err := profileFor(cat, normalized)
	if err != nil {
		return nil, s.fail(err)
	}

	out, err := cat.Engine.Evaluate(rules.FromRaw(normalized), profile)
	if err != nil {
		return nil, s.fail(err)
	}

	s.observe(profile.ProfileID, ShapeRaw, start, out)
	return &Evaluation{Intake: normalized, Profile: profile, Rules: out}, nil
}

// EvaluateIntake is the strict variant of EvaluateRules: the normalized
// payload must be a complete, valid intake.
func (s *Service) EvaluateIntake(ctx context.Context, payload map[string]any) (*Evaluation, error) {
	start := time.Now()

	cat, err := s.catalog.Get()
	if err != nil {
		return nil, s.fail(err)
	}
	in, err := parseIntake(cat, payload)
	if err != nil {
		return nil, s.fail(err)
	}
	profile, err := cat.Profile(in.LocationProfileID)
	if err != nil {
		return nil, s.fail(err)
	}

	out, err := cat.Engine.Evaluate(rules.FromValidated(in), profile)
	if err != nil {
		return nil, s.fail(err)
	}
	data, err := in.Data()
	if err != nil {
		return nil, s.fail(err)
	}

	s.observe(profile.ProfileID, ShapeValidated, start, out)
	return &Evaluation{Intake: data, Profile: profile, Rules: out}, nil
}

// CreateProject registers a project for tenant.
func (s *Service) CreateProject(ctx context.Context, tenantID, name string) (*snapshot.Project, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	p, err := s.store.CreateProject(ctx, tenantID, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("project created",
		zap.String("tenant_id", tenantID),
		zap.String("project_id", string(p.ProjectID)),
	)
	return p, nil
}

// CreateSnapshot validates payload as a complete intake and stores it under
// the project. An empty status means draft.
func (s *Service) CreateSnapshot(ctx context.Context, tenantID, projectID string, payload map[string]any, status string) (*snapshot.Snapshot, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	st, err := snapshot.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	pid, err := parseProjectID(projectID)
	if err != nil {
		return nil, err
	}
	cat, err := s.catalog.Get()
	if err != nil {
		return nil, err
	}
	in, err := parseIntake(cat, payload)
	if err != nil {
		return nil, err
	}
	data, err := in.Data()
	if err != nil {
		return nil, err
	}

	snap, err := s.store.CreateSnapshot(ctx, tenantID, pid, st, data)
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementSnapshotCreated(string(st))
	s.logger.Info("intake snapshot created",
		zap.String("tenant_id", tenantID),
		zap.String("project_id", projectID),
		zap.String("snapshot_id", string(snap.SnapshotID)),
		zap.String("status", string(st)),
	)
	return snap, nil
}

// ListSnapshots returns the project's snapshots oldest first.
func (s *Service) ListSnapshots(ctx context.Context, tenantID, projectID string) ([]snapshot.Snapshot, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	pid, err := parseProjectID(projectID)
	if err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, tenantID, pid)
}

func parseIntake(cat *catalog.Catalog, payload map[string]any) (*intake.Intake, error) {
	normalized, err := normalize(cat, payload)
	if err != nil {
		return nil, err
	}
	return intake.Parse(normalized)
}

func profileFor(cat *catalog.Catalog, normalized map[string]any) (*types.LocationProfile, error) {
	id, ok := normalized["location_profile_id"].(string)
	if !ok {
		return nil, eris.Wrap(types.ErrInvalidIntake, "location_profile_id must be a string")
	}
	return cat.Profile(id)
}

// parseProjectID reports malformed ids as unknown projects.
func parseProjectID(id string) (types.ProjectID, error) {
	pid, err := types.ParseProjectID(id)
	if err != nil {
		return "", eris.Wrapf(types.ErrProjectNotFound, "%q", id)
	}
	return pid, nil
}

func (s *Service) observe(profileID, shape string, start time.Time, out *types.RulesOutput) {
	d := time.Since(start)
	s.metrics.ObserveEvaluation(profileID, shape, d)
	s.logger.Debug("intake evaluated",
		zap.String("profile_id", profileID),
		zap.String("shape", shape),
		zap.Int("visible_fields", len(out.VisibleFields)),
		zap.Int("required_fields", len(out.RequiredFields)),
		zap.Int("applied_defaults", len(out.AppliedDefaults)),
		zap.Duration("duration", d),
	)
}

// fail records a failed evaluation and returns err unchanged.
func (s *Service) fail(err error) error {
	reason := FailureReason(err)
	s.metrics.IncrementEvaluationFailure(reason)
	s.logger.Debug("intake evaluation failed", zap.String("reason", reason), zap.Error(err))
	return err
}

// FailureReason classifies an evaluation error for metrics.
func FailureReason(err error) string {
	switch {
	case eris.Is(err, types.ErrInvalidIntake):
		return "invalid_intake"
	case eris.Is(err, types.ErrProfileNotFound):
		return "not_found"
	default:
		return "config"
	}
}
