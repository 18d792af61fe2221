// Package snapshot persists projects and immutable intake snapshots.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/solatis/estimator/internal/core/db"
	"github.com/solatis/estimator/internal/types"
)

// timeLayout is RFC 3339 with fixed-width nanoseconds so stored text sorts
// chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Status is the lifecycle state of a snapshot.
type Status string

const (
	StatusDraft Status = "draft"
	StatusFinal Status = "final"
)

// ParseStatus validates s. An empty status means draft.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusDraft, nil
	case StatusDraft, StatusFinal:
		return Status(s), nil
	default:
		return "", eris.Wrapf(types.ErrInvalidStatus, "%q", s)
	}
}

// Project groups the snapshots of one estimate.
type Project struct {
	ProjectID types.ProjectID `json:"project_id"`
	TenantID  string          `json:"tenant_id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot is a stored copy of a validated intake.
type Snapshot struct {
	SnapshotID types.SnapshotID `json:"snapshot_id"`
	Status     Status           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	Intake     map[string]any   `json:"intake"`
}

type projectRow struct {
	ProjectID string `db:"project_id"`
	TenantID  string `db:"tenant_id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

type snapshotRow struct {
	SnapshotID string `db:"snapshot_id"`
	TenantID   string `db:"tenant_id"`
	ProjectID  string `db:"project_id"`
	Status     string `db:"status"`
	CreatedAt  string `db:"created_at"`
	Intake     string `db:"intake"`
}

// Store reads and writes projects and snapshots. All access is scoped to a
// tenant: a project of another tenant is reported as not found.
type Store struct {
	q   *db.Queries
	now func() time.Time
}

// NewStore creates a store over loaded queries.
func NewStore(q *db.Queries) *Store {
	return &Store{q: q, now: time.Now}
}

// CreateProject registers a new project for tenant.
func (s *Store) CreateProject(ctx context.Context, tenantID, name string) (*Project, error) {
	p := &Project{
		ProjectID: types.NewProjectID(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.q.Exec(ctx, "insert-project",
		string(p.ProjectID), p.TenantID, p.Name, p.CreatedAt.Format(timeLayout))
	if err != nil {
		return nil, eris.Wrap(err, "insert project")
	}
	return p, nil
}

// GetProject loads a project, returning ErrProjectNotFound on a miss.
func (s *Store) GetProject(ctx context.Context, tenantID string, projectID types.ProjectID) (*Project, error) {
	var row projectRow
	err := s.q.Get(ctx, "get-project", &row, tenantID, string(projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(types.ErrProjectNotFound, "%s", projectID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "get project")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "project %s created_at", row.ProjectID)
	}
	return &Project{
		ProjectID: types.ProjectID(row.ProjectID),
		TenantID:  row.TenantID,
		Name:      row.Name,
		CreatedAt: createdAt,
	}, nil
}

// CreateSnapshot stores intake under project with a fresh id and timestamp.
func (s *Store) CreateSnapshot(ctx context.Context, tenantID string, projectID types.ProjectID, status Status, intake map[string]any) (*Snapshot, error) {
	if _, err := s.GetProject(ctx, tenantID, projectID); err != nil {
		return nil, err
	}

	body, err := json.Marshal(intake)
	if err != nil {
		return nil, eris.Wrap(err, "marshal intake")
	}

	snap := &Snapshot{
		SnapshotID: types.NewSnapshotID(),
		Status:     status,
		CreatedAt:  s.now().UTC(),
		Intake:     intake,
	}
	_, err = s.q.Exec(ctx, "insert-snapshot",
		string(snap.SnapshotID), tenantID, string(projectID), string(status),
		snap.CreatedAt.Format(timeLayout), string(body))
	if err != nil {
		return nil, eris.Wrap(err, "insert snapshot")
	}
	return snap, nil
}

// ListSnapshots returns the project's snapshots oldest first.
func (s *Store) ListSnapshots(ctx context.Context, tenantID string, projectID types.ProjectID) ([]Snapshot, error) {
	if _, err := s.GetProject(ctx, tenantID, projectID); err != nil {
		return nil, err
	}

	var rows []snapshotRow
	if err := s.q.Select(ctx, "list-snapshots", &rows, tenantID, string(projectID)); err != nil {
		return nil, eris.Wrap(err, "list snapshots")
	}

	out := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		createdAt, err := time.Parse(time.RFC3339Nano, row.CreatedAt)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot %s created_at", row.SnapshotID)
		}
		var intake map[string]any
		if err := json.Unmarshal([]byte(row.Intake), &intake); err != nil {
			return nil, eris.Wrapf(err, "snapshot %s intake", row.SnapshotID)
		}
		out = append(out, Snapshot{
			SnapshotID: types.SnapshotID(row.SnapshotID),
			Status:     Status(row.Status),
			CreatedAt:  createdAt,
			Intake:     intake,
		})
	}
	return out, nil
}
