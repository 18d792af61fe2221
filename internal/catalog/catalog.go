// Package catalog loads the location profiles and rules documents that
// drive intake evaluation.
//
// Documents may be JSON or YAML (chosen by file extension). Loading runs in
// three stages: decode to a generic tree preserving key order, validate the
// tree against an embedded JSON Schema, then decode strictly into typed
// documents and check cross-document constraints. A Catalog is immutable once
// built and may be shared by concurrent evaluations.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/estimator/configs"
	"github.com/solatis/estimator/internal/core/metrics"
	"github.com/solatis/estimator/internal/location"
	"github.com/solatis/estimator/internal/rules"
	"github.com/solatis/estimator/internal/types"
)

// Catalog is a validated, compiled configuration set.
type Catalog struct {
	Profiles     []types.LocationProfile
	Resolver     *location.Resolver
	Engine       *rules.Engine
	RulesVersion string
}

// Options selects the documents to load. Empty paths use the embedded defaults.
type Options struct {
	ProfilesPath string
	RulesPath    string
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// Load reads both documents concurrently and builds a Catalog.
func Load(ctx context.Context, opts Options) (*Catalog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		profiles *types.ProfilesDocument
		rulesDoc *types.RulesDocument
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, format, err := readDocument(ctx, opts.ProfilesPath, configs.ProfilesFile)
		if err == nil {
			profiles, err = ParseProfiles(data, format)
		}
		opts.Metrics.IncrementCatalogLoad("profiles", err)
		return eris.Wrapf(err, "catalog: load profiles %s", describe(opts.ProfilesPath))
	})
	g.Go(func() error {
		data, format, err := readDocument(ctx, opts.RulesPath, configs.RulesFile)
		if err == nil {
			rulesDoc, err = ParseRules(data, format)
		}
		opts.Metrics.IncrementCatalogLoad("rules", err)
		return eris.Wrapf(err, "catalog: load rules %s", describe(opts.RulesPath))
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat, err := New(profiles, rulesDoc)
	if err != nil {
		return nil, err
	}

	logger.Info("catalog loaded",
		zap.String("profiles_source", describe(opts.ProfilesPath)),
		zap.String("rules_source", describe(opts.RulesPath)),
		zap.Int("profiles", len(cat.Profiles)),
		zap.String("rules_version", cat.RulesVersion),
		zap.Int("visibility_rules", len(rulesDoc.VisibilityRules)),
		zap.Int("required_rules", len(rulesDoc.RequiredRules)),
	)
	return cat, nil
}

// New checks cross-document constraints and compiles the rules.
func New(profiles *types.ProfilesDocument, rulesDoc *types.RulesDocument) (*Catalog, error) {
	seen := make(map[string]struct{}, len(profiles.Profiles))
	for _, p := range profiles.Profiles {
		if _, dup := seen[p.ProfileID]; dup {
			return nil, eris.Wrapf(types.ErrDuplicateProfile, "%s", p.ProfileID)
		}
		seen[p.ProfileID] = struct{}{}
		if err := checkDefaultPaths(&p); err != nil {
			return nil, err
		}
	}
	if _, ok := seen[types.GlobalProfileID]; !ok {
		return nil, eris.Wrapf(types.ErrMissingGlobalProfile, "%s", types.GlobalProfileID)
	}

	engine, err := rules.NewEngine(rulesDoc)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: compile rules")
	}

	return &Catalog{
		Profiles:     profiles.Profiles,
		Resolver:     location.NewResolver(profiles.Profiles),
		Engine:       engine,
		RulesVersion: rulesDoc.Version,
	}, nil
}

// checkDefaultPaths rejects default fields the engine could not resolve.
// An unresolvable field always reads as absent, so its default would be
// applied over a provided value.
func checkDefaultPaths(p *types.LocationProfile) error {
	for _, dv := range p.DefaultValues {
		if _, err := rules.ParsePath(dv.Field); err != nil {
			return eris.Wrapf(err, "profile %s: default %q", p.ProfileID, dv.Field)
		}
	}

	tags := make([]string, 0, len(p.MallAreaDefaults))
	for tag := range p.MallAreaDefaults {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		for _, rd := range p.MallAreaDefaults[tag] {
			if _, err := rules.ParsePath(rd.Field); err != nil {
				return eris.Wrapf(err, "profile %s: mall area %s default %q", p.ProfileID, tag, rd.Field)
			}
		}
	}
	return nil
}

// Profile looks up a profile by id, returning ErrProfileNotFound on a miss.
func (c *Catalog) Profile(id string) (*types.LocationProfile, error) {
	p, ok := c.Resolver.Get(id)
	if !ok {
		return nil, eris.Wrapf(types.ErrProfileNotFound, "%s", id)
	}
	return p, nil
}

func readDocument(ctx context.Context, path, embedded string) ([]byte, Format, error) {
	if err := ctx.Err(); err != nil {
		return nil, FormatJSON, err
	}
	if path == "" {
		data, err := configs.Defaults.ReadFile(embedded)
		return data, FormatFor(embedded), eris.Wrap(err, "read embedded document")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, FormatJSON, eris.Wrap(err, "read document")
	}
	return data, FormatFor(path), nil
}

func describe(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// Format is the encoding of a configuration document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the format from a file extension; anything but
// .yaml/.yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}
