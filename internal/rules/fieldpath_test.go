// internal/rules/fieldpath_test.go
package rules

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/estimator/internal/types"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    []string
		wantErr error
	}{
		{name: "single segment", path: "work_for", want: []string{"work_for"}},
		{name: "nested", path: "access_logistics.work_floor", want: []string{"access_logistics", "work_floor"}},
		{name: "intake prefix stripped", path: "intake.work_at_height.height_above_1_8m", want: []string{"work_at_height", "height_above_1_8m"}},
		{name: "prefix only stripped once", path: "intake.intake.x", want: []string{"intake", "x"}},
		{name: "bare intake is a key", path: "intake", want: []string{"intake"}},
		{name: "empty", path: "", wantErr: types.ErrEmptyPath},
		{name: "prefix without rest", path: "intake.", wantErr: types.ErrEmptyPath},
		{name: "too deep", path: strings.Repeat("a.", types.MaxPathDepth) + "a", wantErr: types.ErrPathTooDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("ParsePath(%q) error = %v, want %v", tt.path, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v, want nil", tt.path, err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("ParsePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	data := map[string]any{
		"work_for": "third_party",
		"access_logistics": map[string]any{
			"work_floor":           float64(3),
			"access_pass_required": false,
			"vehicle_max_height_m": nil,
		},
		"mall_areas":  []any{"tenant_unit"},
		"client_type": nil,
	}

	tests := []struct {
		name      string
		path      string
		wantValue any
		wantFound bool
	}{
		{name: "top level", path: "work_for", wantValue: "third_party", wantFound: true},
		{name: "nested", path: "access_logistics.work_floor", wantValue: float64(3), wantFound: true},
		{name: "false is present", path: "access_logistics.access_pass_required", wantValue: false, wantFound: true},
		{name: "prefixed", path: "intake.access_logistics.work_floor", wantValue: float64(3), wantFound: true},
		{name: "null leaf is absent", path: "client_type"},
		{name: "nested null is absent", path: "access_logistics.vehicle_max_height_m"},
		{name: "missing key", path: "object_category"},
		{name: "missing nested key", path: "access_logistics.unknown"},
		{name: "through scalar", path: "work_for.value"},
		{name: "through list", path: "mall_areas.0"},
		{name: "through null", path: "client_type.kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ResolvePath(data, tt.path)
			if found != tt.wantFound {
				t.Fatalf("ResolvePath(%q) found = %v, want %v", tt.path, found, tt.wantFound)
			}
			if found && got != tt.wantValue {
				t.Errorf("ResolvePath(%q) = %v, want %v", tt.path, got, tt.wantValue)
			}
			if Exists(data, tt.path) != tt.wantFound {
				t.Errorf("Exists(%q) = %v, want %v", tt.path, !tt.wantFound, tt.wantFound)
			}
		})
	}
}

func TestResolve_NilData(t *testing.T) {
	if _, found := ResolvePath(nil, "work_for"); found {
		t.Error("ResolvePath(nil) found = true, want false")
	}
	if _, found := Resolve(map[string]any{"a": 1}, nil); found {
		t.Error("Resolve(empty path) found = true, want false")
	}
}

// Property-based test: resolution never panics on arbitrary paths
func TestResolve_PropertyNeverCrashes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	data := map[string]any{
		"a": map[string]any{"b": []any{"c"}, "n": nil},
		"s": "text",
	}

	keys := []string{"a", "b", "c", "n", "s", "intake", ""}

	properties.Property("resolution never crashes regardless of path", prop.ForAll(
		func(picks []int) bool {
			segments := make([]string, len(picks))
			for i, p := range picks {
				segments[i] = keys[p]
			}
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Resolve(%v) panicked: %v", segments, r)
				}
			}()
			_, _ = Resolve(data, segments)
			_ = Exists(data, strings.Join(segments, "."))
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(keys)-1)),
	))

	properties.TestingRun(t)
}

// Property-based test: the intake prefix never changes the result
func TestResolve_PropertyPrefixTransparent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	data := map[string]any{
		"x": map[string]any{"y": map[string]any{"z": float64(1)}, "w": "v"},
		"y": true,
	}

	keys := []string{"x", "y", "z", "w"}

	properties.Property("intake. prefix resolves identically", prop.ForAll(
		func(a, b, c int) bool {
			path := strings.Join([]string{keys[a], keys[b], keys[c]}[:1+a%3], ".")
			v1, ok1 := ResolvePath(data, path)
			v2, ok2 := ResolvePath(data, types.IntakePrefix+path)
			return ok1 == ok2 && reflect.DeepEqual(v1, v2)
		},
		gen.IntRange(0, len(keys)-1),
		gen.IntRange(0, len(keys)-1),
		gen.IntRange(0, len(keys)-1),
	))

	properties.TestingRun(t)
}
