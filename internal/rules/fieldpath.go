// internal/rules/fieldpath.go
package rules

import (
	"strings"

	"github.com/solatis/estimator/internal/types"
)

/*
 * Field path resolution over nested intake data.
 *
 * Paths are dot-separated keys, optionally qualified with "intake.". The
 * prefix is stripped once so rule authors may write either form. Traversal
 * only descends into objects: a missing key, a non-object intermediate or a
 * null leaf all resolve to "absent". Lists are opaque here and are tested
 * with the contains operator.
 *
 * Resolution never fails. Shape mismatches are expected while a user is
 * still filling in an intake draft.
 */

// ParsePath strips the optional "intake." prefix and splits path into segments.
// Returns ErrEmptyPath for an empty path and ErrPathTooDeep beyond MaxPathDepth.
func ParsePath(path string) ([]string, error) {
	trimmed := strings.TrimPrefix(path, types.IntakePrefix)
	if trimmed == "" {
		return nil, types.ErrEmptyPath
	}
	segments := strings.Split(trimmed, ".")
	if len(segments) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}
	return segments, nil
}

// Resolve walks data along segments. The boolean is false when any segment
// is missing, an intermediate value is not an object, or the leaf is null.
func Resolve(data map[string]any, segments []string) (any, bool) {
	if len(segments) == 0 {
		return nil, false
	}
	var current any = data
	for _, seg := range segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// ResolvePath parses path and resolves it; malformed paths are absent.
func ResolvePath(data map[string]any, path string) (any, bool) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, false
	}
	return Resolve(data, segments)
}

// Exists reports whether path resolves to a non-null value in data.
func Exists(data map[string]any, path string) bool {
	_, ok := ResolvePath(data, path)
	return ok
}
