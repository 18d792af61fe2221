package api

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/estimator/internal/service"
	"github.com/solatis/estimator/internal/types"
)

// Error mapping:
//   invalid intake, snapshot status or request shape -> INVALID_ARGUMENT
//   unknown profile or project                       -> NOT_FOUND
//   configuration defects                            -> INTERNAL
//   missing or failing snapshot store                -> UNAVAILABLE
//   context deadline / cancellation                  -> DEADLINE_EXCEEDED / CANCELED
// Anything unclassified maps to fallback.

var configErrors = []error{
	types.ErrInvalidDocument,
	types.ErrEmptyGroup,
	types.ErrAmbiguousGroup,
	types.ErrUnsupportedOperator,
	types.ErrInvalidInValue,
	types.ErrTooManyInValues,
	types.ErrGroupTooDeep,
	types.ErrPathTooDeep,
	types.ErrEmptyPath,
	types.ErrDuplicateProfile,
	types.ErrMissingGlobalProfile,
}

// errBadRequest marks malformed request envelopes.
var errBadRequest = eris.New("bad request")

func toStatus(err error, fallback codes.Code) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := fallback
	switch {
	case eris.Is(err, types.ErrInvalidIntake), eris.Is(err, types.ErrInvalidStatus), eris.Is(err, errBadRequest):
		code = codes.InvalidArgument
	case eris.Is(err, types.ErrProfileNotFound), eris.Is(err, types.ErrProjectNotFound):
		code = codes.NotFound
	case eris.Is(err, service.ErrNoStore):
		code = codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		for _, cfgErr := range configErrors {
			if eris.Is(err, cfgErr) {
				code = codes.Internal
				break
			}
		}
	}
	return status.Error(code, err.Error())
}
