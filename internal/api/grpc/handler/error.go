package handler

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"

	"github.com/dtroode/authkeeper/internal/model"
	"github.com/dtroode/authkeeper/internal/password"
)

// errorDomain is the ErrorInfo domain of every status returned by the service.
const errorDomain = "authkeeper"

// Stable error reasons carried in google.rpc.ErrorInfo.
const (
	ReasonUnauthenticated  = "UNAUTHENTICATED"
	ReasonNotActivated     = "NOT_ACTIVATED"
	ReasonConflict         = "CONFLICT"
	ReasonTokenInvalid     = "TOKEN_INVALID"
	ReasonNotFound         = "NOT_FOUND"
	ReasonAlreadyActivated = "ALREADY_ACTIVATED"
	ReasonInvalidArgument  = "INVALID_ARGUMENT"
	ReasonInternal         = "INTERNAL"
)

func handleError(err error) error {
	var conflict *model.ConflictError
	switch {
	case errors.As(err, &conflict):
		return statusWithReason(codes.AlreadyExists, conflict.Error(), ReasonConflict,
			map[string]string{"field": conflict.Field})
	case errors.Is(err, model.ErrConflict):
		return statusWithReason(codes.AlreadyExists, model.ErrConflict.Error(), ReasonConflict, nil)
	case errors.Is(err, model.ErrUnauthenticated):
		return statusWithReason(codes.Unauthenticated, model.ErrUnauthenticated.Error(), ReasonUnauthenticated, nil)
	case errors.Is(err, model.ErrNotActivated):
		return statusWithReason(codes.FailedPrecondition, model.ErrNotActivated.Error(), ReasonNotActivated, nil)
	case errors.Is(err, model.ErrTokenInvalid):
		return statusWithReason(codes.InvalidArgument, model.ErrTokenInvalid.Error(), ReasonTokenInvalid, nil)
	case errors.Is(err, model.ErrAlreadyActivated):
		return statusWithReason(codes.FailedPrecondition, model.ErrAlreadyActivated.Error(), ReasonAlreadyActivated, nil)
	case errors.Is(err, password.ErrPasswordTooLong):
		return statusWithReason(codes.InvalidArgument, password.ErrPasswordTooLong.Error(), ReasonInvalidArgument, nil)
	case errors.Is(err, password.ErrEmptyPassword):
		return statusWithReason(codes.InvalidArgument, password.ErrEmptyPassword.Error(), ReasonInvalidArgument, nil)
	case errors.Is(err, model.ErrNotFound):
		return statusWithReason(codes.NotFound, "not found", ReasonNotFound, nil)
	default:
		return statusWithReason(codes.Internal, "internal server error", ReasonInternal, nil)
	}
}

func invalidArgument(msg string) error {
	return statusWithReason(codes.InvalidArgument, msg, ReasonInvalidArgument, nil)
}

// invalidRequest maps a request validation failure to InvalidArgument with
// one BadRequest violation per field.
func invalidRequest(err error) error {
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return invalidArgument(err.Error())
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	violations := make([]*errdetails.BadRequest_FieldViolation, 0, len(names))
	for _, name := range names {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       name,
			Description: fields[name].Error(),
		})
	}

	return statusWithReason(codes.InvalidArgument, err.Error(), ReasonInvalidArgument, nil,
		&errdetails.BadRequest{FieldViolations: violations})
}

func statusWithReason(code codes.Code, msg, reason string, metadata map[string]string, extra ...protoadapt.MessageV1) error {
	st := status.New(code, msg)
	details := append([]protoadapt.MessageV1{&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   errorDomain,
		Metadata: metadata,
	}}, extra...)
	withDetails, err := st.WithDetails(details...)
	if err != nil {
		return st.Err()
	}
	return withDetails.Err()
}

// ReasonFromError returns the ErrorInfo reason of a status error, or "" if it carries none.
func ReasonFromError(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}
