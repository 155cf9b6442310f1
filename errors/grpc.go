package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MapToGRPCError converts a domain error into a gRPC status error.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(grpcCode(KindOf(err)), err.Error())
}

func grpcCode(kind Kind) codes.Code {
	switch kind {
	case KindInvalidState:
		return codes.FailedPrecondition
	case KindNotFound:
		return codes.NotFound
	case KindValidation:
		return codes.InvalidArgument
	case KindConflict:
		return codes.AlreadyExists
	case KindPersistence:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
