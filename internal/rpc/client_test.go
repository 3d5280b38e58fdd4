package rpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ahinestrog/bookshop/internal/apperr"
)

func Test_FromStatus(t *testing.T) {
	tests := []struct {
		code codes.Code
		want error
	}{
		{code: codes.NotFound, want: apperr.ErrNotFound},
		{code: codes.FailedPrecondition, want: apperr.ErrConflict},
		{code: codes.InvalidArgument, want: apperr.ErrValidation},
		{code: codes.Unauthenticated, want: apperr.ErrUnauthorized},
		{code: codes.PermissionDenied, want: apperr.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := fromStatus(status.Error(tt.code, "order 3: not found"))
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, "order 3: not found", err.Error())
		})
	}

	internal := status.Error(codes.Internal, "boom")
	assert.Equal(t, internal, fromStatus(internal))
	plain := errors.New("dial failed")
	assert.Equal(t, plain, fromStatus(plain))
	assert.NoError(t, fromStatus(nil))
}
