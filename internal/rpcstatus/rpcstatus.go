// Copyright 2024 The Hummock Authors
// This file is part of hummock.

// Package rpcstatus maps the herrors error-kind taxonomy (spec §7) onto
// gRPC's codes/status types, so barrier RPC and exchange RPC handlers can
// return errors callers across the wire can branch on without leaking
// hummock-internal error values.
package rpcstatus

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/erigontech/hummock/hummock/herrors"
)

// FromError converts err into a gRPC status matching its herrors kind. A
// nil err maps to codes.OK's implicit nil.
func FromError(err error) error {
	if err == nil {
		return nil
	}

	var short *herrors.ShortReadError
	switch {
	case errors.Is(err, herrors.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &short):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, herrors.ErrDecoding):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, herrors.ErrIO):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, herrors.ErrProtocol):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, herrors.ErrConnectionUnestablished):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// ToError converts a gRPC status error back into the closest matching
// herrors sentinel, for callers that want to branch with errors.Is on the
// client side of an RPC.
func ToError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", herrors.ErrNotFound, st.Message())
	case codes.InvalidArgument:
		return herrors.Decoding("%s", st.Message())
	case codes.DataLoss:
		return herrors.IO("%s", st.Message())
	case codes.Unavailable:
		return herrors.IO("%s", st.Message())
	case codes.FailedPrecondition:
		return herrors.Protocol("%s", st.Message())
	default:
		return err
	}
}
