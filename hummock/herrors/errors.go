// Copyright 2024 The Hummock Authors
// This file is part of hummock.
//
// hummock is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// hummock is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with hummock. If not, see <http://www.gnu.org/licenses/>.

// Package herrors defines the error-kind taxonomy shared by the storage and
// barrier packages (spec §7). Kinds are sentinel values usable with
// errors.Is, except ShortReadError which carries fields and is matched with
// errors.As.
package herrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a lookup miss. Iteration exhaustion is never
// reported through this error; only point lookups use it.
var ErrNotFound = errors.New("hummock: not found")

// ErrDecoding indicates a malformed key or value. Fatal to the enclosing
// operation; callers should not retry without fixing the input.
var ErrDecoding = errors.New("hummock: decoding error")

// ErrIO indicates a transient transport or storage failure. The caller
// decides whether and how to retry.
var ErrIO = errors.New("hummock: io error")

// ErrProtocol indicates a violated state-machine invariant. Unrecoverable by
// the component that raised it; the owning worker is expected to crash and
// be re-admitted through recovery.
var ErrProtocol = errors.New("hummock: protocol violation")

// ErrInternal is the catch-all for unclassified failures.
var ErrInternal = errors.New("hummock: internal error")

// ErrConnectionUnestablished mirrors the exchange RPC's "connection
// unestablished" failure when a caller omits peer address metadata (§6.4).
var ErrConnectionUnestablished = errors.New("hummock: connection unestablished")

// ShortReadError reports an object-store read that returned fewer bytes than
// requested — an integrity failure investigated by the operator, not a
// transient condition (§4.5, §7).
type ShortReadError struct {
	Path     string
	Expected int
	Found    int
	Range    string
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("hummock: short read on %q (range %s): expected %d bytes, found %d",
		e.Path, e.Range, e.Expected, e.Found)
}

// Is reports whether target is the ErrIO sentinel, so callers that only
// branch on the coarse error kind can use errors.Is(err, herrors.ErrIO) and
// still catch short reads: a short read is an I/O-shaped failure at the
// transport boundary even though it carries structured context.
func (e *ShortReadError) Is(target error) bool {
	return target == ErrIO
}

// Protocol wraps ErrProtocol with a message describing the violated guard,
// for use at barrier state machine transition sites.
func Protocol(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrProtocol, fmt.Sprintf(format, args...))
}

// Decoding wraps ErrDecoding with context.
func Decoding(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecoding, fmt.Sprintf(format, args...))
}

// IO wraps ErrIO with context.
func IO(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIO, fmt.Sprintf(format, args...))
}
