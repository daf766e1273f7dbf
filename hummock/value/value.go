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

// Package value implements HummockValue (spec §3.2): a Put carrying a
// payload or a Delete tombstone. Iterators return Values whose Payload may
// be borrowed from block or run storage; callers must not retain a Payload
// past a call that advances the iterator that produced it.
package value

// Kind tags which variant a Value holds.
type Kind uint8

const (
	// KindPut means Payload is the stored value.
	KindPut Kind = iota
	// KindDelete means the key is a tombstone; Payload is unused.
	KindDelete
)

// Value is the sum type Put(bytes) | Delete.
type Value struct {
	Kind    Kind
	Payload []byte
}

// Put constructs a Put value wrapping payload.
func Put(payload []byte) Value {
	return Value{Kind: KindPut, Payload: payload}
}

// Delete constructs a tombstone.
func Delete() Value {
	return Value{Kind: KindDelete}
}

// IsDelete reports whether v is a tombstone.
func (v Value) IsDelete() bool {
	return v.Kind == KindDelete
}

// IntoPut returns (payload, true) for a Put value, or (nil, false) for a
// Delete — the Go analogue of the teacher-adjacent `into_put_value` used
// throughout the original's test suite.
func (v Value) IntoPut() ([]byte, bool) {
	if v.Kind == KindDelete {
		return nil, false
	}
	return v.Payload, true
}

// Clone returns a Value with its own copy of Payload, for callers that need
// to retain a value past the next iterator advance.
func (v Value) Clone() Value {
	if v.Kind == KindDelete || v.Payload == nil {
		return v
	}
	cp := make([]byte, len(v.Payload))
	copy(cp, v.Payload)
	return Value{Kind: v.Kind, Payload: cp}
}
