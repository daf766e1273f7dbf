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

// Package xmath collects small integer helpers shared by the storage and
// barrier packages: epoch gap arithmetic for barrier recovery (§4.3) and
// block-count rounding for the table builder (§3.4).
package xmath

// AbsoluteDifference returns |x - y| without risking unsigned underflow,
// used to report the epoch gap between consecutive barriers in logs.
func AbsoluteDifference(x, y uint64) uint64 {
	if x > y {
		return x - y
	}
	return y - x
}

// CeilDiv returns ceil(x / y), or 0 when y is 0.
func CeilDiv(x, y int) int {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}
