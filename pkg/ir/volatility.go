// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package ir

// Volatility classifies how stable an expression's value is across repeated
// evaluation.  Immutable expressions depend only on their inputs, stable ones
// may also read database state, volatile ones can differ between calls within
// one statement, and modifying ones additionally write database state.  The
// numeric maximum of two volatilities is the more restrictive of the pair.
type Volatility uint8

const (
	// VolUnknown indicates volatility has not yet been inferred.
	VolUnknown Volatility = iota
	// VolImmutable indicates the value depends only on the inputs.
	VolImmutable
	// VolStable indicates the value may additionally depend on database
	// state, but cannot change within a single statement.
	VolStable
	// VolVolatile indicates the value can differ between evaluations even
	// within a single statement.
	VolVolatile
	// VolModifying indicates evaluation additionally mutates database
	// state.
	VolModifying
)

// IsVolatile checks whether the expression can produce different values
// within one statement.
func (p Volatility) IsVolatile() bool {
	return p == VolVolatile || p == VolModifying
}

func (p Volatility) String() string {
	switch p {
	case VolImmutable:
		return "Immutable"
	case VolStable:
		return "Stable"
	case VolVolatile:
		return "Volatile"
	case VolModifying:
		return "Modifying"
	default:
		return "Unknown"
	}
}

// VolatilityInfo pairs the true volatility of an expression with the value
// the materialization machinery should use instead.  The two differ only for
// data modification statements, whose side effects must pessimise generic
// caching yet not the dedicated hoisting of mutations.
type VolatilityInfo struct {
	// Real volatility of the expression.
	Real Volatility
	// Materialization volatility as seen by the materializer.
	Materialization Volatility
}

// VolatilityOf lifts a plain volatility into an info record with both
// components equal.
func VolatilityOf(vol Volatility) VolatilityInfo {
	return VolatilityInfo{Real: vol, Materialization: vol}
}

// Max determines the componentwise worst case of two volatility records.
func (p VolatilityInfo) Max(other VolatilityInfo) VolatilityInfo {
	return VolatilityInfo{
		Real:            maxVolatility(p.Real, other.Real),
		Materialization: maxVolatility(p.Materialization, other.Materialization),
	}
}

// Component selects either the materialization volatility or the real one.
func (p VolatilityInfo) Component(materialization bool) Volatility {
	if materialization {
		return p.Materialization
	}
	//
	return p.Real
}

func maxVolatility(l Volatility, r Volatility) Volatility {
	if l < r {
		return r
	}
	//
	return l
}
