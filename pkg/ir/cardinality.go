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

import (
	"github.com/vinelang/go-vine/pkg/schema"
)

// Cardinality describes how many values an expression can produce, combining
// an upper bound (one versus many) with a lower bound (whether the empty set
// is possible).  The ordering of the constants is meaningful: taking the
// numeric maximum of two cardinalities yields the worst case of the pair.
type Cardinality uint8

const (
	// CardUnknown indicates cardinality has not yet been inferred.
	CardUnknown Cardinality = iota
	// CardAtMostOne indicates zero or one values.
	CardAtMostOne
	// CardOne indicates exactly one value.
	CardOne
	// CardMany indicates zero or more values.
	CardMany
	// CardAtLeastOne indicates one or more values.
	CardAtLeastOne
)

// IsSingle checks whether this cardinality excludes multiple values.
func (p Cardinality) IsSingle() bool {
	return p == CardAtMostOne || p == CardOne
}

// IsMulti checks whether this cardinality admits multiple values.
func (p Cardinality) IsMulti() bool {
	return p == CardMany || p == CardAtLeastOne
}

// CanBeZero checks whether this cardinality admits the empty set.
func (p Cardinality) CanBeZero() bool {
	return p == CardAtMostOne || p == CardMany
}

// IsKnown checks whether this cardinality has been determined at all.
func (p Cardinality) IsKnown() bool {
	return p != CardUnknown
}

// ToSchemaValue splits this cardinality into its schema representation, being
// a required (lower bound) flag along with a one-versus-many upper bound.
func (p Cardinality) ToSchemaValue() (bool, schema.Cardinality) {
	switch p {
	case CardAtMostOne:
		return false, schema.One
	case CardOne:
		return true, schema.One
	case CardMany:
		return false, schema.Many
	case CardAtLeastOne:
		return true, schema.Many
	default:
		panic("unknown cardinality has no schema value")
	}
}

// CardinalityFromSchemaValue reconstructs a cardinality from a required flag
// and a schema upper bound.  This is the inverse of ToSchemaValue.
func CardinalityFromSchemaValue(required bool, card schema.Cardinality) Cardinality {
	if card == schema.Many {
		if required {
			return CardAtLeastOne
		}
		//
		return CardMany
	} else if required {
		return CardOne
	}
	//
	return CardAtMostOne
}

func (p Cardinality) String() string {
	switch p {
	case CardAtMostOne:
		return "AtMostOne"
	case CardOne:
		return "One"
	case CardMany:
		return "Many"
	case CardAtLeastOne:
		return "AtLeastOne"
	default:
		return "Unknown"
	}
}
