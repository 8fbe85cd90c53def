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
package schema

// FreeObjectName is the qualified name of the free object type.  Free
// objects are ad hoc shapes without a backing table, hence they carry no
// identity pointer.
const FreeObjectName = "std::FreeObject"

// BaseObjectName is the qualified name of the root object type from which
// all object types (implicitly) derive.
const BaseObjectName = "std::BaseObject"

// stdScalars enumerates the scalar types every schema starts out with.
var stdScalars = []string{
	"std::str",
	"std::int64",
	"std::float64",
	"std::decimal",
	"std::bool",
	"std::bytes",
	"std::uuid",
	"std::datetime",
	"std::duration",
	"std::json",
}

// registerPrelude installs the standard types available to every schema.
func (p *Schema) registerPrelude() {
	for _, name := range stdScalars {
		p.mustRegisterType(&Type{Name: name, Kind: ScalarKind})
	}
	// Pseudo types used by polymorphic signatures.
	p.mustRegisterType(&Type{Name: "anytype", Kind: PseudoKind, Abstract: true})
	p.mustRegisterType(&Type{Name: "anytuple", Kind: PseudoKind, Abstract: true})
	// Object roots.
	base := &Type{Name: BaseObjectName, Kind: ObjectKind, Abstract: true}
	p.mustRegisterType(base)
	p.mustRegisterType(&Type{Name: "std::Object", Kind: ObjectKind, Abstract: true, Bases: []*Type{base}})
	p.mustRegisterType(&Type{Name: FreeObjectName, Kind: ObjectKind})
}

// mustRegisterType registers a built-in type, for which registration can
// only fail if the prelude itself is inconsistent.
func (p *Schema) mustRegisterType(t *Type) {
	if err := p.RegisterType(t); err != nil {
		panic(err)
	}
}
