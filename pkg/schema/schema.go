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

import (
	"fmt"

	"github.com/google/uuid"
)

// idNamespace is the UUIDv5 namespace from which all schema entity
// identifiers are derived.  Deriving identifiers from qualified names keeps
// them stable across loads of the same schema, which in turn keeps path
// identities and their hashes stable.
var idNamespace = uuid.MustParse("8fc224e8-1b08-4a8e-9f21-7c91cb06c4d1")

// NameToID derives the stable identifier for a schema entity with the given
// qualified name.
func NameToID(name string) uuid.UUID {
	return uuid.NewSHA1(idNamespace, []byte(name))
}

// Cardinality describes how many target values a pointer may hold per source
// object, as declared in the schema.
type Cardinality uint8

const (
	// One indicates a pointer holds at most one target value per source.
	One Cardinality = iota
	// Many indicates a pointer may hold any number of target values.
	Many
)

// TypeKind distinguishes the flavours of schema types.
type TypeKind uint8

const (
	// ObjectKind identifies object types (rows with identity).
	ObjectKind TypeKind = iota
	// ScalarKind identifies scalar types (plain values).
	ScalarKind
	// PseudoKind identifies pseudo types (anytype, anytuple).
	PseudoKind
)

// PointerKind distinguishes links (object-valued pointers) from properties
// (scalar-valued pointers).
type PointerKind uint8

const (
	// Link identifies an object-valued pointer.
	Link PointerKind = iota
	// Property identifies a scalar-valued pointer.
	Property
)

func (p PointerKind) String() string {
	if p == Link {
		return "link"
	}

	return "property"
}

// Type represents a single named type in the schema.
type Type struct {
	// ID is the stable identifier of this type.
	ID uuid.UUID
	// Name is the qualified name of this type (e.g. "app::User").
	Name string
	// Kind determines whether this is an object, scalar or pseudo type.
	Kind TypeKind
	// Abstract types cannot be instantiated directly.
	Abstract bool
	// Bases are the direct supertypes of this type.
	Bases []*Type
	// Pointers declared directly on this type.
	pointers []*Pointer
	// Direct subtypes, maintained by the schema as types register.
	children []*Type
}

// IsObject determines whether this is an object type.
func (p *Type) IsObject() bool {
	return p.Kind == ObjectKind
}

// Pointer looks up a pointer by (short) name on this type, searching base
// types when the type itself does not declare it.
func (p *Type) Pointer(name string) (*Pointer, bool) {
	for _, ptr := range p.pointers {
		if ptr.Name == name {
			return ptr, true
		}
	}
	// Search supertypes
	for _, base := range p.Bases {
		if ptr, ok := base.Pointer(name); ok {
			return ptr, true
		}
	}
	//
	return nil, false
}

// Pointers returns the pointers declared directly on this type.
func (p *Type) Pointers() []*Pointer {
	return p.pointers
}

// Descendants returns all transitive subtypes of this type (excluding the
// type itself).
func (p *Type) Descendants() []*Type {
	var descendants []*Type
	//
	for _, child := range p.children {
		descendants = append(descendants, child)
		descendants = append(descendants, child.Descendants()...)
	}
	//
	return descendants
}

// Ancestors returns all transitive supertypes of this type (excluding the
// type itself).
func (p *Type) Ancestors() []*Type {
	var ancestors []*Type
	//
	for _, base := range p.Bases {
		ancestors = append(ancestors, base)
		ancestors = append(ancestors, base.Ancestors()...)
	}
	//
	return ancestors
}

// IssubclassOf determines whether this type is (or derives from) another.
func (p *Type) IssubclassOf(other *Type) bool {
	if p == other {
		return true
	}
	//
	for _, base := range p.Bases {
		if base.IssubclassOf(other) {
			return true
		}
	}
	//
	return false
}

func (p *Type) String() string {
	return p.Name
}

// Pointer represents a single property or link declared on a type.
type Pointer struct {
	// ID is the stable identifier of this pointer.
	ID uuid.UUID
	// Name is the short name of this pointer (e.g. "friends").
	Name string
	// Kind determines whether this is a link or property.
	Kind PointerKind
	// Source is the type declaring this pointer.
	Source *Type
	// Target is the type this pointer points at.
	Target *Type
	// Required pointers hold at least one value per source object.
	Required bool
	// Cardinality bounds how many values this pointer holds per source.
	Cardinality Cardinality
	// Exclusive pointers hold values shared by no other source object.
	Exclusive bool
	// Computed pointers are defined by a schema expression rather than
	// stored data.
	Computed bool
	// Secret pointers are hidden from reflection in user queries.
	Secret bool
	// Protected pointers cannot be modified directly by user queries.
	Protected bool
	// Base is the pointer this one was derived from, if any.
	Base *Pointer
	// Link properties declared on this pointer (links only).
	properties []*Pointer
}

// IsID determines whether this is the identity pointer of an object type.
func (p *Pointer) IsID() bool {
	return p.Name == "id" && p.Source != nil && p.Source.IsObject()
}

// NearestNonDerivedParent walks the derivation chain and returns the closest
// pointer (possibly this one) which is not itself derived.  Constraint
// lookups go through this pointer, since derived pointers do not repeat their
// parents' constraint declarations.
func (p *Pointer) NearestNonDerivedParent() *Pointer {
	ptr := p
	for ptr.Base != nil {
		ptr = ptr.Base
	}

	return ptr
}

// HasExclusiveConstraint determines whether this pointer (via its nearest
// non-derived parent) carries an exclusivity constraint.
func (p *Pointer) HasExclusiveConstraint() bool {
	return p.NearestNonDerivedParent().Exclusive
}

// Property looks up a link property declared on this pointer.
func (p *Pointer) Property(name string) (*Pointer, bool) {
	for _, prop := range p.properties {
		if prop.Name == name {
			return prop, true
		}
	}
	//
	return nil, false
}

// Properties returns the link properties declared on this pointer.
func (p *Pointer) Properties() []*Pointer {
	return p.properties
}

// QualifiedName returns the fully qualified name of this pointer.
func (p *Pointer) QualifiedName() string {
	if p.Source == nil {
		return p.Name
	}

	return fmt.Sprintf("%s.%s", p.Source.Name, p.Name)
}

// VerboseName renders this pointer the way diagnostics refer to it, e.g.
// "link 'friends' of object type 'app::User'".
func (p *Pointer) VerboseName() string {
	if p.Source == nil {
		return fmt.Sprintf("%s '%s'", p.Kind, p.Name)
	}

	return fmt.Sprintf("%s '%s' of object type '%s'", p.Kind, p.Name, p.Source.Name)
}

func (p *Pointer) String() string {
	return p.QualifiedName()
}

// Schema holds a complete, linked schema: all types and pointers, indexed by
// name and by identifier.
type Schema struct {
	types        map[string]*Type
	typesByID    map[uuid.UUID]*Type
	pointersByID map[uuid.UUID]*Pointer
}

// New constructs an empty schema populated with the standard prelude.
func New() *Schema {
	p := &Schema{
		types:        make(map[string]*Type),
		typesByID:    make(map[uuid.UUID]*Type),
		pointersByID: make(map[uuid.UUID]*Pointer),
	}
	//
	p.registerPrelude()
	//
	return p
}

// Type looks up a type by qualified name.
func (p *Schema) Type(name string) (*Type, bool) {
	t, ok := p.types[name]
	return t, ok
}

// TypeByID looks up a type by identifier.
func (p *Schema) TypeByID(id uuid.UUID) (*Type, bool) {
	t, ok := p.typesByID[id]
	return t, ok
}

// PointerByID looks up a pointer by identifier.
func (p *Schema) PointerByID(id uuid.UUID) (*Pointer, bool) {
	ptr, ok := p.pointersByID[id]
	return ptr, ok
}

// Types returns all types registered in this schema.  Observe that the order
// in which types are returned is unspecified.
func (p *Schema) Types() []*Type {
	types := make([]*Type, 0, len(p.types))
	for _, t := range p.types {
		types = append(types, t)
	}

	return types
}

// RegisterType adds a new type to this schema, wiring it into its bases'
// child lists.  Object types implicitly receive an identity pointer.
func (p *Schema) RegisterType(t *Type) error {
	if _, ok := p.types[t.Name]; ok {
		return fmt.Errorf("duplicate type %q", t.Name)
	}
	//
	if t.ID == uuid.Nil {
		t.ID = NameToID(t.Name)
	}
	//
	p.types[t.Name] = t
	p.typesByID[t.ID] = t
	//
	for _, base := range t.Bases {
		base.children = append(base.children, t)
	}
	// Object types carry an implicit identity pointer.
	if t.IsObject() && t.Name != FreeObjectName {
		if _, ok := t.Pointer("id"); !ok {
			uuidType := p.types["std::uuid"]
			//
			if err := p.RegisterPointer(&Pointer{
				Name:        "id",
				Kind:        Property,
				Source:      t,
				Target:      uuidType,
				Required:    true,
				Cardinality: One,
				Exclusive:   true,
				Protected:   true,
			}); err != nil {
				return err
			}
		}
	}
	//
	return nil
}

// RegisterPointer adds a new pointer to this schema and attaches it to its
// source type.
func (p *Schema) RegisterPointer(ptr *Pointer) error {
	if ptr.ID == uuid.Nil {
		ptr.ID = NameToID(ptr.QualifiedName())
	}
	//
	if _, ok := p.pointersByID[ptr.ID]; ok {
		return fmt.Errorf("duplicate pointer %q", ptr.QualifiedName())
	}
	//
	p.pointersByID[ptr.ID] = ptr
	//
	if ptr.Source != nil {
		ptr.Source.pointers = append(ptr.Source.pointers, ptr)
	}
	//
	return nil
}

// RegisterLinkProperty adds a new link property to this schema, attached to
// its owning link rather than a source type.
func (p *Schema) RegisterLinkProperty(link *Pointer, prop *Pointer) error {
	if prop.ID == uuid.Nil {
		name := fmt.Sprintf("%s@%s", link.QualifiedName(), prop.Name)
		prop.ID = NameToID(name)
	}
	//
	if _, ok := p.pointersByID[prop.ID]; ok {
		return fmt.Errorf("duplicate link property %q on %q", prop.Name, link.QualifiedName())
	}
	//
	p.pointersByID[prop.ID] = prop
	link.properties = append(link.properties, prop)
	//
	return nil
}
