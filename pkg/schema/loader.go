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
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// schemaDecl mirrors the top level of a schema declaration file.
type schemaDecl struct {
	// Module provides the default namespace for unqualified names.
	Module string `yaml:"module"`
	// Types declared by this schema.
	Types []typeDecl `yaml:"types"`
}

// typeDecl mirrors a single type declaration.
type typeDecl struct {
	Name       string        `yaml:"name"`
	Kind       string        `yaml:"kind"`
	Abstract   bool          `yaml:"abstract"`
	Bases      []string      `yaml:"bases"`
	Properties []pointerDecl `yaml:"properties"`
	Links      []pointerDecl `yaml:"links"`
}

// pointerDecl mirrors a single property or link declaration.  Properties
// name their target via "type", links via "target"; either key is accepted
// for both.
type pointerDecl struct {
	Name        string        `yaml:"name"`
	Type        string        `yaml:"type"`
	Target      string        `yaml:"target"`
	Required    bool          `yaml:"required"`
	Cardinality string        `yaml:"cardinality"`
	Exclusive   bool          `yaml:"exclusive"`
	Computed    bool          `yaml:"computed"`
	Secret      bool          `yaml:"secret"`
	Protected   bool          `yaml:"protected"`
	Properties  []pointerDecl `yaml:"properties"`
}

// LoadFile reads a schema declaration file and links it over the standard
// prelude.
func LoadFile(filename string) (*Schema, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	//
	sc, err := Load(bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	//
	return sc, nil
}

// Load parses a schema declaration from its YAML form and links it over the
// standard prelude.
func Load(bytes []byte) (*Schema, error) {
	var decl schemaDecl
	//
	if err := yaml.Unmarshal(bytes, &decl); err != nil {
		return nil, err
	}
	//
	return link(&decl)
}

// link turns a parsed declaration into a fully wired schema.  Types are
// created up front so that links and bases may refer to types declared later
// in the same file.
func link(decl *schemaDecl) (*Schema, error) {
	sc := New()
	module := decl.Module
	//
	if module == "" {
		module = "default"
	}
	// Create all declared types before resolving anything.
	declared := make(map[string]*Type)
	//
	for _, td := range decl.Types {
		t := &Type{
			Name:     qualify(td.Name, module),
			Kind:     typeKindOf(td.Kind),
			Abstract: td.Abstract,
		}
		//
		if _, ok := declared[t.Name]; ok {
			return nil, fmt.Errorf("duplicate type %q", t.Name)
		}
		//
		declared[t.Name] = t
	}
	// Resolve bases and register, in declaration order.
	for _, td := range decl.Types {
		t := declared[qualify(td.Name, module)]
		//
		if bases, err := resolveBases(sc, declared, module, t, td.Bases); err != nil {
			return nil, err
		} else {
			t.Bases = bases
		}
		//
		if err := sc.RegisterType(t); err != nil {
			return nil, err
		}
	}
	// Resolve and register pointers.
	for _, td := range decl.Types {
		t := declared[qualify(td.Name, module)]
		//
		if err := linkPointers(sc, declared, module, t, &td); err != nil {
			return nil, err
		}
	}
	//
	return sc, nil
}

// linkPointers registers the property and link declarations of a single
// type, including any link properties.
func linkPointers(sc *Schema, declared map[string]*Type, module string, t *Type, td *typeDecl) error {
	for _, pd := range td.Properties {
		if _, err := linkPointer(sc, declared, module, t, &pd, Property); err != nil {
			return err
		}
	}
	//
	for _, ld := range td.Links {
		link, err := linkPointer(sc, declared, module, t, &ld, Link)
		if err != nil {
			return err
		}
		//
		for _, pd := range ld.Properties {
			prop, err := buildPointer(sc, declared, module, nil, &pd, Property)
			if err != nil {
				return err
			}
			//
			if err := sc.RegisterLinkProperty(link, prop); err != nil {
				return err
			}
		}
	}
	//
	return nil
}

// linkPointer builds and registers a single pointer declaration.
func linkPointer(sc *Schema, declared map[string]*Type, module string, t *Type,
	pd *pointerDecl, kind PointerKind) (*Pointer, error) {
	//
	ptr, err := buildPointer(sc, declared, module, t, pd, kind)
	if err != nil {
		return nil, err
	}
	//
	if err := sc.RegisterPointer(ptr); err != nil {
		return nil, err
	}
	//
	return ptr, nil
}

// buildPointer constructs a pointer from its declaration, resolving the
// target type.
func buildPointer(sc *Schema, declared map[string]*Type, module string, source *Type,
	pd *pointerDecl, kind PointerKind) (*Pointer, error) {
	//
	targetName := pd.Type
	if targetName == "" {
		targetName = pd.Target
	}
	//
	if targetName == "" {
		return nil, fmt.Errorf("missing target type for pointer %q", pd.Name)
	}
	//
	target, err := resolveType(sc, declared, module, targetName)
	if err != nil {
		return nil, err
	}
	//
	card, err := cardinalityOf(pd.Cardinality)
	if err != nil {
		return nil, fmt.Errorf("pointer %q: %w", pd.Name, err)
	}
	//
	return &Pointer{
		Name:        pd.Name,
		Kind:        kind,
		Source:      source,
		Target:      target,
		Required:    pd.Required,
		Cardinality: card,
		Exclusive:   pd.Exclusive,
		Computed:    pd.Computed,
		Secret:      pd.Secret,
		Protected:   pd.Protected,
	}, nil
}

// resolveBases resolves the declared bases of a type, defaulting object
// types to std::Object.
func resolveBases(sc *Schema, declared map[string]*Type, module string, t *Type, names []string) ([]*Type, error) {
	if len(names) == 0 {
		if t.Kind == ObjectKind {
			object, _ := sc.Type("std::Object")
			return []*Type{object}, nil
		}
		//
		return nil, nil
	}
	//
	bases := make([]*Type, len(names))
	//
	for i, name := range names {
		base, err := resolveType(sc, declared, module, name)
		if err != nil {
			return nil, err
		}
		//
		bases[i] = base
	}
	//
	return bases, nil
}

// resolveType looks a type name up amongst the declared types, then the
// prelude.
func resolveType(sc *Schema, declared map[string]*Type, module string, name string) (*Type, error) {
	qualified := qualify(name, module)
	//
	if t, ok := declared[qualified]; ok {
		return t, nil
	}
	//
	if t, ok := sc.Type(qualified); ok {
		return t, nil
	}
	// Unqualified names also resolve against std.
	if !strings.Contains(name, "::") {
		if t, ok := sc.Type(fmt.Sprintf("std::%s", name)); ok {
			return t, nil
		}
	}
	//
	return nil, fmt.Errorf("unknown type %q", name)
}

// qualify prefixes an unqualified name with the default module.
func qualify(name string, module string) string {
	if strings.Contains(name, "::") {
		return name
	}

	return fmt.Sprintf("%s::%s", module, name)
}

// typeKindOf maps a declared kind string onto its enum.
func typeKindOf(kind string) TypeKind {
	if kind == "scalar" {
		return ScalarKind
	}

	return ObjectKind
}

// cardinalityOf maps a declared cardinality string onto its enum, where the
// empty string defaults to a single value.
func cardinalityOf(card string) (Cardinality, error) {
	switch card {
	case "", "one", "single":
		return One, nil
	case "many", "multi":
		return Many, nil
	default:
		return One, fmt.Errorf("unknown cardinality %q", card)
	}
}
