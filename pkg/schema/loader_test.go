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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadSchema(t *testing.T) {
	sc, err := Load([]byte(`
module: app
types:
  - name: Person
    abstract: true
    properties:
      - name: name
        type: str
        required: true
  - name: User
    bases: [Person]
    properties:
      - name: nick
        type: str
        exclusive: true
    links:
      - name: friends
        target: User
        cardinality: many
        properties:
          - name: strength
            type: float64
  - name: Admin
    bases: [User]
  - name: label
    kind: scalar
    bases: [str]
`))
	assert.NoError(t, err, "a well formed declaration should load")

	person, ok := sc.Type("app::Person")
	assert.True(t, ok, "declared types should register under the module namespace")
	assert.True(t, person.Abstract)

	object, _ := sc.Type("std::Object")
	assert.Equal(t, []*Type{object}, person.Bases, "object types without bases should derive from std::Object")

	user, _ := sc.Type("app::User")
	assert.Equal(t, []*Type{person}, user.Bases, "bases should resolve against declared types")

	// Properties inherit down the declared hierarchy.
	name, ok := user.Pointer("name")
	assert.True(t, ok, "inherited properties should resolve on subtypes")
	assert.Same(t, person, name.Source)
	assert.True(t, name.Required)
	assert.Equal(t, "std::str", name.Target.Name, "unqualified scalar names should resolve against std")

	nick, ok := user.Pointer("nick")
	assert.True(t, ok)
	assert.True(t, nick.Exclusive)
	assert.True(t, nick.HasExclusiveConstraint())

	friends, ok := user.Pointer("friends")
	assert.True(t, ok)
	assert.Equal(t, Link, friends.Kind)
	assert.Equal(t, Many, friends.Cardinality)
	assert.Same(t, user, friends.Target, "link targets should resolve against declared types")

	strength, ok := friends.Property("strength")
	assert.True(t, ok, "link properties should register on their link")
	assert.Equal(t, "std::float64", strength.Target.Name)

	admin, _ := sc.Type("app::Admin")
	assert.True(t, admin.IssubclassOf(person))
	assert.Contains(t, person.Descendants(), admin)

	inherited, ok := admin.Pointer("nick")
	assert.True(t, ok)
	assert.Same(t, nick, inherited)

	label, _ := sc.Type("app::label")
	assert.Equal(t, ScalarKind, label.Kind)
	strType, _ := sc.Type("std::str")
	assert.Equal(t, []*Type{strType}, label.Bases, "scalar bases should resolve against std")

	// The inherited identity pointer is never redeclared on loaded types.
	id, ok := user.Pointer("id")
	assert.True(t, ok)
	assert.NotSame(t, user, id.Source)
}

func TestLoadDefaultModule(t *testing.T) {
	sc, err := Load([]byte(`
types:
  - name: Thing
`))
	assert.NoError(t, err)

	_, ok := sc.Type("default::Thing")
	assert.True(t, ok, "declarations without a module should default to 'default'")
}

func TestLoadForwardReference(t *testing.T) {
	sc, err := Load([]byte(`
types:
  - name: Post
    links:
      - name: author
        target: User
  - name: User
`))
	assert.NoError(t, err, "links may refer to types declared later in the file")

	post, _ := sc.Type("default::Post")
	user, _ := sc.Type("default::User")
	author, ok := post.Pointer("author")
	assert.True(t, ok)
	assert.Same(t, user, author.Target)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  string
	}{
		{
			name: "duplicate type",
			src: `
types:
  - name: User
  - name: User
`,
			err: `duplicate type "default::User"`,
		},
		{
			name: "unknown base",
			src: `
types:
  - name: User
    bases: [Missing]
`,
			err: `unknown type "Missing"`,
		},
		{
			name: "unknown pointer target",
			src: `
types:
  - name: User
    properties:
      - name: name
        type: nope
`,
			err: `unknown type "nope"`,
		},
		{
			name: "missing pointer target",
			src: `
types:
  - name: User
    properties:
      - name: broken
`,
			err: `missing target type for pointer "broken"`,
		},
		{
			name: "unknown cardinality",
			src: `
types:
  - name: User
    links:
      - name: friends
        target: User
        cardinality: several
`,
			err: `pointer "friends": unknown cardinality "several"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.src))
			assert.EqualError(t, err, tt.err)
		})
	}

	_, err := Load([]byte("types: ["))
	assert.Error(t, err, "malformed yaml should fail to load")
}

func TestLoadFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "app.yaml")
	src := []byte(`
module: app
types:
  - name: User
`)
	assert.NoError(t, os.WriteFile(filename, src, 0644))

	sc, err := LoadFile(filename)
	assert.NoError(t, err)

	_, ok := sc.Type("app::User")
	assert.True(t, ok)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "loading a missing file should fail")

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	assert.NoError(t, os.WriteFile(broken, []byte("types: ["), 0644))

	_, err = LoadFile(broken)
	assert.ErrorContains(t, err, "broken.yaml", "load errors should name the offending file")
}
