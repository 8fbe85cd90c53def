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
package vine

import (
	"os"
	"strings"
	"testing"

	"github.com/vinelang/go-vine/pkg/ir"
	"github.com/vinelang/go-vine/pkg/schema"
	"github.com/vinelang/go-vine/pkg/util/source"
)

func Test_Analyze_01(t *testing.T) {
	analyses, errs := AnalyzeString(analysisSchema(t), `
		(select User :shape (name) :filter (= (. User nick) "ada"))
		(insert User :shape ((:= name "ada") (:= nick "ada")))`)
	//
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	} else if len(analyses) != 2 {
		t.Fatalf("expected two analyses, got %d", len(analyses))
	}
	// The exclusive filter pins the select to one object.
	sel := analyses[0]
	//
	if sel.Cardinality() != ir.CardOne {
		t.Errorf("unexpected select cardinality %s", sel.Cardinality())
	}
	//
	if sel.Multiplicity().Own != ir.MultUnique {
		t.Errorf("unexpected select multiplicity %s", sel.Multiplicity().Own)
	}
	//
	if sel.Volatility().Real != ir.VolStable {
		t.Errorf("unexpected select volatility %s", sel.Volatility().Real)
	}
	//
	if sel.ScopeTree() == nil || !sel.ScopeTree().IsFenced() {
		t.Errorf("missing scope tree")
	}
	//
	ins := analyses[1]
	//
	if ins.Cardinality() != ir.CardOne || ins.Volatility().Real != ir.VolModifying {
		t.Errorf("unexpected insert analysis")
	}
}

func Test_Analyze_02(t *testing.T) {
	// Parse errors surface without reaching the analyzer.
	_, errs := AnalyzeString(analysisSchema(t), "(select")
	//
	if len(errs) == 0 {
		t.Fatalf("expected a parse error")
	}
	// Compile errors name the offending symbol.
	_, errs = AnalyzeString(analysisSchema(t), "(select Missing)")
	//
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %d", len(errs))
	}
	//
	if !strings.Contains(errs[0].Message(), "unknown name 'Missing'") {
		t.Errorf("unexpected error %q", errs[0].Message())
	}
}

func Test_Analyze_03(t *testing.T) {
	// End to end over on-disk fixtures, the way the CLI drives the API.
	sch, err := schema.LoadFile("testdata/blog.yaml")
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	//
	bytes, err := os.ReadFile("testdata/blog.vine")
	if err != nil {
		t.Fatalf("failed to read queries: %v", err)
	}
	//
	analyses, errs := AnalyzeSourceFile(sch, source.NewSourceFile("blog.vine", bytes))
	//
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	} else if len(analyses) != 4 {
		t.Fatalf("expected four analyses, got %d", len(analyses))
	}
	// Exclusive handle filter pins the first select to one author.
	if analyses[0].Cardinality() != ir.CardOne {
		t.Errorf("unexpected cardinality %s for statement 1", analyses[0].Cardinality())
	}
	//
	if analyses[0].Multiplicity().Own != ir.MultUnique {
		t.Errorf("unexpected multiplicity %s for statement 1", analyses[0].Multiplicity().Own)
	}
	//
	for i, analysis := range analyses[1:3] {
		if analysis.Cardinality() != ir.CardMany {
			t.Errorf("unexpected cardinality %s for statement %d", analysis.Cardinality(), i+2)
		}
		//
		if analysis.Volatility().Real != ir.VolStable {
			t.Errorf("unexpected volatility %s for statement %d", analysis.Volatility().Real, i+2)
		}
	}
	// Freshly inserted objects form a distinct union.
	ins := analyses[3]
	//
	if ins.Volatility().Real != ir.VolModifying {
		t.Errorf("unexpected insert volatility %s", ins.Volatility().Real)
	}
	//
	if mult := ins.Multiplicity(); mult.Own != ir.MultUnique || !mult.DisjointUnion {
		t.Errorf("unexpected insert multiplicity %s", mult.Own)
	}
}

func Test_Analyze_04(t *testing.T) {
	analyses, errs := AnalyzeString(analysisSchema(t),
		`(select (. User name) :filter (= (. User nick) "ada"))`)
	//
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	} else if len(analyses) != 1 {
		t.Fatalf("expected one analysis, got %d", len(analyses))
	}
	// Both the result and the filter traverse User, so the shared prefix
	// counts twice.
	check_Paths(t, analyses[0], map[string]int{
		"User":      2,
		"User.name": 1,
		"User.nick": 1,
	})
	// Iterator variables render by name, and mentioning one references its
	// path.  The definition itself does not count.
	analyses, errs = AnalyzeString(analysisSchema(t),
		"(for x (select User) (. x name))")
	//
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	//
	check_Paths(t, analyses[0], map[string]int{
		"User":   1,
		"x":      1,
		"x.name": 1,
	})
}

// ===================================================================
// Test Helpers
// ===================================================================

func analysisSchema(t *testing.T) *schema.Schema {
	t.Helper()
	//
	sch, err := schema.Load([]byte(`
types:
  - name: User
    properties:
      - name: name
        type: str
        required: true
      - name: nick
        type: str
        exclusive: true
`))
	//
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	//
	return sch
}

func check_Paths(t *testing.T, analysis *Analysis, expected map[string]int) {
	t.Helper()
	//
	usages := analysis.Paths()
	//
	if len(usages) != len(expected) {
		t.Fatalf("expected %d paths, got %d", len(expected), len(usages))
	}
	//
	for i, usage := range usages {
		name := usage.Path.String()
		// Usages come out sorted by their rendered path.
		if i > 0 && usages[i-1].Path.String() >= name {
			t.Errorf("paths out of order at %s", name)
		}
		//
		if refs, ok := expected[name]; !ok {
			t.Errorf("unexpected path %s", name)
		} else if refs != usage.References {
			t.Errorf("expected %d references for %s, got %d", refs, name, usage.References)
		}
	}
}
