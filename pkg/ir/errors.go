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

// InvalidScopeConfiguration reports that a scope tree operation would have
// produced an inconsistent tree, e.g. duplicating a path within one scope or
// referencing a path across a boundary that forbids it.  Both conflicting
// nodes are retained so callers can produce precise diagnostics.
type InvalidScopeConfiguration struct {
	// Msg describes the violation.
	Msg string
	// OffendingNode is the node whose attachment caused the violation.
	OffendingNode *ScopeTreeNode
	// ExistingNode is the already-attached node conflicting with it.
	ExistingNode *ScopeTreeNode
}

// Error implements the error interface.
func (p *InvalidScopeConfiguration) Error() string {
	return p.Msg
}
