// Copyright 2025 MakeMCP Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graphql

import "strings"

// BuildQuery renders the final query string for one invocation.
// Empty where/pagination segments are omitted entirely, matching the
// exact literal shape scenario #4/#5 expect.
func BuildQuery(rootFieldName, whereLiteral, paginationArgs, selectionSet string) string {
	var args []string
	if whereLiteral != "" {
		args = append(args, "where: { "+whereLiteral+" }")
	}
	if paginationArgs != "" {
		args = append(args, paginationArgs)
	}

	var b strings.Builder
	b.WriteString("query Get_")
	b.WriteString(rootFieldName)
	b.WriteString(" { ")
	b.WriteString(rootFieldName)
	if len(args) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(args, " "))
		b.WriteString(")")
	}
	b.WriteString(" ")
	b.WriteString(selectionSet)
	b.WriteString(" }")
	return b.String()
}
