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

import "testing"

// TestBuildQueryGroundsScenarioFour reproduces §8 scenario #4's exact
// (whitespace-normalized) expected query.
func TestBuildQueryGroundsScenarioFour(t *testing.T) {
	got := BuildQuery("users", `name: { eq: "Ada" }`, "", "{ id name }")
	want := `query Get_users { users (where: { name: { eq: "Ada" } }) { id name } }`
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQueryOmitsEmptyWhereAndPagination(t *testing.T) {
	got := BuildQuery("users", "", "", "{ id }")
	want := "query Get_users { users { id } }"
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQueryWithPaginationOnly(t *testing.T) {
	got := BuildQuery("users", "", "limit: 10", "{ id }")
	want := "query Get_users { users (limit: 10) { id } }"
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}

func TestBuildQueryWithWhereAndPagination(t *testing.T) {
	got := BuildQuery("users", `name: { eq: "Ada" }`, "limit: 10", "{ id }")
	want := `query Get_users { users (where: { name: { eq: "Ada" } } limit: 10) { id } }`
	if got != want {
		t.Errorf("BuildQuery = %q, want %q", got, want)
	}
}
