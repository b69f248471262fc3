// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser(t *testing.T) {
	stmts, err := Parse("SELECT 42")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(stmts))
	assert.Equal(t, int32(42), stmts[0].Stmt.GetSelectStmt().GetTargetList()[0].GetResTarget().GetVal().GetAConst().GetIval().Ival)
}

func TestExtractSortQuery(t *testing.T) {
	q, err := ExtractSortQuery("select a, b from t order by b, a")
	require.NoError(t, err)
	assert.Equal(t, "t", q.Table)
	assert.Equal(t, []string{"a", "b"}, q.Projection)
	assert.Equal(t, []string{"b", "a"}, q.Keys)
	assert.True(t, q.Ascending)
	assert.False(t, q.NullsFirst)
}

func TestExtractSortQueryStar(t *testing.T) {
	q, err := ExtractSortQuery("select * from t order by a")
	require.NoError(t, err)
	assert.Equal(t, "t", q.Table)
	assert.Nil(t, q.Projection)
	assert.Equal(t, []string{"a"}, q.Keys)
}

func TestExtractSortQueryDirections(t *testing.T) {
	// desc defaults to nulls first
	q, err := ExtractSortQuery("select a from t order by a desc")
	require.NoError(t, err)
	assert.False(t, q.Ascending)
	assert.True(t, q.NullsFirst)

	// explicit nulls placement overrides the default
	q, err = ExtractSortQuery("select a from t order by a asc nulls first")
	require.NoError(t, err)
	assert.True(t, q.Ascending)
	assert.True(t, q.NullsFirst)

	q, err = ExtractSortQuery("select a from t order by a desc nulls last")
	require.NoError(t, err)
	assert.False(t, q.Ascending)
	assert.False(t, q.NullsFirst)
}

func TestExtractSortQueryRejects(t *testing.T) {
	for _, sql := range []string{
		"select a from t",                              // no order by
		"select a from t order by a asc, b desc",       // mixed directions
		"select a from t where a > 1 order by a",       // filter
		"select a from t, s order by a",                // two tables
		"select count(*) from t order by 1",            // expression projection
		"select a from t order by a; select b from t;", // two statements
		"select a from t group by a order by a",
		"select a from t order by a limit 10",
		"select a from t order by lower(a)", // expression key
		"insert into t values (1)",
	} {
		_, err := ExtractSortQuery(sql)
		assert.Error(t, err, sql)
	}
}
